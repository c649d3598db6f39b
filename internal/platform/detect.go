package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// HostDetector implements Detector using gopsutil.
type HostDetector struct{}

// NewDetector creates a new host detector.
func NewDetector() Detector {
	return &HostDetector{}
}

// Detect returns OS and architecture from the Go runtime and fills in
// hostname and distribution details from gopsutil.
//
// A gopsutil failure is not fatal: the runtime fields are still returned.
// A cancelled context is.
func (d *HostDetector) Detect(ctx context.Context) (*Info, error) {
	info := &Info{
		OS:   runtime.GOOS,
		Arch: normalizeArch(runtime.GOARCH),
	}

	stat, err := host.InfoWithContext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("host detection cancelled: %w", ctx.Err())
		}
		return info, nil
	}

	info.Hostname = stat.Hostname
	if info.IsLinux() {
		if distro := normalizeID(stat.Platform); distro != "" {
			info.Distro = distro
			info.Family = mapFamily(stat.PlatformFamily)
			info.DistroVersion = normalizeID(stat.PlatformVersion)
		}
	}

	return info, nil
}
