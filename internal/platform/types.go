// Package platform describes the host handoff runs on.
//
// It detects OS, architecture and Linux distribution details through
// gopsutil, decides whether the current process holds administrative
// privilege, and exposes the detected host to Lua configuration files as a
// read-only "platform" table.
package platform

import "context"

// Linux distribution family constants.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro
	FamilyAlpine  = "alpine"  // Alpine Linux
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// Info contains host detection results.
type Info struct {
	Hostname      string
	OS            string // "linux", "darwin", "windows"
	Arch          string // normalized: "amd64", "arm64", or GOARCH as-is
	Distro        string // distro ID (Linux only, e.g., "ubuntu")
	Family        string // canonical family (e.g., "debian")
	DistroVersion string // e.g., "22.04"
}

// IsLinux returns true if the host runs Linux.
func (i *Info) IsLinux() bool {
	return i.OS == "linux"
}

// IsFamily reports whether the host is a Linux distribution of the given family.
func (i *Info) IsFamily(family string) bool {
	return i.IsLinux() && i.Family == family
}

// Detector is the interface for host detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}

// PrivilegeChecker reports whether the current process may perform
// administrative operations.
type PrivilegeChecker interface {
	Elevated(ctx context.Context) (bool, error)
}
