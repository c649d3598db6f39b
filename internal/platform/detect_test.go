package platform

import (
	"context"
	"runtime"
	"testing"
)

func TestHostDetector_Detect(t *testing.T) {
	info, err := NewDetector().Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if info.OS != runtime.GOOS {
		t.Errorf("OS = %v, want %v", info.OS, runtime.GOOS)
	}
	if info.Arch == "" {
		t.Error("Arch should not be empty")
	}

	if info.Distro != "" && info.Family == "" {
		t.Error("Family should be set when Distro is set")
	}
	if runtime.GOOS != "linux" && info.Distro != "" {
		t.Errorf("Distro should be empty on non-Linux, got %v", info.Distro)
	}
}

func TestHostDetector_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// gopsutil may answer from cache before noticing the cancellation;
	// either outcome is acceptable as long as no partial info leaks out
	// alongside an error.
	info, err := NewDetector().Detect(ctx)
	if err != nil && info != nil {
		t.Errorf("Detect() returned info %+v together with error %v", info, err)
	}
}

func TestInfo_IsFamily(t *testing.T) {
	tests := []struct {
		name   string
		info   Info
		family string
		want   bool
	}{
		{"debian on linux", Info{OS: "linux", Family: FamilyDebian}, FamilyDebian, true},
		{"rhel on linux", Info{OS: "linux", Family: FamilyRHEL}, FamilyDebian, false},
		{"family ignored off linux", Info{OS: "darwin", Family: FamilyDebian}, FamilyDebian, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.IsFamily(tt.family); got != tt.want {
				t.Errorf("IsFamily(%q) = %v, want %v", tt.family, got, tt.want)
			}
		})
	}
}
