package platform

import (
	"context"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v4/process"
)

// ProcessPrivilege checks the effective UID of a process.
type ProcessPrivilege struct {
	pid int32
}

// NewPrivilegeChecker returns a checker for the current process.
func NewPrivilegeChecker() PrivilegeChecker {
	return &ProcessPrivilege{pid: int32(os.Getpid())}
}

// Elevated reports whether the process runs with effective UID 0.
// gopsutil returns UIDs as [real, effective, saved, filesystem].
func (p *ProcessPrivilege) Elevated(ctx context.Context) (bool, error) {
	proc, err := process.NewProcessWithContext(ctx, p.pid)
	if err != nil {
		return false, fmt.Errorf("inspect process %d: %w", p.pid, err)
	}

	uids, err := proc.UidsWithContext(ctx)
	if err != nil {
		return false, fmt.Errorf("read uids of process %d: %w", p.pid, err)
	}

	return effectiveUID(uids) == 0, nil
}

// effectiveUID picks the effective UID out of a gopsutil UID list.
// An empty list yields a non-root sentinel.
func effectiveUID(uids []uint32) uint32 {
	switch len(uids) {
	case 0:
		return ^uint32(0)
	case 1:
		return uids[0]
	default:
		return uids[1]
	}
}

// StaticPrivilege is a PrivilegeChecker with a fixed answer.
type StaticPrivilege bool

// Elevated returns the fixed answer.
func (s StaticPrivilege) Elevated(ctx context.Context) (bool, error) {
	return bool(s), nil
}
