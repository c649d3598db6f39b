package runner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ZebulonRouseFrantzich/handoff/internal/fetch"
	"github.com/ZebulonRouseFrantzich/handoff/internal/verify"
)

// ErrNotElevated means the process lacks administrative privilege.
var ErrNotElevated = errors.New("administrative privileges required, re-run as root")

// PrivilegeError ends the run at PRIV_CHECK.
type PrivilegeError struct {
	Err error
}

func (e *PrivilegeError) Error() string {
	return fmt.Sprintf("privilege check failed: %v", e.Err)
}

func (e *PrivilegeError) Unwrap() error { return e.Err }

func (e *PrivilegeError) Stage() Stage { return StagePrivCheck }

// ConnectivityError ends the run at NET_PROBE.
type ConnectivityError struct {
	Host string
	Err  error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("network check failed: cannot reach %s: %v", e.Host, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

func (e *ConnectivityError) Stage() Stage { return StageNetProbe }

// LockError means another run holds the lock.
type LockError struct {
	Dir string
	Err error
}

func (e *LockError) Error() string {
	return fmt.Sprintf("cannot lock %s: %v", e.Dir, e.Err)
}

func (e *LockError) Unwrap() error { return e.Err }

func (e *LockError) Stage() Stage { return StageLock }

// DownloadError means no method produced the artifact. Preview holds the
// leading lines of whatever was partially written.
type DownloadError struct {
	URL      string
	Attempts []fetch.Attempt
	Preview  []string
	Err      error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s failed: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

func (e *DownloadError) Stage() Stage { return StageDownload }

// VerificationError means the downloaded artifact was rejected.
type VerificationError struct {
	Check    verify.Check
	Contents []string
	Err      error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verification failed: %v", e.Err)
}

func (e *VerificationError) Unwrap() error { return e.Err }

func (e *VerificationError) Stage() Stage { return StageVerify }

// HandoffError covers CHMOD, CLEANUP and EXEC_HANDOFF failures.
type HandoffError struct {
	At  Stage
	Err error
}

func (e *HandoffError) Error() string {
	return fmt.Sprintf("%s failed: %v", strings.ToLower(e.At.String()), e.Err)
}

func (e *HandoffError) Unwrap() error { return e.Err }

func (e *HandoffError) Stage() Stage { return e.At }

// StageOf returns the stage a run error occurred in.
func StageOf(err error) (Stage, bool) {
	var staged interface{ Stage() Stage }
	if errors.As(err, &staged) {
		return staged.Stage(), true
	}
	return StageStart, false
}
