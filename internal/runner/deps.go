package runner

import (
	"context"
	"io"
	"os"

	"github.com/ZebulonRouseFrantzich/handoff/internal/config"
	"github.com/ZebulonRouseFrantzich/handoff/internal/debuglog"
	"github.com/ZebulonRouseFrantzich/handoff/internal/fetch"
	"github.com/ZebulonRouseFrantzich/handoff/internal/handoff"
	"github.com/ZebulonRouseFrantzich/handoff/internal/lock"
	"github.com/ZebulonRouseFrantzich/handoff/internal/netprobe"
	"github.com/ZebulonRouseFrantzich/handoff/internal/platform"
	"github.com/ZebulonRouseFrantzich/handoff/internal/verify"
	"github.com/rs/zerolog"
)

// AcquireLock is the default Locker.
func AcquireLock(ctx context.Context, dir, runID string) (Releaser, error) {
	l, err := lock.Acquire(ctx, dir, runID)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// DefaultDeps wires the real capabilities for s. External tool output goes
// to log.
func DefaultDeps(s *config.Settings, log *debuglog.Log, console *zerolog.Logger) (Deps, error) {
	prober, err := netprobe.New(s.ProbeMode, s.ProbeTimeout)
	if err != nil {
		return Deps{}, err
	}

	methods, err := fetch.Build(s.Methods, fetch.Options{
		Output:    func(method string) io.WriteCloser { return log.Stream(method) },
		Timeout:   s.HTTPTimeout,
		UserAgent: s.UserAgent,
	})
	if err != nil {
		return Deps{}, err
	}

	var h handoff.Handoff = handoff.Default()
	if s.HandoffMode == config.ModeChild {
		h = handoff.NewCommandHandoff()
	}

	return Deps{
		Privilege:   platform.NewPrivilegeChecker(),
		Prober:      prober,
		Methods:     methods,
		Signature:   fetch.NewHTTPMethod(s.HTTPTimeout, s.UserAgent),
		Verifier:    verify.NewVerifier(verifyOptions(s)),
		Lock:        AcquireLock,
		Handoff:     h,
		Log:         log,
		Console:     console,
		Diagnostics: os.Stderr,
	}, nil
}

func verifyOptions(s *config.Settings) verify.Options {
	return verify.Options{
		MinSize:             s.MinSize,
		PreviewLines:        s.PreviewLines,
		ErrorMarkers:        s.ErrorMarkers,
		DisableContentCheck: !s.ContentCheck,
		SHA256:              s.SHA256,
		Signature:           s.Signature(s.SignaturePath()),
	}
}
