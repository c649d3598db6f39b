package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ZebulonRouseFrantzich/handoff/internal/config"
	"github.com/ZebulonRouseFrantzich/handoff/internal/debuglog"
	"github.com/ZebulonRouseFrantzich/handoff/internal/fetch"
	"github.com/ZebulonRouseFrantzich/handoff/internal/handoff"
	"github.com/ZebulonRouseFrantzich/handoff/internal/netprobe"
	"github.com/ZebulonRouseFrantzich/handoff/internal/platform"
	"github.com/ZebulonRouseFrantzich/handoff/internal/verify"
	"github.com/rs/zerolog"
)

// Verifier checks a downloaded artifact.
type Verifier interface {
	Verify(path string) (*verify.Report, error)
}

// Releaser is a held run lock.
type Releaser interface {
	Release() error
}

// Locker takes the run lock in dir.
type Locker func(ctx context.Context, dir, runID string) (Releaser, error)

// Deps are the capabilities a run uses.
type Deps struct {
	Privilege platform.PrivilegeChecker
	Prober    netprobe.Prober
	Methods   []fetch.Method
	// Signature downloads the detached signature when one is configured.
	Signature fetch.Method
	Verifier  Verifier
	Lock      Locker
	Handoff   handoff.Handoff
	Log       *debuglog.Log

	// Console receives user-facing status. Nil discards it.
	Console *zerolog.Logger
	// Diagnostics receives the debug log and previews on failure. Nil
	// means os.Stderr.
	Diagnostics io.Writer
}

// Runner executes runs for one set of settings.
type Runner struct {
	settings *config.Settings
	deps     Deps
	console  *zerolog.Logger
}

// New creates a Runner. Deps.Lock defaults to AcquireLock.
func New(settings *config.Settings, deps Deps) *Runner {
	if deps.Lock == nil {
		deps.Lock = AcquireLock
	}
	if deps.Diagnostics == nil {
		deps.Diagnostics = os.Stderr
	}
	console := deps.Console
	if console == nil {
		nop := zerolog.Nop()
		console = &nop
	}
	return &Runner{settings: settings, deps: deps, console: console}
}

// Run performs one run, forwarding args verbatim to the artifact. It returns
// the handed-off process' exit status, or 1 with a stage error. Diagnostics
// are written before a failing Run returns. With an exec handoff a
// successful Run never returns.
func (r *Runner) Run(ctx context.Context, args []string) (int, error) {
	code, err := r.run(ctx, args)
	if err != nil {
		r.fail(err)
		return 1, err
	}
	return code, nil
}

func (r *Runner) run(ctx context.Context, args []string) (int, error) {
	s := r.settings
	dlog := r.deps.Log.Logger()
	dlog.Info().Str("url", s.URL).Strs("args", args).Str("artifact", s.ArtifactPath).Msg("run started")

	if s.RequireRoot {
		r.enter(StagePrivCheck)
		elevated, err := r.deps.Privilege.Elevated(ctx)
		if err != nil {
			return 1, &PrivilegeError{Err: err}
		}
		if !elevated {
			return 1, &PrivilegeError{Err: ErrNotElevated}
		}
	}

	r.enter(StageNetProbe)
	host := s.ProbeTarget()
	r.console.Info().Str("host", host).Msg("Checking network connectivity")
	if err := r.deps.Prober.Probe(ctx, host); err != nil {
		return 1, &ConnectivityError{Host: host, Err: err}
	}

	r.enter(StageLock)
	dir := s.LockDirectory()
	held, err := r.deps.Lock(ctx, dir, r.deps.Log.RunID())
	if err != nil {
		return 1, &LockError{Dir: dir, Err: err}
	}
	defer held.Release()

	r.enter(StageDownload)
	if err := r.download(ctx); err != nil {
		return 1, err
	}

	r.enter(StageVerify)
	if err := r.verify(); err != nil {
		return 1, err
	}

	r.enter(StageChmod)
	if err := handoff.MakeExecutable(s.ArtifactPath); err != nil {
		return 1, &HandoffError{At: StageChmod, Err: err}
	}

	r.enter(StageCleanup)
	if err := held.Release(); err != nil {
		return 1, &HandoffError{At: StageCleanup, Err: err}
	}
	req := handoff.Request{
		Interpreter:     s.Interpreter,
		InterpreterArgs: s.InterpreterArgs,
		Artifact:        s.ArtifactPath,
		Args:            args,
	}
	dlog.Info().Strs("argv", req.Argv()).Msg("handing off")
	if err := r.deps.Log.Remove(); err != nil {
		return 1, &HandoffError{At: StageCleanup, Err: err}
	}

	r.console.Info().Str("interpreter", s.Interpreter).Msg("Handing off to downloaded script")
	code, err := r.deps.Handoff.Handoff(ctx, req)
	if err != nil {
		return 1, &HandoffError{At: StageHandoff, Err: err}
	}
	return code, nil
}

func (r *Runner) enter(stage Stage) {
	r.deps.Log.Logger().Debug().Stringer("stage", stage).Msg("entering stage")
}

func (r *Runner) download(ctx context.Context) error {
	s := r.settings
	dlog := r.deps.Log.Logger()

	chain := fetch.NewChain(r.deps.Methods...)
	chain.OnAttempt(func(a fetch.Attempt) {
		if a.Err != nil {
			dlog.Warn().Str("method", a.Method).Dur("duration", a.Duration).Err(a.Err).Msg("download method failed")
			r.console.Warn().Str("method", a.Method).Err(a.Err).Msg("Download method failed")
			return
		}
		dlog.Info().Str("method", a.Method).Dur("duration", a.Duration).Msg("download method succeeded")
	})

	r.console.Info().Str("url", s.URL).Strs("methods", chain.Methods()).Msg("Downloading")
	res, err := chain.Run(ctx, s.URL, s.ArtifactPath)
	if err != nil {
		preview, _ := verify.Preview(s.ArtifactPath, r.previewLines())
		return &DownloadError{URL: s.URL, Attempts: res.Attempts, Preview: preview, Err: err}
	}
	r.console.Info().Str("method", res.Artifact.Method).Int64("bytes", res.Artifact.Size).Msg("Download complete")

	if s.SignatureURL == "" {
		return nil
	}
	if r.deps.Signature == nil {
		return &DownloadError{URL: s.SignatureURL, Err: errors.New("no signature download method configured")}
	}
	err = r.deps.Signature.Fetch(ctx, s.SignatureURL, s.SignaturePath())
	if err != nil {
		return &DownloadError{
			URL:      s.SignatureURL,
			Attempts: []fetch.Attempt{{Method: r.deps.Signature.Name(), Err: err}},
			Err:      err,
		}
	}
	dlog.Info().Str("url", s.SignatureURL).Str("path", s.SignaturePath()).Msg("signature downloaded")
	return nil
}

func (r *Runner) verify() error {
	dlog := r.deps.Log.Logger()

	report, err := r.deps.Verifier.Verify(r.settings.ArtifactPath)
	if err != nil {
		vErr := &VerificationError{Err: err}
		var ve *verify.Error
		if errors.As(err, &ve) {
			vErr.Check = ve.Check
			vErr.Contents = ve.Contents
		}
		return vErr
	}

	for _, res := range report.Results {
		dlog.Debug().Stringer("check", res.Check).Bool("success", res.Success).Msg("verification check")
	}
	r.console.Info().Int64("bytes", report.Size).Msg("Verification passed")
	return nil
}

func (r *Runner) previewLines() int {
	if r.settings.PreviewLines > 0 {
		return r.settings.PreviewLines
	}
	return verify.DefaultPreviewLines
}

// fail records err and writes diagnostics. The debug log stays on disk.
func (r *Runner) fail(err error) {
	stage, _ := StageOf(err)
	log := r.deps.Log
	w := r.deps.Diagnostics

	if log.Exists() {
		log.Logger().Error().Err(err).Stringer("stage", stage).Msg("run failed")
	}

	var dErr *DownloadError
	var vErr *VerificationError
	switch {
	case errors.As(err, &dErr):
		for i, a := range dErr.Attempts {
			fmt.Fprintf(w, "attempt %d (%s): %v\n", i+1, a.Method, a.Err)
		}
		writeSection(w, "partial download", dErr.Preview)
	case errors.As(err, &vErr):
		writeSection(w, "downloaded file", vErr.Contents)
	}

	if log.Exists() {
		fmt.Fprintf(w, "--- debug log: %s ---\n", log.Path())
		if err := log.Dump(w); err != nil {
			fmt.Fprintf(w, "cannot read debug log: %v\n", err)
		}
		fmt.Fprintln(w, "--- end of debug log ---")
	}
	log.Close()
}

func writeSection(w io.Writer, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(w, "--- %s ---\n", title)
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}
