package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/handoff/internal/config"
	"github.com/ZebulonRouseFrantzich/handoff/internal/debuglog"
	"github.com/ZebulonRouseFrantzich/handoff/internal/platform"
	"github.com/ZebulonRouseFrantzich/handoff/internal/runner"
)

// Set at build time via -ldflags "-X main.Version=... -X main.DefaultURL=...".
// DefaultURL is empty in plain builds, so HANDOFF_URL must then be set.
var (
	Version    = "v0.0.1"
	DefaultURL = ""
)

type runFunc func(ctx context.Context, args []string) (int, error)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	console := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	code := execute(ctx, os.Args[1:], &console, func(ctx context.Context, args []string) (int, error) {
		return run(ctx, args, &console)
	})
	stop()
	os.Exit(code)
}

// execute runs the root command and maps its outcome to an exit status.
func execute(ctx context.Context, args []string, console *zerolog.Logger, fn runFunc) int {
	if args == nil {
		// cobra reads os.Args when given nil
		args = []string{}
	}

	code := 0
	cmd := newRootCommand(fn, &code)
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		event := console.Error().Err(err)
		if stage, ok := runner.StageOf(err); ok {
			event = event.Stringer("stage", stage)
		}
		event.Msg("handoff failed")
		if code == 0 {
			code = 1
		}
	}
	return code
}

func newRootCommand(fn runFunc, code *int) *cobra.Command {
	return &cobra.Command{
		Use:   "handoff [args...]",
		Short: "Download, verify and run a remote setup script",
		Long: `handoff downloads a setup script, checks that it looks sane, and runs it
through an interpreter. Every argument is passed to the script unchanged.

Configuration comes from HANDOFF_* environment variables, a .env file in the
working directory, and an optional Lua file named by HANDOFF_CONFIG.

The script URL has no built-in default. Bake one in at build time with
  go build -ldflags "-X main.DefaultURL=https://example.com/setup.py" ./cmd/handoff
or set HANDOFF_URL when running.`,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		Args:               cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := fn(cmd.Context(), args)
			*code = c
			return err
		},
	}
}

func run(ctx context.Context, args []string, console *zerolog.Logger) (int, error) {
	base := config.Default()
	if DefaultURL != "" {
		base.URL = DefaultURL
	}
	base.UserAgent = "handoff/" + Version

	settings, err := config.NewLoader(platform.NewDetector()).Load(ctx, base)
	if err != nil {
		return 1, fmt.Errorf("load config: %w", err)
	}

	log, err := debuglog.Open(settings.DebugLogPath, uuid.NewString())
	if err != nil {
		return 1, err
	}
	log.Logger().Info().Str("version", Version).Msg("handoff starting")

	deps, err := runner.DefaultDeps(settings, log, console)
	if err != nil {
		log.Close()
		return 1, err
	}
	return runner.New(settings, deps).Run(ctx, args)
}
