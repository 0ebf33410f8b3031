package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/chrisuehlinger/glcontext/internal/config"
	applog "github.com/chrisuehlinger/glcontext/internal/log"
	"github.com/chrisuehlinger/glcontext/internal/metrics"
	"github.com/chrisuehlinger/glcontext/js"
	"github.com/chrisuehlinger/glcontext/network"
)

// Usage: glcontext [page.html]
// Reads the page from stdin when no file is given.
func main() {
	cfg, err := config.LoadRunner()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	applog.Configure(applog.Config{Level: cfg.LogLevel})

	if err := run(cfg, os.Args[1:]); err != nil {
		reportFailure(err)
		os.Exit(1)
	}
}

func reportFailure(err error) {
	logger := applog.Base()
	logger.Error().Err(err).Msg("run failed")
}

func run(cfg config.Runner, args []string) error {
	var in io.Reader = os.Stdin
	name := "stdin"
	dir := "."
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open page: %w", err)
		}
		defer f.Close()
		in = f
		name = args[0]
		dir = filepath.Dir(args[0])
	}

	logger := applog.WithComponent("runner").With().Str("page", name).Logger()

	runtime := js.NewRuntime()
	executor := js.NewScriptExecutor(runtime)
	defer executor.Cleanup()

	if err := executor.LoadHTML(in); err != nil {
		return err
	}

	if cfg.LoadExternal {
		client, err := network.NewClient(
			network.WithTimeout(cfg.FetchTimeout),
			network.WithUserAgent(cfg.UserAgent),
		)
		if err != nil {
			return err
		}
		executor.SetScriptSource(network.NewLoader(client, network.WithLocalPath(dir)))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	scriptErrs := executor.ExecuteScriptsContext(ctx)
	turns := executor.RunEventLoop(cfg.MaxTurns)

	if cfg.LoseContext {
		for _, c := range executor.Canvases() {
			c.LoseContext(cfg.LossMessage)
		}
		turns += executor.RunEventLoop(cfg.MaxTurns)

		if cfg.RestoreAfter {
			for _, c := range executor.Canvases() {
				c.RestoreContext()
			}
			turns += executor.RunEventLoop(cfg.MaxTurns)
		}
	}

	logger.Info().
		Str("realm", runtime.RealmID()).
		Int("turns", turns).
		Int("reflected", runtime.Registry().Len()).
		Msg("page finished")

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Error().Err(err).Str("path", cfg.MetricsFile).Msg("metrics not written")
		}
	}

	errs := runtime.Errors()
	if len(errs) == 0 && len(scriptErrs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs)+len(scriptErrs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	for _, e := range scriptErrs {
		if !runtimeRecorded(errs, e) {
			msgs = append(msgs, e.Error())
		}
	}
	return fmt.Errorf("%d script error(s): %s", len(msgs), strings.Join(msgs, "; "))
}

// runtimeRecorded reports whether err is already among the runtime's errors.
func runtimeRecorded(errs []error, err error) bool {
	for _, e := range errs {
		if e == err {
			return true
		}
	}
	return false
}
