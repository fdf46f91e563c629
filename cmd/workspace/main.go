// Command workspace is a local command line client for the coworking booking core.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/coworkspace/internal/application"
	"github.com/example/coworkspace/internal/config"
	"github.com/example/coworkspace/internal/logging"
	"github.com/example/coworkspace/internal/persistence"
	"github.com/example/coworkspace/internal/persistence/filestore"
	"github.com/example/coworkspace/internal/persistence/memory"
	"github.com/example/coworkspace/internal/persistence/sqlite"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("workspace", flag.ContinueOnError)
	global.SetOutput(stderr)
	envFile := global.String("env", ".env", "path of an optional .env file")
	global.Usage = func() { printUsage(stderr) }
	if err := global.Parse(args); err != nil {
		return exitUsage
	}
	if global.NArg() == 0 {
		printUsage(stderr)
		return exitUsage
	}

	name, rest := global.Arg(0), global.Args()[1:]
	cmd, ok := lookupCommand(name)
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", name)
		printUsage(stderr)
		return exitUsage
	}

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitError
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitError
	}
	logger := logging.New(stderr, cfg.LogLevel, cfg.LogFormat)

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open storage", "driver", cfg.StoreDriver, "error", err)
		return exitError
	}
	defer func() {
		if cerr := closeStore(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	ws := application.NewWorkspace(store, application.WorkspaceOptions{
		AutoConfirmDelay: cfg.AutoConfirmDelay,
		Logger:           logger,
	})

	ctx = logging.ContextWithLogger(ctx, logger)
	if cfg.SeedDemo {
		if _, err := ws.Bootstrap.Seed(ctx); err != nil {
			logger.Error("failed to seed demo data", "error", err)
			return exitError
		}
	}

	session, err := ws.RestoreSession(ctx)
	if err != nil {
		logger.Error("failed to restore session", "error", err)
		return exitError
	}

	app := &cli{
		ws:      ws,
		session: session,
		ctx:     application.WithSession(ctx, session),
		out:     stdout,
		errOut:  stderr,
	}
	if err := cmd.run(app, rest); err != nil {
		var usage usageError
		if errors.As(err, &usage) {
			fmt.Fprintln(stderr, "usage:", cmd.usage)
			if usage.err != nil && !errors.Is(usage.err, flag.ErrHelp) {
				fmt.Fprintln(stderr, "error:", usage.err)
			}
			return exitUsage
		}
		fmt.Fprintln(stderr, "error:", describeError(err))
		return exitError
	}
	return exitOK
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (persistence.DocumentStore, func() error, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		store := memory.New()
		return store, store.Close, nil
	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, sqlite.DefaultConfig(cfg.SQLiteDSN))
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		store, err := filestore.Open(cfg.DataDir, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
}

func describeError(err error) string {
	switch application.ErrorKind(err) {
	case "duplicate_email":
		return "an account with this email already exists"
	case "invalid_credentials":
		return "invalid email or password"
	case "invalid_status":
		return fmt.Sprintf("%v (expected one of pending, confirmed, canceled)", err)
	}
	return err.Error()
}
