package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/cradoe/onboard/internal/app"
	seeders "github.com/cradoe/onboard/internal/seeder"
	"github.com/cradoe/onboard/internal/stage"
	"github.com/cradoe/onboard/internal/version"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	err := run(logger)
	if err != nil {
		trace := string(debug.Stack())
		logger.Error(err.Error(), "trace", trace)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	showVersion := flag.Bool("version", false, "display version and exit")
	seed := flag.Bool("seed", false, "write a demo identity resumable at plan selection; exits afterwards unless storage is in memory")
	flag.Parse()

	if *showVersion {
		fmt.Printf("version: %s\n", version.Get())
		return nil
	}

	cfg := app.LoadConfig(logger)

	application, err := app.NewApplication(cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *seed {
		var passwords stage.PasswordScheme = stage.PlaintextPasswords{}
		if cfg.Password.Hashing {
			passwords = stage.HashedPasswords{}
		}

		if _, err := seeders.New(application.Medium, passwords, logger).Run(ctx); err != nil {
			return err
		}

		// an in-memory seed only lives as long as this process
		if cfg.Storage.Driver != app.StorageMemory {
			return nil
		}
	}

	return application.Run(ctx)
}
