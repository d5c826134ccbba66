package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cradoe/onboard/internal/worker"

	"golang.org/x/sync/errgroup"
)

const (
	defaultIdleTimeout    = time.Minute
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 30 * time.Second
	defaultShutdownPeriod = 30 * time.Second
	deviceSweepInterval   = time.Minute
)

// Run serves HTTP and, when an event stream is configured, runs the
// notification worker beside it. Both stop when ctx is cancelled.
func (app *Application) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", app.Config.HttpPort),
		Handler:      app.routes(),
		ErrorLog:     slog.NewLogLogger(app.Logger.Handler(), slog.LevelWarn),
		IdleTimeout:  defaultIdleTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.Logger.Info("starting server", slog.Group("server", "addr", srv.Addr), "storage", app.Config.Storage.Driver)

		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownPeriod)
		defer cancel()

		app.Logger.Info("stopping server", slog.Group("server", "addr", srv.Addr))
		return srv.Shutdown(shutdownCtx)
	})

	// sessions are rebuilt from the store, so idle ones only cost memory
	if app.Config.Devices.IdleTTL > 0 {
		g.Go(func() error {
			return app.Devices.Run(ctx, deviceSweepInterval)
		})
	}

	if app.Kafka != nil {
		wk := worker.New(&worker.Worker{
			KafkaStream: app.Kafka,
			Mailer:      app.Mailer,
			Helper:      app.Helper,
			Logger:      app.Logger,
		})
		g.Go(func() error {
			return wk.Run(ctx)
		})
	}

	return g.Wait()
}
