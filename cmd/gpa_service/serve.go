package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"gpa-calculator/internal/calculator"
	"gpa-calculator/internal/config"
	"gpa-calculator/internal/course"
	"gpa-calculator/internal/logging"
	"gpa-calculator/internal/storage"
	"gpa-calculator/internal/visitor"
	"gpa-calculator/internal/visits"
)

func newServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.LoadConfig(path)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, os.Stdout)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, out io.Writer) error {
	logger, closer, err := logging.NewLogger(out, logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	counter, cleanup, err := newCounter(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	store := course.NewStoreWithLimits(cfg.Sheets.Max, cfg.Sheets.IdleTTL)
	handler, err := SetupRouter(cfg, store, counter, logger)
	if err != nil {
		return err
	}
	go sweepSheets(ctx, store, cfg.Sheets.IdleTTL, logger)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		level.Info(logger).Log("msg", "listening", "addr", cfg.Server.Addr, "visits", cfg.Visits.Mode)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	level.Info(logger).Log("msg", "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// SetupRouter wires the HTTP API around store and counter.
func SetupRouter(cfg *config.Config, store *course.Store, counter visits.Counter, logger log.Logger) (http.Handler, error) {
	secret := cfg.Visitor.Secret
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generate visitor secret: %w", err)
		}
		secret = hex.EncodeToString(buf)
		level.Warn(logger).Log("msg", "visitor.secret not set, visitor tokens will not survive a restart")
	}

	return calculator.NewRouter(calculator.Deps{
		Store:   store,
		Tracker: visits.NewTracker(counter, logger),
		Issuer:  visitor.NewIssuer(secret, cfg.Visitor.TTL),
		Logger:  logger,
	}), nil
}

// sweepSheets drops idle sheets in the background so that abandoned sheets
// are released even when no new sheet is created.
func sweepSheets(ctx context.Context, store *course.Store, idleTTL time.Duration, logger log.Logger) {
	if idleTTL <= 0 {
		return
	}
	interval := idleTTL / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Sweep(); n > 0 {
				level.Debug(logger).Log("msg", "expired idle sheets", "count", n, "remaining", store.Len())
			}
		}
	}
}

func newCounter(cfg *config.Config, logger log.Logger) (visits.Counter, func(), error) {
	switch cfg.Visits.Mode {
	case config.VisitsLocal:
		var db *gorm.DB
		err := logging.Timed(logger, "open database", func() error {
			var err error
			db, err = storage.NewSQLite(cfg.Database.Path)
			return err
		})
		if err != nil {
			return nil, nil, err
		}
		return visits.NewLocalCounter(db), func() { storage.Close(db) }, nil
	case config.VisitsRemote:
		c, err := visits.NewRemoteCounter(cfg.Visits.RemoteURL, cfg.Visits.Timeout)
		if err != nil {
			return nil, nil, err
		}
		return c, func() {}, nil
	default:
		return visits.NopCounter(), func() {}, nil
	}
}
