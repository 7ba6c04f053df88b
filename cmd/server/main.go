package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	analyticsAdapter "goaliegen/internal/adapters/analytics"
	"goaliegen/internal/adapters/assembler"
	emailPkg "goaliegen/internal/adapters/email"
	web "goaliegen/internal/adapters/http"
	"goaliegen/internal/adapters/http/metrics"
	"goaliegen/internal/adapters/storage"
	analyticsStore "goaliegen/internal/adapters/storage/analytics"
	modalStore "goaliegen/internal/adapters/storage/modal"
	"goaliegen/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_invalid", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(config.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat))
	if cfg.RandomCSRF {
		slog.Warn("csrf_key_random", "hint", "set GOALIEGEN_CSRF_KEY so sessions survive a restart")
	}

	if err := run(cfg); err != nil {
		slog.Error("server_failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dsn := cfg.DBPath + "?_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(4)
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	if err := storage.InitDB(db, cfg.DBPath); err != nil {
		return err
	}

	m := metrics.New()
	timedDB := storage.NewTimedDB(db, m, cfg.SlowQuery)
	events := analyticsStore.NewSQLiteStore(timedDB)
	recorder := analyticsAdapter.Counted{
		Next:    analyticsAdapter.Multi{analyticsAdapter.LogRecorder{}, analyticsAdapter.NewStoreRecorder(events)},
		Counter: m,
	}

	modals := modalStore.NewMemoryStore(cfg.ModalTTL, m.OpenModals)
	go modals.Run(ctx, time.Minute)

	var sender emailPkg.Sender
	switch {
	case cfg.ResendKey != "":
		sender = emailPkg.NewResendSender(cfg.ResendKey, cfg.EmailFrom)
		slog.Info("email_sender_configured", "provider", "resend")
	case cfg.Production():
		slog.Warn("email_disabled", "hint", "set GOALIEGEN_RESEND_KEY to enable emailing documents")
	default:
		sender = emailPkg.NewNoopSender()
		slog.Info("email_sender_configured", "provider", "noop")
	}

	handler := web.NewMux(web.Deps{
		Modals:        modals,
		Assembler:     assembler.New(),
		Recorder:      recorder,
		Stats:         events,
		Sender:        sender,
		Materials:     os.DirFS(cfg.MaterialsDir),
		Metrics:       m,
		SiteURL:       cfg.SiteURL,
		CSRFKey:       cfg.CSRFKey,
		SecureCookies: cfg.Production(),
		SlowRequest:   cfg.SlowRequest,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_starting",
			"version", version,
			"addr", cfg.Addr,
			"env", cfg.Env,
			"schema", storage.LatestSchemaVersion(),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
