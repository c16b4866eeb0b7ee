package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adapthttp "bbt/internal/adapter/http"
	"bbt/internal/adapter/memory"
	"bbt/internal/adapter/postgres"
	"bbt/internal/adapter/sqlite"
	"bbt/internal/app"
	"bbt/internal/config"
	"bbt/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type backend struct {
	slots    domain.SlotStore
	users    domain.UserRepository
	sessions domain.SessionRepository
	closer   io.Closer
}

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("BBT_CONFIG"))
	if err != nil {
		return err
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(log)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	be, err := openBackend(cfg)
	if err != nil {
		return err
	}
	if be.closer != nil {
		defer func() { _ = be.closer.Close() }()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store := app.NewRecordStore(ctx, be.slots, app.StoreOptions{
		Location: loc,
		Logger:   log,
		Metrics:  app.NewMetrics(reg),
	})
	unsubscribe := store.Subscribe(func(c app.Change) {
		log.Debug("records changed", "kind", c.Kind)
	})
	defer unsubscribe()

	chartsSvc := app.NewChartsService(store)
	authSvc := app.NewAuthService(be.users, be.sessions)

	srv := adapthttp.New(store, chartsSvc, authSvc, cfg.WebDir, log).WithMetrics(reg)
	if cfg.ForwardAuth {
		srv.WithForwardAuth()
	}
	if cfg.OIDC.Enabled() {
		oidcCfg, err := adapthttp.NewOIDCConfig(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID, cfg.OIDC.ClientSecret, cfg.OIDC.RedirectURL)
		if err != nil {
			return err
		}
		srv.WithOIDC(oidcCfg)
	}

	go sweepSessions(ctx, be.sessions, log)

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	log.Info("listening", "addr", cfg.Addr, "store", cfg.Store, "timezone", loc.String())
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func openBackend(cfg *config.Config) (backend, error) {
	switch cfg.Store {
	case "postgres":
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return backend{}, err
		}
		return backend{slots: db, users: db, sessions: postgres.NewSessionRepo(db), closer: db}, nil
	case "memory":
		db := memory.New()
		return backend{slots: db, users: db, sessions: db.NewSessionRepo()}, nil
	default:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return backend{}, err
		}
		return backend{slots: db, users: db, sessions: sqlite.NewSessionRepo(db), closer: db}, nil
	}
}

func sweepSessions(ctx context.Context, sessions domain.SessionRepository, log *slog.Logger) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := sessions.DeleteExpired(ctx); err != nil {
				log.Warn("session sweep failed", "err", err)
			}
		}
	}
}
