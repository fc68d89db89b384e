package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/httplog/v2"
	"github.com/vadimbarashkov/tinylink/internal/config"
	"github.com/vadimbarashkov/tinylink/internal/service"
	"github.com/vadimbarashkov/tinylink/pkg/postgres"
	"golang.org/x/sync/errgroup"

	myhttp "github.com/vadimbarashkov/tinylink/internal/api/http/v1"
	dbpostgres "github.com/vadimbarashkov/tinylink/internal/database/postgres"
)

// version is reported by the health probe; overridden at build time via ldflags.
var version = "1.0.0"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		panic(err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return err
	}

	db, err := postgres.New(
		ctx,
		cfg.Postgres.DSN(),
		postgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		postgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		postgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		postgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
	)
	if err != nil {
		return err
	}

	if err := postgres.RunMigrations(postgres.DefaultMigrationsPath, cfg.Postgres.DSN()); err != nil {
		return err
	}

	linkRepo := dbpostgres.NewLinkRepository(db)
	linkSvc := service.NewLinkService(linkRepo, cfg.BaseURL, cfg.ShortCodeLength)

	logger := httplog.NewLogger("tinylink", httplog.Options{
		Concise: cfg.Env != config.EnvProd,
		JSON:    cfg.Env == config.EnvProd,
	})

	r := myhttp.NewRouter(logger, linkSvc, version)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        r,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		return db.Close()
	})

	g.Go(func() error {
		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return server.Shutdown(context.Background())
	})

	return g.Wait()
}
