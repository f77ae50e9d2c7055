package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/masapos/api/internal/config"
	"github.com/masapos/api/internal/database"
	"github.com/masapos/api/internal/logger"
	"github.com/masapos/api/internal/router"
	"github.com/masapos/api/internal/service"
	"github.com/masapos/api/internal/ws"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
)

func main() {
	app := &cli.App{
		Name:  "masapos",
		Usage: "restaurant point-of-sale API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "optional dotenv file"},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "apply or roll back schema migrations",
				Subcommands: []*cli.Command{
					{
						Name:   "up",
						Action: migrateUp,
					},
					{
						Name: "down",
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "steps", Value: 1, Usage: "migrations to roll back, 0 for all"},
						},
						Action: migrateDown,
					},
				},
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("exit")
	}
}

func loadConfig(c *cli.Context) (*config.Config, *log.Logger, error) {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return nil, nil, errors.Wrap(err, "load config")
	}
	l, err := logger.Setup(cfg.LogLevel, nil)
	if err != nil {
		return nil, nil, errors.Wrap(err, "setup logger")
	}
	return cfg, l, nil
}

func serve(c *cli.Context) error {
	cfg, l, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "connect database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return errors.Wrap(err, "ping database")
	}
	l.Info("connected to database")

	queries := database.New(pool)
	hub := ws.NewHub()
	sessions := service.NewSessionRegistry(cfg.SessionIdleTimeout, l)
	pos := service.NewPosService(pool, queries, func(db database.DBTX) service.PosStore {
		return database.New(db)
	}, hub)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: router.New(router.Deps{
			Config:   cfg,
			Queries:  queries,
			Pos:      pos,
			Sessions: sessions,
			Hub:      hub,
			Logger:   l,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(ctx) })
	g.Go(func() error { return sessions.Run(ctx, sweepInterval) })
	g.Go(func() error {
		l.WithField("addr", srv.Addr).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		l.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func migrateUp(c *cli.Context) error {
	cfg, l, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := database.MigrateUp(cfg.DatabaseURL); err != nil {
		return err
	}
	l.Info("migrations applied")
	return nil
}

func migrateDown(c *cli.Context) error {
	cfg, l, err := loadConfig(c)
	if err != nil {
		return err
	}
	steps := c.Int("steps")
	if err := database.MigrateDown(cfg.DatabaseURL, steps); err != nil {
		return err
	}
	l.WithField("steps", steps).Info("migrations rolled back")
	return nil
}
