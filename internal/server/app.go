// Package server wires the document server together: Postgres, optional
// Redis, the gRPC service and the operational HTTP endpoints.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dmitrijs2005/tipsync/internal/logging"
	"github.com/dmitrijs2005/tipsync/internal/metrics"
	"github.com/dmitrijs2005/tipsync/internal/server/config"
	gs "github.com/dmitrijs2005/tipsync/internal/server/grpc"
	"github.com/dmitrijs2005/tipsync/internal/server/httpapi"
	"github.com/dmitrijs2005/tipsync/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/tipsync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tipsync/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

const tokenSweepInterval = time.Hour

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	rdb      *redis.Client
	registry *prometheus.Registry
	grpc     *gs.GRPCServer
	http     *httpapi.Server
}

// NewApp connects to Postgres (and Redis when configured), applies
// migrations and builds the servers.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, multierr.Append(fmt.Errorf("db ping error: %w", err), db.Close())
	}

	var rdb *redis.Client
	if c.RedisURL != "" {
		opts, err := redis.ParseURL(c.RedisURL)
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("redis url: %w", err), db.Close())
		}
		rdb = redis.NewClient(opts)
	}

	app, err := newApp(ctx, c, db, rdb, logger)
	if err != nil {
		return nil, multierr.Append(err, app.Close())
	}
	return app, nil
}

func newApp(ctx context.Context, c *config.Config, db *sql.DB, rdb *redis.Client, l logging.Logger) (*App, error) {
	var opts []repomanager.Option
	if rdb != nil {
		opts = append(opts, repomanager.WithRedisTokens(rdb))
	}
	rm := repomanager.NewPostgresRepositoryManager(opts...)

	app := &App{config: c, logger: l, db: db, rdb: rdb, registry: prometheus.NewRegistry()}

	if err := rm.RunMigrations(ctx, db); err != nil {
		return app, fmt.Errorf("migrations: %w", err)
	}

	app.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	us := services.NewUserService(db, rm, c, l)
	ds := services.NewDocumentService(db, rm, c.MaxQueryResults, l)
	is := services.NewImageService(c, l)
	app.grpc = gs.NewGRPCServer(c.EndpointAddrGRPC, l, us, ds, is, metrics.NewDocumentMetrics(app.registry), c.SecretKey)

	if c.HTTPAddr != "" {
		checks := map[string]httpapi.Pinger{"postgres": db}
		if rdb != nil {
			checks["redis"] = httpapi.PingerFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		}
		app.http = httpapi.NewServer(c.HTTPAddr, httpapi.NewRouter(app.registry, checks, l), l)
	}

	return app, nil
}

// Run serves until ctx is done or one of the listeners fails.
func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "Starting app...")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.grpc.Run(gctx) })
	if app.http != nil {
		g.Go(func() error { return app.http.Run(gctx) })
	}
	if app.rdb == nil {
		g.Go(func() error {
			app.sweepRefreshTokens(gctx, refreshtokens.NewPostgresRepository(app.db), tokenSweepInterval)
			return nil
		})
	}

	err := g.Wait()
	app.logger.Info(ctx, "App stopped")
	return multierr.Append(err, app.Close())
}

type expiredTokenSweeper interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// sweepRefreshTokens purges expired Postgres refresh tokens. Redis expires
// them by TTL.
func (app *App) sweepRefreshTokens(ctx context.Context, repo expiredTokenSweeper, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := repo.DeleteExpired(ctx)
			if err != nil {
				app.logger.Warn(ctx, "refresh token sweep failed", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Info(ctx, "expired refresh tokens removed", "count", n)
			}
		}
	}
}

func (app *App) Close() error {
	if app == nil {
		return nil
	}
	var err error
	if app.rdb != nil {
		err = multierr.Append(err, app.rdb.Close())
		app.rdb = nil
	}
	if app.db != nil {
		err = multierr.Append(err, app.db.Close())
		app.db = nil
	}
	return err
}
