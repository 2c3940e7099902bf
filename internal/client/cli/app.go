package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/tipsync/internal/client/client"
	"github.com/dmitrijs2005/tipsync/internal/client/config"
	"github.com/dmitrijs2005/tipsync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/tipsync/internal/client/repositories/quotes"
	"github.com/dmitrijs2005/tipsync/internal/client/repositories/tips"
	"github.com/dmitrijs2005/tipsync/internal/client/repositories/users"
	"github.com/dmitrijs2005/tipsync/internal/client/services"
	"github.com/dmitrijs2005/tipsync/internal/client/storage"
	"github.com/dmitrijs2005/tipsync/internal/logging"
	"github.com/dmitrijs2005/tipsync/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

type Mode string

const (
	ModeOffline  Mode = "offline"
	ModeOnline   Mode = "online"
	ModeDisabled Mode = "disabled"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	reader   *bufio.Reader
	out      io.Writer
	registry *prometheus.Registry

	session *services.SessionService
	tips    *services.TipRepository
	profile *services.ProfileService
	images  *services.ImageService
	quotes  *services.QuoteService

	closers []io.Closer

	mu   sync.RWMutex
	mode Mode
}

// NewApp opens the local database, connects the document store selected by
// c.ServerEndpointAddr and builds the services.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, logCloser := newLogger(c)

	db, err := storage.Open(ctx, storage.DSN(c.DatabasePath))
	if err != nil {
		logger.Error(ctx, "error initializing database", "path", c.DatabasePath, "error", err)
		return nil, multierr.Append(err, closeQuietly(logCloser))
	}

	var store client.Client
	if c.ServerEndpointAddr == config.MemoryEndpoint {
		store = client.NewMemoryStore()
	} else {
		store, err = client.NewGRPCClient(c.ServerEndpointAddr)
		if err != nil {
			return nil, multierr.Combine(err, db.Close(), closeQuietly(logCloser))
		}
	}

	a := newApp(c, db, store, logger, os.Stdin, os.Stdout)
	if logCloser != nil {
		a.closers = append(a.closers, logCloser)
	}
	return a, nil
}

func newLogger(c *config.Config) (logging.Logger, io.Closer) {
	level := logging.ParseLevel(c.LogLevel)
	if c.LogFile == "" {
		return logging.NewJSONLogger(os.Stderr, level), nil
	}
	return logging.NewFileLogger(logging.FileOptions{Path: c.LogFile, Level: level})
}

func closeQuietly(c io.Closer) error {
	if c == nil {
		return nil
	}
	return c.Close()
}

func newApp(c *config.Config, db *sql.DB, store client.Client, l logging.Logger, in io.Reader, out io.Writer) *App {
	reg := prometheus.NewRegistry()
	tipsRepo := tips.NewSQLiteRepository(db)
	usersRepo := users.NewSQLiteRepository(db)

	session := services.NewSessionService(store, db, l)
	engine := services.NewSyncEngine(store, tipsRepo, metadata.NewSQLiteRepository(db), l, metrics.NewSyncMetrics(reg)).
		WithPullLimit(c.PullLimit)
	profile := services.NewProfileService(store, usersRepo, tipsRepo, session, l)
	repo := services.NewTipRepository(tipsRepo, engine, session, profile, l)
	quoteSvc := services.NewQuoteService(
		&services.HTTPQuoteSource{URL: c.QuoteURL, APIKey: c.QuoteAPIKey},
		quotes.NewSQLiteRepository(db), l)

	return &App{
		config:   c,
		logger:   l,
		reader:   bufio.NewReader(in),
		out:      out,
		registry: reg,
		session:  session,
		tips:     repo,
		profile:  profile,
		images:   services.NewImageService(store, repo, nil, l),
		quotes:   quoteSvc,
		closers:  []io.Closer{session, db},
	}
}

func (a *App) Mode() Mode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mode
}

// setMode reports whether the mode changed.
func (a *App) setMode(mode Mode) bool {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.logger.Info(context.Background(), "mode switched", "mode", mode)
	}
	return changed
}

func (a *App) isLoggedIn() bool {
	_, ok := a.session.CurrentUserID(context.Background())
	return ok
}

func (a *App) getStatus() string {
	s := ""
	if name := a.session.Username(); name != "" {
		s = name + " "
	}
	if m := a.Mode(); m != "" {
		s += string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Run starts the background loops and the REPL, and releases everything
// when the user exits.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.StartOnlineStatusWatcher(gctx, a.config.OnlineCheckInterval)
		return nil
	})
	g.Go(func() error {
		a.StartAutoSync(gctx, a.config.SyncInterval)
		return nil
	})
	g.Go(func() error { return a.watchTips(gctx) })

	printlnFn("Welcome to tipsync (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)

	cancel()
	return multierr.Append(g.Wait(), a.Close())
}

func (a *App) Close() error {
	var err error
	for _, c := range a.closers {
		err = multierr.Append(err, c.Close())
	}
	a.closers = nil
	return err
}

// StartOnlineStatusWatcher pings the server every interval, upgrades an
// offline session once it answers, and syncs on the way back online.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.session.Ping(pctx)
	cancel()

	if err != nil {
		if a.Mode() == ModeOnline {
			a.setMode(ModeOffline)
		}
		return
	}
	if !a.isLoggedIn() {
		return
	}
	if !a.session.RemoteAuthenticated() {
		if err := a.session.Reauthenticate(ctx); err != nil {
			a.logger.Warn(ctx, "reauthentication failed", "error", err)
			return
		}
	}
	if a.setMode(ModeOnline) {
		a.syncNow(ctx)
	}
}

// StartAutoSync runs a sync pass every interval while a user is logged in
// and the server is reachable.
func (a *App) StartAutoSync(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if a.isLoggedIn() && a.Mode() == ModeOnline {
				a.syncNow(ctx)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) syncNow(ctx context.Context) {
	report, err := a.tips.TriggerSync(ctx)
	if err != nil {
		a.logger.Error(ctx, "sync failed", "error", err)
		return
	}
	a.logger.Info(ctx, "sync finished",
		"pulled", report.Pulled, "repaired", report.Repaired,
		"pushed", report.Push.Pushed, "push_failed", report.Push.Failed,
		"pull_error", report.PullErr)
}

func (a *App) watchTips(ctx context.Context) error {
	ch, err := a.tips.ObserveActive(ctx)
	if err != nil {
		return err
	}
	for snapshot := range ch {
		a.logger.Debug(ctx, "active tips changed", "count", len(snapshot))
	}
	return nil
}
