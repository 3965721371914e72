// Package cli implements the interactive jotkeeper client: a small REPL over
// the sync core, wired to the local cache, the remote document store, and
// the connectivity monitor.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/ovasilenko/jotkeeper/internal/client/cache"
	"github.com/ovasilenko/jotkeeper/internal/client/config"
	"github.com/ovasilenko/jotkeeper/internal/client/connectivity"
	"github.com/ovasilenko/jotkeeper/internal/client/remote"
	syncsvc "github.com/ovasilenko/jotkeeper/internal/client/sync"
	"github.com/ovasilenko/jotkeeper/internal/logging"

	_ "modernc.org/sqlite"
)

type App struct {
	config  *config.Config
	svc     *syncsvc.Service
	store   remote.Store
	monitor *connectivity.Monitor
	log     logging.Logger
	db      *sql.DB
	reader  *bufio.Reader
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logging.NewDefault()

	localCache, db, err := cache.Open(ctx, cfg.CachePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing cache: %w", err)
	}

	a := &App{config: cfg, log: log, db: db, reader: bufio.NewReader(os.Stdin)}

	if cfg.SignedIn() {
		dsn := withPromptedPassword(cfg.RemoteDSN, a.reader)
		store, err := remote.NewPostgresStore(ctx, dsn, cfg.UserID, log)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("error connecting to remote store: %w", err)
		}
		a.store = store
		a.monitor = connectivity.New(store, cfg.OnlineCheckInterval)
		a.svc = syncsvc.New(localCache, store, a.monitor.Online, log)
	} else {
		a.svc = syncsvc.New(localCache, nil, nil, log)
	}

	if err := a.svc.Load(ctx); err != nil {
		a.close()
		return nil, fmt.Errorf("error loading cached state: %w", err)
	}

	return a, nil
}

func (a *App) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) signedIn() bool { return a.store != nil }

// statusLine feeds the REPL prompt.
func (a *App) statusLine() string {
	if !a.signedIn() {
		return "local"
	}
	mode := "offline"
	if a.monitor.Online() {
		mode = "online"
	}
	return fmt.Sprintf("%s, %s", mode, a.svc.Status())
}

// Run starts the watcher, the live projection listener, and the REPL, and
// blocks until the user exits.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	if a.signedIn() {
		// The listener starts first so the reconciliation hook is in place
		// before the first sync can complete; its projection stays disarmed
		// until that pass succeeds.
		listener := syncsvc.NewListener(a.svc, a.store, a.log)
		unsub, err := listener.Start(ctx)
		if err != nil {
			cancel()
			return fmt.Errorf("error starting change listener: %w", err)
		}
		defer unsub()

		// a reconnect edge is the sole automatic reconciliation trigger
		a.monitor.Subscribe(func(online bool) {
			if !online {
				return
			}
			go func() {
				if err := a.svc.SyncNow(ctx); err != nil {
					a.log.Warn(ctx, "reconciliation failed", "error", err)
				}
			}()
		})

		g.Go(func() error {
			a.monitor.Run(ctx)
			return nil
		})
	}

	g.Go(func() error {
		runREPL(ctx, a, a.statusLine, bufio.NewScanner(os.Stdin))
		cancel()
		return nil
	})

	return g.Wait()
}
