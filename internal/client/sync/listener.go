package sync

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/ovasilenko/jotkeeper/internal/client/models"
	"github.com/ovasilenko/jotkeeper/internal/client/remote"
	"github.com/ovasilenko/jotkeeper/internal/logging"
)

// Listener is the live projection: while a remote subscription is active,
// every remote change replaces the corresponding local collection wholesale.
// No merging happens here; the projection stays disarmed until the
// reconciliation engine has resolved conflicting local edits, and only then
// is this view allowed to win. Projecting earlier would erase records
// created offline before they ever reach the remote store.
type Listener struct {
	svc   *Service
	store remote.Store
	log   logging.Logger

	armed atomic.Bool
}

// NewListener binds a listener to the service and its remote store.
func NewListener(svc *Service, store remote.Store, log logging.Logger) *Listener {
	return &Listener{svc: svc, store: store, log: log}
}

// Start subscribes to the remote change stream and registers the listener to
// be armed by the first successful reconciliation pass. Until then, change
// notifications are dropped; each successful pass re-projects everything, so
// nothing observed while disarmed is lost. It returns the unsubscribe
// handle; projection stops when it is called or ctx ends.
func (l *Listener) Start(ctx context.Context) (remote.UnsubscribeFunc, error) {
	l.svc.setReconciledHook(l.reconciled)
	return l.store.Subscribe(ctx, func(collection string) {
		// A notification landing mid-pass must not overwrite the snapshot
		// being reconciled; the post-pass projection covers it.
		if !l.armed.Load() || l.svc.reconciling() {
			return
		}
		l.project(ctx, collection)
	})
}

// reconciled runs after every successful reconciliation pass: pending local
// records have been pushed and resolved tombstones pruned, so the remote
// view may now replace the local one. A full projection also picks up the
// "remote is same-or-newer" records the pass deliberately left alone.
func (l *Listener) reconciled(ctx context.Context) {
	l.armed.Store(true)
	for _, collection := range []string{
		remote.CollectionNotes,
		remote.CollectionCategories,
		remote.CollectionQuickActions,
		remote.CollectionSettings,
	} {
		l.project(ctx, collection)
	}
}

// project fetches one collection and overwrites the local copy. Fetch and
// decode failures are logged and skipped; the local cache keeps its
// last-known-good state until the next notification.
func (l *Listener) project(ctx context.Context, collection string) {
	docs, err := l.store.FetchAll(ctx, collection)
	if err != nil {
		l.log.Warn(ctx, "projection fetch failed", "collection", collection, "error", err)
		return
	}

	switch collection {
	case remote.CollectionNotes:
		var notes []models.Note
		for _, d := range docs {
			var n models.Note
			if err := json.Unmarshal(d.Data, &n); err != nil {
				l.log.Warn(ctx, "skipping undecodable note", "id", d.ID, "error", err)
				continue
			}
			notes = append(notes, n)
		}
		l.svc.applyRemoteNotes(ctx, notes)

	case remote.CollectionCategories:
		var cats []models.Category
		for _, d := range docs {
			var c models.Category
			if err := json.Unmarshal(d.Data, &c); err != nil {
				l.log.Warn(ctx, "skipping undecodable category", "id", d.ID, "error", err)
				continue
			}
			cats = append(cats, c)
		}
		l.svc.applyRemoteCategories(ctx, cats)

	case remote.CollectionQuickActions:
		var actions []models.QuickAction
		for _, d := range docs {
			var q models.QuickAction
			if err := json.Unmarshal(d.Data, &q); err != nil {
				l.log.Warn(ctx, "skipping undecodable quick action", "id", d.ID, "error", err)
				continue
			}
			actions = append(actions, q)
		}
		l.svc.applyRemoteQuickActions(ctx, actions)

	case remote.CollectionSettings:
		for _, d := range docs {
			if d.ID != remote.SettingsDocID {
				continue
			}
			var settings models.Settings
			if err := json.Unmarshal(d.Data, &settings); err != nil {
				l.log.Warn(ctx, "skipping undecodable settings", "error", err)
				return
			}
			l.svc.applyRemoteSettings(ctx, settings)
		}
	}
}
