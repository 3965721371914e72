package sync

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovasilenko/jotkeeper/internal/client/models"
	"github.com/ovasilenko/jotkeeper/internal/client/remote"
	"github.com/ovasilenko/jotkeeper/internal/logging"

	_ "modernc.org/sqlite"
)

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

// startListener wires a listener and runs the first reconciliation pass that
// arms its projection.
func startListener(t *testing.T, env *testEnv) remote.UnsubscribeFunc {
	t.Helper()
	l := NewListener(env.svc, env.store, logging.NewDefault())
	unsub, err := l.Start(context.Background())
	require.NoError(t, err)
	t.Cleanup(unsub)
	require.NoError(t, env.svc.SyncNow(context.Background()))
	return unsub
}

func TestListener_ProjectsAfterFirstSync(t *testing.T) {
	env := newTestEnv(t, true)
	env.online = true
	ctx := context.Background()

	env.store.Put(remote.CollectionNotes, "n1", mustJSON(t, models.Note{ID: "n1", Content: "from another device", Timestamp: 100}))
	env.store.Put(remote.CollectionCategories, "work", mustJSON(t, models.Category{ID: "work", Name: "Work"}))
	env.store.Put(remote.CollectionSettings, remote.SettingsDocID, mustJSON(t, models.Settings{DisplayName: "Dan", LastUpdated: 50}))

	startListener(t, env)

	notes := env.svc.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, "from another device", notes[0].Content)

	cats := env.svc.Categories()
	require.Len(t, cats, 2, "remote category plus the reserved general")
	assert.Equal(t, "Dan", env.svc.Settings().DisplayName)

	// the projection is persisted, not just in memory
	cached, err := env.cache.LoadNotes(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 1)
}

func TestListener_DisarmedUntilFirstSync(t *testing.T) {
	env := newTestEnv(t, true)
	env.online = true
	ctx := context.Background()

	// a note created offline in an earlier session, still pending
	env.online = false
	pending, outcome, err := env.svc.CreateNote(ctx, "drafted on the train")
	require.NoError(t, err)
	require.Equal(t, OutcomePending, outcome)
	env.online = true

	l := NewListener(env.svc, env.store, logging.NewDefault())
	unsub, err := l.Start(ctx)
	require.NoError(t, err)
	defer unsub()

	// the subscription attaches and remote changes arrive, but no sync has
	// run yet: the remote view must not win over the pending record
	env.store.Put(remote.CollectionNotes, "other", mustJSON(t, models.Note{ID: "other", Content: "elsewhere", Timestamp: 5}))

	notes := env.svc.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, pending.ID, notes[0].ID)
}

func TestListener_PendingNoteSurvivesStartThenSync(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	// offline session: the note exists only in memory and the cache
	pending, outcome, err := env.svc.CreateNote(ctx, "buy milk")
	require.NoError(t, err)
	require.Equal(t, OutcomePending, outcome)

	// reconnect: listener attaches first, then the edge-triggered sync runs
	env.online = true
	l := NewListener(env.svc, env.store, logging.NewDefault())
	unsub, err := l.Start(ctx)
	require.NoError(t, err)
	defer unsub()
	require.NoError(t, env.svc.SyncNow(ctx))

	got, ok := remoteNote(t, env.store, pending.ID)
	assert.True(t, ok, "pending offline note must reach the remote store")
	assert.Equal(t, "buy milk", got.Content)

	cached, err := env.cache.LoadNotes(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, cached, "must survive in the durable cache")

	notes := env.svc.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, pending.ID, notes[0].ID)
}

func TestListener_SyncProjectsRemoteNewerRecords(t *testing.T) {
	env := newTestEnv(t, true)
	env.online = true
	ctx := context.Background()

	// the same note exists on both sides; remote carries a newer edit, so
	// the reconciliation plan is empty and the projection must pull it in
	n, _, err := env.svc.CreateNote(ctx, "first draft")
	require.NoError(t, err)
	edited := n
	edited.Content = "edited on the phone"
	edited.Timestamp = n.Timestamp + 1000
	seedRemoteNote(t, env.store, edited)

	l := NewListener(env.svc, env.store, logging.NewDefault())
	unsub, err := l.Start(ctx)
	require.NoError(t, err)
	defer unsub()
	require.NoError(t, env.svc.SyncNow(ctx))

	notes := env.svc.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, "edited on the phone", notes[0].Content)
}

func TestListener_ChangeNotificationOverwritesWholesale(t *testing.T) {
	env := newTestEnv(t, true)
	env.online = true
	ctx := context.Background()

	startListener(t, env)

	// a different device writes two notes; Put fires the change stream
	env.store.Put(remote.CollectionNotes, "a", mustJSON(t, models.Note{ID: "a", Content: "one", Timestamp: 1}))
	env.store.Put(remote.CollectionNotes, "b", mustJSON(t, models.Note{ID: "b", Content: "two", Timestamp: 2}))

	assert.Len(t, env.svc.Notes(), 2)

	// and removes one again
	require.NoError(t, env.store.Delete(ctx, remote.CollectionNotes, "a"))
	notes := env.svc.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, "b", notes[0].ID)
}

func TestListener_EmptyCategoryGuard(t *testing.T) {
	env := newTestEnv(t, true)
	env.online = true
	ctx := context.Background()

	// local category set is non-empty
	_, err := env.svc.CreateCategory(ctx, "work")
	require.NoError(t, err)

	// wipe the remote collection behind the service's back, then project
	for _, d := range mustFetch(t, env.store, remote.CollectionCategories) {
		require.NoError(t, env.store.Delete(ctx, remote.CollectionCategories, d.ID))
	}

	startListener(t, env)

	// empty remote snapshot must not clobber the non-empty local set
	cats := env.svc.Categories()
	assert.Len(t, cats, 2)
}

func mustFetch(t *testing.T, store *remote.MemoryStore, collection string) []remote.Document {
	t.Helper()
	docs, err := store.FetchAll(context.Background(), collection)
	require.NoError(t, err)
	return docs
}

func TestListener_UndecodableDocumentSkipped(t *testing.T) {
	env := newTestEnv(t, true)
	env.online = true

	startListener(t, env)

	env.store.Put(remote.CollectionNotes, "good", mustJSON(t, models.Note{ID: "good", Content: "ok", Timestamp: 1}))
	env.store.Put(remote.CollectionNotes, "bad", []byte("{not json"))

	notes := env.svc.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, "good", notes[0].ID)
}
