// Package sync implements the offline-first core of jotkeeper: the mutation
// router that applies user intents locally first and remotely when possible,
// the reconciliation engine that resolves local/remote divergence on
// reconnect, and the live projection listener that mirrors settled remote
// state back into the local cache.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	gosync "sync"

	"github.com/google/uuid"

	"github.com/ovasilenko/jotkeeper/internal/client/cache"
	"github.com/ovasilenko/jotkeeper/internal/client/models"
	"github.com/ovasilenko/jotkeeper/internal/client/remote"
	"github.com/ovasilenko/jotkeeper/internal/common"
	"github.com/ovasilenko/jotkeeper/internal/logging"
)

// Status is the caller-visible sync state.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
	StatusError   Status = "error"
)

// Outcome tells the caller how far a mutation travelled. The caller decides
// what, if anything, to announce; the core never branches on UI policy.
type Outcome string

const (
	// OutcomeLocal: applied to the local cache only; the session is signed
	// out, so there is nothing to propagate.
	OutcomeLocal Outcome = "applied-locally"
	// OutcomeRemote: applied locally and confirmed by the remote store.
	OutcomeRemote Outcome = "applied-remotely"
	// OutcomePending: applied locally; remote propagation is deferred to the
	// next reconciliation (offline, or the remote write failed).
	OutcomePending Outcome = "queued-pending"
)

// Service is the sync core. All state mutations go through it, and every
// read-modify-persist cycle runs as a unit under one mutex; remote I/O
// happens outside the lock so local mutations never block on the network.
type Service struct {
	cache *cache.Cache
	store remote.Store // nil when signed out
	on    func() bool  // connectivity probe, true when online
	log   logging.Logger

	now   func() int64  // clock, swappable in tests
	newID func() string // id generator, swappable in tests

	mu       gosync.Mutex
	notes    []models.Note
	cats     []models.Category
	actions  []models.QuickAction
	settings models.Settings
	status   Status
	lastSync int64

	inFlight bool // one reconciliation at a time
	rerun    bool // a reconnect arrived mid-run; go again after

	// onReconciled runs after every successful reconciliation pass. The
	// Listener registers itself here: its wholesale projection may only win
	// once reconciliation has resolved conflicting local edits.
	onReconciled func(ctx context.Context)
}

// New builds a Service. store may be nil (signed-out, local-only mode);
// online reports connectivity and may be nil when store is nil.
func New(c *cache.Cache, store remote.Store, online func() bool, log logging.Logger) *Service {
	if online == nil {
		online = func() bool { return false }
	}
	return &Service{
		cache:  c,
		store:  store,
		on:     online,
		log:    log,
		now:    models.NowMillis,
		newID:  uuid.NewString,
		status: StatusIdle,
	}
}

// Load primes the in-memory state from the local cache. A profile that has
// never been saved starts with the default category set.
func (s *Service) Load(ctx context.Context) error {
	notes, err := s.cache.LoadNotes(ctx)
	if err != nil {
		return fmt.Errorf("failed to load notes: %w", err)
	}
	cats, err := s.cache.LoadCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}
	actions, err := s.cache.LoadQuickActions(ctx)
	if err != nil {
		return fmt.Errorf("failed to load quick actions: %w", err)
	}
	settings, err := s.cache.LoadSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	lastSync, err := s.cache.LastSync(ctx)
	if err != nil {
		return fmt.Errorf("failed to load last sync marker: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = notes
	s.cats = ensureGeneral(cats)
	s.actions = actions
	s.settings = settings
	s.lastSync = lastSync
	return nil
}

func ensureGeneral(cats []models.Category) []models.Category {
	for _, c := range cats {
		if c.ID == models.GeneralCategoryID {
			return cats
		}
	}
	return append(models.DefaultCategories(), cats...)
}

func (s *Service) signedIn() bool { return s.store != nil }

// setReconciledHook registers fn to run after each successful reconciliation
// pass, outside the state mutex.
func (s *Service) setReconciledHook(fn func(ctx context.Context)) {
	s.mu.Lock()
	s.onReconciled = fn
	s.mu.Unlock()
}

// reconciling reports whether a reconciliation pass is in flight.
func (s *Service) reconciling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

func (s *Service) canWriteRemote() bool { return s.signedIn() && s.on() }

// offlineOutcome is what a purely local application reports.
func (s *Service) offlineOutcome() Outcome {
	if s.signedIn() {
		return OutcomePending
	}
	return OutcomeLocal
}

func (s *Service) setStatus(st Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

// Status returns the current sync status.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// LastSync returns the last successful sync time in millis, 0 if never.
func (s *Service) LastSync() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync
}

func (s *Service) markSynced(ctx context.Context) {
	ts := s.now()
	s.mu.Lock()
	s.lastSync = ts
	s.status = StatusIdle
	s.mu.Unlock()
	if err := s.cache.SetLastSync(ctx, ts); err != nil {
		s.log.Warn(ctx, "failed to persist last sync marker", "error", err)
	}
}

// persistNotes must be called with s.mu held. Cache failures are logged and
// non-fatal: in-memory state stays authoritative for the session.
func (s *Service) persistNotes(ctx context.Context) {
	if err := s.cache.SaveNotes(ctx, s.notes); err != nil {
		s.log.Warn(ctx, "failed to persist notes", "error", err)
	}
}

func (s *Service) persistCategories(ctx context.Context) {
	if err := s.cache.SaveCategories(ctx, s.cats); err != nil {
		s.log.Warn(ctx, "failed to persist categories", "error", err)
	}
}

func (s *Service) persistActions(ctx context.Context) {
	if err := s.cache.SaveQuickActions(ctx, s.actions); err != nil {
		s.log.Warn(ctx, "failed to persist quick actions", "error", err)
	}
}

func (s *Service) persistSettings(ctx context.Context) {
	if err := s.cache.SaveSettings(ctx, s.settings); err != nil {
		s.log.Warn(ctx, "failed to persist settings", "error", err)
	}
}

// ---- read accessors ----

// Notes returns the live (non-tombstoned) notes, newest first.
func (s *Service) Notes() []models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Note, 0, len(s.notes))
	for _, n := range s.notes {
		if !n.Deleted() {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out
}

// Categories returns the category set, "general" first, the rest by name.
func (s *Service) Categories() []models.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]models.Category(nil), s.cats...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ID == models.GeneralCategoryID {
			return true
		}
		if out[j].ID == models.GeneralCategoryID {
			return false
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// QuickActions returns the live quick actions, newest first.
func (s *Service) QuickActions() []models.QuickAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.QuickAction, 0, len(s.actions))
	for _, q := range s.actions {
		if !q.Deleted() {
			out = append(out, q)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out
}

// Settings returns the current settings record.
func (s *Service) Settings() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// ---- note mutations ----

// pushUpsert sends one record to the remote store when the session can write
// remotely, translating the result into an Outcome. A failed write leaves
// local state untouched and is picked up by the next reconciliation.
func (s *Service) pushUpsert(ctx context.Context, collection, id string, record any) Outcome {
	if !s.canWriteRemote() {
		return s.offlineOutcome()
	}
	data, err := json.Marshal(record)
	if err != nil {
		s.log.Error(ctx, "failed to encode record", "collection", collection, "id", id, "error", err)
		s.setStatus(StatusError)
		return OutcomePending
	}
	if err := s.store.Upsert(ctx, collection, id, data); err != nil {
		s.log.Warn(ctx, "remote upsert failed", "collection", collection, "id", id, "error", err)
		s.setStatus(StatusError)
		return OutcomePending
	}
	s.markSynced(ctx)
	return OutcomeRemote
}

// CreateNote creates a note with a client-assigned id in the default
// category and routes it per connectivity.
func (s *Service) CreateNote(ctx context.Context, content string) (models.Note, Outcome, error) {
	n := models.Note{
		ID:         s.newID(),
		Content:    content,
		CategoryID: models.GeneralCategoryID,
		Timestamp:  s.now(),
	}

	s.mu.Lock()
	s.notes = append(s.notes, n)
	s.persistNotes(ctx)
	s.mu.Unlock()

	return n, s.pushUpsert(ctx, remote.CollectionNotes, n.ID, n), nil
}

// UpdateNote rewrites a note's content, category and effective time. A
// timestamp of 0 means "now". The note's clock always advances so the edit
// wins the next reconciliation.
func (s *Service) UpdateNote(ctx context.Context, id, content, categoryID string, timestamp int64) (Outcome, error) {
	if timestamp == 0 {
		timestamp = s.now()
	}

	s.mu.Lock()
	idx := s.findNote(id)
	if idx < 0 {
		s.mu.Unlock()
		return "", fmt.Errorf("note %s: %w", id, common.ErrNotFound)
	}
	if categoryID == "" {
		categoryID = models.GeneralCategoryID
	}
	s.notes[idx].Content = content
	s.notes[idx].CategoryID = categoryID
	s.notes[idx].Timestamp = timestamp
	n := s.notes[idx]
	s.persistNotes(ctx)
	s.mu.Unlock()

	return s.pushUpsert(ctx, remote.CollectionNotes, n.ID, n), nil
}

// DeleteNote tombstones the note locally, then attempts the remote delete.
// The tombstone is pruned only after the remote confirms; otherwise it stays
// for the reconciliation engine to propagate.
func (s *Service) DeleteNote(ctx context.Context, id string) (Outcome, error) {
	s.mu.Lock()
	idx := s.findNote(id)
	if idx < 0 {
		s.mu.Unlock()
		return "", fmt.Errorf("note %s: %w", id, common.ErrNotFound)
	}
	s.notes[idx].DeletedAt = s.now()
	s.persistNotes(ctx)
	s.mu.Unlock()

	if !s.canWriteRemote() {
		return s.offlineOutcome(), nil
	}
	if err := s.store.Delete(ctx, remote.CollectionNotes, id); err != nil {
		s.log.Warn(ctx, "remote delete failed", "id", id, "error", err)
		s.setStatus(StatusError)
		return OutcomePending, nil
	}

	s.mu.Lock()
	s.pruneNoteLocked(id)
	s.persistNotes(ctx)
	s.mu.Unlock()
	s.markSynced(ctx)
	return OutcomeRemote, nil
}

// ClearNotes discards every note. All notes are tombstoned first so the
// deletion survives an interrupted remote confirmation.
func (s *Service) ClearNotes(ctx context.Context) (Outcome, error) {
	now := s.now()

	s.mu.Lock()
	ids := make([]string, 0, len(s.notes))
	for i := range s.notes {
		s.notes[i].DeletedAt = now
		ids = append(ids, s.notes[i].ID)
	}
	s.persistNotes(ctx)
	s.mu.Unlock()

	if !s.canWriteRemote() {
		return s.offlineOutcome(), nil
	}

	b := s.store.Batch()
	for _, id := range ids {
		b.QueueDelete(remote.CollectionNotes, id)
	}
	if err := b.Commit(ctx); err != nil {
		s.log.Warn(ctx, "remote clear failed", "error", err)
		s.setStatus(StatusError)
		return OutcomePending, nil
	}

	// Prune only the ids captured above: a note that arrived while the
	// batch was committing is not part of this clear.
	s.mu.Lock()
	for _, id := range ids {
		s.pruneNoteLocked(id)
	}
	s.persistNotes(ctx)
	s.mu.Unlock()
	s.markSynced(ctx)
	return OutcomeRemote, nil
}

// findNote must be called with s.mu held. Tombstones are invisible.
func (s *Service) findNote(id string) int {
	for i, n := range s.notes {
		if n.ID == id && !n.Deleted() {
			return i
		}
	}
	return -1
}

// pruneNoteLocked physically removes a note regardless of tombstone state.
func (s *Service) pruneNoteLocked(id string) {
	for i, n := range s.notes {
		if n.ID == id {
			s.notes = append(s.notes[:i], s.notes[i+1:]...)
			return
		}
	}
}

// ---- category mutations (online-only, structural) ----

// requireOnline gates structural operations: they are rejected rather than
// queued, because last-write-wins over many dependent records is not a safe
// offline merge policy.
func (s *Service) requireOnline() error {
	if !s.signedIn() {
		return common.ErrSignedOut
	}
	if !s.on() {
		return common.ErrOffline
	}
	return nil
}

// CreateCategory creates a category remote-first; local state changes only
// after the remote write lands, so structural data cannot diverge.
func (s *Service) CreateCategory(ctx context.Context, name string) (models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Category{}, fmt.Errorf("category name must not be empty")
	}
	if err := s.requireOnline(); err != nil {
		return models.Category{}, err
	}

	s.mu.Lock()
	for _, c := range s.cats {
		if models.SameName(c.Name, name) {
			s.mu.Unlock()
			return models.Category{}, fmt.Errorf("%q: %w", name, common.ErrCategoryExists)
		}
	}
	s.mu.Unlock()

	cat := models.Category{ID: s.newID(), Name: name}
	data, err := json.Marshal(cat)
	if err != nil {
		return models.Category{}, fmt.Errorf("failed to encode category: %w", err)
	}
	if err := s.store.Upsert(ctx, remote.CollectionCategories, cat.ID, data); err != nil {
		s.setStatus(StatusError)
		return models.Category{}, fmt.Errorf("failed to create category: %w", err)
	}

	s.mu.Lock()
	s.cats = append(s.cats, cat)
	s.persistCategories(ctx)
	s.mu.Unlock()
	s.markSynced(ctx)
	return cat, nil
}

// RenameCategory renames a category remote-first, keeping per-user
// case-insensitive name uniqueness.
func (s *Service) RenameCategory(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("category name must not be empty")
	}
	if err := s.requireOnline(); err != nil {
		return err
	}

	s.mu.Lock()
	idx := -1
	for i, c := range s.cats {
		if c.ID == id {
			idx = i
		} else if models.SameName(c.Name, name) {
			s.mu.Unlock()
			return fmt.Errorf("%q: %w", name, common.ErrCategoryExists)
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("category %s: %w", id, common.ErrNotFound)
	}
	s.mu.Unlock()

	cat := models.Category{ID: id, Name: name}
	data, err := json.Marshal(cat)
	if err != nil {
		return fmt.Errorf("failed to encode category: %w", err)
	}
	if err := s.store.Upsert(ctx, remote.CollectionCategories, id, data); err != nil {
		s.setStatus(StatusError)
		return fmt.Errorf("failed to rename category: %w", err)
	}

	s.mu.Lock()
	for i := range s.cats {
		if s.cats[i].ID == id {
			s.cats[i].Name = name
		}
	}
	s.persistCategories(ctx)
	s.mu.Unlock()
	s.markSynced(ctx)
	return nil
}

// DeleteCategory removes a non-reserved category. Every note and quick
// action referencing it is reassigned to "general" first, and the
// reassignments plus the category delete commit as one atomic batch.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	if id == models.GeneralCategoryID {
		return common.ErrCategoryReserved
	}
	if err := s.requireOnline(); err != nil {
		return err
	}

	now := s.now()

	s.mu.Lock()
	found := false
	for _, c := range s.cats {
		if c.ID == id {
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return fmt.Errorf("category %s: %w", id, common.ErrNotFound)
	}

	var movedNotes []models.Note
	for i := range s.notes {
		if s.notes[i].CategoryID == id && !s.notes[i].Deleted() {
			moved := s.notes[i]
			moved.CategoryID = models.GeneralCategoryID
			moved.Timestamp = now
			movedNotes = append(movedNotes, moved)
		}
	}
	var movedActions []models.QuickAction
	for i := range s.actions {
		if s.actions[i].CategoryID == id && !s.actions[i].Deleted() {
			moved := s.actions[i]
			moved.CategoryID = models.GeneralCategoryID
			moved.Timestamp = now
			movedActions = append(movedActions, moved)
		}
	}
	s.mu.Unlock()

	b := s.store.Batch()
	for _, n := range movedNotes {
		data, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("failed to encode note %s: %w", n.ID, err)
		}
		b.QueueUpsert(remote.CollectionNotes, n.ID, data)
	}
	for _, q := range movedActions {
		data, err := json.Marshal(q)
		if err != nil {
			return fmt.Errorf("failed to encode quick action %s: %w", q.ID, err)
		}
		b.QueueUpsert(remote.CollectionQuickActions, q.ID, data)
	}
	b.QueueDelete(remote.CollectionCategories, id)
	if err := b.Commit(ctx); err != nil {
		s.setStatus(StatusError)
		return fmt.Errorf("failed to delete category: %w", err)
	}

	s.mu.Lock()
	for i := range s.notes {
		if s.notes[i].CategoryID == id {
			s.notes[i].CategoryID = models.GeneralCategoryID
			s.notes[i].Timestamp = now
		}
	}
	for i := range s.actions {
		if s.actions[i].CategoryID == id {
			s.actions[i].CategoryID = models.GeneralCategoryID
			s.actions[i].Timestamp = now
		}
	}
	for i, c := range s.cats {
		if c.ID == id {
			s.cats = append(s.cats[:i], s.cats[i+1:]...)
			break
		}
	}
	s.persistNotes(ctx)
	s.persistActions(ctx)
	s.persistCategories(ctx)
	s.mu.Unlock()
	s.markSynced(ctx)
	return nil
}

// ---- quick action mutations (management is online-only) ----

// CreateQuickAction adds a canned-text template. Management of quick actions
// is rejected offline, but a failed remote write still degrades to a pending
// record the reconciliation engine will push.
func (s *Service) CreateQuickAction(ctx context.Context, text, categoryID string) (models.QuickAction, Outcome, error) {
	if err := s.requireOnline(); err != nil {
		return models.QuickAction{}, "", err
	}
	q := models.QuickAction{
		ID:         s.newID(),
		Text:       text,
		CategoryID: categoryID,
		Timestamp:  s.now(),
	}

	s.mu.Lock()
	s.actions = append(s.actions, q)
	s.persistActions(ctx)
	s.mu.Unlock()

	return q, s.pushUpsert(ctx, remote.CollectionQuickActions, q.ID, q), nil
}

// UpdateQuickAction rewrites a quick action's text and association.
func (s *Service) UpdateQuickAction(ctx context.Context, id, text, categoryID string) (Outcome, error) {
	if err := s.requireOnline(); err != nil {
		return "", err
	}

	s.mu.Lock()
	idx := -1
	for i, q := range s.actions {
		if q.ID == id && !q.Deleted() {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return "", fmt.Errorf("quick action %s: %w", id, common.ErrNotFound)
	}
	s.actions[idx].Text = text
	s.actions[idx].CategoryID = categoryID
	s.actions[idx].Timestamp = s.now()
	q := s.actions[idx]
	s.persistActions(ctx)
	s.mu.Unlock()

	return s.pushUpsert(ctx, remote.CollectionQuickActions, q.ID, q), nil
}

// DeleteQuickAction tombstones the quick action and attempts the remote
// delete, pruning only after the remote confirms.
func (s *Service) DeleteQuickAction(ctx context.Context, id string) (Outcome, error) {
	if err := s.requireOnline(); err != nil {
		return "", err
	}

	s.mu.Lock()
	idx := -1
	for i, q := range s.actions {
		if q.ID == id && !q.Deleted() {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return "", fmt.Errorf("quick action %s: %w", id, common.ErrNotFound)
	}
	s.actions[idx].DeletedAt = s.now()
	s.persistActions(ctx)
	s.mu.Unlock()

	if err := s.store.Delete(ctx, remote.CollectionQuickActions, id); err != nil {
		s.log.Warn(ctx, "remote delete failed", "id", id, "error", err)
		s.setStatus(StatusError)
		return OutcomePending, nil
	}

	s.mu.Lock()
	for i, q := range s.actions {
		if q.ID == id {
			s.actions = append(s.actions[:i], s.actions[i+1:]...)
			break
		}
	}
	s.persistActions(ctx)
	s.mu.Unlock()
	s.markSynced(ctx)
	return OutcomeRemote, nil
}

// ---- settings ----

// SaveSettings stores the settings record with a fresh clock and routes it
// per connectivity.
func (s *Service) SaveSettings(ctx context.Context, settings models.Settings) (Outcome, error) {
	settings.LastUpdated = s.now()

	s.mu.Lock()
	s.settings = settings
	s.persistSettings(ctx)
	s.mu.Unlock()

	return s.pushUpsert(ctx, remote.CollectionSettings, remote.SettingsDocID, settings), nil
}

// ---- reconciliation ----

// SyncNow runs a reconciliation pass. It is also the handler for
// offline-to-online transitions. At most one pass runs at a time; a trigger
// arriving mid-pass coalesces into one more pass after the current one.
func (s *Service) SyncNow(ctx context.Context) error {
	if !s.signedIn() {
		return common.ErrSignedOut
	}

	s.mu.Lock()
	if s.inFlight {
		s.rerun = true
		s.mu.Unlock()
		return nil
	}
	s.inFlight = true
	s.status = StatusSyncing
	local := Snapshot{
		Notes:        append([]models.Note(nil), s.notes...),
		QuickActions: append([]models.QuickAction(nil), s.actions...),
		Settings:     s.settings,
		HasSettings:  s.settings.LastUpdated > 0,
	}
	s.mu.Unlock()

	err := s.reconcile(ctx, local)

	s.mu.Lock()
	s.inFlight = false
	again := s.rerun
	s.rerun = false
	if err != nil {
		s.status = StatusError
	}
	s.mu.Unlock()

	if err != nil {
		return err
	}
	if again {
		return s.SyncNow(ctx)
	}

	s.mu.Lock()
	reconciled := s.onReconciled
	s.mu.Unlock()
	if reconciled != nil {
		reconciled(ctx)
	}
	return nil
}

// reconcile runs one compare-and-commit pass against the given local
// snapshot. On any failure the pass is abandoned whole: no local mutation,
// tombstones intact, retried from scratch on the next trigger.
func (s *Service) reconcile(ctx context.Context, local Snapshot) error {
	remoteSnap, err := s.fetchRemote(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch remote snapshot: %w", err)
	}

	plan := BuildPlan(local, remoteSnap)
	s.log.Info(ctx, "reconciliation planned",
		"noteUpserts", len(plan.NoteUpserts), "noteDeletes", len(plan.NoteDeletes),
		"actionUpserts", len(plan.QuickActionUpserts), "actionDeletes", len(plan.QuickActionDeletes),
		"settings", plan.SettingsUpsert != nil,
		"prune", len(plan.PruneNotes)+len(plan.PruneQuickActions))

	if plan.HasRemoteOps() {
		b := s.store.Batch()
		if err := plan.AddTo(b); err != nil {
			return err
		}
		if err := b.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit reconciliation batch: %w", err)
		}
	}

	// Batch landed (or nothing to send): resolved tombstones leave the cache.
	s.mu.Lock()
	for _, id := range plan.PruneNotes {
		s.pruneNoteLocked(id)
	}
	for _, id := range plan.PruneQuickActions {
		for i, q := range s.actions {
			if q.ID == id {
				s.actions = append(s.actions[:i], s.actions[i+1:]...)
				break
			}
		}
	}
	s.persistNotes(ctx)
	s.persistActions(ctx)
	s.mu.Unlock()

	s.markSynced(ctx)
	return nil
}

func (s *Service) fetchRemote(ctx context.Context) (Snapshot, error) {
	var snap Snapshot

	noteDocs, err := s.store.FetchAll(ctx, remote.CollectionNotes)
	if err != nil {
		return snap, err
	}
	for _, d := range noteDocs {
		var n models.Note
		if err := json.Unmarshal(d.Data, &n); err != nil {
			return snap, fmt.Errorf("failed to decode remote note %s: %w", d.ID, err)
		}
		snap.Notes = append(snap.Notes, n)
	}

	actionDocs, err := s.store.FetchAll(ctx, remote.CollectionQuickActions)
	if err != nil {
		return snap, err
	}
	for _, d := range actionDocs {
		var q models.QuickAction
		if err := json.Unmarshal(d.Data, &q); err != nil {
			return snap, fmt.Errorf("failed to decode remote quick action %s: %w", d.ID, err)
		}
		snap.QuickActions = append(snap.QuickActions, q)
	}

	settingsDocs, err := s.store.FetchAll(ctx, remote.CollectionSettings)
	if err != nil {
		return snap, err
	}
	for _, d := range settingsDocs {
		if d.ID != remote.SettingsDocID {
			continue
		}
		if err := json.Unmarshal(d.Data, &snap.Settings); err != nil {
			return snap, fmt.Errorf("failed to decode remote settings: %w", err)
		}
		snap.HasSettings = true
	}

	return snap, nil
}

// ---- live projection (called by the Listener) ----

// applyRemoteNotes replaces the note collection wholesale and persists it.
func (s *Service) applyRemoteNotes(ctx context.Context, notes []models.Note) {
	s.mu.Lock()
	s.notes = notes
	s.persistNotes(ctx)
	s.mu.Unlock()
}

// applyRemoteCategories replaces the category set wholesale, with an empty
// guard: a transiently empty remote read never wipes a non-empty local set.
func (s *Service) applyRemoteCategories(ctx context.Context, cats []models.Category) {
	s.mu.Lock()
	if len(cats) == 0 && len(s.cats) > 0 {
		s.mu.Unlock()
		return
	}
	s.cats = ensureGeneral(cats)
	s.persistCategories(ctx)
	s.mu.Unlock()
}

func (s *Service) applyRemoteQuickActions(ctx context.Context, actions []models.QuickAction) {
	s.mu.Lock()
	s.actions = actions
	s.persistActions(ctx)
	s.mu.Unlock()
}

func (s *Service) applyRemoteSettings(ctx context.Context, settings models.Settings) {
	s.mu.Lock()
	s.settings = settings
	s.persistSettings(ctx)
	s.mu.Unlock()
}
