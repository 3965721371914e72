// Package remote abstracts the remote document store the client syncs with.
//
// The store holds per-user collections of JSON documents addressed by
// collection name and document id, and offers read-all, single upsert/delete,
// an all-or-nothing batch write, and a push-based change subscription.
package remote

import "context"

// Collection names mirrored between the local cache and the remote store.
const (
	CollectionNotes        = "notes"
	CollectionCategories   = "categories"
	CollectionQuickActions = "quickActions"
	CollectionSettings     = "settings"
)

// SettingsDocID is the fixed id of the single settings document per user.
const SettingsDocID = "profile"

// Document is one remote record: an opaque JSON payload addressed by id.
type Document struct {
	ID   string
	Data []byte
}

// Batch accumulates upserts and deletes that Commit applies atomically:
// either every queued operation lands, or none do.
type Batch interface {
	QueueUpsert(collection, id string, data []byte)
	QueueDelete(collection, id string)

	// Len reports the number of queued operations.
	Len() int

	Commit(ctx context.Context) error
}

// UnsubscribeFunc detaches a change subscription.
type UnsubscribeFunc func()

// Store is the remote document database the sync engine talks to. All
// operations are scoped to the user the store was opened for.
//
// Implementations map permission failures to common.ErrAccessDenied and
// reachability failures to common.ErrUnavailable so the caller can tell
// "denied" apart from "offline".
type Store interface {
	// FetchAll returns every document in the collection.
	FetchAll(ctx context.Context, collection string) ([]Document, error)

	// Upsert writes one document.
	Upsert(ctx context.Context, collection, id string, data []byte) error

	// Delete removes one document. Deleting an absent id is not an error.
	Delete(ctx context.Context, collection, id string) error

	// Batch returns a new empty batch bound to this store.
	Batch() Batch

	// Subscribe invokes onChange with the collection name every time any
	// document in one of the user's collections changes, until the returned
	// UnsubscribeFunc is called or ctx is cancelled. Implementations that can
	// lose notifications while detached synthesize one change per collection
	// on every (re)attach so subscribers re-fetch what they missed.
	Subscribe(ctx context.Context, onChange func(collection string)) (UnsubscribeFunc, error)

	// Ping probes reachability.
	Ping(ctx context.Context) error

	Close() error
}
