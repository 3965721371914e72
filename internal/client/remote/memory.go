package remote

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store used by tests. Failure injection fields
// make every primitive individually fallible so error paths can be exercised
// without a live database.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]map[string][]byte
	subs []func(collection string)

	// Failure injection: when non-nil, the corresponding operation fails.
	FetchErr  error
	UpsertErr error
	DeleteErr error
	BatchErr  error
	PingErr   error

	// FetchHook, when non-nil, runs at the start of every FetchAll, before
	// the store lock is taken. Tests use it to block or count fetches.
	FetchHook func(collection string)

	// UpsertCalls and DeleteCalls count direct (non-batch) writes.
	UpsertCalls int
	DeleteCalls int
	// BatchCommits counts successful batch commits.
	BatchCommits int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string][]byte)}
}

func (m *MemoryStore) coll(name string) map[string][]byte {
	c, ok := m.data[name]
	if !ok {
		c = make(map[string][]byte)
		m.data[name] = c
	}
	return c
}

func (m *MemoryStore) FetchAll(_ context.Context, collection string) ([]Document, error) {
	if m.FetchHook != nil {
		m.FetchHook(collection)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	var result []Document
	for id, data := range m.coll(collection) {
		result = append(result, Document{ID: id, Data: append([]byte(nil), data...)})
	}
	return result, nil
}

// Get returns one document's payload and whether it exists.
func (m *MemoryStore) Get(collection, id string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.coll(collection)[id]
	return data, ok
}

// Len reports the number of documents in a collection.
func (m *MemoryStore) Len(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.coll(collection))
}

// Put seeds a document without going through Upsert accounting.
func (m *MemoryStore) Put(collection, id string, data []byte) {
	m.mu.Lock()
	m.coll(collection)[id] = data
	m.mu.Unlock()
	m.notify(collection)
}

func (m *MemoryStore) Upsert(_ context.Context, collection, id string, data []byte) error {
	m.mu.Lock()
	if m.UpsertErr != nil {
		m.mu.Unlock()
		return m.UpsertErr
	}
	m.UpsertCalls++
	m.coll(collection)[id] = data
	m.mu.Unlock()
	m.notify(collection)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	if m.DeleteErr != nil {
		m.mu.Unlock()
		return m.DeleteErr
	}
	m.DeleteCalls++
	delete(m.coll(collection), id)
	m.mu.Unlock()
	m.notify(collection)
	return nil
}

type memoryBatch struct {
	store *MemoryStore
	ops   []batchOp
}

func (m *MemoryStore) Batch() Batch {
	return &memoryBatch{store: m}
}

func (b *memoryBatch) QueueUpsert(collection, id string, data []byte) {
	b.ops = append(b.ops, batchOp{upsert: true, collection: collection, id: id, data: data})
}

func (b *memoryBatch) QueueDelete(collection, id string) {
	b.ops = append(b.ops, batchOp{collection: collection, id: id})
}

func (b *memoryBatch) Len() int { return len(b.ops) }

// Commit applies all queued operations, or none when BatchErr is set.
func (b *memoryBatch) Commit(_ context.Context) error {
	m := b.store
	m.mu.Lock()
	if m.BatchErr != nil {
		m.mu.Unlock()
		return m.BatchErr
	}
	changed := make(map[string]struct{})
	for _, op := range b.ops {
		if op.upsert {
			m.coll(op.collection)[op.id] = op.data
		} else {
			delete(m.coll(op.collection), op.id)
		}
		changed[op.collection] = struct{}{}
	}
	m.BatchCommits++
	m.mu.Unlock()
	for collection := range changed {
		m.notify(collection)
	}
	return nil
}

func (m *MemoryStore) Subscribe(ctx context.Context, onChange func(collection string)) (UnsubscribeFunc, error) {
	m.mu.Lock()
	idx := len(m.subs)
	m.subs = append(m.subs, onChange)
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		if idx < len(m.subs) {
			m.subs[idx] = nil
		}
		m.mu.Unlock()
	}, nil
}

func (m *MemoryStore) notify(collection string) {
	m.mu.Lock()
	subs := append([]func(string){}, m.subs...)
	m.mu.Unlock()
	for _, fn := range subs {
		if fn != nil {
			fn(collection)
		}
	}
}

func (m *MemoryStore) Ping(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.PingErr
}

func (m *MemoryStore) Close() error { return nil }
