// Package memory is an in-process implementation of the backend boundary:
// documents in maps under a RWMutex, per-query subscriber fan-out, bcrypt
// credentials, and a monotonic timestamp source. It backs the test suite and
// the -local demo mode.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/corddisc/corddisc/backend"
)

type credential struct {
	uid  string
	hash []byte
}

// Backend implements backend.Backend entirely in process memory.
type Backend struct {
	mu        sync.Mutex
	creds     map[string]credential
	docs      map[string]map[string]map[string]any
	subs      map[int]*docSub
	authSubs  map[int]*authSub
	nextSubID int
	current   *backend.Identity
	lastStamp time.Time
	blobs     map[string][]byte
}

// New returns an empty backend.
func New() *Backend {
	return &Backend{
		creds:    make(map[string]credential),
		docs:     make(map[string]map[string]map[string]any),
		subs:     make(map[int]*docSub),
		authSubs: make(map[int]*authSub),
		blobs:    make(map[string][]byte),
	}
}

// serverNowLocked returns a timestamp strictly after every one issued before.
func (b *Backend) serverNowLocked() time.Time {
	now := time.Now().UTC()
	if !now.After(b.lastStamp) {
		now = b.lastStamp.Add(time.Microsecond)
	}
	b.lastStamp = now
	return now
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if set, ok := v.([]string); ok {
			dup := make([]string, len(set))
			copy(dup, set)
			out[k] = dup
			continue
		}
		out[k] = v
	}
	return out
}

func unionSet(existing any, items []string) []string {
	var out []string
	if prev, ok := existing.([]string); ok {
		out = append(out, prev...)
	}
	for _, item := range items {
		seen := false
		for _, have := range out {
			if have == item {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, item)
		}
	}
	return out
}

// resolveLocked materializes ServerTimestamp and ArrayUnion placeholders
// against the existing document (nil for full replaces).
func (b *Backend) resolveLocked(existing, fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch {
		case backend.IsServerTimestamp(v):
			out[k] = b.serverNowLocked()
		default:
			if items, ok := backend.UnionItems(v); ok {
				var prev any
				if existing != nil {
					prev = existing[k]
				}
				out[k] = unionSet(prev, items)
				continue
			}
			out[k] = v
		}
	}
	return out
}

func (b *Backend) collectionLocked(path string) map[string]map[string]any {
	coll, ok := b.docs[path]
	if !ok {
		coll = make(map[string]map[string]any)
		b.docs[path] = coll
	}
	return coll
}

// Get implements backend.Store.
func (b *Backend) Get(ctx context.Context, collection, key string) (*backend.Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fields, ok := b.docs[collection][key]
	if !ok {
		return nil, backend.ErrNotFound
	}
	return &backend.Document{Key: key, Fields: copyFields(fields)}, nil
}

// Set implements backend.Store: a full replace of the document.
func (b *Backend) Set(ctx context.Context, collection, key string, fields map[string]any) error {
	b.mu.Lock()
	coll := b.collectionLocked(collection)
	coll[key] = b.resolveLocked(nil, fields)
	deliveries := b.gatherLocked(collection)
	b.mu.Unlock()
	dispatch(deliveries)
	return nil
}

// Update implements backend.Store: a partial merge into an existing document.
func (b *Backend) Update(ctx context.Context, collection, key string, fields map[string]any) error {
	b.mu.Lock()
	existing, ok := b.docs[collection][key]
	if !ok {
		b.mu.Unlock()
		return backend.ErrNotFound
	}
	merged := copyFields(existing)
	for k, v := range b.resolveLocked(existing, fields) {
		merged[k] = v
	}
	b.docs[collection][key] = merged
	deliveries := b.gatherLocked(collection)
	b.mu.Unlock()
	dispatch(deliveries)
	return nil
}

// Delete implements backend.Store. Deleting an absent document is a no-op.
func (b *Backend) Delete(ctx context.Context, collection, key string) error {
	b.mu.Lock()
	delete(b.docs[collection], key)
	deliveries := b.gatherLocked(collection)
	b.mu.Unlock()
	dispatch(deliveries)
	return nil
}

// AddAppend implements backend.Store: stores fields under a fresh key.
func (b *Backend) AddAppend(ctx context.Context, collection string, fields map[string]any) (string, error) {
	key := uuid.NewString()
	if err := b.Set(ctx, collection, key, fields); err != nil {
		return "", err
	}
	return key, nil
}

type bufferedWrite struct {
	collection string
	key        string
	fields     map[string]any
	merge      bool
}

type memTx struct {
	b      *Backend
	writes []bufferedWrite
}

func (tx *memTx) lookup(collection, key string) (map[string]any, bool) {
	// Later buffered writes shadow earlier state.
	fields, ok := tx.b.docs[collection][key]
	for _, w := range tx.writes {
		if w.collection != collection || w.key != key {
			continue
		}
		if w.merge && ok {
			merged := copyFields(fields)
			for k, v := range w.fields {
				merged[k] = v
			}
			fields = merged
			continue
		}
		fields, ok = w.fields, true
	}
	return fields, ok
}

func (tx *memTx) Get(collection, key string) (*backend.Document, error) {
	fields, ok := tx.lookup(collection, key)
	if !ok {
		return nil, backend.ErrNotFound
	}
	return &backend.Document{Key: key, Fields: copyFields(fields)}, nil
}

func (tx *memTx) Set(collection, key string, fields map[string]any) {
	tx.writes = append(tx.writes, bufferedWrite{collection, key, copyFields(fields), false})
}

func (tx *memTx) Update(collection, key string, fields map[string]any) {
	tx.writes = append(tx.writes, bufferedWrite{collection, key, copyFields(fields), true})
}

// RunTransaction implements backend.Store. Writes buffer until fn returns and
// then commit atomically; any fn error discards them all. fn must use the Tx
// handle, not the public Store methods, for its reads.
func (b *Backend) RunTransaction(ctx context.Context, fn func(tx backend.Tx) error) error {
	b.mu.Lock()
	tx := &memTx{b: b}
	if err := fn(tx); err != nil {
		b.mu.Unlock()
		return err
	}
	// Validate merges before touching anything; an update of an absent
	// document aborts the whole batch.
	for i, w := range tx.writes {
		if !w.merge {
			continue
		}
		view := &memTx{b: b, writes: tx.writes[:i]}
		if _, ok := view.lookup(w.collection, w.key); !ok {
			b.mu.Unlock()
			return backend.ErrAborted
		}
	}
	touched := make(map[string]bool)
	for _, w := range tx.writes {
		coll := b.collectionLocked(w.collection)
		if w.merge {
			existing := coll[w.key]
			merged := copyFields(existing)
			for k, v := range b.resolveLocked(existing, w.fields) {
				merged[k] = v
			}
			coll[w.key] = merged
		} else {
			coll[w.key] = b.resolveLocked(nil, w.fields)
		}
		touched[w.collection] = true
	}
	var deliveries []delivery
	for path := range touched {
		deliveries = append(deliveries, b.gatherLocked(path)...)
	}
	b.mu.Unlock()
	dispatch(deliveries)
	return nil
}

type docSub struct {
	id int
	b  *Backend
	q  backend.Query
	cb func(backend.Snapshot)

	deliverMu sync.Mutex
	closed    bool
}

func (s *docSub) deliver(snap backend.Snapshot) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if s.closed {
		return
	}
	s.cb(snap)
}

// Cancel implements backend.Subscription.
func (s *docSub) Cancel() {
	s.deliverMu.Lock()
	s.closed = true
	s.deliverMu.Unlock()
	s.b.mu.Lock()
	delete(s.b.subs, s.id)
	s.b.mu.Unlock()
}

type delivery struct {
	sub  *docSub
	snap backend.Snapshot
}

func dispatch(deliveries []delivery) {
	for _, d := range deliveries {
		d.sub.deliver(d.snap)
	}
}

// Subscribe implements backend.Store. The initial snapshot is delivered
// before Subscribe returns.
func (b *Backend) Subscribe(q backend.Query, cb func(backend.Snapshot)) backend.Subscription {
	b.mu.Lock()
	b.nextSubID++
	sub := &docSub{id: b.nextSubID, b: b, q: q, cb: cb}
	b.subs[sub.id] = sub
	initial := b.evaluateLocked(q)
	b.mu.Unlock()
	sub.deliver(initial)
	return sub
}

func (b *Backend) gatherLocked(collection string) []delivery {
	var out []delivery
	for _, sub := range b.subs {
		if sub.q.Collection != collection {
			continue
		}
		out = append(out, delivery{sub: sub, snap: b.evaluateLocked(sub.q)})
	}
	return out
}

func matches(fields map[string]any, w backend.Where) bool {
	switch w.Op {
	case backend.OpEqual:
		return fields[w.Field] == w.Value
	case backend.OpArrayContains:
		want, ok := w.Value.(string)
		if !ok {
			return false
		}
		set, ok := fields[w.Field].([]string)
		if !ok {
			return false
		}
		for _, item := range set {
			if item == want {
				return true
			}
		}
	}
	return false
}

func orderLess(a, b map[string]any, field string) bool {
	at, aok := a[field].(time.Time)
	bt, bok := b[field].(time.Time)
	if aok && bok {
		return at.Before(bt)
	}
	as, _ := a[field].(string)
	bs, _ := b[field].(string)
	return as < bs
}

func (b *Backend) evaluateLocked(q backend.Query) backend.Snapshot {
	var snap backend.Snapshot
	for key, fields := range b.docs[q.Collection] {
		keep := true
		for _, w := range q.Where {
			if !matches(fields, w) {
				keep = false
				break
			}
		}
		if keep {
			snap = append(snap, backend.Document{Key: key, Fields: copyFields(fields)})
		}
	}
	if q.OrderBy != "" {
		sort.SliceStable(snap, func(i, j int) bool {
			if q.Descending {
				return orderLess(snap[j].Fields, snap[i].Fields, q.OrderBy)
			}
			return orderLess(snap[i].Fields, snap[j].Fields, q.OrderBy)
		})
	} else {
		// Deterministic iteration for callers that diff snapshots.
		sort.Slice(snap, func(i, j int) bool { return snap[i].Key < snap[j].Key })
	}
	if q.Limit > 0 && len(snap) > q.Limit {
		snap = snap[:q.Limit]
	}
	return snap
}
