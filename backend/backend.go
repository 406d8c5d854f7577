// Package backend declares the boundary to the managed backend: identity
// issuance, a document store with live queries and transactions, and blob
// upload. Nothing in this package talks to a network; drivers live in the
// subpackages.
package backend

import (
	"context"
	"io"
)

// Identity is a credential issued by the provider. Anonymous identities carry
// the guest display name chosen at sign-in.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Anonymous   bool   `json:"anonymous"`
}

// Subscription is the disposable handle returned by every subscribe call.
// Cancel is idempotent; once it returns, no further callbacks are delivered.
type Subscription interface {
	Cancel()
}

// Auth is the identity provider surface.
type Auth interface {
	SignIn(ctx context.Context, email, password string) (Identity, error)
	SignUp(ctx context.Context, email, password string) (Identity, error)
	// SignInAnonymously issues an ephemeral identity. The display name is
	// carried on the identity so profile synthesis never needs a side channel.
	SignInAnonymously(ctx context.Context, displayName string) (Identity, error)
	SignOut(ctx context.Context) error
	// OnSessionChange fires on every identity transition, including once for
	// the initial resolution. A nil identity means signed out.
	OnSessionChange(cb func(*Identity)) Subscription
}

// Document is one stored record. Fields values are strings, bools,
// time.Time stamps, or []string sets.
type Document struct {
	Key    string         `json:"key"`
	Fields map[string]any `json:"fields"`
}

// Snapshot is the full result set of a query, delivered whole on every push.
type Snapshot []Document

// WhereOp is a query predicate operator.
type WhereOp string

const (
	OpEqual         WhereOp = "=="
	OpArrayContains WhereOp = "array-contains"
)

// Where is a single query predicate.
type Where struct {
	Field string  `json:"field"`
	Op    WhereOp `json:"op"`
	Value any     `json:"value"`
}

// Query selects documents from one collection path, e.g. "rooms" or
// "rooms/ABC123/messages".
type Query struct {
	Collection string  `json:"collection"`
	Where      []Where `json:"where,omitempty"`
	OrderBy    string  `json:"orderBy,omitempty"`
	Descending bool    `json:"descending,omitempty"`
	Limit      int     `json:"limit,omitempty"`
}

// Tx is the handle passed to a transaction function. Reads go through
// immediately; writes are buffered and commit atomically, or not at all.
type Tx interface {
	Get(collection, key string) (*Document, error)
	Set(collection, key string, fields map[string]any)
	Update(collection, key string, fields map[string]any)
}

// Store is the document store surface.
type Store interface {
	Get(ctx context.Context, collection, key string) (*Document, error)
	Set(ctx context.Context, collection, key string, fields map[string]any) error
	Update(ctx context.Context, collection, key string, fields map[string]any) error
	Delete(ctx context.Context, collection, key string) error
	// AddAppend stores fields under a fresh server-assigned key and returns it.
	AddAppend(ctx context.Context, collection string, fields map[string]any) (string, error)
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error
	// Subscribe delivers the current snapshot immediately and again on every
	// relevant change until the handle is cancelled.
	Subscribe(q Query, cb func(Snapshot)) Subscription
}

// Progress reports bytes written so far. Total is -1 when unknown.
type Progress func(written, total int64)

// Blobs is the blob storage surface.
type Blobs interface {
	// Upload stores the blob under path and returns a retrievable URL.
	Upload(ctx context.Context, path string, r io.Reader, progress Progress) (string, error)
}

// Backend bundles the three capabilities a driver must provide.
type Backend interface {
	Auth
	Store
	Blobs
}

type serverTimestamp struct{}

// ServerTimestamp is a field value placeholder resolved to a monotonic
// server-assigned time at write commit.
var ServerTimestamp any = serverTimestamp{}

// IsServerTimestamp reports whether v is the ServerTimestamp placeholder.
func IsServerTimestamp(v any) bool {
	_, ok := v.(serverTimestamp)
	return ok
}

type arrayUnion struct {
	items []string
}

// ArrayUnion is a field value that unions items into an existing string-set
// field at write commit, deduplicating.
func ArrayUnion(items ...string) any {
	return arrayUnion{items: items}
}

// UnionItems returns the items of an ArrayUnion value, or false.
func UnionItems(v any) ([]string, bool) {
	u, ok := v.(arrayUnion)
	if !ok {
		return nil, false
	}
	return u.items, true
}
