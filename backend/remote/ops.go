package remote

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/corddisc/corddisc/backend"
)

// SignIn implements backend.Auth.
func (c *Client) SignIn(ctx context.Context, email, password string) (backend.Identity, error) {
	res, err := c.call(ctx, frame{Op: "signIn", Email: email, Password: password})
	if err != nil {
		return backend.Identity{}, err
	}
	return *res.Identity, nil
}

// SignUp implements backend.Auth.
func (c *Client) SignUp(ctx context.Context, email, password string) (backend.Identity, error) {
	res, err := c.call(ctx, frame{Op: "signUp", Email: email, Password: password})
	if err != nil {
		return backend.Identity{}, err
	}
	return *res.Identity, nil
}

// SignInAnonymously implements backend.Auth.
func (c *Client) SignInAnonymously(ctx context.Context, displayName string) (backend.Identity, error) {
	res, err := c.call(ctx, frame{Op: "signInAnonymous", DisplayName: displayName})
	if err != nil {
		return backend.Identity{}, err
	}
	return *res.Identity, nil
}

// SignOut implements backend.Auth.
func (c *Client) SignOut(ctx context.Context) error {
	_, err := c.call(ctx, frame{Op: "signOut"})
	return err
}

type authSub struct {
	id int64
	c  *Client
	cb func(*backend.Identity)

	deliverMu sync.Mutex
	closed    bool
}

func (s *authSub) deliver(ident *backend.Identity) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if s.closed {
		return
	}
	s.cb(ident)
}

// Cancel implements backend.Subscription.
func (s *authSub) Cancel() {
	s.deliverMu.Lock()
	s.closed = true
	s.deliverMu.Unlock()
	s.c.mu.Lock()
	delete(s.c.authSubs, s.id)
	s.c.mu.Unlock()
}

// OnSessionChange implements backend.Auth. The callback fires immediately
// with the last pushed identity (nil before the server reports one), then on
// every pushed transition.
func (c *Client) OnSessionChange(cb func(*backend.Identity)) backend.Subscription {
	sub := &authSub{id: c.nextID.Add(1), c: c, cb: cb}
	c.mu.Lock()
	c.authSubs[sub.id] = sub
	current := c.current
	c.mu.Unlock()
	sub.deliver(current)
	return sub
}

// Get implements backend.Store.
func (c *Client) Get(ctx context.Context, collection, key string) (*backend.Document, error) {
	res, err := c.call(ctx, frame{Op: "get", Collection: collection, Key: key})
	if err != nil {
		return nil, err
	}
	return res.Doc, nil
}

// Set implements backend.Store.
func (c *Client) Set(ctx context.Context, collection, key string, fields map[string]any) error {
	_, err := c.call(ctx, frame{Op: "set", Collection: collection, Key: key, Fields: encodeFields(fields)})
	return err
}

// Update implements backend.Store.
func (c *Client) Update(ctx context.Context, collection, key string, fields map[string]any) error {
	_, err := c.call(ctx, frame{Op: "update", Collection: collection, Key: key, Fields: encodeFields(fields)})
	return err
}

// Delete implements backend.Store.
func (c *Client) Delete(ctx context.Context, collection, key string) error {
	_, err := c.call(ctx, frame{Op: "delete", Collection: collection, Key: key})
	return err
}

// AddAppend implements backend.Store.
func (c *Client) AddAppend(ctx context.Context, collection string, fields map[string]any) (string, error) {
	res, err := c.call(ctx, frame{Op: "add", Collection: collection, Fields: encodeFields(fields)})
	if err != nil {
		return "", err
	}
	return res.NewKey, nil
}

type remoteTx struct {
	c   *Client
	ctx context.Context
	id  int64

	writes []wireWrite
}

func (tx *remoteTx) Get(collection, key string) (*backend.Document, error) {
	res, err := tx.c.call(tx.ctx, frame{Op: "txnGet", Txn: tx.id, Collection: collection, Key: key})
	if err != nil {
		return nil, err
	}
	return res.Doc, nil
}

func (tx *remoteTx) Set(collection, key string, fields map[string]any) {
	tx.writes = append(tx.writes, wireWrite{Collection: collection, Key: key, Fields: encodeFields(fields)})
}

func (tx *remoteTx) Update(collection, key string, fields map[string]any) {
	tx.writes = append(tx.writes, wireWrite{Collection: collection, Key: key, Fields: encodeFields(fields), Merge: true})
}

// RunTransaction implements backend.Store. Reads are served against the
// transaction's server-side view; writes buffer locally and commit in one
// batch, which the server applies atomically or rejects as aborted.
func (c *Client) RunTransaction(ctx context.Context, fn func(tx backend.Tx) error) error {
	begin, err := c.call(ctx, frame{Op: "txnBegin"})
	if err != nil {
		return err
	}
	tx := &remoteTx{c: c, ctx: ctx, id: begin.Txn}
	if err := fn(tx); err != nil {
		// Best-effort release; the fn error is the caller's signal.
		c.call(ctx, frame{Op: "txnAbort", Txn: tx.id}) //nolint:errcheck
		return err
	}
	if _, err := c.call(ctx, frame{Op: "txnCommit", Txn: tx.id, Writes: tx.writes}); err != nil {
		return err
	}
	return nil
}

type docSub struct {
	id int64
	c  *Client
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
	if s.closed {
		s.deliverMu.Unlock()
		return
	}
	s.closed = true
	s.deliverMu.Unlock()
	s.c.mu.Lock()
	delete(s.c.subs, s.id)
	c := s.c
	c.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	c.call(ctx, frame{Op: "unsubscribe", Sub: s.id}) //nolint:errcheck
}

// Subscribe implements backend.Store. The server pushes the initial snapshot
// and every subsequent change under the subscription's id.
func (c *Client) Subscribe(q backend.Query, cb func(backend.Snapshot)) backend.Subscription {
	sub := &docSub{id: c.nextID.Add(1), c: c, cb: cb}
	c.mu.Lock()
	c.subs[sub.id] = sub
	c.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	query := q
	if _, err := c.call(ctx, frame{Op: "subscribe", Sub: sub.id, Query: &query}); err != nil {
		// The caller still holds a valid handle; it will simply never fire.
		sub.deliver(nil)
	}
	return sub
}

const uploadChunk = 64 * 1024

// Upload implements backend.Blobs: a start frame, acked chunk frames that
// double as progress ticks, and a final frame answered with the URL.
func (c *Client) Upload(ctx context.Context, path string, r io.Reader, progress backend.Progress) (string, error) {
	begin, err := c.call(ctx, frame{Op: "uploadBegin", Path: path})
	if err != nil {
		return "", err
	}
	uploadID := begin.Txn

	var written int64
	chunk := make([]byte, uploadChunk)
	for {
		n, readErr := r.Read(chunk)
		if n > 0 {
			data := make([]byte, n)
			copy(data, chunk[:n])
			if _, err := c.call(ctx, frame{Op: "uploadChunk", Txn: uploadID, Data: data}); err != nil {
				return "", fmt.Errorf("%w: %v", backend.ErrUploadFailed, err)
			}
			written += int64(n)
			if progress != nil {
				progress(written, -1)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", fmt.Errorf("%w: %v", backend.ErrUploadFailed, readErr)
		}
	}

	done, err := c.call(ctx, frame{Op: "uploadDone", Txn: uploadID})
	if err != nil {
		return "", err
	}
	if progress != nil {
		progress(written, written)
	}
	return done.URL, nil
}
