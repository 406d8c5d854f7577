// Package remote is the wire driver for the backend boundary: JSON frames
// over a single websocket, request/response pairs matched by id plus push
// frames carrying auth transitions and full subscription snapshots. Push
// callbacks run on a dedicated dispatcher goroutine, never on the read pump,
// so they are free to issue calls back into the client.
package remote

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/corddisc/corddisc/backend"
)

const (
	defaultPort = "8999"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// wireWrite is one buffered transaction write.
type wireWrite struct {
	Collection string         `json:"collection"`
	Key        string         `json:"key"`
	Fields     map[string]any `json:"fields"`
	Merge      bool           `json:"merge"`
}

// frame is the single envelope for every message in both directions.
type frame struct {
	ID   int64  `json:"id,omitempty"`
	Type string `json:"type"` // "req", "res", "push"
	Op   string `json:"op,omitempty"`

	Collection  string         `json:"collection,omitempty"`
	Key         string         `json:"key,omitempty"`
	Fields      map[string]any `json:"fields,omitempty"`
	Query       *backend.Query `json:"query,omitempty"`
	Email       string         `json:"email,omitempty"`
	Password    string         `json:"password,omitempty"`
	DisplayName string         `json:"displayName,omitempty"`
	Path        string         `json:"path,omitempty"`
	Data        []byte         `json:"data,omitempty"`
	Txn         int64          `json:"txn,omitempty"`
	Writes      []wireWrite    `json:"writes,omitempty"`
	Sub         int64          `json:"sub,omitempty"`

	Error    string            `json:"error,omitempty"`
	ErrCode  string            `json:"errCode,omitempty"`
	Doc      *backend.Document `json:"doc,omitempty"`
	Docs     backend.Snapshot  `json:"docs,omitempty"`
	NewKey   string            `json:"newKey,omitempty"`
	URL      string            `json:"url,omitempty"`
	Identity *backend.Identity `json:"identity,omitempty"`
}

// Client implements backend.Backend over one websocket connection.
type Client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	mu        sync.Mutex
	pending   map[int64]chan frame
	subs      map[int64]*docSub
	authSubs  map[int64]*authSub
	current   *backend.Identity
	closedErr error

	nextID atomic.Int64
	pushCh chan frame
	done   chan struct{}
	once   sync.Once
}

// Dial connects to host (default port appended when none is given) and
// starts the read and keepalive pumps.
func Dial(host string) (*Client, error) {
	if !strings.Contains(host, ":") {
		host += ":" + defaultPort
	}
	u := url.URL{Scheme: "ws", Host: host, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", u.String(), err)
	}
	c := &Client{
		conn:     conn,
		pending:  make(map[int64]chan frame),
		subs:     make(map[int64]*docSub),
		authSubs: make(map[int64]*authSub),
		pushCh:   make(chan frame, 64),
		done:     make(chan struct{}),
	}
	go c.readPump()
	go c.pushLoop()
	go c.pingLoop()
	return c, nil
}

// Close shuts the connection down; in-flight calls fail.
func (c *Client) Close() error {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
	return nil
}

func (c *Client) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.writeMu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) readPump() {
	defer c.failAll(fmt.Errorf("%w: connection closed", backend.ErrWriteFailed))
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		var f frame
		if err := c.conn.ReadJSON(&f); err != nil {
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		switch f.Type {
		case "res":
			c.mu.Lock()
			ch := c.pending[f.ID]
			delete(c.pending, f.ID)
			c.mu.Unlock()
			if ch != nil {
				ch <- f
			}
		case "push":
			// Hand off to the dispatcher; a callback blocked in a call must
			// not stall response delivery.
			select {
			case c.pushCh <- f:
			case <-c.done:
				return
			}
		}
	}
}

// pushLoop drains pushed frames in arrival order. Running callbacks here
// keeps the read pump free to deliver the responses those callbacks wait on.
func (c *Client) pushLoop() {
	for {
		select {
		case f := <-c.pushCh:
			c.dispatchPush(f)
		case <-c.done:
			return
		}
	}
}

func (c *Client) dispatchPush(f frame) {
	switch f.Op {
	case "snapshot":
		c.mu.Lock()
		sub := c.subs[f.Sub]
		c.mu.Unlock()
		if sub != nil {
			sub.deliver(f.Docs)
		}
	case "auth":
		c.mu.Lock()
		c.current = f.Identity
		listeners := make([]*authSub, 0, len(c.authSubs))
		for _, s := range c.authSubs {
			listeners = append(listeners, s)
		}
		c.mu.Unlock()
		for _, s := range listeners {
			s.deliver(f.Identity)
		}
	}
}

func (c *Client) failAll(err error) {
	c.mu.Lock()
	c.closedErr = err
	pending := c.pending
	c.pending = make(map[int64]chan frame)
	c.mu.Unlock()
	for _, ch := range pending {
		close(ch)
	}
}

// call sends one request frame and waits for its matching response.
func (c *Client) call(ctx context.Context, f frame) (frame, error) {
	f.ID = c.nextID.Add(1)
	f.Type = "req"
	ch := make(chan frame, 1)

	c.mu.Lock()
	if c.closedErr != nil {
		err := c.closedErr
		c.mu.Unlock()
		return frame{}, err
	}
	c.pending[f.ID] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := c.conn.WriteJSON(f)
	c.writeMu.Unlock()
	if err != nil {
		c.mu.Lock()
		delete(c.pending, f.ID)
		c.mu.Unlock()
		return frame{}, fmt.Errorf("%w: %v", backend.ErrWriteFailed, err)
	}

	select {
	case res, ok := <-ch:
		if !ok {
			return frame{}, fmt.Errorf("%w: connection closed", backend.ErrWriteFailed)
		}
		if err := wireError(res); err != nil {
			return frame{}, err
		}
		return res, nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, f.ID)
		c.mu.Unlock()
		return frame{}, ctx.Err()
	case <-c.done:
		return frame{}, fmt.Errorf("%w: connection closed", backend.ErrWriteFailed)
	}
}

func wireError(f frame) error {
	switch f.ErrCode {
	case "":
		if f.Error != "" {
			return fmt.Errorf("%w: %s", backend.ErrWriteFailed, f.Error)
		}
		return nil
	case "invalid-credential":
		return backend.ErrInvalidCredential
	case "already-exists":
		return backend.ErrAlreadyExists
	case "not-found":
		return backend.ErrNotFound
	case "aborted":
		return backend.ErrAborted
	case "upload-failed":
		return backend.ErrUploadFailed
	case "signed-out":
		return backend.ErrSignedOut
	default:
		return fmt.Errorf("%w: %s", backend.ErrWriteFailed, f.Error)
	}
}

// encodeFields rewrites placeholder values into their wire shapes.
func encodeFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if backend.IsServerTimestamp(v) {
			out[k] = map[string]any{"$serverTimestamp": true}
			continue
		}
		if items, ok := backend.UnionItems(v); ok {
			out[k] = map[string]any{"$arrayUnion": items}
			continue
		}
		out[k] = v
	}
	return out
}
