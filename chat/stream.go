package chat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/corddisc/corddisc/backend"
	"github.com/corddisc/corddisc/media"
	"github.com/corddisc/corddisc/model"
)

// Bound on the live message window; the server orders descending and the
// client reverses to ascending.
const messageWindowLimit = 50

// MessageStream maintains the live message window for the selected room and
// implements the two send paths. Selecting a room supersedes the previous
// subscription; a late snapshot from a superseded subscription is discarded
// via a generation check, never applied to the current window.
type MessageStream struct {
	be    backend.Backend
	state *State

	mu       sync.Mutex
	gen      int
	sub      backend.Subscription
	roomCode string
}

// NewMessageStream wires a stream to the backend and state container.
func NewMessageStream(be backend.Backend, state *State) *MessageStream {
	return &MessageStream{be: be, state: state}
}

// Select switches the active room. The prior subscription is cancelled before
// the new one is armed. An empty code clears the selection. An unknown code
// publishes a nil room, which the UI renders as an explicit invalid state,
// and returns backend.ErrNotFound.
func (s *MessageStream) Select(ctx context.Context, code string) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	if s.sub != nil {
		s.sub.Cancel()
		s.sub = nil
	}
	s.roomCode = code
	s.mu.Unlock()

	if code == "" {
		s.publishRoom(gen, "", nil)
		return nil
	}

	doc, err := s.be.Get(ctx, roomsCollection, code)
	if err != nil {
		if !s.publishRoom(gen, code, nil) {
			return nil
		}
		if errors.Is(err, backend.ErrNotFound) {
			return backend.ErrNotFound
		}
		return fmt.Errorf("loading room %s: %w", code, err)
	}
	room := model.RoomFromDoc(*doc)
	if !s.publishRoom(gen, code, &room) {
		return nil
	}

	q := backend.Query{
		Collection: messagesCollection(code),
		OrderBy:    "createdAt",
		Descending: true,
		Limit:      messageWindowLimit,
	}
	sub := s.be.Subscribe(q, func(snap backend.Snapshot) {
		// The server delivers newest first; present oldest first. The whole
		// window is replaced on every push, no incremental merge.
		msgs := make([]model.Message, 0, len(snap))
		for i := len(snap) - 1; i >= 0; i-- {
			msgs = append(msgs, model.MessageFromDoc(code, snap[i]))
		}
		s.publishMessages(gen, msgs)
	})

	s.mu.Lock()
	if gen == s.gen {
		s.sub = sub
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()
	sub.Cancel()
	return nil
}

// publishRoom replaces the published selection and clears the window, but
// only while gen is still current. Checking and publishing under one lock
// keeps a superseded Select from overwriting its successor's state.
func (s *MessageStream) publishRoom(gen int, code string, room *model.Room) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	s.state.SetCurrentRoom(code, room)
	s.state.SetMessages(nil)
	return true
}

func (s *MessageStream) publishMessages(gen int, msgs []model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	s.state.SetMessages(msgs)
}

// Close tears down the live subscription and clears the published window.
// Called on sign-out and on program exit.
func (s *MessageStream) Close() {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	if s.sub != nil {
		s.sub.Cancel()
		s.sub = nil
	}
	s.roomCode = ""
	s.mu.Unlock()
	s.publishRoom(gen, "", nil)
}

func (s *MessageStream) selectedRoom() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roomCode == "" {
		return "", ErrNoRoom
	}
	return s.roomCode, nil
}

func (s *MessageStream) senderFields() (map[string]any, error) {
	user := s.state.User()
	if user == nil {
		return nil, ErrNoSession
	}
	// Denormalized snapshot of the sender at send time; later profile edits
	// do not rewrite history.
	return map[string]any{
		"senderId":          user.ID,
		"senderDisplayName": user.DisplayName,
		"senderAvatarRef":   user.AvatarRef,
		"createdAt":         backend.ServerTimestamp,
	}, nil
}

// SendText appends a text message. The caller is expected to clear the
// composer optimistically and restore the text if this returns an error.
func (s *MessageStream) SendText(ctx context.Context, body string) error {
	body = strings.TrimSpace(body)
	if body == "" {
		return ErrEmptyMessage
	}
	code, err := s.selectedRoom()
	if err != nil {
		return err
	}
	fields, err := s.senderFields()
	if err != nil {
		return err
	}
	fields["kind"] = string(model.KindText)
	fields["body"] = body
	if _, err := s.be.AddAppend(ctx, messagesCollection(code), fields); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	return nil
}

// SendAttachment uploads a file and appends the corresponding message.
// Images are downscaled client-side first; the message kind follows the
// original media type, not the re-encoded one. No message is created when the
// upload fails.
func (s *MessageStream) SendAttachment(ctx context.Context, filename string, content []byte, progress backend.Progress) error {
	if len(content) == 0 {
		return ErrEmptyMessage
	}
	code, err := s.selectedRoom()
	if err != nil {
		return err
	}
	fields, err := s.senderFields()
	if err != nil {
		return err
	}

	kind := model.KindFile
	payload := content
	if strings.HasPrefix(http.DetectContentType(content), "image/") {
		kind = model.KindImage
		payload, err = media.DownscaleImage(content)
		if err != nil {
			return fmt.Errorf("%w: %v", backend.ErrUploadFailed, err)
		}
	}

	path := fmt.Sprintf("rooms/%s/%d_%s", code, time.Now().UnixMilli(), filename)
	url, err := s.be.Upload(ctx, path, bytes.NewReader(payload), progress)
	if err != nil {
		return fmt.Errorf("uploading %s: %w", filename, err)
	}

	fields["kind"] = string(kind)
	fields["body"] = ""
	fields["attachmentRef"] = url
	fields["attachmentName"] = filename
	if _, err := s.be.AddAppend(ctx, messagesCollection(code), fields); err != nil {
		return fmt.Errorf("recording attachment: %w", err)
	}
	return nil
}
