package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jaevor/go-nanoid"

	"github.com/corddisc/corddisc/backend"
	"github.com/corddisc/corddisc/model"
)

const (
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	roomCodeLength   = 6

	// Bound on the live directory query; no pagination beyond it.
	roomListLimit = 50

	// Fresh draws on a code collision before giving up.
	createAttempts = 5
)

// NewRoomCode draws a 6-character code uniformly over [A-Z0-9].
var NewRoomCode = mustCodeGenerator()

func mustCodeGenerator() func() string {
	gen, err := nanoid.CustomASCII(roomCodeAlphabet, roomCodeLength)
	if err != nil {
		panic(fmt.Sprintf("room code generator: %v", err))
	}
	return gen
}

var errCodeTaken = errors.New("chat: room code already taken")

// RoomDirectory maintains the live list of rooms the current user belongs to
// and implements the two mutating operations, create and join.
type RoomDirectory struct {
	be    backend.Backend
	state *State
	sub   backend.Subscription

	// newCode is swappable in tests to force collisions.
	newCode func() string
}

// NewRoomDirectory wires a directory to the backend and state container.
func NewRoomDirectory(be backend.Backend, state *State) *RoomDirectory {
	return &RoomDirectory{be: be, state: state, newCode: NewRoomCode}
}

// Start opens the membership-driven live query for the resolved session.
// Every push replaces the published snapshot whole.
func (d *RoomDirectory) Start() error {
	user := d.state.User()
	if user == nil {
		return ErrNoSession
	}
	q := backend.Query{
		Collection: roomsCollection,
		Where: []backend.Where{
			{Field: "memberIds", Op: backend.OpArrayContains, Value: user.ID},
		},
		Limit: roomListLimit,
	}
	d.sub = d.be.Subscribe(q, func(snap backend.Snapshot) {
		rooms := make([]model.Room, 0, len(snap))
		for _, doc := range snap {
			rooms = append(rooms, model.RoomFromDoc(doc))
		}
		d.state.SetRooms(rooms)
	})
	return nil
}

// Close tears down the live query and clears the published list.
func (d *RoomDirectory) Close() {
	if d.sub != nil {
		d.sub.Cancel()
		d.sub = nil
	}
	d.state.SetRooms(nil)
}

// Create makes a new room in one atomic transaction: the room record with the
// creator as sole member, plus the code unioned into the creator's room list.
// Both writes commit or neither does. A code collision triggers a fresh draw,
// a few times, before reporting the transaction aborted.
func (d *RoomDirectory) Create(ctx context.Context, name string) (string, error) {
	user := d.state.User()
	if user == nil {
		return "", ErrNoSession
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}

	for attempt := 0; attempt < createAttempts; attempt++ {
		code := d.newCode()
		err := d.be.RunTransaction(ctx, func(tx backend.Tx) error {
			if _, err := tx.Get(roomsCollection, code); err == nil {
				return errCodeTaken
			}
			tx.Set(roomsCollection, code, map[string]any{
				"name":      name,
				"ownerId":   user.ID,
				"memberIds": []string{user.ID},
				"createdAt": backend.ServerTimestamp,
			})
			tx.Update(usersCollection, user.ID, map[string]any{
				"joinedRoomCodes": backend.ArrayUnion(code),
			})
			return nil
		})
		if errors.Is(err, errCodeTaken) {
			log.Printf("rooms: code %s collided, redrawing", code)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", backend.ErrAborted, err)
		}
		return code, nil
	}
	return "", fmt.Errorf("%w: code space draw exhausted", backend.ErrAborted)
}

// Join adds the caller to an existing room. The two writes are deliberately
// independent: a crash in between leaves the membership updated and the
// user's own list behind, and the membership-driven directory query converges
// on its own once the subscription re-syncs.
func (d *RoomDirectory) Join(ctx context.Context, code string) error {
	user := d.state.User()
	if user == nil {
		return ErrNoSession
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != roomCodeLength {
		return ErrInvalidCode
	}

	if _, err := d.be.Get(ctx, roomsCollection, code); err != nil {
		return err
	}
	if err := d.be.Update(ctx, roomsCollection, code, map[string]any{
		"memberIds": backend.ArrayUnion(user.ID),
	}); err != nil {
		return fmt.Errorf("joining room %s: %w", code, err)
	}
	if err := d.be.Update(ctx, usersCollection, user.ID, map[string]any{
		"joinedRoomCodes": backend.ArrayUnion(code),
	}); err != nil {
		return fmt.Errorf("recording joined room %s: %w", code, err)
	}
	return nil
}
