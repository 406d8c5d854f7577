// Package chat holds the client-side core: the session manager, room
// directory, message stream, and preference store, wired together through an
// injected observable State container.
package chat

import (
	"sync"

	"github.com/corddisc/corddisc/model"
)

// State is the shared app-state container. Each field has exactly one writer
// component; every setter replaces its field whole, never partially, so
// readers can never observe a torn value. Changes coalesce into a single
// notification channel the UI drains.
type State struct {
	mu sync.RWMutex

	resolved bool
	user     *model.UserProfile

	rooms []model.Room

	currentRoom     *model.Room
	currentRoomCode string
	messages        []model.Message

	changed chan struct{}
}

// NewState returns an empty container.
func NewState() *State {
	return &State{changed: make(chan struct{}, 1)}
}

// Changes signals after any field replacement. Consecutive updates between
// reads coalesce into one signal.
func (s *State) Changes() <-chan struct{} {
	return s.changed
}

func (s *State) notify() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// SetSession publishes the active profile (nil when signed out) and marks the
// session resolved. Writer: session manager.
func (s *State) SetSession(user *model.UserProfile) {
	s.mu.Lock()
	if user != nil {
		u := *user
		u.JoinedRoomCodes = append([]string(nil), user.JoinedRoomCodes...)
		s.user = &u
	} else {
		s.user = nil
	}
	s.resolved = true
	s.mu.Unlock()
	s.notify()
}

// Resolved reports whether the initial identity resolution has completed.
func (s *State) Resolved() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolved
}

// User returns a copy of the active profile, or nil.
func (s *State) User() *model.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	u.JoinedRoomCodes = append([]string(nil), s.user.JoinedRoomCodes...)
	return &u
}

// SetRooms publishes the latest room-directory snapshot. Writer: room
// directory.
func (s *State) SetRooms(rooms []model.Room) {
	s.mu.Lock()
	s.rooms = append([]model.Room(nil), rooms...)
	s.mu.Unlock()
	s.notify()
}

// Rooms returns a copy of the latest directory snapshot.
func (s *State) Rooms() []model.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Room(nil), s.rooms...)
}

// SetCurrentRoom publishes the selected room's record, nil for no selection
// or an unknown code. Writer: message stream.
func (s *State) SetCurrentRoom(code string, room *model.Room) {
	s.mu.Lock()
	s.currentRoomCode = code
	if room != nil {
		r := *room
		r.MemberIDs = append([]string(nil), room.MemberIDs...)
		s.currentRoom = &r
	} else {
		s.currentRoom = nil
	}
	s.mu.Unlock()
	s.notify()
}

// CurrentRoom returns the selected room code and its record. The record is
// nil when nothing is selected or the code resolved to no room.
func (s *State) CurrentRoom() (string, *model.Room) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentRoom == nil {
		return s.currentRoomCode, nil
	}
	r := *s.currentRoom
	r.MemberIDs = append([]string(nil), s.currentRoom.MemberIDs...)
	return s.currentRoomCode, &r
}

// SetMessages publishes the latest message window, ascending by timestamp.
// Writer: message stream.
func (s *State) SetMessages(msgs []model.Message) {
	s.mu.Lock()
	s.messages = append([]model.Message(nil), msgs...)
	s.mu.Unlock()
	s.notify()
}

// Messages returns a copy of the current window.
func (s *State) Messages() []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Message(nil), s.messages...)
}
