package chat

import "errors"

var (
	// ErrEmptyName rejects blank room names and display names.
	ErrEmptyName = errors.New("chat: name must not be empty")
	// ErrGuestNameTooShort rejects guest names under three characters.
	ErrGuestNameTooShort = errors.New("chat: guest name must be at least 3 characters")
	// ErrInvalidCode rejects join codes that are not six characters.
	ErrInvalidCode = errors.New("chat: room code must be 6 characters")
	// ErrInvalidTheme rejects palette identifiers outside the fixed set.
	ErrInvalidTheme = errors.New("chat: unknown theme")
	// ErrEmptyMessage rejects messages that are blank after trimming.
	ErrEmptyMessage = errors.New("chat: message must not be empty")
	// ErrNoSession guards operations that need a resolved session.
	ErrNoSession = errors.New("chat: no active session")
	// ErrNoRoom guards sends without a live room selection.
	ErrNoRoom = errors.New("chat: no room selected")
)
