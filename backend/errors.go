package backend

import "errors"

var (
	// ErrInvalidCredential covers bad username/password pairs.
	ErrInvalidCredential = errors.New("backend: invalid credentials")
	// ErrAlreadyExists covers sign-up with a taken identity.
	ErrAlreadyExists = errors.New("backend: identity already exists")
	// ErrNotFound covers point reads and updates of absent documents.
	ErrNotFound = errors.New("backend: not found")
	// ErrWriteFailed covers mutations rejected by the store.
	ErrWriteFailed = errors.New("backend: write failed")
	// ErrUploadFailed covers blob transfers that did not complete.
	ErrUploadFailed = errors.New("backend: upload failed")
	// ErrAborted covers transactions that committed neither side.
	ErrAborted = errors.New("backend: transaction aborted")
	// ErrSignedOut covers operations that need an identity when none is held.
	ErrSignedOut = errors.New("backend: not signed in")
)
