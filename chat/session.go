package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/corddisc/corddisc/backend"
	"github.com/corddisc/corddisc/model"
)

const (
	usersCollection = "users"
	roomsCollection = "rooms"

	// Usernames are mapped onto a dummy email domain for the provider.
	emailDomain = "@corddisc.local"

	fallbackDisplayName = "User"
)

func messagesCollection(code string) string {
	return roomsCollection + "/" + code + "/messages"
}

// SessionManager owns the identity lifecycle: it listens on the provider's
// identity-change stream, materializes or creates the matching profile
// record, and publishes the result as the active session.
type SessionManager struct {
	be    backend.Backend
	state *State
	sub   backend.Subscription
}

// NewSessionManager wires a manager to the backend and state container.
func NewSessionManager(be backend.Backend, state *State) *SessionManager {
	return &SessionManager{be: be, state: state}
}

// Start arms the long-lived identity-change subscription. The provider fires
// it once immediately for the initial resolution.
func (m *SessionManager) Start() {
	m.sub = m.be.OnSessionChange(m.onIdentity)
}

// Close cancels the identity subscription.
func (m *SessionManager) Close() {
	if m.sub != nil {
		m.sub.Cancel()
		m.sub = nil
	}
}

func (m *SessionManager) onIdentity(ident *backend.Identity) {
	if ident == nil {
		m.state.SetSession(nil)
		return
	}
	profile, err := m.loadOrCreate(context.Background(), *ident)
	if err != nil {
		log.Printf("session: resolving profile for %s: %v", ident.UID, err)
		m.state.SetSession(nil)
		return
	}
	m.state.SetSession(&profile)
}

// handleFrom lowercases a display name and strips all whitespace.
func handleFrom(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), ""))
}

func displayNameFor(ident backend.Identity) string {
	if ident.DisplayName != "" {
		return ident.DisplayName
	}
	if at := strings.IndexByte(ident.Email, '@'); at > 0 {
		return ident.Email[:at]
	}
	return fallbackDisplayName
}

func (m *SessionManager) loadOrCreate(ctx context.Context, ident backend.Identity) (model.UserProfile, error) {
	doc, err := m.be.Get(ctx, usersCollection, ident.UID)
	if err == nil {
		return model.ProfileFromDoc(*doc), nil
	}
	if !errors.Is(err, backend.ErrNotFound) {
		return model.UserProfile{}, err
	}

	// First sign-in for this identity: synthesize the profile record.
	name := displayNameFor(ident)
	fields := map[string]any{
		"handle":          handleFrom(name),
		"displayName":     name,
		"avatarRef":       "",
		"theme":           string(model.DefaultTheme),
		"joinedRoomCodes": []string{},
		"createdAt":       backend.ServerTimestamp,
		"isEphemeral":     ident.Anonymous,
	}
	if err := m.be.Set(ctx, usersCollection, ident.UID, fields); err != nil {
		return model.UserProfile{}, fmt.Errorf("creating profile: %w", err)
	}
	doc, err = m.be.Get(ctx, usersCollection, ident.UID)
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("reading back profile: %w", err)
	}
	return model.ProfileFromDoc(*doc), nil
}

// SignIn authenticates an existing credentialed user.
func (m *SessionManager) SignIn(ctx context.Context, username, password string) error {
	handle := handleFrom(username)
	if handle == "" {
		return ErrEmptyName
	}
	_, err := m.be.SignIn(ctx, handle+emailDomain, password)
	return err
}

// SignUp registers a new credentialed user. Profile synthesis happens in the
// identity-change listener once the provider confirms the credential.
func (m *SessionManager) SignUp(ctx context.Context, username, password string) error {
	handle := handleFrom(username)
	if handle == "" {
		return ErrEmptyName
	}
	_, err := m.be.SignUp(ctx, handle+emailDomain, password)
	return err
}

// SignInGuest issues an ephemeral identity carrying the chosen name, so the
// profile listener needs no side channel to pick it up.
func (m *SessionManager) SignInGuest(ctx context.Context, name string) error {
	trimmed := strings.TrimSpace(name)
	if utf8.RuneCountInString(trimmed) < 3 {
		return ErrGuestNameTooShort
	}
	_, err := m.be.SignInAnonymously(ctx, trimmed)
	return err
}

// SignOut revokes the credential. For ephemeral sessions the profile record
// is deleted first, best effort: a failure is logged and never blocks the
// revocation. An ungraceful exit skips this cleanup entirely; that is a
// known limitation, not a bug.
func (m *SessionManager) SignOut(ctx context.Context) error {
	if user := m.state.User(); user != nil && user.IsEphemeral {
		if err := m.be.Delete(ctx, usersCollection, user.ID); err != nil {
			log.Printf("session: guest profile cleanup for %s: %v", user.ID, err)
		}
	}
	return m.be.SignOut(ctx)
}
