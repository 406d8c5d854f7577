package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/corddisc/corddisc/backend"
)

type authSub struct {
	id int
	b  *Backend
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
	s.b.mu.Lock()
	delete(s.b.authSubs, s.id)
	s.b.mu.Unlock()
}

// setCurrentLocked swaps the active identity and returns the listeners to
// notify once the lock is released.
func (b *Backend) setCurrentLocked(ident *backend.Identity) []*authSub {
	b.current = ident
	subs := make([]*authSub, 0, len(b.authSubs))
	for _, s := range b.authSubs {
		subs = append(subs, s)
	}
	return subs
}

func fireAuth(subs []*authSub, ident *backend.Identity) {
	for _, s := range subs {
		var copyIdent *backend.Identity
		if ident != nil {
			c := *ident
			copyIdent = &c
		}
		s.deliver(copyIdent)
	}
}

// SignUp implements backend.Auth.
func (b *Backend) SignUp(ctx context.Context, email, password string) (backend.Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return backend.Identity{}, err
	}
	b.mu.Lock()
	if _, exists := b.creds[email]; exists {
		b.mu.Unlock()
		return backend.Identity{}, backend.ErrAlreadyExists
	}
	cred := credential{uid: uuid.NewString(), hash: hash}
	b.creds[email] = cred
	ident := backend.Identity{UID: cred.uid, Email: email}
	subs := b.setCurrentLocked(&ident)
	b.mu.Unlock()
	fireAuth(subs, &ident)
	return ident, nil
}

// SignIn implements backend.Auth.
func (b *Backend) SignIn(ctx context.Context, email, password string) (backend.Identity, error) {
	b.mu.Lock()
	cred, exists := b.creds[email]
	b.mu.Unlock()
	if !exists {
		return backend.Identity{}, backend.ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword(cred.hash, []byte(password)); err != nil {
		return backend.Identity{}, backend.ErrInvalidCredential
	}
	ident := backend.Identity{UID: cred.uid, Email: email}
	b.mu.Lock()
	subs := b.setCurrentLocked(&ident)
	b.mu.Unlock()
	fireAuth(subs, &ident)
	return ident, nil
}

// SignInAnonymously implements backend.Auth. The chosen display name rides on
// the identity so profile synthesis has no side channel to consume.
func (b *Backend) SignInAnonymously(ctx context.Context, displayName string) (backend.Identity, error) {
	ident := backend.Identity{UID: uuid.NewString(), DisplayName: displayName, Anonymous: true}
	b.mu.Lock()
	subs := b.setCurrentLocked(&ident)
	b.mu.Unlock()
	fireAuth(subs, &ident)
	return ident, nil
}

// SignOut implements backend.Auth.
func (b *Backend) SignOut(ctx context.Context) error {
	b.mu.Lock()
	subs := b.setCurrentLocked(nil)
	b.mu.Unlock()
	fireAuth(subs, nil)
	return nil
}

// OnSessionChange implements backend.Auth. The callback fires once with the
// current identity before any transition, matching the provider contract.
func (b *Backend) OnSessionChange(cb func(*backend.Identity)) backend.Subscription {
	b.mu.Lock()
	b.nextSubID++
	sub := &authSub{id: b.nextSubID, b: b, cb: cb}
	b.authSubs[sub.id] = sub
	current := b.current
	b.mu.Unlock()
	var copyIdent *backend.Identity
	if current != nil {
		c := *current
		copyIdent = &c
	}
	sub.deliver(copyIdent)
	return sub
}
