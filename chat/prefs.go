package chat

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/corddisc/corddisc/backend"
	"github.com/corddisc/corddisc/media"
	"github.com/corddisc/corddisc/model"
)

// Preferences implements the per-user presentation settings: display name,
// theme, avatar. Each operation is a single-document write applied to local
// session state optimistically (write-then-update-local, no read-after-write).
type Preferences struct {
	be    backend.Backend
	state *State
}

// NewPreferences wires the store to the backend and state container.
func NewPreferences(be backend.Backend, state *State) *Preferences {
	return &Preferences{be: be, state: state}
}

// UpdateDisplayName writes the display name only. Interactive confirmation is
// the UI's job; by the time this runs the user has already agreed.
func (p *Preferences) UpdateDisplayName(ctx context.Context, name string) error {
	user := p.state.User()
	if user == nil {
		return ErrNoSession
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if err := p.be.Update(ctx, usersCollection, user.ID, map[string]any{
		"displayName": name,
	}); err != nil {
		return fmt.Errorf("updating display name: %w", err)
	}
	user.DisplayName = name
	p.state.SetSession(user)
	return nil
}

// UpdateTheme writes the palette id, rejecting anything outside the fixed
// ten before touching the store.
func (p *Preferences) UpdateTheme(ctx context.Context, theme model.Theme) error {
	user := p.state.User()
	if user == nil {
		return ErrNoSession
	}
	if !model.ValidTheme(theme) {
		return ErrInvalidTheme
	}
	if err := p.be.Update(ctx, usersCollection, user.ID, map[string]any{
		"theme": string(theme),
	}); err != nil {
		return fmt.Errorf("updating theme: %w", err)
	}
	user.Theme = theme
	p.state.SetSession(user)
	return nil
}

// UpdateAvatar downscales the image, uploads it to a user-scoped path, and
// writes the resulting URL. The previous avatar blob is not deleted; storage
// accumulation is a documented non-goal.
func (p *Preferences) UpdateAvatar(ctx context.Context, content []byte) error {
	user := p.state.User()
	if user == nil {
		return ErrNoSession
	}
	if !strings.HasPrefix(http.DetectContentType(content), "image/") {
		return fmt.Errorf("%w: avatar must be an image", backend.ErrUploadFailed)
	}
	scaled, err := media.DownscaleImage(content)
	if err != nil {
		return fmt.Errorf("%w: %v", backend.ErrUploadFailed, err)
	}
	path := fmt.Sprintf("avatars/%s_%d.jpg", user.ID, time.Now().UnixMilli())
	url, err := p.be.Upload(ctx, path, bytes.NewReader(scaled), nil)
	if err != nil {
		return fmt.Errorf("uploading avatar: %w", err)
	}
	if err := p.be.Update(ctx, usersCollection, user.ID, map[string]any{
		"avatarRef": url,
	}); err != nil {
		return fmt.Errorf("updating avatar: %w", err)
	}
	user.AvatarRef = url
	p.state.SetSession(user)
	return nil
}
