package chat

import (
	"bytes"
	"context"
	"image/jpeg"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corddisc/corddisc/backend"
	"github.com/corddisc/corddisc/backend/memory"
	"github.com/corddisc/corddisc/model"
)

func signedInPrefs(t *testing.T) (*memory.Backend, *State, *Preferences) {
	t.Helper()
	be, st, sm := newFixture(t)
	require.NoError(t, sm.SignUp(context.Background(), "Bob", "hunter22"))
	return be, st, NewPreferences(be, st)
}

func TestUpdateDisplayName(t *testing.T) {
	be, st, p := signedInPrefs(t)
	ctx := context.Background()
	uid := st.User().ID

	require.NoError(t, p.UpdateDisplayName(ctx, "  Robert  "))

	assert.Equal(t, "Robert", st.User().DisplayName, "local session updates optimistically")

	doc, err := be.Get(ctx, "users", uid)
	require.NoError(t, err)
	assert.Equal(t, "Robert", doc.Fields["displayName"])
	assert.Equal(t, "bob", doc.Fields["handle"], "handle never changes")
}

func TestUpdateDisplayNameValidation(t *testing.T) {
	_, _, p := signedInPrefs(t)
	assert.ErrorIs(t, p.UpdateDisplayName(context.Background(), "   "), ErrEmptyName)

	unsigned := NewPreferences(memory.New(), NewState())
	assert.ErrorIs(t, unsigned.UpdateDisplayName(context.Background(), "Bob"), ErrNoSession)
}

func TestUpdateTheme(t *testing.T) {
	be, st, p := signedInPrefs(t)
	ctx := context.Background()
	uid := st.User().ID

	require.NoError(t, p.UpdateTheme(ctx, model.ThemeIndigo))
	assert.Equal(t, model.ThemeIndigo, st.User().Theme)

	doc, err := be.Get(ctx, "users", uid)
	require.NoError(t, err)
	assert.Equal(t, "indigo", doc.Fields["theme"])
}

func TestUpdateThemeRejectsUnknownPalette(t *testing.T) {
	be, st, p := signedInPrefs(t)
	ctx := context.Background()

	err := p.UpdateTheme(ctx, model.Theme("hotpink"))
	assert.ErrorIs(t, err, ErrInvalidTheme)
	assert.Equal(t, model.DefaultTheme, st.User().Theme, "rejected writes change nothing")

	doc, err := be.Get(ctx, "users", st.User().ID)
	require.NoError(t, err)
	assert.Equal(t, "white", doc.Fields["theme"])
}

func TestUpdateAvatar(t *testing.T) {
	be, st, p := signedInPrefs(t)
	ctx := context.Background()
	uid := st.User().ID

	require.NoError(t, p.UpdateAvatar(ctx, makePNG(t, 2400, 2400)))

	ref := st.User().AvatarRef
	require.True(t, strings.HasPrefix(ref, "mem://avatars/"+uid+"_"), "avatar path is user-scoped, got %s", ref)

	doc, err := be.Get(ctx, "users", uid)
	require.NoError(t, err)
	assert.Equal(t, ref, doc.Fields["avatarRef"])

	blob, ok := be.Blob(strings.TrimPrefix(ref, "mem://"))
	require.True(t, ok)
	img, err := jpeg.Decode(bytes.NewReader(blob))
	require.NoError(t, err)
	assert.Equal(t, 1200, img.Bounds().Dx())
	assert.Equal(t, 1200, img.Bounds().Dy())
}

func TestUpdateAvatarRejectsNonImage(t *testing.T) {
	_, st, p := signedInPrefs(t)

	err := p.UpdateAvatar(context.Background(), []byte("this is not an image"))
	assert.ErrorIs(t, err, backend.ErrUploadFailed)
	assert.Empty(t, st.User().AvatarRef)
}
