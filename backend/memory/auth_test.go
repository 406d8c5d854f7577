package memory

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corddisc/corddisc/backend"
)

func TestCredentialLifecycle(t *testing.T) {
	be := New()
	ctx := context.Background()

	ident, err := be.SignUp(ctx, "bob@corddisc.local", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, ident.UID)
	assert.Equal(t, "bob@corddisc.local", ident.Email)
	assert.False(t, ident.Anonymous)

	_, err = be.SignUp(ctx, "bob@corddisc.local", "other")
	assert.ErrorIs(t, err, backend.ErrAlreadyExists)

	_, err = be.SignIn(ctx, "bob@corddisc.local", "wrong")
	assert.ErrorIs(t, err, backend.ErrInvalidCredential)
	_, err = be.SignIn(ctx, "nobody@corddisc.local", "hunter22")
	assert.ErrorIs(t, err, backend.ErrInvalidCredential)

	again, err := be.SignIn(ctx, "bob@corddisc.local", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, ident.UID, again.UID, "same credential resolves to the same identity")
}

func TestAnonymousIdentityCarriesDisplayName(t *testing.T) {
	be := New()
	ident, err := be.SignInAnonymously(context.Background(), "Wanderer")
	require.NoError(t, err)
	assert.True(t, ident.Anonymous)
	assert.Equal(t, "Wanderer", ident.DisplayName)
	assert.Empty(t, ident.Email)
}

func TestOnSessionChangeFiresCurrentAndTransitions(t *testing.T) {
	be := New()
	ctx := context.Background()

	var seen []*backend.Identity
	sub := be.OnSessionChange(func(ident *backend.Identity) {
		seen = append(seen, ident)
	})
	defer sub.Cancel()

	require.Len(t, seen, 1, "fires once with the current state on registration")
	assert.Nil(t, seen[0])

	ident, err := be.SignInAnonymously(ctx, "Wanderer")
	require.NoError(t, err)
	require.Len(t, seen, 2)
	require.NotNil(t, seen[1])
	assert.Equal(t, ident.UID, seen[1].UID)

	require.NoError(t, be.SignOut(ctx))
	require.Len(t, seen, 3)
	assert.Nil(t, seen[2])

	sub.Cancel()
	_, err = be.SignInAnonymously(ctx, "Again")
	require.NoError(t, err)
	assert.Len(t, seen, 3, "no delivery after cancel")
}

func TestUploadStoresBlobAndReportsProgress(t *testing.T) {
	be := New()
	payload := bytes.Repeat([]byte("x"), 100*1024)

	var final int64
	url, err := be.Upload(context.Background(), "rooms/AAAAAA/1_big.bin", bytes.NewReader(payload), func(written, total int64) {
		if total >= 0 {
			final = written
		}
	})
	require.NoError(t, err)
	assert.Equal(t, "mem://rooms/AAAAAA/1_big.bin", url)
	assert.Equal(t, int64(len(payload)), final)

	stored, ok := be.Blob("rooms/AAAAAA/1_big.bin")
	require.True(t, ok)
	assert.Equal(t, payload, stored)
}
