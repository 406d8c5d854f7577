package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corddisc/corddisc/backend"
	"github.com/corddisc/corddisc/model"
)

// The canonical walkthrough: a guest signs in, creates a room, and sends the
// first message, with every intermediate state visible through the container.
func TestGuestCreatesRoomAndChats(t *testing.T) {
	be, st, sm := newFixture(t)
	ctx := context.Background()

	require.NoError(t, sm.SignInGuest(ctx, "Bob"))
	user := st.User()
	require.NotNil(t, user)
	assert.Equal(t, "Bob", user.DisplayName)
	assert.True(t, user.IsEphemeral)

	d := NewRoomDirectory(be, st)
	require.NoError(t, d.Start())
	t.Cleanup(d.Close)
	assert.Empty(t, st.Rooms())

	code, err := d.Create(ctx, "General")
	require.NoError(t, err)

	rooms := st.Rooms()
	require.Len(t, rooms, 1)
	assert.Equal(t, "General", rooms[0].Name)
	assert.Equal(t, user.ID, rooms[0].OwnerID)

	s := NewMessageStream(be, st)
	t.Cleanup(s.Close)
	require.NoError(t, s.Select(ctx, code))

	gotCode, room := st.CurrentRoom()
	assert.Equal(t, code, gotCode)
	require.NotNil(t, room)
	assert.Equal(t, []string{user.ID}, room.MemberIDs)

	require.NoError(t, s.SendText(ctx, "hi"))

	msgs := st.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Body)
	assert.Equal(t, model.KindText, msgs[0].Kind)
	assert.Equal(t, "Bob", msgs[0].SenderDisplayName)
	assert.True(t, NeedsHeader(msgs, 0))

	// Leaving tears everything down and scrubs the guest profile.
	s.Close()
	d.Close()
	require.NoError(t, sm.SignOut(ctx))
	assert.Nil(t, st.User())
	_, err = be.Get(ctx, "users", user.ID)
	assert.ErrorIs(t, err, backend.ErrNotFound)

	// The room and its message outlive the guest.
	_, err = be.Get(ctx, "rooms", code)
	assert.NoError(t, err)
}
