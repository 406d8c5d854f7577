package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corddisc/corddisc/model"
)

func TestStateChangesCoalesce(t *testing.T) {
	st := NewState()

	st.SetRooms([]model.Room{{Code: "AAAAAA"}})
	st.SetMessages([]model.Message{{Body: "one"}})
	st.SetMessages([]model.Message{{Body: "one"}, {Body: "two"}})

	select {
	case <-st.Changes():
	default:
		t.Fatal("expected a pending change signal")
	}
	select {
	case <-st.Changes():
		t.Fatal("consecutive updates must coalesce into one signal")
	default:
	}

	// The latest values are all readable regardless of coalescing.
	assert.Len(t, st.Rooms(), 1)
	assert.Len(t, st.Messages(), 2)
}

func TestStateCopiesOnReadAndWrite(t *testing.T) {
	st := NewState()

	user := &model.UserProfile{ID: "u1", JoinedRoomCodes: []string{"AAAAAA"}}
	st.SetSession(user)
	user.JoinedRoomCodes[0] = "MUTATE"

	got := st.User()
	require.NotNil(t, got)
	assert.Equal(t, []string{"AAAAAA"}, got.JoinedRoomCodes, "setter must deep copy")

	got.JoinedRoomCodes[0] = "MUTATE"
	again := st.User()
	assert.Equal(t, []string{"AAAAAA"}, again.JoinedRoomCodes, "getter must deep copy")
}

func TestStateResolution(t *testing.T) {
	st := NewState()
	assert.False(t, st.Resolved())
	assert.Nil(t, st.User())

	st.SetSession(nil)
	assert.True(t, st.Resolved(), "a nil session still counts as resolved")
	assert.Nil(t, st.User())
}
