package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corddisc/corddisc/backend"
)

func TestGetSetUpdateDelete(t *testing.T) {
	be := New()
	ctx := context.Background()

	_, err := be.Get(ctx, "users", "u1")
	assert.ErrorIs(t, err, backend.ErrNotFound)

	require.NoError(t, be.Set(ctx, "users", "u1", map[string]any{
		"displayName": "Bob",
		"theme":       "white",
	}))

	doc, err := be.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", doc.Key)
	assert.Equal(t, "Bob", doc.Fields["displayName"])

	require.NoError(t, be.Update(ctx, "users", "u1", map[string]any{
		"theme": "blue",
	}))
	doc, err = be.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, "blue", doc.Fields["theme"])
	assert.Equal(t, "Bob", doc.Fields["displayName"], "merge must keep untouched fields")

	require.NoError(t, be.Delete(ctx, "users", "u1"))
	_, err = be.Get(ctx, "users", "u1")
	assert.ErrorIs(t, err, backend.ErrNotFound)

	// Deleting again is a no-op.
	assert.NoError(t, be.Delete(ctx, "users", "u1"))
}

func TestUpdateMissingDocument(t *testing.T) {
	be := New()
	err := be.Update(context.Background(), "users", "ghost", map[string]any{"theme": "red"})
	assert.ErrorIs(t, err, backend.ErrNotFound)
}

func TestAddAppendGeneratesDistinctKeys(t *testing.T) {
	be := New()
	ctx := context.Background()

	k1, err := be.AddAppend(ctx, "rooms/AAAAAA/messages", map[string]any{"body": "one"})
	require.NoError(t, err)
	k2, err := be.AddAppend(ctx, "rooms/AAAAAA/messages", map[string]any{"body": "two"})
	require.NoError(t, err)
	assert.NotEmpty(t, k1)
	assert.NotEqual(t, k1, k2)
}

func TestServerTimestampMonotonic(t *testing.T) {
	be := New()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := be.AddAppend(ctx, "msgs", map[string]any{"createdAt": backend.ServerTimestamp})
		require.NoError(t, err)
	}

	var snap backend.Snapshot
	sub := be.Subscribe(backend.Query{Collection: "msgs", OrderBy: "createdAt"}, func(s backend.Snapshot) {
		snap = s
	})
	defer sub.Cancel()
	require.Len(t, snap, 10)
	for i := 1; i < len(snap); i++ {
		prev := snap[i-1].Fields["createdAt"].(time.Time)
		cur := snap[i].Fields["createdAt"].(time.Time)
		assert.True(t, cur.After(prev), "timestamps must be strictly increasing")
	}
}

func TestArrayUnionDedupes(t *testing.T) {
	be := New()
	ctx := context.Background()

	require.NoError(t, be.Set(ctx, "users", "u1", map[string]any{
		"joinedRoomCodes": []string{"AAAAAA"},
	}))
	require.NoError(t, be.Update(ctx, "users", "u1", map[string]any{
		"joinedRoomCodes": backend.ArrayUnion("BBBBBB", "AAAAAA"),
	}))

	doc, err := be.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAAAAA", "BBBBBB"}, doc.Fields["joinedRoomCodes"])
}

func TestSubscribeInitialAndPush(t *testing.T) {
	be := New()
	ctx := context.Background()

	require.NoError(t, be.Set(ctx, "rooms", "AAAAAA", map[string]any{
		"name":      "General",
		"memberIds": []string{"u1"},
	}))

	var got []backend.Snapshot
	sub := be.Subscribe(backend.Query{
		Collection: "rooms",
		Where:      []backend.Where{{Field: "memberIds", Op: backend.OpArrayContains, Value: "u1"}},
	}, func(snap backend.Snapshot) {
		got = append(got, snap)
	})
	defer sub.Cancel()

	require.Len(t, got, 1, "initial snapshot delivered on subscribe")
	require.Len(t, got[0], 1)
	assert.Equal(t, "AAAAAA", got[0][0].Key)

	require.NoError(t, be.Set(ctx, "rooms", "BBBBBB", map[string]any{
		"name":      "Second",
		"memberIds": []string{"u1", "u2"},
	}))
	require.Len(t, got, 2)
	assert.Len(t, got[1], 2)

	// A room the user is not a member of does not show up.
	require.NoError(t, be.Set(ctx, "rooms", "CCCCCC", map[string]any{
		"name":      "Other",
		"memberIds": []string{"u2"},
	}))
	require.Len(t, got, 3)
	assert.Len(t, got[2], 2)
}

func TestSubscribeCancelStopsDelivery(t *testing.T) {
	be := New()
	ctx := context.Background()

	calls := 0
	sub := be.Subscribe(backend.Query{Collection: "rooms"}, func(backend.Snapshot) {
		calls++
	})
	require.Equal(t, 1, calls)

	sub.Cancel()
	sub.Cancel() // idempotent

	require.NoError(t, be.Set(ctx, "rooms", "AAAAAA", map[string]any{"name": "General"}))
	assert.Equal(t, 1, calls, "no delivery after cancel")
}

func TestSubscribeOrderAndLimit(t *testing.T) {
	be := New()
	ctx := context.Background()

	for _, body := range []string{"one", "two", "three"} {
		_, err := be.AddAppend(ctx, "msgs", map[string]any{
			"body":      body,
			"createdAt": backend.ServerTimestamp,
		})
		require.NoError(t, err)
	}

	var last backend.Snapshot
	sub := be.Subscribe(backend.Query{
		Collection: "msgs",
		OrderBy:    "createdAt",
		Descending: true,
		Limit:      2,
	}, func(snap backend.Snapshot) {
		last = snap
	})
	defer sub.Cancel()

	require.Len(t, last, 2)
	assert.Equal(t, "three", last[0].Fields["body"])
	assert.Equal(t, "two", last[1].Fields["body"])
}

func TestTransactionCommitsAtomically(t *testing.T) {
	be := New()
	ctx := context.Background()

	require.NoError(t, be.Set(ctx, "users", "u1", map[string]any{
		"joinedRoomCodes": []string{},
	}))

	var snaps int
	sub := be.Subscribe(backend.Query{Collection: "rooms"}, func(backend.Snapshot) {
		snaps++
	})
	defer sub.Cancel()
	require.Equal(t, 1, snaps)

	err := be.RunTransaction(ctx, func(tx backend.Tx) error {
		if _, err := tx.Get("rooms", "AAAAAA"); !errors.Is(err, backend.ErrNotFound) {
			return errors.New("expected free code")
		}
		tx.Set("rooms", "AAAAAA", map[string]any{
			"name":      "General",
			"memberIds": []string{"u1"},
			"createdAt": backend.ServerTimestamp,
		})
		tx.Update("users", "u1", map[string]any{
			"joinedRoomCodes": backend.ArrayUnion("AAAAAA"),
		})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, snaps, "exactly one push for the whole commit")

	room, err := be.Get(ctx, "rooms", "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, "General", room.Fields["name"])
	user, err := be.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAAAAA"}, user.Fields["joinedRoomCodes"])
}

func TestTransactionRollbackOnError(t *testing.T) {
	be := New()
	ctx := context.Background()

	boom := errors.New("boom")
	err := be.RunTransaction(ctx, func(tx backend.Tx) error {
		tx.Set("rooms", "AAAAAA", map[string]any{"name": "General"})
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = be.Get(ctx, "rooms", "AAAAAA")
	assert.ErrorIs(t, err, backend.ErrNotFound, "buffered write must be discarded")
}

func TestTransactionAbortsOnMergeOfAbsentDoc(t *testing.T) {
	be := New()
	ctx := context.Background()

	err := be.RunTransaction(ctx, func(tx backend.Tx) error {
		tx.Set("rooms", "AAAAAA", map[string]any{"name": "General"})
		tx.Update("users", "ghost", map[string]any{
			"joinedRoomCodes": backend.ArrayUnion("AAAAAA"),
		})
		return nil
	})
	assert.ErrorIs(t, err, backend.ErrAborted)

	_, err = be.Get(ctx, "rooms", "AAAAAA")
	assert.ErrorIs(t, err, backend.ErrNotFound, "no partial commit")
}

func TestTransactionReadsSeeBufferedWrites(t *testing.T) {
	be := New()
	err := be.RunTransaction(context.Background(), func(tx backend.Tx) error {
		tx.Set("rooms", "AAAAAA", map[string]any{"name": "General"})
		doc, err := tx.Get("rooms", "AAAAAA")
		if err != nil {
			return err
		}
		if doc.Fields["name"] != "General" {
			return errors.New("buffered write not visible")
		}
		return nil
	})
	assert.NoError(t, err)
}
