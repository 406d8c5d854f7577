package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/corddisc/corddisc/backend"
)

func TestProfileFromDoc(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	doc := backend.Document{
		Key: "u1",
		Fields: map[string]any{
			"handle":          "bob",
			"displayName":     "Bob",
			"avatarRef":       "mem://avatars/u1_1.jpg",
			"theme":           "indigo",
			"joinedRoomCodes": []string{"AAAAAA", "BBBBBB"},
			"createdAt":       created,
			"isEphemeral":     true,
		},
	}

	p := ProfileFromDoc(doc)
	assert.Equal(t, "u1", p.ID)
	assert.Equal(t, "bob", p.Handle)
	assert.Equal(t, ThemeIndigo, p.Theme)
	assert.Equal(t, []string{"AAAAAA", "BBBBBB"}, p.JoinedRoomCodes)
	assert.Equal(t, created, p.CreatedAt)
	assert.True(t, p.IsEphemeral)
}

// Documents that crossed the JSON wire carry times as strings and string sets
// as []any.
func TestProfileFromDocWireShapes(t *testing.T) {
	doc := backend.Document{
		Key: "u1",
		Fields: map[string]any{
			"displayName":     "Bob",
			"joinedRoomCodes": []any{"AAAAAA", "BBBBBB"},
			"createdAt":       "2026-03-01T12:00:00.5Z",
		},
	}

	p := ProfileFromDoc(doc)
	assert.Equal(t, []string{"AAAAAA", "BBBBBB"}, p.JoinedRoomCodes)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 500000000, time.UTC), p.CreatedAt)
}

func TestProfileFromDocMissingFields(t *testing.T) {
	p := ProfileFromDoc(backend.Document{Key: "u1", Fields: map[string]any{}})
	assert.Equal(t, "u1", p.ID)
	assert.Empty(t, p.Handle)
	assert.Nil(t, p.JoinedRoomCodes)
	assert.True(t, p.CreatedAt.IsZero())
}

func TestRoomFromDoc(t *testing.T) {
	r := RoomFromDoc(backend.Document{
		Key: "ABC123",
		Fields: map[string]any{
			"name":      "General",
			"ownerId":   "u1",
			"memberIds": []string{"u1", "u2"},
		},
	})
	assert.Equal(t, "ABC123", r.Code)
	assert.Equal(t, "General", r.Name)
	assert.Equal(t, []string{"u1", "u2"}, r.MemberIDs)
}

func TestMessageFromDoc(t *testing.T) {
	m := MessageFromDoc("ABC123", backend.Document{
		Key: "m1",
		Fields: map[string]any{
			"senderId":          "u1",
			"senderDisplayName": "Bob",
			"kind":              "image",
			"attachmentRef":     "mem://rooms/ABC123/1_photo.jpg",
			"attachmentName":    "photo.jpg",
		},
	})
	assert.Equal(t, "ABC123", m.RoomCode)
	assert.Equal(t, KindImage, m.Kind)
	assert.Equal(t, "photo.jpg", m.AttachmentName)
	assert.Empty(t, m.Body)
}

func TestValidTheme(t *testing.T) {
	for _, theme := range Themes {
		assert.True(t, ValidTheme(theme))
	}
	assert.False(t, ValidTheme(Theme("hotpink")))
	assert.False(t, ValidTheme(Theme("")))
}
