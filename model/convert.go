package model

import (
	"time"

	"github.com/corddisc/corddisc/backend"
)

// Field coercion helpers. Documents that crossed a JSON wire carry times as
// RFC 3339 strings and string sets as []any, so every accessor tolerates
// both shapes.

func fieldString(fields map[string]any, key string) string {
	if s, ok := fields[key].(string); ok {
		return s
	}
	return ""
}

func fieldBool(fields map[string]any, key string) bool {
	b, _ := fields[key].(bool)
	return b
}

func fieldTime(fields map[string]any, key string) time.Time {
	switch v := fields[key].(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func fieldStrings(fields map[string]any, key string) []string {
	switch v := fields[key].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// ProfileFromDoc rebuilds a profile from its stored document.
func ProfileFromDoc(doc backend.Document) UserProfile {
	return UserProfile{
		ID:              doc.Key,
		Handle:          fieldString(doc.Fields, "handle"),
		DisplayName:     fieldString(doc.Fields, "displayName"),
		AvatarRef:       fieldString(doc.Fields, "avatarRef"),
		Theme:           Theme(fieldString(doc.Fields, "theme")),
		JoinedRoomCodes: fieldStrings(doc.Fields, "joinedRoomCodes"),
		CreatedAt:       fieldTime(doc.Fields, "createdAt"),
		IsEphemeral:     fieldBool(doc.Fields, "isEphemeral"),
	}
}

// RoomFromDoc rebuilds a room from its stored document.
func RoomFromDoc(doc backend.Document) Room {
	return Room{
		Code:      doc.Key,
		Name:      fieldString(doc.Fields, "name"),
		OwnerID:   fieldString(doc.Fields, "ownerId"),
		MemberIDs: fieldStrings(doc.Fields, "memberIds"),
		CreatedAt: fieldTime(doc.Fields, "createdAt"),
	}
}

// MessageFromDoc rebuilds a message from its stored document. RoomCode is
// supplied by the caller since messages live in per-room collections.
func MessageFromDoc(roomCode string, doc backend.Document) Message {
	return Message{
		ID:                doc.Key,
		RoomCode:          roomCode,
		SenderID:          fieldString(doc.Fields, "senderId"),
		SenderDisplayName: fieldString(doc.Fields, "senderDisplayName"),
		SenderAvatarRef:   fieldString(doc.Fields, "senderAvatarRef"),
		CreatedAt:         fieldTime(doc.Fields, "createdAt"),
		Kind:              MessageKind(fieldString(doc.Fields, "kind")),
		Body:              fieldString(doc.Fields, "body"),
		AttachmentRef:     fieldString(doc.Fields, "attachmentRef"),
		AttachmentName:    fieldString(doc.Fields, "attachmentName"),
	}
}
