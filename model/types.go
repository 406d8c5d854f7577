package model

import "time"

// Theme identifies one of the fixed color palettes.
type Theme string

const (
	ThemeWhite  Theme = "white"
	ThemeRed    Theme = "red"
	ThemeOrange Theme = "orange"
	ThemeYellow Theme = "yellow"
	ThemeGreen  Theme = "green"
	ThemeBlue   Theme = "blue"
	ThemeIndigo Theme = "indigo"
	ThemeViolet Theme = "violet"
	ThemeGray   Theme = "gray"
	ThemeBlack  Theme = "black"
)

// DefaultTheme is assigned to newly created profiles.
const DefaultTheme = ThemeWhite

// Themes lists every valid palette, in display order.
var Themes = []Theme{
	ThemeWhite, ThemeRed, ThemeOrange, ThemeYellow, ThemeGreen,
	ThemeBlue, ThemeIndigo, ThemeViolet, ThemeGray, ThemeBlack,
}

// ValidTheme reports whether t is one of the fixed palettes.
func ValidTheme(t Theme) bool {
	for _, known := range Themes {
		if t == known {
			return true
		}
	}
	return false
}

// UserProfile is the durable record behind a signed-in identity.
type UserProfile struct {
	ID              string    `json:"id"`
	Handle          string    `json:"handle"`
	DisplayName     string    `json:"displayName"`
	AvatarRef       string    `json:"avatarRef,omitempty"`
	Theme           Theme     `json:"theme"`
	JoinedRoomCodes []string  `json:"joinedRoomCodes"`
	CreatedAt       time.Time `json:"createdAt"`
	IsEphemeral     bool      `json:"isEphemeral"`
}

// Room is a named chat room. Code doubles as the document key and the
// shareable invite token.
type Room struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	MemberIDs []string  `json:"memberIds"`
	CreatedAt time.Time `json:"createdAt"`
}

// MessageKind discriminates message payloads.
type MessageKind string

const (
	KindText  MessageKind = "text"
	KindImage MessageKind = "image"
	KindFile  MessageKind = "file"
)

// Message is a single immutable chat message. Sender fields are a snapshot
// taken at send time and never updated retroactively.
type Message struct {
	ID                string      `json:"id"`
	RoomCode          string      `json:"roomCode"`
	SenderID          string      `json:"senderId"`
	SenderDisplayName string      `json:"senderDisplayName"`
	SenderAvatarRef   string      `json:"senderAvatarRef,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
	Kind              MessageKind `json:"kind"`
	Body              string      `json:"body,omitempty"`
	AttachmentRef     string      `json:"attachmentRef,omitempty"`
	AttachmentName    string      `json:"attachmentName,omitempty"`
}
