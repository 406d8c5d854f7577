package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/corddisc/corddisc/chat"
	"github.com/corddisc/corddisc/model"
)

// renderMessages lays out the ascending window with grouped headers: one
// header line (sender, clock time) per group, bodies indented beneath it.
// Recomputed whole on every window replacement.
func renderMessages(msgs []model.Message, selfID string, pal palette, width int) string {
	if len(msgs) == 0 {
		return pal.mutedStyle().Render("No messages yet. Say hi!")
	}
	if width < 20 {
		width = 80
	}

	var b strings.Builder
	for i, msg := range msgs {
		if chat.NeedsHeader(msgs, i) {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(renderHeader(msg, selfID, pal) + "\n")
		}
		b.WriteString(renderBody(msg, pal, width) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderHeader(msg model.Message, selfID string, pal palette) string {
	name := msg.SenderDisplayName
	if name == "" {
		name = "Unknown"
	}
	nameStyle := lipgloss.NewStyle().Bold(true)
	if msg.SenderID == selfID {
		nameStyle = pal.accentStyle()
	}
	stamp := ""
	if !msg.CreatedAt.IsZero() {
		stamp = msg.CreatedAt.Local().Format("15:04")
	}
	return nameStyle.Render(name) + " " + pal.mutedStyle().Render(stamp)
}

func renderBody(msg model.Message, pal palette, width int) string {
	switch msg.Kind {
	case model.KindImage:
		return "  " + pal.accentStyle().Render("[image] "+msg.AttachmentName) +
			" " + pal.mutedStyle().Render(msg.AttachmentRef)
	case model.KindFile:
		return "  " + pal.accentStyle().Render("[file] "+msg.AttachmentName) +
			" " + pal.mutedStyle().Render(msg.AttachmentRef)
	default:
		wrapped := lipgloss.NewStyle().Width(width - 2).Render(msg.Body)
		lines := strings.Split(wrapped, "\n")
		for i, line := range lines {
			lines[i] = "  " + line
		}
		return strings.Join(lines, "\n")
	}
}
