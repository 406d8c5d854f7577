package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const sidebarWidth = 24

func (a App) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return a, tea.Quit

	case tea.KeyCtrlN:
		return a.cycleRoom(1)
	case tea.KeyCtrlP:
		return a.cycleRoom(-1)

	case tea.KeyEnter:
		input := strings.TrimSpace(a.composer.Value())
		if input == "" {
			return a, nil
		}
		a.notice = ""
		if strings.HasPrefix(input, "/") {
			a.composer.SetValue("")
			return a.runCommand(input)
		}
		// Optimistic clear; sendDoneMsg restores the text on failure.
		a.composer.SetValue("")
		stream := a.stream
		return a, func() tea.Msg {
			return sendDoneMsg{body: input, err: stream.SendText(context.Background(), input)}
		}
	}

	var tiCmd, vpCmd tea.Cmd
	a.composer, tiCmd = a.composer.Update(msg)
	a.vp, vpCmd = a.vp.Update(msg)
	return a, tea.Batch(tiCmd, vpCmd)
}

func (a App) cycleRoom(step int) (tea.Model, tea.Cmd) {
	rooms := a.state.Rooms()
	if len(rooms) == 0 {
		return a, nil
	}
	current, _ := a.state.CurrentRoom()
	idx := 0
	for i, r := range rooms {
		if r.Code == current {
			idx = (i + step + len(rooms)) % len(rooms)
			break
		}
	}
	return a, a.openRoom(rooms[idx].Code)
}

func (a App) openRoom(code string) tea.Cmd {
	stream := a.stream
	return func() tea.Msg {
		if err := stream.Select(context.Background(), code); err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{}
	}
}

func (a App) runCommand(input string) (tea.Model, tea.Cmd) {
	switch {
	case input == "/quit":
		return a, tea.Quit

	case input == "/help":
		a.notice = "/join <code> · /create <name> · /attach <path> · /settings · /logout · /quit"
		return a, nil

	case input == "/settings":
		user := a.state.User()
		if user != nil {
			a.nameInput.SetValue(user.DisplayName)
			a.themeIdx = themeIndex(user.Theme)
		}
		a.view = viewSettings
		a.settingsFocus = 0
		a.confirmName = false
		a.composer.Blur()
		a.nameInput.Focus()
		return a, nil

	case input == "/logout":
		session, stream, rooms := a.session, a.stream, a.rooms
		return a, func() tea.Msg {
			stream.Close()
			rooms.Close()
			if err := session.SignOut(context.Background()); err != nil {
				return opDoneMsg{err: err}
			}
			return opDoneMsg{}
		}
	}

	if code, ok := trimCommand(input, "/join"); ok {
		rooms, stream := a.rooms, a.stream
		return a, func() tea.Msg {
			if err := rooms.Join(context.Background(), code); err != nil {
				return opDoneMsg{err: err}
			}
			normalized := strings.ToUpper(strings.TrimSpace(code))
			if err := stream.Select(context.Background(), normalized); err != nil {
				return opDoneMsg{err: err}
			}
			return opDoneMsg{notice: "Joined " + normalized}
		}
	}

	if name, ok := trimCommand(input, "/create"); ok {
		if name == "" {
			// Blocking prompt/retry: the command simply demands its argument.
			a.notice = "Usage: /create <room name>"
			return a, nil
		}
		rooms, stream := a.rooms, a.stream
		return a, func() tea.Msg {
			code, err := rooms.Create(context.Background(), name)
			if err != nil {
				return opDoneMsg{err: err}
			}
			if err := stream.Select(context.Background(), code); err != nil {
				return opDoneMsg{err: err}
			}
			return opDoneMsg{notice: fmt.Sprintf("Created %s — invite code %s", name, code)}
		}
	}

	if path, ok := trimCommand(input, "/attach"); ok {
		if a.uploading {
			a.notice = "An upload is already in progress."
			return a, nil
		}
		a.uploading = true
		stream := a.stream
		return a, func() tea.Msg {
			name, data, err := readAttachment(path)
			if err != nil {
				return attachDoneMsg{name: path, err: err}
			}
			err = stream.SendAttachment(context.Background(), name, data, nil)
			return attachDoneMsg{name: name, err: err}
		}
	}

	a.notice = "Unknown command. Try /help"
	return a, nil
}

func (a App) viewMain() string {
	user := a.state.User()
	if user == nil {
		return ""
	}
	pal := paletteFor(user.Theme)

	sidebar := a.renderSidebar(pal)
	chatPane := a.renderChatPane(pal)
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", chatPane)
	return body
}

func (a App) renderSidebar(pal palette) string {
	user := a.state.User()
	var b strings.Builder

	b.WriteString(pal.accentStyle().Render(truncate(user.DisplayName, sidebarWidth-2)) + "\n")
	handle := "@" + user.Handle
	if user.IsEphemeral {
		handle += " (guest)"
	}
	b.WriteString(pal.mutedStyle().Render(truncate(handle, sidebarWidth-2)) + "\n")
	b.WriteString(pal.borderStyle().Render(strings.Repeat("─", sidebarWidth)) + "\n")

	rooms := a.state.Rooms()
	current, _ := a.state.CurrentRoom()
	if len(rooms) == 0 {
		b.WriteString(pal.mutedStyle().Render("No rooms yet.") + "\n")
		b.WriteString(pal.mutedStyle().Render("/create or /join one!") + "\n")
	}
	for _, room := range rooms {
		label := "# " + truncate(room.Name, sidebarWidth-11) + " " + room.Code
		if room.Code == current {
			b.WriteString(pal.accentStyle().Render("> "+label) + "\n")
		} else {
			b.WriteString("  " + label + "\n")
		}
	}

	return lipgloss.NewStyle().Width(sidebarWidth).Height(a.height - 1).Render(b.String())
}

func (a App) renderChatPane(pal palette) string {
	_, room := a.state.CurrentRoom()
	header := pal.mutedStyle().Render("Select a room to start chatting")
	if room != nil {
		header = pal.accentStyle().Render("# "+room.Name) +
			pal.mutedStyle().Render(fmt.Sprintf("  code %s · %d members", room.Code, len(room.MemberIDs)))
	}

	status := a.notice
	if a.uploading {
		status = "Uploading..."
	}
	statusLine := pal.mutedStyle().Render(status)

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s",
		header,
		a.vp.View(),
		pal.borderStyle().Render(strings.Repeat("─", a.vp.Width)),
		a.composer.View(),
		statusLine,
	)
}

func truncate(s string, max int) string {
	if max < 1 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
