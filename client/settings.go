package main

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/corddisc/corddisc/model"
)

const (
	settingsName = iota
	settingsTheme
	settingsAvatar
)

func themeIndex(t model.Theme) int {
	for i, known := range model.Themes {
		if known == t {
			return i
		}
	}
	return 0
}

func (a App) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		a.view = viewMain
		a.confirmName = false
		a.nameInput.Blur()
		a.avatarInput.Blur()
		a.composer.Focus()
		return a, nil

	case tea.KeyTab, tea.KeyShiftTab:
		step := 1
		if msg.Type == tea.KeyShiftTab {
			step = 2 // modulo 3, one backwards
		}
		a.settingsFocus = (a.settingsFocus + step) % 3
		a.confirmName = false
		a.nameInput.Blur()
		a.avatarInput.Blur()
		switch a.settingsFocus {
		case settingsName:
			a.nameInput.Focus()
		case settingsAvatar:
			a.avatarInput.Focus()
		}
		return a, nil

	case tea.KeyLeft, tea.KeyRight:
		if a.settingsFocus != settingsTheme {
			break
		}
		step := 1
		if msg.Type == tea.KeyLeft {
			step = len(model.Themes) - 1
		}
		a.themeIdx = (a.themeIdx + step) % len(model.Themes)
		theme := model.Themes[a.themeIdx]
		prefs := a.prefs
		// Theme applies immediately, no confirmation step.
		return a, func() tea.Msg {
			if err := prefs.UpdateTheme(context.Background(), theme); err != nil {
				return opDoneMsg{err: err}
			}
			return opDoneMsg{}
		}

	case tea.KeyEnter:
		switch a.settingsFocus {
		case settingsName:
			// Display-name changes require an explicit confirmation.
			if !a.confirmName {
				a.confirmName = true
				a.notice = "Press enter again to confirm the name change."
				return a, nil
			}
			a.confirmName = false
			a.notice = ""
			name := a.nameInput.Value()
			prefs := a.prefs
			return a, func() tea.Msg {
				if err := prefs.UpdateDisplayName(context.Background(), name); err != nil {
					return opDoneMsg{err: err}
				}
				return opDoneMsg{notice: "Display name saved."}
			}
		case settingsAvatar:
			path := strings.TrimSpace(a.avatarInput.Value())
			if path == "" {
				a.notice = "Enter a path to an image file."
				return a, nil
			}
			prefs := a.prefs
			return a, func() tea.Msg {
				_, data, err := readAttachment(path)
				if err != nil {
					return opDoneMsg{err: err}
				}
				if err := prefs.UpdateAvatar(context.Background(), data); err != nil {
					return opDoneMsg{err: err}
				}
				return opDoneMsg{notice: "Avatar updated."}
			}
		}
		return a, nil
	}

	var cmd tea.Cmd
	switch a.settingsFocus {
	case settingsName:
		a.nameInput, cmd = a.nameInput.Update(msg)
	case settingsAvatar:
		a.avatarInput, cmd = a.avatarInput.Update(msg)
	}
	return a, cmd
}

func (a App) viewSettings() string {
	user := a.state.User()
	if user == nil {
		return ""
	}
	pal := paletteFor(user.Theme)

	focusMark := func(section int) string {
		if a.settingsFocus == section {
			return pal.accentStyle().Render("> ")
		}
		return "  "
	}

	var b strings.Builder
	b.WriteString("\n  " + pal.accentStyle().Render("Settings") + "\n\n")

	b.WriteString("  " + focusMark(settingsName) + "Display name\n")
	b.WriteString("    " + a.nameInput.View() + "\n\n")

	b.WriteString("  " + focusMark(settingsTheme) + "Theme\n    ")
	for i, theme := range model.Themes {
		swatch := lipgloss.NewStyle().Foreground(palettes[theme].accent).Render("●")
		if i == a.themeIdx {
			swatch = lipgloss.NewStyle().Foreground(palettes[theme].accent).Bold(true).Render("[●]")
		}
		b.WriteString(swatch + " ")
	}
	b.WriteString("\n    " + pal.mutedStyle().Render(string(model.Themes[a.themeIdx])) + "\n\n")

	b.WriteString("  " + focusMark(settingsAvatar) + "Avatar\n")
	b.WriteString("    " + a.avatarInput.View() + "\n")
	if user.AvatarRef != "" {
		b.WriteString("    " + pal.mutedStyle().Render("current: "+user.AvatarRef) + "\n")
	}

	if a.notice != "" {
		b.WriteString("\n  " + pal.mutedStyle().Render(a.notice) + "\n")
	}

	b.WriteString("\n  " + pal.mutedStyle().Render("tab: next field · ←/→: theme · enter: apply · esc: back") + "\n")
	return b.String()
}
