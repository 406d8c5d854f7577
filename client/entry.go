package main

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	entryTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3B82F6"))
	entryErrStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	entryHintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	tabActiveStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	tabIdleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

func (a App) updateEntry(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return a, tea.Quit

	case tea.KeyCtrlG:
		if a.tab == tabGuest {
			a.tab = tabLogin
		} else {
			a.tab = tabGuest
		}
		a.authErr = ""
		a = a.focusEntryField(0)
		return a, nil

	case tea.KeyCtrlR:
		if a.tab == tabRegister {
			a.tab = tabLogin
		} else {
			a.tab = tabRegister
		}
		a.authErr = ""
		a = a.focusEntryField(0)
		return a, nil

	case tea.KeyTab, tea.KeyShiftTab, tea.KeyDown, tea.KeyUp:
		if a.tab == tabGuest {
			return a, nil // single field
		}
		a = a.focusEntryField((a.entryFocus + 1) % 2)
		return a, nil

	case tea.KeyEnter:
		if a.authBusy {
			return a, nil
		}
		return a.submitEntry()
	}

	var cmd tea.Cmd
	switch {
	case a.tab == tabGuest:
		a.guestName, cmd = a.guestName.Update(msg)
	case a.entryFocus == 0:
		a.username, cmd = a.username.Update(msg)
	default:
		a.password, cmd = a.password.Update(msg)
	}
	return a, cmd
}

func (a App) focusEntryField(idx int) App {
	a.entryFocus = idx
	a.username.Blur()
	a.password.Blur()
	a.guestName.Blur()
	if a.tab == tabGuest {
		a.guestName.Focus()
		return a
	}
	if idx == 0 {
		a.username.Focus()
	} else {
		a.password.Focus()
	}
	return a
}

func (a App) submitEntry() (tea.Model, tea.Cmd) {
	session := a.session
	switch a.tab {
	case tabGuest:
		name := a.guestName.Value()
		a.authBusy = true
		return a, func() tea.Msg {
			return authDoneMsg{err: session.SignInGuest(context.Background(), name)}
		}
	case tabRegister:
		username, password := a.username.Value(), a.password.Value()
		a.authBusy = true
		return a, func() tea.Msg {
			return authDoneMsg{err: session.SignUp(context.Background(), username, password)}
		}
	default:
		username, password := a.username.Value(), a.password.Value()
		a.authBusy = true
		return a, func() tea.Msg {
			return authDoneMsg{err: session.SignIn(context.Background(), username, password)}
		}
	}
}

func (a App) viewEntry() string {
	var b strings.Builder

	b.WriteString("\n  " + entryTitleStyle.Render("corddisc") + "\n")
	b.WriteString("  " + entryHintStyle.Render("The lightweight real-time chat.") + "\n\n")

	tabs := make([]string, 3)
	for i, label := range []string{"Login", "Register", "Guest"} {
		if entryTab(i) == a.tab {
			tabs[i] = tabActiveStyle.Render(label)
		} else {
			tabs[i] = tabIdleStyle.Render(label)
		}
	}
	b.WriteString("  " + strings.Join(tabs, "  ") + "\n\n")

	if a.tab == tabGuest {
		b.WriteString("  " + a.guestName.View() + "\n")
	} else {
		b.WriteString("  " + a.username.View() + "\n")
		b.WriteString("  " + a.password.View() + "\n")
	}

	if a.authErr != "" {
		b.WriteString("\n  " + entryErrStyle.Render(a.authErr) + "\n")
	}
	if a.authBusy {
		b.WriteString("\n  Processing...\n")
	}

	b.WriteString("\n  " + entryHintStyle.Render("enter: submit · ctrl+r: login/register · ctrl+g: guest · esc: quit") + "\n")
	return b.String()
}
