package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/corddisc/corddisc/backend"
	"github.com/corddisc/corddisc/chat"
)

type view int

const (
	viewLoading view = iota
	viewEntry
	viewMain
	viewSettings
)

type entryTab int

const (
	tabLogin entryTab = iota
	tabRegister
	tabGuest
)

// Messages delivered back into the program loop.
type (
	stateChangedMsg struct{}
	authDoneMsg     struct{ err error }
	sendDoneMsg     struct {
		body string
		err  error
	}
	opDoneMsg struct {
		notice string
		err    error
	}
	attachDoneMsg struct {
		name string
		err  error
	}
)

// App is the bubbletea model for the whole client.
type App struct {
	be      backend.Backend
	state   *chat.State
	session *chat.SessionManager
	rooms   *chat.RoomDirectory
	stream  *chat.MessageStream
	prefs   *chat.Preferences

	view   view
	width  int
	height int
	ready  bool

	dirStarted bool

	// entry view
	tab        entryTab
	username   textinput.Model
	password   textinput.Model
	guestName  textinput.Model
	entryFocus int
	authBusy   bool
	authErr    string

	// main view
	vp        viewport.Model
	composer  textinput.Model
	notice    string
	uploading bool

	// settings view
	nameInput     textinput.Model
	avatarInput   textinput.Model
	themeIdx      int
	settingsFocus int
	confirmName   bool
}

func newApp(be backend.Backend, state *chat.State) App {
	username := textinput.New()
	username.Placeholder = "Username"
	username.CharLimit = 32
	username.Focus()

	password := textinput.New()
	password.Placeholder = "Password"
	password.EchoMode = textinput.EchoPassword
	password.CharLimit = 64

	guest := textinput.New()
	guest.Placeholder = "Temporary guest name"
	guest.CharLimit = 32

	composer := textinput.New()
	composer.Placeholder = "Type a message, or /help"
	composer.CharLimit = 512

	name := textinput.New()
	name.Placeholder = "Display name"
	name.CharLimit = 32

	avatar := textinput.New()
	avatar.Placeholder = "Path to avatar image"
	avatar.CharLimit = 256

	return App{
		be:          be,
		state:       state,
		session:     chat.NewSessionManager(be, state),
		rooms:       chat.NewRoomDirectory(be, state),
		stream:      chat.NewMessageStream(be, state),
		prefs:       chat.NewPreferences(be, state),
		view:        viewLoading,
		username:    username,
		password:    password,
		guestName:   guest,
		composer:    composer,
		nameInput:   name,
		avatarInput: avatar,
	}
}

// shutdown releases every live subscription. Called after the program exits.
func (a App) shutdown() {
	a.stream.Close()
	a.rooms.Close()
	a.session.Close()
}

func (a App) listenState() tea.Cmd {
	st := a.state
	return func() tea.Msg {
		<-st.Changes()
		return stateChangedMsg{}
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, func() tea.Msg { return stateChangedMsg{} })
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		chatW, chatH := a.chatPaneSize()
		if !a.ready {
			a.vp = viewport.New(chatW, chatH)
			a.ready = true
		} else {
			a.vp.Width = chatW
			a.vp.Height = chatH
		}
		a.composer.Width = chatW - 4
		a.refreshViewport()
		return a, nil

	case stateChangedMsg:
		var cmd tea.Cmd
		a, cmd = a.syncSession()
		return a, tea.Batch(cmd, a.listenState())

	case authDoneMsg:
		a.authBusy = false
		if msg.err != nil {
			a.authErr = friendly(msg.err)
		} else {
			a.authErr = ""
		}
		return a, nil

	case sendDoneMsg:
		if msg.err != nil {
			// Restore the un-sent text so the user can resubmit, unless they
			// already started typing something else.
			if strings.TrimSpace(a.composer.Value()) == "" {
				a.composer.SetValue(msg.body)
			}
			a.notice = friendly(msg.err)
		}
		return a, nil

	case opDoneMsg:
		if msg.err != nil {
			a.notice = friendly(msg.err)
		} else {
			a.notice = msg.notice
		}
		return a, nil

	case attachDoneMsg:
		a.uploading = false
		if msg.err != nil {
			a.notice = friendly(msg.err)
		} else {
			a.notice = "Sent " + msg.name
		}
		return a, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}
		switch a.view {
		case viewEntry:
			return a.updateEntry(msg)
		case viewMain:
			return a.updateMain(msg)
		case viewSettings:
			return a.updateSettings(msg)
		}
		return a, nil
	}

	return a.updateInputs(msg)
}

// updateInputs forwards non-key messages (blink ticks) to whichever inputs
// are visible.
func (a App) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	switch a.view {
	case viewEntry:
		a.username, cmd = a.username.Update(msg)
		cmds = append(cmds, cmd)
		a.password, cmd = a.password.Update(msg)
		cmds = append(cmds, cmd)
		a.guestName, cmd = a.guestName.Update(msg)
		cmds = append(cmds, cmd)
	case viewMain:
		a.composer, cmd = a.composer.Update(msg)
		cmds = append(cmds, cmd)
		a.vp, cmd = a.vp.Update(msg)
		cmds = append(cmds, cmd)
	case viewSettings:
		a.nameInput, cmd = a.nameInput.Update(msg)
		cmds = append(cmds, cmd)
		a.avatarInput, cmd = a.avatarInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

// syncSession derives the visible view from the published session state and
// arms or tears down the room directory on transitions.
func (a App) syncSession() (App, tea.Cmd) {
	if !a.state.Resolved() {
		a.view = viewLoading
		return a, nil
	}
	user := a.state.User()
	if user == nil {
		if a.dirStarted {
			a.stream.Close()
			a.rooms.Close()
			a.dirStarted = false
		}
		if a.view != viewEntry {
			a.view = viewEntry
			a.entryFocus = 0
			a.authErr = ""
			a.username.Focus()
			a.password.Blur()
			a.guestName.Blur()
		}
		return a, nil
	}

	if !a.dirStarted {
		if err := a.rooms.Start(); err != nil {
			log.Printf("room directory: %v", err)
		} else {
			a.dirStarted = true
		}
	}
	if a.view == viewEntry || a.view == viewLoading {
		a.view = viewMain
		a.composer.Focus()
		a.nameInput.SetValue(user.DisplayName)
		a.themeIdx = themeIndex(user.Theme)
	}
	a.refreshViewport()
	return a, nil
}

func (a *App) refreshViewport() {
	if !a.ready {
		return
	}
	user := a.state.User()
	if user == nil {
		return
	}
	code, room := a.state.CurrentRoom()
	pal := paletteFor(user.Theme)
	content := renderMessages(a.state.Messages(), user.ID, pal, a.vp.Width)
	if code != "" && room == nil {
		content = pal.mutedStyle().Render(fmt.Sprintf("Room %s was not found.", code))
	}
	a.vp.SetContent(content)
	a.vp.GotoBottom()
}

func (a App) chatPaneSize() (int, int) {
	w := a.width - sidebarWidth - 3
	if w < 20 {
		w = 20
	}
	h := a.height - 4
	if h < 5 {
		h = 5
	}
	return w, h
}

// friendly maps operation errors onto the short notices the views show.
func friendly(err error) string {
	switch {
	case errors.Is(err, backend.ErrInvalidCredential):
		return "Invalid username or password."
	case errors.Is(err, backend.ErrAlreadyExists):
		return "That username is already registered."
	case errors.Is(err, backend.ErrNotFound):
		return "Room not found!"
	case errors.Is(err, backend.ErrAborted):
		return "Could not create room. Try again."
	case errors.Is(err, backend.ErrUploadFailed):
		return "Upload failed."
	case errors.Is(err, chat.ErrGuestNameTooShort):
		return "Guest name must be at least 3 characters."
	case errors.Is(err, chat.ErrInvalidCode):
		return "Codes are exactly 6 characters."
	case errors.Is(err, chat.ErrEmptyName):
		return "A name is required."
	case errors.Is(err, chat.ErrNoRoom):
		return "Select a room first."
	default:
		return err.Error()
	}
}

// readAttachment loads a local file for upload, returning its base name.
func readAttachment(path string) (string, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return filepath.Base(path), data, nil
}

func (a App) View() string {
	switch a.view {
	case viewLoading:
		return "\n  Connecting..."
	case viewEntry:
		return a.viewEntry()
	case viewSettings:
		return a.viewSettings()
	case viewMain:
		if !a.ready {
			return "\n  Initializing..."
		}
		return a.viewMain()
	}
	return ""
}

func trimCommand(input, prefix string) (string, bool) {
	if !strings.HasPrefix(input, prefix+" ") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(input, prefix+" ")), true
}
