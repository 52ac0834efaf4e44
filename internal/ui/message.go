package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/crate/internal/library"
	"github.com/desertthunder/crate/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg           = Msg{}
	_ library.Navigator = (*inbox)(nil)
	_ library.Notifier  = (*inbox)(nil)
)

const (
	MsgMounted MsgKind = iota
	MsgLoggedIn
	MsgRegistered
	MsgActionDone
	MsgCoverOpened
)

type loggedIn struct {
	session *models.Session
	err     error
}

type registered struct {
	email   string
	message string
	err     error
}

// mountedMsg is the constructor for [MsgMounted]
func mountedMsg(err error) Msg {
	return Msg{kind: MsgMounted, data: err}
}

// loggedInMsg is the constructor for [MsgLoggedIn]
func loggedInMsg(session *models.Session, err error) Msg {
	return Msg{kind: MsgLoggedIn, data: loggedIn{session, err}}
}

// registeredMsg is the constructor for [MsgRegistered]
func registeredMsg(email, message string, err error) Msg {
	return Msg{kind: MsgRegistered, data: registered{email, message, err}}
}

// actionDoneMsg is the constructor for [MsgActionDone]
func actionDoneMsg(err error) Msg {
	return Msg{kind: MsgActionDone, data: err}
}

// coverOpenedMsg is the constructor for [MsgCoverOpened]
func coverOpenedMsg(err error) Msg {
	return Msg{kind: MsgCoverOpened, data: err}
}

func (m Msg) err() error {
	switch d := m.data.(type) {
	case error:
		return d
	case loggedIn:
		return d.err
	case registered:
		return d.err
	default:
		return nil
	}
}

// inbox collects redirects and notifications raised while a command runs off the update loop.
//
// Update drains it once the command's message arrives.
type inbox struct {
	mu    sync.Mutex
	path  string
	notes []string
}

func (b *inbox) Redirect(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.path = path
}

func (b *inbox) Notify(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notes = append(b.notes, msg)
}

func (b *inbox) drain() (string, []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	path, notes := b.path, b.notes
	b.path, b.notes = "", nil
	return path, notes
}
