package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/crate/internal/forms"
	"github.com/desertthunder/crate/internal/library"
	"github.com/desertthunder/crate/internal/models"
	"github.com/desertthunder/crate/internal/services"
	"github.com/desertthunder/crate/internal/shared"
)

// Screen is the screen currently rendered by the TUI.
type Screen int

const (
	LoadingScreen Screen = iota
	LoginScreen
	RegisterScreen
	BrowseScreen
	SearchScreen
)

// Opts holds the dependencies of a [Model].
type Opts struct {
	Catalog  services.Catalog
	Session  *library.SessionStore
	Logger   *log.Logger
	PageSize int
	Open     func(url string) error // defaults to [shared.OpenBrowser]
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	catalog services.Catalog
	session *library.SessionStore
	view    *library.ViewController
	box     *inbox
	open    func(string) error
	logger  *log.Logger

	screen  Screen
	busy    bool
	width   int
	height  int
	list    list.Model
	auth    fieldSet
	query   fieldSet
	errs    forms.Errors
	note    string
	failed  bool
	spinner spinner.Model
	help    help.Model
	keys    keyMap
}

// NewModel creates a TUI model whose browsing state lives in a [library.ViewController].
func NewModel(ctx context.Context, opts Opts) *Model {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if opts.Open == nil {
		opts.Open = shared.OpenBrowser
	}

	box := &inbox{}
	view := library.NewViewController(library.Opts{
		Catalog:   opts.Catalog,
		Session:   opts.Session,
		Navigator: box,
		Notifier:  box,
		Logger:    opts.Logger,
		PageSize:  opts.PageSize,
	})

	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Catalog"
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		ctx:     ctx,
		catalog: opts.Catalog,
		session: opts.Session,
		view:    view,
		box:     box,
		open:    opts.Open,
		logger:  shared.WithLogger(opts.Logger, "component", "tui"),
		screen:  LoadingScreen,
		list:    l,
		auth:    newLoginForm(),
		query:   newSearchForm(),
		errs:    forms.Errors{},
		spinner: sp,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Screen returns the screen being rendered.
func (m *Model) Screen() Screen { return m.screen }

// Library returns the view controller backing the browse screen.
func (m *Model) Library() *library.ViewController { return m.view }

// Init mounts the browsing view, which either shows the catalog or falls back to login.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.mount())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m, m.handle(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		switch m.screen {
		case LoginScreen, RegisterScreen:
			return m, m.handleAuthKeys(msg)
		case BrowseScreen:
			return m, m.handleBrowseKeys(msg)
		case SearchScreen:
			return m, m.handleSearchKeys(msg)
		}
	}

	return m, nil
}

// View renders the UI based on the current screen.
func (m *Model) View() string {
	var body string
	switch m.screen {
	case LoadingScreen:
		body = fmt.Sprintf("%s Loading…", m.spinner.View())
	case LoginScreen:
		body = m.renderAuth("Log in", "Don't have an account? ctrl+r to register.")
	case RegisterScreen:
		body = m.renderAuth("Create an account", "Already registered? ctrl+r to log in.")
	case BrowseScreen:
		body = m.renderBrowse()
	case SearchScreen:
		body = m.renderSearch()
	}
	return styles.frame.Render(body + m.renderStatus())
}

func (m *Model) handle(msg Msg) tea.Cmd {
	m.busy = false
	path, notes := m.box.drain()
	if len(notes) > 0 {
		m.notice(notes[len(notes)-1])
	}

	var next tea.Cmd
	switch msg.kind {
	case MsgMounted:
		err := msg.err()
		if m.view.State() == library.StateBrowsing {
			m.screen = BrowseScreen
			m.refresh()
		}
		if err != nil && !errors.Is(err, shared.ErrNotAuthenticated) && len(notes) == 0 {
			m.fail(err)
		}

	case MsgLoggedIn:
		if err := msg.err(); err != nil {
			m.logger.Warn("login failed", "err", err)
			m.fail(err)
			return nil
		}
		m.notice("Login successful")
		m.auth = newLoginForm()
		m.screen = LoadingScreen
		next = m.mount()

	case MsgRegistered:
		d := msg.data.(registered)
		if d.err != nil {
			m.logger.Warn("registration failed", "err", d.err)
			m.failText(registrationMessage(d.err))
			return nil
		}
		m.notice(d.message)
		m.screen = LoginScreen
		m.auth = newLoginForm()
		m.auth.set("email", d.email)
		m.auth.move(1)

	case MsgActionDone:
		if err := msg.err(); err != nil && len(notes) == 0 {
			m.fail(err)
		}
		m.refresh()

	case MsgCoverOpened:
		if err := msg.err(); err != nil {
			m.fail(err)
		}
	}

	if path == library.LoginPath || (m.screen != LoadingScreen && m.view.State() == library.StateUnauthenticated) {
		m.toLogin()
	}
	return next
}

func (m *Model) handleAuthKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.back):
		return tea.Quit
	case key.Matches(msg, m.keys.switchReg):
		m.errs = forms.Errors{}
		if m.screen == LoginScreen {
			m.screen = RegisterScreen
			m.auth = newRegisterForm()
		} else {
			m.screen = LoginScreen
			m.auth = newLoginForm()
		}
		return nil
	case key.Matches(msg, m.keys.submit):
		if m.screen == RegisterScreen {
			return m.register()
		}
		return m.login()
	case key.Matches(msg, m.keys.next):
		m.auth.move(1)
		return nil
	case key.Matches(msg, m.keys.prev):
		m.auth.move(-1)
		return nil
	}
	return m.auth.update(msg)
}

func (m *Model) handleBrowseKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.quit):
		return tea.Quit
	case key.Matches(msg, m.keys.toggle):
		return m.act(m.view.ToggleViewMode)
	case key.Matches(msg, m.keys.catalog):
		m.view.ShowCatalog()
		m.refresh()
		return nil
	case key.Matches(msg, m.keys.subscribe):
		album, ok := m.selected()
		if !ok {
			return nil
		}
		return m.act(func(ctx context.Context) error {
			return m.view.ToggleSubscription(ctx, album.CompositeID)
		})
	case key.Matches(msg, m.keys.more):
		if !m.view.HasMore() || m.view.Mode() != library.ModeCatalog {
			return nil
		}
		return m.act(m.view.LoadMore)
	case key.Matches(msg, m.keys.submit):
		if _, ok := m.list.SelectedItem().(moreItem); ok {
			return m.act(m.view.LoadMore)
		}
		return nil
	case key.Matches(msg, m.keys.search):
		m.screen = SearchScreen
		return nil
	case key.Matches(msg, m.keys.open):
		album, ok := m.selected()
		if !ok || album.ImageURL == "" {
			return nil
		}
		return func() tea.Msg { return coverOpenedMsg(m.open(album.ImageURL)) }
	case key.Matches(msg, m.keys.logout):
		return m.act(m.view.Logout)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return cmd
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.back):
		m.screen = BrowseScreen
		return nil
	case key.Matches(msg, m.keys.submit):
		q := models.SearchQuery{
			Title:  m.query.value("title"),
			Artist: m.query.value("artist"),
			Album:  m.query.value("album"),
			Year:   m.query.value("year"),
		}
		m.screen = BrowseScreen
		m.view.ShowCatalog()
		return m.act(func(ctx context.Context) error { return m.view.Search(ctx, q) })
	case key.Matches(msg, m.keys.next):
		m.query.move(1)
		return nil
	case key.Matches(msg, m.keys.prev):
		m.query.move(-1)
		return nil
	}
	return m.query.update(msg)
}

func (m *Model) mount() tea.Cmd {
	m.busy = true
	return tea.Batch(m.spinner.Tick, func() tea.Msg { return mountedMsg(m.view.Mount(m.ctx)) })
}

// act runs fn off the update loop and reports back with [MsgActionDone].
func (m *Model) act(fn func(context.Context) error) tea.Cmd {
	m.busy = true
	m.clearNote()
	return tea.Batch(m.spinner.Tick, func() tea.Msg { return actionDoneMsg(fn(m.ctx)) })
}

func (m *Model) login() tea.Cmd {
	form := forms.Login{Email: strings.TrimSpace(m.auth.value("email")), Password: m.auth.value("password")}
	if m.errs = form.Validate(); !m.errs.Valid() {
		return nil
	}

	m.busy = true
	m.clearNote()
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		session, err := m.catalog.Login(m.ctx, form.Email, form.Password)
		if err != nil {
			return loggedInMsg(nil, err)
		}
		if err := m.session.Save(m.ctx, *session); err != nil {
			return loggedInMsg(nil, err)
		}
		return loggedInMsg(session, nil)
	})
}

func (m *Model) register() tea.Cmd {
	form := forms.Register{
		Email:    strings.TrimSpace(m.auth.value("email")),
		UserName: strings.TrimSpace(m.auth.value("user_name")),
		Password: m.auth.value("password"),
	}
	if m.errs = form.Validate(); !m.errs.Valid() {
		return nil
	}

	m.busy = true
	m.clearNote()
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		message, err := m.catalog.Register(m.ctx, form.Registration())
		return registeredMsg(form.Email, message, err)
	})
}

// refresh rebuilds the list from the view controller.
func (m *Model) refresh() {
	more := m.view.Mode() == library.ModeCatalog && m.view.HasMore()
	m.list.SetItems(albumItems(m.view.Items(), m.view.IsSubscribed, more))
	if m.view.Mode() == library.ModeSubscriptions {
		m.list.Title = fmt.Sprintf("Subscriptions (%d)", m.view.Subscriptions().Len())
	} else {
		m.list.Title = "Catalog"
	}
}

func (m *Model) toLogin() {
	if m.screen == LoginScreen || m.screen == RegisterScreen {
		return
	}
	m.screen = LoginScreen
	m.auth = newLoginForm()
	m.query = newSearchForm()
	m.errs = forms.Errors{}
	m.list.SetItems(nil)
}

func (m *Model) selected() (models.Album, bool) {
	item, ok := m.list.SelectedItem().(albumItem)
	if !ok {
		return models.Album{}, false
	}
	return item.album, true
}

func (m *Model) notice(msg string) {
	m.note, m.failed = msg, false
}

func (m *Model) fail(err error) {
	m.failText(describe(err))
}

func (m *Model) failText(msg string) {
	m.note, m.failed = msg, true
}

func (m *Model) clearNote() {
	m.note, m.failed = "", false
}

// describe turns an error into the line shown to the user.
func describe(err error) string {
	switch {
	case errors.Is(err, shared.ErrSessionExpired):
		return library.MsgSessionExpired
	case errors.Is(err, shared.ErrNotAuthenticated):
		return library.MsgLoginAgain
	case errors.Is(err, shared.ErrAuthFailed):
		return strings.TrimPrefix(err.Error(), shared.ErrAuthFailed.Error()+": ")
	}
	if msg := services.ServerMessage(err); msg != "" {
		return msg
	}
	return err.Error()
}

func registrationMessage(err error) string {
	if msg := services.ServerMessage(err); msg != "" {
		return msg
	}
	return forms.RegisterFailedMessage
}

func (m *Model) renderAuth(title, hint string) string {
	return fmt.Sprintf("%s\n%s\n%s\n\n%s",
		styles.title.Render(title),
		m.auth.view(m.errs),
		styles.help.Render(hint),
		m.help.ShortHelpView(append(m.keys.formHelp(), m.keys.switchReg)),
	)
}

func (m *Model) renderBrowse() string {
	header := ""
	if s := m.view.Session(); s != nil && s.User.UserName != "" {
		header = styles.help.Render("Signed in as "+s.User.UserName) + "\n"
	}

	body := m.list.View()
	if len(m.list.Items()) == 0 {
		empty := "No albums found."
		if m.view.Mode() == library.ModeSubscriptions {
			empty = "You have no subscriptions yet."
		}
		body = styles.title.Render(m.list.Title) + "\n" + styles.warn.Render(empty)
	}

	return fmt.Sprintf("%s%s\n\n%s", header, body, m.help.ShortHelpView(m.keys.browseHelp()))
}

func (m *Model) renderSearch() string {
	return fmt.Sprintf("%s\n%s\n%s\n\n%s",
		styles.title.Render("Search the catalog"),
		m.query.view(nil),
		styles.help.Render("Leave every field blank to return to the full catalog."),
		m.help.ShortHelpView(m.keys.formHelp()),
	)
}

func (m *Model) renderStatus() string {
	var line string
	switch {
	case m.busy && m.screen != LoadingScreen:
		line = m.spinner.View() + " Working…"
	case m.note != "" && m.failed:
		line = styles.err.Render(m.note)
	case m.note != "":
		line = styles.ok.Render(m.note)
	}
	if line == "" {
		return ""
	}
	return "\n\n" + line
}
