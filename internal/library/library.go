package library

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crate/internal/services"
	"github.com/desertthunder/crate/internal/shared"
)

// Navigation targets handed to a [Navigator].
const (
	LoginPath  = "/login"
	BrowsePath = "/welcome"
)

// Messages surfaced through a [Notifier].
const (
	MsgLoginAgain      = "Please log in again."
	MsgInvalidAlbum    = "Invalid album selection."
	MsgSessionExpired  = "Session expired. Please log in again."
	MsgSubscribeFailed = "Error updating subscription."
)

// Navigator moves the user between screens.
type Navigator interface {
	Redirect(path string)
}

// Notifier surfaces transient, user-visible messages.
type Notifier interface {
	Notify(msg string)
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(path string)

func (f NavigatorFunc) Redirect(path string) { f(path) }

// NotifierFunc adapts a function to [Notifier].
type NotifierFunc func(msg string)

func (f NotifierFunc) Notify(msg string) { f(msg) }

// Opts holds the collaborators shared by every browsing component.
type Opts struct {
	Catalog   services.Catalog
	Session   *SessionStore
	Navigator Navigator
	Notifier  Notifier
	Logger    *log.Logger
	PageSize  int
}

func (o Opts) withDefaults() Opts {
	if o.Navigator == nil {
		o.Navigator = NavigatorFunc(func(string) {})
	}
	if o.Notifier == nil {
		o.Notifier = NotifierFunc(func(string) {})
	}
	if o.Logger == nil {
		o.Logger = shared.NewLogger(io.Discard)
	}
	if o.PageSize <= 0 {
		o.PageSize = shared.DefaultPageSize
	}
	return o
}

// expire clears the session and sends the user to login. The returned error wraps both
// [shared.ErrSessionExpired] and cause.
func expire(ctx context.Context, session *SessionStore, nav Navigator, logger *log.Logger, cause error) error {
	if err := session.Clear(ctx); err != nil {
		logger.Error("failed to clear session", "err", err)
	}
	nav.Redirect(LoginPath)
	return fmt.Errorf("%w: %w", shared.ErrSessionExpired, cause)
}

// refuse redirects to login without issuing a request.
func refuse(nav Navigator) error {
	nav.Redirect(LoginPath)
	return shared.ErrNotAuthenticated
}
