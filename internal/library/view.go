package library

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crate/internal/models"
	"github.com/desertthunder/crate/internal/shared"
	"golang.org/x/sync/errgroup"
)

// ViewState is the lifecycle state of the browsing view.
type ViewState int

const (
	StateLoading ViewState = iota
	StateUnauthenticated
	StateBrowsing
)

func (s ViewState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateBrowsing:
		return "browsing"
	default:
		return fmt.Sprintf("ViewState(%d)", int(s))
	}
}

// ViewMode selects which list the view renders while browsing.
type ViewMode int

const (
	ModeCatalog ViewMode = iota
	ModeSubscriptions
)

func (m ViewMode) String() string {
	if m == ModeSubscriptions {
		return "subscriptions"
	}
	return "catalog"
}

// ViewController coordinates the browsing components for a single view.
type ViewController struct {
	session *SessionStore
	pager   *CatalogPager
	search  *SearchFilter
	subs    *SubscriptionStore
	nav     Navigator
	logger  *log.Logger

	mu    sync.RWMutex
	state ViewState
	mode  ViewMode
}

// NewViewController wires a pager, search filter and subscription store around opts.
func NewViewController(opts Opts) *ViewController {
	opts = opts.withDefaults()
	pager := NewCatalogPager(opts)
	return &ViewController{
		session: opts.Session,
		pager:   pager,
		search:  NewSearchFilter(pager, opts.Logger),
		subs:    NewSubscriptionStore(opts),
		nav:     opts.Navigator,
		logger:  shared.WithLogger(opts.Logger, "component", "view"),
		state:   StateLoading,
		mode:    ModeCatalog,
	}
}

// Mount loads the session and, when a token exists, fetches the first catalog page and the subscription set
// concurrently.
//
// Without a session it redirects to login and issues no request. A subscription failure that does not end
// the session still leaves the view browsing the catalog; its error is returned.
func (v *ViewController) Mount(ctx context.Context) error {
	v.setState(StateLoading)

	session, err := v.session.Load(ctx)
	if err != nil {
		v.logger.Error("failed to load session", "err", err)
		v.setState(StateUnauthenticated)
		v.nav.Redirect(LoginPath)
		return err
	}
	if !session.Authenticated() {
		v.setState(StateUnauthenticated)
		return refuse(v.nav)
	}

	var pageErr, subsErr error
	var g errgroup.Group
	g.Go(func() error {
		pageErr = v.pager.FetchFirstPage(ctx)
		return pageErr
	})
	g.Go(func() error {
		subsErr = v.subs.LoadAll(ctx)
		return subsErr
	})
	err = g.Wait()

	switch {
	case sessionLost(pageErr):
		v.discard()
		return pageErr
	case sessionLost(subsErr):
		v.discard()
		return subsErr
	}

	v.mu.Lock()
	v.state = StateBrowsing
	v.mode = ModeCatalog
	v.mu.Unlock()

	v.logger.Debug("mounted", "user", session.User.UserName, "items", len(v.pager.Items()), "subscriptions", v.subs.Len())
	return err
}

// ToggleViewMode flips between the catalog and the subscription list.
//
// Entering the subscription list reloads it. Returning to the catalog does not refetch.
func (v *ViewController) ToggleViewMode(ctx context.Context) error {
	v.mu.Lock()
	if v.mode == ModeCatalog {
		v.mode = ModeSubscriptions
	} else {
		v.mode = ModeCatalog
	}
	mode := v.mode
	v.mu.Unlock()

	if mode != ModeSubscriptions {
		return nil
	}
	return v.observe(v.subs.LoadAll(ctx))
}

// ShowCatalog switches to the catalog list without refetching.
func (v *ViewController) ShowCatalog() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mode = ModeCatalog
}

// Logout clears the session, drops every loaded list and redirects to login.
func (v *ViewController) Logout(ctx context.Context) error {
	err := v.session.Clear(ctx)
	v.pager.Reset()
	v.subs.Reset()

	v.mu.Lock()
	v.state = StateUnauthenticated
	v.mode = ModeCatalog
	v.mu.Unlock()

	v.nav.Redirect(LoginPath)
	return err
}

// Items returns the albums for the current mode.
func (v *ViewController) Items() []models.Album {
	if v.Mode() == ModeSubscriptions {
		return v.subs.Items()
	}
	return v.pager.Items()
}

// Search runs a filtered query into the catalog list.
func (v *ViewController) Search(ctx context.Context, q models.SearchQuery) error {
	return v.observe(v.search.Search(ctx, q))
}

// LoadMore appends the next catalog page, if any.
func (v *ViewController) LoadMore(ctx context.Context) error {
	return v.observe(v.pager.FetchNextPage(ctx))
}

// ToggleSubscription flips the subscription for id.
func (v *ViewController) ToggleSubscription(ctx context.Context, id string) error {
	return v.observe(v.subs.Toggle(ctx, id))
}

// IsSubscribed reports whether id is in the confirmed subscription set.
func (v *ViewController) IsSubscribed(id string) bool {
	return v.subs.IsSubscribed(id)
}

// HasMore reports whether the catalog has another page.
func (v *ViewController) HasMore() bool {
	return v.pager.HasMore()
}

func (v *ViewController) State() ViewState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

func (v *ViewController) Mode() ViewMode {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.mode
}

// Session returns the current session, or nil.
func (v *ViewController) Session() *models.Session {
	return v.session.Session()
}

func (v *ViewController) Pager() *CatalogPager { return v.pager }

func (v *ViewController) Subscriptions() *SubscriptionStore { return v.subs }

func (v *ViewController) setState(s ViewState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = s
}

// discard drops whatever either half of a mount loaded once the session is gone.
func (v *ViewController) discard() {
	v.pager.Reset()
	v.subs.Reset()
	v.setState(StateUnauthenticated)
}

// observe moves the view to unauthenticated when err means the session is gone.
func (v *ViewController) observe(err error) error {
	if sessionLost(err) {
		v.setState(StateUnauthenticated)
	}
	return err
}

func sessionLost(err error) bool {
	return errors.Is(err, shared.ErrSessionExpired) || errors.Is(err, shared.ErrNotAuthenticated)
}
