package library

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crate/internal/models"
	"github.com/desertthunder/crate/internal/services"
	"github.com/desertthunder/crate/internal/shared"
)

// SubscriptionStore holds the subscription set confirmed by the last successful load.
//
// Toggles are never applied locally; membership changes only when [SubscriptionStore.LoadAll] succeeds.
type SubscriptionStore struct {
	catalog  services.Catalog
	session  *SessionStore
	nav      Navigator
	notifier Notifier
	logger   *log.Logger

	mu    sync.RWMutex
	set   models.SubscriptionSet
	items []models.Album
}

// NewSubscriptionStore creates an empty [SubscriptionStore].
func NewSubscriptionStore(opts Opts) *SubscriptionStore {
	opts = opts.withDefaults()
	return &SubscriptionStore{
		catalog:  opts.Catalog,
		session:  opts.Session,
		nav:      opts.Navigator,
		notifier: opts.Notifier,
		logger:   shared.WithLogger(opts.Logger, "component", "subscriptions"),
		set:      models.SubscriptionSet{},
	}
}

// LoadAll replaces the set with the server's full subscription list.
//
// A 401 clears the session and redirects. Any other failure leaves the set as it was.
func (s *SubscriptionStore) LoadAll(ctx context.Context) error {
	token := s.session.Token()
	if token == "" {
		return refuse(s.nav)
	}

	albums, err := s.catalog.ListSubscriptions(ctx, token)
	if err != nil {
		if services.IsUnauthorized(err) {
			return expire(ctx, s.session, s.nav, s.logger, err)
		}
		s.logger.Warn("failed to load subscriptions", "err", err)
		return fmt.Errorf("failed to load subscriptions: %w", err)
	}

	s.mu.Lock()
	s.set = models.NewSubscriptionSet(albums)
	s.items = albums
	s.mu.Unlock()

	s.logger.Debug("subscriptions loaded", "count", len(albums))
	return nil
}

// IsSubscribed reports whether id was in the last confirmed load.
func (s *SubscriptionStore) IsSubscribed(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.Has(id)
}

// Items returns a copy of the subscribed albums.
func (s *SubscriptionStore) Items() []models.Album {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Album(nil), s.items...)
}

// Len returns the number of subscribed albums.
func (s *SubscriptionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.Len()
}

// Toggle asks the server to flip the subscription for id, then reloads the set.
func (s *SubscriptionStore) Toggle(ctx context.Context, id string) error {
	token := s.session.Token()
	if token == "" {
		s.notifier.Notify(MsgLoginAgain)
		return refuse(s.nav)
	}

	if id == "" {
		s.notifier.Notify(MsgInvalidAlbum)
		return fmt.Errorf("%w: empty composite id", shared.ErrInvalidInput)
	}

	msg, err := s.catalog.ToggleSubscription(ctx, token, id)
	if err != nil {
		if services.IsUnauthorized(err) {
			s.notifier.Notify(MsgSessionExpired)
			return expire(ctx, s.session, s.nav, s.logger, err)
		}
		s.logger.Error("subscription toggle failed", "composite_id", id, "err", err)
		s.notifier.Notify(MsgSubscribeFailed)
		return fmt.Errorf("%w: %w", shared.ErrSubscriptionAction, err)
	}

	if msg != "" {
		s.notifier.Notify(msg)
	}
	s.logger.Debug("subscription toggled", "composite_id", id, "message", msg)
	return s.LoadAll(ctx)
}

// Reset drops the loaded set.
func (s *SubscriptionStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set = models.SubscriptionSet{}
	s.items = nil
}
