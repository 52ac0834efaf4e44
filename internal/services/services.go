// package services defines the catalog service interface and its HTTP client
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/crate/internal/models"
	"github.com/desertthunder/crate/internal/shared"
)

// Catalog defines the operations the client performs against the music catalog service.
type Catalog interface {
	// ListMusic fetches up to limit albums starting after cursor. A nil cursor requests the first page.
	ListMusic(ctx context.Context, token string, limit int, cursor *models.Cursor) (*models.CatalogPage, error)

	// QueryMusic fetches albums matching the non-blank fields of q.
	QueryMusic(ctx context.Context, token string, q models.SearchQuery) (*models.CatalogPage, error)

	// ListSubscriptions fetches every album the user is subscribed to.
	ListSubscriptions(ctx context.Context, token string) ([]models.Album, error)

	// ToggleSubscription flips the subscription for compositeID and returns the server's message.
	ToggleSubscription(ctx context.Context, token, compositeID string) (string, error)

	// Login exchanges credentials for a session.
	Login(ctx context.Context, email, password string) (*models.Session, error)

	// Register creates an account and returns the server's message.
	Register(ctx context.Context, req models.Registration) (string, error)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("catalog API error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("catalog API error: status %d", e.StatusCode)
}

// Unwrap maps 401 to [shared.ErrUnauthorized] and everything else to [shared.ErrAPIRequest].
func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return shared.ErrUnauthorized
	}
	return shared.ErrAPIRequest
}

// IsUnauthorized reports whether err is a 401 from the catalog service.
func IsUnauthorized(err error) bool {
	return errors.Is(err, shared.ErrUnauthorized)
}

// ServerMessage returns the server-provided message carried by err, if any.
func ServerMessage(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Message
	}
	return ""
}
