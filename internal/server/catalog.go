package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crate/internal/models"
	"github.com/desertthunder/crate/internal/shared"
)

const (
	defaultLimit = shared.DefaultPageSize
	maxLimit     = 100
)

// CatalogHandler serves the catalog, subscription and account endpoints. Implements [Handler].
type CatalogHandler struct {
	store  *Store
	tokens *TokenIssuer
	logger *log.Logger
}

// NewCatalogHandler creates a [CatalogHandler] over store, issuing tokens with tokens.
func NewCatalogHandler(store *Store, tokens *TokenIssuer, logger *log.Logger) *CatalogHandler {
	return &CatalogHandler{store: store, tokens: tokens, logger: shared.WithLogger(logger, "component", "catalog")}
}

// Routes returns the HTTP routes this handler serves.
func (h *CatalogHandler) Routes() []string {
	return []string{"/login", "/register", "/music", "/music/query", "/subscriptions", "/subscribe"}
}

func (h *CatalogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/login":
		h.only(http.MethodPost, h.login).ServeHTTP(w, r)
	case "/register":
		h.only(http.MethodPost, h.register).ServeHTTP(w, r)
	case "/music":
		h.tokens.RequireToken(h.only(http.MethodGet, h.listMusic)).ServeHTTP(w, r)
	case "/music/query":
		h.tokens.RequireToken(h.only(http.MethodGet, h.queryMusic)).ServeHTTP(w, r)
	case "/subscriptions":
		h.tokens.RequireToken(h.only(http.MethodGet, h.subscriptions)).ServeHTTP(w, r)
	case "/subscribe":
		h.tokens.RequireToken(h.only(http.MethodPost, h.subscribe)).ServeHTTP(w, r)
	default:
		writeMessage(w, http.StatusNotFound, "Not found")
	}
}

func (h *CatalogHandler) only(method string, fn http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		fn(w, r)
	})
}

func (h *CatalogHandler) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	user, err := h.store.Authenticate(body.Email, body.Password)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "Email or password is invalid"})
		return
	}

	token, err := h.tokens.Issue(user.Email)
	if err != nil {
		h.logger.Error("failed to issue token", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Could not issue token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
		"user":    user,
		"message": "Login successful",
	})
}

func (h *CatalogHandler) register(w http.ResponseWriter, r *http.Request) {
	var body models.Registration
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	_, err := h.store.Register(body)
	switch {
	case errors.Is(err, ErrUserExists):
		writeMessage(w, http.StatusConflict, "The email already exists")
	case errors.Is(err, ErrIncompleteSignup):
		writeMessage(w, http.StatusBadRequest, "Email, user name and password are required")
	case err != nil:
		h.logger.Error("registration failed", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Registration failed")
	default:
		writeMessage(w, http.StatusCreated, "Registration successful")
	}
}

func (h *CatalogHandler) listMusic(w http.ResponseWriter, r *http.Request) {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeMessage(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxLimit)
	}

	items, next, err := h.store.Page(limit, r.URL.Query().Get("last_evaluated_key"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items, "lastEvaluatedKey": next})
}

func (h *CatalogHandler) queryMusic(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	items := h.store.Query(models.SearchQuery{
		Title:  params.Get("title"),
		Artist: params.Get("artist"),
		Album:  params.Get("album"),
		Year:   params.Get("year"),
	})
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *CatalogHandler) subscriptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"albums": h.store.Subscriptions(Subject(r.Context()))})
}

func (h *CatalogHandler) subscribe(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CompositeID string `json:"composite_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	subscribed, err := h.store.Toggle(Subject(r.Context()), body.CompositeID)
	switch {
	case errors.Is(err, ErrMissingAlbumID):
		writeMessage(w, http.StatusBadRequest, "composite_id is required")
	case errors.Is(err, ErrUnknownAlbum):
		writeMessage(w, http.StatusNotFound, "Album not found")
	case err != nil:
		writeMessage(w, http.StatusInternalServerError, "Subscription update failed")
	case subscribed:
		writeMessage(w, http.StatusOK, "Subscribed successfully")
	default:
		writeMessage(w, http.StatusOK, "Unsubscribed successfully")
	}
}
