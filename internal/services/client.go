// HTTP implementation of [Catalog]
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crate/internal/models"
	"github.com/desertthunder/crate/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const defaultBaseURL string = "http://127.0.0.1:5000"

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 4096

var _ Catalog = (*Client)(nil)

// Client implements [Catalog] over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// ClientOpts contains configuration options for creating a Client.
type ClientOpts struct {
	BaseURL    string
	HTTPClient *http.Client
	RateLimit  float64 // Requests per second; zero disables pacing
	Burst      int
	Logger     *log.Logger
}

// NewClient creates a new catalog client.
func NewClient(opts ClientOpts) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		limiter:    limiter,
		logger:     shared.WithLogger(opts.Logger, "component", "client"),
	}
}

// NewClientFromConfig creates a client from the [api] config section.
func NewClientFromConfig(cfg shared.APIConfig, logger *log.Logger) *Client {
	return NewClient(ClientOpts{
		BaseURL:    cfg.BaseURL,
		HTTPClient: &http.Client{Timeout: cfg.Timeout()},
		RateLimit:  cfg.RateLimit,
		Burst:      cfg.Burst,
		Logger:     logger,
	})
}

// BaseURL returns the service root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// bearer returns an [http.Client] that attaches token as a bearer credential.
func (c *Client) bearer(token string) *http.Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	return &http.Client{
		Transport:     &oauth2.Transport{Source: src, Base: c.httpClient.Transport},
		Timeout:       c.httpClient.Timeout,
		CheckRedirect: c.httpClient.CheckRedirect,
		Jar:           c.httpClient.Jar,
	}
}

// do sends a request and decodes a 2xx JSON body into result.
//
// An empty token sends the request without credentials.
func (c *Client) do(ctx context.Context, token, method, endpoint string, body, result any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrTransport, err)
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := shared.GenerateID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := c.httpClient
	if token != "" {
		client = c.bearer(token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", endpoint, "request_id", requestID, "err", err)
		return fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("request complete",
		"method", method, "path", endpoint, "status", resp.StatusCode,
		"request_id", requestID, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}

	if result == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrDecode, err)
	}

	return nil
}

// errorMessage extracts a human-readable message from an error body.
func errorMessage(raw []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		for _, s := range []string{payload.Message, payload.Error, payload.Detail} {
			if s != "" {
				return s
			}
		}
	}
	return strings.TrimSpace(string(raw))
}

type pageResponse struct {
	Items            []models.Album  `json:"items"`
	LastEvaluatedKey json.RawMessage `json:"lastEvaluatedKey"`
}

func (p pageResponse) page() *models.CatalogPage {
	items := p.Items
	if items == nil {
		items = []models.Album{}
	}
	return &models.CatalogPage{Items: items, Cursor: models.NewCursor(p.LastEvaluatedKey)}
}

// ListMusic fetches one catalog page.
//
// Calls GET /music?limit={limit}[&last_evaluated_key={cursor}].
func (c *Client) ListMusic(ctx context.Context, token string, limit int, cursor *models.Cursor) (*models.CatalogPage, error) {
	endpoint := "/music?limit=" + strconv.Itoa(limit)
	if cursor != nil {
		endpoint += "&last_evaluated_key=" + cursor.Encode()
	}

	var resp pageResponse
	if err := c.do(ctx, token, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	return resp.page(), nil
}

// QueryMusic runs a filtered catalog search.
//
// Calls GET /music/query with only the non-blank fields. The service answers with either {items} or a bare array.
func (c *Client) QueryMusic(ctx context.Context, token string, q models.SearchQuery) (*models.CatalogPage, error) {
	endpoint := "/music/query"
	if params := q.Values(); len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var raw json.RawMessage
	if err := c.do(ctx, token, http.MethodGet, endpoint, nil, &raw); err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []models.Album
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrDecode, err)
		}
		return pageResponse{Items: items}.page(), nil
	}

	var resp pageResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrDecode, err)
	}
	return resp.page(), nil
}

// ListSubscriptions fetches the user's full subscription list.
//
// Calls GET /subscriptions.
func (c *Client) ListSubscriptions(ctx context.Context, token string) ([]models.Album, error) {
	var resp struct {
		Albums []models.Album `json:"albums"`
	}
	if err := c.do(ctx, token, http.MethodGet, "/subscriptions", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Albums == nil {
		return []models.Album{}, nil
	}
	return resp.Albums, nil
}

// ToggleSubscription flips the subscription state of one album. The server decides the direction.
//
// Calls POST /subscribe.
func (c *Client) ToggleSubscription(ctx context.Context, token, compositeID string) (string, error) {
	body := struct {
		CompositeID string `json:"composite_id"`
	}{CompositeID: compositeID}

	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, token, http.MethodPost, "/subscribe", body, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Login exchanges credentials for a session.
//
// Calls POST /login. A 2xx response with success=false is reported as [shared.ErrAuthFailed].
func (c *Client) Login(ctx context.Context, email, password string) (*models.Session, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var resp struct {
		Success bool        `json:"success"`
		Token   string      `json:"token"`
		User    models.User `json:"user"`
		Message string      `json:"message"`
	}
	if err := c.do(ctx, "", http.MethodPost, "/login", body, &resp); err != nil {
		return nil, err
	}

	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "Login failed"
		}
		return nil, fmt.Errorf("%w: %s", shared.ErrAuthFailed, msg)
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("%w: login response has no token", shared.ErrDecode)
	}

	return &models.Session{Token: resp.Token, User: resp.User}, nil
}

// Register creates a new account.
//
// Calls POST /register.
func (c *Client) Register(ctx context.Context, req models.Registration) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, "", http.MethodPost, "/register", req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}
