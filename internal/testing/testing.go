// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"
	"testing"

	"github.com/desertthunder/crate/internal/models"
	"github.com/desertthunder/crate/internal/repositories"
)

// MockCatalog is a test double for [services.Catalog].
//
// Unset funcs answer with empty successful responses. Calls are counted per method.
type MockCatalog struct {
	ListMusicFunc          func(ctx context.Context, token string, limit int, cursor *models.Cursor) (*models.CatalogPage, error)
	QueryMusicFunc         func(ctx context.Context, token string, q models.SearchQuery) (*models.CatalogPage, error)
	ListSubscriptionsFunc  func(ctx context.Context, token string) ([]models.Album, error)
	ToggleSubscriptionFunc func(ctx context.Context, token, compositeID string) (string, error)
	LoginFunc              func(ctx context.Context, email, password string) (*models.Session, error)
	RegisterFunc           func(ctx context.Context, req models.Registration) (string, error)

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockCatalog) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
}

// Calls returns how many times the named method was invoked.
func (m *MockCatalog) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *MockCatalog) ListMusic(ctx context.Context, token string, limit int, cursor *models.Cursor) (*models.CatalogPage, error) {
	m.record("ListMusic")
	if m.ListMusicFunc != nil {
		return m.ListMusicFunc(ctx, token, limit, cursor)
	}
	return &models.CatalogPage{Items: []models.Album{}}, nil
}

func (m *MockCatalog) QueryMusic(ctx context.Context, token string, q models.SearchQuery) (*models.CatalogPage, error) {
	m.record("QueryMusic")
	if m.QueryMusicFunc != nil {
		return m.QueryMusicFunc(ctx, token, q)
	}
	return &models.CatalogPage{Items: []models.Album{}}, nil
}

func (m *MockCatalog) ListSubscriptions(ctx context.Context, token string) ([]models.Album, error) {
	m.record("ListSubscriptions")
	if m.ListSubscriptionsFunc != nil {
		return m.ListSubscriptionsFunc(ctx, token)
	}
	return []models.Album{}, nil
}

func (m *MockCatalog) ToggleSubscription(ctx context.Context, token, compositeID string) (string, error) {
	m.record("ToggleSubscription")
	if m.ToggleSubscriptionFunc != nil {
		return m.ToggleSubscriptionFunc(ctx, token, compositeID)
	}
	return "ok", nil
}

func (m *MockCatalog) Login(ctx context.Context, email, password string) (*models.Session, error) {
	m.record("Login")
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return &models.Session{Token: "mock-token", User: models.User{Email: email}}, nil
}

func (m *MockCatalog) Register(ctx context.Context, req models.Registration) (string, error) {
	m.record("Register")
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, req)
	}
	return "Registered", nil
}

// MemoryKV is an in-memory key-value store with the same contract as [repositories.KVRepository].
type MemoryKV struct {
	mu      sync.Mutex
	values  map[string]string
	SetErr  error // returned by SetMany when non-nil
	Deletes int
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", repositories.ErrNotFound, key)
	}
	return v, nil
}

func (m *MemoryKV) SetMany(ctx context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

func (m *MemoryKV) DeleteMany(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deletes++
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

// Keys lists stored keys in ascending order.
func (m *MemoryKV) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RecordingNavigator records every redirect target.
type RecordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *RecordingNavigator) Redirect(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *RecordingNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

// Last returns the most recent redirect target, or "".
func (n *RecordingNavigator) Last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.paths) == 0 {
		return ""
	}
	return n.paths[len(n.paths)-1]
}

// RecordingNotifier records every notification.
type RecordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *RecordingNotifier) Notify(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
}

func (n *RecordingNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
