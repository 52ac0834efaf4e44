package server

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/desertthunder/crate/internal/models"
	"golang.org/x/crypto/bcrypt"
)

//go:embed fixtures/albums.json
var fixtureAlbums []byte

var (
	ErrUserExists       = fmt.Errorf("email already exists")
	ErrBadCredentials   = fmt.Errorf("email or password is invalid")
	ErrUnknownAlbum     = fmt.Errorf("album not found")
	ErrMalformedCursor  = fmt.Errorf("malformed last_evaluated_key")
	ErrMissingAlbumID   = fmt.Errorf("composite_id is required")
	ErrIncompleteSignup = fmt.Errorf("email, user_name and password are required")
)

type account struct {
	user models.User
	hash []byte
}

// Store is the in-memory state of the mock catalog service.
//
// Albums are kept sorted by composite id, which doubles as the pagination key.
type Store struct {
	mu       sync.RWMutex
	albums   []models.Album
	index    map[string]int
	accounts map[string]account
	subs     map[string]map[string]struct{}
}

// NewStore creates a store holding albums.
func NewStore(albums []models.Album) *Store {
	sorted := append([]models.Album(nil), albums...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CompositeID < sorted[j].CompositeID })

	index := make(map[string]int, len(sorted))
	for i, a := range sorted {
		index[a.CompositeID] = i
	}

	return &Store{
		albums:   sorted,
		index:    index,
		accounts: make(map[string]account),
		subs:     make(map[string]map[string]struct{}),
	}
}

// NewFixtureStore creates a store seeded with the embedded album fixtures.
func NewFixtureStore() (*Store, error) {
	var albums []models.Album
	if err := json.Unmarshal(fixtureAlbums, &albums); err != nil {
		return nil, fmt.Errorf("failed to parse album fixtures: %w", err)
	}
	return NewStore(albums), nil
}

// Register creates an account. Emails are unique.
func (s *Store) Register(reg models.Registration) (models.User, error) {
	if reg.Email == "" || reg.UserName == "" || reg.Password == "" {
		return models.User{}, ErrIncompleteSignup
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.MinCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(reg.Email)
	if _, ok := s.accounts[key]; ok {
		return models.User{}, ErrUserExists
	}

	user := models.User{Email: reg.Email, UserName: reg.UserName}
	s.accounts[key] = account{user: user, hash: hash}
	return user, nil
}

// Authenticate checks credentials and returns the account's profile.
func (s *Store) Authenticate(email, password string) (models.User, error) {
	s.mu.RLock()
	acct, ok := s.accounts[strings.ToLower(email)]
	s.mu.RUnlock()

	if !ok || bcrypt.CompareHashAndPassword(acct.hash, []byte(password)) != nil {
		return models.User{}, ErrBadCredentials
	}
	return acct.user, nil
}

// pageKey is the cursor shape issued by [Store.Page].
type pageKey struct {
	CompositeID string `json:"composite_id"`
}

// Page returns up to limit albums after the album named by after (raw JSON, may be empty).
//
// The returned cursor is nil once the last album has been served.
func (s *Store) Page(limit int, after string) ([]models.Album, *pageKey, error) {
	var key pageKey
	if after != "" {
		if err := json.Unmarshal([]byte(after), &key); err != nil || key.CompositeID == "" {
			return nil, nil, ErrMalformedCursor
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if key.CompositeID != "" {
		start = sort.Search(len(s.albums), func(i int) bool { return s.albums[i].CompositeID > key.CompositeID })
	}

	end := min(start+limit, len(s.albums))
	if start >= end {
		return []models.Album{}, nil, nil
	}

	items := append([]models.Album(nil), s.albums[start:end]...)
	if end == len(s.albums) {
		return items, nil, nil
	}
	return items, &pageKey{CompositeID: items[len(items)-1].CompositeID}, nil
}

// Query returns albums whose title, artist and album contain the given values (case-insensitive) and whose
// year matches exactly. Blank fields match everything.
func (s *Store) Query(q models.SearchQuery) []models.Album {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contains := func(field, want string) bool {
		want = strings.TrimSpace(want)
		return want == "" || strings.Contains(strings.ToLower(field), strings.ToLower(want))
	}

	out := []models.Album{}
	for _, a := range s.albums {
		if !contains(a.Title, q.Title) || !contains(a.Artist, q.Artist) || !contains(a.Album, q.Album) {
			continue
		}
		if y := strings.TrimSpace(q.Year); y != "" && a.Year.String() != y {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Subscriptions returns the albums email is subscribed to, in catalog order.
func (s *Store) Subscriptions(email string) []models.Album {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.subs[strings.ToLower(email)]
	out := make([]models.Album, 0, len(set))
	for _, a := range s.albums {
		if _, ok := set[a.CompositeID]; ok {
			out = append(out, a)
		}
	}
	return out
}

// Toggle flips email's subscription to id and reports whether it is now subscribed.
func (s *Store) Toggle(email, id string) (bool, error) {
	if id == "" {
		return false, ErrMissingAlbumID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[id]; !ok {
		return false, ErrUnknownAlbum
	}

	key := strings.ToLower(email)
	set, ok := s.subs[key]
	if !ok {
		set = make(map[string]struct{})
		s.subs[key] = set
	}

	if _, ok := set[id]; ok {
		delete(set, id)
		return false, nil
	}
	set[id] = struct{}{}
	return true, nil
}

// Len returns the catalog size.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.albums)
}
