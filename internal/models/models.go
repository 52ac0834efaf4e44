// package models defines the data model for the music catalog client
package models

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// User is the profile record issued alongside a token at login.
type User struct {
	Email    string `json:"email"`
	UserName string `json:"user_name"`
}

// Session pairs a bearer token with the profile it was issued for.
//
// An empty Token means the client is not authenticated.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Authenticated reports whether the session carries a token.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// Registration is the account request sent to POST /register.
type Registration struct {
	Email    string `json:"email"`
	UserName string `json:"user_name"`
	Password string `json:"password"`
}

// Album is a single catalog entry.
type Album struct {
	CompositeID string `json:"composite_id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	Year        Year   `json:"year"`
	ImageURL    string `json:"img_url"`
}

// Year is an album release year. The service sends it as either a JSON string or number.
type Year string

// UnmarshalJSON accepts "1999", 1999, and null.
func (y *Year) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*y = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*y = Year(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*y = Year(n.String())
	return nil
}

// MarshalJSON writes numeric years as numbers and anything else as a string.
func (y Year) MarshalJSON() ([]byte, error) {
	if _, err := strconv.Atoi(string(y)); err == nil {
		return []byte(y), nil
	}
	return json.Marshal(string(y))
}

func (y Year) String() string { return string(y) }

// Cursor is the opaque continuation key issued by the catalog service.
//
// It is kept as the raw JSON value the server sent and echoed back unchanged.
type Cursor json.RawMessage

// NewCursor returns nil when raw is empty or JSON null, otherwise a copy of raw.
func NewCursor(raw json.RawMessage) *Cursor {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	c := make(Cursor, len(trimmed))
	copy(c, trimmed)
	return &c
}

// Encode returns the URL-escaped JSON form sent as last_evaluated_key.
func (c Cursor) Encode() string {
	return url.QueryEscape(string(c))
}

func (c Cursor) String() string { return string(c) }

// CatalogPage is one page of catalog results. A nil Cursor means no further pages exist.
type CatalogPage struct {
	Items  []Album
	Cursor *Cursor
}

// Terminal reports whether the page is the last one.
func (p CatalogPage) Terminal() bool {
	return p.Cursor == nil
}

// SearchQuery holds the optional catalog search fields.
type SearchQuery struct {
	Title  string
	Artist string
	Album  string
	Year   string
}

// Values returns the non-blank fields, trimmed. Blank fields are omitted entirely.
func (q SearchQuery) Values() url.Values {
	v := url.Values{}
	for _, f := range []struct{ key, val string }{
		{"title", q.Title},
		{"artist", q.Artist},
		{"album", q.Album},
		{"year", q.Year},
	} {
		if s := strings.TrimSpace(f.val); s != "" {
			v.Set(f.key, s)
		}
	}
	return v
}

// Empty reports whether every field is blank.
func (q SearchQuery) Empty() bool {
	return len(q.Values()) == 0
}

// SubscriptionSet is the set of composite ids from the last confirmed subscription load.
type SubscriptionSet map[string]struct{}

// NewSubscriptionSet builds a set from the given albums.
func NewSubscriptionSet(albums []Album) SubscriptionSet {
	set := make(SubscriptionSet, len(albums))
	for _, a := range albums {
		if a.CompositeID == "" {
			continue
		}
		set[a.CompositeID] = struct{}{}
	}
	return set
}

// Has reports whether id is a member.
func (s SubscriptionSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of members.
func (s SubscriptionSet) Len() int { return len(s) }
