package models

import (
	"encoding/json"
	"testing"
)

func TestAlbum(t *testing.T) {
	t.Run("decodes string and numeric years", func(t *testing.T) {
		tc := []struct {
			name string
			body string
			want Year
		}{
			{name: "string", body: `{"composite_id":"A-1","year":"1999"}`, want: "1999"},
			{name: "number", body: `{"composite_id":"A-1","year":1999}`, want: "1999"},
			{name: "null", body: `{"composite_id":"A-1","year":null}`, want: ""},
			{name: "missing", body: `{"composite_id":"A-1"}`, want: ""},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				var a Album
				if err := json.Unmarshal([]byte(tt.body), &a); err != nil {
					t.Fatalf("unmarshal failed: %v", err)
				}
				if a.Year != tt.want {
					t.Errorf("expected year %q, got %q", tt.want, a.Year)
				}
				if a.CompositeID != "A-1" {
					t.Errorf("expected composite id A-1, got %s", a.CompositeID)
				}
			})
		}
	})

	t.Run("maps img_url", func(t *testing.T) {
		var a Album
		if err := json.Unmarshal([]byte(`{"img_url":"http://img/1.jpg","artist":"Taylor Swift"}`), &a); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if a.ImageURL != "http://img/1.jpg" {
			t.Errorf("expected image url, got %s", a.ImageURL)
		}
	})
}

func TestCursor(t *testing.T) {
	t.Run("null and empty are terminal", func(t *testing.T) {
		for _, raw := range []string{"", "null", "  null "} {
			if c := NewCursor(json.RawMessage(raw)); c != nil {
				t.Errorf("expected nil cursor for %q, got %s", raw, c)
			}
		}
	})

	t.Run("encodes JSON string cursor", func(t *testing.T) {
		c := NewCursor(json.RawMessage(`"k1"`))
		if c == nil {
			t.Fatal("expected cursor")
		}
		if got := c.Encode(); got != "%22k1%22" {
			t.Errorf("expected %%22k1%%22, got %s", got)
		}
	})

	t.Run("keeps object cursors verbatim", func(t *testing.T) {
		c := NewCursor(json.RawMessage(`{"composite_id":"A-12"}`))
		if c.String() != `{"composite_id":"A-12"}` {
			t.Errorf("unexpected cursor %s", c)
		}
	})

	t.Run("page without cursor is the last", func(t *testing.T) {
		if !(CatalogPage{}).Terminal() {
			t.Error("expected page without cursor to be terminal")
		}
		if (CatalogPage{Cursor: NewCursor(json.RawMessage(`"k1"`))}).Terminal() {
			t.Error("expected page with cursor to continue")
		}
	})
}

func TestSearchQuery(t *testing.T) {
	tc := []struct {
		name  string
		query SearchQuery
		want  string
		empty bool
	}{
		{name: "all blank", query: SearchQuery{}, want: "", empty: true},
		{name: "whitespace only", query: SearchQuery{Title: "  ", Year: "\t"}, want: "", empty: true},
		{name: "title only", query: SearchQuery{Title: "abc"}, want: "title=abc"},
		{name: "trims values", query: SearchQuery{Artist: "  Muse "}, want: "artist=Muse"},
		{name: "several fields", query: SearchQuery{Title: "abc", Year: "2001"}, want: "title=abc&year=2001"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.query.Values().Encode(); got != tt.want {
				t.Errorf("Values() = %q, want %q", got, tt.want)
			}
			if got := tt.query.Empty(); got != tt.empty {
				t.Errorf("Empty() = %v, want %v", got, tt.empty)
			}
		})
	}
}

func TestSubscriptionSet(t *testing.T) {
	set := NewSubscriptionSet([]Album{{CompositeID: "A-1"}, {CompositeID: "B-2"}, {CompositeID: ""}})

	if set.Len() != 2 {
		t.Fatalf("expected 2 members, got %d", set.Len())
	}
	if !set.Has("A-1") || !set.Has("B-2") {
		t.Error("expected A-1 and B-2 to be members")
	}
	if set.Has("C-3") {
		t.Error("C-3 should not be a member")
	}
}

func TestSession(t *testing.T) {
	var nilSession *Session
	if nilSession.Authenticated() {
		t.Error("nil session should not be authenticated")
	}
	if (&Session{}).Authenticated() {
		t.Error("empty token should not be authenticated")
	}
	if !(&Session{Token: "t"}).Authenticated() {
		t.Error("session with token should be authenticated")
	}
}
