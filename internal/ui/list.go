package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/crate/internal/models"
)

var (
	_ list.Item = albumItem{}
	_ list.Item = moreItem{}
)

// albumItem wraps [models.Album] to implement [list.Item].
type albumItem struct {
	album      models.Album
	subscribed bool
}

func (i albumItem) FilterValue() string { return i.album.Title }
func (i albumItem) Title() string {
	if i.subscribed {
		return "★ " + i.album.Title
	}
	return i.album.Title
}
func (i albumItem) Description() string {
	parts := []string{}
	for _, s := range []string{i.album.Artist, i.album.Album, i.album.Year.String()} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " • ")
}

// moreItem is the trailing row shown while the catalog has another page.
type moreItem struct{}

func (moreItem) FilterValue() string { return "" }
func (moreItem) Title() string       { return "Load more…" }
func (moreItem) Description() string { return "press enter or m to fetch the next page" }

func albumItems(albums []models.Album, subscribed func(string) bool, more bool) []list.Item {
	items := make([]list.Item, 0, len(albums)+1)
	for _, a := range albums {
		items = append(items, albumItem{album: a, subscribed: subscribed(a.CompositeID)})
	}
	if more {
		items = append(items, moreItem{})
	}
	return items
}
