package library

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crate/internal/models"
	"github.com/desertthunder/crate/internal/services"
	"github.com/desertthunder/crate/internal/shared"
)

// CatalogPager walks the catalog one page at a time.
//
// The page size is fixed when the pager is created.
type CatalogPager struct {
	catalog  services.Catalog
	session  *SessionStore
	nav      Navigator
	logger   *log.Logger
	pageSize int

	mu     sync.Mutex
	items  []models.Album
	cursor *models.Cursor
}

// NewCatalogPager creates a [CatalogPager]. Opts.Catalog and Opts.Session are required.
func NewCatalogPager(opts Opts) *CatalogPager {
	opts = opts.withDefaults()
	return &CatalogPager{
		catalog:  opts.Catalog,
		session:  opts.Session,
		nav:      opts.Navigator,
		logger:   shared.WithLogger(opts.Logger, "component", "pager"),
		pageSize: opts.PageSize,
	}
}

// FetchFirstPage requests the first page and replaces the current items and cursor with it.
func (p *CatalogPager) FetchFirstPage(ctx context.Context) error {
	token := p.session.Token()
	if token == "" {
		return refuse(p.nav)
	}

	page, err := p.catalog.ListMusic(ctx, token, p.pageSize, nil)
	if err != nil {
		p.logger.Warn("first page failed", "err", err)
		return p.fail(ctx, err)
	}

	p.replace(page.Items, page.Cursor)
	p.logger.Debug("first page loaded", "items", len(page.Items), "has_more", !page.Terminal())
	return nil
}

// FetchNextPage appends the page after the stored cursor. Without a cursor it does nothing.
func (p *CatalogPager) FetchNextPage(ctx context.Context) error {
	cursor := p.Cursor()
	if cursor == nil {
		return nil
	}

	token := p.session.Token()
	if token == "" {
		return refuse(p.nav)
	}

	page, err := p.catalog.ListMusic(ctx, token, p.pageSize, cursor)
	if err != nil {
		p.logger.Warn("next page failed", "cursor", cursor.String(), "err", err)
		return p.fail(ctx, err)
	}

	p.mu.Lock()
	p.items = append(p.items, page.Items...)
	p.cursor = page.Cursor
	total := len(p.items)
	p.mu.Unlock()

	p.logger.Debug("next page loaded", "items", len(page.Items), "total", total, "has_more", !page.Terminal())
	return nil
}

// Items returns a copy of the loaded albums.
func (p *CatalogPager) Items() []models.Album {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Album(nil), p.items...)
}

// Cursor returns the continuation key, or nil on the last page.
func (p *CatalogPager) Cursor() *models.Cursor {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// HasMore reports whether another page can be requested.
func (p *CatalogPager) HasMore() bool {
	return p.Cursor() != nil
}

// PageSize returns the number of albums requested per page.
func (p *CatalogPager) PageSize() int { return p.pageSize }

// Reset drops all loaded state.
func (p *CatalogPager) Reset() {
	p.replace(nil, nil)
}

func (p *CatalogPager) replace(items []models.Album, cursor *models.Cursor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = items
	p.cursor = cursor
}

func (p *CatalogPager) fail(ctx context.Context, err error) error {
	return expire(ctx, p.session, p.nav, p.logger, err)
}
