package library

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crate/internal/models"
	"github.com/desertthunder/crate/internal/shared"
)

// SearchFilter runs filtered catalog queries into a [CatalogPager].
type SearchFilter struct {
	pager  *CatalogPager
	logger *log.Logger
}

// NewSearchFilter creates a [SearchFilter] that writes its results into pager.
func NewSearchFilter(pager *CatalogPager, logger *log.Logger) *SearchFilter {
	if logger == nil {
		logger = pager.logger
	}
	return &SearchFilter{pager: pager, logger: shared.WithLogger(logger, "component", "search")}
}

// Search replaces the pager's items with the results for q and clears its cursor.
//
// A query with only blank fields loads the first unfiltered page instead.
func (f *SearchFilter) Search(ctx context.Context, q models.SearchQuery) error {
	if q.Empty() {
		return f.pager.FetchFirstPage(ctx)
	}

	token := f.pager.session.Token()
	if token == "" {
		return refuse(f.pager.nav)
	}

	params := q.Values()
	page, err := f.pager.catalog.QueryMusic(ctx, token, q)
	if err != nil {
		f.logger.Warn("search failed", "query", params.Encode(), "err", err)
		return f.pager.fail(ctx, err)
	}

	f.pager.replace(page.Items, nil)
	f.logger.Debug("search complete", "query", params.Encode(), "items", len(page.Items))
	return nil
}
