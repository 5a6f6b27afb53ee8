// Package services – ProductService
//
// ProductService owns catalog reads: structured keyword search over the
// product catalog, inventory checks, and stock adjustments. Search is a
// deterministic token match, not a model call; the retrieval layer feeds it
// resolved queries (anaphora already rewritten into explicit keywords).

package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/auralabs/go-assistant-backend/internal/domain"
	"github.com/auralabs/go-assistant-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ProductService coordinates catalog lookups and stock bookkeeping.
type ProductService struct {
	DB *gorm.DB
}

// Get returns one product by id.
func (s *ProductService) Get(ctx context.Context, productID string) (*domain.Product, error) {
	p, err := repo.GetProduct(ctx, s.DB, productID)
	if err != nil {
		if err == repo.ErrNotFound {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

// List returns the whole catalog ordered by id.
func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	return repo.ListProducts(ctx, s.DB)
}

// Search tokenizes the query and returns every product whose name, tagline,
// or description contains at least one token of length > 2. Matching is
// case-insensitive; result order follows catalog order. An empty or
// all-short-token query returns no results rather than the full catalog.
func (s *ProductService) Search(ctx context.Context, query string) ([]domain.Product, error) {
	tr := otel.Tracer("services/ProductService")
	ctx, span := tr.Start(ctx, "Search",
		trace.WithAttributes(attribute.String("query", query)),
	)
	defer span.End()

	tokens := searchTokens(query)
	if len(tokens) == 0 {
		return []domain.Product{}, nil
	}

	all, err := repo.ListProducts(ctx, s.DB)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Product, 0, len(all))
	for _, p := range all {
		haystack := strings.ToLower(p.Name + " " + p.Tagline + " " + p.Description)
		for _, tok := range tokens {
			if strings.Contains(haystack, tok) {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

// ListByCategory returns every product in a category, catalog order.
func (s *ProductService) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	return repo.ListProductsByCategory(ctx, s.DB, category)
}

// CheckInventory reports the stock level for a product.
func (s *ProductService) CheckInventory(ctx context.Context, productID string) (*domain.Product, bool, error) {
	p, err := s.Get(ctx, productID)
	if err != nil {
		return nil, false, err
	}
	return p, p.Stock > 0, nil
}

// AdjustStock changes a product's stock by delta, rejecting any adjustment
// that would drive stock negative.
func (s *ProductService) AdjustStock(ctx context.Context, productID string, delta int) error {
	err := repo.AdjustStock(ctx, s.DB, productID, delta)
	switch err {
	case nil:
		return nil
	case repo.ErrNotFound:
		return ErrProductNotFound
	case repo.ErrInsufficientStock:
		return ErrInsufficientStock
	default:
		return err
	}
}

// searchTokens lowercases the query and keeps tokens longer than two
// characters. Short tokens ("a", "is", "tv") match too much to be useful.
func searchTokens(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:\"'()")
		if len(f) > 2 {
			out = append(out, f)
		}
	}
	return out
}
