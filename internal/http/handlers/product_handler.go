// Package handlers – product catalog endpoints.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/auralabs/go-assistant-backend/internal/domain"
	"github.com/auralabs/go-assistant-backend/internal/services"
)

// ProductAPI is the subset of the product service used by ProductHandler.
type ProductAPI interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Search(ctx context.Context, query string) ([]domain.Product, error)
	ListByCategory(ctx context.Context, category string) ([]domain.Product, error)
	CheckInventory(ctx context.Context, id string) (*domain.Product, bool, error)
}

// ProductHandler serves the /products endpoints.
type ProductHandler struct {
	Products ProductAPI
}

// ListProducts godoc
//
//	@Summary      List or search products
//	@Description  Returns the catalog, optionally filtered by ?q= keyword search or ?category=.
//	@Tags         products
//	@Produce      json
//	@Param        q         query     string  false  "Keyword search"
//	@Param        category  query     string  false  "Category filter"
//	@Success      200       {object}  map[string]any
//	@Failure      500       {object}  ErrorResponse
//	@Router       /products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	var (
		products []domain.Product
		err      error
	)

	switch {
	case strings.TrimSpace(c.Query("q")) != "":
		products, err = h.Products.Search(c.Request.Context(), c.Query("q"))
	case strings.TrimSpace(c.Query("category")) != "":
		products, err = h.Products.ListByCategory(c.Request.Context(), c.Query("category"))
	default:
		products, err = h.Products.List(c.Request.Context())
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to list products")
		return
	}

	ok(c, http.StatusOK, gin.H{"products": products, "count": len(products)})
}

// GetProduct godoc
//
//	@Summary  Get a product by id
//	@Tags     products
//	@Produce  json
//	@Param    id   path      string  true  "Product id"
//	@Success  200  {object}  map[string]any
//	@Failure  404  {object}  ErrorResponse
//	@Router   /products/{id} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, available, err := h.Products.CheckInventory(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			fail(c, http.StatusNotFound, ErrCodeProductNotFound, "product not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to load product")
		return
	}
	ok(c, http.StatusOK, gin.H{"product": product, "available": available})
}
