package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/campuskart/campuskart/internal/auth"
	"github.com/campuskart/campuskart/internal/catalog"
	"github.com/campuskart/campuskart/internal/domain"
	"github.com/campuskart/campuskart/internal/repository"
	"github.com/go-chi/chi/v5"
)

type ProductService interface {
	Create(ctx context.Context, sellerID string, in catalog.ProductInput) (*catalog.ProductView, error)
	List(ctx context.Context, filter repository.ProductFilter) ([]*catalog.ProductView, error)
	Mine(ctx context.Context, sellerID string) ([]*catalog.ProductView, error)
	Get(ctx context.Context, productID string) (*catalog.ProductView, error)
	CancelListing(ctx context.Context, productID, actorID string) error
}

type ProductHandler struct {
	products ProductService
}

func NewProductHandler(products ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// POST /api/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req catalog.ProductInput
	if !decodeJSON(w, r, &req) {
		return
	}
	product, err := h.products.Create(r.Context(), auth.UserFrom(r.Context()), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

// GET /api/products?q=&category=&minPrice=&maxPrice=
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := repository.ProductFilter{
		Query:    query.Get("q"),
		Category: domain.Category(query.Get("category")),
	}
	var ok bool
	if filter.MinPrice, ok = parsePrice(w, query.Get("minPrice")); !ok {
		return
	}
	if filter.MaxPrice, ok = parsePrice(w, query.Get("maxPrice")); !ok {
		return
	}

	products, err := h.products.List(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func parsePrice(w http.ResponseWriter, raw string) (*float64, bool) {
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		respondMessage(w, http.StatusBadRequest, "price filters must be non-negative numbers")
		return nil, false
	}
	return &v, true
}

// GET /api/products/me
func (h *ProductHandler) Mine(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.Mine(r.Context(), auth.UserFrom(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

// GET /api/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// DELETE /api/products/{id}/cancel
func (h *ProductHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.products.CancelListing(r.Context(), chi.URLParam(r, "id"), auth.UserFrom(r.Context())); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Listing cancelled")
}
