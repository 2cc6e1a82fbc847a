package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/campuskart/campuskart/internal/cache"
	"github.com/campuskart/campuskart/internal/domain"
	"github.com/campuskart/campuskart/internal/repository"
	"golang.org/x/sync/singleflight"
)

// ProductInput is what a seller submits to list an item.
type ProductInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       float64         `json:"price"`
	Category    domain.Category `json:"category"`
	Images      []string        `json:"images"`
}

// ProductView is a product with its seller resolved.
type ProductView struct {
	*domain.Product
	Seller *domain.UserRef `json:"seller,omitempty"`
}

// ListingCanceller closes the orders of a listing that is being removed.
type ListingCanceller interface {
	CancelByListing(ctx context.Context, productID string) ([]*domain.Order, error)
}

type Service struct {
	products repository.ProductRepository
	users    repository.UserRepository
	orders   ListingCanceller
	cache    cache.ProductCache
	sfg      singleflight.Group // collapses concurrent misses for one product
}

func NewService(store *repository.Store, orders ListingCanceller, productCache cache.ProductCache) *Service {
	if productCache == nil {
		productCache = cache.NoopCache{}
	}
	return &Service{
		products: store.Products,
		users:    store.Users,
		orders:   orders,
		cache:    productCache,
	}
}

// Create lists a new item for sellerID, stamped with the seller's college and hostel.
func (s *Service) Create(ctx context.Context, sellerID string, in ProductInput) (*ProductView, error) {
	if sellerID == "" {
		return nil, domain.Unauthenticated("Not authorized")
	}
	seller, err := s.users.GetByID(ctx, sellerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.Unauthenticated("Not authorized")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load seller: %w", err)
	}

	product := &domain.Product{
		ID:          domain.NewID(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Category:    in.Category,
		Images:      in.Images,
		SellerID:    seller.ID,
		College:     seller.College,
		Hostel:      seller.Hostel,
	}
	product.SetStatus(domain.ProductOpen)
	if err := product.Validate(); err != nil {
		return nil, err
	}

	if err := s.products.Create(ctx, product); err != nil {
		log.Printf("failed to create product for seller %v: %v", sellerID, err)
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &ProductView{Product: product, Seller: seller.Ref()}, nil
}

// List returns items still for sale, newest first.
func (s *Service) List(ctx context.Context, filter repository.ProductFilter) ([]*ProductView, error) {
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, domain.Validation("Unknown category")
	}
	products, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return s.views(ctx, products)
}

// Mine returns every listing of sellerID regardless of status.
func (s *Service) Mine(ctx context.Context, sellerID string) ([]*ProductView, error) {
	if sellerID == "" {
		return nil, domain.Unauthenticated("Not authorized")
	}
	products, err := s.products.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return s.views(ctx, products)
}

// Get reads one product through the cache.
func (s *Service) Get(ctx context.Context, productID string) (*ProductView, error) {
	product, err := s.cachedProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	seller, err := s.users.GetByID(ctx, product.SellerID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load seller: %w", err)
	}
	return &ProductView{Product: product, Seller: seller.Ref()}, nil
}

func (s *Service) cachedProduct(ctx context.Context, productID string) (*domain.Product, error) {
	v, err, _ := s.sfg.Do(productID, func() (interface{}, error) {
		product, err := s.cache.Get(ctx, productID)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err)
		}

		product, err = s.products.GetByID(ctx, productID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound("Not found")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load product: %w", err)
		}

		go func(p domain.Product) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			s.fillCache(ctx, &p)
		}(*product)

		return product, nil
	})
	if err != nil {
		return nil, err
	}
	// singleflight shares one pointer between callers
	p := *v.(*domain.Product)
	return &p, nil
}

// CancelListing removes the seller's product. Active orders on it are cancelled first and keep
// their history.
func (s *Service) CancelListing(ctx context.Context, productID, actorID string) error {
	if actorID == "" {
		return domain.Unauthenticated("Not authorized")
	}
	product, err := s.products.GetByID(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NotFound("Product not found")
	}
	if err != nil {
		return fmt.Errorf("failed to load product: %w", err)
	}
	if product.SellerID != actorID {
		return domain.Forbidden("Not allowed")
	}

	cancelled, err := s.orders.CancelByListing(ctx, productID)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, productID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	s.invalidateCache(productID)
	log.Printf("listing %v removed by %v, %d orders cancelled", productID, actorID, len(cancelled))
	return nil
}

// fillCache stores p, then drops the entry again if the product changed after p was read so an
// invalidation that raced the fill is not undone.
func (s *Service) fillCache(ctx context.Context, p *domain.Product) {
	if err := s.cache.Set(ctx, p); err != nil {
		log.Printf("cache set error: %v", err)
		return
	}
	current, err := s.products.GetByID(ctx, p.ID)
	if err == nil && sameVersion(current, p) {
		return
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Printf("failed to recheck product id = %v: %v", p.ID, err)
	}
	if err := s.cache.Delete(ctx, p.ID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}

func sameVersion(a, b *domain.Product) bool {
	return a.Status == b.Status && a.IsSold == b.IsSold && a.UpdatedAt.Equal(b.UpdatedAt)
}

func (s *Service) invalidateCache(productID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, productID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}

func (s *Service) views(ctx context.Context, products []*domain.Product) ([]*ProductView, error) {
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.SellerID)
	}
	sellers, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sellers: %w", err)
	}
	views := make([]*ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, &ProductView{Product: p, Seller: sellers[p.SellerID].Ref()})
	}
	return views, nil
}
