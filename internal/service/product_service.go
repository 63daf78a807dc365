package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/selfservice/internal/domain"
	"github.com/spec-kit/selfservice/internal/events"
	"github.com/spec-kit/selfservice/internal/persistence"
	"github.com/spec-kit/selfservice/internal/repository"
	apperrors "github.com/spec-kit/selfservice/pkg/util"
)

const productCachePrefix = "product:"

// ProductService handles catalog CRUD and filtered search, with a
// read-through Redis cache on single-product lookups.
type ProductService struct {
	products   repository.ProductRepository
	cache      *persistence.Redis
	cacheTTL   time.Duration
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewProductService creates the service.
func NewProductService(products repository.ProductRepository, cache *persistence.Redis, cacheTTL time.Duration, dispatcher events.Dispatcher, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		products:   products,
		cache:      cache,
		cacheTTL:   cacheTTL,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Create persists a new product.
func (s *ProductService) Create(ctx context.Context, name, description string, price float64) (*domain.Product, error) {
	if err := validateProduct(name, price); err != nil {
		return nil, err
	}

	product := &domain.Product{Name: name, Description: description, Price: price}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventProductCreated,
		EntityID: product.ID,
		Payload:  events.ProductChangedPayload{Name: product.Name, Price: product.Price},
	})
	return product, nil
}

// Get fetches a product by id, serving from cache when possible.
func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	if cached, err := s.cache.Get(ctx, productCachePrefix+id); err == nil {
		var product domain.Product
		if err := json.Unmarshal([]byte(cached), &product); err == nil {
			return &product, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.logger.Warn("product cache read failed", zap.String("id", id), zap.Error(err))
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	if encoded, err := json.Marshal(product); err == nil {
		if err := s.cache.Set(ctx, productCachePrefix+id, string(encoded), s.cacheTTL); err != nil {
			s.logger.Warn("product cache write failed", zap.String("id", id), zap.Error(err))
		}
	}
	return product, nil
}

// Update replaces a product's mutable fields.
func (s *ProductService) Update(ctx context.Context, id, name, description string, price float64) (*domain.Product, error) {
	if err := validateProduct(name, price); err != nil {
		return nil, err
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	product.Name = name
	product.Description = description
	product.Price = price
	if err := s.products.Update(ctx, product); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	s.invalidate(ctx, id)
	s.publish(ctx, events.Event{
		Type:     events.EventProductUpdated,
		EntityID: product.ID,
		Payload:  events.ProductChangedPayload{Name: product.Name, Price: product.Price},
	})
	return product, nil
}

// Delete removes a product.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProductNotFound
		}
		return err
	}

	s.invalidate(ctx, id)
	s.publish(ctx, events.Event{Type: events.EventProductDeleted, EntityID: id})
	return nil
}

// List returns the full catalog.
func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	return s.products.ListAll(ctx)
}

// Search returns a filtered page of products plus the total match count.
func (s *ProductService) Search(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int64, error) {
	products, err := s.products.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.products.CountWithFilter(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (s *ProductService) invalidate(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, productCachePrefix+id); err != nil {
		s.logger.Warn("product cache invalidation failed", zap.String("id", id), zap.Error(err))
	}
}

func (s *ProductService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", zap.String("type", string(event.Type)), zap.Error(err))
	}
}

func validateProduct(name string, price float64) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.NewValidationError("name is required", nil)
	}
	if price <= 0 {
		return apperrors.NewValidationError("price must be positive", nil)
	}
	return nil
}
