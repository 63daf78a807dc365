package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/selfservice/internal/domain"
	"github.com/spec-kit/selfservice/internal/repository"
	apperrors "github.com/spec-kit/selfservice/pkg/util"
)

type fakeProductRepo struct {
	mu   sync.Mutex
	seq  int
	byID map[string]*domain.Product
}

var _ repository.ProductRepository = (*fakeProductRepo)(nil)

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{byID: map[string]*domain.Product{}}
}

func (f *fakeProductRepo) Create(_ context.Context, product *domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	product.ID = strconv.Itoa(f.seq)
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt
	cpy := *product
	f.byID[product.ID] = &cpy
	return nil
}

func (f *fakeProductRepo) Update(_ context.Context, product *domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[product.ID]; !ok {
		return pgx.ErrNoRows
	}
	product.UpdatedAt = time.Now()
	cpy := *product
	f.byID[product.ID] = &cpy
	return nil
}

func (f *fakeProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cpy := *product
	return &cpy, nil
}

func (f *fakeProductRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeProductRepo) ListAll(ctx context.Context) ([]domain.Product, error) {
	return f.ListWithFilter(ctx, repository.ProductFilter{})
}

func (f *fakeProductRepo) matches(product *domain.Product, filter repository.ProductFilter) bool {
	if filter.Name != nil && !strings.Contains(strings.ToLower(product.Name), strings.ToLower(*filter.Name)) {
		return false
	}
	if filter.Description != nil && !strings.Contains(strings.ToLower(product.Description), strings.ToLower(*filter.Description)) {
		return false
	}
	if filter.MinPrice != nil && product.Price < *filter.MinPrice {
		return false
	}
	if filter.MaxPrice != nil && product.Price > *filter.MaxPrice {
		return false
	}
	return true
}

func (f *fakeProductRepo) ListWithFilter(_ context.Context, filter repository.ProductFilter) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	matched := []domain.Product{}
	for _, product := range f.byID {
		if f.matches(product, filter) {
			matched = append(matched, *product)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if filter.SortBy == "price" {
			if filter.SortDesc {
				return matched[i].Price > matched[j].Price
			}
			return matched[i].Price < matched[j].Price
		}
		if filter.SortDesc {
			return matched[i].Name > matched[j].Name
		}
		return matched[i].Name < matched[j].Name
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []domain.Product{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (f *fakeProductRepo) CountWithFilter(_ context.Context, filter repository.ProductFilter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total int64
	for _, product := range f.byID {
		if f.matches(product, filter) {
			total++
		}
	}
	return total, nil
}

func newTestProductService(repo repository.ProductRepository) *ProductService {
	return NewProductService(repo, nil, 0, nil, nil)
}

func TestProductCreateAndGet(t *testing.T) {
	svc := newTestProductService(newFakeProductRepo())

	created, err := svc.Create(context.Background(), "Margherita Pizza", "Tomato, mozzarella, basil", 45.90)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	fetched, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, fetched.Name)
	assert.Equal(t, created.Price, fetched.Price)
}

func TestProductValidation(t *testing.T) {
	svc := newTestProductService(newFakeProductRepo())

	_, err := svc.Create(context.Background(), "  ", "", 10)
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)

	_, err = svc.Create(context.Background(), "Pizza", "", 0)
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
}

func TestProductNotFound(t *testing.T) {
	svc := newTestProductService(newFakeProductRepo())

	_, err := svc.Get(context.Background(), "999")
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = svc.Update(context.Background(), "999", "Pizza", "", 10)
	assert.ErrorIs(t, err, ErrProductNotFound)

	assert.ErrorIs(t, svc.Delete(context.Background(), "999"), ErrProductNotFound)
}

func TestProductUpdateAndDelete(t *testing.T) {
	svc := newTestProductService(newFakeProductRepo())

	created, err := svc.Create(context.Background(), "Pizza", "plain", 30)
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, "Pizza Grande", "bigger", 40)
	require.NoError(t, err)
	assert.Equal(t, "Pizza Grande", updated.Name)
	assert.Equal(t, 40.0, updated.Price)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	_, err = svc.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductSearchPaging(t *testing.T) {
	repo := newFakeProductRepo()
	svc := newTestProductService(repo)

	for i := 1; i <= 5; i++ {
		_, err := svc.Create(context.Background(), "Pizza "+strconv.Itoa(i), "pizza", float64(i*10))
		require.NoError(t, err)
	}
	_, err := svc.Create(context.Background(), "Burger", "beef", 25)
	require.NoError(t, err)

	name := "pizza"
	minPrice := 20.0
	filter := repository.ProductFilter{
		Name:     &name,
		MinPrice: &minPrice,
		SortBy:   "price",
		Limit:    2,
		Offset:   0,
	}

	page, total, err := svc.Search(context.Background(), filter)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	require.Len(t, page, 2)
	assert.Equal(t, "Pizza 2", page[0].Name)
	assert.Equal(t, "Pizza 3", page[1].Name)
}
