package app

import (
	"context"
	"testing"
	"time"

	"github.com/eversky0902-ops/damda-api/internal/clock"
	"github.com/eversky0902-ops/damda-api/internal/domain"
)

func TestCatalogService_CreateProduct(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	t.Run("creates product", func(t *testing.T) {
		repo := newFakeCatalog(nil)
		svc := NewCatalogService(repo, clock.NewFixed(now))

		product, err := svc.CreateProduct(context.Background(), CreateProductInput{
			VendorID: "vendor-1",
			Name:     "Strawberry picking",
			Price:    18000,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if product.ID == "" {
			t.Fatalf("expected product id to be set")
		}
		if !product.CreatedAt.Equal(now) {
			t.Fatalf("expected created_at %v, got %v", now, product.CreatedAt)
		}
		if len(repo.products) != 1 {
			t.Fatalf("expected 1 product stored, got %d", len(repo.products))
		}
	})

	t.Run("validation", func(t *testing.T) {
		svc := NewCatalogService(newFakeCatalog(nil), clock.NewFixed(now))

		if _, err := svc.CreateProduct(context.Background(), CreateProductInput{Name: "x", Price: 1}); err != domain.ErrInvalidID {
			t.Fatalf("expected ErrInvalidID for missing vendor, got %v", err)
		}
		if _, err := svc.CreateProduct(context.Background(), CreateProductInput{VendorID: "v", Price: 1}); err != domain.ErrProductNameRequired {
			t.Fatalf("expected ErrProductNameRequired, got %v", err)
		}
		if _, err := svc.CreateProduct(context.Background(), CreateProductInput{VendorID: "v", Name: "x", Price: -1}); err != domain.ErrInvalidPrice {
			t.Fatalf("expected ErrInvalidPrice, got %v", err)
		}
	})
}

func TestCatalogService_SetSoldOut(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	repo := newFakeCatalog([]domain.Product{{ID: "prod-1", VendorID: "vendor-1", Name: "Pottery"}})
	svc := NewCatalogService(repo, clock.NewFixed(now))

	if err := svc.SetSoldOut(context.Background(), "prod-1", true); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !repo.products["prod-1"].IsSoldOut {
		t.Fatalf("expected product marked sold out")
	}

	if err := svc.SetSoldOut(context.Background(), "missing", true); err != domain.ErrProductNotFound {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

type fakeCatalog struct {
	products map[string]domain.Product
}

func newFakeCatalog(products []domain.Product) *fakeCatalog {
	m := make(map[string]domain.Product)
	for _, p := range products {
		m[p.ID] = p
	}
	return &fakeCatalog{products: m}
}

func (f *fakeCatalog) CreateProduct(_ context.Context, product domain.Product) error {
	f.products[product.ID] = product
	return nil
}

func (f *fakeCatalog) GetProduct(_ context.Context, id string) (domain.Product, error) {
	if p, ok := f.products[id]; ok {
		return p, nil
	}
	return domain.Product{}, domain.ErrProductNotFound
}

func (f *fakeCatalog) ListProducts(_ context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeCatalog) SetSoldOut(_ context.Context, id string, soldOut bool) error {
	p, ok := f.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.IsSoldOut = soldOut
	f.products[id] = p
	return nil
}
