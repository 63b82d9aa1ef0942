package app

import (
	"context"

	"github.com/eversky0902-ops/damda-api/internal/clock"
	"github.com/eversky0902-ops/damda-api/internal/domain"
)

type CatalogRepository interface {
	CreateProduct(ctx context.Context, product domain.Product) error
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	SetSoldOut(ctx context.Context, id string, soldOut bool) error
}

type CatalogService struct {
	repo  CatalogRepository
	clock clock.Clock
}

func NewCatalogService(repo CatalogRepository, clk clock.Clock) *CatalogService {
	return &CatalogService{
		repo:  repo,
		clock: clk,
	}
}

type CreateProductInput struct {
	VendorID string
	Name     string
	Price    int
}

func (s *CatalogService) CreateProduct(ctx context.Context, in CreateProductInput) (domain.Product, error) {
	if in.VendorID == "" {
		return domain.Product{}, domain.ErrInvalidID
	}
	if in.Name == "" {
		return domain.Product{}, domain.ErrProductNameRequired
	}
	if in.Price < 0 {
		return domain.Product{}, domain.ErrInvalidPrice
	}

	product := domain.Product{
		ID:        newID(),
		VendorID:  in.VendorID,
		Name:      in.Name,
		Price:     in.Price,
		CreatedAt: s.clock.Now(),
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	if id == "" {
		return domain.Product{}, domain.ErrInvalidID
	}
	return s.repo.GetProduct(ctx, id)
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *CatalogService) SetSoldOut(ctx context.Context, id string, soldOut bool) error {
	if id == "" {
		return domain.ErrInvalidID
	}
	return s.repo.SetSoldOut(ctx, id, soldOut)
}
