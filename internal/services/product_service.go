package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pizzeria/internal/models"
	"pizzeria/internal/repository"

	"go.uber.org/zap"
)

type ProductService interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProduct(ctx context.Context, id uint, includeUnpublished bool) (*models.Product, error)
	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]models.Product, error)
	ListPublished(ctx context.Context, category string) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id uint, changes *models.Product) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
}

type productService struct {
	productRepo repository.ProductRepository
	logger      *zap.Logger
}

func NewProductService(productRepo repository.ProductRepository, logger *zap.Logger) ProductService {
	return &productService{productRepo: productRepo, logger: logger}
}

func (s *productService) CreateProduct(ctx context.Context, product *models.Product) error {
	product.ID = 0
	product.Name = strings.TrimSpace(product.Name)
	if err := validateProduct(product); err != nil {
		return err
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	s.logger.Info("product created", zap.Uint("product_id", product.ID), zap.String("name", product.Name))
	return nil
}

// GetProduct hides unpublished products unless includeUnpublished is set.
func (s *productService) GetProduct(ctx context.Context, id uint, includeUnpublished bool) (*models.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	if !product.Published && !includeUnpublished {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]models.Product, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	return s.productRepo.List(ctx, filter)
}

func (s *productService) ListPublished(ctx context.Context, category string) ([]models.Product, error) {
	published := true
	return s.productRepo.List(ctx, repository.ProductFilter{Category: category, Published: &published})
}

func (s *productService) UpdateProduct(ctx context.Context, id uint, changes *models.Product) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id, true)
	if err != nil {
		return nil, err
	}

	product.Name = strings.TrimSpace(changes.Name)
	product.Description = changes.Description
	product.Category = changes.Category
	product.Image = changes.Image
	product.Pricing = changes.Pricing
	product.Attributes = changes.Attributes
	product.Toppings = changes.Toppings
	product.Published = changes.Published
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id uint) error {
	err := s.productRepo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrProductNotFound
	}
	return err
}
