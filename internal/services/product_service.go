package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"crmhub/internal/caching"
	"crmhub/internal/models"
	"crmhub/internal/repositories"
	"crmhub/internal/storage"

	"github.com/google/uuid"
)

const productCacheTTL = 10 * time.Minute

type ProductService interface {
	Create(ctx context.Context, req *CreateProductRequest) (*models.Product, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Product, error)
	Update(ctx context.Context, req *UpdateProductRequest) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Product, error)
	Search(ctx context.Context, tenantID uuid.UUID, filter *models.ProductSearchFilter) ([]*models.Product, error)
	AttachImage(ctx context.Context, tenantID, id uuid.UUID, filename, contentType string, reader io.Reader, size int64) error
	ImageURL(ctx context.Context, tenantID, id uuid.UUID) (string, error)
}

type productService struct {
	productRepo repositories.ProductRepository
	store       storage.ObjectStore
	cache       caching.CacheService
}

func NewProductService(productRepo repositories.ProductRepository, store storage.ObjectStore, cache caching.CacheService) ProductService {
	return &productService{productRepo: productRepo, store: store, cache: cache}
}

type CreateProductRequest struct {
	TenantID    uuid.UUID
	SKU         string  `json:"sku" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
	UnitPrice   float64 `json:"unit_price"`
	Stock       int     `json:"stock"`
}

type UpdateProductRequest struct {
	TenantID    uuid.UUID
	ID          uuid.UUID
	SKU         string  `json:"sku" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
	UnitPrice   float64 `json:"unit_price"`
	Stock       int     `json:"stock"`
	Active      bool    `json:"active"`
}

func (s *productService) Create(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	if req.SKU == "" || req.Name == "" {
		return nil, errors.New("sku and name are required")
	}
	if req.UnitPrice < 0 {
		return nil, errors.New("unit_price cannot be negative")
	}
	if req.Stock < 0 {
		return nil, errors.New("stock cannot be negative")
	}
	if _, err := s.productRepo.GetBySKU(ctx, req.TenantID, req.SKU); err == nil {
		return nil, fmt.Errorf("sku %q already exists", req.SKU)
	}

	product := &models.Product{
		ID:          uuid.New(),
		TenantID:    req.TenantID,
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		UnitPrice:   req.UnitPrice,
		Stock:       req.Stock,
		Active:      true,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *productService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Product, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetProduct(ctx, tenantID, id); err == nil && cached != nil {
			return cached, nil
		}
	}
	product, err := s.productRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetProduct(ctx, tenantID, product, productCacheTTL)
	}
	return product, nil
}

func (s *productService) Update(ctx context.Context, req *UpdateProductRequest) error {
	existing, err := s.productRepo.GetByID(ctx, req.TenantID, req.ID)
	if err != nil {
		return err
	}
	if req.UnitPrice < 0 || req.Stock < 0 {
		return errors.New("unit_price and stock cannot be negative")
	}

	existing.SKU = req.SKU
	existing.Name = req.Name
	existing.Description = req.Description
	existing.UnitPrice = req.UnitPrice
	existing.Stock = req.Stock
	existing.Active = req.Active

	if err := s.productRepo.Update(ctx, existing); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.DeleteProduct(ctx, req.TenantID, req.ID)
	}
	return nil
}

func (s *productService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	existing, err := s.productRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.DeleteProduct(ctx, tenantID, id)
	}
	if s.store != nil && existing.ImageKey != nil {
		_ = s.store.Delete(ctx, tenantID, *existing.ImageKey)
	}
	return nil
}

func (s *productService) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Product, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.productRepo.List(ctx, tenantID, limit, offset)
}

func (s *productService) Search(ctx context.Context, tenantID uuid.UUID, filter *models.ProductSearchFilter) ([]*models.Product, error) {
	return s.productRepo.Search(ctx, tenantID, filter)
}

func (s *productService) AttachImage(ctx context.Context, tenantID, id uuid.UUID, filename, contentType string, reader io.Reader, size int64) error {
	if s.store == nil {
		return errors.New("object storage not configured")
	}
	product, err := s.productRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}

	objectName := fmt.Sprintf("products/%s/%s", id.String(), filename)
	key, err := s.store.Upload(ctx, tenantID, objectName, contentType, reader, size)
	if err != nil {
		return err
	}

	product.ImageKey = &key
	if err := s.productRepo.Update(ctx, product); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.DeleteProduct(ctx, tenantID, id)
	}
	return nil
}

func (s *productService) ImageURL(ctx context.Context, tenantID, id uuid.UUID) (string, error) {
	if s.store == nil {
		return "", errors.New("object storage not configured")
	}
	product, err := s.productRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return "", err
	}
	if product.ImageKey == nil {
		return "", errors.New("product has no image")
	}
	return s.store.PresignedURL(ctx, tenantID, *product.ImageKey, 15*time.Minute)
}
