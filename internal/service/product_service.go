package service

import (
	"fmt"

	"github.com/varuna-next/internal/models"
	"github.com/varuna-next/internal/repository"
)

// ProductService 商品目录查询服务
type ProductService struct {
	productRepo repository.ProductRepository
}

func NewProductService(productRepo repository.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// ListProducts 分页查询在售商品
func (s *ProductService) ListProducts(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	products, total, err := s.productRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

// GetProductBySlug 按 slug 查询商品
func (s *ProductService) GetProductBySlug(slug string) (*models.Product, error) {
	product, err := s.productRepo.GetBySlug(slug)
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if product == nil || !product.IsActive {
		return nil, ErrNotFound
	}
	return product, nil
}
