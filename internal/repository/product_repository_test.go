package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/varuna-next/internal/models"
)

func setupProductRepositoryTest(t *testing.T) (*GormProductRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:product_repository_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewProductRepository(db), db
}

// 显式创建下架商品时 false 必须原样落库，不能被列默认值覆盖。
func TestProductCreatePersistsInactiveFlag(t *testing.T) {
	repo, db := setupProductRepositoryTest(t)

	product := &models.Product{
		Slug:     "retired-toned-milk-1l",
		Name:     "Retired Toned Milk 1L",
		Price:    models.NewMoneyFromDecimal(decimal.NewFromInt(48)),
		IsActive: false,
	}
	if err := repo.Create(product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloaded.IsActive {
		t.Fatalf("inactive product must stay inactive after create")
	}
}

func TestProductListOnlyActiveFilter(t *testing.T) {
	repo, _ := setupProductRepositoryTest(t)

	active := &models.Product{Slug: "fresh-cow-milk-1l", Name: "Fresh Cow Milk 1L", Price: models.NewMoneyFromDecimal(decimal.NewFromInt(100)), IsActive: true}
	inactive := &models.Product{Slug: "old-flavoured-milk", Name: "Old Flavoured Milk", Price: models.NewMoneyFromDecimal(decimal.NewFromInt(40)), IsActive: false}
	for _, p := range []*models.Product{active, inactive} {
		if err := repo.Create(p); err != nil {
			t.Fatalf("create product %s failed: %v", p.Slug, err)
		}
	}

	products, total, err := repo.List(ProductListFilter{OnlyActive: true, Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("list products failed: %v", err)
	}
	if total != 1 || len(products) != 1 || products[0].ID != active.ID {
		t.Fatalf("expected only the active product, got total=%d len=%d", total, len(products))
	}
}
