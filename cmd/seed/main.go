package main

import (
	"time"

	"github.com/varuna-next/internal/config"
	"github.com/varuna-next/internal/constants"
	"github.com/varuna-next/internal/logger"
	"github.com/varuna-next/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加商品
	products := []models.Product{
		{
			Slug:          "fresh-cow-milk-1l",
			Name:          "Fresh Cow Milk 1L",
			Description:   "Farm fresh cow milk, pasteurized and chilled, delivered daily.",
			Unit:          "liter",
			Price:         models.NewMoneyFromDecimal(decimal.NewFromFloat(100.00)),
			StockQuantity: 500,
			IsActive:      true,
			SortOrder:     1,
		},
		{
			Slug:          "buffalo-milk-1l",
			Name:          "Buffalo Milk 1L",
			Description:   "Rich and creamy buffalo milk with high fat content.",
			Unit:          "liter",
			Price:         models.NewMoneyFromDecimal(decimal.NewFromFloat(120.00)),
			StockQuantity: 300,
			IsActive:      true,
			SortOrder:     2,
		},
		{
			Slug:          "farm-paneer-200g",
			Name:          "Farm Paneer 200g",
			Description:   "Soft paneer made in-house from whole milk every morning.",
			Unit:          "piece",
			Price:         models.NewMoneyFromDecimal(decimal.NewFromFloat(95.50)),
			StockQuantity: 120,
			IsActive:      true,
			SortOrder:     3,
		},
		{
			Slug:          "desi-ghee-500ml",
			Name:          "Desi Ghee 500ml",
			Description:   "Traditional bilona ghee from grass-fed cows.",
			Unit:          "piece",
			Price:         models.NewMoneyFromDecimal(decimal.NewFromFloat(650.00)),
			StockQuantity: 60,
			IsActive:      true,
			SortOrder:     4,
		},
		{
			Slug:          "set-curd-400g",
			Name:          "Set Curd 400g",
			Description:   "Thick set curd in returnable clay pots.",
			Unit:          "piece",
			Price:         models.NewMoneyFromDecimal(decimal.NewFromFloat(55.00)),
			StockQuantity: 200,
			IsActive:      true,
			SortOrder:     5,
		},
	}

	for _, product := range products {
		var existing models.Product
		if err := models.DB.Where("slug = ?", product.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&product).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", product.Slug, err)
			} else {
				stdLog.Printf("Created product: %s", product.Slug)
			}
		} else {
			stdLog.Printf("Product already exists: %s", product.Slug)
		}
	}

	// 添加优惠券
	now := time.Now()
	validFrom := now.AddDate(0, 0, -1)
	validUntil := now.AddDate(0, 1, 0)
	maxRedemptions := 100
	coupons := []models.Coupon{
		{
			Code:           "SAVE10",
			DiscountType:   constants.DiscountTypePercentage,
			DiscountValue:  models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
			MinSubtotal:    models.NewMoneyFromDecimal(decimal.Zero),
			ValidFrom:      &validFrom,
			ValidUntil:     &validUntil,
			MaxRedemptions: &maxRedemptions,
			IsActive:       true,
		},
		{
			Code:          "FLAT50",
			DiscountType:  constants.DiscountTypeAmount,
			DiscountValue: models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
			MinSubtotal:   models.NewMoneyFromDecimal(decimal.NewFromInt(500)),
			ValidFrom:     &validFrom,
			ValidUntil:    &validUntil,
			IsActive:      true,
		},
	}

	for _, coupon := range coupons {
		var existing models.Coupon
		if err := models.DB.Where("code = ?", coupon.Code).First(&existing).Error; err != nil {
			if err := models.DB.Create(&coupon).Error; err != nil {
				stdLog.Printf("Failed to create coupon %s: %v", coupon.Code, err)
			} else {
				stdLog.Printf("Created coupon: %s", coupon.Code)
			}
		} else {
			stdLog.Printf("Coupon already exists: %s", coupon.Code)
		}
	}

	stdLog.Println("Seed data completed!")
}
