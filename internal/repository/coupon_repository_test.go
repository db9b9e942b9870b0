package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/varuna-next/internal/constants"
	"github.com/varuna-next/internal/models"
)

func setupCouponRepositoryTest(t *testing.T) (*GormCouponRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:coupon_repository_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Coupon{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewCouponRepository(db), db
}

func TestCouponCodeNormalization(t *testing.T) {
	repo, _ := setupCouponRepositoryTest(t)

	coupon := &models.Coupon{
		Code:          "save10",
		DiscountType:  constants.DiscountTypePercentage,
		DiscountValue: models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		IsActive:      true,
	}
	if err := repo.Create(coupon); err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	if coupon.Code != "SAVE10" {
		t.Fatalf("code must be stored uppercase, got: %s", coupon.Code)
	}

	for _, lookup := range []string{"SAVE10", "save10", " Save10 "} {
		found, err := repo.GetByCode(lookup)
		if err != nil {
			t.Fatalf("get by code %q failed: %v", lookup, err)
		}
		if found == nil || found.ID != coupon.ID {
			t.Fatalf("lookup %q did not find the coupon", lookup)
		}
	}

	missing, err := repo.GetByCode("NOPE")
	if err != nil {
		t.Fatalf("get missing code failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("missing code must return nil, got: %+v", missing)
	}
}

func TestCouponIncrementTimesRedeemed(t *testing.T) {
	repo, db := setupCouponRepositoryTest(t)

	coupon := &models.Coupon{
		Code:          "FLAT50",
		DiscountType:  constants.DiscountTypeAmount,
		DiscountValue: models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		IsActive:      true,
	}
	if err := repo.Create(coupon); err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	if err := repo.IncrementTimesRedeemed(coupon.ID, 1); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if err := repo.IncrementTimesRedeemed(coupon.ID, 1); err != nil {
		t.Fatalf("increment failed: %v", err)
	}

	var reloaded models.Coupon
	if err := db.First(&reloaded, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if reloaded.TimesRedeemed != 2 {
		t.Fatalf("expected times_redeemed 2, got: %d", reloaded.TimesRedeemed)
	}
}

func TestCouponGetByCodeForUpdateInsideTx(t *testing.T) {
	repo, db := setupCouponRepositoryTest(t)

	coupon := &models.Coupon{
		Code:          "LOCKED",
		DiscountType:  constants.DiscountTypePercentage,
		DiscountValue: models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
		IsActive:      true,
	}
	if err := repo.Create(coupon); err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		locked, err := repo.WithTx(tx).GetByCodeForUpdate("locked")
		if err != nil {
			return err
		}
		if locked == nil || locked.ID != coupon.ID {
			t.Fatalf("locked lookup did not find the coupon")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}
}
