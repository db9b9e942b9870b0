package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/varuna-next/internal/constants"
	"github.com/varuna-next/internal/models"
	"github.com/varuna-next/internal/repository"
)

const (
	minLineQuantity = 1
	maxLineQuantity = 999
)

// PriceCartItem 报价请求中的单个购物行
type PriceCartItem struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// PricedItem 报价结果中的单个商品行，行小计已按两位小数四舍五入
type PricedItem struct {
	ProductID   uint         `json:"product_id"`
	ProductName string       `json:"product_name"`
	Unit        string       `json:"unit"`
	UnitPrice   models.Money `json:"unit_price"`
	Quantity    int          `json:"quantity"`
	LineTotal   models.Money `json:"line_total"`
}

// PricingSummary 一次完整报价的结果，税费与运费当前恒为零
type PricingSummary struct {
	Items      []PricedItem `json:"items"`
	Subtotal   models.Money `json:"subtotal"`
	Discount   models.Money `json:"discount"`
	Tax        models.Money `json:"tax"`
	Shipping   models.Money `json:"shipping"`
	Total      models.Money `json:"total"`
	CouponCode string       `json:"coupon_code,omitempty"`

	coupon *models.Coupon
}

// PricingService 负责购物车报价与优惠券校验，本身不产生任何写操作
type PricingService struct {
	productRepo repository.ProductRepository
	couponRepo  repository.CouponRepository
}

func NewPricingService(productRepo repository.ProductRepository, couponRepo repository.CouponRepository) *PricingService {
	return &PricingService{productRepo: productRepo, couponRepo: couponRepo}
}

// PriceCart 计算购物车报价。只读操作，可在事务外安全调用。
func (s *PricingService) PriceCart(items []PriceCartItem, couponCode string) (*PricingSummary, error) {
	return s.priceWith(s.productRepo, s.couponRepo, items, couponCode, false)
}

// priceWith 使用指定仓储执行报价。下单事务内会传入事务绑定的仓储，
// 并通过 lockCoupon 对优惠券行加锁，保证计数核销的串行化。
func (s *PricingService) priceWith(productRepo repository.ProductRepository, couponRepo repository.CouponRepository, items []PriceCartItem, couponCode string, lockCoupon bool) (*PricingSummary, error) {
	if len(items) == 0 {
		return nil, ErrOrderItemsRequired
	}

	summary := &PricingSummary{Items: make([]PricedItem, 0, len(items))}
	subtotal := decimal.Zero

	for _, item := range items {
		if item.Quantity < minLineQuantity || item.Quantity > maxLineQuantity {
			return nil, fmt.Errorf("%w: quantity %d out of range", ErrOrderItemInvalid, item.Quantity)
		}

		product, err := productRepo.GetByID(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("load product: %w", err)
		}
		if product == nil {
			return nil, fmt.Errorf("%w: id %d", ErrProductNotFound, item.ProductID)
		}
		if !product.IsActive {
			return nil, fmt.Errorf("%w: %s", ErrProductNotAvailable, product.Slug)
		}

		// 每行独立四舍五入，小计为各行舍入结果之和
		lineTotal := product.Price.Decimal.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
		subtotal = subtotal.Add(lineTotal)

		summary.Items = append(summary.Items, PricedItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Unit:        product.Unit,
			UnitPrice:   product.Price,
			Quantity:    item.Quantity,
			LineTotal:   models.Money{Decimal: lineTotal},
		})
	}

	summary.Subtotal = models.Money{Decimal: subtotal}

	discount := decimal.Zero
	if code := strings.TrimSpace(couponCode); code != "" {
		coupon, err := s.resolveCoupon(couponRepo, code, subtotal, lockCoupon)
		if err != nil {
			return nil, err
		}
		discount = couponDiscount(coupon, subtotal)
		summary.CouponCode = coupon.Code
		summary.coupon = coupon
	}

	summary.Discount = models.Money{Decimal: discount}
	summary.Tax = models.NewMoneyFromDecimal(decimal.Zero)
	summary.Shipping = models.NewMoneyFromDecimal(decimal.Zero)
	summary.Total = models.Money{Decimal: subtotal.Sub(discount)}

	return summary, nil
}

// resolveCoupon 校验优惠券可用性：存在、启用、在有效期内、达到门槛且未用尽额度
func (s *PricingService) resolveCoupon(couponRepo repository.CouponRepository, code string, subtotal decimal.Decimal, lock bool) (*models.Coupon, error) {
	var (
		coupon *models.Coupon
		err    error
	)
	if lock {
		coupon, err = couponRepo.GetByCodeForUpdate(code)
	} else {
		coupon, err = couponRepo.GetByCode(code)
	}
	if err != nil {
		return nil, fmt.Errorf("load coupon: %w", err)
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	if !coupon.IsActive {
		return nil, ErrCouponInactive
	}

	now := time.Now()
	if coupon.ValidFrom != nil && now.Before(*coupon.ValidFrom) {
		return nil, ErrCouponNotStarted
	}
	if coupon.ValidUntil != nil && now.After(*coupon.ValidUntil) {
		return nil, ErrCouponExpired
	}
	if subtotal.LessThan(coupon.MinSubtotal.Decimal) {
		return nil, ErrCouponMinSubtotal
	}
	if coupon.MaxRedemptions != nil && coupon.TimesRedeemed >= *coupon.MaxRedemptions {
		return nil, ErrCouponRedemptionLimit
	}

	return coupon, nil
}

// couponDiscount 计算折扣金额，四舍五入到两位小数并封顶到小计
func couponDiscount(coupon *models.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch coupon.DiscountType {
	case constants.DiscountTypePercentage:
		discount = subtotal.Mul(coupon.DiscountValue.Decimal).Div(decimal.NewFromInt(100)).Round(2)
	case constants.DiscountTypeAmount:
		discount = coupon.DiscountValue.Decimal.Round(2)
	default:
		return decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	return discount
}
