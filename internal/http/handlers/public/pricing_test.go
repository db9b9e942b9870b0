package public

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/varuna-next/internal/config"
	"github.com/varuna-next/internal/models"
	"github.com/varuna-next/internal/provider"
	"github.com/varuna-next/internal/repository"
	"github.com/varuna-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupQuoteTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:quote_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open database failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.Coupon{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	models.DB = db

	productRepo := repository.NewProductRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	container := &provider.Container{
		Config:         &config.Config{},
		ProductRepo:    productRepo,
		CouponRepo:     couponRepo,
		PricingService: service.NewPricingService(productRepo, couponRepo),
	}
	handler := New(container)

	r := gin.New()
	r.POST("/pricing/quote", func(c *gin.Context) {
		c.Set("user_id", uint(1))
		c.Next()
	}, handler.QuoteCart)
	return r, db
}

func postQuote(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/pricing/quote", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestQuoteCartEndpoint(t *testing.T) {
	r, db := setupQuoteTest(t)

	product := &models.Product{
		Slug:     fmt.Sprintf("milk-%d", time.Now().UnixNano()),
		Name:     "Fresh Cow Milk 1L",
		Unit:     "liter",
		Price:    models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		IsActive: true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product failed: %v", err)
	}

	w := postQuote(t, r, fmt.Sprintf(`{"items":[{"product_id":%d,"quantity":2}]}`, product.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("http status want 200 got %d", w.Code)
	}

	var resp struct {
		StatusCode int `json:"status_code"`
		Data       struct {
			Subtotal string `json:"subtotal"`
			Total    string `json:"total"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 0 {
		t.Fatalf("status_code want 0 got %d", resp.StatusCode)
	}
	if resp.Data.Total != "200.00" {
		t.Fatalf("total want 200.00 got %s", resp.Data.Total)
	}
}

func TestQuoteCartEndpointErrors(t *testing.T) {
	r, _ := setupQuoteTest(t)

	// 未知商品走业务错误映射
	w := postQuote(t, r, `{"items":[{"product_id":999,"quantity":1}]}`)
	var resp struct {
		StatusCode int    `json:"status_code"`
		Msg        string `json:"msg"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Fatalf("unknown product status_code want 400 got %d", resp.StatusCode)
	}
	if resp.Msg != "product not found" {
		t.Fatalf("msg want 'product not found' got %q", resp.Msg)
	}

	// 请求体缺少 items 在绑定阶段被拒绝
	w = postQuote(t, r, `{}`)
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Fatalf("missing items status_code want 400 got %d", resp.StatusCode)
	}
}
