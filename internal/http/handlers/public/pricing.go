package public

import (
	"github.com/varuna-next/internal/http/response"
	"github.com/varuna-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CartItemRequest 购物车行请求
type CartItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// QuoteCartRequest 购物车报价请求
type QuoteCartRequest struct {
	Items      []CartItemRequest `json:"items" binding:"required"`
	CouponCode string            `json:"coupon_code"`
}

func toPriceCartItems(items []CartItemRequest) []service.PriceCartItem {
	result := make([]service.PriceCartItem, 0, len(items))
	for _, item := range items {
		result = append(result, service.PriceCartItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return result
}

// QuoteCart 购物车报价：只计算金额，不产生任何副作用
func (h *Handler) QuoteCart(c *gin.Context) {
	if _, ok := getUserID(c); !ok {
		return
	}

	var req QuoteCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	summary, err := h.PricingService.PriceCart(toPriceCartItems(req.Items), req.CouponCode)
	if err != nil {
		respondWithMappedError(c, err, concatMappedHandlerErrors(cartErrorRules, couponErrorRules), response.CodeInternal, "quote failed")
		return
	}

	response.Success(c, summary)
}
