package public

import (
	"strconv"
	"strings"
	"time"

	"github.com/varuna-next/internal/http/response"
	"github.com/varuna-next/internal/repository"
	"github.com/varuna-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AddressRequest 内联地址请求
type AddressRequest struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

func (r *AddressRequest) toServiceInput() *service.AddressInput {
	if r == nil {
		return nil
	}
	return &service.AddressInput{
		Line1:      r.Line1,
		Line2:      r.Line2,
		City:       r.City,
		State:      r.State,
		PostalCode: r.PostalCode,
		Country:    r.Country,
		Phone:      r.Phone,
	}
}

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	Items                []CartItemRequest `json:"items" binding:"required"`
	CouponCode           string            `json:"coupon_code"`
	PaymentMethod        string            `json:"payment_method" binding:"required"`
	PaymentTransactionID *uint             `json:"payment_transaction_id"`
	OrderType            string            `json:"order_type"`
	ScheduleDate         string            `json:"schedule_date"`
	ScheduleSlot         string            `json:"schedule_slot"`
	ShippingAddressID    uint              `json:"shipping_address_id"`
	ShippingAddress      *AddressRequest   `json:"shipping_address"`
	BillingAddressID     uint              `json:"billing_address_id"`
	BillingAddress       *AddressRequest   `json:"billing_address"`
}

// CreateOrder 创建订单
func (h *Handler) CreateOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	var scheduleDate *time.Time
	if date := strings.TrimSpace(req.ScheduleDate); date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", date, time.Local)
		if err != nil {
			respondError(c, response.CodeBadRequest, "invalid delivery schedule", err)
			return
		}
		scheduleDate = &parsed
	}

	order, err := h.OrderService.CreateOrder(service.CreateOrderInput{
		UserID:               uid,
		Items:                toPriceCartItems(req.Items),
		CouponCode:           req.CouponCode,
		PaymentMethod:        req.PaymentMethod,
		PaymentTransactionID: req.PaymentTransactionID,
		OrderType:            req.OrderType,
		ScheduleDate:         scheduleDate,
		ScheduleSlot:         req.ScheduleSlot,
		ShippingAddressID:    req.ShippingAddressID,
		ShippingAddress:      req.ShippingAddress.toServiceInput(),
		BillingAddressID:     req.BillingAddressID,
		BillingAddress:       req.BillingAddress.toServiceInput(),
		Context:              c.Request.Context(),
	})
	if err != nil {
		respondWithMappedError(c, err, orderCreateErrorRules, response.CodeInternal, "order creation failed")
		return
	}

	response.Success(c, order)
}

// ListOrders 获取当前用户订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	orders, total, err := h.OrderService.ListOrders(uid, repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Status:   strings.TrimSpace(c.Query("status")),
		OrderNo:  strings.TrimSpace(c.Query("order_no")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "order fetch failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, orders, pagination)
}

// GetOrder 按 ID 获取订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", err)
		return
	}

	order, err := h.OrderService.GetOrder(uid, uint(id))
	if err != nil {
		respondWithMappedError(c, err, []mappedHandlerError{
			{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
		}, response.CodeInternal, "order fetch failed")
		return
	}

	response.Success(c, order)
}

// GetOrderByOrderNo 按订单号获取订单详情
func (h *Handler) GetOrderByOrderNo(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	orderNo := strings.TrimSpace(c.Param("order_no"))
	if orderNo == "" {
		respondError(c, response.CodeBadRequest, "invalid order number", nil)
		return
	}

	order, err := h.OrderService.GetOrderByNo(uid, orderNo)
	if err != nil {
		respondWithMappedError(c, err, []mappedHandlerError{
			{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
		}, response.CodeInternal, "order fetch failed")
		return
	}

	response.Success(c, order)
}
