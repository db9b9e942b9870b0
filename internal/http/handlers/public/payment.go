package public

import (
	"strconv"
	"strings"
	"time"

	handlershared "github.com/varuna-next/internal/http/handlers/shared"
	"github.com/varuna-next/internal/http/response"
	"github.com/varuna-next/internal/queue"
	"github.com/varuna-next/internal/repository"
	"github.com/varuna-next/internal/service"

	"github.com/gin-gonic/gin"
)

// InitiatePaymentRequest 发起支付请求
type InitiatePaymentRequest struct {
	Items      []CartItemRequest `json:"items" binding:"required"`
	CouponCode string            `json:"coupon_code"`
}

// ConfirmPaymentRequest 确认支付请求，携带网关回传的凭据
type ConfirmPaymentRequest struct {
	GatewayOrderRef   string `json:"gateway_order_ref" binding:"required"`
	GatewayPaymentRef string `json:"gateway_payment_ref" binding:"required"`
	Signature         string `json:"signature" binding:"required"`
}

// CancelPaymentRequest 取消支付请求
type CancelPaymentRequest struct {
	Reason string `json:"reason"`
}

func parseTransactionID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid transaction id", nil)
		return 0, false
	}
	return uint(id), true
}

// InitiatePayment 发起支付：报价后建交易并在网关预下单
func (h *Handler) InitiatePayment(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	result, err := h.PaymentService.InitiatePayment(service.InitiatePaymentInput{
		UserID:     uid,
		Items:      toPriceCartItems(req.Items),
		CouponCode: req.CouponCode,
		Context:    c.Request.Context(),
	})
	if err != nil {
		respondWithMappedError(c, err, paymentInitiateErrorRules, response.CodeInternal, "payment initiation failed")
		return
	}

	if h.QueueClient.Enabled() {
		ttl := time.Duration(h.Config.Payment.PendingExpireMinutes) * time.Minute
		if enqueueErr := h.QueueClient.EnqueuePaymentExpirePending(queue.PaymentExpirePendingPayload{TransactionID: result.TransactionID}, ttl); enqueueErr != nil {
			handlershared.RequestLog(c).Warnw("payment_expire_enqueue_failed", "transaction_id", result.TransactionID, "error", enqueueErr)
		}
	}

	response.Success(c, result)
}

// ConfirmPayment 确认支付：校验签名与网关侧支付详情后落定 PAID
func (h *Handler) ConfirmPayment(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	transactionID, ok := parseTransactionID(c)
	if !ok {
		return
	}

	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	result, err := h.PaymentService.ConfirmPayment(service.ConfirmPaymentInput{
		UserID:            uid,
		TransactionID:     transactionID,
		GatewayOrderRef:   req.GatewayOrderRef,
		GatewayPaymentRef: req.GatewayPaymentRef,
		Signature:         req.Signature,
		Context:           c.Request.Context(),
	})
	if err != nil {
		respondWithMappedError(c, err, paymentConfirmErrorRules, response.CodeInternal, "payment confirmation failed")
		return
	}

	response.Success(c, result)
}

// CancelPayment 取消支付
func (h *Handler) CancelPayment(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	transactionID, ok := parseTransactionID(c)
	if !ok {
		return
	}

	var req CancelPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	result, err := h.PaymentService.CancelPayment(service.CancelPaymentInput{
		UserID:        uid,
		TransactionID: transactionID,
		Reason:        req.Reason,
	})
	if err != nil {
		respondWithMappedError(c, err, paymentCancelErrorRules, response.CodeInternal, "payment cancellation failed")
		return
	}

	response.Success(c, result)
}

// GetPayment 查询支付交易详情
func (h *Handler) GetPayment(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	transactionID, ok := parseTransactionID(c)
	if !ok {
		return
	}

	txn, err := h.PaymentService.GetTransactionForUser(uid, transactionID)
	if err != nil {
		respondWithMappedError(c, err, transactionLookupErrorRules, response.CodeInternal, "transaction fetch failed")
		return
	}

	response.Success(c, txn)
}

// ListPayments 获取当前用户支付交易列表
func (h *Handler) ListPayments(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	txns, total, err := h.PaymentService.ListTransactions(uid, repository.TransactionListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "transaction fetch failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, txns, pagination)
}
