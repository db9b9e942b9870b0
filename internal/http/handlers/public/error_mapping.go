package public

import (
	"errors"

	"github.com/varuna-next/internal/http/response"
	"github.com/varuna-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var cartErrorRules = []mappedHandlerError{
	{target: service.ErrOrderItemsRequired, code: response.CodeBadRequest, msg: "cart must contain at least one item"},
	{target: service.ErrOrderItemInvalid, code: response.CodeBadRequest, msg: "invalid cart item"},
	{target: service.ErrProductNotFound, code: response.CodeBadRequest, msg: "product not found"},
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, msg: "product not available"},
}

var couponErrorRules = []mappedHandlerError{
	{target: service.ErrCouponNotFound, code: response.CodeBadRequest, msg: "coupon not found"},
	{target: service.ErrCouponInactive, code: response.CodeBadRequest, msg: "coupon is inactive"},
	{target: service.ErrCouponNotStarted, code: response.CodeBadRequest, msg: "coupon is not active yet"},
	{target: service.ErrCouponExpired, code: response.CodeBadRequest, msg: "coupon has expired"},
	{target: service.ErrCouponMinSubtotal, code: response.CodeBadRequest, msg: "cart subtotal below coupon minimum"},
	{target: service.ErrCouponRedemptionLimit, code: response.CodeBadRequest, msg: "coupon redemption limit reached"},
	{target: service.ErrCouponInvalid, code: response.CodeBadRequest, msg: "invalid coupon"},
}

var transactionLookupErrorRules = []mappedHandlerError{
	{target: service.ErrTransactionNotFound, code: response.CodeNotFound, msg: "payment transaction not found"},
	{target: service.ErrTransactionForbidden, code: response.CodeForbidden, msg: "payment transaction belongs to another user"},
}

var paymentInitiateErrorRules = concatMappedHandlerErrors(
	cartErrorRules,
	couponErrorRules,
	[]mappedHandlerError{
		{target: service.ErrAmountInvalid, code: response.CodeBadRequest, msg: "payable amount must be positive"},
		{target: service.ErrGatewayNotConfigured, code: response.CodeInternal, msg: "payment gateway is not configured"},
		{target: service.ErrGatewayUnavailable, code: response.CodeBadGateway, msg: "payment gateway request failed"},
	},
)

var paymentConfirmErrorRules = concatMappedHandlerErrors(
	transactionLookupErrorRules,
	[]mappedHandlerError{
		{target: service.ErrTransactionStateInvalid, code: response.CodeConflict, msg: "payment transaction is not awaiting confirmation"},
		{target: service.ErrOrderRefMismatch, code: response.CodeBadRequest, msg: "gateway order reference mismatch"},
		{target: service.ErrSignatureInvalid, code: response.CodeBadRequest, msg: "payment signature verification failed"},
		{target: service.ErrGatewayPaymentInvalid, code: response.CodeBadRequest, msg: "gateway payment is not acceptable"},
		{target: service.ErrTransactionAmountMismatch, code: response.CodeBadRequest, msg: "gateway payment amount mismatch"},
		{target: service.ErrGatewayNotConfigured, code: response.CodeInternal, msg: "payment gateway is not configured"},
		{target: service.ErrGatewayUnavailable, code: response.CodeBadGateway, msg: "payment gateway request failed"},
	},
)

var paymentCancelErrorRules = concatMappedHandlerErrors(
	transactionLookupErrorRules,
	[]mappedHandlerError{
		{target: service.ErrTransactionAlreadyPaid, code: response.CodeConflict, msg: "payment transaction is already paid"},
		{target: service.ErrTransactionConsumed, code: response.CodeConflict, msg: "payment transaction is linked to an order"},
	},
)

var orderCreateErrorRules = concatMappedHandlerErrors(
	cartErrorRules,
	couponErrorRules,
	transactionLookupErrorRules,
	[]mappedHandlerError{
		{target: service.ErrPaymentMethodInvalid, code: response.CodeBadRequest, msg: "unsupported payment method"},
		{target: service.ErrScheduleInvalid, code: response.CodeBadRequest, msg: "invalid delivery schedule"},
		{target: service.ErrTransactionRequired, code: response.CodeBadRequest, msg: "payment transaction required for this payment method"},
		{target: service.ErrTransactionGatewayInvalid, code: response.CodeBadRequest, msg: "payment transaction gateway mismatch"},
		{target: service.ErrTransactionNotPaid, code: response.CodeBadRequest, msg: "payment transaction is not paid"},
		{target: service.ErrTransactionConsumed, code: response.CodeConflict, msg: "payment transaction is linked to an order"},
		{target: service.ErrTransactionAmountMismatch, code: response.CodeBadRequest, msg: "paid amount does not match order total"},
		{target: service.ErrAddressNotFound, code: response.CodeNotFound, msg: "address not found"},
		{target: service.ErrAddressInvalid, code: response.CodeBadRequest, msg: "invalid address"},
	},
)

var registerErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, msg: "invalid email address"},
	{target: service.ErrPasswordTooWeak, code: response.CodeBadRequest, msg: "password does not meet minimum length"},
	{target: service.ErrEmailExists, code: response.CodeBadRequest, msg: "email is already registered"},
}

var loginErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidCredentials, code: response.CodeBadRequest, msg: "invalid email or password"},
	{target: service.ErrAccountDisabled, code: response.CodeForbidden, msg: "account is disabled"},
}
