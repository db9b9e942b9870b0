package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrConfigInvalid    = errors.New("razorpay config invalid")
	ErrRequestFailed    = errors.New("razorpay request failed")
	ErrResponseInvalid  = errors.New("razorpay response invalid")
	ErrSignatureInvalid = errors.New("razorpay signature invalid")
)

const (
	defaultBaseURL        = "https://api.razorpay.com/v1"
	defaultTimeoutSeconds = 15
)

// Config Razorpay 配置
type Config struct {
	KeyID          string `json:"key_id"`          // API Key ID
	KeySecret      string `json:"key_secret"`      // API Key Secret
	BaseURL        string `json:"base_url"`        // 网关地址，默认官方 API
	Currency       string `json:"currency"`        // 币种，默认 INR
	TimeoutSeconds int    `json:"timeout_seconds"` // 请求超时秒数
}

// ValidateConfig 校验配置
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.KeyID) == "" {
		return fmt.Errorf("%w: key_id is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.KeySecret) == "" {
		return fmt.Errorf("%w: key_secret is required", ErrConfigInvalid)
	}
	return nil
}

// Normalize 规范化配置并填充默认值
func (c *Config) Normalize() {
	c.KeyID = strings.TrimSpace(c.KeyID)
	c.KeySecret = strings.TrimSpace(c.KeySecret)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.Currency = strings.ToUpper(strings.TrimSpace(c.Currency))
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Currency == "" {
		c.Currency = "INR"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = defaultTimeoutSeconds
	}
}

// CreateOrderInput 创建网关订单输入
type CreateOrderInput struct {
	AmountMinor int64                  // 金额（最小币值单位）
	Currency    string                 // 币种
	Receipt     string                 // 商户收据号
	Notes       map[string]interface{} // 附加信息
}

// CreateOrderResult 创建网关订单结果
type CreateOrderResult struct {
	OrderID  string // 网关订单号
	Receipt  string // 收据号
	Amount   int64  // 金额（最小币值单位）
	Currency string // 币种
	Status   string // 网关侧状态
}

// Payment 网关支付对象
type Payment struct {
	PaymentID string // 网关支付流水号
	OrderID   string // 所属网关订单号
	Status    string // 支付状态（created/authorized/captured/failed）
	Amount    int64  // 金额（最小币值单位）
	Currency  string // 币种
}

// CreateOrder 在网关创建预下单
func CreateOrder(ctx context.Context, cfg *Config, input CreateOrderInput) (*CreateOrderResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if input.AmountMinor <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrConfigInvalid)
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = cfg.Currency
	}

	params := map[string]interface{}{
		"amount":   input.AmountMinor,
		"currency": currency,
		"receipt":  input.Receipt,
	}
	if len(input.Notes) > 0 {
		params["notes"] = input.Notes
	}

	endpoint := cfg.BaseURL + "/orders"
	respBytes, err := doJSON(ctx, cfg, http.MethodPost, endpoint, params)
	if err != nil {
		return nil, err
	}

	var resp struct {
		ID       string `json:"id"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Receipt  string `json:"receipt"`
		Status   string `json:"status"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if strings.TrimSpace(resp.ID) == "" {
		return nil, fmt.Errorf("%w: missing order id", ErrResponseInvalid)
	}

	return &CreateOrderResult{
		OrderID:  resp.ID,
		Receipt:  resp.Receipt,
		Amount:   resp.Amount,
		Currency: resp.Currency,
		Status:   resp.Status,
	}, nil
}

// FetchPayment 查询网关支付对象
func FetchPayment(ctx context.Context, cfg *Config, paymentID string) (*Payment, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(paymentID)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: payment id is required", ErrConfigInvalid)
	}

	endpoint := cfg.BaseURL + "/payments/" + trimmed
	respBytes, err := doJSON(ctx, cfg, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		ID       string `json:"id"`
		OrderID  string `json:"order_id"`
		Status   string `json:"status"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if strings.TrimSpace(resp.ID) == "" {
		return nil, fmt.Errorf("%w: missing payment id", ErrResponseInvalid)
	}

	return &Payment{
		PaymentID: resp.ID,
		OrderID:   resp.OrderID,
		Status:    resp.Status,
		Amount:    resp.Amount,
		Currency:  resp.Currency,
	}, nil
}

// Sign 计算支付确认签名
// 签名内容为 "orderRef|paymentRef"，HMAC-SHA256 后十六进制编码。
func Sign(secret, orderRef, paymentRef string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderRef + "|" + paymentRef))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature 恒定时间比较支付确认签名
func VerifySignature(secret, orderRef, paymentRef, signature string) error {
	expected := Sign(secret, orderRef, paymentRef)
	if !hmac.Equal([]byte(expected), []byte(strings.TrimSpace(signature))) {
		return ErrSignatureInvalid
	}
	return nil
}

func doJSON(ctx context.Context, cfg *Config, method, endpoint string, params map[string]interface{}) ([]byte, error) {
	var reqBody io.Reader
	if params != nil {
		body, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
		}
		reqBody = strings.NewReader(string(body))
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.SetBasicAuth(cfg.KeyID, cfg.KeySecret)
	req.Header.Set("Accept", "application/json")
	if params != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: http status %d", ErrRequestFailed, resp.StatusCode)
	}

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	return respBytes, nil
}

// IsPaidStatus 判断网关支付状态是否视为已完成收款
func IsPaidStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "captured", "authorized":
		return true
	default:
		return false
	}
}
