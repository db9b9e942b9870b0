package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/varuna-next/internal/config"
	"github.com/varuna-next/internal/constants"
	"github.com/varuna-next/internal/models"
	"github.com/varuna-next/internal/repository"
	"github.com/varuna-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func TestResolveAllowedOrigin(t *testing.T) {
	got := resolveAllowedOrigin("https://example.com", []string{"*"}, false)
	if got != "*" {
		t.Fatalf("wildcard without credentials should return *, got %s", got)
	}

	got = resolveAllowedOrigin("https://example.com", []string{"*"}, true)
	if got != "https://example.com" {
		t.Fatalf("wildcard with credentials should echo origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://a.example.com", []string{"https://a.example.com", "https://b.example.com"}, false)
	if got != "https://a.example.com" {
		t.Fatalf("allow-list should return matched origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://x.example.com", []string{"https://a.example.com"}, false)
	if got != "" {
		t.Fatalf("unmatched origin should be empty, got %s", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w2, req2)
	if strings.TrimSpace(w2.Header().Get(requestIDHeader)) == "" {
		t.Fatalf("generated request id should not be empty")
	}
}

func setupUserJWTTest(t *testing.T) (repository.UserRepository, *models.User, string) {
	t.Helper()

	dsn := fmt.Sprintf("file:router_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open database failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	cfg := &config.Config{}
	cfg.UserJWT.SecretKey = "router-test-secret"
	cfg.UserJWT.ExpireHours = 1

	userRepo := repository.NewUserRepository(db)
	authSvc := service.NewUserAuthService(cfg, userRepo)

	user := &models.User{
		Email:        "rita@example.com",
		PasswordHash: "x",
		Role:         constants.UserRoleCustomer,
		IsActive:     true,
	}
	if err := userRepo.Create(user); err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	token, _, err := authSvc.GenerateUserJWT(user)
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}
	return userRepo, user, token
}

func decodeStatusCode(t *testing.T, body []byte) int {
	t.Helper()
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return resp.StatusCode
}

func TestUserJWTAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	userRepo, user, token := setupUserJWTTest(t)

	r := gin.New()
	r.Use(UserJWTAuthMiddleware("router-test-secret", userRepo))
	r.GET("/me", func(c *gin.Context) {
		uid, _ := c.Get("user_id")
		c.JSON(http.StatusOK, gin.H{"user_id": uid})
	})

	// 未携带凭证
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.ServeHTTP(w, req)
	if code := decodeStatusCode(t, w.Body.Bytes()); code != 401 {
		t.Fatalf("missing header status_code want 401 got %d", code)
	}

	// 非法 token
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)
	if code := decodeStatusCode(t, w.Body.Bytes()); code != 401 {
		t.Fatalf("invalid token status_code want 401 got %d", code)
	}

	// 有效 token
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("valid token status want 200 got %d", w.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if uid, ok := resp["user_id"].(float64); !ok || uint(uid) != user.ID {
		t.Fatalf("user_id want %d got %v", user.ID, resp["user_id"])
	}
}

func TestUserJWTAuthMiddlewareDisabledUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	userRepo, user, token := setupUserJWTTest(t)

	user.IsActive = false
	if err := userRepo.Update(user); err != nil {
		t.Fatalf("disable user failed: %v", err)
	}

	r := gin.New()
	r.Use(UserJWTAuthMiddleware("router-test-secret", userRepo))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if code := decodeStatusCode(t, w.Body.Bytes()); code != 403 {
		t.Fatalf("disabled user status_code want 403 got %d", code)
	}
}

func TestUserJWTAuthMiddlewareMissingSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(UserJWTAuthMiddleware("", nil))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.ServeHTTP(w, req)
	if code := decodeStatusCode(t, w.Body.Bytes()); code != 401 {
		t.Fatalf("missing secret status_code want 401 got %d", code)
	}
}
