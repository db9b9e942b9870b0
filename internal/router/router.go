package router

import (
	"fmt"
	"strings"

	"github.com/varuna-next/internal/cache"
	"github.com/varuna-next/internal/config"
	publichandlers "github.com/varuna-next/internal/http/handlers/public"
	"github.com/varuna-next/internal/logger"
	"github.com/varuna-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "vn"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many login attempts",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		apiV1.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(200, gin.H{"status": "ok"})
		})

		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/products", publicHandler.ListProducts)
			public.GET("/products/:slug", publicHandler.GetProductBySlug)
		}

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.UserRegister)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.UserLogin)
		}

		// 用户接口（需要登录）
		user := apiV1.Group("/user")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			user.GET("/me", publicHandler.GetCurrentUser)

			user.GET("/addresses", publicHandler.ListAddresses)
			user.POST("/addresses", publicHandler.CreateAddress)
			user.DELETE("/addresses/:id", publicHandler.DeleteAddress)

			user.POST("/pricing/quote", publicHandler.QuoteCart)

			user.POST("/payments/initiate", publicHandler.InitiatePayment)
			user.POST("/payments/:id/confirm", publicHandler.ConfirmPayment)
			user.POST("/payments/:id/cancel", publicHandler.CancelPayment)
			user.GET("/payments", publicHandler.ListPayments)
			user.GET("/payments/:id", publicHandler.GetPayment)

			user.POST("/orders", publicHandler.CreateOrder)
			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:id", publicHandler.GetOrder)
			user.GET("/orders/by-order-no/:order_no", publicHandler.GetOrderByOrderNo)
		}
	}

	return r
}
