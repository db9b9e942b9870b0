package provider

import (
	"github.com/varuna-next/internal/cache"
	"github.com/varuna-next/internal/config"
	"github.com/varuna-next/internal/logger"
	"github.com/varuna-next/internal/models"
	"github.com/varuna-next/internal/queue"
	"github.com/varuna-next/internal/repository"
	"github.com/varuna-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo               repository.UserRepository
	AddressRepo            repository.AddressRepository
	ProductRepo            repository.ProductRepository
	CouponRepo             repository.CouponRepository
	PaymentTransactionRepo repository.PaymentTransactionRepository
	OrderRepo              repository.OrderRepository
	InventoryMovementRepo  repository.InventoryMovementRepository

	// Services
	UserAuthService *service.UserAuthService
	ProductService  *service.ProductService
	AddressService  *service.AddressService
	PricingService  *service.PricingService
	PaymentService  *service.PaymentService
	OrderService    *service.OrderService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.AddressRepo = repository.NewAddressRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.PaymentTransactionRepo = repository.NewPaymentTransactionRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.InventoryMovementRepo = repository.NewInventoryMovementRepository(db)
}

func (c *Container) initServices() {
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo)
	c.ProductService = service.NewProductService(c.ProductRepo)
	c.AddressService = service.NewAddressService(c.AddressRepo)
	c.PricingService = service.NewPricingService(c.ProductRepo, c.CouponRepo)
	c.PaymentService = service.NewPaymentService(c.Config, c.PaymentTransactionRepo, c.PricingService)
	c.OrderService = service.NewOrderService(c.Config, c.PricingService, c.ProductRepo, c.CouponRepo, c.PaymentTransactionRepo, c.AddressRepo, c.OrderRepo, c.InventoryMovementRepo)
}
