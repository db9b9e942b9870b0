package worker

import (
	"context"
	"errors"
	"time"

	"github.com/varuna-next/internal/config"
	"github.com/varuna-next/internal/logger"
	"github.com/varuna-next/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	pendingSweepInterval = time.Minute
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.PaymentService != nil {
		go s.runPendingSweepLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runPendingSweepLoop 周期性清扫超时未确认的交易，兜底延迟任务丢失的场景
func (s *Service) runPendingSweepLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.PaymentService == nil || s.consumer.Config == nil {
		return
	}
	ttl := time.Duration(s.consumer.Config.Payment.PendingExpireMinutes) * time.Minute
	if ttl <= 0 {
		return
	}
	batch := s.consumer.Config.Payment.ExpireSweepBatch
	if batch <= 0 {
		batch = 100
	}
	runOnce := func() {
		if _, err := s.consumer.PaymentService.ExpireStalePending(ttl, batch); err != nil {
			logger.Warnw("worker_pending_sweep_failed", "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(pendingSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
