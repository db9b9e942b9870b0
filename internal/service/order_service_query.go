package service

import (
	"fmt"

	"github.com/varuna-next/internal/models"
	"github.com/varuna-next/internal/repository"
)

// ListOrders 分页查询用户订单
func (s *OrderService) ListOrders(userID uint, filter repository.OrderListFilter) ([]models.Order, int64, error) {
	filter.UserID = userID
	orders, total, err := s.orderRepo.ListByUser(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

// GetOrderByNo 按订单号查询用户自己的订单
func (s *OrderService) GetOrderByNo(userID uint, orderNo string) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderNoAndUser(orderNo, userID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetOrder 按 ID 查询用户自己的订单
func (s *OrderService) GetOrder(userID, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}
