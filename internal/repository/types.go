package repository

import "time"

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page       int
	PageSize   int
	Search     string
	OnlyActive bool
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	OrderNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// TransactionListFilter 查询支付交易列表的过滤条件
type TransactionListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	Status   string
	Gateway  string
}
