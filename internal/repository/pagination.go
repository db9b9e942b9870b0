package repository

import "gorm.io/gorm"

// applyPagination 各列表查询共用的分页子句；page 从 1 起，pageSize 不合法时不加限制。
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}
	return query.Limit(pageSize).Offset(offset)
}
