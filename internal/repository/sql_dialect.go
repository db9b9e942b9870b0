package repository

import (
	"strings"

	"gorm.io/gorm"
)

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

// likeOperator 返回大小写不敏感模糊匹配的操作符。
// postgres 使用 ILIKE，sqlite 的 LIKE 默认即不区分大小写。
func likeOperator(db *gorm.DB) string {
	switch dbDialectName(db) {
	case "postgres", "postgresql":
		return "ILIKE"
	default:
		return "LIKE"
	}
}
