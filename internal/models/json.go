package models

import (
	"database/sql/driver"
	"encoding/json"
)

// JSON 类型定义，用于存储任意键值内容（如网关 notes）
type JSON map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if text, isText := value.(string); isText {
			bytes = []byte(text)
		} else {
			return nil
		}
	}
	return json.Unmarshal(bytes, j)
}
