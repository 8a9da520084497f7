package model

import "github.com/shopspring/decimal"

// Product 产品工艺表，对应 products
type Product struct {
	ProductID       string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"product_id"`
	TenantID        string          `gorm:"type:uuid;not null;index"                       json:"tenant_id"`
	ProductCode     string          `gorm:"type:varchar(50);not null"                      json:"product_code"`
	ProductName     string          `gorm:"type:varchar(100)"                              json:"product_name,omitempty"`
	RequiredTonnage *int            `json:"required_tonnage,omitempty"` // 为空表示任意机台
	CycleTime       *int            `json:"cycle_time,omitempty"`       // 单模周期（秒）
	CavityCount     int             `gorm:"not null;default:1"                             json:"cavity_count"`
	UnitPrice       decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"unit_price"` // 排产不使用
	BaseModel
}

// TableName 指定表名
func (Product) TableName() string { return "products" }
