package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ockci/smartflow/backend/internal/model"
)

// ProductRepository 产品工艺数据访问接口
type ProductRepository interface {
	ListByCodes(ctx context.Context, tenantID string, codes []string) ([]model.Product, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) ListByCodes(ctx context.Context, tenantID string, codes []string) ([]model.Product, error) {
	var products []model.Product
	if len(codes) == 0 {
		return products, nil
	}
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND product_code IN ?", tenantID, codes).
		Find(&products).Error
	return products, err
}
