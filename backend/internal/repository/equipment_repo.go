package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ockci/smartflow/backend/internal/model"
)

// EquipmentRepository 设备数据访问接口
type EquipmentRepository interface {
	ListActive(ctx context.Context, tenantID string) ([]model.Equipment, error)
	GetByMachineID(ctx context.Context, tenantID, machineID string) (*model.Equipment, error)
}

type equipmentRepo struct {
	db *gorm.DB
}

func NewEquipmentRepo(db *gorm.DB) EquipmentRepository {
	return &equipmentRepo{db: db}
}

func (r *equipmentRepo) ListActive(ctx context.Context, tenantID string) ([]model.Equipment, error) {
	var list []model.Equipment
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, model.EquipmentStatusActive).
		Order("machine_id ASC").
		Find(&list).Error
	return list, err
}

func (r *equipmentRepo) GetByMachineID(ctx context.Context, tenantID, machineID string) (*model.Equipment, error) {
	var eq model.Equipment
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND machine_id = ?", tenantID, machineID).
		First(&eq).Error
	if err != nil {
		return nil, err
	}
	return &eq, nil
}
