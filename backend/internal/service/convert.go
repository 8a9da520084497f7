package service

import (
	"fmt"
	"time"

	"github.com/ockci/smartflow/backend/config"
	"github.com/ockci/smartflow/backend/internal/dto"
	"github.com/ockci/smartflow/backend/internal/model"
	"github.com/ockci/smartflow/backend/internal/scheduler"
)

const dateLayout = "2006-01-02"

// engineSettings 由配置解析出的排产参数
type engineSettings struct {
	loc          *time.Location
	overflow     scheduler.OverflowPolicy
	changeover   int
	summaryDays  int
	defaultStart scheduler.ClockTime
	defaultEnd   scheduler.ClockTime
}

func newEngineSettings(cfg *config.SchedulerConfig) (*engineSettings, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("解析工厂时区失败: %w", err)
	}
	overflow, err := scheduler.ParseOverflowPolicy(cfg.OverflowPolicy)
	if err != nil {
		return nil, err
	}
	start, err := scheduler.ParseClock(cfg.DefaultShiftStart)
	if err != nil {
		return nil, fmt.Errorf("默认班次开始时刻无效: %w", err)
	}
	end, err := scheduler.ParseClock(cfg.DefaultShiftEnd)
	if err != nil {
		return nil, fmt.Errorf("默认班次结束时刻无效: %w", err)
	}
	days := cfg.SummaryDays
	if days <= 0 {
		days = 7
	}
	return &engineSettings{
		loc:          loc,
		overflow:     overflow,
		changeover:   cfg.ChangeoverMinutes,
		summaryDays:  days,
		defaultStart: start,
		defaultEnd:   end,
	}, nil
}

// ── 模型 → 引擎 ──

func toSchedulerOrders(orders []model.Order) []scheduler.Order {
	out := make([]scheduler.Order, len(orders))
	for i, o := range orders {
		out[i] = scheduler.Order{
			OrderNumber: o.OrderNumber,
			ProductCode: o.ProductCode,
			Quantity:    o.Quantity,
			DueDate:     o.DueDate,
			Priority:    o.Priority,
			IsUrgent:    o.IsUrgent,
		}
	}
	return out
}

func toSchedulerProducts(products []model.Product) map[string]scheduler.Product {
	out := make(map[string]scheduler.Product, len(products))
	for _, p := range products {
		out[p.ProductCode] = scheduler.Product{
			ProductCode:     p.ProductCode,
			RequiredTonnage: p.RequiredTonnage,
			CycleTime:       p.CycleTime,
			CavityCount:     p.CavityCount,
		}
	}
	return out
}

// toSchedulerMachines 解析班次，无法解析的机台直接列为排除项
func (e *engineSettings) toSchedulerMachines(list []model.Equipment) ([]scheduler.Machine, []scheduler.MachineIssue) {
	machines := make([]scheduler.Machine, 0, len(list))
	var issues []scheduler.MachineIssue
	for _, eq := range list {
		start, end := e.defaultStart, e.defaultEnd
		var err error
		if eq.ShiftStart != "" {
			if start, err = scheduler.ParseClock(eq.ShiftStart); err != nil {
				issues = append(issues, scheduler.MachineIssue{MachineID: eq.MachineID, Reason: "班次开始时刻无效: " + err.Error()})
				continue
			}
		}
		if eq.ShiftEnd != "" {
			if end, err = scheduler.ParseClock(eq.ShiftEnd); err != nil {
				issues = append(issues, scheduler.MachineIssue{MachineID: eq.MachineID, Reason: "班次结束时刻无效: " + err.Error()})
				continue
			}
		}
		machines = append(machines, scheduler.Machine{
			MachineID:       eq.MachineID,
			Tonnage:         eq.Tonnage,
			CapacityPerHour: eq.CapacityPerHour,
			ShiftStart:      start,
			ShiftEnd:        end,
		})
	}
	return machines, issues
}

func parseRateSource(s string) scheduler.RateSource {
	switch s {
	case scheduler.RateFromProduct.String():
		return scheduler.RateFromProduct
	case scheduler.RateFromMachine.String():
		return scheduler.RateFromMachine
	default:
		return scheduler.RateUnresolvable
	}
}

func toSchedulerEntries(entries []model.ScheduleEntry) []scheduler.Entry {
	out := make([]scheduler.Entry, len(entries))
	for i, e := range entries {
		out[i] = scheduler.Entry{
			OrderNumber:     e.OrderNumber,
			ProductCode:     e.ProductCode,
			MachineID:       e.MachineID,
			Quantity:        e.Quantity,
			Start:           e.StartTime,
			End:             e.EndTime,
			DurationMinutes: e.DurationMinutes,
			WorkMinutes:     e.WorkMinutes,
			DueDate:         e.DueDate,
			IsOnTime:        e.IsOnTime,
			RateSource:      parseRateSource(e.RateSource),
		}
	}
	return out
}

// ── 引擎 → 模型 ──

func toEntryModel(tenantID, entryID string, e scheduler.Entry) model.ScheduleEntry {
	return model.ScheduleEntry{
		EntryID:         entryID,
		TenantID:        tenantID,
		OrderNumber:     e.OrderNumber,
		ProductCode:     e.ProductCode,
		MachineID:       e.MachineID,
		Quantity:        e.Quantity,
		StartTime:       e.Start,
		EndTime:         e.End,
		DurationMinutes: e.DurationMinutes,
		WorkMinutes:     e.WorkMinutes,
		DueDate:         e.DueDate,
		IsOnTime:        e.IsOnTime,
		RateSource:      e.RateSource.String(),
		Status:          model.EntryStatusPending,
		Version:         1,
	}
}

// ── 模型 → 响应 ──

func (e *engineSettings) formatTime(t time.Time) string {
	return t.In(e.loc).Format(time.RFC3339)
}

func (e *engineSettings) formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := e.formatTime(*t)
	return &s
}

// formatDate DATE 列按自身时区取日期，不做时区换算
func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func (e *engineSettings) toEntryResponse(m *model.ScheduleEntry) dto.ScheduleEntryResponse {
	return dto.ScheduleEntryResponse{
		ScheduleID:      m.EntryID,
		RunID:           m.RunID,
		OrderNumber:     m.OrderNumber,
		ProductCode:     m.ProductCode,
		MachineID:       m.MachineID,
		Quantity:        m.Quantity,
		StartTime:       e.formatTime(m.StartTime),
		EndTime:         e.formatTime(m.EndTime),
		DurationMinutes: m.DurationMinutes,
		WorkMinutes:     m.WorkMinutes,
		DueDate:         formatDate(m.DueDate),
		IsOnTime:        m.IsOnTime,
		RateSource:      m.RateSource,
		Status:          m.Status,
		ActualStart:     e.formatTimePtr(m.ActualStart),
		ActualEnd:       e.formatTimePtr(m.ActualEnd),
		Version:         m.Version,
		NextStatuses:    nextStatuses(m.Status),
	}
}

// nextStatuses 条目当前可流转到的状态，已完工时为空列表
func nextStatuses(status string) []string {
	next := scheduler.AvailableTransitions(scheduler.EntryStatus(status))
	out := make([]string, len(next))
	for i, st := range next {
		out[i] = string(st)
	}
	return out
}

func (e *engineSettings) toEntryResponses(list []model.ScheduleEntry) []dto.ScheduleEntryResponse {
	out := make([]dto.ScheduleEntryResponse, len(list))
	for i := range list {
		out[i] = e.toEntryResponse(&list[i])
	}
	return out
}

func toRunWarnings(skipped []scheduler.SkippedOrder, issues []scheduler.MachineIssue) dto.RunWarnings {
	w := dto.RunWarnings{
		SkippedOrders:    make([]dto.SkippedOrderResponse, len(skipped)),
		ExcludedMachines: make([]dto.MachineIssueResponse, len(issues)),
	}
	for i, s := range skipped {
		w.SkippedOrders[i] = dto.SkippedOrderResponse{OrderNumber: s.OrderNumber, Reason: string(s.Reason)}
	}
	for i, m := range issues {
		w.ExcludedMachines[i] = dto.MachineIssueResponse{MachineID: m.MachineID, Reason: m.Reason}
	}
	return w
}

func runMetrics(run *model.ScheduleRun) dto.MetricsResponse {
	return dto.MetricsResponse{
		OnTimeRate:   run.OnTimeRate,
		Utilization:  run.Utilization,
		TotalOrders:  run.TotalOrders,
		OnTimeOrders: run.OnTimeOrders,
		LateOrders:   run.LateOrders,
		ElapsedMS:    run.ElapsedMS,
	}
}
