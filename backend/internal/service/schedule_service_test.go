package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ockci/smartflow/backend/internal/dto"
	"github.com/ockci/smartflow/backend/internal/model"
	"github.com/ockci/smartflow/backend/internal/scheduler"
	pkgerrors "github.com/ockci/smartflow/backend/pkg/errors"
)

// ── 测试辅助 ──

const testTenant = "tenant-1"

var plant = time.FixedZone("CST", 8*3600)

// 2025-03-03 为周一
var monday7am = time.Date(2025, 3, 3, 7, 0, 0, 0, plant)

func testEngine() *engineSettings {
	return &engineSettings{
		loc:          plant,
		overflow:     scheduler.OverflowCarry,
		summaryDays:  7,
		defaultStart: scheduler.MustClock("08:00"),
		defaultEnd:   scheduler.MustClock("18:00"),
	}
}

func setupTestScheduleService(now time.Time) (*scheduleService, *memStore) {
	store := newMemStore()
	logger := zap.NewNop()
	svc := NewScheduleService(
		store.toRepository(),
		testEngine(),
		NewGenerationLocker(nil, time.Minute, logger),
		time.Minute,
		logger,
	).(*scheduleService)
	svc.now = func() time.Time { return now }
	return svc, store
}

func dueDate(day int) time.Time {
	// DATE 列读出时带 UTC
	return time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int { return &v }

// seedBasicData 种子数据：2 台机台 + 1 个大吨位产品 + 3 个 pending 订单
//
//	O2 紧急单 → M1 08:00-09:00
//	O1        → M2 08:00-10:00（无产品记录，按机台产能）
//	O3 大吨位 → M2 10:00-11:00（只有 M2 满足吨位）
func seedBasicData(store *memStore) {
	store.equipment = []model.Equipment{
		{MachineID: "M1", MachineName: "1号注塑机", TenantID: testTenant, Tonnage: 150, CapacityPerHour: 50, Status: model.EquipmentStatusActive},
		{MachineID: "M2", MachineName: "2号注塑机", TenantID: testTenant, Tonnage: 300, CapacityPerHour: 50,
			ShiftStart: "08:00", ShiftEnd: "18:00", Status: model.EquipmentStatusActive},
	}
	store.products = []model.Product{
		{ProductCode: "P-BIG", TenantID: testTenant, RequiredTonnage: intPtr(250), CycleTime: intPtr(36), CavityCount: 1},
	}
	store.orders = []model.Order{
		{OrderNumber: "O1", TenantID: testTenant, ProductCode: "P1", Quantity: 100, DueDate: dueDate(3), Priority: 1, Status: model.OrderStatusPending},
		{OrderNumber: "O2", TenantID: testTenant, ProductCode: "P1", Quantity: 50, DueDate: dueDate(5), Priority: 1, IsUrgent: true, Status: model.OrderStatusPending},
		{OrderNumber: "O3", TenantID: testTenant, ProductCode: "P-BIG", Quantity: 100, DueDate: dueDate(4), Priority: 1, Status: model.OrderStatusPending},
	}
}

func byOrder(entries []dto.ScheduleEntryResponse) map[string]dto.ScheduleEntryResponse {
	out := make(map[string]dto.ScheduleEntryResponse, len(entries))
	for _, e := range entries {
		out[e.OrderNumber] = e
	}
	return out
}

func at(clock string) string {
	c := scheduler.MustClock(clock)
	return c.On(monday7am, plant).Format(time.RFC3339)
}

// ════════════════════════════════════════════════════════════
// Generate 测试
// ════════════════════════════════════════════════════════════

func TestScheduleService_Generate_Success(t *testing.T) {
	svc, store := setupTestScheduleService(monday7am)
	seedBasicData(store)

	result, err := svc.Generate(context.Background(), testTenant, "planner-1", &dto.GenerateScheduleRequest{})
	if err != nil {
		t.Fatalf("Generate 应成功: %v", err)
	}

	if result.ScheduleCode != "SCHEDULE-20250303-070000" {
		t.Errorf("期望 schedule_code=SCHEDULE-20250303-070000，实际=%s", result.ScheduleCode)
	}
	if len(result.Entries) != 3 {
		t.Fatalf("期望 3 条排产，实际=%d", len(result.Entries))
	}

	got := byOrder(result.Entries)
	cases := []struct {
		order, machine, start, end string
		source                     string
	}{
		{"O2", "M1", "08:00", "09:00", "machine"},
		{"O1", "M2", "08:00", "10:00", "machine"},
		{"O3", "M2", "10:00", "11:00", "product"},
	}
	for _, c := range cases {
		e, ok := got[c.order]
		if !ok {
			t.Errorf("订单 %s 应被排入", c.order)
			continue
		}
		if e.MachineID != c.machine || e.StartTime != at(c.start) || e.EndTime != at(c.end) {
			t.Errorf("订单 %s 期望 %s %s-%s，实际 %s %s-%s",
				c.order, c.machine, c.start, c.end, e.MachineID, e.StartTime, e.EndTime)
		}
		if e.RateSource != c.source {
			t.Errorf("订单 %s 期望 rate_source=%s，实际=%s", c.order, c.source, e.RateSource)
		}
		if e.Status != model.EntryStatusPending || e.RunID != result.RunID {
			t.Errorf("订单 %s 条目状态/批次不正确: %+v", c.order, e)
		}
		if len(e.NextStatuses) != 1 || e.NextStatuses[0] != "in_progress" {
			t.Errorf("订单 %s 新条目只能流转到 in_progress，实际=%v", c.order, e.NextStatuses)
		}
	}

	if result.Metrics.TotalOrders != 3 || result.Metrics.OnTimeOrders != 3 || result.Metrics.LateOrders != 0 {
		t.Errorf("指标计数不正确: %+v", result.Metrics)
	}
	if result.Metrics.OnTimeRate != 100 {
		t.Errorf("期望准时率 100，实际=%v", result.Metrics.OnTimeRate)
	}
	// 240 分钟 / (1 天 × 2 台 × 600 分钟)
	if result.Metrics.Utilization != 20 {
		t.Errorf("期望利用率 20，实际=%v", result.Metrics.Utilization)
	}

	for _, o := range store.orders {
		if o.Status != model.OrderStatusScheduled {
			t.Errorf("订单 %s 期望 status=scheduled，实际=%s", o.OrderNumber, o.Status)
		}
	}
	if run := store.activeRun(testTenant); run == nil || run.RunID != result.RunID {
		t.Error("新批次应为 active")
	}
}

func TestScheduleService_Generate_Deterministic(t *testing.T) {
	first, store1 := setupTestScheduleService(monday7am)
	seedBasicData(store1)
	second, store2 := setupTestScheduleService(monday7am)
	seedBasicData(store2)

	a, err := first.Generate(context.Background(), testTenant, "", &dto.GenerateScheduleRequest{})
	if err != nil {
		t.Fatalf("Generate 应成功: %v", err)
	}
	b, err := second.Generate(context.Background(), testTenant, "", &dto.GenerateScheduleRequest{})
	if err != nil {
		t.Fatalf("Generate 应成功: %v", err)
	}

	for i := range a.Entries {
		x, y := a.Entries[i], b.Entries[i]
		if x.OrderNumber != y.OrderNumber || x.MachineID != y.MachineID || x.StartTime != y.StartTime || x.EndTime != y.EndTime {
			t.Errorf("相同输入结果不一致: %+v vs %+v", x, y)
		}
	}
}

func TestScheduleService_Generate_NoOrders(t *testing.T) {
	svc, store := setupTestScheduleService(monday7am)
	seedBasicData(store)
	store.orders = nil

	result, err := svc.Generate(context.Background(), testTenant, "", &dto.GenerateScheduleRequest{})
	if err != nil {
		t.Fatalf("无订单时也应成功: %v", err)
	}
	if len(result.Entries) != 0 {
		t.Errorf("期望 0 条排产，实际=%d", len(result.Entries))
	}
	if result.Metrics.OnTimeRate != 0 || result.Metrics.Utilization != 0 || result.Metrics.TotalOrders != 0 {
		t.Errorf("期望指标全为 0，实际: %+v", result.Metrics)
	}
	if result.Message != "没有待排产的订单" {
		t.Errorf("提示信息不正确: %s", result.Message)
	}
}

func TestScheduleService_Generate_SkipsUnschedulableOrders(t *testing.T) {
	svc, store := setupTestScheduleService(monday7am)
	seedBasicData(store)
	store.products = append(store.products, model.Product{
		ProductCode: "P-HUGE", TenantID: testTenant, RequiredTonnage: intPtr(500), CavityCount: 1,
	})
	store.orders = append(store.orders,
		model.Order{OrderNumber: "O4", TenantID: testTenant, ProductCode: "P-HUGE", Quantity: 10, DueDate: dueDate(6), Priority: 1, Status: model.OrderStatusPending},
		model.Order{OrderNumber: "O5", TenantID: testTenant, ProductCode: "P1", Quantity: 0, DueDate: dueDate(6), Priority: 1, Status: model.OrderStatusPending},
	)

	result, err := svc.Generate(context.Background(), testTenant, "", &dto.GenerateScheduleRequest{})
	if err != nil {
		t.Fatalf("Generate 应成功: %v", err)
	}

	if len(result.Entries) != 3 {
		t.Errorf("期望 3 条排产，实际=%d", len(result.Entries))
	}
	reasons := make(map[string]string)
	for _, s := range result.SkippedOrders {
		reasons[s.OrderNumber] = s.Reason
	}
	if reasons["O4"] != string(scheduler.SkipNoCompatibleMachine) {
		t.Errorf("O4 期望 no_compatible_machine，实际=%q", reasons["O4"])
	}
	if reasons["O5"] != string(scheduler.SkipInvalidQuantity) {
		t.Errorf("O5 期望 invalid_quantity，实际=%q", reasons["O5"])
	}
	if o := store.order("O4"); o.Status != model.OrderStatusPending {
		t.Errorf("未排入订单应保持 pending，实际=%s", o.Status)
	}
	if !strings.Contains(result.Message, "2 个订单无法排产") {
		t.Errorf("提示信息应包含未排入数量: %s", result.Message)
	}

	run := store.activeRun(testTenant)
	if run.SkippedOrders != 2 {
		t.Errorf("期望批次记录 2 个未排入订单，实际=%d", run.SkippedOrders)
	}
}

func TestScheduleService_Generate_ExcludesInvalidMachines(t *testing.T) {
	svc, store := setupTestScheduleService(monday7am)
	seedBasicData(store)
	store.equipment = append(store.equipment,
		model.Equipment{MachineID: "M3", TenantID: testTenant, Tonnage: 500, CapacityPerHour: 500,
			ShiftStart: "25:00", ShiftEnd: "18:00", Status: model.EquipmentStatusActive},
		model.Equipment{MachineID: "M4", TenantID: testTenant, Tonnage: 500, CapacityPerHour: 500,
			ShiftStart: "18:00", ShiftEnd: "08:00", Status: model.EquipmentStatusActive},
		model.Equipment{MachineID: "M5", TenantID: testTenant, Tonnage: 500, CapacityPerHour: 500,
			ShiftStart: "08:00:zz", ShiftEnd: "18:00", Status: model.EquipmentStatusActive},
	)

	result, err := svc.Generate(context.Background(), testTenant, "", &dto.GenerateScheduleRequest{})
	if err != nil {
		t.Fatalf("Generate 应成功: %v", err)
	}

	excluded := make(map[string]bool)
	for _, m := range result.ExcludedMachines {
		excluded[m.MachineID] = true
	}
	if !excluded["M3"] || !excluded["M4"] || !excluded["M5"] {
		t.Errorf("M3/M4/M5 应被排除，实际: %+v", result.ExcludedMachines)
	}
	for _, e := range result.Entries {
		if e.MachineID == "M3" || e.MachineID == "M4" || e.MachineID == "M5" {
			t.Errorf("被排除的机台不应出现在排产中: %+v", e)
		}
	}
}

func TestScheduleService_Generate_HorizonStart(t *testing.T) {
	svc, store := setupTestScheduleService(monday7am)
	seedBasicData(store)

	result, err := svc.Generate(context.Background(), testTenant, "", &dto.GenerateScheduleRequest{HorizonStart: "2025-03-04"})
	if err != nil {
		t.Fatalf("Generate 应成功: %v", err)
	}
	want := time.Date(2025, 3, 4, 8, 0, 0, 0, plant).Format(time.RFC3339)
	if got := byOrder(result.Entries)["O2"].StartTime; got != want {
		t.Errorf("期望 O2 开工 %s，实际=%s", want, got)
	}
	// O1 交期 03-03，从 03-04 开始必然延误
	if byOrder(result.Entries)["O1"].IsOnTime {
		t.Error("O1 应判定为延误")
	}
	if result.Metrics.LateOrders != 1 {
		t.Errorf("期望 1 个延误订单，实际=%d", result.Metrics.LateOrders)
	}
}

func TestScheduleService_Generate_InvalidHorizon(t *testing.T) {
	svc, _ := setupTestScheduleService(monday7am)

	_, err := svc.Generate(context.Background(), testTenant, "", &dto.GenerateScheduleRequest{HorizonStart: "yesterday"})
	if !errors.Is(err, ErrInvalidHorizon) {
		t.Errorf("期望 ErrInvalidHorizon，实际: %v", err)
	}
}

func TestScheduleService_Generate_Regenerate(t *testing.T) {
	svc, store := setupTestScheduleService(monday7am)
	seedBasicData(store)
	ctx := context.Background()

	first, err := svc.Generate(ctx, testTenant, "", &dto.GenerateScheduleRequest{})
	if err != nil {
		t.Fatalf("首次 Generate 应成功: %v", err)
	}

	// O2 已开工：不再参与重排，占用 M1 到 09:00
	for i := range store.entries {
		if store.entries[i].OrderNumber == "O2" {
			store.entries[i].Status = model.EntryStatusInProgress
		}
	}
	store.orders = append(store.orders, model.Order{
		OrderNumber: "O5", TenantID: testTenant, ProductCode: "P1", Quantity: 50,
		DueDate: dueDate(6), Priority: 2, Status: model.OrderStatusPending,
	})

	second, err := svc.Generate(ctx, testTenant, "", &dto.GenerateScheduleRequest{})
	if err != nil {
		t.Fatalf("重新 Generate 应成功: %v", err)
	}

	got := byOrder(second.Entries)
	if _, ok := got["O2"]; ok {
		t.Error("已开工的 O2 不应被重排")
	}
	if len(second.Entries) != 3 {
		t.Fatalf("期望重排 O1/O3/O5 共 3 条，实际=%d", len(second.Entries))
	}
	if e := got["O5"]; e.MachineID != "M1" || e.StartTime != at("09:00") {
		t.Errorf("O5 应排在 M1 09:00（O2 之后），实际 %s %s", e.MachineID, e.StartTime)
	}

	// 每个订单只保留一条未完工条目
	count := make(map[string]int)
	for _, e := range store.entries {
		count[e.OrderNumber]++
	}
	for _, n := range []string{"O1", "O2", "O3", "O5"} {
		if count[n] != 1 {
			t.Errorf("订单 %s 期望 1 条条目，实际=%d", n, count[n])
		}
	}

	old, _ := svc.repo.Schedule.GetRun(ctx, testTenant, first.RunID)
	if old.Status != model.RunStatusSuperseded {
		t.Errorf("旧批次应为 superseded，实际=%s", old.Status)
	}
}

func TestScheduleService_Generate_OrderSubsetCarriesOthers(t *testing.T) {
	svc, store := setupTestScheduleService(monday7am)
	seedBasicData(store)
	ctx := context.Background()

	if _, err := svc.Generate(ctx, testTenant, "", &dto.GenerateScheduleRequest{}); err != nil {
		t.Fatalf("首次 Generate 应成功: %v", err)
	}

	result, err := svc.Generate(ctx, testTenant, "", &dto.GenerateScheduleRequest{OrderNumbers: []string{"O3"}})
	if err != nil {
		t.Fatalf("子集 Generate 应成功: %v", err)
	}
	if len(result.Entries) != 1 || result.CarriedEntries != 2 {
		t.Fatalf("期望新排 1 条、沿用 2 条，实际 %d / %d", len(result.Entries), result.CarriedEntries)
	}
	if e := result.Entries[0]; e.MachineID != "M2" || e.StartTime != at("10:00") {
		t.Errorf("O3 应排在 M2 10:00（O1 之后），实际 %s %s", e.MachineID, e.StartTime)
	}
	if result.Metrics.TotalOrders != 3 {
		t.Errorf("批次指标应覆盖沿用条目，期望 3，实际=%d", result.Metrics.TotalOrders)
	}

	entries, _ := svc.repo.Schedule.ListEntriesByRun(ctx, result.RunID)
	if len(entries) != 3 {
		t.Errorf("新批次期望 3 条条目，实际=%d", len(entries))
	}
}

func TestScheduleService_Generate_InProgress(t *testing.T) {
	svc, store := setupTestScheduleService(monday7am)
	seedBasicData(store)

	release, err := svc.locker.TryAcquire(context.Background(), testTenant)
	if err != nil {
		t.Fatalf("获取锁应成功: %v", err)
	}
	defer release()

	_, err = svc.Generate(context.Background(), testTenant, "", &dto.GenerateScheduleRequest{})
	if !errors.Is(err, ErrGenerationInProgress) {
		t.Errorf("期望 ErrGenerationInProgress，实际: %v", err)
	}
	if store.persisted != 0 {
		t.Error("冲突时不应写入任何数据")
	}
}

func TestScheduleService_Generate_StaleRun(t *testing.T) {
	svc, store := setupTestScheduleService(monday7am)
	seedBasicData(store)
	store.persistErr = pkgerrors.ErrStaleRun

	_, err := svc.Generate(context.Background(), testTenant, "", &dto.GenerateScheduleRequest{})
	if !errors.Is(err, pkgerrors.ErrStaleRun) {
		t.Errorf("期望 ErrStaleRun，实际: %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// 查询测试
// ════════════════════════════════════════════════════════════

func TestScheduleService_GetResult(t *testing.T) {
	svc, store := setupTestScheduleService(monday7am)
	ctx := context.Background()

	if _, err := svc.GetResult(ctx, testTenant, ""); !errors.Is(err, ErrNoActiveRun) {
		t.Errorf("期望 ErrNoActiveRun，实际: %v", err)
	}
	if _, err := svc.GetResult(ctx, testTenant, "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("期望 ErrRunNotFound，实际: %v", err)
	}

	seedBasicData(store)
	store.orders = append(store.orders, model.Order{
		OrderNumber: "O9", TenantID: testTenant, ProductCode: "P1", Quantity: -1, DueDate: dueDate(6), Status: model.OrderStatusPending,
	})
	gen, err := svc.Generate(ctx, testTenant, "", &dto.GenerateScheduleRequest{})
	if err != nil {
		t.Fatalf("Generate 应成功: %v", err)
	}

	result, err := svc.GetResult(ctx, testTenant, "")
	if err != nil {
		t.Fatalf("GetResult 应成功: %v", err)
	}
	if result.RunID != gen.RunID || len(result.Entries) != 3 {
		t.Errorf("批次详情不正确: run=%s entries=%d", result.RunID, len(result.Entries))
	}
	if result.Warnings == nil || len(result.Warnings.SkippedOrders) != 1 {
		t.Fatalf("期望告警中有 1 个未排入订单，实际: %+v", result.Warnings)
	}
	if result.Warnings.SkippedOrders[0].OrderNumber != "O9" {
		t.Errorf("未排入订单应为 O9，实际=%s", result.Warnings.SkippedOrders[0].OrderNumber)
	}
	if result.Metrics.Utilization != gen.Metrics.Utilization {
		t.Error("批次指标快照应与生成时一致")
	}
}

func TestScheduleService_GetGantt(t *testing.T) {
	svc, store := setupTestScheduleService(monday7am)
	seedBasicData(store)
	ctx := context.Background()

	gen, err := svc.Generate(ctx, testTenant, "", &dto.GenerateScheduleRequest{})
	if err != nil {
		t.Fatalf("Generate 应成功: %v", err)
	}

	gantt, err := svc.GetGantt(ctx, testTenant, gen.RunID)
	if err != nil {
		t.Fatalf("GetGantt 应成功: %v", err)
	}
	if len(gantt.Machines) != 2 {
		t.Fatalf("期望 2 台机台，实际=%d", len(gantt.Machines))
	}
	m1, m2 := gantt.Machines[0], gantt.Machines[1]
	if m1.MachineID != "M1" || m1.MachineName != "1号注塑机" || len(m1.Tasks) != 1 {
		t.Errorf("M1 行不正确: %+v", m1)
	}
	if m2.MachineID != "M2" || len(m2.Tasks) != 2 {
		t.Fatalf("M2 行不正确: %+v", m2)
	}
	if m2.Tasks[0].OrderNumber != "O1" || m2.Tasks[1].OrderNumber != "O3" {
		t.Errorf("M2 任务应按开工时间排序，实际 %s, %s", m2.Tasks[0].OrderNumber, m2.Tasks[1].OrderNumber)
	}
}

func TestScheduleService_GetWeeklySummary(t *testing.T) {
	svc, store := setupTestScheduleService(monday7am)
	ctx := context.Background()

	empty, err := svc.GetWeeklySummary(ctx, testTenant, &dto.WeeklySummaryQuery{})
	if err != nil {
		t.Fatalf("无批次时应返回空汇总: %v", err)
	}
	if len(empty.Days) != 0 || empty.From != "2025-03-03" {
		t.Errorf("空汇总不正确: %+v", empty)
	}

	seedBasicData(store)
	if _, err := svc.Generate(ctx, testTenant, "", &dto.GenerateScheduleRequest{}); err != nil {
		t.Fatalf("Generate 应成功: %v", err)
	}

	summary, err := svc.GetWeeklySummary(ctx, testTenant, &dto.WeeklySummaryQuery{From: "2025-03-03", Days: 7})
	if err != nil {
		t.Fatalf("GetWeeklySummary 应成功: %v", err)
	}
	if len(summary.Days) != 7 {
		t.Fatalf("汇总应补齐到请求的 7 天，实际=%d", len(summary.Days))
	}
	day := summary.Days[0]
	if day.DayOfWeek != "Mon" || day.ScheduledQuantity != 250 || day.EquipmentCount != 2 || day.Utilization != 20 {
		t.Errorf("单日汇总不正确: %+v", day)
	}
	for _, d := range summary.Days[1:] {
		if d.ScheduledQuantity != 0 || d.EquipmentCount != 0 || d.Utilization != 0 {
			t.Errorf("无排产的日期应为 0: %+v", d)
		}
	}
	if last := summary.Days[6]; last.Date != "2025-03-09" || last.DayOfWeek != "Sun" {
		t.Errorf("最后一天不正确: %+v", last)
	}

	again, _ := svc.GetWeeklySummary(ctx, testTenant, &dto.WeeklySummaryQuery{From: "2025-03-03", Days: 7})
	if again != summary {
		t.Error("第二次查询应命中缓存")
	}

	if _, err := svc.Generate(ctx, testTenant, "", &dto.GenerateScheduleRequest{}); err != nil {
		t.Fatalf("重新 Generate 应成功: %v", err)
	}
	if n := svc.summary.ItemCount(); n != 0 {
		t.Errorf("生成新批次后缓存应失效，剩余 %d 项", n)
	}

	if _, err := svc.GetWeeklySummary(ctx, testTenant, &dto.WeeklySummaryQuery{From: "03/03/2025"}); !errors.Is(err, ErrInvalidSummaryDate) {
		t.Errorf("期望 ErrInvalidSummaryDate，实际: %v", err)
	}
}

func TestScheduleService_ExportMachineCalendar(t *testing.T) {
	svc, store := setupTestScheduleService(monday7am)
	seedBasicData(store)
	ctx := context.Background()

	if _, err := svc.ExportMachineCalendar(ctx, testTenant, "M9"); !errors.Is(err, ErrMachineNotFound) {
		t.Errorf("期望 ErrMachineNotFound，实际: %v", err)
	}

	gen, err := svc.Generate(ctx, testTenant, "", &dto.GenerateScheduleRequest{})
	if err != nil {
		t.Fatalf("Generate 应成功: %v", err)
	}

	ics, err := svc.ExportMachineCalendar(ctx, testTenant, "M2")
	if err != nil {
		t.Fatalf("ExportMachineCalendar 应成功: %v", err)
	}
	if !strings.Contains(ics, "BEGIN:VCALENDAR") {
		t.Error("应输出 iCalendar 文本")
	}
	if n := strings.Count(ics, "BEGIN:VEVENT"); n != 2 {
		t.Errorf("M2 期望 2 个事件，实际=%d", n)
	}
	for _, e := range gen.Entries {
		if e.MachineID == "M2" && !strings.Contains(ics, e.ScheduleID) {
			t.Errorf("日历应包含条目 %s", e.ScheduleID)
		}
	}
}
