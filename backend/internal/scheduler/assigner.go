package scheduler

import (
	"sort"
	"time"
)

// SkipReason 订单未能排入的原因
type SkipReason string

const (
	SkipNoCompatibleMachine SkipReason = "no_compatible_machine"
	SkipInvalidQuantity     SkipReason = "invalid_quantity"
)

// SkippedOrder 本次未排入的订单，保持 pending
type SkippedOrder struct {
	OrderNumber string
	Reason      SkipReason
}

// MachineIssue 因配置无效而被排除的机台
type MachineIssue struct {
	MachineID string
	Reason    string
}

// Options 单次排产参数
type Options struct {
	Origin            time.Time      // 所有班次时钟的起点（now 或排产窗口起点）
	Location          *time.Location // 工厂时区
	Overflow          OverflowPolicy
	ChangeoverMinutes int // 每单附加的换模时间
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}

// Input 排产输入：pending 订单、active 机台、产品主数据
type Input struct {
	Orders   []Order
	Machines []Machine
	Products map[string]Product

	// BusyUntil 机台被保留条目（已开工、或不参与本次重排）占用到的时刻
	BusyUntil map[string]time.Time
}

// Result 一次排产的完整结果
type Result struct {
	Entries          []Entry
	Skipped          []SkippedOrder
	ExcludedMachines []MachineIssue
	Machines         []Machine // 实际参与排产的机台（按 MachineID 升序）
	Metrics          Metrics
}

// ValidateMachines 过滤班次配置无效的机台，返回按 MachineID 升序的有效机台
func ValidateMachines(machines []Machine) ([]Machine, []MachineIssue) {
	valid := make([]Machine, 0, len(machines))
	var issues []MachineIssue
	seen := make(map[string]bool, len(machines))

	for _, m := range machines {
		switch {
		case seen[m.MachineID]:
			issues = append(issues, MachineIssue{MachineID: m.MachineID, Reason: "机台编号重复"})
			continue
		case m.ShiftEnd <= m.ShiftStart:
			issues = append(issues, MachineIssue{
				MachineID: m.MachineID,
				Reason:    "班次结束时刻必须晚于开始时刻 (" + m.ShiftStart.String() + "-" + m.ShiftEnd.String() + ")",
			})
			continue
		}
		seen[m.MachineID] = true
		valid = append(valid, m)
	}

	sort.Slice(valid, func(i, j int) bool { return valid[i].MachineID < valid[j].MachineID })
	return valid, issues
}

// Plan 贪心排产
//
// 订单按优先级逐个处理：在所有可排机台中选择最早可开工者（同刻按机台编号升序），
// 立即提交预留，不回溯、不重排。同样的输入与 Origin 总是得到同样的结果。
func Plan(in Input, opts Options) *Result {
	loc := opts.location()
	machines, issues := ValidateMachines(in.Machines)

	clocks := make(map[string]*ShiftClock, len(machines))
	for _, m := range machines {
		origin := opts.Origin
		if busy, ok := in.BusyUntil[m.MachineID]; ok && busy.After(origin) {
			origin = busy
		}
		clocks[m.MachineID] = NewShiftClock(m, origin, loc, opts.Overflow)
	}

	orders := make([]Order, len(in.Orders))
	for i, o := range in.Orders {
		o.DueDate = calendarDate(o.DueDate, loc)
		orders[i] = o
	}

	res := &Result{
		Entries:          make([]Entry, 0, len(orders)),
		ExcludedMachines: issues,
		Machines:         machines,
	}

	for _, o := range Prioritize(orders) {
		if o.Quantity <= 0 {
			res.Skipped = append(res.Skipped, SkippedOrder{OrderNumber: o.OrderNumber, Reason: SkipInvalidQuantity})
			continue
		}

		var product *Product
		if p, ok := in.Products[o.ProductCode]; ok {
			product = &p
		}

		type candidate struct {
			machine    Machine
			rate       Rate
			work       int
			start, end time.Time
		}
		var best *candidate

		for _, m := range machines {
			rate, ok := Eligible(product, m)
			if !ok {
				continue
			}
			work := rate.Minutes(o.Quantity) + opts.ChangeoverMinutes
			start, end := clocks[m.MachineID].Peek(time.Duration(work) * time.Minute)
			// machines 已按编号升序，严格早于才替换即可保证同刻取编号小者
			if best == nil || start.Before(best.start) {
				best = &candidate{machine: m, rate: rate, work: work, start: start, end: end}
			}
		}

		if best == nil {
			res.Skipped = append(res.Skipped, SkippedOrder{OrderNumber: o.OrderNumber, Reason: SkipNoCompatibleMachine})
			continue
		}

		start, end := clocks[best.machine.MachineID].Reserve(time.Duration(best.work) * time.Minute)
		res.Entries = append(res.Entries, Entry{
			OrderNumber:     o.OrderNumber,
			ProductCode:     o.ProductCode,
			MachineID:       best.machine.MachineID,
			Quantity:        o.Quantity,
			Start:           start,
			End:             end,
			DurationMinutes: int(end.Sub(start) / time.Minute),
			WorkMinutes:     best.work,
			DueDate:         o.DueDate,
			IsOnTime:        IsOnTime(end, o.DueDate, loc),
			RateSource:      best.rate.Source,
		})
	}

	res.Metrics = ComputeMetrics(res.Entries, machines, loc)
	return res
}

// IsOnTime 完工日期（工厂时区）不晚于交期即为准时
func IsOnTime(end, dueDate time.Time, loc *time.Location) bool {
	return !DateOf(end, loc).After(calendarDate(dueDate, loc))
}

// calendarDate 取 t 自身时区下的年月日，映射到 loc 的 00:00
// DATE 列从数据库读出时通常带 UTC，不能先转时区再截断
func calendarDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
