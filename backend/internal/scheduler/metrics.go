package scheduler

import (
	"time"

	"github.com/shopspring/decimal"
)

// Metrics 一次排产的指标快照
type Metrics struct {
	OnTimeRate   float64 `json:"on_time_rate"` // 百分比，两位小数
	Utilization  float64 `json:"utilization"`  // 百分比，两位小数，不强制截断到 100
	TotalOrders  int     `json:"total_orders"`
	OnTimeOrders int     `json:"on_time_orders"`
	LateOrders   int     `json:"late_orders"`
}

// DaySummary 周汇总中的单日数据
type DaySummary struct {
	Date              time.Time `json:"date"`
	DayOfWeek         string    `json:"day_of_week"`
	ScheduledQuantity int       `json:"scheduled_quantity"`
	EquipmentCount    int       `json:"equipment_count"`
	Utilization       float64   `json:"utilization"`
}

// ComputeMetrics 计算准时率与利用率
//
// 利用率分母 = 参与机台每日班次分钟之和 × 覆盖天数，
// 覆盖天数为最早开工日到最晚完工日（含首尾）。
func ComputeMetrics(entries []Entry, machines []Machine, loc *time.Location) Metrics {
	if loc == nil {
		loc = time.Local
	}
	m := Metrics{TotalOrders: len(entries)}
	if len(entries) == 0 {
		return m
	}

	var workMinutes int64
	first, last := entries[0].Start, entries[0].End
	for _, e := range entries {
		if e.IsOnTime {
			m.OnTimeOrders++
		}
		workMinutes += int64(e.WorkMinutes)
		if e.Start.Before(first) {
			first = e.Start
		}
		if e.End.After(last) {
			last = e.End
		}
	}
	m.LateOrders = m.TotalOrders - m.OnTimeOrders
	m.OnTimeRate = percent(int64(m.OnTimeOrders), int64(m.TotalOrders))

	days := daysBetween(DateOf(first, loc), DateOf(last, loc)) + 1
	m.Utilization = percent(workMinutes, int64(days)*shiftMinutes(machines))
	return m
}

// WeeklySummary 按开工日分桶的日汇总
//
// 序列从 from 所在日期开始，固定输出 days 天，没有排产的日期照常输出（数量 0、利用率 0）。
// 批次中没有任何条目在 from 当天或之后完工时返回空序列。
func WeeklySummary(entries []Entry, machines []Machine, from time.Time, days int, loc *time.Location) []DaySummary {
	if loc == nil {
		loc = time.Local
	}
	if days <= 0 {
		return []DaySummary{}
	}
	start := DateOf(from, loc)
	end := start.AddDate(0, 0, days)

	type bucket struct {
		quantity int
		work     int64
		machines map[string]struct{}
	}
	buckets := make([]bucket, days)
	reaches := false

	for _, e := range entries {
		if !DateOf(e.End, loc).Before(start) {
			reaches = true
		}
		day := DateOf(e.Start, loc)
		if day.Before(start) || !day.Before(end) {
			continue
		}
		i := daysBetween(start, day)
		b := &buckets[i]
		if b.machines == nil {
			b.machines = make(map[string]struct{})
		}
		b.quantity += e.Quantity
		b.work += int64(e.WorkMinutes)
		b.machines[e.MachineID] = struct{}{}
	}
	if !reaches {
		return []DaySummary{}
	}

	capacity := shiftMinutes(machines)
	out := make([]DaySummary, 0, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		b := buckets[i]
		out = append(out, DaySummary{
			Date:              day,
			DayOfWeek:         day.Weekday().String()[:3],
			ScheduledQuantity: b.quantity,
			EquipmentCount:    len(b.machines),
			Utilization:       percent(b.work, capacity),
		})
	}
	return out
}

func shiftMinutes(machines []Machine) int64 {
	var total int64
	for _, m := range machines {
		if n := m.ShiftMinutes(); n > 0 {
			total += int64(n)
		}
	}
	return total
}

// daysBetween 两个日期（均为 loc 下 00:00）之间的天数，按日历日计算以避开夏令时
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// percent 返回 100 × num / den，保留两位小数；den 为 0 时返回 0
func percent(num, den int64) float64 {
	if den <= 0 {
		return 0
	}
	return decimal.NewFromInt(num).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(den), 2).
		InexactFloat64()
}
