package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ── 排产引擎输入/输出类型 ──
// 引擎只依赖这些纯值类型，不感知 GORM 模型与 HTTP 层

// Order 待排产订单
type Order struct {
	OrderNumber string
	ProductCode string
	Quantity    int
	DueDate     time.Time // 仅日期有效（工厂时区 00:00）
	Priority    int       // 越小越优先
	IsUrgent    bool
}

// Product 产品工艺参数
type Product struct {
	ProductCode     string
	RequiredTonnage *int // nil = 任意机台
	CycleTime       *int // 单模周期（秒），nil = 未知
	CavityCount     int  // 模穴数，<1 时按 1 处理
}

// Machine 注塑机
type Machine struct {
	MachineID       string
	Tonnage         int
	CapacityPerHour int
	ShiftStart      ClockTime
	ShiftEnd        ClockTime
}

// ShiftMinutes 每日班次时长（分钟）
func (m Machine) ShiftMinutes() int {
	return int(m.ShiftEnd - m.ShiftStart)
}

// Entry 排产结果条目（一次生成中每个订单至多一条）
type Entry struct {
	OrderNumber     string
	ProductCode     string
	MachineID       string
	Quantity        int
	Start           time.Time
	End             time.Time
	DurationMinutes int // End - Start
	WorkMinutes     int // 实际占用的生产时间
	DueDate         time.Time
	IsOnTime        bool
	RateSource      RateSource
}

// ClockTime 一天内的时刻，单位：自 00:00 起的分钟数
type ClockTime int

// ParseClock 解析 "HH:MM" 或 "HH:MM:SS"
func ParseClock(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("无效的时刻格式 %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("无效的小时 %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("无效的分钟 %q", s)
	}
	sec := 0
	if len(parts) == 3 {
		sec, err = strconv.Atoi(parts[2])
		if err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("无效的秒 %q", s)
		}
	}
	if h == 24 && (m != 0 || sec != 0) {
		return 0, fmt.Errorf("无效的时刻 %q", s)
	}
	// 秒按分钟截断
	return ClockTime(h*60 + m), nil
}

// MustClock 仅用于常量/测试场景
func MustClock(s string) ClockTime {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String 输出 "HH:MM"
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// On 返回 day 所在日期上该时刻对应的绝对时间
func (c ClockTime) On(day time.Time, loc *time.Location) time.Time {
	y, mo, d := day.In(loc).Date()
	return time.Date(y, mo, d, int(c)/60, int(c)%60, 0, 0, loc)
}

// DateOf 截断为工厂时区下的日历日期
func DateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
