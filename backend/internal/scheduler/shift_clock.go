package scheduler

import (
	"fmt"
	"time"
)

// OverflowPolicy 作业超出当班结束时刻时的处理方式
type OverflowPolicy string

const (
	// OverflowCarry 剩余时长顺延到下一个班次窗口（默认）
	OverflowCarry OverflowPolicy = "carry"
	// OverflowContinuous 作业连续生产，越过班次结束时刻
	OverflowContinuous OverflowPolicy = "continuous"
)

// ParseOverflowPolicy 解析配置值，空串视为 carry
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch OverflowPolicy(s) {
	case "", OverflowCarry:
		return OverflowCarry, nil
	case OverflowContinuous:
		return OverflowContinuous, nil
	default:
		return "", fmt.Errorf("未知的超班策略 %q", s)
	}
}

// ShiftClock 单台机台的班次时钟
//
// cursor 表示机台最早空闲时刻，只进不退。
// 每次生成排产时按机台新建，生成结束即丢弃，不跨请求共享。
type ShiftClock struct {
	start  ClockTime
	end    ClockTime
	loc    *time.Location
	policy OverflowPolicy
	cursor time.Time
}

// NewShiftClock 以 origin 为起点创建班次时钟
func NewShiftClock(m Machine, origin time.Time, loc *time.Location, policy OverflowPolicy) *ShiftClock {
	if loc == nil {
		loc = time.Local
	}
	if policy == "" {
		policy = OverflowCarry
	}
	return &ShiftClock{
		start:  m.ShiftStart,
		end:    m.ShiftEnd,
		loc:    loc,
		policy: policy,
		cursor: origin.In(loc),
	}
}

// Cursor 当前最早空闲时刻
func (c *ShiftClock) Cursor() time.Time {
	return c.cursor
}

// Peek 计算从 cursor 起排入时长 d 的 (start, end)，不修改 cursor
func (c *ShiftClock) Peek(d time.Duration) (time.Time, time.Time) {
	return c.place(d)
}

// Reserve 预留时长 d 并把 cursor 推进到 end
func (c *ShiftClock) Reserve(d time.Duration) (time.Time, time.Time) {
	start, end := c.place(d)
	if end.After(c.cursor) {
		c.cursor = end
	}
	return start, end
}

// align 把时刻对齐到班次窗口内：早于开班 → 当日开班；到达/晚于收班 → 次日开班
func (c *ShiftClock) align(t time.Time) time.Time {
	shiftStart := c.start.On(t, c.loc)
	if t.Before(shiftStart) {
		return shiftStart
	}
	if !t.Before(c.end.On(t, c.loc)) {
		return c.start.On(c.nextDay(t), c.loc)
	}
	return t
}

func (c *ShiftClock) nextDay(t time.Time) time.Time {
	return DateOf(t, c.loc).AddDate(0, 0, 1)
}

func (c *ShiftClock) place(d time.Duration) (time.Time, time.Time) {
	start := c.align(c.cursor)
	if c.policy == OverflowContinuous {
		return start, start.Add(d)
	}

	// 单个订单不拆分为多条记录：当班放不下的剩余时长整体顺延到下一班次
	cur, remaining := start, d
	for {
		avail := c.end.On(cur, c.loc).Sub(cur)
		if remaining <= avail {
			return start, cur.Add(remaining)
		}
		remaining -= avail
		cur = c.start.On(c.nextDay(cur), c.loc)
	}
}
