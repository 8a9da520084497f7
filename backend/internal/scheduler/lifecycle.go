package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"
)

// EntryStatus 排产条目状态
type EntryStatus string

const (
	StatusPending    EntryStatus = "pending"
	StatusInProgress EntryStatus = "in_progress"
	StatusCompleted  EntryStatus = "completed"
)

// Valid 是否为已知状态
func (s EntryStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

const (
	EventStart    = "start"    // 开始生产
	EventComplete = "complete" // 完成生产
)

// ErrInvalidTransition 非法状态流转
var ErrInvalidTransition = errors.New("不允许的状态流转")

var lifecycleEvents = fsm.Events{
	{Name: EventStart, Src: []string{string(StatusPending)}, Dst: string(StatusInProgress)},
	{Name: EventComplete, Src: []string{string(StatusInProgress)}, Dst: string(StatusCompleted)},
}

// eventFor 目标状态 → 触发事件
func eventFor(target EntryStatus) (string, bool) {
	switch target {
	case StatusInProgress:
		return EventStart, true
	case StatusCompleted:
		return EventComplete, true
	}
	return "", false
}

// Transition 校验 current → target 是否合法
//
// 状态机只允许 pending → in_progress → completed，不可跳步、不可回退；
// 已完成的条目不再接受任何流转。返回的错误均包装 ErrInvalidTransition。
func Transition(ctx context.Context, current, target EntryStatus) error {
	if !current.Valid() {
		return fmt.Errorf("%w: 未知的当前状态 %q", ErrInvalidTransition, current)
	}
	event, ok := eventFor(target)
	if !ok {
		return fmt.Errorf("%w: 不支持的目标状态 %q", ErrInvalidTransition, target)
	}

	// 每次调用新建状态机，条目状态以数据库为准
	machine := fsm.NewFSM(string(current), lifecycleEvents, fsm.Callbacks{})
	if err := machine.Event(ctx, event); err != nil {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, current, target)
	}
	return nil
}

// AvailableTransitions 当前状态下可流转到的目标状态
func AvailableTransitions(current EntryStatus) []EntryStatus {
	machine := fsm.NewFSM(string(current), lifecycleEvents, fsm.Callbacks{})
	var out []EntryStatus
	for _, target := range []EntryStatus{StatusInProgress, StatusCompleted} {
		event, _ := eventFor(target)
		if machine.Can(event) {
			out = append(out, target)
		}
	}
	return out
}
