package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrStaleRun 批次已被新一轮排产取代，落库时检测到并发生成
var ErrStaleRun = errors.New("排产批次已被替换，请重新生成")
