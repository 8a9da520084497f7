package scheduler

import "sort"

// Prioritize 返回排序后的订单副本，不修改入参
//
// 排序键依次为：紧急单优先 → 优先级升序 → 交期升序 → 订单号升序。
// 使用稳定排序，键完全相同的订单保持输入顺序。
func Prioritize(orders []Order) []Order {
	sorted := make([]Order, len(orders))
	copy(sorted, orders)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.IsUrgent != b.IsUrgent {
			return a.IsUrgent
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate)
		}
		return a.OrderNumber < b.OrderNumber
	})
	return sorted
}
