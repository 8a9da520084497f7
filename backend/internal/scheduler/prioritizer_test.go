package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func orderNumbers(orders []Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.OrderNumber
	}
	return out
}

func TestPrioritize(t *testing.T) {
	in := []Order{
		{OrderNumber: "ORD-005", Priority: 1, DueDate: at("2024-03-10", "00:00")},
		{OrderNumber: "ORD-004", Priority: 3, DueDate: at("2024-03-01", "00:00"), IsUrgent: true},
		{OrderNumber: "ORD-003", Priority: 1, DueDate: at("2024-03-08", "00:00")},
		{OrderNumber: "ORD-002", Priority: 2, DueDate: at("2024-03-02", "00:00")},
		{OrderNumber: "ORD-001", Priority: 1, DueDate: at("2024-03-08", "00:00")},
	}

	got := Prioritize(in)

	assert.Equal(t, []string{"ORD-004", "ORD-001", "ORD-003", "ORD-005", "ORD-002"}, orderNumbers(got))
	assert.Equal(t, "ORD-005", in[0].OrderNumber, "入参不应被修改")
}

func TestPrioritize_UrgentOverridesPriority(t *testing.T) {
	in := []Order{
		{OrderNumber: "A", Priority: 1, DueDate: at("2024-03-01", "00:00")},
		{OrderNumber: "B", Priority: 9, DueDate: at("2024-12-31", "00:00"), IsUrgent: true},
	}
	assert.Equal(t, []string{"B", "A"}, orderNumbers(Prioritize(in)))
}

func TestPrioritize_Empty(t *testing.T) {
	assert.Empty(t, Prioritize(nil))
}
