package service

import (
	"context"
	"sort"
	"sync"

	"gorm.io/gorm"

	"github.com/ockci/smartflow/backend/internal/model"
	"github.com/ockci/smartflow/backend/internal/repository"
	pkgerrors "github.com/ockci/smartflow/backend/pkg/errors"
)

// ── 内存数据库 ──
// 所有 mock repo 共享同一份数据，PersistRun 需要同时改动订单与条目

type memStore struct {
	mu        sync.Mutex
	orders    []model.Order
	products  []model.Product
	equipment []model.Equipment
	runs      []model.ScheduleRun
	entries   []model.ScheduleEntry

	persistErr error // 非 nil 时 PersistRun 直接返回该错误
	persisted  int
}

func newMemStore() *memStore {
	return &memStore{}
}

func (m *memStore) toRepository() *repository.Repository {
	return &repository.Repository{
		Order:     &mockOrderRepo{m},
		Product:   &mockProductRepo{m},
		Equipment: &mockEquipmentRepo{m},
		Schedule:  &mockScheduleRepo{m},
	}
}

func (m *memStore) order(number string) *model.Order {
	for i := range m.orders {
		if m.orders[i].OrderNumber == number {
			return &m.orders[i]
		}
	}
	return nil
}

func (m *memStore) activeRun(tenantID string) *model.ScheduleRun {
	for i := range m.runs {
		if m.runs[i].TenantID == tenantID && m.runs[i].Status == model.RunStatusActive {
			return &m.runs[i]
		}
	}
	return nil
}

func sortEntries(list []model.ScheduleEntry) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].MachineID != list[j].MachineID {
			return list[i].MachineID < list[j].MachineID
		}
		return list[i].StartTime.Before(list[j].StartTime)
	})
}

// ── Mock OrderRepository ──

type mockOrderRepo struct{ m *memStore }

func (r *mockOrderRepo) ListSchedulable(_ context.Context, tenantID string, orderNumbers []string) ([]model.Order, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	want := make(map[string]bool, len(orderNumbers))
	for _, n := range orderNumbers {
		want[n] = true
	}
	started := make(map[string]bool)
	for _, e := range r.m.entries {
		if e.Status != model.EntryStatusPending {
			started[e.OrderNumber] = true
		}
	}

	var result []model.Order
	for _, o := range r.m.orders {
		if o.TenantID != tenantID {
			continue
		}
		if len(want) > 0 && !want[o.OrderNumber] {
			continue
		}
		if o.Status == model.OrderStatusPending ||
			(o.Status == model.OrderStatusScheduled && !started[o.OrderNumber]) {
			result = append(result, o)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].OrderNumber < result[j].OrderNumber })
	return result, nil
}

// ── Mock ProductRepository ──

type mockProductRepo struct{ m *memStore }

func (r *mockProductRepo) ListByCodes(_ context.Context, tenantID string, codes []string) ([]model.Product, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	want := make(map[string]bool, len(codes))
	for _, c := range codes {
		want[c] = true
	}
	var result []model.Product
	for _, p := range r.m.products {
		if p.TenantID == tenantID && want[p.ProductCode] {
			result = append(result, p)
		}
	}
	return result, nil
}

// ── Mock EquipmentRepository ──

type mockEquipmentRepo struct{ m *memStore }

func (r *mockEquipmentRepo) ListActive(_ context.Context, tenantID string) ([]model.Equipment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var result []model.Equipment
	for _, eq := range r.m.equipment {
		if eq.TenantID == tenantID && eq.Status == model.EquipmentStatusActive {
			result = append(result, eq)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].MachineID < result[j].MachineID })
	return result, nil
}

func (r *mockEquipmentRepo) GetByMachineID(_ context.Context, tenantID, machineID string) (*model.Equipment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, eq := range r.m.equipment {
		if eq.TenantID == tenantID && eq.MachineID == machineID {
			out := eq
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock ScheduleRepository ──

type mockScheduleRepo struct{ m *memStore }

func (r *mockScheduleRepo) GetActiveRun(_ context.Context, tenantID string) (*model.ScheduleRun, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if run := r.m.activeRun(tenantID); run != nil {
		out := *run
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockScheduleRepo) GetRun(_ context.Context, tenantID, runID string) (*model.ScheduleRun, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, run := range r.m.runs {
		if run.TenantID == tenantID && run.RunID == runID {
			out := run
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockScheduleRepo) ListEntriesByRun(_ context.Context, runID string) ([]model.ScheduleEntry, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var result []model.ScheduleEntry
	for _, e := range r.m.entries {
		if e.RunID == runID {
			result = append(result, e)
		}
	}
	sortEntries(result)
	return result, nil
}

func (r *mockScheduleRepo) ListEntriesByMachine(_ context.Context, runID, machineID string) ([]model.ScheduleEntry, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var result []model.ScheduleEntry
	for _, e := range r.m.entries {
		if e.RunID == runID && e.MachineID == machineID {
			result = append(result, e)
		}
	}
	sortEntries(result)
	return result, nil
}

func (r *mockScheduleRepo) ListOpenEntries(_ context.Context, tenantID string) ([]model.ScheduleEntry, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var result []model.ScheduleEntry
	for _, e := range r.m.entries {
		if e.TenantID == tenantID &&
			(e.Status == model.EntryStatusPending || e.Status == model.EntryStatusInProgress) {
			result = append(result, e)
		}
	}
	sortEntries(result)
	return result, nil
}

func (r *mockScheduleRepo) GetEntry(_ context.Context, tenantID, entryID string) (*model.ScheduleEntry, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, e := range r.m.entries {
		if e.TenantID == tenantID && e.EntryID == entryID {
			out := e
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockScheduleRepo) UpdateEntryStatus(_ context.Context, entry *model.ScheduleEntry) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for i := range r.m.entries {
		stored := &r.m.entries[i]
		if stored.EntryID != entry.EntryID {
			continue
		}
		if stored.Version != entry.Version {
			return pkgerrors.ErrOptimisticLock
		}
		entry.Version++
		*stored = *entry
		return nil
	}
	return pkgerrors.ErrOptimisticLock
}

func (r *mockScheduleRepo) PersistRun(_ context.Context, p repository.PersistRunParams) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if r.m.persistErr != nil {
		return r.m.persistErr
	}

	current := r.m.activeRun(p.TenantID)
	switch {
	case current == nil && p.PreviousRunID != "":
		return pkgerrors.ErrStaleRun
	case current != nil && current.RunID != p.PreviousRunID:
		return pkgerrors.ErrStaleRun
	}

	replaced := make(map[string]bool, len(p.ReplacedOrders))
	for _, n := range p.ReplacedOrders {
		replaced[n] = true
	}
	kept := r.m.entries[:0]
	for _, e := range r.m.entries {
		if e.TenantID == p.TenantID && e.Status == model.EntryStatusPending && replaced[e.OrderNumber] {
			continue
		}
		kept = append(kept, e)
	}
	r.m.entries = kept

	if current != nil {
		current.Status = model.RunStatusSuperseded
	}
	r.m.runs = append(r.m.runs, *p.Run)

	for i := range r.m.entries {
		if p.PreviousRunID != "" && r.m.entries[i].RunID == p.PreviousRunID &&
			r.m.entries[i].Status == model.EntryStatusPending {
			r.m.entries[i].RunID = p.Run.RunID
		}
	}
	for _, e := range p.Entries {
		e.RunID = p.Run.RunID
		r.m.entries = append(r.m.entries, e)
	}

	for _, n := range p.ReleasedOrders {
		if o := r.m.order(n); o != nil && o.Status == model.OrderStatusScheduled {
			o.Status = model.OrderStatusPending
		}
	}
	for _, e := range p.Entries {
		o := r.m.order(e.OrderNumber)
		if o == nil || (o.Status != model.OrderStatusPending && o.Status != model.OrderStatusScheduled) {
			return pkgerrors.ErrStaleRun
		}
		o.Status = model.OrderStatusScheduled
	}

	r.m.persisted++
	return nil
}
