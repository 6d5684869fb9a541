package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/google/uuid"
)

type runRepository struct {
	s *Store
}

func NewRunRepository(s *Store) payroll.RunRepository {
	return &runRepository{s: s}
}

// LockScope is a no-op: the store's transaction mutex already serializes writers.
func (r *runRepository) LockScope(context.Context, string) error {
	return nil
}

func sameBranch(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *runRepository) GetByScopeForUpdate(_ context.Context, companyID string, period payroll.Period, branchID *string) (payroll.Run, error) {
	var (
		found payroll.Run
		ok    bool
	)
	r.s.read(func(t *tables) {
		for _, run := range t.runs {
			if run.CompanyID == companyID && run.Period() == period && sameBranch(run.BranchID, branchID) {
				found, ok = run, true
				return
			}
		}
	})
	if !ok {
		return payroll.Run{}, payroll.ErrPayrollRunNotFound
	}
	return found, nil
}

func (r *runRepository) GetByID(_ context.Context, id string, companyID string) (payroll.Run, error) {
	var (
		run payroll.Run
		ok  bool
	)
	r.s.read(func(t *tables) {
		run, ok = t.runs[id]
	})
	if !ok || run.CompanyID != companyID {
		return payroll.Run{}, payroll.ErrPayrollRunNotFound
	}
	return run, nil
}

func (r *runRepository) GetByIDForUpdate(ctx context.Context, id string, companyID string) (payroll.Run, error) {
	return r.GetByID(ctx, id, companyID)
}

func (r *runRepository) List(_ context.Context, companyID string, filter payroll.RunFilter) ([]payroll.Run, int64, error) {
	var matched []payroll.Run
	r.s.read(func(t *tables) {
		for _, run := range t.runs {
			if run.CompanyID != companyID {
				continue
			}
			if filter.PeriodMonth != nil && run.PeriodMonth != *filter.PeriodMonth {
				continue
			}
			if filter.PeriodYear != nil && run.PeriodYear != *filter.PeriodYear {
				continue
			}
			if filter.Status != nil && string(run.Status) != *filter.Status {
				continue
			}
			if filter.BranchID != nil && !sameBranch(run.BranchID, filter.BranchID) {
				continue
			}
			matched = append(matched, run)
		}
	})
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].PeriodYear != matched[j].PeriodYear {
			return matched[i].PeriodYear > matched[j].PeriodYear
		}
		if matched[i].PeriodMonth != matched[j].PeriodMonth {
			return matched[i].PeriodMonth > matched[j].PeriodMonth
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start >= len(matched) {
		return []payroll.Run{}, total, nil
	}
	end := min(start+filter.Limit, len(matched))
	return matched[start:end], total, nil
}

func (r *runRepository) Create(ctx context.Context, run payroll.Run) (payroll.Run, error) {
	err := r.s.write(ctx, func(t *tables) error {
		for _, existing := range t.runs {
			if existing.CompanyID == run.CompanyID && existing.Period() == run.Period() && sameBranch(existing.BranchID, run.BranchID) {
				return payroll.ErrRunBusy
			}
		}
		run.ID = uuid.NewString()
		run.CreatedAt = r.s.now()
		run.UpdatedAt = run.CreatedAt
		run.Items = nil
		t.runs[run.ID] = run
		return nil
	})
	if err != nil {
		return payroll.Run{}, err
	}
	return run, nil
}

func (r *runRepository) UpdateStatus(ctx context.Context, run payroll.Run) (payroll.Run, error) {
	var saved payroll.Run
	err := r.s.write(ctx, func(t *tables) error {
		current, ok := t.runs[run.ID]
		if !ok || current.CompanyID != run.CompanyID {
			return payroll.ErrPayrollRunNotFound
		}
		current.Status = run.Status
		current.ProcessedBy = run.ProcessedBy
		current.ProcessedAt = run.ProcessedAt
		current.UpdatedAt = r.s.now()
		t.runs[run.ID] = current
		saved = current
		return nil
	})
	return saved, err
}

func (r *runRepository) UpsertItem(ctx context.Context, item payroll.Item) (payroll.Item, error) {
	var saved payroll.Item
	err := r.s.write(ctx, func(t *tables) error {
		if run, ok := t.runs[item.RunID]; !ok || run.CompanyID != item.CompanyID {
			return payroll.ErrPayrollRunNotFound
		}

		now := r.s.now()
		item.ID = uuid.NewString()
		item.CreatedAt = now
		for _, existing := range t.items {
			if existing.RunID == item.RunID && existing.EmployeeID == item.EmployeeID {
				item.ID = existing.ID
				item.CreatedAt = existing.CreatedAt
				break
			}
		}
		item.PaymentStatus = payroll.PaymentStatusUnpaid
		item.PaidAt = nil
		item.UpdatedAt = now
		item.EmployeeName, item.EmployeeCode, item.EmployeeEmail = nil, nil, nil

		t.items[item.ID] = item
		saved = item
		return nil
	})
	return saved, err
}

func (r *runRepository) DeleteItemsExcept(ctx context.Context, runID string, companyID string, employeeIDs []string) error {
	keep := make(map[string]bool, len(employeeIDs))
	for _, id := range employeeIDs {
		keep[id] = true
	}
	return r.s.write(ctx, func(t *tables) error {
		for id, item := range t.items {
			if item.RunID == runID && item.CompanyID == companyID && !keep[item.EmployeeID] {
				delete(t.items, id)
			}
		}
		return nil
	})
}

func joinEmployee(t *tables, item payroll.Item) payroll.Item {
	if e, ok := t.employees[item.EmployeeID]; ok {
		item.EmployeeName = ptr(e.FullName)
		item.EmployeeCode = ptr(e.EmployeeCode)
		item.EmployeeEmail = e.Email
	}
	return item
}

func (r *runRepository) GetItems(_ context.Context, runID string, companyID string) ([]payroll.Item, error) {
	items := []payroll.Item{}
	r.s.read(func(t *tables) {
		for _, item := range t.items {
			if item.RunID == runID && item.CompanyID == companyID {
				items = append(items, joinEmployee(t, item))
			}
		}
	})
	sort.Slice(items, func(i, j int) bool {
		ci, cj := derefCode(items[i]), derefCode(items[j])
		if ci != cj {
			return ci < cj
		}
		return items[i].EmployeeID < items[j].EmployeeID
	})
	return items, nil
}

func derefCode(item payroll.Item) string {
	if item.EmployeeCode == nil {
		return ""
	}
	return *item.EmployeeCode
}

func (r *runRepository) GetItem(_ context.Context, runID string, itemID string, companyID string) (payroll.Item, error) {
	var (
		item payroll.Item
		ok   bool
	)
	r.s.read(func(t *tables) {
		item, ok = t.items[itemID]
		if ok {
			item = joinEmployee(t, item)
		}
	})
	if !ok || item.RunID != runID || item.CompanyID != companyID {
		return payroll.Item{}, payroll.ErrPayrollItemNotFound
	}
	return item, nil
}

func (r *runRepository) MarkItemPaid(ctx context.Context, runID string, itemID string, companyID string, paidAt time.Time) (payroll.Item, error) {
	var saved payroll.Item
	err := r.s.write(ctx, func(t *tables) error {
		item, ok := t.items[itemID]
		if !ok || item.RunID != runID || item.CompanyID != companyID {
			return payroll.ErrPayrollItemNotFound
		}
		if item.PaymentStatus == payroll.PaymentStatusPaid {
			return payroll.ErrItemAlreadyPaid
		}
		item.PaymentStatus = payroll.PaymentStatusPaid
		item.PaidAt = ptr(paidAt)
		item.UpdatedAt = r.s.now()
		t.items[itemID] = item
		saved = joinEmployee(t, item)
		return nil
	})
	return saved, err
}

func (r *runRepository) CountUnpaidItems(_ context.Context, runID string, companyID string) (int, error) {
	count := 0
	r.s.read(func(t *tables) {
		for _, item := range t.items {
			if item.RunID == runID && item.CompanyID == companyID && item.PaymentStatus == payroll.PaymentStatusUnpaid {
				count++
			}
		}
	})
	return count, nil
}
