package payroll

import (
	"context"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/actor"
)

type PayrollService interface {
	// Components
	CreateComponent(ctx context.Context, a actor.Actor, req CreateSalaryComponentRequest) (SalaryComponentResponse, error)
	GetComponent(ctx context.Context, a actor.Actor, id string) (SalaryComponentResponse, error)
	ListComponents(ctx context.Context, a actor.Actor, activeOnly bool) ([]SalaryComponentResponse, error)
	UpdateComponent(ctx context.Context, a actor.Actor, req UpdateSalaryComponentRequest) (SalaryComponentResponse, error)
	DeleteComponent(ctx context.Context, a actor.Actor, id string) error

	// Salary profiles
	GetSalaryProfile(ctx context.Context, a actor.Actor, employeeID string) (SalaryProfileResponse, error)
	UpsertSalaryProfile(ctx context.Context, a actor.Actor, req UpsertSalaryProfileRequest) (SalaryProfileResponse, error)

	// Runs
	GenerateRun(ctx context.Context, a actor.Actor, req GenerateRunRequest) (RunResponse, error)
	SubmitRun(ctx context.Context, a actor.Actor, runID string) (RunResponse, error)
	RejectRun(ctx context.Context, a actor.Actor, runID string) (RunResponse, error)
	ApproveRun(ctx context.Context, a actor.Actor, runID string) (RunResponse, error)
	MarkItemPaid(ctx context.Context, a actor.Actor, runID string, itemID string) (MarkItemPaidResponse, error)
	GetRun(ctx context.Context, a actor.Actor, runID string) (RunResponse, error)
	ListRuns(ctx context.Context, a actor.Actor, filter RunFilter) (ListRunResponse, error)

	// Documents
	ExportRun(ctx context.Context, a actor.Actor, runID string) ([]byte, string, error)
	DownloadPayslip(ctx context.Context, a actor.Actor, runID string, itemID string) ([]byte, string, error)
}

// PayslipNotifier delivers a paid item's payslip. Failures never affect payment state.
type PayslipNotifier interface {
	Notify(ctx context.Context, run Run, item Item) error
}
