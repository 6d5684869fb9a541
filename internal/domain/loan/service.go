package loan

import (
	"context"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/actor"
)

type LoanService interface {
	Create(ctx context.Context, a actor.Actor, req CreateLoanRequest) (LoanResponse, error)
	Get(ctx context.Context, a actor.Actor, id string) (LoanDetailResponse, error)
	List(ctx context.Context, a actor.Actor, filter LoanFilter) ([]LoanResponse, error)
	Approve(ctx context.Context, a actor.Actor, id string) (LoanResponse, error)
	Reject(ctx context.Context, a actor.Actor, req RejectLoanRequest) (LoanResponse, error)
	Repay(ctx context.Context, a actor.Actor, req RepayLoanRequest) (LoanResponse, error)
}
