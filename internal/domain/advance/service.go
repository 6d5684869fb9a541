package advance

import (
	"context"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/actor"
)

type AdvanceService interface {
	Create(ctx context.Context, a actor.Actor, req CreateAdvanceRequest) (AdvanceResponse, error)
	Get(ctx context.Context, a actor.Actor, id string) (AdvanceResponse, error)
	List(ctx context.Context, a actor.Actor, filter AdvanceFilter) ([]AdvanceResponse, error)
	Approve(ctx context.Context, a actor.Actor, id string) (AdvanceResponse, error)
	Reject(ctx context.Context, a actor.Actor, req RejectAdvanceRequest) (AdvanceResponse, error)
}
