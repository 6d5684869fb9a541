package advance

import "errors"

var (
	ErrAdvanceNotFound    = errors.New("salary advance not found")
	ErrAdvanceNotPending  = errors.New("salary advance is not pending")
	ErrAdvanceNotApproved = errors.New("salary advance is not approved")
)
