package records

import "KCMS-gateway/internal/platform/apierr"

var (
	ErrRecordNotFound    = apierr.ErrNotFound("lend record not found")
	ErrNotOwner          = apierr.ErrForbidden("operate user does not own the record")
	ErrNotReturnable     = apierr.ErrConflict("record status is not returnable")
	ErrInvalidTransition = apierr.ErrConflict("status transition not allowed")
	ErrStatusChanged     = apierr.ErrConflict("record status was changed by another operation")
)
