package swap

import (
	"github.com/lockhaven/swapcore/errors"
)

// x/swap reserves error codes 1020-1039.
var (
	// ErrExceedsRemaining is returned when a fill is larger than the
	// order remaining amount.
	ErrExceedsRemaining = errors.Register(1020, "fill exceeds remaining amount")

	// ErrBelowMinimum is returned when a fill is below the order minimum
	// fill amount and does not consume the whole remainder.
	ErrBelowMinimum = errors.Register(1021, "fill below minimum amount")

	// ErrPartialFillDisabled is returned when a fill is added to an
	// order that must be settled in one piece.
	ErrPartialFillDisabled = errors.Register(1022, "order does not allow partial fills")

	// ErrUnauthorizedRole is returned when the caller role is not
	// entitled to the attempted action in the current settlement window.
	ErrUnauthorizedRole = errors.Register(1023, "role not authorized")

	// ErrDoubleSpend is returned when a withdrawal or refund is
	// attempted on an already settled order or fill.
	ErrDoubleSpend = errors.Register(1024, "already settled")
)
