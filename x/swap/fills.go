package swap

import (
	"github.com/lockhaven/swapcore"
	"github.com/lockhaven/swapcore/errors"
	"github.com/shopspring/decimal"
)

// addFill registers a partial claim against the order remaining amount.
// Conservation holds for every call sequence: the sum of all non refunded
// fills never exceeds the order total and the remainder never goes
// negative.
func (o *Order) addFill(fillID string, filler Party, amount decimal.Decimal, now swapcore.UnixTime) (*Fill, error) {
	if !o.AllowPartialFill {
		return nil, ErrPartialFillDisabled
	}
	if o.Status.IsTerminal() {
		return nil, errors.Wrapf(ErrDoubleSpend, "order is %s", o.Status)
	}
	if o.Status == StatusExpired {
		return nil, errors.Wrap(errors.ErrExpired, "order expired")
	}
	// Fills are claims against the source leg deposit, so that deposit
	// must be confirmed on chain before any claim is accepted.
	if !o.SourceLocked {
		return nil, errors.Wrap(errors.ErrState, "source leg is not locked yet")
	}
	if err := filler.Validate(); err != nil {
		return nil, errors.Wrap(err, "filler")
	}
	if !amount.IsPositive() {
		return nil, errors.Wrap(errors.ErrAmount, "fill amount must be positive")
	}

	remaining := o.RemainingAmount()
	if remaining.IsNegative() {
		// Stored state broke conservation. This is not recoverable by
		// the caller, it is a bug in the engine.
		return nil, errors.Wrapf(errors.ErrHuman, "order %s remaining amount is negative", o.ID)
	}
	if amount.GreaterThan(remaining) {
		return nil, errors.Wrapf(ErrExceedsRemaining, "remaining %s, requested %s", remaining, amount)
	}
	// A fill below the minimum is accepted only when it consumes the
	// whole remainder, otherwise dust could make the order unfillable.
	if amount.LessThan(o.MinFillAmount) && !amount.Equal(remaining) {
		return nil, errors.Wrapf(ErrBelowMinimum, "minimum %s, requested %s", o.MinFillAmount, amount)
	}

	f := &Fill{
		ID:        fillID,
		OrderID:   o.ID,
		Filler:    filler,
		Amount:    amount,
		Status:    FillPending,
		CreatedAt: now,
	}
	o.Fills = append(o.Fills, f)
	return f, nil
}

// withdrawFill marks a pending fill as completed. The secret must already
// be validated by the caller. Once the whole order total is consumed by
// completed fills the order itself completes.
func (o *Order) withdrawFill(fillID string) (*Fill, error) {
	f := o.Fill(fillID)
	if f == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "fill %q", fillID)
	}
	if f.Status != FillPending {
		return nil, errors.Wrapf(ErrDoubleSpend, "fill is %s", f.Status)
	}
	f.Status = FillCompleted

	if o.RemainingAmount().IsZero() && o.allFillsSettled() {
		o.Status = StatusCompleted
	}
	return f, nil
}

// refundFill returns a pending fill to the filler. Permitted once the
// order expired, and it stays permitted after the initiator took the order
// level refund: that refund covers only the unfilled remainder, so pending
// fills must keep their own exit. Refunded fills stop counting against the
// remainder, so the freed amount can be reclaimed by the initiator.
func (o *Order) refundFill(fillID string, caller Party) (*Fill, error) {
	f := o.Fill(fillID)
	if f == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "fill %q", fillID)
	}
	if o.Status != StatusExpired && o.Status != StatusRefunded {
		return nil, errors.Wrapf(errors.ErrState, "fills can be refunded only after the order expired, order is %s", o.Status)
	}
	if f.Status != FillPending {
		return nil, errors.Wrapf(ErrDoubleSpend, "fill is %s", f.Status)
	}
	if caller != f.Filler {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "%q is not the filler", caller)
	}
	f.Status = FillRefunded
	return f, nil
}

// allFillsSettled returns true when no fill is still pending.
func (o *Order) allFillsSettled() bool {
	for _, f := range o.Fills {
		if f.Status == FillPending {
			return false
		}
	}
	return true
}
