package timelock

import (
	"github.com/lockhaven/swapcore"
	"github.com/lockhaven/swapcore/errors"
)

var (
	// ErrMargin is returned when the gap between the source and the
	// destination timelock is smaller than the configured safety margin.
	ErrMargin = errors.Register(1010, "insufficient timelock margin")

	// ErrDuration is returned when a timelock duration is outside the
	// configured bounds.
	ErrDuration = errors.Register(1011, "timelock duration out of bounds")

	// ErrWrongWindow is returned when an action is attempted outside of
	// its permitted settlement window.
	ErrWrongWindow = errors.Register(1012, "outside permitted settlement window")
)

// Policy holds the timelock constraints accepted at order creation.
type Policy struct {
	// MinMargin is the minimum required value of
	// source timelock - destination timelock. It protects the resolver
	// from being unable to redeem the source leg after the secret was
	// revealed on the destination leg.
	MinMargin swapcore.UnixDuration

	// MinDuration and MaxDuration bound each leg timelock relative to
	// the order creation time.
	MinDuration swapcore.UnixDuration
	MaxDuration swapcore.UnixDuration
}

// Validate returns an error if the policy configuration is not sane.
func (p Policy) Validate() error {
	if p.MinMargin <= 0 {
		return errors.Wrap(errors.ErrInput, "min margin must be greater than zero")
	}
	if p.MinDuration <= 0 {
		return errors.Wrap(errors.ErrInput, "min duration must be greater than zero")
	}
	if p.MaxDuration < p.MinDuration {
		return errors.Wrap(errors.ErrInput, "max duration must not be less than min duration")
	}
	return nil
}

// ValidatePair checks the source and destination leg timelocks of an order
// created at given time. The destination leg must expire before the source
// leg by at least MinMargin, and both timelocks must be within the
// configured duration bounds.
func (p Policy) ValidatePair(createdAt, source, destination swapcore.UnixTime) error {
	if source <= createdAt {
		return errors.Wrap(ErrDuration, "source timelock is not in the future")
	}
	if destination <= createdAt {
		return errors.Wrap(ErrDuration, "destination timelock is not in the future")
	}
	if err := p.validateDuration("destination", swapcore.UnixDuration(destination-createdAt)); err != nil {
		return err
	}
	if err := p.validateDuration("source", swapcore.UnixDuration(source-createdAt)); err != nil {
		return err
	}
	if margin := swapcore.UnixDuration(source - destination); margin < p.MinMargin {
		return errors.Wrapf(ErrMargin, "margin %s is below the minimum %s", margin, p.MinMargin)
	}
	return nil
}

func (p Policy) validateDuration(name string, d swapcore.UnixDuration) error {
	if d < p.MinDuration {
		return errors.Wrapf(ErrDuration, "%s timelock duration %s is below the minimum %s",
			name, d, p.MinDuration)
	}
	if d > p.MaxDuration {
		return errors.Wrapf(ErrDuration, "%s timelock duration %s is above the maximum %s",
			name, d, p.MaxDuration)
	}
	return nil
}

// IsExpired returns true if given timelock is in the past as compared to the
// caller supplied current time. Expiration is inclusive, meaning that if the
// current time is equal to the timelock then this function returns true.
func IsExpired(t, now swapcore.UnixTime) bool {
	return t <= now
}
