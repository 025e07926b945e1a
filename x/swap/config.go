package swap

import (
	"github.com/lockhaven/swapcore"
	"github.com/lockhaven/swapcore/errors"
	"github.com/lockhaven/swapcore/timelock"
	"github.com/shopspring/decimal"
)

// maxFeeBps caps the protocol fee at 100%.
const maxFeeBps = 10000

// Configuration is accepted at order creation time and fixed for the order
// lifetime.
type Configuration struct {
	// MinTimelockDuration and MaxTimelockDuration bound each leg
	// timelock relative to the order creation time.
	MinTimelockDuration swapcore.UnixDuration `json:"min_timelock_duration"`
	MaxTimelockDuration swapcore.UnixDuration `json:"max_timelock_duration"`

	// MinTimelockMargin is the minimum gap between the source and the
	// destination leg timelock.
	MinTimelockMargin swapcore.UnixDuration `json:"min_timelock_margin"`

	// ProtocolFeeBps is passed through to the chain adapters. Fee
	// distribution policy is an external concern.
	ProtocolFeeBps uint32 `json:"protocol_fee_bps"`

	// Stages configures the settlement window schedule.
	Stages timelock.StageDurations `json:"stage_durations"`

	AllowPartialFill bool            `json:"allow_partial_fill"`
	MinFillAmount    decimal.Decimal `json:"min_fill_amount"`

	// AllowedPrivateResolvers may withdraw during the private resolver
	// window.
	AllowedPrivateResolvers []Party `json:"allowed_private_resolvers,omitempty"`
}

// Validate returns an error if the configuration is not usable.
func (c *Configuration) Validate() error {
	if err := c.Policy().Validate(); err != nil {
		return errors.Wrap(err, "timelock policy")
	}
	if c.ProtocolFeeBps > maxFeeBps {
		return errors.Wrapf(errors.ErrInput, "protocol fee %d bps exceeds %d", c.ProtocolFeeBps, maxFeeBps)
	}
	if err := c.Stages.Validate(); err != nil {
		return errors.Wrap(err, "stage durations")
	}
	if c.AllowPartialFill && !c.MinFillAmount.IsPositive() {
		return errors.Wrap(errors.ErrAmount, "min fill amount must be positive when partial fills are allowed")
	}
	for _, r := range c.AllowedPrivateResolvers {
		if err := r.Validate(); err != nil {
			return errors.Wrap(err, "allowed private resolver")
		}
	}
	return nil
}

// Policy returns the timelock policy derived from this configuration.
func (c *Configuration) Policy() timelock.Policy {
	return timelock.Policy{
		MinMargin:   c.MinTimelockMargin,
		MinDuration: c.MinTimelockDuration,
		MaxDuration: c.MaxTimelockDuration,
	}
}
