package timelock

import (
	"fmt"

	"github.com/lockhaven/swapcore"
	"github.com/lockhaven/swapcore/errors"
)

// Window is a named time range of an order settlement schedule. It
// determines which role may withdraw or cancel at a given moment.
type Window uint8

const (
	// WindowPending covers the time before the order reaches finality.
	// No settlement action is permitted.
	WindowPending Window = iota
	// WindowTakerExclusive gives the original taker the exclusive right
	// to settle.
	WindowTakerExclusive
	// WindowPrivateResolver extends the settlement right to whitelisted
	// resolvers.
	WindowPrivateResolver
	// WindowPublicResolver opens settlement to anyone.
	WindowPublicResolver
	// WindowCancellation is the terminal window in which the initiator
	// may reclaim unredeemed funds. It never ends.
	WindowCancellation
)

func (w Window) String() string {
	switch w {
	case WindowPending:
		return "pending"
	case WindowTakerExclusive:
		return "taker_exclusive"
	case WindowPrivateResolver:
		return "private_resolver"
	case WindowPublicResolver:
		return "public_resolver"
	case WindowCancellation:
		return "cancellation"
	default:
		return fmt.Sprintf("invalid window (%d)", int(w))
	}
}

// StageDurations configures the length of every settlement stage. All
// durations must be positive: windows are contiguous and a schedule never
// skips a stage.
type StageDurations struct {
	FinalityDelay   swapcore.UnixDuration `json:"finality_delay"`
	TakerExclusive  swapcore.UnixDuration `json:"taker_exclusive"`
	PrivateResolver swapcore.UnixDuration `json:"private_resolver"`
	PublicResolver  swapcore.UnixDuration `json:"public_resolver"`
	// Cancellation bounds the nominal length of the cancellation stage.
	// The window itself stays open forever, the value only contributes
	// to the nominal schedule Total.
	Cancellation swapcore.UnixDuration `json:"cancellation"`
}

// Validate returns an error if any stage duration is not positive.
func (d StageDurations) Validate() error {
	for _, stage := range []struct {
		name  string
		value swapcore.UnixDuration
	}{
		{"finality delay", d.FinalityDelay},
		{"taker exclusive", d.TakerExclusive},
		{"private resolver", d.PrivateResolver},
		{"public resolver", d.PublicResolver},
		{"cancellation", d.Cancellation},
	} {
		if stage.value <= 0 {
			return errors.Wrapf(errors.ErrInput, "%s duration must be greater than zero", stage.name)
		}
	}
	return nil
}

// Total returns the nominal length of the whole schedule.
func (d StageDurations) Total() swapcore.UnixDuration {
	return d.FinalityDelay + d.TakerExclusive + d.PrivateResolver + d.PublicResolver + d.Cancellation
}

// Schedule is the set of stage boundaries of one order. It is computed once
// at order creation and is immutable afterwards.
type Schedule struct {
	// FinalityTime is when the order becomes final and the taker
	// exclusive window opens.
	FinalityTime swapcore.UnixTime `json:"finality_time"`
	// TakerDeadline is when the taker exclusive window closes and the
	// private resolver window opens.
	TakerDeadline swapcore.UnixTime `json:"taker_deadline"`
	// PrivateDeadline is when the private resolver window closes and the
	// public resolver window opens.
	PrivateDeadline swapcore.UnixTime `json:"private_deadline"`
	// PublicDeadline is when the public resolver window closes and the
	// cancellation window opens.
	PublicDeadline swapcore.UnixTime `json:"public_deadline"`
	// CancellationEnd is the nominal end of the schedule. The
	// cancellation window itself never closes.
	CancellationEnd swapcore.UnixTime `json:"cancellation_end"`
}

// NewSchedule computes the stage boundaries for an order created at given
// time.
func NewSchedule(createdAt swapcore.UnixTime, d StageDurations) (Schedule, error) {
	if err := createdAt.Validate(); err != nil {
		return Schedule{}, errors.Wrap(err, "created at")
	}
	if createdAt.IsZero() {
		return Schedule{}, errors.Wrap(errors.ErrInput, "creation time is required")
	}
	if err := d.Validate(); err != nil {
		return Schedule{}, errors.Wrap(err, "stage durations")
	}

	s := Schedule{}
	s.FinalityTime = createdAt.AddDuration(d.FinalityDelay)
	s.TakerDeadline = s.FinalityTime.AddDuration(d.TakerExclusive)
	s.PrivateDeadline = s.TakerDeadline.AddDuration(d.PrivateResolver)
	s.PublicDeadline = s.PrivateDeadline.AddDuration(d.PublicResolver)
	s.CancellationEnd = s.PublicDeadline.AddDuration(d.Cancellation)
	return s, nil
}

// Validate returns an error if the boundaries are not strictly increasing.
func (s Schedule) Validate() error {
	bounds := []swapcore.UnixTime{
		s.FinalityTime,
		s.TakerDeadline,
		s.PrivateDeadline,
		s.PublicDeadline,
		s.CancellationEnd,
	}
	for i := 1; i < len(bounds); i++ {
		if bounds[i] <= bounds[i-1] {
			return errors.Wrap(errors.ErrState, "stage boundaries must be strictly increasing")
		}
	}
	return nil
}

// WindowAt maps the caller supplied current time to the settlement window
// it belongs to. Intervals are closed-open: a time exactly on a boundary
// belongs to the later window.
func (s Schedule) WindowAt(now swapcore.UnixTime) Window {
	switch {
	case now < s.FinalityTime:
		return WindowPending
	case now < s.TakerDeadline:
		return WindowTakerExclusive
	case now < s.PrivateDeadline:
		return WindowPrivateResolver
	case now < s.PublicDeadline:
		return WindowPublicResolver
	default:
		return WindowCancellation
	}
}

// OpensAt returns the time at which given window opens for this schedule.
// This is used to tell a denied caller when their action becomes valid.
func (s Schedule) OpensAt(w Window) swapcore.UnixTime {
	switch w {
	case WindowTakerExclusive:
		return s.FinalityTime
	case WindowPrivateResolver:
		return s.TakerDeadline
	case WindowPublicResolver:
		return s.PrivateDeadline
	case WindowCancellation:
		return s.PublicDeadline
	default:
		return 0
	}
}
