package timelock

import (
	"testing"

	"github.com/lockhaven/swapcore"
	"github.com/lockhaven/swapcore/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStages = StageDurations{
	FinalityDelay:   60,
	TakerExclusive:  120,
	PrivateResolver: 300,
	PublicResolver:  600,
	Cancellation:    900,
}

func TestNewSchedule(t *testing.T) {
	createdAt := swapcore.UnixTime(1000)
	s, err := NewSchedule(createdAt, testStages)
	require.NoError(t, err)

	assert.Equal(t, swapcore.UnixTime(1060), s.FinalityTime)
	assert.Equal(t, swapcore.UnixTime(1180), s.TakerDeadline)
	assert.Equal(t, swapcore.UnixTime(1480), s.PrivateDeadline)
	assert.Equal(t, swapcore.UnixTime(2080), s.PublicDeadline)
	assert.Equal(t, swapcore.UnixTime(2980), s.CancellationEnd)
	assert.NoError(t, s.Validate())
}

func TestNewScheduleRejectsBadInput(t *testing.T) {
	_, err := NewSchedule(0, testStages)
	assert.True(t, errors.ErrInput.Is(err), "zero creation time: %+v", err)

	broken := testStages
	broken.PrivateResolver = 0
	_, err = NewSchedule(1000, broken)
	assert.True(t, errors.ErrInput.Is(err), "zero stage duration: %+v", err)
}

func TestWindowAtBoundaries(t *testing.T) {
	s, err := NewSchedule(1000, testStages)
	require.NoError(t, err)

	// Every boundary belongs to the later window (closed-open
	// intervals).
	cases := map[string]struct {
		now  swapcore.UnixTime
		want Window
	}{
		"creation time":                    {now: 1000, want: WindowPending},
		"one before finality":              {now: s.FinalityTime - 1, want: WindowPending},
		"exactly finality":                 {now: s.FinalityTime, want: WindowTakerExclusive},
		"inside taker window":              {now: s.FinalityTime + 30, want: WindowTakerExclusive},
		"one before taker deadline":        {now: s.TakerDeadline - 1, want: WindowTakerExclusive},
		"exactly taker deadline":           {now: s.TakerDeadline, want: WindowPrivateResolver},
		"inside private resolver window":   {now: s.TakerDeadline + 100, want: WindowPrivateResolver},
		"one before private deadline":      {now: s.PrivateDeadline - 1, want: WindowPrivateResolver},
		"exactly private deadline":         {now: s.PrivateDeadline, want: WindowPublicResolver},
		"inside public resolver window":    {now: s.PrivateDeadline + 100, want: WindowPublicResolver},
		"one before public deadline":       {now: s.PublicDeadline - 1, want: WindowPublicResolver},
		"exactly public deadline":          {now: s.PublicDeadline, want: WindowCancellation},
		"inside cancellation window":       {now: s.PublicDeadline + 100, want: WindowCancellation},
		"exactly nominal cancellation end": {now: s.CancellationEnd, want: WindowCancellation},
		"long after the schedule":          {now: s.CancellationEnd + 1000000, want: WindowCancellation},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.Equal(t, tc.want, s.WindowAt(tc.now), "want %s", tc.want)
		})
	}
}

func TestWindowMonotonicity(t *testing.T) {
	// The window function must be non decreasing in time and must visit
	// every configured stage.
	s, err := NewSchedule(1000, testStages)
	require.NoError(t, err)

	seen := map[Window]bool{}
	prev := WindowPending
	for now := swapcore.UnixTime(1000); now <= s.CancellationEnd+10; now++ {
		w := s.WindowAt(now)
		assert.True(t, w >= prev, "window went backwards at %d: %s after %s", now, w, prev)
		seen[w] = true
		prev = w
	}
	for _, w := range []Window{WindowPending, WindowTakerExclusive, WindowPrivateResolver, WindowPublicResolver, WindowCancellation} {
		assert.True(t, seen[w], "stage %s was skipped", w)
	}
}

func TestOpensAt(t *testing.T) {
	s, err := NewSchedule(1000, testStages)
	require.NoError(t, err)

	assert.Equal(t, s.FinalityTime, s.OpensAt(WindowTakerExclusive))
	assert.Equal(t, s.TakerDeadline, s.OpensAt(WindowPrivateResolver))
	assert.Equal(t, s.PrivateDeadline, s.OpensAt(WindowPublicResolver))
	assert.Equal(t, s.PublicDeadline, s.OpensAt(WindowCancellation))
	assert.Equal(t, swapcore.UnixTime(0), s.OpensAt(WindowPending))
}

func TestStageDurationsTotal(t *testing.T) {
	assert.Equal(t, swapcore.UnixDuration(1980), testStages.Total())
}
