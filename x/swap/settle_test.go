package swap

import (
	"testing"

	"github.com/lockhaven/swapcore"
	"github.com/lockhaven/swapcore/errors"
	"github.com/lockhaven/swapcore/hashlock"
	"github.com/lockhaven/swapcore/timelock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyLegLocked(t *testing.T) {
	t.Run("source then destination", func(t *testing.T) {
		o := testOrder(t)

		changed, err := o.applyLegLocked(LegSource, "src-tx", o.Timelocks)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, StatusSourceLocked, o.Status)
		assert.Equal(t, "src-tx", o.SourceProof)

		changed, err = o.applyLegLocked(LegDestination, "dst-tx", o.Timelocks)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, StatusDestinationLocked, o.Status)
		assert.Equal(t, "dst-tx", o.DestinationProof)
	})

	t.Run("destination before source", func(t *testing.T) {
		o := testOrder(t)
		_, err := o.applyLegLocked(LegDestination, "dst-tx", o.Timelocks)
		assert.True(t, errors.ErrState.Is(err), "unexpected error: %+v", err)
	})

	t.Run("replayed confirmation is a no-op", func(t *testing.T) {
		o := testOrder(t)
		lockBothLegs(t, o)

		changed, err := o.applyLegLocked(LegSource, "other-tx", o.Timelocks)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, "src-tx", o.SourceProof)

		changed, err = o.applyLegLocked(LegDestination, "other-tx", o.Timelocks)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, "dst-tx", o.DestinationProof)
	})

	t.Run("destination lock checks the timelock margin", func(t *testing.T) {
		o := testOrder(t)
		// Shrink the gap below the 300s minimum margin.
		o.Destination.Timelock = o.Source.Timelock - 100
		_, err := o.applyLegLocked(LegSource, "src-tx", o.Timelocks)
		require.NoError(t, err)
		_, err = o.applyLegLocked(LegDestination, "dst-tx", o.Timelocks)
		assert.True(t, timelock.ErrMargin.Is(err), "unexpected error: %+v", err)
	})

	t.Run("expired order accepts no lock", func(t *testing.T) {
		o := testOrder(t)
		require.True(t, o.applyExpiry(o.Destination.Timelock))
		_, err := o.applyLegLocked(LegSource, "src-tx", o.Timelocks)
		assert.True(t, errors.ErrExpired.Is(err), "unexpected error: %+v", err)
	})
}

func TestApplyExpiry(t *testing.T) {
	cases := map[string]struct {
		now         swapcore.UnixTime
		status      Status
		wantChanged bool
		wantStatus  Status
	}{
		"before any timelock": {
			now:         testCreatedAt + 1499,
			status:      StatusPending,
			wantChanged: false,
			wantStatus:  StatusPending,
		},
		"exactly on the destination timelock": {
			// Expiry is inclusive.
			now:         testCreatedAt + 1500,
			status:      StatusPending,
			wantChanged: true,
			wantStatus:  StatusExpired,
		},
		"past the source timelock": {
			now:         testCreatedAt + 3000,
			status:      StatusSourceLocked,
			wantChanged: true,
			wantStatus:  StatusExpired,
		},
		"terminal order is immutable": {
			now:         testCreatedAt + 9000,
			status:      StatusCompleted,
			wantChanged: false,
			wantStatus:  StatusCompleted,
		},
		"already expired": {
			now:         testCreatedAt + 9000,
			status:      StatusExpired,
			wantChanged: false,
			wantStatus:  StatusExpired,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			o := testOrder(t)
			o.Status = tc.status
			assert.Equal(t, tc.wantChanged, o.applyExpiry(tc.now))
			assert.Equal(t, tc.wantStatus, o.Status)
		})
	}
}

func TestApplySecret(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		o := testOrder(t)
		lockBothLegs(t, o)

		changed, err := o.applySecret(testSecret())
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, StatusSecretRevealed, o.Status)
		assert.Equal(t, testSecret(), o.Secret)
	})

	t.Run("same secret replay is a no-op", func(t *testing.T) {
		o := testOrder(t)
		lockBothLegs(t, o)
		_, err := o.applySecret(testSecret())
		require.NoError(t, err)

		changed, err := o.applySecret(testSecret())
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("different secret is rejected", func(t *testing.T) {
		o := testOrder(t)
		lockBothLegs(t, o)
		_, err := o.applySecret(testSecret())
		require.NoError(t, err)

		other := testSecret()
		other[0] ^= 0xff
		_, err = o.applySecret(other)
		assert.True(t, errors.ErrImmutable.Is(err), "unexpected error: %+v", err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		o := testOrder(t)
		lockBothLegs(t, o)

		wrong := testSecret()
		wrong[31] ^= 0x01
		_, err := o.applySecret(wrong)
		assert.True(t, hashlock.ErrMismatch.Is(err), "unexpected error: %+v", err)
	})

	t.Run("requires both legs locked", func(t *testing.T) {
		o := testOrder(t)
		_, err := o.applyLegLocked(LegSource, "src-tx", o.Timelocks)
		require.NoError(t, err)

		_, err = o.applySecret(testSecret())
		assert.True(t, errors.ErrState.Is(err), "unexpected error: %+v", err)
	})
}

func TestWithdrawPermissionMatrix(t *testing.T) {
	// Window boundaries relative to testCreatedAt: finality at +60, taker
	// deadline at +180, private deadline at +480, public deadline at
	// +1080. A time exactly on a boundary belongs to the later window.
	cases := map[string]struct {
		now     swapcore.UnixTime
		role    Role
		caller  Party
		wantErr *errors.Error
	}{
		"taker before finality": {
			now:     testCreatedAt + 59,
			role:    RoleTaker,
			caller:  bob,
			wantErr: timelock.ErrWrongWindow,
		},
		"taker exactly at finality": {
			now:    testCreatedAt + 60,
			role:   RoleTaker,
			caller: bob,
		},
		"taker in the exclusive window": {
			now:    testCreatedAt + 179,
			role:   RoleTaker,
			caller: bob,
		},
		"whitelisted resolver during the taker exclusive window": {
			now:     testCreatedAt + 100,
			role:    RolePrivateResolver,
			caller:  carol,
			wantErr: timelock.ErrWrongWindow,
		},
		"taker in the private window": {
			now:    testCreatedAt + 180,
			role:   RoleTaker,
			caller: bob,
		},
		"whitelisted resolver in the private window": {
			now:    testCreatedAt + 180,
			role:   RolePrivateResolver,
			caller: carol,
		},
		"unlisted resolver in the private window": {
			now:     testCreatedAt + 180,
			role:    RolePrivateResolver,
			caller:  dave,
			wantErr: ErrUnauthorizedRole,
		},
		"public resolver in the private window": {
			now:     testCreatedAt + 200,
			role:    RolePublicResolver,
			caller:  dave,
			wantErr: timelock.ErrWrongWindow,
		},
		"taker in the public window": {
			now:    testCreatedAt + 480,
			role:   RoleTaker,
			caller: bob,
		},
		"unlisted resolver in the public window": {
			now:    testCreatedAt + 480,
			role:   RolePublicResolver,
			caller: dave,
		},
		"taker in the cancellation window": {
			now:     testCreatedAt + 1080,
			role:    RoleTaker,
			caller:  bob,
			wantErr: timelock.ErrWrongWindow,
		},
		"initiator never withdraws": {
			now:     testCreatedAt + 480,
			role:    RoleInitiator,
			caller:  alice,
			wantErr: ErrUnauthorizedRole,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			o := testOrder(t)
			lockBothLegs(t, o)

			err := o.canWithdraw(tc.role, tc.caller, tc.now)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.True(t, tc.wantErr.Is(err), "unexpected error: %+v", err)
			}
		})
	}
}

func TestRefundPermissions(t *testing.T) {
	cases := map[string]struct {
		now     swapcore.UnixTime
		status  Status
		role    Role
		caller  Party
		wantErr *errors.Error
	}{
		"initiator before the cancellation window": {
			now:     testCreatedAt + 480,
			status:  StatusSourceLocked,
			role:    RoleInitiator,
			caller:  alice,
			wantErr: timelock.ErrWrongWindow,
		},
		"initiator in the cancellation window": {
			now:    testCreatedAt + 1080,
			status: StatusSourceLocked,
			role:   RoleInitiator,
			caller: alice,
		},
		"initiator on an expired order at any time": {
			now:    testCreatedAt + 100,
			status: StatusExpired,
			role:   RoleInitiator,
			caller: alice,
		},
		"taker cannot refund": {
			now:     testCreatedAt + 1080,
			status:  StatusSourceLocked,
			role:    RoleTaker,
			caller:  bob,
			wantErr: ErrUnauthorizedRole,
		},
		"wrong caller claiming the initiator role": {
			now:     testCreatedAt + 1080,
			status:  StatusSourceLocked,
			role:    RoleInitiator,
			caller:  dave,
			wantErr: errors.ErrUnauthorized,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			o := testOrder(t)
			o.Status = tc.status

			err := o.canRefund(tc.role, tc.caller, tc.now)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.True(t, tc.wantErr.Is(err), "unexpected error: %+v", err)
			}
		})
	}
}
