package swap

import (
	"bytes"

	"github.com/lockhaven/swapcore"
	"github.com/lockhaven/swapcore/errors"
	"github.com/lockhaven/swapcore/hashlock"
	"github.com/lockhaven/swapcore/timelock"
)

// applyExpiry moves the order to StatusExpired once any leg timelock
// lapsed. Terminal orders are immutable. It returns true if the status
// changed.
//
// Expiry is a predicate over the caller supplied time, never a background
// timer, so replaying the same event log always yields the same states.
func (o *Order) applyExpiry(now swapcore.UnixTime) bool {
	if o.Status.IsTerminal() || o.Status == StatusExpired {
		return false
	}
	if timelock.IsExpired(o.Source.Timelock, now) || timelock.IsExpired(o.Destination.Timelock, now) {
		o.Status = StatusExpired
		return true
	}
	return false
}

// applyLegLocked records a leg lock confirmation reported by a chain
// adapter. Replaying a confirmation for an already locked leg is a no-op.
// It returns true if the order changed.
func (o *Order) applyLegLocked(leg LegID, proofRef string, policy timelock.Policy) (bool, error) {
	if err := leg.Validate(); err != nil {
		return false, err
	}

	// Redelivered confirmations must not disturb the order, whatever
	// state it reached in the meantime.
	switch leg {
	case LegSource:
		if o.SourceLocked {
			return false, nil
		}
	case LegDestination:
		if o.DestLocked {
			return false, nil
		}
	}

	if o.Status.IsTerminal() {
		return false, errors.Wrapf(ErrDoubleSpend, "order is %s", o.Status)
	}
	if o.Status == StatusExpired {
		return false, errors.Wrap(errors.ErrExpired, "order expired")
	}

	switch leg {
	case LegSource:
		o.SourceLocked = true
		o.SourceProof = proofRef
		if o.Status == StatusPending {
			o.Status = StatusSourceLocked
		}
	case LegDestination:
		if !o.SourceLocked {
			return false, errors.Wrap(errors.ErrState, "source leg is not locked yet")
		}
		// The counterparty lock is only accepted when the destination
		// hashlock is well formed and the timelock pair still leaves
		// the configured safety margin.
		if err := o.Destination.Hashlock.Validate(); err != nil {
			return false, errors.Wrap(err, "destination hashlock")
		}
		if err := policy.ValidatePair(o.CreatedAt, o.Source.Timelock, o.Destination.Timelock); err != nil {
			return false, err
		}
		o.DestLocked = true
		o.DestinationProof = proofRef
		o.Status = StatusDestinationLocked
	}
	return true, nil
}

// applySecret records an observed secret. On success the secret is exposed
// on the order and satisfies both leg hashlocks: this is the atomicity
// pivot. Replaying the same secret is a no-op. It returns true if the order
// changed.
func (o *Order) applySecret(secret []byte) (bool, error) {
	if o.Secret != nil {
		if bytes.Equal(o.Secret, secret) {
			return false, nil
		}
		return false, errors.Wrap(errors.ErrImmutable, "a different secret was already revealed")
	}

	if o.Status.IsTerminal() {
		return false, errors.Wrapf(ErrDoubleSpend, "order is %s", o.Status)
	}
	if o.Status == StatusExpired {
		return false, errors.Wrap(errors.ErrExpired, "order expired")
	}
	if o.Status != StatusDestinationLocked {
		return false, errors.Wrapf(errors.ErrState, "secret cannot be revealed while order is %s", o.Status)
	}

	// The reported secret must satisfy the destination hashlock under
	// its own algorithm. The same bytes must then satisfy the source
	// hashlock and the canonical digest too, or the order was created
	// with inconsistent commitments and can never settle.
	if err := o.Destination.Hashlock.Match(secret); err != nil {
		return false, errors.Wrap(err, "destination leg")
	}
	if err := o.Source.Hashlock.Match(secret); err != nil {
		return false, errors.Wrap(err, "source leg")
	}
	if err := hashlock.Verify(secret, o.SecretHash, hashlock.SHA256); err != nil {
		return false, errors.Wrap(err, "canonical digest")
	}

	o.Secret = append([]byte(nil), secret...)
	o.Status = StatusSecretRevealed
	return true, nil
}

// canWithdraw gates a withdrawal attempt by the current settlement window
// and the caller role. A nil return means the attempt is permitted as far
// as timing and authorization are concerned; the secret is verified
// separately so that the caller can tell "wrong time" from "wrong secret".
func (o *Order) canWithdraw(role Role, caller Party, now swapcore.UnixTime) error {
	window := o.Schedule.WindowAt(now)

	if role == RoleInitiator {
		// The initiator holds the refund right, never a withdrawal
		// right.
		return errors.Wrap(ErrUnauthorizedRole, "initiator cannot withdraw, only refund")
	}

	switch window {
	case timelock.WindowPending:
		return errors.Wrapf(timelock.ErrWrongWindow,
			"withdrawals open at %d", int64(o.Schedule.FinalityTime))

	case timelock.WindowTakerExclusive:
		if role == RoleTaker {
			return nil
		}
		return errors.Wrapf(timelock.ErrWrongWindow,
			"window is taker exclusive, %s may withdraw from %d",
			role, int64(o.windowOpensFor(role)))

	case timelock.WindowPrivateResolver:
		switch role {
		case RoleTaker:
			return nil
		case RolePrivateResolver:
			if o.IsAllowedResolver(caller) {
				return nil
			}
			return errors.Wrapf(ErrUnauthorizedRole, "%q is not on the resolver allow-list", caller)
		default:
			return errors.Wrapf(timelock.ErrWrongWindow,
				"window is private, %s may withdraw from %d",
				role, int64(o.Schedule.PrivateDeadline))
		}

	case timelock.WindowPublicResolver:
		return nil

	default: // timelock.WindowCancellation
		return errors.Wrapf(timelock.ErrWrongWindow,
			"settlement closed at %d, only the initiator refund remains", int64(o.Schedule.PublicDeadline))
	}
}

// canRefund gates an order level refund attempt. Refunds belong to the
// initiator and are permitted in the cancellation window, or at any moment
// once the order expired.
func (o *Order) canRefund(role Role, caller Party, now swapcore.UnixTime) error {
	if role != RoleInitiator {
		return errors.Wrapf(ErrUnauthorizedRole, "%s cannot refund an order", role)
	}
	if caller != o.Initiator {
		return errors.Wrapf(errors.ErrUnauthorized, "%q is not the order initiator", caller)
	}
	if o.Status == StatusExpired {
		return nil
	}
	if o.Schedule.WindowAt(now) != timelock.WindowCancellation {
		return errors.Wrapf(timelock.ErrWrongWindow,
			"refunds open at %d", int64(o.Schedule.PublicDeadline))
	}
	return nil
}

// windowOpensFor returns the time at which given role gains the withdrawal
// right.
func (o *Order) windowOpensFor(role Role) swapcore.UnixTime {
	switch role {
	case RoleTaker:
		return o.Schedule.OpensAt(timelock.WindowTakerExclusive)
	case RolePrivateResolver:
		return o.Schedule.OpensAt(timelock.WindowPrivateResolver)
	case RolePublicResolver:
		return o.Schedule.OpensAt(timelock.WindowPublicResolver)
	default:
		return 0
	}
}
