package swap

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/lockhaven/swapcore"
	"github.com/lockhaven/swapcore/errors"
	"github.com/lockhaven/swapcore/hashlock"
	"github.com/lockhaven/swapcore/timelock"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// OrderStore persists orders between coordinator calls. Get must return a
// deep copy and Put must store a deep copy, so that no caller can mutate
// persisted state without going through the coordinator.
type OrderStore interface {
	// Get returns the order with given ID or ErrNotFound.
	Get(ctx context.Context, orderID string) (*Order, error)
	// GetBySecretHash returns the order with given canonical secret hash
	// or ErrNotFound.
	GetBySecretHash(ctx context.Context, secretHash []byte) (*Order, error)
	// Put inserts or overwrites an order.
	Put(ctx context.Context, o *Order) error
}

// Coordinator drives orders through their lifecycle. It owns no clock and
// performs no chain I/O: every operation takes the caller supplied time,
// and effects on external ledgers are returned as ChainAction values for
// the adapters to execute.
//
// All operations are safe for concurrent use. Orders are independent, so
// the coordinator serializes per order, not globally.
type Coordinator struct {
	store   OrderStore
	log     logrus.FieldLogger
	metrics *Metrics

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewCoordinator returns a coordinator backed by given store. Both log and
// metrics may be nil.
func NewCoordinator(store OrderStore, log logrus.FieldLogger, metrics *Metrics) *Coordinator {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Coordinator{
		store:   store,
		log:     log,
		metrics: metrics,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (c *Coordinator) orderLock(orderID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[orderID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[orderID] = l
	}
	return l
}

// Outcome is the result of a settlement operation: the order state after
// the operation and the chain transactions the adapters must submit.
type Outcome struct {
	Order   *Order
	Actions []ChainAction
}

// OrderSpec is the caller supplied description of a new order.
type OrderSpec struct {
	Initiator    Party
	Counterparty Party
	Source       Leg
	Destination  Leg
	// SecretHash is the canonical SHA-256 digest of the swap secret.
	SecretHash []byte
	Config     Configuration
	CreatedAt  swapcore.UnixTime
}

// CreateOrder validates the spec against its configuration and persists a
// new pending order. The order ID is generated here, all other identity
// comes from the spec. Two orders can never share a secret hash.
func (c *Coordinator) CreateOrder(ctx context.Context, spec OrderSpec) (*Order, error) {
	if err := spec.Config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration")
	}
	if spec.CreatedAt.IsZero() {
		return nil, errors.Wrap(errors.ErrInput, "creation time is required")
	}
	policy := spec.Config.Policy()
	if err := policy.ValidatePair(spec.CreatedAt, spec.Source.Timelock, spec.Destination.Timelock); err != nil {
		return nil, err
	}

	switch _, err := c.store.GetBySecretHash(ctx, spec.SecretHash); {
	case err == nil:
		return nil, errors.Wrap(errors.ErrDuplicate, "an order with this secret hash exists")
	case !errors.ErrNotFound.Is(err):
		return nil, errors.Wrap(err, "store")
	}

	schedule, err := timelock.NewSchedule(spec.CreatedAt, spec.Config.Stages)
	if err != nil {
		return nil, err
	}
	// Every withdrawal window must be backed by live leg locks. A leg
	// whose timelock lapses before the public window closes would expire
	// the order in the middle of settlement.
	if timelock.IsExpired(spec.Source.Timelock, schedule.PublicDeadline) {
		return nil, errors.Wrap(timelock.ErrDuration, "source timelock lapses before the settlement windows close")
	}
	if timelock.IsExpired(spec.Destination.Timelock, schedule.PublicDeadline) {
		return nil, errors.Wrap(timelock.ErrDuration, "destination timelock lapses before the settlement windows close")
	}

	o := &Order{
		ID:               uuid.NewString(),
		Initiator:        spec.Initiator,
		Counterparty:     spec.Counterparty,
		Source:           spec.Source,
		Destination:      spec.Destination,
		SecretHash:       append([]byte(nil), spec.SecretHash...),
		Status:           StatusPending,
		AllowPartialFill: spec.Config.AllowPartialFill,
		MinFillAmount:    spec.Config.MinFillAmount,
		ProtocolFeeBps:   spec.Config.ProtocolFeeBps,
		AllowedResolvers: append([]Party(nil), spec.Config.AllowedPrivateResolvers...),
		Schedule:         schedule,
		Timelocks:        policy,
		CreatedAt:        spec.CreatedAt,
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if err := c.store.Put(ctx, o); err != nil {
		return nil, errors.Wrap(err, "store")
	}

	c.metrics.orderCreated(o.Total())
	c.log.WithFields(logrus.Fields{
		"order_id":    o.ID,
		"initiator":   o.Initiator,
		"source":      o.Source.ChainID,
		"destination": o.Destination.ChainID,
		"amount":      o.Total(),
	}).Info("order created")
	return o, nil
}

// GetOrder returns a copy of the order with given ID.
func (c *Coordinator) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	return c.store.Get(ctx, orderID)
}

// GetOrderBySecretHash returns a copy of the order with given canonical
// secret hash.
func (c *Coordinator) GetOrderBySecretHash(ctx context.Context, secretHash []byte) (*Order, error) {
	return c.store.GetBySecretHash(ctx, secretHash)
}

// AdvanceTime re-evaluates the order expiry predicate at given time and
// persists the transition if one happened. Calling it is never required
// for correctness, every operation checks expiry itself, but adapters use
// it to learn about expiry without attempting a settlement.
func (c *Coordinator) AdvanceTime(ctx context.Context, orderID string, now swapcore.UnixTime) (*Order, error) {
	lock := c.orderLock(orderID)
	lock.Lock()
	defer lock.Unlock()

	o, err := c.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := c.expire(ctx, o, now); err != nil {
		return nil, err
	}
	return o, nil
}

// expire applies the expiry predicate and persists a transition. The
// caller must hold the order lock.
func (c *Coordinator) expire(ctx context.Context, o *Order, now swapcore.UnixTime) error {
	if !o.applyExpiry(now) {
		return nil
	}
	if err := c.store.Put(ctx, o); err != nil {
		return errors.Wrap(err, "store")
	}
	c.metrics.orderStatus(StatusExpired)
	c.log.WithField("order_id", o.ID).Info("order expired")
	return nil
}

// ReportLegLocked records a leg lock confirmation observed on chain by an
// adapter. Redelivering a confirmation is harmless.
func (c *Coordinator) ReportLegLocked(ctx context.Context, orderID string, leg LegID, proofRef string, now swapcore.UnixTime) (*Order, error) {
	lock := c.orderLock(orderID)
	lock.Lock()
	defer lock.Unlock()

	o, err := c.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := c.expire(ctx, o, now); err != nil {
		return nil, err
	}

	changed, err := o.applyLegLocked(leg, proofRef, o.Timelocks)
	if err != nil {
		return nil, err
	}
	if !changed {
		return o, nil
	}
	if err := c.store.Put(ctx, o); err != nil {
		return nil, errors.Wrap(err, "store")
	}
	c.log.WithFields(logrus.Fields{
		"order_id": o.ID,
		"leg":      leg,
		"proof":    proofRef,
	}).Info("leg locked")
	return o, nil
}

// ReportSecret records a secret observed on chain by an adapter. Once the
// secret is public the source leg is claimable by whoever holds the
// settlement right, so the returned outcome instructs the source adapter
// to submit the withdrawal.
func (c *Coordinator) ReportSecret(ctx context.Context, orderID string, secret []byte, now swapcore.UnixTime) (*Outcome, error) {
	lock := c.orderLock(orderID)
	lock.Lock()
	defer lock.Unlock()

	o, err := c.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := c.expire(ctx, o, now); err != nil {
		return nil, err
	}
	if o.Status == StatusExpired {
		return nil, errors.Wrap(errors.ErrExpired, "order expired")
	}

	changed, err := o.applySecret(secret)
	if err != nil {
		return nil, err
	}
	if changed {
		if err := c.store.Put(ctx, o); err != nil {
			return nil, errors.Wrap(err, "store")
		}
		c.log.WithField("order_id", o.ID).Info("secret revealed")
	}
	return &Outcome{
		Order:   o,
		Actions: []ChainAction{withdrawAction(o, o.Source, o.RemainingAmount(), "")},
	}, nil
}

// WithdrawRequest is a settlement attempt by a party holding (or claiming
// to hold) the swap secret.
type WithdrawRequest struct {
	OrderID string
	// FillID selects a partial fill to withdraw. Empty means the whole
	// order.
	FillID string
	Role   Role
	Caller Party
	Secret []byte
	Now    swapcore.UnixTime
}

// AttemptWithdraw settles the order, or one fill of it, against the
// current settlement window. Authorization errors and secret mismatch are
// reported separately: ErrWrongWindow and ErrUnauthorizedRole describe
// timing and role, ErrMismatch describes a bad secret.
func (c *Coordinator) AttemptWithdraw(ctx context.Context, req WithdrawRequest) (*Outcome, error) {
	if err := req.Role.Validate(); err != nil {
		return nil, err
	}
	if err := req.Caller.Validate(); err != nil {
		return nil, errors.Wrap(err, "caller")
	}

	lock := c.orderLock(req.OrderID)
	lock.Lock()
	defer lock.Unlock()

	o, err := c.store.Get(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if err := c.expire(ctx, o, req.Now); err != nil {
		return nil, err
	}
	if o.Status == StatusExpired {
		c.metrics.denied("withdraw")
		return nil, errors.Wrap(errors.ErrExpired, "order expired")
	}
	if o.Status.IsTerminal() {
		c.metrics.denied("withdraw")
		return nil, errors.Wrapf(ErrDoubleSpend, "order is %s", o.Status)
	}

	if err := o.canWithdraw(req.Role, req.Caller, req.Now); err != nil {
		c.metrics.denied("withdraw")
		return nil, err
	}
	// The window permits the attempt. The secret decides whether it
	// succeeds.
	if err := hashlock.Verify(req.Secret, o.SecretHash, hashlock.SHA256); err != nil {
		c.metrics.denied("withdraw")
		return nil, err
	}

	var actions []ChainAction
	if req.FillID != "" {
		// Fills redeem the source leg lock directly, no destination
		// lock is involved.
		if err := o.Source.Hashlock.Match(req.Secret); err != nil {
			c.metrics.denied("withdraw")
			return nil, errors.Wrap(err, "source leg")
		}
		if o.Secret == nil {
			o.Secret = append([]byte(nil), req.Secret...)
		}
		f, err := o.withdrawFill(req.FillID)
		if err != nil {
			return nil, err
		}
		a := withdrawAction(o, o.Source, f.Amount, f.ID)
		a.Receiver = f.Filler
		actions = append(actions, a)
	} else {
		if o.AllowPartialFill && len(o.Fills) > 0 {
			return nil, errors.Wrap(errors.ErrState, "order has fills, withdraw them individually")
		}
		// A full settlement requires both leg locks, which applySecret
		// enforces.
		if o.Secret == nil {
			if _, err := o.applySecret(req.Secret); err != nil {
				return nil, err
			}
		}
		o.Status = StatusCompleted
		actions = append(actions,
			withdrawAction(o, o.Destination, o.Destination.Amount, ""),
			withdrawAction(o, o.Source, o.Source.Amount, ""),
		)
	}

	if err := c.store.Put(ctx, o); err != nil {
		return nil, errors.Wrap(err, "store")
	}
	if o.Status == StatusCompleted {
		c.metrics.orderStatus(StatusCompleted)
	}
	c.log.WithFields(logrus.Fields{
		"order_id": o.ID,
		"fill_id":  req.FillID,
		"caller":   req.Caller,
		"role":     req.Role,
	}).Info("withdrawal settled")
	return &Outcome{Order: o, Actions: actions}, nil
}

// RefundRequest is an attempt to reclaim locked value after settlement
// became impossible.
type RefundRequest struct {
	OrderID string
	// FillID selects a fill to refund to its filler. Empty means the
	// order level refund to the initiator.
	FillID string
	Role   Role
	Caller Party
	Now    swapcore.UnixTime
}

// AttemptRefund reclaims locked value. The order level refund belongs to
// the initiator and returns the unfilled remainder of the source leg,
// plus the destination leg if it was locked and never claimed. A fill
// refund belongs to the filler and requires an expired order.
func (c *Coordinator) AttemptRefund(ctx context.Context, req RefundRequest) (*Outcome, error) {
	if err := req.Role.Validate(); err != nil {
		return nil, err
	}
	if err := req.Caller.Validate(); err != nil {
		return nil, errors.Wrap(err, "caller")
	}

	lock := c.orderLock(req.OrderID)
	lock.Lock()
	defer lock.Unlock()

	o, err := c.store.Get(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if err := c.expire(ctx, o, req.Now); err != nil {
		return nil, err
	}

	var actions []ChainAction
	if req.FillID != "" {
		f, err := o.refundFill(req.FillID, req.Caller)
		if err != nil {
			c.metrics.denied("refund")
			return nil, err
		}
		actions = append(actions, refundAction(o, o.Source, f.Amount, f.ID, f.Filler))
	} else {
		if o.Status.IsTerminal() {
			c.metrics.denied("refund")
			return nil, errors.Wrapf(ErrDoubleSpend, "order is %s", o.Status)
		}
		if err := o.canRefund(req.Role, req.Caller, req.Now); err != nil {
			c.metrics.denied("refund")
			return nil, err
		}
		if o.SourceLocked {
			remaining := o.RemainingAmount()
			if remaining.IsPositive() {
				actions = append(actions, refundAction(o, o.Source, remaining, "", o.Initiator))
			}
		}
		if o.DestLocked && o.Secret == nil {
			actions = append(actions, refundAction(o, o.Destination, o.Destination.Amount, "", o.Destination.Sender))
		}
		o.Status = StatusRefunded
	}

	if err := c.store.Put(ctx, o); err != nil {
		return nil, errors.Wrap(err, "store")
	}
	if req.FillID == "" {
		c.metrics.orderStatus(StatusRefunded)
	}
	c.log.WithFields(logrus.Fields{
		"order_id": o.ID,
		"fill_id":  req.FillID,
		"caller":   req.Caller,
	}).Info("refund settled")
	return &Outcome{Order: o, Actions: actions}, nil
}

// CancelOrder aborts an order before the counterparty committed any value.
// Only the initiator can cancel, and only while no destination lock
// exists. A cancelled order with a locked source leg yields a refund
// action for it.
func (c *Coordinator) CancelOrder(ctx context.Context, orderID string, caller Party, now swapcore.UnixTime) (*Outcome, error) {
	lock := c.orderLock(orderID)
	lock.Lock()
	defer lock.Unlock()

	o, err := c.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := c.expire(ctx, o, now); err != nil {
		return nil, err
	}

	if o.Status != StatusPending && o.Status != StatusSourceLocked {
		return nil, errors.Wrapf(errors.ErrState, "order is %s, only a pending order can be cancelled", o.Status)
	}
	if caller != o.Initiator {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "%q is not the order initiator", caller)
	}

	var actions []ChainAction
	if o.SourceLocked {
		actions = append(actions, refundAction(o, o.Source, o.Source.Amount, "", o.Initiator))
	}
	o.Status = StatusCancelled

	if err := c.store.Put(ctx, o); err != nil {
		return nil, errors.Wrap(err, "store")
	}
	c.metrics.orderStatus(StatusCancelled)
	c.log.WithField("order_id", o.ID).Info("order cancelled")
	return &Outcome{Order: o, Actions: actions}, nil
}

// AddFill registers a partial claim of given amount by given filler. The
// fill ID is generated here and returned with the fill.
func (c *Coordinator) AddFill(ctx context.Context, orderID string, filler Party, amount decimal.Decimal, now swapcore.UnixTime) (*Fill, error) {
	lock := c.orderLock(orderID)
	lock.Lock()
	defer lock.Unlock()

	o, err := c.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := c.expire(ctx, o, now); err != nil {
		return nil, err
	}

	f, err := o.addFill(uuid.NewString(), filler, amount, now)
	if err != nil {
		return nil, err
	}
	if err := c.store.Put(ctx, o); err != nil {
		return nil, errors.Wrap(err, "store")
	}
	c.metrics.fillCreated()
	c.log.WithFields(logrus.Fields{
		"order_id": o.ID,
		"fill_id":  f.ID,
		"filler":   filler,
		"amount":   amount,
	}).Info("fill added")
	cp := *f
	return &cp, nil
}
