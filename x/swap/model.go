package swap

import (
	"fmt"

	"github.com/lockhaven/swapcore"
	"github.com/lockhaven/swapcore/errors"
	"github.com/lockhaven/swapcore/hashlock"
	"github.com/lockhaven/swapcore/timelock"
	"github.com/shopspring/decimal"
)

const (
	// maxPartySize bounds the length of a party identifier. Chain
	// account identifiers of every supported ledger fit well below this.
	maxPartySize = 128
)

// Status is the coarse lifecycle state of an order.
type Status uint8

const (
	StatusInvalid Status = iota
	// StatusPending means the order was created but no leg is locked.
	StatusPending
	// StatusSourceLocked means the initiator leg lock was confirmed.
	StatusSourceLocked
	// StatusDestinationLocked means both leg locks were confirmed.
	StatusDestinationLocked
	// StatusSecretRevealed means the secret became public on the
	// destination leg and is usable on both legs.
	StatusSecretRevealed
	// StatusCompleted is terminal: the exchange succeeded.
	StatusCompleted
	// StatusExpired means a leg timelock lapsed and refund paths are
	// open.
	StatusExpired
	// StatusRefunded is terminal: locked value was returned.
	StatusRefunded
	// StatusCancelled is terminal: the order was aborted before the
	// counterparty leg was locked.
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSourceLocked:
		return "source_locked"
	case StatusDestinationLocked:
		return "destination_locked"
	case StatusSecretRevealed:
		return "secret_revealed"
	case StatusCompleted:
		return "completed"
	case StatusExpired:
		return "expired"
	case StatusRefunded:
		return "refunded"
	case StatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("invalid status (%d)", int(s))
	}
}

// IsTerminal returns true if no further transition is possible. Terminal
// orders are immutable.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRefunded || s == StatusCancelled
}

// Role describes in which capacity a caller attempts a settlement action.
type Role uint8

const (
	RoleInvalid Role = iota
	// RoleInitiator created the order and holds the refund right.
	RoleInitiator
	// RoleTaker is the original counterparty with the first settlement
	// right.
	RoleTaker
	// RolePrivateResolver is a whitelisted resolver.
	RolePrivateResolver
	// RolePublicResolver is any resolver once settlement is public.
	RolePublicResolver
)

func (r Role) String() string {
	switch r {
	case RoleInitiator:
		return "initiator"
	case RoleTaker:
		return "taker"
	case RolePrivateResolver:
		return "private_resolver"
	case RolePublicResolver:
		return "public_resolver"
	default:
		return fmt.Sprintf("invalid role (%d)", int(r))
	}
}

// Validate returns an error if this is not a known role.
func (r Role) Validate() error {
	if r < RoleInitiator || r > RolePublicResolver {
		return errors.Wrapf(errors.ErrInput, "unknown role %d", int(r))
	}
	return nil
}

// Party is an opaque ledger account identifier. The engine never interprets
// it, only compares it.
type Party string

// Validate returns an error if this party identifier is unusable.
func (p Party) Validate() error {
	if len(p) == 0 {
		return errors.Wrap(errors.ErrEmpty, "party")
	}
	if len(p) > maxPartySize {
		return errors.Wrapf(errors.ErrInput, "party identifier longer than %d characters", maxPartySize)
	}
	return nil
}

// LegID selects one of the two order legs.
type LegID uint8

const (
	// LegSource is the initiator side lock.
	LegSource LegID = iota + 1
	// LegDestination is the counterparty side lock.
	LegDestination
)

func (l LegID) String() string {
	switch l {
	case LegSource:
		return "source"
	case LegDestination:
		return "destination"
	default:
		return fmt.Sprintf("invalid leg (%d)", int(l))
	}
}

// Validate returns an error if this is not a known leg.
func (l LegID) Validate() error {
	if l != LegSource && l != LegDestination {
		return errors.Wrapf(errors.ErrInput, "unknown leg %d", int(l))
	}
	return nil
}

// Leg is one ledger side lock of an order.
type Leg struct {
	ChainID       string            `json:"chain_id"`
	Asset         string            `json:"asset"`
	Amount        decimal.Decimal   `json:"amount"`
	Sender        Party             `json:"sender"`
	Receiver      Party             `json:"receiver"`
	Hashlock      hashlock.Hashlock `json:"hashlock"`
	Timelock      swapcore.UnixTime `json:"timelock"`
	SafetyDeposit decimal.Decimal   `json:"safety_deposit"`
}

// Validate returns an error if the leg is malformed.
func (l Leg) Validate() error {
	if l.ChainID == "" {
		return errors.Wrap(errors.ErrEmpty, "chain id")
	}
	if l.Asset == "" {
		return errors.Wrap(errors.ErrEmpty, "asset")
	}
	if !l.Amount.IsPositive() {
		return errors.Wrap(errors.ErrAmount, "amount must be positive")
	}
	if err := l.Sender.Validate(); err != nil {
		return errors.Wrap(err, "sender")
	}
	if err := l.Receiver.Validate(); err != nil {
		return errors.Wrap(err, "receiver")
	}
	if err := l.Hashlock.Validate(); err != nil {
		return errors.Wrap(err, "hashlock")
	}
	if l.Timelock.IsZero() {
		// Zero timelock is a valid value that dates to 1970-01-01. We
		// know that this value is in the past and makes no sense. Most
		// likely value was not provided and a zero value remained.
		return errors.Wrap(errors.ErrInput, "timelock is required")
	}
	if err := l.Timelock.Validate(); err != nil {
		return errors.Wrap(err, "timelock")
	}
	if l.SafetyDeposit.IsNegative() {
		return errors.Wrap(errors.ErrAmount, "safety deposit must not be negative")
	}
	return nil
}

// FillStatus is the lifecycle state of a single partial fill.
type FillStatus uint8

const (
	FillInvalid FillStatus = iota
	// FillPending is an active claim against the order remainder.
	FillPending
	// FillCompleted means the fill was withdrawn with a valid secret.
	FillCompleted
	// FillRefunded means the fill was returned to the filler after
	// expiry. Refunded fills no longer count against the remainder.
	FillRefunded
)

func (s FillStatus) String() string {
	switch s {
	case FillPending:
		return "pending"
	case FillCompleted:
		return "completed"
	case FillRefunded:
		return "refunded"
	default:
		return fmt.Sprintf("invalid fill status (%d)", int(s))
	}
}

// Fill is a partial claim against an order remaining amount.
type Fill struct {
	ID        string            `json:"id"`
	OrderID   string            `json:"order_id"`
	Filler    Party             `json:"filler"`
	Amount    decimal.Decimal   `json:"amount"`
	Status    FillStatus        `json:"status"`
	CreatedAt swapcore.UnixTime `json:"created_at"`
}

// Validate returns an error if the fill is malformed.
func (f Fill) Validate() error {
	if f.ID == "" {
		return errors.Wrap(errors.ErrEmpty, "id")
	}
	if f.OrderID == "" {
		return errors.Wrap(errors.ErrEmpty, "order id")
	}
	if err := f.Filler.Validate(); err != nil {
		return errors.Wrap(err, "filler")
	}
	if !f.Amount.IsPositive() {
		return errors.Wrap(errors.ErrAmount, "amount must be positive")
	}
	if f.Status < FillPending || f.Status > FillRefunded {
		return errors.Wrapf(errors.ErrState, "unknown fill status %d", int(f.Status))
	}
	return nil
}

// Order is one atomic exchange of value locked on two independent ledgers.
// It is owned exclusively by the coordinator for its lifetime and becomes
// immutable once terminal.
type Order struct {
	ID           string `json:"id"`
	Initiator    Party  `json:"initiator"`
	// Counterparty may stay empty until a resolver commits to the order.
	Counterparty Party `json:"counterparty,omitempty"`

	Source      Leg `json:"source"`
	Destination Leg `json:"destination"`

	// SecretHash is the canonical SHA-256 digest binding both legs.
	SecretHash []byte `json:"secret_hash"`
	// Secret is nil until revealed. Once revealed on any leg it is
	// public domain data usable on both legs.
	Secret []byte `json:"secret,omitempty"`

	Status Status `json:"status"`

	AllowPartialFill bool            `json:"allow_partial_fill"`
	MinFillAmount    decimal.Decimal `json:"min_fill_amount"`
	ProtocolFeeBps   uint32          `json:"protocol_fee_bps"`
	AllowedResolvers []Party         `json:"allowed_resolvers,omitempty"`

	Schedule timelock.Schedule `json:"schedule"`
	// Timelocks is the policy the order was created under. It is fixed at
	// creation so that replaying the order event log validates against
	// the same bounds regardless of later configuration changes.
	Timelocks timelock.Policy `json:"timelock_policy"`

	// Proof references reported by the chain adapters with the leg lock
	// confirmations. Empty until the leg is locked.
	SourceProof      string `json:"source_proof,omitempty"`
	DestinationProof string `json:"destination_proof,omitempty"`
	SourceLocked     bool   `json:"source_locked"`
	DestLocked       bool   `json:"destination_locked"`

	Fills []*Fill `json:"fills,omitempty"`

	CreatedAt swapcore.UnixTime `json:"created_at"`
}

// Validate returns an error if the order is malformed.
func (o *Order) Validate() error {
	if o.ID == "" {
		return errors.Wrap(errors.ErrEmpty, "id")
	}
	if err := o.Initiator.Validate(); err != nil {
		return errors.Wrap(err, "initiator")
	}
	if o.Counterparty != "" {
		if err := o.Counterparty.Validate(); err != nil {
			return errors.Wrap(err, "counterparty")
		}
	}
	if err := o.Source.Validate(); err != nil {
		return errors.Wrap(err, "source")
	}
	if err := o.Destination.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}
	if len(o.SecretHash) != hashlock.DigestSize {
		return errors.Wrapf(errors.ErrInput, "secret hash must be exactly %d bytes", hashlock.DigestSize)
	}
	if err := o.Schedule.Validate(); err != nil {
		return errors.Wrap(err, "schedule")
	}
	if err := o.Timelocks.Validate(); err != nil {
		return errors.Wrap(err, "timelock policy")
	}
	if o.AllowPartialFill {
		if !o.MinFillAmount.IsPositive() {
			return errors.Wrap(errors.ErrAmount, "min fill amount must be positive")
		}
		if o.MinFillAmount.GreaterThan(o.Source.Amount) {
			return errors.Wrap(errors.ErrAmount, "min fill amount greater than order total")
		}
	}
	for _, r := range o.AllowedResolvers {
		if err := r.Validate(); err != nil {
			return errors.Wrap(err, "allowed resolver")
		}
	}
	if o.CreatedAt.IsZero() {
		return errors.Wrap(errors.ErrInput, "creation time is required")
	}
	return nil
}

// Copy returns a deep copy of the order. Stores hand out copies so that a
// caller can never mutate engine owned state behind its back.
func (o *Order) Copy() *Order {
	c := *o
	c.SecretHash = append([]byte(nil), o.SecretHash...)
	if o.Secret != nil {
		c.Secret = append([]byte(nil), o.Secret...)
	}
	c.Source.Hashlock.Digest = append([]byte(nil), o.Source.Hashlock.Digest...)
	c.Destination.Hashlock.Digest = append([]byte(nil), o.Destination.Hashlock.Digest...)
	if o.AllowedResolvers != nil {
		c.AllowedResolvers = append([]Party(nil), o.AllowedResolvers...)
	}
	if o.Fills != nil {
		c.Fills = make([]*Fill, len(o.Fills))
		for i, f := range o.Fills {
			cp := *f
			c.Fills[i] = &cp
		}
	}
	return &c
}

// Total returns the order total amount, denominated in the source leg
// asset. Partial fills are claims against this value.
func (o *Order) Total() decimal.Decimal {
	return o.Source.Amount
}

// FilledAmount returns the sum of all fills that still count against the
// order total. Refunded fills do not count.
func (o *Order) FilledAmount() decimal.Decimal {
	total := decimal.Zero
	for _, f := range o.Fills {
		if f.Status == FillRefunded {
			continue
		}
		total = total.Add(f.Amount)
	}
	return total
}

// RemainingAmount is always recomputed from the fills, never cached.
func (o *Order) RemainingAmount() decimal.Decimal {
	return o.Total().Sub(o.FilledAmount())
}

// Fill returns the fill with given ID or nil.
func (o *Order) Fill(fillID string) *Fill {
	for _, f := range o.Fills {
		if f.ID == fillID {
			return f
		}
	}
	return nil
}

// IsAllowedResolver returns true if given party is on the private resolver
// allow-list of this order.
func (o *Order) IsAllowedResolver(p Party) bool {
	for _, r := range o.AllowedResolvers {
		if r == p {
			return true
		}
	}
	return false
}
