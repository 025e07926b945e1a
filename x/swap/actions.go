package swap

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ActionKind names the chain transaction an adapter is instructed to
// submit.
type ActionKind uint8

const (
	// ActionSubmitWithdraw instructs the adapter to redeem a leg lock
	// with the attached secret.
	ActionSubmitWithdraw ActionKind = iota + 1
	// ActionSubmitRefund instructs the adapter to reclaim a leg lock
	// after its timelock lapsed.
	ActionSubmitRefund
)

func (k ActionKind) String() string {
	switch k {
	case ActionSubmitWithdraw:
		return "submit_withdraw"
	case ActionSubmitRefund:
		return "submit_refund"
	default:
		return fmt.Sprintf("invalid action (%d)", int(k))
	}
}

// ChainAction is an emit-to-chain instruction for the external adapter. The
// engine performs no I/O itself; executing actions, observing the result
// and reporting it back is entirely the adapter's responsibility.
type ChainAction struct {
	Kind    ActionKind      `json:"kind"`
	ChainID string          `json:"chain_id"`
	OrderID string          `json:"order_id"`
	FillID  string          `json:"fill_id,omitempty"`
	Asset   string          `json:"asset"`
	Amount  decimal.Decimal `json:"amount"`
	// Receiver is the party the funds move to.
	Receiver Party `json:"receiver"`
	// Secret is attached to withdraw actions only.
	Secret []byte `json:"secret,omitempty"`
}

func withdrawAction(o *Order, leg Leg, amount decimal.Decimal, fillID string) ChainAction {
	return ChainAction{
		Kind:     ActionSubmitWithdraw,
		ChainID:  leg.ChainID,
		OrderID:  o.ID,
		FillID:   fillID,
		Asset:    leg.Asset,
		Amount:   amount,
		Receiver: leg.Receiver,
		Secret:   append([]byte(nil), o.Secret...),
	}
}

func refundAction(o *Order, leg Leg, amount decimal.Decimal, fillID string, to Party) ChainAction {
	return ChainAction{
		Kind:     ActionSubmitRefund,
		ChainID:  leg.ChainID,
		OrderID:  o.ID,
		FillID:   fillID,
		Asset:    leg.Asset,
		Amount:   amount,
		Receiver: to,
	}
}
