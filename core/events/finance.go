package events

import (
	"andromeda/core/types"
)

const (
	TypeActorPermissionSet     = "addresslist.permission_set"
	TypeActorPermissionRemoved = "addresslist.permission_removed"
	TypeSaleStarted            = "exchange.sale_started"
	TypeSalePurchased          = "exchange.purchase"
	TypeSaleCancelled          = "exchange.sale_cancelled"
	TypeSplitSent              = "splitter.send"
)

// ActorPermission covers adds and removals on an address list; Removed
// selects the event type.
type ActorPermission struct {
	Actor      string
	Permission string
	Removed    bool
}

func (e ActorPermission) EventType() string {
	if e.Removed {
		return TypeActorPermissionRemoved
	}
	return TypeActorPermissionSet
}

func (e ActorPermission) Event() *types.Event {
	attrs := map[string]string{"actor": e.Actor}
	if !e.Removed {
		attrs["permission"] = e.Permission
	}
	return &types.Event{Type: e.EventType(), Attributes: attrs}
}

type SaleStarted struct {
	Asset        string
	Amount       types.Uint128
	ExchangeRate types.Uint128
}

func (SaleStarted) EventType() string { return TypeSaleStarted }

func (e SaleStarted) Event() *types.Event {
	return &types.Event{
		Type: TypeSaleStarted,
		Attributes: map[string]string{
			"asset":  e.Asset,
			"amount": e.Amount.String(),
			"rate":   e.ExchangeRate.String(),
		},
	}
}

type SalePurchased struct {
	Asset     string
	Purchaser string
	Recipient string
	Purchased types.Uint128
	Refund    types.Uint128
	Remaining types.Uint128
}

func (SalePurchased) EventType() string { return TypeSalePurchased }

func (e SalePurchased) Event() *types.Event {
	return &types.Event{
		Type: TypeSalePurchased,
		Attributes: map[string]string{
			"asset":     e.Asset,
			"purchaser": e.Purchaser,
			"recipient": e.Recipient,
			"purchased": e.Purchased.String(),
			"refund":    e.Refund.String(),
			"remaining": e.Remaining.String(),
		},
	}
}

type SaleCancelled struct {
	Asset    string
	Returned types.Uint128
}

func (SaleCancelled) EventType() string { return TypeSaleCancelled }

func (e SaleCancelled) Event() *types.Event {
	return &types.Event{
		Type: TypeSaleCancelled,
		Attributes: map[string]string{
			"asset":    e.Asset,
			"returned": e.Returned.String(),
		},
	}
}

// SplitSent is emitted once per send with the funds kept by recipients and
// the remainder returned to the sender.
type SplitSent struct {
	Sender     string
	Recipients int
	Refund     string
}

func (SplitSent) EventType() string { return TypeSplitSent }

func (e SplitSent) Event() *types.Event {
	return &types.Event{
		Type: TypeSplitSent,
		Attributes: map[string]string{
			"sender":     e.Sender,
			"recipients": uintToString(uint64(e.Recipients)),
			"refund":     e.Refund,
		},
	}
}
