package events

import (
	"andromeda/core/types"
)

const (
	TypeSpendRecorded            = "spendlimit.spend_recorded"
	TypePermissionedAddressAdded = "spendlimit.address_added"
	TypePermissionedAddressGone  = "spendlimit.address_removed"
	TypeAuthorizationAdded       = "message.authorization_added"
	TypeAuthorizationRemoved     = "message.authorization_removed"
	TypeSessionKeyCreated        = "sessionkey.created"
	TypeSessionKeyDestroyed      = "sessionkey.destroyed"
	TypeDelayedTxQueued          = "delay.queued"
	TypeDelayedTxCancelled       = "delay.cancelled"
	TypeDelayedTxCompleted       = "delay.completed"
)

// SpendRecorded is emitted after a spend is deducted from a permissioned
// address's remaining limit.
type SpendRecorded struct {
	Address     string
	Denom       string
	Amount      types.Uint128
	Remaining   uint64
	Beneficiary bool
}

func (SpendRecorded) EventType() string { return TypeSpendRecorded }

func (e SpendRecorded) Event() *types.Event {
	return &types.Event{
		Type: TypeSpendRecorded,
		Attributes: map[string]string{
			"address":     e.Address,
			"denom":       normalizeDenom(e.Denom),
			"amount":      e.Amount.String(),
			"remaining":   uintToString(e.Remaining),
			"beneficiary": boolToString(e.Beneficiary),
		},
	}
}

type PermissionedAddressAdded struct {
	Address     string
	Beneficiary bool
}

func (PermissionedAddressAdded) EventType() string { return TypePermissionedAddressAdded }

func (e PermissionedAddressAdded) Event() *types.Event {
	return &types.Event{
		Type: TypePermissionedAddressAdded,
		Attributes: map[string]string{
			"address":     e.Address,
			"beneficiary": boolToString(e.Beneficiary),
		},
	}
}

type PermissionedAddressRemoved struct {
	Address string
}

func (PermissionedAddressRemoved) EventType() string { return TypePermissionedAddressGone }

func (e PermissionedAddressRemoved) Event() *types.Event {
	return &types.Event{
		Type:       TypePermissionedAddressGone,
		Attributes: map[string]string{"address": e.Address},
	}
}

// AuthorizationAdded carries the primary key assigned to a new authorization.
type AuthorizationAdded struct {
	Key        string
	Identifier uint16
}

func (AuthorizationAdded) EventType() string { return TypeAuthorizationAdded }

func (e AuthorizationAdded) Event() *types.Event {
	return &types.Event{
		Type: TypeAuthorizationAdded,
		Attributes: map[string]string{
			"key":        e.Key,
			"identifier": uintToString(uint64(e.Identifier)),
		},
	}
}

type AuthorizationRemoved struct {
	Key string
}

func (AuthorizationRemoved) EventType() string { return TypeAuthorizationRemoved }

func (e AuthorizationRemoved) Event() *types.Event {
	return &types.Event{
		Type:       TypeAuthorizationRemoved,
		Attributes: map[string]string{"key": e.Key},
	}
}

type SessionKeyCreated struct {
	Address          string
	Expiration       uint64
	AdminPermissions bool
}

func (SessionKeyCreated) EventType() string { return TypeSessionKeyCreated }

func (e SessionKeyCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeSessionKeyCreated,
		Attributes: map[string]string{
			"address":           e.Address,
			"expiration":        uintToString(e.Expiration),
			"admin_permissions": boolToString(e.AdminPermissions),
		},
	}
}

type SessionKeyDestroyed struct {
	Address string
}

func (SessionKeyDestroyed) EventType() string { return TypeSessionKeyDestroyed }

func (e SessionKeyDestroyed) Event() *types.Event {
	return &types.Event{
		Type:       TypeSessionKeyDestroyed,
		Attributes: map[string]string{"address": e.Address},
	}
}

// DelayedTx covers the queue, cancel and complete transitions of a delayed
// transaction; Kind selects the event type.
type DelayedTx struct {
	Kind       string
	ID         uint64
	Expiration uint64
}

func (e DelayedTx) EventType() string { return e.Kind }

func (e DelayedTx) Event() *types.Event {
	attrs := map[string]string{"txnumber": uintToString(e.ID)}
	if e.Expiration != 0 {
		attrs["delay_expiration"] = uintToString(e.Expiration)
	}
	return &types.Event{Type: e.Kind, Attributes: attrs}
}
