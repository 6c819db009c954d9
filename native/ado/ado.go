package ado

import (
	"errors"
	"fmt"
	"strings"

	"andromeda/core/host"
	"andromeda/core/types"
)

var (
	// ErrUnauthorized is returned when the sender lacks the required role.
	ErrUnauthorized = errors.New("ado: unauthorized")
	// ErrNotInitialised is returned when the base record was never written.
	ErrNotInitialised = errors.New("ado: contract not initialised")
)

var (
	ownerKey        = []byte("ado/owner")
	operatorsPrefix = []byte("ado/operators/")
	legacyOwnerKey  = []byte("ado/legacy_owner")
)

// State is the key/value capability the ADO base needs. host.Store satisfies
// it.
type State interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
	KVIterate(prefix []byte, fn func(key []byte, decode func(out interface{}) error) (bool, error)) error
}

// InstantiateInfo seeds the base record of a new contract.
type InstantiateInfo struct {
	ContractName string
	Version      string
	Owner        string
	Operators    []string
	LegacyOwner  string
}

// Base holds the ownership and versioning state shared by every contract.
type Base struct {
	state State
}

// New binds the base to a contract's state.
func New(state State) *Base {
	return &Base{state: state}
}

// Instantiate writes the version record and the initial roles.
func (b *Base) Instantiate(info InstantiateInfo) error {
	if b == nil || b.state == nil {
		return ErrNotInitialised
	}
	if err := types.ValidateAddress(info.Owner); err != nil {
		return err
	}
	if err := SetContractVersion(b.state, info.ContractName, info.Version); err != nil {
		return err
	}
	if err := b.state.KVPut(ownerKey, info.Owner); err != nil {
		return err
	}
	if err := b.setOperators(info.Operators); err != nil {
		return err
	}
	if legacy := strings.TrimSpace(info.LegacyOwner); legacy != "" {
		return b.SetLegacyOwner(legacy)
	}
	return nil
}

// Owner returns the contract owner.
func (b *Base) Owner() (string, error) {
	if b == nil || b.state == nil {
		return "", ErrNotInitialised
	}
	var owner string
	ok, err := b.state.KVGet(ownerKey, &owner)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNotInitialised
	}
	return owner, nil
}

// IsContractOwner reports whether addr is the owner.
func (b *Base) IsContractOwner(addr string) (bool, error) {
	owner, err := b.Owner()
	if err != nil {
		return false, err
	}
	return owner == addr, nil
}

func operatorKey(addr string) []byte {
	return append(append([]byte(nil), operatorsPrefix...), addr...)
}

// IsOperator reports whether addr is a registered operator.
func (b *Base) IsOperator(addr string) (bool, error) {
	if b == nil || b.state == nil {
		return false, ErrNotInitialised
	}
	if addr == "" {
		return false, nil
	}
	return b.state.KVGet(operatorKey(addr), nil)
}

// IsOwnerOrOperator reports whether addr is the owner or an operator.
func (b *Base) IsOwnerOrOperator(addr string) (bool, error) {
	owner, err := b.IsContractOwner(addr)
	if err != nil || owner {
		return owner, err
	}
	return b.IsOperator(addr)
}

// Operators lists the operators in address order.
func (b *Base) Operators() ([]string, error) {
	if b == nil || b.state == nil {
		return nil, ErrNotInitialised
	}
	var out []string
	err := b.state.KVIterate(operatorsPrefix, func(key []byte, _ func(out interface{}) error) (bool, error) {
		out = append(out, string(key[len(operatorsPrefix):]))
		return true, nil
	})
	return out, err
}

func (b *Base) setOperators(operators []string) error {
	existing, err := b.Operators()
	if err != nil {
		return err
	}
	for _, op := range existing {
		if err := b.state.KVDelete(operatorKey(op)); err != nil {
			return err
		}
	}
	for _, op := range operators {
		if err := types.ValidateAddress(op); err != nil {
			return err
		}
		if err := b.state.KVPut(operatorKey(op), true); err != nil {
			return err
		}
	}
	return nil
}

// LegacyOwner returns the legacy owner and whether one is set.
func (b *Base) LegacyOwner() (string, bool, error) {
	if b == nil || b.state == nil {
		return "", false, ErrNotInitialised
	}
	var legacy string
	ok, err := b.state.KVGet(legacyOwnerKey, &legacy)
	if err != nil || !ok || legacy == "" {
		return "", false, err
	}
	return legacy, true, nil
}

// SetLegacyOwner replaces the legacy owner. An empty address clears it.
func (b *Base) SetLegacyOwner(addr string) error {
	if b == nil || b.state == nil {
		return ErrNotInitialised
	}
	if addr == "" {
		return b.state.KVDelete(legacyOwnerKey)
	}
	if err := types.ValidateAddress(addr); err != nil {
		return err
	}
	return b.state.KVPut(legacyOwnerKey, addr)
}

// IsLegacyOwner reports whether addr is the legacy owner.
func (b *Base) IsLegacyOwner(addr string) (bool, error) {
	legacy, ok, err := b.LegacyOwner()
	if err != nil || !ok {
		return false, err
	}
	return legacy == addr, nil
}

// IsAdmin reports whether addr is the owner, an operator or the legacy owner.
// Lookup failures count as "not an admin".
func (b *Base) IsAdmin(addr string) bool {
	if ok, err := b.IsOwnerOrOperator(addr); err == nil && ok {
		return true
	}
	ok, err := b.IsLegacyOwner(addr)
	return err == nil && ok
}

// RequireAdmin returns ErrUnauthorized unless IsAdmin(addr).
func (b *Base) RequireAdmin(addr string) error {
	if !b.IsAdmin(addr) {
		return ErrUnauthorized
	}
	return nil
}

// RequireOwner returns ErrUnauthorized unless addr is the owner.
func (b *Base) RequireOwner(addr string) error {
	ok, err := b.IsContractOwner(addr)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

// UpdateLegacyOwner lets the current legacy owner hand the role over.
func (b *Base) UpdateLegacyOwner(sender, newOwner string) (*host.Response, error) {
	ok, err := b.IsLegacyOwner(sender)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnauthorized
	}
	if err := b.SetLegacyOwner(newOwner); err != nil {
		return nil, err
	}
	return host.NewResponse().
		AddAttribute("action", "update_legacy_owner").
		AddAttribute("value", newOwner), nil
}

// Receive handles the base messages carried by andr_receive. Only the owner
// may send them.
func (b *Base) Receive(sender string, msg types.AndromedaMsg) (*host.Response, error) {
	if err := b.RequireOwner(sender); err != nil {
		return nil, err
	}
	switch {
	case msg.UpdateOwner != nil:
		addr := strings.TrimSpace(msg.UpdateOwner.Address)
		if err := types.ValidateAddress(addr); err != nil {
			return nil, err
		}
		if err := b.state.KVPut(ownerKey, addr); err != nil {
			return nil, err
		}
		return host.NewResponse().
			AddAttribute("action", "update_owner").
			AddAttribute("value", addr), nil
	case msg.UpdateOperators != nil:
		if err := b.setOperators(msg.UpdateOperators.Operators); err != nil {
			return nil, err
		}
		return host.NewResponse().AddAttribute("action", "update_operators"), nil
	default:
		return nil, fmt.Errorf("ado: empty andromeda message")
	}
}
