package spendlimit

import (
	"errors"
	"fmt"
	"time"

	"andromeda/core/events"
	"andromeda/core/host"
	"andromeda/core/types"
	"andromeda/native/ado"
	"andromeda/native/sourced"
)

var (
	errNilState = errors.New("spendlimit engine: state not configured")

	ErrPermissionedAddressExists       = errors.New("spendlimit: permissioned address already exists")
	ErrPermissionedAddressDoesNotExist = errors.New("spendlimit: permissioned address does not exist")
	ErrNotBeneficiary                  = errors.New("spendlimit: address is permissioned but not a beneficiary")
	ErrBeneficiaryOnly                 = errors.New("spendlimit: address has beneficiary permissions only")
	ErrNoFunds                         = errors.New("spendlimit: no funds to check")
)

const (
	reasonWithinLimit = "Permissioned address, with spending within spend limits"
	reasonOverLimit   = "Permissioned address does not exist or over spend limit"
)

// CanSpendResponse answers can_spend.
type CanSpendResponse struct {
	CanSpend bool   `json:"can_spend"`
	Reason   string `json:"reason"`
}

// Engine tracks periodic spend limits for permissioned addresses. Limits reset
// lazily: every check or deduction first refills a class whose period lapsed.
type Engine struct {
	state   ado.State
	base    *ado.Base
	querier host.Querier
	emitter events.Emitter
	nowFn   func() time.Time
}

// NewEngine creates an engine with a no-op emitter and the UTC clock.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

// SetState configures the contract state the engine reads and writes.
func (e *Engine) SetState(state ado.State) {
	e.state = state
	e.base = ado.New(state)
}

// SetQuerier configures the querier used to reach the asset unifier.
func (e *Engine) SetQuerier(q host.Querier) { e.querier = q }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the clock used for period resets.
func (e *Engine) SetNowFunc(now func() time.Time) {
	if now == nil {
		e.nowFn = func() time.Time { return time.Now().UTC() }
		return
	}
	e.nowFn = now
}

func (e *Engine) now() time.Time {
	if e == nil || e.nowFn == nil {
		return time.Now().UTC()
	}
	return e.nowFn()
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return nil
}

// SetUnifier stores the asset unifier address used for conversions.
func (e *Engine) SetUnifier(addr string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if addr == "" {
		addr = sourced.LocalTestUnifier
	}
	return e.state.KVPut(unifierKey, addr)
}

// Unifier returns the configured asset unifier address.
func (e *Engine) Unifier() (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	var addr string
	ok, err := e.state.KVGet(unifierKey, &addr)
	if err != nil {
		return "", err
	}
	if !ok {
		return sourced.LocalTestUnifier, nil
	}
	return addr, nil
}

// Upsert adds params under the active or beneficiary class. An existing entry
// for the address is never overwritten.
func (e *Engine) Upsert(sender string, params PermissionedAddressParams, beneficiary bool) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.base.RequireAdmin(sender); err != nil {
		return err
	}
	if err := types.ValidateAddress(params.Address); err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return err
	}
	_, exists, err := e.load(params.Address)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrPermissionedAddressExists, params.Address)
	}
	if err := e.store(NewPermissionedAddress(params, beneficiary)); err != nil {
		return err
	}
	e.emit(events.PermissionedAddressAdded{Address: params.Address, Beneficiary: beneficiary})
	return nil
}

// Remove deletes addr and both of its classes.
func (e *Engine) Remove(sender, addr string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.base.RequireAdmin(sender); err != nil {
		return err
	}
	_, exists, err := e.load(addr)
	if err != nil {
		return err
	}
	if !exists {
		return ErrPermissionedAddressDoesNotExist
	}
	if err := e.state.KVDelete(addressKey(addr)); err != nil {
		return err
	}
	e.emit(events.PermissionedAddressRemoved{Address: addr})
	return nil
}

// UpdateSpendLimit replaces the limit of one class. isBeneficiary is the wire
// string "true" or "false".
func (e *Engine) UpdateSpendLimit(sender, addr string, limit CoinLimit, isBeneficiary string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.base.RequireAdmin(sender); err != nil {
		return err
	}
	wallet, exists, err := e.load(addr)
	if err != nil {
		return err
	}
	if !exists {
		return ErrPermissionedAddressDoesNotExist
	}
	if isBeneficiary == "true" {
		if !wallet.IsBeneficiary() {
			return ErrNotBeneficiary
		}
		if err := wallet.BeneficiaryParams.UpdateSpendLimit(limit); err != nil {
			return err
		}
	} else {
		if !wallet.IsActive() {
			return ErrBeneficiaryOnly
		}
		if err := wallet.Params.UpdateSpendLimit(limit); err != nil {
			return err
		}
	}
	return e.store(wallet)
}

// PermissionedAddresses lists the params of every address, falling back to the
// beneficiary params when no active class is set.
func (e *Engine) PermissionedAddresses() ([]PermissionedAddressParams, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	out := []PermissionedAddressParams{}
	err := e.state.KVIterate(addressPrefix, func(_ []byte, decode func(out interface{}) error) (bool, error) {
		var rec addressRecord
		if err := decode(&rec); err != nil {
			return false, err
		}
		if p := fromParamsRecord(rec.Params); p != nil {
			out = append(out, *p)
		} else if b := fromParamsRecord(rec.Beneficiary); b != nil {
			out = append(out, *b)
		}
		return true, nil
	})
	return out, err
}

// CheckAndUpdateSpendLimits deducts spend from addr's allowance and returns the
// converted amount. Admins bypass the check. The active class is tried before
// the beneficiary class.
func (e *Engine) CheckAndUpdateSpendLimits(addr string, spend []types.Coin) (sourced.SourcedCoins, error) {
	if err := e.ready(); err != nil {
		return sourced.SourcedCoins{}, err
	}
	if e.base.IsAdmin(addr) {
		return sourced.AdminSourcedCoins(), nil
	}
	if len(spend) == 0 {
		return sourced.SourcedCoins{}, ErrNoFunds
	}
	wallet, exists, err := e.load(addr)
	if err != nil {
		return sourced.SourcedCoins{}, err
	}
	if !exists {
		return sourced.SourcedCoins{}, ErrPermissionedAddressDoesNotExist
	}
	unifier, err := e.Unifier()
	if err != nil {
		return sourced.SourcedCoins{}, err
	}
	now := e.now()
	if wallet.IsActive() && wallet.Params.ShouldReset(now) {
		if err := wallet.Params.ResetPeriod(now); err != nil {
			return sourced.SourcedCoins{}, err
		}
	}
	if wallet.IsBeneficiary() && wallet.BeneficiaryParams.ShouldReset(now) {
		if err := wallet.BeneficiaryParams.ResetPeriod(now); err != nil {
			return sourced.SourcedCoins{}, err
		}
	}

	request := sourced.SourcedCoins{Coins: types.CloneCoins(spend)}
	var cached error = ErrPermissionedAddressDoesNotExist
	if wallet.IsActive() {
		out, err := wallet.Params.Reduce(e.querier, unifier, request)
		if err == nil {
			return out, e.commitSpend(wallet, wallet.Params, out, false)
		}
		cached = err
	}
	if wallet.IsBeneficiary() {
		out, err := wallet.BeneficiaryParams.Reduce(e.querier, unifier, request)
		if err != nil {
			return sourced.SourcedCoins{}, err
		}
		return out, e.commitSpend(wallet, wallet.BeneficiaryParams, out, true)
	}
	return sourced.SourcedCoins{}, cached
}

func (e *Engine) commitSpend(wallet PermissionedAddress, params *PermissionedAddressParams, spent sourced.SourcedCoins, beneficiary bool) error {
	if err := e.store(wallet); err != nil {
		return err
	}
	evt := events.SpendRecorded{
		Address:     params.Address,
		Remaining:   params.SpendLimits[0].LimitRemaining,
		Beneficiary: beneficiary,
	}
	if len(spent.Coins) > 0 {
		evt.Denom = spent.Coins[0].Denom
		amount, err := types.CoinAmount(spent.Coins[0])
		if err != nil {
			return err
		}
		evt.Amount = amount
	}
	e.emit(evt)
	return nil
}

// CheckSpendLimits simulates CheckAndUpdateSpendLimits without persisting.
// A class whose period lapsed is checked against its full amount.
func (e *Engine) CheckSpendLimits(addr string, spend []types.Coin) (sourced.SourcedCoins, error) {
	if err := e.ready(); err != nil {
		return sourced.SourcedCoins{}, err
	}
	if e.base.IsAdmin(addr) {
		return sourced.AdminSourcedCoins(), nil
	}
	if len(spend) == 0 {
		return sourced.SourcedCoins{}, ErrNoFunds
	}
	wallet, exists, err := e.load(addr)
	if err != nil {
		return sourced.SourcedCoins{}, err
	}
	if !exists {
		return sourced.SourcedCoins{}, ErrPermissionedAddressDoesNotExist
	}
	unifier, err := e.Unifier()
	if err != nil {
		return sourced.SourcedCoins{}, err
	}
	now := e.now()
	request := sourced.SourcedCoins{Coins: types.CloneCoins(spend)}

	var cached error = ErrPermissionedAddressDoesNotExist
	if wallet.IsActive() {
		_, out, err := wallet.Params.SimulateReduce(e.querier, unifier, request, wallet.Params.ShouldReset(now))
		if err == nil {
			return out, nil
		}
		cached = err
	}
	if wallet.IsBeneficiary() {
		b := wallet.BeneficiaryParams
		if _, out, err := b.SimulateReduce(e.querier, unifier, request, b.ShouldReset(now)); err == nil {
			return out, nil
		} else if !wallet.IsActive() {
			return sourced.SourcedCoins{}, err
		}
	}
	return sourced.SourcedCoins{}, cached
}

// CanSpend reports whether sender may spend funds right now.
func (e *Engine) CanSpend(sender string, funds []types.Coin) (CanSpendResponse, error) {
	if err := e.ready(); err != nil {
		return CanSpendResponse{}, err
	}
	if _, err := e.CheckSpendLimits(sender, funds); err != nil {
		return CanSpendResponse{CanSpend: false, Reason: reasonOverLimit}, nil
	}
	return CanSpendResponse{CanSpend: true, Reason: reasonWithinLimit}, nil
}

// RecordSpend lets an admin (typically the user account, registered as an
// operator) deduct a spend made by addr.
func (e *Engine) RecordSpend(sender, addr string, funds []types.Coin) (sourced.SourcedCoins, error) {
	if err := e.ready(); err != nil {
		return sourced.SourcedCoins{}, err
	}
	if err := e.base.RequireAdmin(sender); err != nil {
		return sourced.SourcedCoins{}, err
	}
	return e.CheckAndUpdateSpendLimits(addr, funds)
}
