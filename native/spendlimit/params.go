package spendlimit

import (
	"errors"
	"fmt"
	"time"

	"andromeda/core/host"
	"andromeda/native/common"
	"andromeda/native/sourced"
)

var (
	// ErrNoSpendLimit is returned when params carry no limit entry.
	ErrNoSpendLimit = errors.New("spendlimit: exactly one spend limit is required")
	// ErrLimitExceedsAmount is returned when limit_remaining > amount.
	ErrLimitExceedsAmount = errors.New("spendlimit: remaining limit exceeds the period amount")
)

// CannotSpendMoreThanLimitError is returned when a spend would push the
// remaining limit below zero.
type CannotSpendMoreThanLimitError struct {
	Amount string
	Denom  string
}

func (e *CannotSpendMoreThanLimitError) Error() string {
	return fmt.Sprintf("spendlimit: cannot spend more than limit: %s %s", e.Amount, e.Denom)
}

// CoinLimit is a periodic allowance in a single denomination.
type CoinLimit struct {
	Denom          string `json:"denom"`
	Amount         uint64 `json:"amount"`
	LimitRemaining uint64 `json:"limit_remaining"`
}

// PermissionedAddressParams describes one spend-limited address. For an active
// permissioned address cooldown is the next reset time; for a beneficiary it is
// the dormancy threshold of the main account.
type PermissionedAddressParams struct {
	Address        string            `json:"address"`
	Cooldown       uint64            `json:"cooldown"`
	PeriodType     common.PeriodType `json:"period_type"`
	PeriodMultiple uint16            `json:"period_multiple"`
	SpendLimits    []CoinLimit       `json:"spend_limits"`
	USDCDenom      *string           `json:"usdc_denom,omitempty"`
	Default        *bool             `json:"default,omitempty"`
}

// PermissionedAddress holds at most one params record per class.
type PermissionedAddress struct {
	Params            *PermissionedAddressParams `json:"params,omitempty"`
	BeneficiaryParams *PermissionedAddressParams `json:"beneficiary_params,omitempty"`
}

// NewPermissionedAddress places params in the active or beneficiary class.
func NewPermissionedAddress(params PermissionedAddressParams, beneficiary bool) PermissionedAddress {
	p := params.clone()
	if beneficiary {
		return PermissionedAddress{BeneficiaryParams: &p}
	}
	return PermissionedAddress{Params: &p}
}

// Address returns the address of whichever class is set.
func (p PermissionedAddress) Address() string {
	if p.Params != nil {
		return p.Params.Address
	}
	if p.BeneficiaryParams != nil {
		return p.BeneficiaryParams.Address
	}
	return ""
}

func (p PermissionedAddress) IsActive() bool      { return p.Params != nil }
func (p PermissionedAddress) IsBeneficiary() bool { return p.BeneficiaryParams != nil }

// Validate checks the period and the single-limit invariant.
func (p PermissionedAddressParams) Validate() error {
	if err := p.PeriodType.Validate(p.PeriodMultiple); err != nil {
		return err
	}
	if len(p.SpendLimits) != 1 {
		return ErrNoSpendLimit
	}
	return p.SpendLimits[0].validate()
}

func (l CoinLimit) validate() error {
	if l.LimitRemaining > l.Amount {
		return fmt.Errorf("%w: %d > %d", ErrLimitExceedsAmount, l.LimitRemaining, l.Amount)
	}
	return nil
}

func (p PermissionedAddressParams) clone() PermissionedAddressParams {
	out := p
	out.SpendLimits = append([]CoinLimit(nil), p.SpendLimits...)
	if p.USDCDenom != nil {
		v := *p.USDCDenom
		out.USDCDenom = &v
	}
	if p.Default != nil {
		v := *p.Default
		out.Default = &v
	}
	return out
}

// ShouldReset reports whether the period has lapsed at now.
func (p PermissionedAddressParams) ShouldReset(now time.Time) bool {
	return common.WindowExpired(now, p.Cooldown)
}

// ResetPeriod refills the limit and moves cooldown to the next period start.
func (p *PermissionedAddressParams) ResetPeriod(now time.Time) error {
	next, err := common.NextPeriodStart(now, p.PeriodType, p.PeriodMultiple)
	if err != nil {
		return err
	}
	if len(p.SpendLimits) == 0 {
		return ErrNoSpendLimit
	}
	p.SpendLimits[0].LimitRemaining = p.SpendLimits[0].Amount
	p.Cooldown = uint64(next.Unix())
	return nil
}

// UpdateSpendLimit replaces the limit list with a single entry.
func (p *PermissionedAddressParams) UpdateSpendLimit(limit CoinLimit) error {
	if err := limit.validate(); err != nil {
		return err
	}
	p.SpendLimits = []CoinLimit{limit}
	return nil
}

// SimulateReduce converts spend and returns the limit that would remain. With
// reset the full period amount is checked instead of the remaining limit.
func (p PermissionedAddressParams) SimulateReduce(q host.Querier, unifier string, spend sourced.SourcedCoins, reset bool) (uint64, sourced.SourcedCoins, error) {
	if len(p.SpendLimits) == 0 {
		return 0, sourced.SourcedCoins{}, ErrNoSpendLimit
	}
	converted, err := spend.ConvertToUSDC(q, unifier, false)
	if err != nil {
		return 0, sourced.SourcedCoins{}, err
	}
	limit := p.SpendLimits[0].LimitRemaining
	if reset {
		limit = p.SpendLimits[0].Amount
	}
	exceeded := &CannotSpendMoreThanLimitError{
		Amount: converted.UnifiedAsset.Amount,
		Denom:  converted.UnifiedAsset.Denom,
	}
	amount, err := sourcedAmount(converted)
	if err != nil {
		return 0, sourced.SourcedCoins{}, exceeded
	}
	if amount > limit {
		return 0, sourced.SourcedCoins{}, exceeded
	}
	return limit - amount, sourced.SourcedCoins{
		Coins:          converted.UnifiedAssetCoins(),
		WrappedSources: converted.Sources,
	}, nil
}

// Reduce deducts spend from the remaining limit.
func (p *PermissionedAddressParams) Reduce(q host.Querier, unifier string, spend sourced.SourcedCoins) (sourced.SourcedCoins, error) {
	remaining, out, err := p.SimulateReduce(q, unifier, spend, false)
	if err != nil {
		return sourced.SourcedCoins{}, err
	}
	p.SpendLimits[0].LimitRemaining = remaining
	return out, nil
}

func sourcedAmount(resp sourced.UnifiedAssetsResponse) (uint64, error) {
	amount, err := resp.Amount()
	if err != nil {
		return 0, err
	}
	v, ok := amount.Uint64()
	if !ok {
		return 0, sourced.ErrOverflow
	}
	return v, nil
}
