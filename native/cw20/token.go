package cw20

import (
	"errors"
	"fmt"
	"strings"

	"andromeda/core/types"
	"andromeda/native/ado"
)

var (
	errNilState = errors.New("cw20 ledger: state not configured")

	ErrInvalidZeroAmount   = errors.New("cw20: invalid zero amount")
	ErrInsufficientFunds   = errors.New("cw20: insufficient funds")
	ErrNoAllowance         = errors.New("cw20: no allowance for this account")
	ErrCannotSetOwnAccount = errors.New("cw20: cannot set allowance to own account")
	ErrCapExceeded         = errors.New("cw20: minting cannot exceed the cap")
	ErrNotMinter           = errors.New("cw20: sender is not the minter")
	ErrTokenNotInitialised = errors.New("cw20: token info not found")
	ErrInvalidSymbol       = errors.New("cw20: symbol is required")
)

var (
	infoKey         = []byte("cw20/info")
	balancePrefix   = []byte("cw20/balance/")
	allowancePrefix = []byte("cw20/allowance/")
)

// TokenInfo is the stored token metadata. An empty Minter disables minting.
type TokenInfo struct {
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply types.Uint128
	Minter      string
	HasCap      bool
	Cap         types.Uint128
}

func balanceKey(addr string) []byte {
	return append(append([]byte(nil), balancePrefix...), addr...)
}

func allowanceKey(owner, spender string) []byte {
	key := append(append([]byte(nil), allowancePrefix...), owner...)
	key = append(key, '/')
	return append(key, spender...)
}

// Ledger keeps balances and allowances of one token contract.
type Ledger struct {
	state ado.State
}

func NewLedger(state ado.State) *Ledger {
	return &Ledger{state: state}
}

func (l *Ledger) Info() (TokenInfo, error) {
	if l == nil || l.state == nil {
		return TokenInfo{}, errNilState
	}
	var info TokenInfo
	ok, err := l.state.KVGet(infoKey, &info)
	if err != nil {
		return TokenInfo{}, err
	}
	if !ok {
		return TokenInfo{}, ErrTokenNotInitialised
	}
	return info, nil
}

func (l *Ledger) putInfo(info TokenInfo) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	return l.state.KVPut(infoKey, info)
}

// Balance returns the balance of addr, zero when unknown.
func (l *Ledger) Balance(addr string) (types.Uint128, error) {
	if l == nil || l.state == nil {
		return types.Uint128{}, errNilState
	}
	var amount types.Uint128
	if _, err := l.state.KVGet(balanceKey(addr), &amount); err != nil {
		return types.Uint128{}, err
	}
	return amount, nil
}

func (l *Ledger) setBalance(addr string, amount types.Uint128) error {
	if amount.IsZero() {
		return l.state.KVDelete(balanceKey(addr))
	}
	return l.state.KVPut(balanceKey(addr), amount)
}

func (l *Ledger) credit(addr string, amount types.Uint128) error {
	current, err := l.Balance(addr)
	if err != nil {
		return err
	}
	next, err := current.Add(amount)
	if err != nil {
		return fmt.Errorf("cw20: credit %s: %w", addr, err)
	}
	return l.setBalance(addr, next)
}

func (l *Ledger) debit(addr string, amount types.Uint128) error {
	current, err := l.Balance(addr)
	if err != nil {
		return err
	}
	next, err := current.Sub(amount)
	if err != nil {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientFunds, addr, current, amount)
	}
	return l.setBalance(addr, next)
}

// Transfer moves amount from one holder to another.
func (l *Ledger) Transfer(from, to string, amount types.Uint128) error {
	if amount.IsZero() {
		return ErrInvalidZeroAmount
	}
	to = strings.TrimSpace(to)
	if err := types.ValidateAddress(to); err != nil {
		return err
	}
	if err := l.debit(from, amount); err != nil {
		return err
	}
	return l.credit(to, amount)
}

// Mint creates amount for recipient. Only the minter may mint and the cap, if
// any, bounds the total supply.
func (l *Ledger) Mint(sender, recipient string, amount types.Uint128) error {
	if amount.IsZero() {
		return ErrInvalidZeroAmount
	}
	info, err := l.Info()
	if err != nil {
		return err
	}
	if info.Minter == "" || info.Minter != sender {
		return ErrNotMinter
	}
	supply, err := info.TotalSupply.Add(amount)
	if err != nil {
		return err
	}
	if info.HasCap && supply.Cmp(info.Cap) > 0 {
		return ErrCapExceeded
	}
	info.TotalSupply = supply
	if err := l.putInfo(info); err != nil {
		return err
	}
	return l.credit(strings.TrimSpace(recipient), amount)
}

// Burn destroys amount from the sender's balance.
func (l *Ledger) Burn(sender string, amount types.Uint128) error {
	if amount.IsZero() {
		return ErrInvalidZeroAmount
	}
	info, err := l.Info()
	if err != nil {
		return err
	}
	if err := l.debit(sender, amount); err != nil {
		return err
	}
	info.TotalSupply = info.TotalSupply.SaturatingSub(amount)
	return l.putInfo(info)
}

func (l *Ledger) Allowance(owner, spender string) (types.Uint128, error) {
	if l == nil || l.state == nil {
		return types.Uint128{}, errNilState
	}
	var amount types.Uint128
	if _, err := l.state.KVGet(allowanceKey(owner, spender), &amount); err != nil {
		return types.Uint128{}, err
	}
	return amount, nil
}

func (l *Ledger) setAllowance(owner, spender string, amount types.Uint128) error {
	if amount.IsZero() {
		return l.state.KVDelete(allowanceKey(owner, spender))
	}
	return l.state.KVPut(allowanceKey(owner, spender), amount)
}

// IncreaseAllowance lets spender move up to amount more of owner's tokens.
func (l *Ledger) IncreaseAllowance(owner, spender string, amount types.Uint128) (types.Uint128, error) {
	spender = strings.TrimSpace(spender)
	if err := types.ValidateAddress(spender); err != nil {
		return types.Uint128{}, err
	}
	if owner == spender {
		return types.Uint128{}, ErrCannotSetOwnAccount
	}
	current, err := l.Allowance(owner, spender)
	if err != nil {
		return types.Uint128{}, err
	}
	next, err := current.Add(amount)
	if err != nil {
		return types.Uint128{}, err
	}
	return next, l.setAllowance(owner, spender, next)
}

// DecreaseAllowance lowers the allowance, saturating at zero.
func (l *Ledger) DecreaseAllowance(owner, spender string, amount types.Uint128) (types.Uint128, error) {
	spender = strings.TrimSpace(spender)
	if owner == spender {
		return types.Uint128{}, ErrCannotSetOwnAccount
	}
	current, err := l.Allowance(owner, spender)
	if err != nil {
		return types.Uint128{}, err
	}
	next := current.SaturatingSub(amount)
	return next, l.setAllowance(owner, spender, next)
}

func (l *Ledger) spendAllowance(owner, spender string, amount types.Uint128) error {
	current, err := l.Allowance(owner, spender)
	if err != nil {
		return err
	}
	next, err := current.Sub(amount)
	if err != nil {
		return ErrNoAllowance
	}
	return l.setAllowance(owner, spender, next)
}

// TransferFrom moves owner's tokens on behalf of spender.
func (l *Ledger) TransferFrom(spender, owner, to string, amount types.Uint128) error {
	if amount.IsZero() {
		return ErrInvalidZeroAmount
	}
	if err := l.spendAllowance(owner, spender, amount); err != nil {
		return err
	}
	return l.Transfer(owner, to, amount)
}
