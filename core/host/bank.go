package host

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"andromeda/core/types"
	"andromeda/storage"
)

var bankPrefix = []byte("bank/")

// bank is the native-coin ledger kept by the host.
type bank struct {
	db storage.Database
}

func bankKey(addr, denom string) []byte {
	key := make([]byte, 0, len(bankPrefix)+len(addr)+len(denom)+1)
	key = append(key, bankPrefix...)
	key = append(key, addr...)
	key = append(key, '/')
	return append(key, denom...)
}

func (b bank) balance(addr, denom string) (types.Uint128, error) {
	data, err := b.db.Get(bankKey(addr, denom))
	if errors.Is(err, storage.ErrNotFound) {
		return types.ZeroUint128(), nil
	}
	if err != nil {
		return types.Uint128{}, err
	}
	var amount types.Uint128
	if err := rlp.DecodeBytes(data, &amount); err != nil {
		return types.Uint128{}, fmt.Errorf("bank: decode balance: %w", err)
	}
	return amount, nil
}

func (b bank) setBalance(addr, denom string, amount types.Uint128) error {
	if amount.IsZero() {
		return b.db.Delete(bankKey(addr, denom))
	}
	encoded, err := rlp.EncodeToBytes(amount)
	if err != nil {
		return err
	}
	return b.db.Put(bankKey(addr, denom), encoded)
}

func (b bank) mint(addr string, coins []types.Coin) error {
	for _, coin := range coins {
		amount, err := types.CoinAmount(coin)
		if err != nil {
			return err
		}
		current, err := b.balance(addr, coin.Denom)
		if err != nil {
			return err
		}
		next, err := current.Add(amount)
		if err != nil {
			return fmt.Errorf("bank: mint %s: %w", coin.Denom, err)
		}
		if err := b.setBalance(addr, coin.Denom, next); err != nil {
			return err
		}
	}
	return nil
}

func (b bank) send(from, to string, coins []types.Coin) error {
	for _, coin := range coins {
		amount, err := types.CoinAmount(coin)
		if err != nil {
			return err
		}
		if amount.IsZero() {
			continue
		}
		fromBalance, err := b.balance(from, coin.Denom)
		if err != nil {
			return err
		}
		remaining, err := fromBalance.Sub(amount)
		if err != nil {
			return fmt.Errorf("%w: %s has %s%s, needs %s%s", ErrInsufficientFunds, from, fromBalance, coin.Denom, amount, coin.Denom)
		}
		if err := b.setBalance(from, coin.Denom, remaining); err != nil {
			return err
		}
		toBalance, err := b.balance(to, coin.Denom)
		if err != nil {
			return err
		}
		credited, err := toBalance.Add(amount)
		if err != nil {
			return fmt.Errorf("bank: credit %s: %w", coin.Denom, err)
		}
		if err := b.setBalance(to, coin.Denom, credited); err != nil {
			return err
		}
	}
	return nil
}
