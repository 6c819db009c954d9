package types

import (
	"fmt"
	"strings"

	wasmvmtypes "github.com/CosmWasm/wasmvm/types"
)

// Coin is the CosmWasm wire coin: {"denom": "...", "amount": "123"}.
type Coin = wasmvmtypes.Coin

// NewCoin builds a wire coin from a checked amount.
func NewCoin(amount Uint128, denom string) Coin {
	return Coin{Denom: denom, Amount: amount.String()}
}

// NewCoin64 builds a wire coin from a uint64 amount.
func NewCoin64(amount uint64, denom string) Coin {
	return NewCoin(NewUint128(amount), denom)
}

// CoinAmount parses the amount of a wire coin.
func CoinAmount(c Coin) (Uint128, error) {
	amount, err := ParseUint128(c.Amount)
	if err != nil {
		return Uint128{}, fmt.Errorf("coin %s: %w", c.Denom, err)
	}
	return amount, nil
}

// ValidateCoins rejects empty denoms and malformed amounts.
func ValidateCoins(coins []Coin) error {
	for _, c := range coins {
		if strings.TrimSpace(c.Denom) == "" {
			return fmt.Errorf("types: coin with empty denom")
		}
		if _, err := CoinAmount(c); err != nil {
			return err
		}
	}
	return nil
}

// CoinsString renders coins as "100uusd,5ujuno" for attributes and logs.
func CoinsString(coins []Coin) string {
	parts := make([]string, 0, len(coins))
	for _, c := range coins {
		parts = append(parts, c.Amount+c.Denom)
	}
	return strings.Join(parts, ",")
}

// CloneCoins returns a copy that does not alias coins.
func CloneCoins(coins []Coin) []Coin {
	if coins == nil {
		return nil
	}
	return append([]Coin(nil), coins...)
}
