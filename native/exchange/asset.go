package exchange

import (
	"errors"
	"strings"

	"andromeda/core/types"
)

var (
	errNilState = errors.New("exchange engine: state not configured")

	ErrNoOngoingSale    = errors.New("exchange: no ongoing sale")
	ErrSaleNotEnded     = errors.New("exchange: sale has not ended")
	ErrNotEnoughTokens  = errors.New("exchange: not enough tokens left in sale")
	ErrZeroExchangeRate = errors.New("exchange: exchange rate must be non-zero")
	ErrInvalidAsset     = errors.New("exchange: asset must set exactly one of native or cw20")
	ErrSaleTokenAsAsset = errors.New("exchange: sale token cannot be used as payment")
	ErrNotConfigured    = errors.New("exchange: token address not configured")
)

// InvalidFundsError rejects a receive or purchase whose attached value cannot
// be used.
type InvalidFundsError struct {
	Msg string
}

func (e *InvalidFundsError) Error() string {
	return "exchange: invalid funds: " + e.Msg
}

// Asset names what buyers pay with. Exactly one field is set.
type Asset struct {
	Native *string `json:"native,omitempty"`
	Cw20   *string `json:"cw20,omitempty"`
}

func NativeAsset(denom string) Asset { return Asset{Native: &denom} }

func Cw20Asset(token string) Asset { return Asset{Cw20: &token} }

// Validate trims and checks the asset in place.
func (a *Asset) Validate() error {
	if (a.Native == nil) == (a.Cw20 == nil) {
		return ErrInvalidAsset
	}
	if a.Native != nil {
		denom := strings.TrimSpace(*a.Native)
		if denom == "" {
			return ErrInvalidAsset
		}
		a.Native = &denom
		return nil
	}
	token := strings.TrimSpace(*a.Cw20)
	if err := types.ValidateAddress(token); err != nil {
		return err
	}
	a.Cw20 = &token
	return nil
}

// Key is the storage key suffix and the rendered form in events.
func (a Asset) Key() string {
	switch {
	case a.Native != nil:
		return "native:" + *a.Native
	case a.Cw20 != nil:
		return "cw20:" + *a.Cw20
	default:
		return ""
	}
}

func assetFromKey(key string) (Asset, bool) {
	switch {
	case strings.HasPrefix(key, "native:"):
		return NativeAsset(strings.TrimPrefix(key, "native:")), true
	case strings.HasPrefix(key, "cw20:"):
		return Cw20Asset(strings.TrimPrefix(key, "cw20:")), true
	default:
		return Asset{}, false
	}
}

// Sale is the remaining inventory offered for one asset.
type Sale struct {
	ExchangeRate types.Uint128 `json:"exchange_rate"`
	Amount       types.Uint128 `json:"amount"`
}

type config struct {
	TokenAddress string
	AddressList  string
}
