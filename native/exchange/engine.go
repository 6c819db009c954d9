package exchange

import (
	"strings"

	"andromeda/core/events"
	"andromeda/core/types"
	"andromeda/native/ado"
)

var (
	configKey  = []byte("exchange/config")
	salePrefix = []byte("exchange/sale/")
)

func saleKey(asset Asset) []byte {
	return append(append([]byte(nil), salePrefix...), asset.Key()...)
}

// Engine sells a single cw20 token for any number of payment assets, each at
// its own fixed rate.
type Engine struct {
	state   ado.State
	base    *ado.Base
	emitter events.Emitter
}

func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

func (e *Engine) SetState(state ado.State) {
	e.state = state
	e.base = ado.New(state)
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
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

// Configure records the token on sale and the optional address list gating
// purchases.
func (e *Engine) Configure(token, addressList string) error {
	if err := e.ready(); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if err := types.ValidateAddress(token); err != nil {
		return err
	}
	addressList = strings.TrimSpace(addressList)
	if addressList != "" {
		if err := types.ValidateAddress(addressList); err != nil {
			return err
		}
	}
	return e.state.KVPut(configKey, config{TokenAddress: token, AddressList: addressList})
}

func (e *Engine) config() (config, error) {
	if err := e.ready(); err != nil {
		return config{}, err
	}
	var cfg config
	ok, err := e.state.KVGet(configKey, &cfg)
	if err != nil {
		return config{}, err
	}
	if !ok {
		return config{}, ErrNotConfigured
	}
	return cfg, nil
}

// TokenAddress returns the cw20 token being sold.
func (e *Engine) TokenAddress() (string, error) {
	cfg, err := e.config()
	return cfg.TokenAddress, err
}

// AddressList returns the address list consulted on purchase, if any.
func (e *Engine) AddressList() (string, error) {
	cfg, err := e.config()
	return cfg.AddressList, err
}

// StartSale opens a sale of amount tokens priced in asset. holder is the
// account that sent the tokens and token is the cw20 contract that delivered
// them.
func (e *Engine) StartSale(holder, token string, amount types.Uint128, asset Asset, rate types.Uint128) (Sale, error) {
	if err := e.ready(); err != nil {
		return Sale{}, err
	}
	if amount.IsZero() {
		return Sale{}, &InvalidFundsError{Msg: "Cannot send a 0 amount"}
	}
	if err := e.base.RequireOwner(holder); err != nil {
		return Sale{}, err
	}
	cfg, err := e.config()
	if err != nil {
		return Sale{}, err
	}
	if token != cfg.TokenAddress {
		return Sale{}, &InvalidFundsError{Msg: "Incorrect CW20 provided for sale"}
	}
	if err := asset.Validate(); err != nil {
		return Sale{}, err
	}
	if asset.Cw20 != nil && *asset.Cw20 == cfg.TokenAddress {
		return Sale{}, ErrSaleTokenAsAsset
	}
	if rate.IsZero() {
		return Sale{}, ErrZeroExchangeRate
	}
	if _, ok, err := e.Sale(asset); err != nil {
		return Sale{}, err
	} else if ok {
		return Sale{}, ErrSaleNotEnded
	}
	sale := Sale{ExchangeRate: rate, Amount: amount}
	if err := e.state.KVPut(saleKey(asset), sale); err != nil {
		return Sale{}, err
	}
	e.emit(events.SaleStarted{Asset: asset.Key(), Amount: amount, ExchangeRate: rate})
	return sale, nil
}

// Receipt describes a settled purchase. Proceeds go to the owner and Refund
// back to the purchaser.
type Receipt struct {
	Recipient string
	Purchased types.Uint128
	Proceeds  types.Uint128
	Refund    types.Uint128
	Remaining types.Uint128
}

// Purchase buys as many whole tokens as sent covers at the asset's rate. The
// remainder is refunded and a sale that runs dry is closed.
func (e *Engine) Purchase(purchaser, recipient string, asset Asset, sent types.Uint128) (Receipt, error) {
	if err := e.ready(); err != nil {
		return Receipt{}, err
	}
	if sent.IsZero() {
		return Receipt{}, &InvalidFundsError{Msg: "Cannot send a 0 amount"}
	}
	if err := asset.Validate(); err != nil {
		return Receipt{}, err
	}
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		recipient = purchaser
	}
	if err := types.ValidateAddress(recipient); err != nil {
		return Receipt{}, err
	}
	sale, ok, err := e.Sale(asset)
	if err != nil {
		return Receipt{}, err
	}
	if !ok {
		return Receipt{}, ErrNoOngoingSale
	}
	purchased, err := sent.Div(sale.ExchangeRate)
	if err != nil {
		return Receipt{}, err
	}
	if purchased.IsZero() {
		return Receipt{}, &InvalidFundsError{Msg: "Not enough funds sent to purchase a token"}
	}
	if sale.Amount.Cmp(purchased) < 0 {
		return Receipt{}, ErrNotEnoughTokens
	}
	proceeds, err := purchased.Mul(sale.ExchangeRate)
	if err != nil {
		return Receipt{}, err
	}
	refund, err := sent.Sub(proceeds)
	if err != nil {
		return Receipt{}, err
	}
	remaining, err := sale.Amount.Sub(purchased)
	if err != nil {
		return Receipt{}, err
	}
	if remaining.IsZero() {
		err = e.state.KVDelete(saleKey(asset))
	} else {
		sale.Amount = remaining
		err = e.state.KVPut(saleKey(asset), sale)
	}
	if err != nil {
		return Receipt{}, err
	}
	receipt := Receipt{Recipient: recipient, Purchased: purchased, Proceeds: proceeds, Refund: refund, Remaining: remaining}
	e.emit(events.SalePurchased{
		Asset:     asset.Key(),
		Purchaser: purchaser,
		Recipient: recipient,
		Purchased: purchased,
		Refund:    refund,
		Remaining: remaining,
	})
	return receipt, nil
}

// CancelSale closes the sale for asset and returns the unsold amount.
func (e *Engine) CancelSale(sender string, asset Asset) (types.Uint128, error) {
	if err := e.ready(); err != nil {
		return types.Uint128{}, err
	}
	if err := e.base.RequireOwner(sender); err != nil {
		return types.Uint128{}, err
	}
	if err := asset.Validate(); err != nil {
		return types.Uint128{}, err
	}
	sale, ok, err := e.Sale(asset)
	if err != nil {
		return types.Uint128{}, err
	}
	if !ok {
		return types.Uint128{}, ErrNoOngoingSale
	}
	if err := e.state.KVDelete(saleKey(asset)); err != nil {
		return types.Uint128{}, err
	}
	e.emit(events.SaleCancelled{Asset: asset.Key(), Returned: sale.Amount})
	return sale.Amount, nil
}

// Sale returns the open sale for asset.
func (e *Engine) Sale(asset Asset) (Sale, bool, error) {
	if err := e.ready(); err != nil {
		return Sale{}, false, err
	}
	var sale Sale
	ok, err := e.state.KVGet(saleKey(asset), &sale)
	if err != nil || !ok {
		return Sale{}, false, err
	}
	return sale, true, nil
}

// SaleAssets lists assets with an open sale in key order, starting after
// startAfter.
func (e *Engine) SaleAssets(startAfter string, limit int) ([]Asset, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	var out []Asset
	err := e.state.KVIterate(salePrefix, func(key []byte, _ func(out interface{}) error) (bool, error) {
		name := string(key[len(salePrefix):])
		if startAfter != "" && name <= startAfter {
			return true, nil
		}
		asset, ok := assetFromKey(name)
		if !ok {
			return true, nil
		}
		out = append(out, asset)
		return len(out) < limit, nil
	})
	return out, err
}
