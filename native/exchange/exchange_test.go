package exchange

import (
	"encoding/json"
	"errors"
	"testing"

	"andromeda/core/host"
	"andromeda/core/types"
	"andromeda/native/addresslist"
	"andromeda/native/ado"
	"andromeda/native/cw20"
	"andromeda/storage"
)

const (
	owner  = "juno1owner"
	buyer  = "juno1buyer"
	friend = "juno1friend"
	khan   = "juno1khan"
)

type fixture struct {
	app      *host.App
	token    string
	payment  string
	exchange string
}

func instantiateToken(t *testing.T, app *host.App, symbol, holder string, amount uint64) string {
	t.Helper()
	body, _ := json.Marshal(cw20.InstantiateMsg{
		Name:            symbol,
		Symbol:          symbol,
		Decimals:        6,
		InitialBalances: []cw20.InitialBalance{{Address: holder, Amount: types.NewUint128(amount)}},
	})
	res, err := app.Instantiate("cw20", holder, symbol, "", body, nil)
	if err != nil {
		t.Fatalf("instantiate %s: %v", symbol, err)
	}
	return res.Contract
}

func setup(t *testing.T, addressList string) *fixture {
	t.Helper()
	app := host.NewApp(storage.NewMemDB())
	app.RegisterCode("cw20", cw20.Contract{})
	app.RegisterCode("cw20-exchange", Contract{})
	app.RegisterCode("address-list", addresslist.Contract{})
	f := &fixture{app: app}
	f.token = instantiateToken(t, app, "ANDR", owner, 1_000)
	f.payment = instantiateToken(t, app, "PAY", buyer, 500)
	msg := InstantiateMsg{TokenAddress: f.token}
	if addressList != "" {
		msg.AddressList = &addressList
	}
	body, _ := json.Marshal(msg)
	res, err := app.Instantiate("cw20-exchange", owner, "exchange", "", body, nil)
	if err != nil {
		t.Fatalf("instantiate exchange: %v", err)
	}
	f.exchange = res.Contract
	return f
}

// send delivers amount of token from holder to the exchange with hook.
func (f *fixture) send(holder, token string, amount uint64, hook HookMsg) error {
	msg, err := cw20.Send(token, f.exchange, types.NewUint128(amount), hook)
	if err != nil {
		return err
	}
	_, err = f.app.Execute(holder, token, msg.Wasm.Execute.Msg, nil)
	return err
}

func (f *fixture) startSale(t *testing.T, amount uint64, asset Asset, rate uint64) {
	t.Helper()
	hook := HookMsg{StartSale: &StartSaleMsg{Asset: asset, ExchangeRate: types.NewUint128(rate)}}
	if err := f.send(owner, f.token, amount, hook); err != nil {
		t.Fatalf("start sale: %v", err)
	}
}

func (f *fixture) tokenBalance(t *testing.T, token, addr string) string {
	t.Helper()
	balance, err := cw20.QueryBalance(queryAdapter{f.app}, token, addr)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return balance.String()
}

func (f *fixture) sale(t *testing.T, asset Asset) *Sale {
	t.Helper()
	body, _ := json.Marshal(QueryMsg{Sale: &AssetMsg{Asset: asset}})
	raw, err := f.app.Query(f.exchange, body)
	if err != nil {
		t.Fatalf("query sale: %v", err)
	}
	var resp SaleResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return resp.Sale
}

// queryAdapter lets the cw20 query helper run against the App.
type queryAdapter struct {
	app *host.App
}

func (q queryAdapter) QuerySmart(contract string, msg []byte) ([]byte, error) {
	return q.app.Query(contract, msg)
}

func (q queryAdapter) QueryBalance(address, denom string) (types.Uint128, error) {
	return q.app.Balance(address, denom)
}

func TestNativePurchaseRefundsRemainder(t *testing.T) {
	f := setup(t, "")
	f.startSale(t, 100, NativeAsset("uusd"), 10)
	if sale := f.sale(t, NativeAsset("uusd")); sale == nil || sale.Amount.String() != "100" || sale.ExchangeRate.String() != "10" {
		t.Fatalf("sale: got %+v", sale)
	}
	if err := f.app.Mint(buyer, []types.Coin{types.NewCoin64(105, "uusd")}); err != nil {
		t.Fatalf("mint: %v", err)
	}
	funds := []types.Coin{types.NewCoin64(105, "uusd")}
	if _, err := f.app.Execute(buyer, f.exchange, []byte(`{"purchase":{}}`), funds); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if got := f.tokenBalance(t, f.token, buyer); got != "10" {
		t.Fatalf("buyer tokens: got %s want 10", got)
	}
	if got, _ := f.app.Balance(owner, "uusd"); got.String() != "100" {
		t.Fatalf("owner proceeds: got %s want 100", got)
	}
	if got, _ := f.app.Balance(buyer, "uusd"); got.String() != "5" {
		t.Fatalf("buyer refund: got %s want 5", got)
	}
	if sale := f.sale(t, NativeAsset("uusd")); sale == nil || sale.Amount.String() != "90" {
		t.Fatalf("remaining sale: got %+v", sale)
	}

	var invalid *InvalidFundsError
	_, err := f.app.Execute(buyer, f.exchange, []byte(`{"purchase":{}}`), []types.Coin{types.NewCoin64(5, "uusd")})
	if !errors.As(err, &invalid) || invalid.Msg != "Not enough funds sent to purchase a token" {
		t.Fatalf("short purchase: got %v", err)
	}
	if _, err := f.app.Execute(buyer, f.exchange, []byte(`{"purchase":{}}`), nil); !errors.As(err, &invalid) {
		t.Fatalf("no funds: got %v", err)
	}
}

func TestCw20PurchaseAndCancel(t *testing.T) {
	f := setup(t, "")
	f.startSale(t, 50, Cw20Asset(f.payment), 2)
	f.startSale(t, 100, NativeAsset("uusd"), 10)

	recipient := friend
	if err := f.send(buyer, f.payment, 7, HookMsg{Purchase: &PurchaseMsg{Recipient: &recipient}}); err != nil {
		t.Fatalf("cw20 purchase: %v", err)
	}
	if got := f.tokenBalance(t, f.token, friend); got != "3" {
		t.Fatalf("friend tokens: got %s want 3", got)
	}
	if got := f.tokenBalance(t, f.payment, owner); got != "6" {
		t.Fatalf("owner proceeds: got %s want 6", got)
	}
	if got := f.tokenBalance(t, f.payment, buyer); got != "494" {
		t.Fatalf("buyer payment balance: got %s want 494", got)
	}

	raw, err := f.app.Query(f.exchange, []byte(`{"sale_assets":{}}`))
	if err != nil {
		t.Fatalf("sale assets: %v", err)
	}
	var assets SaleAssetsResponse
	if err := json.Unmarshal(raw, &assets); err != nil || len(assets.Assets) != 2 {
		t.Fatalf("sale assets: got %s (%v)", raw, err)
	}

	cancel, _ := json.Marshal(ExecuteMsg{CancelSale: &AssetMsg{Asset: NativeAsset("uusd")}})
	if _, err := f.app.Execute(buyer, f.exchange, cancel, nil); !errors.Is(err, ado.ErrUnauthorized) {
		t.Fatalf("stranger cancel: got %v", err)
	}
	if _, err := f.app.Execute(owner, f.exchange, cancel, nil); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := f.tokenBalance(t, f.token, owner); got != "950" {
		t.Fatalf("owner tokens after cancel: got %s want 950", got)
	}
	if sale := f.sale(t, NativeAsset("uusd")); sale != nil {
		t.Fatalf("cancelled sale: got %+v", sale)
	}
	if _, err := f.app.Execute(owner, f.exchange, cancel, nil); !errors.Is(err, ErrNoOngoingSale) {
		t.Fatalf("double cancel: got %v", err)
	}
}

func TestStartSaleRules(t *testing.T) {
	f := setup(t, "")
	native := NativeAsset("uusd")
	var invalid *InvalidFundsError
	err := f.send(buyer, f.payment, 10, HookMsg{StartSale: &StartSaleMsg{Asset: native, ExchangeRate: types.NewUint128(1)}})
	if !errors.Is(err, ado.ErrUnauthorized) {
		t.Fatalf("non-owner sale: got %v", err)
	}
	// The owner holds no payment tokens, so route the wrong token through the
	// engine directly.
	store := host.NewMemoryStore()
	if err := ado.New(store).Instantiate(ado.InstantiateInfo{ContractName: ContractName, Version: ContractVersion, Owner: owner}); err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	e := NewEngine()
	e.SetState(store)
	if err := e.Configure(f.token, ""); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if _, err := e.StartSale(owner, f.payment, types.NewUint128(10), native, types.NewUint128(1)); !errors.As(err, &invalid) || invalid.Msg != "Incorrect CW20 provided for sale" {
		t.Fatalf("wrong token: got %v", err)
	}
	if _, err := e.StartSale(owner, f.token, types.NewUint128(0), native, types.NewUint128(1)); !errors.As(err, &invalid) {
		t.Fatalf("zero amount: got %v", err)
	}
	if _, err := e.StartSale(owner, f.token, types.NewUint128(10), native, types.NewUint128(0)); !errors.Is(err, ErrZeroExchangeRate) {
		t.Fatalf("zero rate: got %v", err)
	}
	if _, err := e.StartSale(owner, f.token, types.NewUint128(10), Cw20Asset(f.token), types.NewUint128(1)); !errors.Is(err, ErrSaleTokenAsAsset) {
		t.Fatalf("sale token as asset: got %v", err)
	}
	if _, err := e.StartSale(owner, f.token, types.NewUint128(10), Asset{}, types.NewUint128(1)); !errors.Is(err, ErrInvalidAsset) {
		t.Fatalf("empty asset: got %v", err)
	}
	if _, err := e.StartSale(owner, f.token, types.NewUint128(10), native, types.NewUint128(2)); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := e.StartSale(owner, f.token, types.NewUint128(10), native, types.NewUint128(2)); !errors.Is(err, ErrSaleNotEnded) {
		t.Fatalf("second sale: got %v", err)
	}

	if _, err := e.Purchase(buyer, "", native, types.NewUint128(22)); !errors.Is(err, ErrNotEnoughTokens) {
		t.Fatalf("oversized purchase: got %v", err)
	}
	receipt, err := e.Purchase(buyer, "", native, types.NewUint128(20))
	if err != nil {
		t.Fatalf("exact purchase: %v", err)
	}
	if receipt.Recipient != buyer || receipt.Purchased.String() != "10" || !receipt.Refund.IsZero() {
		t.Fatalf("receipt: got %+v", receipt)
	}
	if _, ok, err := e.Sale(native); err != nil || ok {
		t.Fatalf("sold out sale still open: %v, %v", ok, err)
	}
	if _, err := e.Purchase(buyer, "", native, types.NewUint128(2)); !errors.Is(err, ErrNoOngoingSale) {
		t.Fatalf("closed sale: got %v", err)
	}
}

func TestPurchaseConsultsAddressList(t *testing.T) {
	app := host.NewApp(storage.NewMemDB())
	app.RegisterCode("address-list", addresslist.Contract{})
	body, _ := json.Marshal(addresslist.InstantiateMsg{ActorPermission: &addresslist.ActorPermission{
		Actor:      khan,
		Permission: addresslist.Blacklisted(nil),
	}})
	res, err := app.Instantiate("address-list", owner, "list", "", body, nil)
	if err != nil {
		t.Fatalf("instantiate list: %v", err)
	}
	list := res.Contract

	// Rebuild the fixture on the same App so the exchange can query the list.
	app.RegisterCode("cw20", cw20.Contract{})
	app.RegisterCode("cw20-exchange", Contract{})
	f := &fixture{app: app}
	f.token = instantiateToken(t, app, "ANDR", owner, 1_000)
	exBody, _ := json.Marshal(InstantiateMsg{TokenAddress: f.token, AddressList: &list})
	exRes, err := app.Instantiate("cw20-exchange", owner, "exchange", "", exBody, nil)
	if err != nil {
		t.Fatalf("instantiate exchange: %v", err)
	}
	f.exchange = exRes.Contract
	f.startSale(t, 100, NativeAsset("uusd"), 1)

	funds := []types.Coin{types.NewCoin64(5, "uusd")}
	for _, addr := range []string{khan, buyer} {
		if err := app.Mint(addr, funds); err != nil {
			t.Fatalf("mint: %v", err)
		}
	}
	if _, err := app.Execute(khan, f.exchange, []byte(`{"purchase":{}}`), funds); !errors.Is(err, ado.ErrUnauthorized) {
		t.Fatalf("blacklisted purchase: got %v", err)
	}
	if _, err := app.Execute(buyer, f.exchange, []byte(`{"purchase":{}}`), funds); err != nil {
		t.Fatalf("unlisted purchase: %v", err)
	}
	if got := f.tokenBalance(t, f.token, buyer); got != "5" {
		t.Fatalf("buyer tokens: got %s want 5", got)
	}
}
