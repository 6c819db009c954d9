package cw20

import (
	"encoding/json"
	"errors"
	"testing"

	"andromeda/core/host"
	"andromeda/core/types"
	"andromeda/storage"
)

const (
	alice = "juno1alice"
	bob   = "juno1bob"
)

// vault records every receive hook it gets.
type vault struct{}

type vaultHook struct {
	Memo string `json:"memo"`
}

var lastReceived *ReceiveMsg

func (vault) Instantiate(deps host.Deps, env host.Env, info host.MessageInfo, raw []byte) (*host.Response, error) {
	return host.NewResponse(), nil
}

func (vault) Execute(deps host.Deps, env host.Env, info host.MessageInfo, raw []byte) (*host.Response, error) {
	var msg ReceiverExecuteMsg
	if err := host.DecodeMsg(raw, &msg); err != nil {
		return nil, err
	}
	var hook vaultHook
	if err := json.Unmarshal(msg.Receive.Msg, &hook); err != nil {
		return nil, err
	}
	if hook.Memo == "reject" {
		return nil, errors.New("vault: rejected")
	}
	received := msg.Receive
	lastReceived = &received
	return host.NewResponse().AddAttribute("token", info.Sender), nil
}

func (vault) Query(deps host.Deps, env host.Env, raw []byte) ([]byte, error) {
	return nil, host.ErrUnknownVariant
}

func (vault) Migrate(deps host.Deps, env host.Env, raw []byte) (*host.Response, error) {
	return nil, nil
}

func setup(t *testing.T) (*host.App, string) {
	t.Helper()
	app := host.NewApp(storage.NewMemDB())
	app.RegisterCode("cw20", Contract{})
	app.RegisterCode("vault", vault{})
	supplyCap := types.NewUint128(1_500)
	body, _ := json.Marshal(InstantiateMsg{
		Name:            "Andromeda",
		Symbol:          "ANDR",
		Decimals:        6,
		InitialBalances: []InitialBalance{{Address: alice, Amount: types.NewUint128(1_000)}},
		Mint:            &MinterInfo{Minter: alice, Cap: &supplyCap},
	})
	res, err := app.Instantiate("cw20", alice, "andr", "", body, nil)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	return app, res.Contract
}

func execute(app *host.App, sender, token string, msg ExecuteMsg) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = app.Execute(sender, token, body, nil)
	return err
}

func balanceOf(t *testing.T, app *host.App, token, addr string) string {
	t.Helper()
	body, _ := json.Marshal(QueryMsg{Balance: &AddressQuery{Address: addr}})
	raw, err := app.Query(token, body)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	var resp BalanceResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return resp.Balance.String()
}

func TestTransferAndSupply(t *testing.T) {
	app, token := setup(t)
	if err := execute(app, alice, token, ExecuteMsg{Transfer: &TransferMsg{Recipient: bob, Amount: types.NewUint128(300)}}); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := balanceOf(t, app, token, alice); got != "700" {
		t.Fatalf("alice: got %s want 700", got)
	}
	if got := balanceOf(t, app, token, bob); got != "300" {
		t.Fatalf("bob: got %s want 300", got)
	}
	err := execute(app, bob, token, ExecuteMsg{Transfer: &TransferMsg{Recipient: alice, Amount: types.NewUint128(301)}})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("overdraw: got %v", err)
	}
	if err := execute(app, bob, token, ExecuteMsg{Transfer: &TransferMsg{Recipient: alice}}); !errors.Is(err, ErrInvalidZeroAmount) {
		t.Fatalf("zero: got %v", err)
	}
	raw, err := app.Query(token, []byte(`{"token_info":{}}`))
	if err != nil || string(raw) != `{"name":"Andromeda","symbol":"ANDR","decimals":6,"total_supply":"1000"}` {
		t.Fatalf("token info: got %s, %v", raw, err)
	}
}

func TestMintRespectsMinterAndCap(t *testing.T) {
	app, token := setup(t)
	if err := execute(app, bob, token, ExecuteMsg{Mint: &MintMsg{Recipient: bob, Amount: types.NewUint128(1)}}); !errors.Is(err, ErrNotMinter) {
		t.Fatalf("bob mint: got %v", err)
	}
	if err := execute(app, alice, token, ExecuteMsg{Mint: &MintMsg{Recipient: bob, Amount: types.NewUint128(500)}}); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := execute(app, alice, token, ExecuteMsg{Mint: &MintMsg{Recipient: bob, Amount: types.NewUint128(1)}}); !errors.Is(err, ErrCapExceeded) {
		t.Fatalf("over cap: got %v", err)
	}
	if err := execute(app, bob, token, ExecuteMsg{Burn: &BurnMsg{Amount: types.NewUint128(200)}}); err != nil {
		t.Fatalf("burn: %v", err)
	}
	if got := balanceOf(t, app, token, bob); got != "300" {
		t.Fatalf("bob: got %s want 300", got)
	}
	raw, err := app.Query(token, []byte(`{"minter":{}}`))
	if err != nil || string(raw) != `{"minter":"juno1alice","cap":"1500"}` {
		t.Fatalf("minter: got %s, %v", raw, err)
	}
}

func TestAllowances(t *testing.T) {
	app, token := setup(t)
	if err := execute(app, alice, token, ExecuteMsg{IncreaseAllowance: &AllowanceMsg{Spender: bob, Amount: types.NewUint128(50)}}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	move := ExecuteMsg{TransferFrom: &TransferFromMsg{Owner: alice, Recipient: bob, Amount: types.NewUint128(40)}}
	if err := execute(app, bob, token, move); err != nil {
		t.Fatalf("transfer from: %v", err)
	}
	if err := execute(app, bob, token, move); !errors.Is(err, ErrNoAllowance) {
		t.Fatalf("spent allowance: got %v", err)
	}
	if err := execute(app, alice, token, ExecuteMsg{DecreaseAllowance: &AllowanceMsg{Spender: bob, Amount: types.NewUint128(100)}}); err != nil {
		t.Fatalf("decrease: %v", err)
	}
	raw, err := app.Query(token, []byte(`{"allowance":{"owner":"juno1alice","spender":"juno1bob"}}`))
	if err != nil || string(raw) != `{"allowance":"0"}` {
		t.Fatalf("allowance: got %s, %v", raw, err)
	}
	if err := execute(app, alice, token, ExecuteMsg{IncreaseAllowance: &AllowanceMsg{Spender: alice, Amount: types.NewUint128(1)}}); !errors.Is(err, ErrCannotSetOwnAccount) {
		t.Fatalf("self approve: got %v", err)
	}
}

func TestSendInvokesReceiveHook(t *testing.T) {
	app, token := setup(t)
	res, err := app.Instantiate("vault", alice, "vault", "", []byte(`{}`), nil)
	if err != nil {
		t.Fatalf("vault: %v", err)
	}
	lastReceived = nil
	msg, err := Send(token, res.Contract, types.NewUint128(25), vaultHook{Memo: "hello"})
	if err != nil {
		t.Fatalf("build send: %v", err)
	}
	if _, err := app.Execute(alice, token, msg.Wasm.Execute.Msg, nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	if lastReceived == nil || lastReceived.Sender != alice || lastReceived.Amount.String() != "25" {
		t.Fatalf("hook: got %+v", lastReceived)
	}
	if got := balanceOf(t, app, token, res.Contract); got != "25" {
		t.Fatalf("vault balance: got %s want 25", got)
	}

	rejected, _ := Send(token, res.Contract, types.NewUint128(25), vaultHook{Memo: "reject"})
	if _, err := app.Execute(alice, token, rejected.Wasm.Execute.Msg, nil); err == nil {
		t.Fatalf("rejected hook: expected error")
	}
	if got := balanceOf(t, app, token, alice); got != "975" {
		t.Fatalf("rollback: got %s want 975", got)
	}
}
