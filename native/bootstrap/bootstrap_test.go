package bootstrap

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"andromeda/core/host"
	"andromeda/core/types"
	"andromeda/native/ado"
	"andromeda/native/cw20"
	"andromeda/storage"
)

const (
	owner = "juno1owner"
	alice = "juno1alice"
	bob   = "juno1bob"

	start = int64(1_700_000_000)
)

// pair is a constant-product stand-in: it pulls the CW20 side with
// transfer_from, keeps the UST and mints one LP share per UST.
type pair struct{}

type pairExec struct {
	SetLPToken       *struct{ Address string } `json:"set_lp_token,omitempty"`
	ProvideLiquidity *ProvideLiquidityMsg      `json:"provide_liquidity,omitempty"`
}

var lpKey = []byte("lp")

func (pair) Instantiate(deps host.Deps, env host.Env, info host.MessageInfo, raw []byte) (*host.Response, error) {
	return host.NewResponse(), nil
}

func (pair) Execute(deps host.Deps, env host.Env, info host.MessageInfo, raw []byte) (*host.Response, error) {
	var msg pairExec
	if err := host.DecodeMsg(raw, &msg); err != nil {
		return nil, err
	}
	if msg.SetLPToken != nil {
		return host.NewResponse(), deps.Store.KVPut(lpKey, msg.SetLPToken.Address)
	}
	if msg.ProvideLiquidity == nil {
		return nil, host.ErrUnknownVariant
	}
	var lp string
	if _, err := deps.Store.KVGet(lpKey, &lp); err != nil {
		return nil, err
	}
	resp := host.NewResponse()
	ust := types.ZeroUint128()
	for _, asset := range msg.ProvideLiquidity.Assets {
		if asset.Info.NativeToken != nil {
			ust = asset.Amount
			continue
		}
		pull, err := cw20.TransferFrom(asset.Info.Token.ContractAddr, info.Sender, env.Contract, asset.Amount)
		if err != nil {
			return nil, err
		}
		resp.AddMessage(pull)
	}
	if len(info.Funds) != 1 || info.Funds[0].Amount != ust.String() {
		return nil, fmt.Errorf("pair: funds %v do not match %s uusd", info.Funds, ust)
	}
	mint, err := cw20.Mint(lp, info.Sender, ust)
	if err != nil {
		return nil, err
	}
	return resp.AddMessage(mint), nil
}

func (pair) Query(deps host.Deps, env host.Env, raw []byte) ([]byte, error) {
	var lp string
	if _, err := deps.Store.KVGet(lpKey, &lp); err != nil {
		return nil, err
	}
	return host.EncodeReply(PairInfo{LiquidityToken: lp})
}

func (pair) Migrate(deps host.Deps, env host.Env, raw []byte) (*host.Response, error) {
	return nil, nil
}

type fixture struct {
	t         *testing.T
	app       *host.App
	clock     time.Time
	token     string
	lpToken   string
	pool      string
	bootstrap string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{t: t, clock: time.Unix(start, 0)}
	f.app = host.NewApp(storage.NewMemDB(), host.WithNowFunc(func() time.Time { return f.clock }))
	f.app.RegisterCode("cw20", cw20.Contract{})
	f.app.RegisterCode("pair", pair{})
	f.app.RegisterCode("bootstrap", Contract{})

	f.token = f.instantiate("cw20", "andr", cw20.InstantiateMsg{
		Name:     "Andromeda",
		Symbol:   "ANDR",
		Decimals: 6,
		InitialBalances: []cw20.InitialBalance{
			{Address: alice, Amount: u(1_000)},
			{Address: owner, Amount: u(10_000)},
		},
	})
	f.pool = f.instantiate("pair", "pair", struct{}{})
	f.lpToken = f.instantiate("cw20", "lp", cw20.InstantiateMsg{
		Name:     "ANDR-UST LP",
		Symbol:   "uLP",
		Decimals: 6,
		Mint:     &cw20.MinterInfo{Minter: f.pool},
	})
	f.exec(owner, f.pool, pairExec{SetLPToken: &struct{ Address string }{Address: f.lpToken}}, nil)

	f.bootstrap = f.instantiate("bootstrap", "lbp", InstantiateMsg{
		TokenAddress:            f.token,
		TokenVestingDuration:    1_000,
		LPTokensVestingDuration: 1_000,
		InitTimestamp:           uint64(start + 10),
		UstDepositWindow:        100,
		TokenDepositWindow:      100,
		WithdrawalWindow:        100,
	})
	if err := f.app.Mint(bob, []types.Coin{types.NewCoin64(2_000, UUSDDenom)}); err != nil {
		t.Fatalf("mint uusd: %v", err)
	}
	return f
}

func (f *fixture) at(offset int64) {
	f.clock = time.Unix(start+offset, 0)
}

func (f *fixture) instantiate(code, label string, msg interface{}) string {
	f.t.Helper()
	body, err := json.Marshal(msg)
	if err != nil {
		f.t.Fatalf("encode %s: %v", code, err)
	}
	res, err := f.app.Instantiate(code, owner, label, "", body, nil)
	if err != nil {
		f.t.Fatalf("instantiate %s: %v", code, err)
	}
	return res.Contract
}

func (f *fixture) try(sender, contract string, msg interface{}, funds []types.Coin) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = f.app.Execute(sender, contract, body, funds)
	return err
}

func (f *fixture) exec(sender, contract string, msg interface{}, funds []types.Coin) {
	f.t.Helper()
	if err := f.try(sender, contract, msg, funds); err != nil {
		f.t.Fatalf("execute on %s by %s: %v", contract, sender, err)
	}
}

// send moves tokens into the auction through the CW20 receive hook.
func (f *fixture) send(sender, token string, amount uint64, hook Cw20HookMsg) error {
	body, err := json.Marshal(hook)
	if err != nil {
		return err
	}
	return f.try(sender, token, cw20.ExecuteMsg{Send: &cw20.SendMsg{Contract: f.bootstrap, Amount: u(amount), Msg: body}}, nil)
}

func (f *fixture) cw20Balance(token, addr string) string {
	f.t.Helper()
	balance, err := cw20.QueryBalance(appQuerier{f.app}, token, addr)
	if err != nil {
		f.t.Fatalf("balance %s: %v", addr, err)
	}
	return balance.String()
}

func (f *fixture) query(msg QueryMsg, out interface{}) {
	f.t.Helper()
	body, _ := json.Marshal(msg)
	raw, err := f.app.Query(f.bootstrap, body)
	if err != nil {
		f.t.Fatalf("query: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		f.t.Fatalf("decode %s: %v", raw, err)
	}
}

// appQuerier adapts the App to host.Querier for test reads.
type appQuerier struct{ app *host.App }

func (q appQuerier) QuerySmart(contract string, msg []byte) ([]byte, error) {
	return q.app.Query(contract, msg)
}

func (q appQuerier) QueryBalance(address, denom string) (types.Uint128, error) {
	return q.app.Balance(address, denom)
}

func depositTokens(user string) Cw20HookMsg {
	return Cw20HookMsg{DepositTokens: &DepositTokensHook{UserAddress: user}}
}

func TestInstantiateRejectsPastStart(t *testing.T) {
	f := newFixture(t)
	body, _ := json.Marshal(InstantiateMsg{
		TokenAddress:         f.token,
		TokenVestingDuration: 1,
		InitTimestamp:        uint64(start - 1),
	})
	_, err := f.app.Instantiate("bootstrap", owner, "late", "", body, nil)
	var past *StartTimeInThePastError
	if !errors.As(err, &past) || past.CurrentSeconds != uint64(start) {
		t.Fatalf("past start: got %v", err)
	}
	body, _ = json.Marshal(InstantiateMsg{
		TokenAddress:         f.token,
		TokenVestingDuration: 1,
		InitTimestamp:        uint64(start),
		TokenDepositWindow:   10,
		UstDepositWindow:     5,
	})
	if _, err := f.app.Instantiate("bootstrap", owner, "windows", "", body, nil); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("windows: got %v want %v", err, ErrInvalidWindow)
	}
}

func TestDepositsAndWithdrawals(t *testing.T) {
	f := newFixture(t)
	if err := f.send(alice, f.token, 600, depositTokens(alice)); !errors.Is(err, ErrDepositWindowClosed) {
		t.Fatalf("early deposit: got %v want %v", err, ErrDepositWindowClosed)
	}
	f.at(10)
	if err := f.send(alice, f.token, 600, depositTokens(alice)); err != nil {
		t.Fatalf("deposit tokens: %v", err)
	}
	f.exec(bob, f.bootstrap, ExecuteMsg{DepositUst: &struct{}{}}, []types.Coin{types.NewCoin64(2_000, UUSDDenom)})
	if err := f.try(bob, f.bootstrap, ExecuteMsg{DepositUst: &struct{}{}}, []types.Coin{types.NewCoin64(0, UUSDDenom)}); err == nil {
		t.Fatalf("zero deposit: expected error")
	}

	f.exec(bob, f.bootstrap, ExecuteMsg{WithdrawUst: &WithdrawUSTMsg{Amount: u(500)}}, nil)
	var invalid *InvalidWithdrawalError
	if err := f.try(bob, f.bootstrap, ExecuteMsg{WithdrawUst: &WithdrawUSTMsg{}}, nil); !errors.As(err, &invalid) {
		t.Fatalf("zero withdrawal: got %v", err)
	}

	// first half of the withdrawal window: 50% of 1500
	f.at(150)
	if err := f.try(bob, f.bootstrap, ExecuteMsg{WithdrawUst: &WithdrawUSTMsg{Amount: u(751)}}, nil); !errors.As(err, &invalid) {
		t.Fatalf("over limit: got %v", err)
	}
	f.exec(bob, f.bootstrap, ExecuteMsg{WithdrawUst: &WithdrawUSTMsg{Amount: u(500)}}, nil)
	if err := f.try(bob, f.bootstrap, ExecuteMsg{WithdrawUst: &WithdrawUSTMsg{Amount: u(1)}}, nil); !errors.As(err, &invalid) {
		t.Fatalf("second withdrawal: got %v", err)
	}
	if got, _ := f.app.Balance(bob, UUSDDenom); got.String() != "1000" {
		t.Fatalf("bob uusd: got %s want 1000", got)
	}

	var st State
	f.query(QueryMsg{State: &struct{}{}}, &st)
	if st.TotalTokenDeposited.String() != "600" || st.TotalUstDeposited.String() != "1000" {
		t.Fatalf("state: got %+v", st)
	}
	var info UserInfoResponse
	f.query(QueryMsg{UserInfo: &UserInfoQuery{Address: bob}}, &info)
	if !info.UstWithdrawnFlag || info.UstDeposited.String() != "1000" {
		t.Fatalf("bob info: got %+v", info)
	}
}

func TestReceiveRejectsForeignToken(t *testing.T) {
	f := newFixture(t)
	f.at(10)
	// the LP token is a valid CW20 but not the auction token
	f.exec(f.pool, f.lpToken, cw20.ExecuteMsg{Mint: &cw20.MintMsg{Recipient: alice, Amount: u(10)}}, nil)
	var invalid *InvalidFundsError
	if err := f.send(alice, f.lpToken, 10, depositTokens(alice)); !errors.As(err, &invalid) {
		t.Fatalf("foreign token: got %v", err)
	}
}

func TestAuctionLifecycle(t *testing.T) {
	f := newFixture(t)
	f.at(10)
	if err := f.send(alice, f.token, 600, depositTokens(alice)); err != nil {
		t.Fatalf("deposit tokens: %v", err)
	}
	if err := f.send(owner, f.token, 1_000, Cw20HookMsg{IncreaseIncentives: &struct{}{}}); err != nil {
		t.Fatalf("incentives: %v", err)
	}
	f.exec(bob, f.bootstrap, ExecuteMsg{DepositUst: &struct{}{}}, []types.Coin{types.NewCoin64(1_500, UUSDDenom)})

	pool := f.pool
	if err := f.try(alice, f.bootstrap, ExecuteMsg{UpdateConfig: &UpdateConfigMsg{AstroportLPPool: &pool}}, nil); !errors.Is(err, ado.ErrUnauthorized) {
		t.Fatalf("update by stranger: got %v", err)
	}
	f.exec(owner, f.bootstrap, ExecuteMsg{UpdateConfig: &UpdateConfigMsg{AstroportLPPool: &pool}}, nil)
	var cfg ConfigResponse
	f.query(QueryMsg{Config: &struct{}{}}, &cfg)
	if cfg.LPTokenAddress == nil || *cfg.LPTokenAddress != f.lpToken || cfg.TokenRewards.String() != "1000" {
		t.Fatalf("config: got %+v", cfg)
	}

	addLiquidity := ExecuteMsg{AddLiquidityToAstroportPool: &AddLiquidityMsg{}}
	if err := f.try(owner, f.bootstrap, addLiquidity, nil); !errors.Is(err, ErrWindowsStillOpen) {
		t.Fatalf("early add liquidity: got %v want %v", err, ErrWindowsStillOpen)
	}
	f.at(211)
	if err := f.try(alice, f.bootstrap, addLiquidity, nil); !errors.Is(err, ado.ErrUnauthorized) {
		t.Fatalf("add liquidity by stranger: got %v", err)
	}
	f.exec(owner, f.bootstrap, addLiquidity, nil)
	if err := f.try(owner, f.bootstrap, addLiquidity, nil); !errors.Is(err, ErrLiquidityAlreadyProvided) {
		t.Fatalf("second add liquidity: got %v", err)
	}
	if got := f.cw20Balance(f.token, f.pool); got != "600" {
		t.Fatalf("pool tokens: got %s want 600", got)
	}
	if got, _ := f.app.Balance(f.pool, UUSDDenom); got.String() != "1500" {
		t.Fatalf("pool uusd: got %s want 1500", got)
	}
	var st State
	f.query(QueryMsg{State: &struct{}{}}, &st)
	if st.LPSharesMinted.String() != "1500" || st.PoolInitTimestamp != uint64(start+211) {
		t.Fatalf("state after launch: got %+v", st)
	}
	if err := f.send(owner, f.token, 1, Cw20HookMsg{IncreaseIncentives: &struct{}{}}); !errors.Is(err, ErrTokenAlreadyBeingDistributed) {
		t.Fatalf("late incentives: got %v", err)
	}

	callback := ExecuteMsg{Callback: &CallbackMsg{UpdateStateOnLiquidityAdditionToPool: &LiquidityAddedCallback{}}}
	if err := f.try(alice, f.bootstrap, callback, nil); !errors.Is(err, ado.ErrUnauthorized) {
		t.Fatalf("external callback: got %v", err)
	}

	// halfway through both vesting schedules
	f.at(711)
	var info UserInfoResponse
	f.query(QueryMsg{UserInfo: &UserInfoQuery{Address: alice}}, &info)
	if info.LPShares.String() != "750" || info.WithdrawableLPShares.String() != "375" || info.WithdrawableAuctionIncentives.String() != "250" {
		t.Fatalf("alice info: got %+v", info)
	}

	f.exec(alice, f.bootstrap, ExecuteMsg{ClaimRewards: &ClaimRewardsMsg{WithdrawUnlockedShares: true}}, nil)
	if got := f.cw20Balance(f.token, alice); got != "650" {
		t.Fatalf("alice tokens: got %s want 650", got)
	}
	if got := f.cw20Balance(f.lpToken, alice); got != "375" {
		t.Fatalf("alice lp: got %s want 375", got)
	}
	f.exec(bob, f.bootstrap, ExecuteMsg{ClaimRewards: &ClaimRewardsMsg{}}, nil)
	if got := f.cw20Balance(f.token, bob); got != "250" {
		t.Fatalf("bob tokens: got %s want 250", got)
	}
	if got := f.cw20Balance(f.lpToken, bob); got != "0" {
		t.Fatalf("bob lp: got %s want 0", got)
	}

	// a repeat claim at the same time pays nothing more
	f.exec(alice, f.bootstrap, ExecuteMsg{ClaimRewards: &ClaimRewardsMsg{WithdrawUnlockedShares: true}}, nil)
	if got := f.cw20Balance(f.token, alice); got != "650" {
		t.Fatalf("alice repeat: got %s want 650", got)
	}
	f.query(QueryMsg{State: &struct{}{}}, &st)
	if st.LPSharesWithdrawn.String() != "375" {
		t.Fatalf("lp withdrawn: got %s want 375", st.LPSharesWithdrawn)
	}

	if err := f.try(owner, f.bootstrap, ExecuteMsg{ClaimRewards: &ClaimRewardsMsg{}}, nil); !errors.Is(err, ErrInvalidValues) {
		t.Fatalf("claim without deposits: got %v", err)
	}
	if err := f.try(owner, f.bootstrap, ExecuteMsg{StakeLPTokens: &StakeLPTokensMsg{SingleIncentiveStaking: true, DualIncentivesStaking: true}}, nil); !errors.Is(err, ErrInvalidValues) {
		t.Fatalf("stake both: got %v", err)
	}
	var staking *StakingError
	if err := f.try(owner, f.bootstrap, ExecuteMsg{StakeLPTokens: &StakeLPTokensMsg{DualIncentivesStaking: true}}, nil); !errors.As(err, &staking) {
		t.Fatalf("stake without generator: got %v", err)
	}
}
