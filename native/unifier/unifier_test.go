package unifier

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"andromeda/core/host"
	"andromeda/core/types"
	"andromeda/native/sourced"
	"andromeda/storage"
)

// stubPair prices token1 at rate units of token2.
type stubPair struct{}

type stubPairInit struct {
	Rate uint64 `json:"rate"`
}

func (stubPair) Instantiate(deps host.Deps, env host.Env, info host.MessageInfo, raw []byte) (*host.Response, error) {
	var msg stubPairInit
	if err := host.DecodeMsg(raw, &msg); err != nil {
		return nil, err
	}
	return nil, deps.Store.KVPut([]byte("rate"), msg.Rate)
}

func (stubPair) Execute(host.Deps, host.Env, host.MessageInfo, []byte) (*host.Response, error) {
	return nil, host.ErrUnknownVariant
}

func (stubPair) Query(deps host.Deps, env host.Env, raw []byte) ([]byte, error) {
	var rate uint64
	if _, err := deps.Store.KVGet([]byte("rate"), &rate); err != nil {
		return nil, err
	}
	var q priceQuery
	if err := host.DecodeMsg(raw, &q); err != nil {
		return nil, err
	}
	if q.Token1ForToken2Price != nil {
		out, err := q.Token1ForToken2Price.Token1Amount.Mul(types.NewUint128(rate))
		if err != nil {
			return nil, err
		}
		return host.EncodeReply(token2Amount{Token2Amount: out})
	}
	out, err := q.Token2ForToken1Price.Token2Amount.Div(types.NewUint128(rate))
	if err != nil {
		return nil, err
	}
	return host.EncodeReply(token1Amount{Token1Amount: out})
}

func (stubPair) Migrate(host.Deps, host.Env, []byte) (*host.Response, error) { return nil, nil }

type fixture struct {
	app     *host.App
	unifier string
	native  string
	tokens  string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	app := host.NewApp(storage.NewMemDB(), host.WithNowFunc(func() time.Time { return time.Unix(1_700_000_000, 0) }))
	app.RegisterCode("pair", stubPair{})
	app.RegisterCode("unifier", Contract{})

	nativePair, err := app.Instantiate("pair", "deployer", "ujunox-usdc", "", []byte(`{"rate":3}`), nil)
	if err != nil {
		t.Fatalf("pair: %v", err)
	}
	tokenPair, err := app.Instantiate("pair", "deployer", "testtokens-ujunox", "", []byte(`{"rate":2}`), nil)
	if err != nil {
		t.Fatalf("pair: %v", err)
	}
	init := InstantiateMsg{
		HomeNetwork:          TestnetID,
		UnifiedPriceContract: &nativePair.Contract,
		PairContracts: []PairContract{{
			ContractAddr: tokenPair.Contract,
			Token1:       DenomTestTokens,
			Token2:       DenomJunoTest,
		}},
	}
	body, _ := json.Marshal(init)
	res, err := app.Instantiate("unifier", "deployer", "unifier", "deployer", body, nil)
	if err != nil {
		t.Fatalf("unifier: %v", err)
	}
	return fixture{app: app, unifier: res.Contract, native: nativePair.Contract, tokens: tokenPair.Contract}
}

func (f fixture) unify(t *testing.T, assets []types.Coin, target bool) (sourced.UnifiedAssetsResponse, error) {
	t.Helper()
	body, _ := json.Marshal(QueryMsg{UnifyAssets: &sourced.UnifyAssetsMsg{Assets: assets, AssetsAreTargetAmount: target}})
	raw, err := f.app.Query(f.unifier, body)
	if err != nil {
		return sourced.UnifiedAssetsResponse{}, err
	}
	var out sourced.UnifiedAssetsResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out, nil
}

func TestUnifyAssetsSumsAndRecordsSources(t *testing.T) {
	f := newFixture(t)
	got, err := f.unify(t, []types.Coin{
		types.NewCoin64(10, DenomJunoTest),
		types.NewCoin64(5, DenomTestTokens),
		types.NewCoin64(7, sourced.USDCDenom),
	}, false)
	if err != nil {
		t.Fatalf("unify: %v", err)
	}
	// 10*3 + 5*2*3 + 7
	if got.UnifiedAsset.Amount != "67" || got.UnifiedAsset.Denom != sourced.USDCDenom {
		t.Fatalf("unified: got %+v", got.UnifiedAsset)
	}
	if len(got.Sources.Sources) != 3 {
		t.Fatalf("sources: got %+v", got.Sources)
	}
	if got.Sources.Sources[1].ContractAddr != f.tokens || got.Sources.Sources[1].QueryMsg != `{"token1_for_token2_price":{"token1_amount":"5"}}` {
		t.Fatalf("token source: got %+v", got.Sources.Sources[1])
	}
}

func TestUnifyAssetsTargetAmount(t *testing.T) {
	f := newFixture(t)
	got, err := f.unify(t, []types.Coin{types.NewCoin64(60, DenomTestTokens)}, true)
	if err != nil {
		t.Fatalf("unify: %v", err)
	}
	// 60 usdc -> 20 ujunox -> 10 testtokens
	if got.UnifiedAsset.Amount != "10" || got.UnifiedAsset.Denom != DenomTestTokens {
		t.Fatalf("target: got %+v", got.UnifiedAsset)
	}
	if got.Sources.Sources[0].QueryMsg != `{"token2_for_token1_price":{"token2_amount":"60"}}` {
		t.Fatalf("reverse query: got %s", got.Sources.Sources[0].QueryMsg)
	}
}

func TestUnifyAssetsErrors(t *testing.T) {
	f := newFixture(t)
	_, err := f.unify(t, []types.Coin{types.NewCoin64(1, "uatom")}, false)
	var unknown *UnknownAssetError
	if !errors.As(err, &unknown) || err.Error() != "unifier: unknown asset uatom" {
		t.Fatalf("unknown asset: got %v", err)
	}
	if _, err := f.unify(t, []types.Coin{types.NewCoin64(1, DenomJuno)}, false); !errors.Is(err, ErrMismatchedPair) {
		t.Fatalf("missing pair: got %v", err)
	}
	ceiling := types.MustParseUint128("340282366920938463463374607431768211455")
	_, err = f.unify(t, []types.Coin{types.NewCoin(ceiling, sourced.USDCDenom), types.NewCoin64(1, sourced.USDCDenom)}, false)
	if !errors.Is(err, sourced.ErrOverflow) {
		t.Fatalf("overflow: got %v", err)
	}
}

func TestLegacyOwnerQueryAndUpdate(t *testing.T) {
	f := newFixture(t)
	raw, err := f.app.Query(f.unifier, []byte(`{"legacy_owner":{}}`))
	if err != nil || string(raw) != `{"legacy_owner":"No owner"}` {
		t.Fatalf("legacy owner: got %s, %v", raw, err)
	}
	if _, err := f.app.Execute("stranger", f.unifier, []byte(`{"update_pair_contracts":{"pair_contracts":[]}}`), nil); err == nil {
		t.Fatalf("expected stranger update to fail")
	}
	if _, err := f.app.Execute("deployer", f.unifier, []byte(`{"update_pair_contracts":{"pair_contracts":[]}}`), nil); err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if _, err := f.unify(t, []types.Coin{types.NewCoin64(1, DenomJunoTest)}, false); !errors.Is(err, ErrMismatchedPair) {
		t.Fatalf("after clearing pairs: got %v", err)
	}
}

func TestSetupRejectsUnknownNetwork(t *testing.T) {
	engine := NewEngine(host.NewMemoryStore(), nil)
	if err := engine.Setup("cosmoshub-4", "", nil); !errors.Is(err, ErrUnknownHomeNetwork) {
		t.Fatalf("network: got %v", err)
	}
}
