package sourced

import (
	"encoding/json"
	"errors"
	"testing"

	"andromeda/core/types"
)

type fakeQuerier struct {
	lastContract string
	lastMsg      string
	reply        UnifiedAssetsResponse
}

func (f *fakeQuerier) QuerySmart(contract string, msg []byte) ([]byte, error) {
	f.lastContract = contract
	f.lastMsg = string(msg)
	return json.Marshal(f.reply)
}

func (f *fakeQuerier) QueryBalance(string, string) (types.Uint128, error) {
	return types.ZeroUint128(), nil
}

func TestConvertCanonicalPassesThrough(t *testing.T) {
	coins := SourcedCoins{Coins: []types.Coin{types.NewCoin64(500, USDCDenom)}}
	got, err := coins.ConvertToUSDC(nil, "juno1unifier", false)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if got.UnifiedAsset.Amount != "500" || len(got.Sources.Sources) != 0 {
		t.Fatalf("passthrough: got %+v", got)
	}
}

func TestConvertLocalTest(t *testing.T) {
	coins := SourcedCoins{Coins: []types.Coin{types.NewCoin64(7, "ujunox")}}
	got, err := coins.ConvertToUSDC(nil, LocalTestUnifier, false)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if got.UnifiedAsset.Amount != "700" || got.UnifiedAsset.Denom != USDCDenom {
		t.Fatalf("local: got %+v", got.UnifiedAsset)
	}
	target, err := SourcedCoins{Coins: []types.Coin{types.NewCoin64(700, "ujunox")}}.ConvertToUSDC(nil, LocalTestUnifier, true)
	if err != nil {
		t.Fatalf("convert target: %v", err)
	}
	if target.UnifiedAsset.Amount != "7" || target.UnifiedAsset.Denom != "ujunox" {
		t.Fatalf("local target: got %+v", target.UnifiedAsset)
	}
	if _, err := (SourcedCoins{}).ConvertToUSDC(nil, LocalTestUnifier, false); !errors.Is(err, ErrNoCoins) {
		t.Fatalf("empty: got %v", err)
	}
}

func TestConvertQueriesUnifier(t *testing.T) {
	q := &fakeQuerier{reply: UnifiedAssetsResponse{
		UnifiedAsset: types.NewCoin64(42, USDCDenom),
		Sources:      Sources{Sources: []Source{{ContractAddr: "juno1pair", QueryMsg: "price"}}},
	}}
	coins := SourcedCoins{
		Coins:          []types.Coin{types.NewCoin64(10, "ujuno")},
		WrappedSources: Sources{Sources: []Source{{ContractAddr: "juno1earlier", QueryMsg: "prior"}}},
	}
	got, err := coins.ConvertToUSDC(q, "juno1unifier", false)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if q.lastContract != "juno1unifier" {
		t.Fatalf("queried %s", q.lastContract)
	}
	want := `{"unify_assets":{"target_asset":"` + USDCDenom + `","assets":[{"denom":"ujuno","amount":"10"}],"assets_are_target_amount":false}}`
	if q.lastMsg != want {
		t.Fatalf("query: got %s want %s", q.lastMsg, want)
	}
	if got.UnifiedAsset.Amount != "42" || len(got.Sources.Sources) != 2 || got.Sources.Sources[1].ContractAddr != "juno1earlier" {
		t.Fatalf("response: got %+v", got)
	}
	attrs := got.Sources.Attributes()
	if attrs[0].Key != "query to contract juno1pair" || attrs[0].Value != "price" {
		t.Fatalf("attributes: got %+v", attrs)
	}
}

func TestAdminSourcedCoins(t *testing.T) {
	admin := AdminSourcedCoins()
	if !admin.IsAdmin() {
		t.Fatalf("expected admin placeholder")
	}
	encoded, _ := json.Marshal(admin)
	want := `{"coins":[{"denom":"unlimited","amount":"0"}],"wrapped_sources":{"sources":[{"contract_addr":"no spend limit check","query_msg":"caller is admin"}]}}`
	if string(encoded) != want {
		t.Fatalf("admin json: got %s", encoded)
	}
	empty, _ := json.Marshal(SourcedCoin{Coin: types.NewCoin64(1, "x")})
	if string(empty) != `{"coin":{"denom":"x","amount":"1"},"wrapped_sources":{"sources":[]}}` {
		t.Fatalf("empty sources json: got %s", empty)
	}
}
