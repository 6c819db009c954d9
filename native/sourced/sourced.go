package sourced

import (
	"encoding/json"
	"errors"
	"fmt"

	"andromeda/core/host"
	"andromeda/core/types"
)

const (
	// USDCDenom is the canonical unified denomination (USDC over IBC).
	USDCDenom = "ibc/EAC38D55372F38F1AFD68DF7FE9EF762DCF69F26520643CF3F9D292A738D8034"
	// LocalTestUnifier is the unifier address that converts at a fixed 100:1
	// rate without querying a contract.
	LocalTestUnifier = "LOCAL_TEST"

	localTestRate = 100

	adminDenom       = "unlimited"
	adminSourceAddr  = "no spend limit check"
	adminSourceQuery = "caller is admin"
)

var (
	// ErrNoCoins is returned when converting an empty coin list.
	ErrNoCoins = errors.New("sourced: no coins to convert")
	// ErrOverflow is returned when a converted amount exceeds 128 bits.
	ErrOverflow = errors.New("sourced: overflow")
)

// Source records one query that contributed to a computed value.
type Source struct {
	ContractAddr string `json:"contract_addr"`
	QueryMsg     string `json:"query_msg"`
}

// Sources is an ordered provenance list.
type Sources struct {
	Sources []Source `json:"sources"`
}

// Append adds every source of other after the existing ones.
func (s *Sources) Append(other Sources) {
	s.Sources = append(s.Sources, other.Sources...)
}

// Attributes renders one response attribute per source.
func (s Sources) Attributes() []host.Attribute {
	out := make([]host.Attribute, 0, len(s.Sources))
	for _, src := range s.Sources {
		out = append(out, host.Attribute{Key: "query to contract " + src.ContractAddr, Value: src.QueryMsg})
	}
	return out
}

// MarshalJSON keeps an empty list as [] rather than null.
func (s Sources) MarshalJSON() ([]byte, error) {
	type plain Sources
	if s.Sources == nil {
		s.Sources = []Source{}
	}
	return json.Marshal(plain(s))
}

// SourcedCoin is a coin together with the queries that produced it.
type SourcedCoin struct {
	Coin           types.Coin `json:"coin"`
	WrappedSources Sources    `json:"wrapped_sources"`
}

// SourcedCoins is a coin list together with the queries that produced it.
type SourcedCoins struct {
	Coins          []types.Coin `json:"coins"`
	WrappedSources Sources      `json:"wrapped_sources"`
}

// UnifiedAssetsResponse is the reply of the unifier's unify_assets query.
type UnifiedAssetsResponse struct {
	UnifiedAsset types.Coin `json:"unified_asset"`
	Sources      Sources    `json:"sources"`
}

// Amount parses the unified amount.
func (r UnifiedAssetsResponse) Amount() (types.Uint128, error) {
	return types.CoinAmount(r.UnifiedAsset)
}

// UnifiedAssetCoins returns the unified asset as a one-element coin list.
func (r UnifiedAssetsResponse) UnifiedAssetCoins() []types.Coin {
	return []types.Coin{r.UnifiedAsset}
}

// UnifyAssetsMsg is the body of the unify_assets query.
type UnifyAssetsMsg struct {
	TargetAsset           *string      `json:"target_asset"`
	Assets                []types.Coin `json:"assets"`
	AssetsAreTargetAmount bool         `json:"assets_are_target_amount"`
}

// UnifyAssetsQuery wraps UnifyAssetsMsg in its query variant.
type UnifyAssetsQuery struct {
	UnifyAssets *UnifyAssetsMsg `json:"unify_assets,omitempty"`
}

// AdminSourcedCoins is the placeholder returned when an admin bypasses spend
// limits.
func AdminSourcedCoins() SourcedCoins {
	return SourcedCoins{
		Coins: []types.Coin{{Denom: adminDenom, Amount: "0"}},
		WrappedSources: Sources{Sources: []Source{{
			ContractAddr: adminSourceAddr,
			QueryMsg:     adminSourceQuery,
		}}},
	}
}

// IsAdmin reports whether s is the admin placeholder.
func (s SourcedCoins) IsAdmin() bool {
	return len(s.Coins) == 1 && s.Coins[0].Denom == adminDenom &&
		len(s.WrappedSources.Sources) == 1 && s.WrappedSources.Sources[0].ContractAddr == adminSourceAddr
}

// Attributes renders the sources as response attributes.
func (s SourcedCoins) Attributes() []host.Attribute {
	return s.WrappedSources.Attributes()
}

// ConvertToUSDC unifies s into a single canonical-denom amount.
//
// A lone canonical coin passes through unchanged. With the LOCAL_TEST
// unifier every coin converts at 100 units per USDC unit (or 1/100 when
// amountIsTarget). Otherwise the unifier contract is queried.
func (s SourcedCoins) ConvertToUSDC(q host.Querier, unifier string, amountIsTarget bool) (UnifiedAssetsResponse, error) {
	if len(s.Coins) == 0 {
		return UnifiedAssetsResponse{}, ErrNoCoins
	}
	if len(s.Coins) == 1 && s.Coins[0].Denom == USDCDenom {
		return UnifiedAssetsResponse{UnifiedAsset: s.Coins[0], Sources: Sources{Sources: []Source{}}}, nil
	}
	if unifier == LocalTestUnifier {
		return s.convertLocal(amountIsTarget)
	}

	target := USDCDenom
	req := UnifyAssetsQuery{UnifyAssets: &UnifyAssetsMsg{
		TargetAsset:           &target,
		Assets:                types.CloneCoins(s.Coins),
		AssetsAreTargetAmount: amountIsTarget,
	}}
	var resp UnifiedAssetsResponse
	if err := host.QueryJSON(q, unifier, req, &resp); err != nil {
		return UnifiedAssetsResponse{}, fmt.Errorf("unify assets via %s: %w", unifier, err)
	}
	resp.Sources.Append(s.WrappedSources)
	return resp, nil
}

func (s SourcedCoins) convertLocal(amountIsTarget bool) (UnifiedAssetsResponse, error) {
	rate := types.NewUint128(localTestRate)
	total := types.ZeroUint128()
	for _, coin := range s.Coins {
		amount, err := types.CoinAmount(coin)
		if err != nil {
			return UnifiedAssetsResponse{}, err
		}
		if coin.Denom != USDCDenom {
			if amountIsTarget {
				amount, err = amount.Div(rate)
			} else {
				amount, err = amount.Mul(rate)
			}
			if err != nil {
				return UnifiedAssetsResponse{}, ErrOverflow
			}
		}
		total, err = total.Add(amount)
		if err != nil {
			return UnifiedAssetsResponse{}, ErrOverflow
		}
	}
	denom := USDCDenom
	if amountIsTarget {
		denom = s.Coins[0].Denom
	}
	sources := Sources{Sources: []Source{}}
	sources.Append(s.WrappedSources)
	return UnifiedAssetsResponse{UnifiedAsset: types.NewCoin(total, denom), Sources: sources}, nil
}
