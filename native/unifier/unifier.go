package unifier

import (
	"encoding/json"
	"errors"
	"fmt"

	"andromeda/core/host"
	"andromeda/core/types"
	"andromeda/native/sourced"
)

const (
	MainnetID = "juno-1"
	TestnetID = "uni-3"
	LocalID   = "local"

	DenomJuno       = "ujuno"
	DenomJunoTest   = "ujunox"
	DenomTestTokens = "testtokens"
)

var (
	ErrUnknownHomeNetwork   = errors.New("unifier: unknown home network")
	ErrMismatchedPair       = errors.New("unifier: mismatched pair contract")
	ErrUnsupportedTarget    = errors.New("unifier: only the canonical USDC target is supported")
	ErrSingleTargetAsset    = errors.New("unifier: target-amount conversion takes a single asset")
	ErrNoAssets             = errors.New("unifier: no assets to unify")
	ErrInvalidPairContract  = errors.New("unifier: invalid pair contract")
	ErrPairContractsMissing = errors.New("unifier: pair registry not initialised")
)

// UnknownAssetError is returned for denominations the unifier cannot price.
type UnknownAssetError struct {
	Denom string
}

func (e *UnknownAssetError) Error() string { return "unifier: unknown asset " + e.Denom }

var (
	homeNetworkKey = []byte("unifier/home_network")
	pairsKey       = []byte("unifier/pairs")
)

type unifierState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

// PairContract is a two-token swap pool that answers price simulations.
type PairContract struct {
	ContractAddr string `json:"contract_addr"`
	Token1       string `json:"token1"`
	Token2       string `json:"token2"`
}

func (p PairContract) validate() error {
	if err := types.ValidateAddress(p.ContractAddr); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPairContract, err)
	}
	if p.Token1 == "" || p.Token2 == "" || p.Token1 == p.Token2 {
		return fmt.Errorf("%w: tokens %q/%q", ErrInvalidPairContract, p.Token1, p.Token2)
	}
	return nil
}

// NativeDenom returns the staking denom of a home network.
func NativeDenom(network string) (string, error) {
	switch network {
	case MainnetID:
		return DenomJuno, nil
	case TestnetID, LocalID:
		return DenomJunoTest, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownHomeNetwork, network)
	}
}

// priceQuery is the pair contract's price simulation query.
type priceQuery struct {
	Token1ForToken2Price *token1Amount `json:"token1_for_token2_price,omitempty"`
	Token2ForToken1Price *token2Amount `json:"token2_for_token1_price,omitempty"`
}

type token1Amount struct {
	Token1Amount types.Uint128 `json:"token1_amount"`
}

type token2Amount struct {
	Token2Amount types.Uint128 `json:"token2_amount"`
}

// Engine converts assets into the canonical denomination using pair-contract
// price simulations.
type Engine struct {
	state   unifierState
	querier host.Querier
}

// NewEngine binds the engine to state and querier.
func NewEngine(state unifierState, querier host.Querier) *Engine {
	return &Engine{state: state, querier: querier}
}

// Setup stores the home network and pair registry. unifiedPrice, when set, is
// registered as the native/USDC pair.
func (e *Engine) Setup(network string, unifiedPrice string, pairs []PairContract) error {
	native, err := NativeDenom(network)
	if err != nil {
		return err
	}
	registry := append([]PairContract(nil), pairs...)
	if unifiedPrice != "" {
		registry = append(registry, PairContract{ContractAddr: unifiedPrice, Token1: native, Token2: sourced.USDCDenom})
	}
	if err := e.state.KVPut(homeNetworkKey, network); err != nil {
		return err
	}
	return e.SetPairs(registry)
}

// SetPairs replaces the pair registry.
func (e *Engine) SetPairs(pairs []PairContract) error {
	for _, p := range pairs {
		if err := p.validate(); err != nil {
			return err
		}
	}
	if pairs == nil {
		pairs = []PairContract{}
	}
	return e.state.KVPut(pairsKey, pairs)
}

// Pairs returns the registry.
func (e *Engine) Pairs() ([]PairContract, error) {
	var pairs []PairContract
	ok, err := e.state.KVGet(pairsKey, &pairs)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPairContractsMissing
	}
	return pairs, nil
}

// HomeNetwork returns the configured network id.
func (e *Engine) HomeNetwork() (string, error) {
	var network string
	ok, err := e.state.KVGet(homeNetworkKey, &network)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrPairContractsMissing
	}
	return network, nil
}

func findPair(pairs []PairContract, a, b string) (PairContract, bool) {
	for _, p := range pairs {
		if (p.Token1 == a && p.Token2 == b) || (p.Token1 == b && p.Token2 == a) {
			return p, true
		}
	}
	return PairContract{}, false
}

// swap prices amount of from in units of to through pair and records the query.
func (e *Engine) swap(pair PairContract, from string, amount types.Uint128, sources *sourced.Sources) (types.Uint128, error) {
	var (
		req   priceQuery
		reply types.Uint128
	)
	switch from {
	case pair.Token1:
		req.Token1ForToken2Price = &token1Amount{Token1Amount: amount}
	case pair.Token2:
		req.Token2ForToken1Price = &token2Amount{Token2Amount: amount}
	default:
		return types.Uint128{}, ErrMismatchedPair
	}
	body, err := json.Marshal(req)
	if err != nil {
		return types.Uint128{}, err
	}
	raw, err := e.querier.QuerySmart(pair.ContractAddr, body)
	if err != nil {
		return types.Uint128{}, fmt.Errorf("price query to %s: %w", pair.ContractAddr, err)
	}
	if from == pair.Token1 {
		var out token2Amount
		if err := json.Unmarshal(raw, &out); err != nil {
			return types.Uint128{}, fmt.Errorf("decode price from %s: %w", pair.ContractAddr, err)
		}
		reply = out.Token2Amount
	} else {
		var out token1Amount
		if err := json.Unmarshal(raw, &out); err != nil {
			return types.Uint128{}, fmt.Errorf("decode price from %s: %w", pair.ContractAddr, err)
		}
		reply = out.Token1Amount
	}
	sources.Sources = append(sources.Sources, sourced.Source{ContractAddr: pair.ContractAddr, QueryMsg: string(body)})
	return reply, nil
}

// route returns the denominations an asset passes through on its way to USDC.
func route(native, denom string) ([]string, error) {
	switch denom {
	case native:
		return []string{native, sourced.USDCDenom}, nil
	case DenomJuno, DenomJunoTest, DenomTestTokens:
		return []string{denom, native, sourced.USDCDenom}, nil
	default:
		return nil, &UnknownAssetError{Denom: denom}
	}
}

func (e *Engine) convert(pairs []PairContract, path []string, amount types.Uint128, sources *sourced.Sources) (types.Uint128, error) {
	current := amount
	for i := 0; i+1 < len(path); i++ {
		pair, ok := findPair(pairs, path[i], path[i+1])
		if !ok {
			return types.Uint128{}, ErrMismatchedPair
		}
		next, err := e.swap(pair, path[i], current, sources)
		if err != nil {
			return types.Uint128{}, err
		}
		current = next
	}
	return current, nil
}

// UnifyAssets sums assets in the canonical denomination. With
// assetsAreTargetAmount the single asset's amount is read as canonical units
// and converted back into the asset's own denomination.
func (e *Engine) UnifyAssets(target *string, assets []types.Coin, assetsAreTargetAmount bool) (sourced.UnifiedAssetsResponse, error) {
	if target != nil && *target != sourced.USDCDenom {
		return sourced.UnifiedAssetsResponse{}, ErrUnsupportedTarget
	}
	if len(assets) == 0 {
		return sourced.UnifiedAssetsResponse{}, ErrNoAssets
	}
	network, err := e.HomeNetwork()
	if err != nil {
		return sourced.UnifiedAssetsResponse{}, err
	}
	native, err := NativeDenom(network)
	if err != nil {
		return sourced.UnifiedAssetsResponse{}, err
	}
	pairs, err := e.Pairs()
	if err != nil {
		return sourced.UnifiedAssetsResponse{}, err
	}

	sources := sourced.Sources{Sources: []sourced.Source{}}
	if assetsAreTargetAmount {
		if len(assets) != 1 {
			return sourced.UnifiedAssetsResponse{}, ErrSingleTargetAsset
		}
		asset := assets[0]
		amount, err := types.CoinAmount(asset)
		if err != nil {
			return sourced.UnifiedAssetsResponse{}, err
		}
		if asset.Denom == sourced.USDCDenom {
			return sourced.UnifiedAssetsResponse{UnifiedAsset: asset, Sources: sources}, nil
		}
		path, err := route(native, asset.Denom)
		if err != nil {
			return sourced.UnifiedAssetsResponse{}, err
		}
		reversed := make([]string, len(path))
		for i := range path {
			reversed[len(path)-1-i] = path[i]
		}
		converted, err := e.convert(pairs, reversed, amount, &sources)
		if err != nil {
			return sourced.UnifiedAssetsResponse{}, err
		}
		return sourced.UnifiedAssetsResponse{UnifiedAsset: types.NewCoin(converted, asset.Denom), Sources: sources}, nil
	}

	total := types.ZeroUint128()
	for _, asset := range assets {
		amount, err := types.CoinAmount(asset)
		if err != nil {
			return sourced.UnifiedAssetsResponse{}, err
		}
		if asset.Denom != sourced.USDCDenom {
			path, err := route(native, asset.Denom)
			if err != nil {
				return sourced.UnifiedAssetsResponse{}, err
			}
			amount, err = e.convert(pairs, path, amount, &sources)
			if err != nil {
				return sourced.UnifiedAssetsResponse{}, err
			}
		}
		total, err = total.Add(amount)
		if err != nil {
			return sourced.UnifiedAssetsResponse{}, sourced.ErrOverflow
		}
	}
	return sourced.UnifiedAssetsResponse{UnifiedAsset: types.NewCoin(total, sourced.USDCDenom), Sources: sources}, nil
}
