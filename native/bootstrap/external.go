package bootstrap

import (
	"andromeda/core/host"
	"andromeda/core/types"
	"andromeda/native/cw20"
)

// Wire shapes of the contracts the auction talks to: the Astroport pair and
// generator, the LP staking contract and the lockdrop.

type NativeTokenInfo struct {
	Denom string `json:"denom"`
}

type TokenInfo struct {
	ContractAddr string `json:"contract_addr"`
}

// AssetInfo is either a native denom or a CW20 token.
type AssetInfo struct {
	NativeToken *NativeTokenInfo `json:"native_token,omitempty"`
	Token       *TokenInfo       `json:"token,omitempty"`
}

type Asset struct {
	Info   AssetInfo     `json:"info"`
	Amount types.Uint128 `json:"amount"`
}

type ProvideLiquidityMsg struct {
	Assets            [2]Asset       `json:"assets"`
	SlippageTolerance *types.Decimal `json:"slippage_tolerance"`
	AutoStake         *bool          `json:"auto_stake"`
	Receiver          *string        `json:"receiver"`
}

type PairExecuteMsg struct {
	ProvideLiquidity *ProvideLiquidityMsg `json:"provide_liquidity,omitempty"`
}

type PairQueryMsg struct {
	Pair *struct{} `json:"pair,omitempty"`
}

// PairInfo is the part of the pair reply the auction reads.
type PairInfo struct {
	LiquidityToken string `json:"liquidity_token"`
}

type UnstakeTokensMsg struct {
	Amount *types.Uint128 `json:"amount"`
}

type StakingExecuteMsg struct {
	UnstakeTokens *UnstakeTokensMsg `json:"unstake_tokens,omitempty"`
	ClaimRewards  *struct{}         `json:"claim_rewards,omitempty"`
}

type StakingHookMsg struct {
	StakeTokens *struct{} `json:"stake_tokens,omitempty"`
}

type StakerQuery struct {
	Address string `json:"address"`
}

type StakingQueryMsg struct {
	Staker *StakerQuery `json:"staker,omitempty"`
}

// PendingReward is a [token, amount] pair on the wire.
type PendingReward [2]string

type StakerResponse struct {
	PendingRewards []PendingReward `json:"pending_rewards"`
}

type GeneratorWithdrawMsg struct {
	LPToken string        `json:"lp_token"`
	Amount  types.Uint128 `json:"amount"`
}

type GeneratorExecuteMsg struct {
	Withdraw *GeneratorWithdrawMsg `json:"withdraw,omitempty"`
}

type GeneratorHookMsg struct {
	Deposit *struct{} `json:"deposit,omitempty"`
}

type PendingTokenQuery struct {
	LPToken string `json:"lp_token"`
	User    string `json:"user"`
}

type GeneratorQueryMsg struct {
	PendingToken *PendingTokenQuery `json:"pending_token,omitempty"`
}

type PendingTokenResponse struct {
	Pending        types.Uint128  `json:"pending"`
	PendingOnProxy *types.Uint128 `json:"pending_on_proxy,omitempty"`
}

type LockdropExecuteMsg struct {
	EnableClaims *struct{} `json:"enable_claims,omitempty"`
}

func provideLiquidity(pool, token string, state State, slippage *types.Decimal) (types.CosmosMsg, error) {
	autoStake := false
	msg := PairExecuteMsg{ProvideLiquidity: &ProvideLiquidityMsg{
		Assets: [2]Asset{
			{Info: AssetInfo{NativeToken: &NativeTokenInfo{Denom: UUSDDenom}}, Amount: state.TotalUstDeposited},
			{Info: AssetInfo{Token: &TokenInfo{ContractAddr: token}}, Amount: state.TotalTokenDeposited},
		},
		SlippageTolerance: slippage,
		AutoStake:         &autoStake,
	}}
	funds := []types.Coin{types.NewCoin(state.TotalUstDeposited, UUSDDenom)}
	return types.ExecuteContract(pool, msg, funds)
}

func unstakeFromStaking(staking string, amount types.Uint128) (types.CosmosMsg, error) {
	return types.ExecuteContract(staking, StakingExecuteMsg{UnstakeTokens: &UnstakeTokensMsg{Amount: &amount}}, nil)
}

func claimFromStaking(staking string) (types.CosmosMsg, error) {
	return types.ExecuteContract(staking, StakingExecuteMsg{ClaimRewards: &struct{}{}}, nil)
}

func stakeWithStaking(cfg Config, amount types.Uint128) (types.CosmosMsg, error) {
	return cw20.Send(cfg.LPTokenAddress, cfg.TokenLPStakingContract, amount, StakingHookMsg{StakeTokens: &struct{}{}})
}

func stakeWithGenerator(cfg Config, amount types.Uint128) (types.CosmosMsg, error) {
	return cw20.Send(cfg.LPTokenAddress, cfg.GeneratorContract, amount, GeneratorHookMsg{Deposit: &struct{}{}})
}

func unstakeFromGenerator(cfg Config, amount types.Uint128) (types.CosmosMsg, error) {
	return types.ExecuteContract(cfg.GeneratorContract, GeneratorExecuteMsg{Withdraw: &GeneratorWithdrawMsg{
		LPToken: cfg.LPTokenAddress,
		Amount:  amount,
	}}, nil)
}

func enableLockdropClaims(lockdrop string) (types.CosmosMsg, error) {
	return types.ExecuteContract(lockdrop, LockdropExecuteMsg{EnableClaims: &struct{}{}}, nil)
}

// pendingStakingRewards reads the token rewards the LP staking contract owes
// to the auction.
func pendingStakingRewards(q host.Querier, cfg Config, self string) (types.Uint128, error) {
	var resp StakerResponse
	if err := host.QueryJSON(q, cfg.TokenLPStakingContract, StakingQueryMsg{Staker: &StakerQuery{Address: self}}, &resp); err != nil {
		return types.Uint128{}, err
	}
	for _, reward := range resp.PendingRewards {
		if reward[0] == cfg.TokenAddress {
			return types.ParseUint128(reward[1])
		}
	}
	return types.Uint128{}, &StakingError{Msg: cfg.TokenAddress + " is not a valid reward in the vault"}
}

func pendingGeneratorRewards(q host.Querier, cfg Config, self string) (PendingTokenResponse, error) {
	var resp PendingTokenResponse
	err := host.QueryJSON(q, cfg.GeneratorContract, GeneratorQueryMsg{PendingToken: &PendingTokenQuery{
		LPToken: cfg.LPTokenAddress,
		User:    self,
	}}, &resp)
	return resp, err
}

// tokenBalance queries a CW20 balance. An unset token reads as zero.
func tokenBalance(q host.Querier, token, addr string) (types.Uint128, error) {
	if token == "" {
		return types.ZeroUint128(), nil
	}
	return cw20.QueryBalance(q, token, addr)
}
