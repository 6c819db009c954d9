package bootstrap

import (
	"time"

	"andromeda/core/host"
	"andromeda/core/types"
	"andromeda/native/ado"
	"andromeda/native/cw20"
)

const (
	ContractName    = "andromeda-liquidity-bootstrap"
	ContractVersion = "0.1.0"
)

type InstantiateMsg struct {
	TokenAddress            string  `json:"token_address"`
	LockdropContractAddress *string `json:"lockdrop_contract_address,omitempty"`
	GeneratorContract       *string `json:"generator_contract,omitempty"`
	AstroTokenAddress       *string `json:"astro_token_address,omitempty"`
	TokenVestingDuration    uint64  `json:"token_vesting_duration"`
	LPTokensVestingDuration uint64  `json:"lp_tokens_vesting_duration"`
	InitTimestamp           uint64  `json:"init_timestamp"`
	UstDepositWindow        uint64  `json:"ust_deposit_window"`
	TokenDepositWindow      uint64  `json:"token_deposit_window"`
	WithdrawalWindow        uint64  `json:"withdrawal_window"`
}

type UpdateConfigMsg struct {
	AstroportLPPool   *string `json:"astroport_lp_pool,omitempty"`
	LPStakingContract *string `json:"lp_staking_contract,omitempty"`
}

type WithdrawUSTMsg struct {
	Amount types.Uint128 `json:"amount"`
}

type AddLiquidityMsg struct {
	Slippage *types.Decimal `json:"slippage,omitempty"`
}

type StakeLPTokensMsg struct {
	SingleIncentiveStaking bool `json:"single_incentive_staking"`
	DualIncentivesStaking  bool `json:"dual_incentives_staking"`
}

type ClaimRewardsMsg struct {
	WithdrawUnlockedShares bool `json:"withdraw_unlocked_shares"`
}

// LiquidityAddedCallback carries the LP balance held before the pool minted.
type LiquidityAddedCallback struct {
	PrevLPBalance types.Uint128 `json:"prev_lp_balance"`
}

// RewardClaimCallback carries the reward balances held before a claim. A nil
// user only accrues the global indices.
type RewardClaimCallback struct {
	UserAddress      *string       `json:"user_address"`
	PrevTokenBalance types.Uint128 `json:"prev_token_balance"`
	PrevAstroBalance types.Uint128 `json:"prev_astro_balance"`
	WithdrawLPShares types.Uint128 `json:"withdraw_lp_shares"`
}

type CallbackMsg struct {
	UpdateStateOnLiquidityAdditionToPool *LiquidityAddedCallback `json:"update_state_on_liquidity_addition_to_pool,omitempty"`
	UpdateStateOnRewardClaim             *RewardClaimCallback    `json:"update_state_on_reward_claim,omitempty"`
}

type ExecuteMsg struct {
	Receive                     *cw20.ReceiveMsg    `json:"receive,omitempty"`
	UpdateConfig                *UpdateConfigMsg    `json:"update_config,omitempty"`
	DepositUst                  *struct{}           `json:"deposit_ust,omitempty"`
	WithdrawUst                 *WithdrawUSTMsg     `json:"withdraw_ust,omitempty"`
	AddLiquidityToAstroportPool *AddLiquidityMsg    `json:"add_liquidity_to_astroport_pool,omitempty"`
	StakeLPTokens               *StakeLPTokensMsg   `json:"stake_lp_tokens,omitempty"`
	ClaimRewards                *ClaimRewardsMsg    `json:"claim_rewards,omitempty"`
	Callback                    *CallbackMsg        `json:"callback,omitempty"`
	AndrReceive                 *types.AndromedaMsg `json:"andr_receive,omitempty"`
}

type DepositTokensHook struct {
	UserAddress string `json:"user_address"`
}

// Cw20HookMsg is the payload of a CW20 send to the auction.
type Cw20HookMsg struct {
	DepositTokens      *DepositTokensHook `json:"deposit_tokens,omitempty"`
	IncreaseIncentives *struct{}          `json:"increase_incentives,omitempty"`
}

type UserInfoQuery struct {
	Address string `json:"address"`
}

type QueryMsg struct {
	Config   *struct{}      `json:"config,omitempty"`
	State    *struct{}      `json:"state,omitempty"`
	UserInfo *UserInfoQuery `json:"user_info,omitempty"`
}

type ConfigResponse struct {
	TokenAddress            string        `json:"token_address"`
	LockdropContractAddress *string       `json:"lockdrop_contract_address"`
	AstroportLPPool         *string       `json:"astroport_lp_pool"`
	LPTokenAddress          *string       `json:"lp_token_address"`
	TokenLPStakingContract  *string       `json:"token_lp_staking_contract"`
	GeneratorContract       *string       `json:"generator_contract"`
	AstroTokenAddress       *string       `json:"astro_token_address"`
	TokenRewards            types.Uint128 `json:"token_rewards"`
	TokenVestingDuration    uint64        `json:"token_vesting_duration"`
	LPTokensVestingDuration uint64        `json:"lp_tokens_vesting_duration"`
	InitTimestamp           uint64        `json:"init_timestamp"`
	UstDepositWindow        uint64        `json:"ust_deposit_window"`
	TokenDepositWindow      uint64        `json:"token_deposit_window"`
	WithdrawalWindow        uint64        `json:"withdrawal_window"`
}

func optional(addr string) *string {
	if addr == "" {
		return nil
	}
	return &addr
}

func configResponse(cfg Config) ConfigResponse {
	return ConfigResponse{
		TokenAddress:            cfg.TokenAddress,
		LockdropContractAddress: optional(cfg.LockdropContractAddress),
		AstroportLPPool:         optional(cfg.AstroportLPPool),
		LPTokenAddress:          optional(cfg.LPTokenAddress),
		TokenLPStakingContract:  optional(cfg.TokenLPStakingContract),
		GeneratorContract:       optional(cfg.GeneratorContract),
		AstroTokenAddress:       optional(cfg.AstroTokenAddress),
		TokenRewards:            cfg.TokenRewards,
		TokenVestingDuration:    cfg.TokenVestingDuration,
		LPTokensVestingDuration: cfg.LPTokensVestingDuration,
		InitTimestamp:           cfg.InitTimestamp,
		UstDepositWindow:        cfg.UstDepositWindow,
		TokenDepositWindow:      cfg.TokenDepositWindow,
		WithdrawalWindow:        cfg.WithdrawalWindow,
	}
}

type UserInfoResponse struct {
	TokenDeposited                types.Uint128 `json:"token_deposited"`
	UstDeposited                  types.Uint128 `json:"ust_deposited"`
	UstWithdrawnFlag              bool          `json:"ust_withdrawn_flag"`
	LPShares                      types.Uint128 `json:"lp_shares"`
	WithdrawnLPShares             types.Uint128 `json:"withdrawn_lp_shares"`
	WithdrawableLPShares          types.Uint128 `json:"withdrawable_lp_shares"`
	TotalAuctionIncentives        types.Uint128 `json:"total_auction_incentives"`
	WithdrawnAuctionIncentives    types.Uint128 `json:"withdrawn_auction_incentives"`
	WithdrawableAuctionIncentives types.Uint128 `json:"withdrawable_auction_incentives"`
	TokenRewardIndex              types.Decimal `json:"token_reward_index"`
	WithdrawableTokenIncentives   types.Uint128 `json:"withdrawable_token_incentives"`
	WithdrawnTokenIncentives      types.Uint128 `json:"withdrawn_token_incentives"`
	AstroRewardIndex              types.Decimal `json:"astro_reward_index"`
	WithdrawableAstroIncentives   types.Uint128 `json:"withdrawable_astro_incentives"`
	WithdrawnAstroIncentives      types.Uint128 `json:"withdrawn_astro_incentives"`
}

// Contract is the liquidity bootstrap entry point.
type Contract struct{}

func engineFor(deps host.Deps, env host.Env) *Engine {
	engine := NewEngine()
	engine.SetState(deps.Store)
	engine.SetQuerier(deps.Querier)
	engine.SetEmitter(deps.Emitter)
	engine.SetSelf(env.Contract)
	blockTime := env.Block.Time
	engine.SetNowFunc(func() time.Time { return blockTime })
	return engine
}

func (Contract) Instantiate(deps host.Deps, env host.Env, info host.MessageInfo, raw []byte) (*host.Response, error) {
	var msg InstantiateMsg
	if err := host.DecodeMsg(raw, &msg); err != nil {
		return nil, err
	}
	if err := engineFor(deps, env).Instantiate(info.Sender, env.Block.Height, msg); err != nil {
		return nil, err
	}
	return host.NewResponse().
		AddAttribute("method", "instantiate").
		AddAttribute("type", "liquidity-bootstrap"), nil
}

func (Contract) Execute(deps host.Deps, env host.Env, info host.MessageInfo, raw []byte) (*host.Response, error) {
	var msg ExecuteMsg
	if err := host.DecodeMsg(raw, &msg); err != nil {
		return nil, err
	}
	engine := engineFor(deps, env)
	switch {
	case msg.Receive != nil:
		return engine.Receive(info.Sender, *msg.Receive)
	case msg.UpdateConfig != nil:
		return engine.UpdateConfig(info.Sender, *msg.UpdateConfig)
	case msg.DepositUst != nil:
		return engine.DepositUST(info.Sender, info.Funds)
	case msg.WithdrawUst != nil:
		return engine.WithdrawUST(info.Sender, msg.WithdrawUst.Amount)
	case msg.AddLiquidityToAstroportPool != nil:
		return engine.AddLiquidity(info.Sender, msg.AddLiquidityToAstroportPool.Slippage)
	case msg.StakeLPTokens != nil:
		return engine.StakeLPTokens(info.Sender, msg.StakeLPTokens.SingleIncentiveStaking, msg.StakeLPTokens.DualIncentivesStaking)
	case msg.ClaimRewards != nil:
		return engine.ClaimRewards(info.Sender, msg.ClaimRewards.WithdrawUnlockedShares)
	case msg.Callback != nil:
		return engine.Callback(info.Sender, *msg.Callback)
	case msg.AndrReceive != nil:
		return ado.New(deps.Store).Receive(info.Sender, *msg.AndrReceive)
	default:
		return nil, host.ErrUnknownVariant
	}
}

func (Contract) Query(deps host.Deps, env host.Env, raw []byte) ([]byte, error) {
	var msg QueryMsg
	if err := host.DecodeMsg(raw, &msg); err != nil {
		return nil, err
	}
	engine := engineFor(deps, env)
	switch {
	case msg.Config != nil:
		resp, err := engine.Config()
		if err != nil {
			return nil, err
		}
		return host.EncodeReply(resp)
	case msg.State != nil:
		resp, err := engine.State()
		if err != nil {
			return nil, err
		}
		return host.EncodeReply(resp)
	case msg.UserInfo != nil:
		resp, err := engine.UserInfo(msg.UserInfo.Address)
		if err != nil {
			return nil, err
		}
		return host.EncodeReply(resp)
	default:
		return nil, host.ErrUnknownVariant
	}
}

func (Contract) Migrate(deps host.Deps, env host.Env, raw []byte) (*host.Response, error) {
	return ado.HandleMigrate(deps.Store, ContractName, ContractVersion)
}
