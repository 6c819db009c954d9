package bootstrap

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"andromeda/core/events"
	"andromeda/core/host"
	"andromeda/core/types"
	"andromeda/native/ado"
	"andromeda/native/cw20"
)

// Engine runs the liquidity bootstrap auction of one contract.
type Engine struct {
	state   ado.State
	base    *ado.Base
	querier host.Querier
	emitter events.Emitter
	nowFn   func() time.Time
	self    string
}

func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}, nowFn: time.Now}
}

func (e *Engine) SetState(state ado.State) {
	e.state = state
	e.base = ado.New(state)
}

func (e *Engine) SetQuerier(q host.Querier) { e.querier = q }

// SetSelf records the contract's own address, the only valid callback sender.
func (e *Engine) SetSelf(addr string) { e.self = addr }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the clock. Passing nil restores time.Now.
func (e *Engine) SetNowFunc(now func() time.Time) {
	if now == nil {
		e.nowFn = time.Now
		return
	}
	e.nowFn = now
}

func (e *Engine) now() uint64 {
	var t time.Time
	if e == nil || e.nowFn == nil {
		t = time.Now()
	} else {
		t = e.nowFn()
	}
	if t.Unix() <= 0 {
		return 0
	}
	return uint64(t.Unix())
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

func validateOptional(addr *string) (string, error) {
	if addr == nil {
		return "", nil
	}
	trimmed := strings.TrimSpace(*addr)
	if err := types.ValidateAddress(trimmed); err != nil {
		return "", err
	}
	return trimmed, nil
}

// Instantiate validates the auction schedule and writes the initial config
// and state. height is only reported back in errors.
func (e *Engine) Instantiate(sender string, height uint64, msg InstantiateMsg) error {
	if err := e.ready(); err != nil {
		return err
	}
	now := e.now()
	if msg.InitTimestamp < now {
		return &StartTimeInThePastError{CurrentSeconds: now, CurrentBlock: height}
	}
	if msg.TokenDepositWindow > msg.UstDepositWindow {
		return ErrInvalidWindow
	}
	if msg.TokenVestingDuration == 0 {
		return ErrInvalidVestingDuration
	}
	token := strings.TrimSpace(msg.TokenAddress)
	if err := types.ValidateAddress(token); err != nil {
		return err
	}
	cfg := Config{
		TokenAddress:            token,
		TokenVestingDuration:    msg.TokenVestingDuration,
		LPTokensVestingDuration: msg.LPTokensVestingDuration,
		InitTimestamp:           msg.InitTimestamp,
		UstDepositWindow:        msg.UstDepositWindow,
		TokenDepositWindow:      msg.TokenDepositWindow,
		WithdrawalWindow:        msg.WithdrawalWindow,
	}
	var err error
	if cfg.LockdropContractAddress, err = validateOptional(msg.LockdropContractAddress); err != nil {
		return err
	}
	if cfg.GeneratorContract, err = validateOptional(msg.GeneratorContract); err != nil {
		return err
	}
	if cfg.AstroTokenAddress, err = validateOptional(msg.AstroTokenAddress); err != nil {
		return err
	}
	if err := e.base.Instantiate(ado.InstantiateInfo{
		ContractName: ContractName,
		Version:      ContractVersion,
		Owner:        sender,
	}); err != nil {
		return err
	}
	if err := storeConfig(e.state, cfg); err != nil {
		return err
	}
	return storeState(e.state, State{})
}

// Receive handles a CW20 send from the auction token.
func (e *Engine) Receive(sender string, msg cw20.ReceiveMsg) (*host.Response, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	cfg, err := loadConfig(e.state)
	if err != nil {
		return nil, err
	}
	if sender != cfg.TokenAddress {
		return nil, &InvalidFundsError{Msg: "Invalid cw20 deposited"}
	}
	if msg.Amount.IsZero() {
		return nil, &InvalidFundsError{Msg: "Amount must be non-zero"}
	}
	var hook Cw20HookMsg
	if err := json.Unmarshal(msg.Msg, &hook); err != nil {
		return nil, fmt.Errorf("bootstrap: decode receive hook: %w", err)
	}
	switch {
	case hook.DepositTokens != nil:
		if cfg.LockdropContractAddress != "" && cfg.LockdropContractAddress != msg.Sender {
			return nil, ado.ErrUnauthorized
		}
		return e.DepositTokens(hook.DepositTokens.UserAddress, msg.Amount)
	case hook.IncreaseIncentives != nil:
		return e.IncreaseIncentives(msg.Amount)
	default:
		return nil, host.ErrUnknownVariant
	}
}

// DepositTokens credits amount auction tokens to user while the token
// deposit window is open.
func (e *Engine) DepositTokens(user string, amount types.Uint128) (*host.Response, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	cfg, err := loadConfig(e.state)
	if err != nil {
		return nil, err
	}
	if !tokenDepositOpen(e.now(), cfg) {
		return nil, ErrDepositWindowClosed
	}
	user = strings.TrimSpace(user)
	if err := types.ValidateAddress(user); err != nil {
		return nil, err
	}
	st, err := loadState(e.state)
	if err != nil {
		return nil, err
	}
	info, err := loadUser(e.state, user)
	if err != nil {
		return nil, err
	}
	if st.TotalTokenDeposited, err = st.TotalTokenDeposited.Add(amount); err != nil {
		return nil, err
	}
	if info.TokenDeposited, err = info.TokenDeposited.Add(amount); err != nil {
		return nil, err
	}
	if err := storeState(e.state, st); err != nil {
		return nil, err
	}
	if err := storeUser(e.state, user, info); err != nil {
		return nil, err
	}
	e.emit(events.BootstrapDeposit{User: user, Asset: cfg.TokenAddress, Amount: amount})
	return host.NewResponse().
		AddAttribute("action", "deposit_tokens").
		AddAttribute("user", user).
		AddAttribute("tokens_deposited", amount.String()), nil
}

// IncreaseIncentives grows the auction reward pool until liquidity is added.
func (e *Engine) IncreaseIncentives(amount types.Uint128) (*host.Response, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	cfg, err := loadConfig(e.state)
	if err != nil {
		return nil, err
	}
	st, err := loadState(e.state)
	if err != nil {
		return nil, err
	}
	if !st.LPSharesMinted.IsZero() {
		return nil, ErrTokenAlreadyBeingDistributed
	}
	if cfg.TokenRewards, err = cfg.TokenRewards.Add(amount); err != nil {
		return nil, err
	}
	if err := storeConfig(e.state, cfg); err != nil {
		return nil, err
	}
	return host.NewResponse().
		AddAttribute("action", "incentives_increased").
		AddAttribute("amount", amount.String()), nil
}

// UpdateConfig sets the pool (and with it the LP token, read from the pair)
// and the LP staking contract. Owner only.
func (e *Engine) UpdateConfig(sender string, update UpdateConfigMsg) (*host.Response, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	cfg, err := loadConfig(e.state)
	if err != nil {
		return nil, err
	}
	if err := e.base.RequireOwner(sender); err != nil {
		return nil, err
	}
	if update.AstroportLPPool != nil {
		pool, err := validateOptional(update.AstroportLPPool)
		if err != nil {
			return nil, err
		}
		var pairInfo PairInfo
		if err := host.QueryJSON(e.querier, pool, PairQueryMsg{Pair: &struct{}{}}, &pairInfo); err != nil {
			return nil, fmt.Errorf("bootstrap: query pair %s: %w", pool, err)
		}
		if err := types.ValidateAddress(pairInfo.LiquidityToken); err != nil {
			return nil, err
		}
		cfg.AstroportLPPool = pool
		cfg.LPTokenAddress = pairInfo.LiquidityToken
	}
	if update.LPStakingContract != nil {
		if cfg.TokenLPStakingContract, err = validateOptional(update.LPStakingContract); err != nil {
			return nil, err
		}
	}
	if err := storeConfig(e.state, cfg); err != nil {
		return nil, err
	}
	return host.NewResponse().AddAttribute("action", "update_config"), nil
}

// DepositUST accepts a single non-zero uusd coin while UST deposits are open.
func (e *Engine) DepositUST(sender string, funds []types.Coin) (*host.Response, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	cfg, err := loadConfig(e.state)
	if err != nil {
		return nil, err
	}
	if !ustDepositOpen(e.now(), cfg) {
		return nil, ErrDepositWindowClosed
	}
	if len(funds) != 1 {
		return nil, &InvalidFundsError{Msg: "Can only deposit a single coin"}
	}
	if funds[0].Denom != UUSDDenom {
		return nil, &InvalidFundsError{Msg: "Only UST among native tokens accepted"}
	}
	amount, err := types.CoinAmount(funds[0])
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, &InvalidFundsError{Msg: "Deposit amount must be greater than 0"}
	}
	st, err := loadState(e.state)
	if err != nil {
		return nil, err
	}
	info, err := loadUser(e.state, sender)
	if err != nil {
		return nil, err
	}
	if st.TotalUstDeposited, err = st.TotalUstDeposited.Add(amount); err != nil {
		return nil, err
	}
	if info.UstDeposited, err = info.UstDeposited.Add(amount); err != nil {
		return nil, err
	}
	if err := storeState(e.state, st); err != nil {
		return nil, err
	}
	if err := storeUser(e.state, sender, info); err != nil {
		return nil, err
	}
	e.emit(events.BootstrapDeposit{User: sender, Asset: UUSDDenom, Amount: amount})
	return host.NewResponse().
		AddAttribute("action", "deposit_ust").
		AddAttribute("user_address", sender).
		AddAttribute("ust_deposited", amount.String()), nil
}

// WithdrawUST returns up to the currently allowed share of the sender's UST.
// Once the deposit window has closed only one withdrawal is allowed.
func (e *Engine) WithdrawUST(sender string, amount types.Uint128) (*host.Response, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	cfg, err := loadConfig(e.state)
	if err != nil {
		return nil, err
	}
	st, err := loadState(e.state)
	if err != nil {
		return nil, err
	}
	info, err := loadUser(e.state, sender)
	if err != nil {
		return nil, err
	}
	if info.UstWithdrawnFlag {
		return nil, &InvalidWithdrawalError{Msg: "Max 1 withdrawal allowed during current window"}
	}
	if amount.IsZero() {
		return nil, &InvalidWithdrawalError{Msg: "Amount must be greater than 0"}
	}
	now := e.now()
	percent, err := allowedWithdrawalPercent(now, cfg)
	if err != nil {
		return nil, err
	}
	maxAllowed, err := percent.MulFloor(info.UstDeposited)
	if err != nil {
		return nil, err
	}
	if amount.Cmp(maxAllowed) > 0 {
		return nil, &InvalidWithdrawalError{Msg: fmt.Sprintf("Amount exceeds maximum allowed withdrawal limit of %s %s", maxAllowed, UUSDDenom)}
	}
	if now > saturatingAdd(cfg.InitTimestamp, cfg.UstDepositWindow) {
		info.UstWithdrawnFlag = true
	}
	if st.TotalUstDeposited, err = st.TotalUstDeposited.Sub(amount); err != nil {
		return nil, err
	}
	if info.UstDeposited, err = info.UstDeposited.Sub(amount); err != nil {
		return nil, err
	}
	if err := storeState(e.state, st); err != nil {
		return nil, err
	}
	if err := storeUser(e.state, sender, info); err != nil {
		return nil, err
	}
	e.emit(events.BootstrapWithdrawal{User: sender, Amount: amount})
	return host.NewResponse().
		AddMessage(types.BankSend(sender, []types.Coin{types.NewCoin(amount, UUSDDenom)})).
		AddAttribute("action", "withdraw_ust").
		AddAttribute("user", sender).
		AddAttribute("ust_withdrawn", amount.String()), nil
}

func (e *Engine) callback(msg CallbackMsg) (types.CosmosMsg, error) {
	return types.ExecuteContract(e.self, ExecuteMsg{Callback: &msg}, nil)
}

// AddLiquidity sends every deposit to the pool. The minted LP shares are
// recorded by the callback that runs after the pool has settled.
func (e *Engine) AddLiquidity(sender string, slippage *types.Decimal) (*host.Response, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	cfg, err := loadConfig(e.state)
	if err != nil {
		return nil, err
	}
	st, err := loadState(e.state)
	if err != nil {
		return nil, err
	}
	if err := e.base.RequireOwner(sender); err != nil {
		return nil, err
	}
	if !st.LPSharesMinted.IsZero() {
		return nil, ErrLiquidityAlreadyProvided
	}
	if !windowsClosed(e.now(), cfg) {
		return nil, ErrWindowsStillOpen
	}
	if cfg.AstroportLPPool == "" {
		return nil, ErrLPAddressNotSet
	}
	prevLP, err := tokenBalance(e.querier, cfg.LPTokenAddress, e.self)
	if err != nil {
		return nil, err
	}
	approve, err := cw20.IncreaseAllowance(cfg.TokenAddress, cfg.AstroportLPPool, st.TotalTokenDeposited)
	if err != nil {
		return nil, err
	}
	provide, err := provideLiquidity(cfg.AstroportLPPool, cfg.TokenAddress, st, slippage)
	if err != nil {
		return nil, err
	}
	settle, err := e.callback(CallbackMsg{UpdateStateOnLiquidityAdditionToPool: &LiquidityAddedCallback{PrevLPBalance: prevLP}})
	if err != nil {
		return nil, err
	}
	return host.NewResponse().
		AddAttribute("action", "add_liquidity_to_astroport_pool").
		AddMessages(approve, provide, settle).
		AddAttribute("token_deposited", st.TotalTokenDeposited.String()).
		AddAttribute("ust_deposited", st.TotalUstDeposited.String()), nil
}

// rewardClaimCallback snapshots the reward token balances so the callback
// can attribute whatever the preceding messages paid out.
func (e *Engine) rewardClaimCallback(cfg Config, user *string, withdrawLP types.Uint128) (types.CosmosMsg, error) {
	tokenBal, err := tokenBalance(e.querier, cfg.TokenAddress, e.self)
	if err != nil {
		return types.CosmosMsg{}, err
	}
	astroBal, err := tokenBalance(e.querier, cfg.AstroTokenAddress, e.self)
	if err != nil {
		return types.CosmosMsg{}, err
	}
	return e.callback(CallbackMsg{UpdateStateOnRewardClaim: &RewardClaimCallback{
		UserAddress:      user,
		PrevTokenBalance: tokenBal,
		PrevAstroBalance: astroBal,
		WithdrawLPShares: withdrawLP,
	}})
}

// StakeLPTokens moves the auction's LP shares to the LP staking contract
// (single) or the generator (dual), unstaking them from the other first.
func (e *Engine) StakeLPTokens(sender string, single, dual bool) (*host.Response, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	cfg, err := loadConfig(e.state)
	if err != nil {
		return nil, err
	}
	st, err := loadState(e.state)
	if err != nil {
		return nil, err
	}
	if err := e.base.RequireOwner(sender); err != nil {
		return nil, err
	}
	if single == dual {
		return nil, ErrInvalidValues
	}
	if single && st.AreStakedForSingleIncentives {
		return nil, &StakingError{Msg: "LP Tokens already staked with the LP staking contract"}
	}
	if dual && st.AreStakedForDualIncentives {
		return nil, &StakingError{Msg: "LP Tokens already staked with the generator"}
	}
	resp := host.NewResponse().AddAttribute("action", "stake_lp_tokens")
	balance := st.stakedShares()
	unstaking := false
	if single {
		if st.AreStakedForDualIncentives {
			msg, err := unstakeFromGenerator(cfg, balance)
			if err != nil {
				return nil, err
			}
			resp.AddMessage(msg).AddAttribute("shares_withdrawn_from_generator", balance.String())
			unstaking = true
		}
		if cfg.TokenLPStakingContract == "" {
			return nil, &StakingError{Msg: "LP Staking not set"}
		}
		stake, err := stakeWithStaking(cfg, balance)
		if err != nil {
			return nil, err
		}
		resp.AddMessage(stake).
			AddAttribute("shares_staked_with_lp_contract", "true").
			AddAttribute("shares_staked_amount", balance.String())
		st.AreStakedForSingleIncentives = true
		st.AreStakedForDualIncentives = false
	}
	if dual {
		if st.AreStakedForSingleIncentives {
			msg, err := unstakeFromStaking(cfg.TokenLPStakingContract, balance)
			if err != nil {
				return nil, err
			}
			resp.AddMessage(msg).AddAttribute("shares_unstaked_from_lp_staking", balance.String())
			unstaking = true
		}
		if cfg.GeneratorContract == "" {
			return nil, &StakingError{Msg: "Generator not set"}
		}
		stake, err := stakeWithGenerator(cfg, balance)
		if err != nil {
			return nil, err
		}
		resp.AddMessage(stake).
			AddAttribute("shares_staked_with_generator", "true").
			AddAttribute("shares_staked_amount", balance.String())
		st.AreStakedForDualIncentives = true
		st.AreStakedForSingleIncentives = false
	}
	if unstaking {
		settle, err := e.rewardClaimCallback(cfg, nil, types.ZeroUint128())
		if err != nil {
			return nil, err
		}
		resp.AddMessage(settle)
	}
	if err := storeState(e.state, st); err != nil {
		return nil, err
	}
	return resp, nil
}

// ClaimRewards collects staking rewards for the auction and, through the
// callback, pays the sender its vested incentives, staking rewards and
// optionally its unlocked LP shares.
func (e *Engine) ClaimRewards(sender string, withdrawUnlocked bool) (*host.Response, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	cfg, err := loadConfig(e.state)
	if err != nil {
		return nil, err
	}
	st, err := loadState(e.state)
	if err != nil {
		return nil, err
	}
	info, err := loadUser(e.state, sender)
	if err != nil {
		return nil, err
	}
	now := e.now()
	if !windowsClosed(now, cfg) {
		return nil, ErrWindowsStillOpen
	}
	if info.TokenDeposited.IsZero() && info.UstDeposited.IsZero() {
		return nil, ErrInvalidValues
	}
	resp := host.NewResponse().
		AddAttribute("action", "claim_rewards").
		AddAttribute("user_address", sender).
		AddAttribute("withdraw_lp_shares", strconv.FormatBool(withdrawUnlocked))
	hadShares := !info.LPShares.IsZero()
	hadIncentives := !info.TotalAuctionIncentives.IsZero()
	if err := info.settleEntitlements(cfg, st); err != nil {
		return nil, err
	}
	if !hadShares {
		resp.AddAttribute("user_lp_share", info.LPShares.String())
	}
	if !hadIncentives {
		resp.AddAttribute("user_total_auction_incentives", info.TotalAuctionIncentives.String())
	}
	lpToWithdraw := types.ZeroUint128()
	if withdrawUnlocked {
		if lpToWithdraw, err = withdrawableLPShares(now, cfg, st, info); err != nil {
			return nil, err
		}
	}
	if st.AreStakedForSingleIncentives {
		pending, err := pendingStakingRewards(e.querier, cfg, e.self)
		if err != nil {
			return nil, err
		}
		if !pending.IsZero() || withdrawUnlocked {
			var claim types.CosmosMsg
			if withdrawUnlocked {
				claim, err = unstakeFromStaking(cfg.TokenLPStakingContract, lpToWithdraw)
			} else {
				claim, err = claimFromStaking(cfg.TokenLPStakingContract)
			}
			if err != nil {
				return nil, err
			}
			resp.AddMessage(claim).AddAttribute("claim_rewards", "lp_staking_contract")
		}
	}
	if st.AreStakedForDualIncentives {
		pending, err := pendingGeneratorRewards(e.querier, cfg, e.self)
		if err != nil {
			return nil, err
		}
		proxyPending := pending.PendingOnProxy != nil && !pending.PendingOnProxy.IsZero()
		if !pending.Pending.IsZero() || proxyPending || withdrawUnlocked {
			claim, err := unstakeFromGenerator(cfg, lpToWithdraw)
			if err != nil {
				return nil, err
			}
			resp.AddMessage(claim).AddAttribute("claim_rewards", "generator")
		}
	}
	if err := storeUser(e.state, sender, info); err != nil {
		return nil, err
	}
	user := sender
	settle, err := e.rewardClaimCallback(cfg, &user, lpToWithdraw)
	if err != nil {
		return nil, err
	}
	return resp.AddMessage(settle), nil
}

// Callback finishes a two-phase operation. Only the contract itself may call
// it.
func (e *Engine) Callback(sender string, msg CallbackMsg) (*host.Response, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if sender != e.self {
		return nil, ado.ErrUnauthorized
	}
	switch {
	case msg.UpdateStateOnLiquidityAdditionToPool != nil:
		return e.onLiquidityAdded(msg.UpdateStateOnLiquidityAdditionToPool.PrevLPBalance)
	case msg.UpdateStateOnRewardClaim != nil:
		return e.onRewardClaim(*msg.UpdateStateOnRewardClaim)
	default:
		return nil, host.ErrUnknownVariant
	}
}

func (e *Engine) onLiquidityAdded(prevLP types.Uint128) (*host.Response, error) {
	cfg, err := loadConfig(e.state)
	if err != nil {
		return nil, err
	}
	st, err := loadState(e.state)
	if err != nil {
		return nil, err
	}
	current, err := tokenBalance(e.querier, cfg.LPTokenAddress, e.self)
	if err != nil {
		return nil, err
	}
	minted, err := current.Sub(prevLP)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: LP balance fell during liquidity addition: %w", err)
	}
	st.LPSharesMinted = minted
	st.PoolInitTimestamp = e.now()
	if err := storeState(e.state, st); err != nil {
		return nil, err
	}
	resp := host.NewResponse()
	if cfg.LockdropContractAddress != "" {
		enable, err := enableLockdropClaims(cfg.LockdropContractAddress)
		if err != nil {
			return nil, err
		}
		resp.AddMessage(enable)
	}
	e.emit(events.BootstrapLiquidityAdded{LPSharesMinted: minted, Timestamp: st.PoolInitTimestamp})
	return resp.
		AddAttribute("action", "update_state_on_liquidity_addition").
		AddAttribute("lp_shares_minted", minted.String()), nil
}

func (e *Engine) onRewardClaim(msg RewardClaimCallback) (*host.Response, error) {
	cfg, err := loadConfig(e.state)
	if err != nil {
		return nil, err
	}
	st, err := loadState(e.state)
	if err != nil {
		return nil, err
	}
	tokenBal, err := tokenBalance(e.querier, cfg.TokenAddress, e.self)
	if err != nil {
		return nil, err
	}
	astroBal, err := tokenBalance(e.querier, cfg.AstroTokenAddress, e.self)
	if err != nil {
		return nil, err
	}
	tokenClaimed, err := tokenBal.Sub(msg.PrevTokenBalance)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: token balance fell during reward claim: %w", err)
	}
	astroClaimed, err := astroBal.Sub(msg.PrevAstroBalance)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: astro balance fell during reward claim: %w", err)
	}
	if err := st.accrueTokenRewards(tokenClaimed); err != nil {
		return nil, err
	}
	if err := st.accrueAstroRewards(astroClaimed); err != nil {
		return nil, err
	}
	resp := host.NewResponse().
		AddAttribute("total_claimed_token", tokenClaimed.String()).
		AddAttribute("total_claimed_astro", astroClaimed.String())

	if msg.UserAddress != nil {
		addr := *msg.UserAddress
		info, err := loadUser(e.state, addr)
		if err != nil {
			return nil, err
		}
		auctionReward, err := withdrawableAuctionReward(e.now(), cfg, st, info)
		if err != nil {
			return nil, err
		}
		if info.WithdrawnAuctionIncentives, err = info.WithdrawnAuctionIncentives.Add(auctionReward); err != nil {
			return nil, err
		}
		resp.AddAttribute("withdrawn_auction_incentives", auctionReward.String())

		stakingReward, err := info.claimTokenReward(st)
		if err != nil {
			return nil, err
		}
		if info.WithdrawnTokenIncentives, err = info.WithdrawnTokenIncentives.Add(stakingReward); err != nil {
			return nil, err
		}
		resp.AddAttribute("user_token_incentives", stakingReward.String())
		tokenReward, err := auctionReward.Add(stakingReward)
		if err != nil {
			return nil, err
		}

		astroReward, err := info.claimAstroReward(st)
		if err != nil {
			return nil, err
		}
		if info.WithdrawnAstroIncentives, err = info.WithdrawnAstroIncentives.Add(astroReward); err != nil {
			return nil, err
		}
		resp.AddAttribute("user_astro_incentives", astroReward.String())

		if !tokenReward.IsZero() {
			transfer, err := cw20.Transfer(cfg.TokenAddress, addr, tokenReward)
			if err != nil {
				return nil, err
			}
			resp.AddMessage(transfer)
		}
		if !astroReward.IsZero() {
			transfer, err := cw20.Transfer(cfg.AstroTokenAddress, addr, astroReward)
			if err != nil {
				return nil, err
			}
			resp.AddMessage(transfer)
		}
		if !msg.WithdrawLPShares.IsZero() {
			transfer, err := cw20.Transfer(cfg.LPTokenAddress, addr, msg.WithdrawLPShares)
			if err != nil {
				return nil, err
			}
			resp.AddMessage(transfer)
			if info.WithdrawnLPShares, err = info.WithdrawnLPShares.Add(msg.WithdrawLPShares); err != nil {
				return nil, err
			}
			if st.LPSharesWithdrawn, err = st.LPSharesWithdrawn.Add(msg.WithdrawLPShares); err != nil {
				return nil, err
			}
		}
		if err := storeUser(e.state, addr, info); err != nil {
			return nil, err
		}
		e.emit(events.BootstrapRewardsClaimed{
			User:        addr,
			TokenReward: tokenReward,
			AstroReward: astroReward,
			LPShares:    msg.WithdrawLPShares,
		})
	}
	if err := storeState(e.state, st); err != nil {
		return nil, err
	}
	return resp, nil
}

// Config returns the stored configuration.
func (e *Engine) Config() (ConfigResponse, error) {
	if err := e.ready(); err != nil {
		return ConfigResponse{}, err
	}
	cfg, err := loadConfig(e.state)
	if err != nil {
		return ConfigResponse{}, err
	}
	return configResponse(cfg), nil
}

// State returns the auction totals.
func (e *Engine) State() (State, error) {
	if err := e.ready(); err != nil {
		return State{}, err
	}
	return loadState(e.state)
}

// UserInfo reports what addr could claim now. Pending staking rewards are
// folded into copies of the indices; nothing is written.
func (e *Engine) UserInfo(addr string) (UserInfoResponse, error) {
	if err := e.ready(); err != nil {
		return UserInfoResponse{}, err
	}
	addr = strings.TrimSpace(addr)
	if err := types.ValidateAddress(addr); err != nil {
		return UserInfoResponse{}, err
	}
	cfg, err := loadConfig(e.state)
	if err != nil {
		return UserInfoResponse{}, err
	}
	st, err := loadState(e.state)
	if err != nil {
		return UserInfoResponse{}, err
	}
	info, err := loadUser(e.state, addr)
	if err != nil {
		return UserInfoResponse{}, err
	}
	if err := info.settleEntitlements(cfg, st); err != nil {
		return UserInfoResponse{}, err
	}
	now := e.now()
	withdrawableLP, err := withdrawableLPShares(now, cfg, st, info)
	if err != nil {
		return UserInfoResponse{}, err
	}
	claimable, err := withdrawableAuctionReward(now, cfg, st, info)
	if err != nil {
		return UserInfoResponse{}, err
	}
	tokenIncentives := types.ZeroUint128()
	astroIncentives := types.ZeroUint128()
	if st.AreStakedForSingleIncentives {
		pending, err := pendingStakingRewards(e.querier, cfg, e.self)
		if err != nil {
			return UserInfoResponse{}, err
		}
		if err := st.accrueTokenRewards(pending); err != nil {
			return UserInfoResponse{}, err
		}
		if tokenIncentives, err = info.claimTokenReward(st); err != nil {
			return UserInfoResponse{}, err
		}
	}
	if st.AreStakedForDualIncentives {
		pending, err := pendingGeneratorRewards(e.querier, cfg, e.self)
		if err != nil {
			return UserInfoResponse{}, err
		}
		onProxy := types.ZeroUint128()
		if pending.PendingOnProxy != nil {
			onProxy = *pending.PendingOnProxy
		}
		if err := st.accrueTokenRewards(onProxy); err != nil {
			return UserInfoResponse{}, err
		}
		if tokenIncentives, err = info.claimTokenReward(st); err != nil {
			return UserInfoResponse{}, err
		}
		if err := st.accrueAstroRewards(pending.Pending); err != nil {
			return UserInfoResponse{}, err
		}
		if astroIncentives, err = info.claimAstroReward(st); err != nil {
			return UserInfoResponse{}, err
		}
	}
	return UserInfoResponse{
		TokenDeposited:                info.TokenDeposited,
		UstDeposited:                  info.UstDeposited,
		UstWithdrawnFlag:              info.UstWithdrawnFlag,
		LPShares:                      info.LPShares,
		WithdrawnLPShares:             info.WithdrawnLPShares,
		WithdrawableLPShares:          withdrawableLP,
		TotalAuctionIncentives:        info.TotalAuctionIncentives,
		WithdrawnAuctionIncentives:    info.WithdrawnAuctionIncentives,
		WithdrawableAuctionIncentives: claimable,
		TokenRewardIndex:              info.TokenRewardIndex,
		WithdrawableTokenIncentives:   tokenIncentives,
		WithdrawnTokenIncentives:      info.WithdrawnTokenIncentives,
		AstroRewardIndex:              info.AstroRewardIndex,
		WithdrawableAstroIncentives:   astroIncentives,
		WithdrawnAstroIncentives:      info.WithdrawnAstroIncentives,
	}, nil
}
