package bootstrap

import (
	"errors"
	"fmt"

	"andromeda/core/types"
	"andromeda/native/ado"
)

// UUSDDenom is the only native coin the auction accepts.
const UUSDDenom = "uusd"

var (
	errNilState = errors.New("bootstrap engine: state not configured")

	ErrNotInitialised               = errors.New("bootstrap: contract not initialised")
	ErrInvalidWindow                = errors.New("bootstrap: token deposit window must not exceed the UST deposit window")
	ErrInvalidVestingDuration       = errors.New("bootstrap: token vesting duration must be positive")
	ErrDepositWindowClosed          = errors.New("bootstrap: deposit window closed")
	ErrWindowsStillOpen             = errors.New("bootstrap: deposit or withdrawal windows are still open")
	ErrLiquidityAlreadyProvided     = errors.New("bootstrap: liquidity already provided")
	ErrLPAddressNotSet              = errors.New("bootstrap: LP pool address not set")
	ErrTokenAlreadyBeingDistributed = errors.New("bootstrap: token rewards are already being distributed")
	ErrInvalidValues                = errors.New("bootstrap: invalid values")
)

// StartTimeInThePastError rejects an auction whose start already passed.
type StartTimeInThePastError struct {
	CurrentSeconds uint64
	CurrentBlock   uint64
}

func (e *StartTimeInThePastError) Error() string {
	return fmt.Sprintf("bootstrap: start time in the past (now %d, block %d)", e.CurrentSeconds, e.CurrentBlock)
}

type InvalidFundsError struct {
	Msg string
}

func (e *InvalidFundsError) Error() string {
	return "bootstrap: invalid funds: " + e.Msg
}

type InvalidWithdrawalError struct {
	Msg string
}

func (e *InvalidWithdrawalError) Error() string {
	return "bootstrap: invalid withdrawal: " + e.Msg
}

type StakingError struct {
	Msg string
}

func (e *StakingError) Error() string {
	return "bootstrap: staking: " + e.Msg
}

var (
	configKey  = []byte("bootstrap/config")
	stateKey   = []byte("bootstrap/state")
	userPrefix = []byte("bootstrap/users/")
)

func userKey(addr string) []byte {
	return append(append([]byte(nil), userPrefix...), addr...)
}

// Config is the auction configuration. Empty addresses are unset.
type Config struct {
	TokenAddress            string
	LockdropContractAddress string
	AstroportLPPool         string
	LPTokenAddress          string
	TokenLPStakingContract  string
	GeneratorContract       string
	AstroTokenAddress       string
	TokenRewards            types.Uint128
	TokenVestingDuration    uint64
	LPTokensVestingDuration uint64
	InitTimestamp           uint64
	UstDepositWindow        uint64
	TokenDepositWindow      uint64
	WithdrawalWindow        uint64
}

// State holds the auction totals and the two staking reward indices.
type State struct {
	TotalTokenDeposited          types.Uint128 `json:"total_token_deposited"`
	TotalUstDeposited            types.Uint128 `json:"total_ust_deposited"`
	LPSharesMinted               types.Uint128 `json:"lp_shares_minted"`
	LPSharesWithdrawn            types.Uint128 `json:"lp_shares_withdrawn"`
	AreStakedForSingleIncentives bool          `json:"are_staked_for_single_incentives"`
	AreStakedForDualIncentives   bool          `json:"are_staked_for_dual_incentives"`
	PoolInitTimestamp            uint64        `json:"pool_init_timestamp"`
	GlobalTokenRewardIndex       types.Decimal `json:"global_token_reward_index"`
	GlobalAstroRewardIndex       types.Decimal `json:"global_astro_reward_index"`
}

// UserInfo tracks one participant's deposits, entitlements and withdrawals.
type UserInfo struct {
	TokenDeposited             types.Uint128 `json:"token_deposited"`
	UstDeposited               types.Uint128 `json:"ust_deposited"`
	UstWithdrawnFlag           bool          `json:"ust_withdrawn_flag"`
	LPShares                   types.Uint128 `json:"lp_shares"`
	WithdrawnLPShares          types.Uint128 `json:"withdrawn_lp_shares"`
	TotalAuctionIncentives     types.Uint128 `json:"total_auction_incentives"`
	WithdrawnAuctionIncentives types.Uint128 `json:"withdrawn_auction_incentives"`
	WithdrawnTokenIncentives   types.Uint128 `json:"withdrawn_token_incentives"`
	WithdrawnAstroIncentives   types.Uint128 `json:"withdrawn_astro_incentives"`
	TokenRewardIndex           types.Decimal `json:"token_reward_index"`
	AstroRewardIndex           types.Decimal `json:"astro_reward_index"`
}

func loadConfig(state ado.State) (Config, error) {
	if state == nil {
		return Config{}, errNilState
	}
	var cfg Config
	ok, err := state.KVGet(configKey, &cfg)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Config{}, ErrNotInitialised
	}
	return cfg, nil
}

func storeConfig(state ado.State, cfg Config) error {
	if state == nil {
		return errNilState
	}
	return state.KVPut(configKey, cfg)
}

func loadState(state ado.State) (State, error) {
	if state == nil {
		return State{}, errNilState
	}
	var st State
	ok, err := state.KVGet(stateKey, &st)
	if err != nil {
		return State{}, err
	}
	if !ok {
		return State{}, ErrNotInitialised
	}
	return st, nil
}

func storeState(state ado.State, st State) error {
	if state == nil {
		return errNilState
	}
	return state.KVPut(stateKey, st)
}

// loadUser returns the stored record or a zero record for new participants.
func loadUser(state ado.State, addr string) (UserInfo, error) {
	if state == nil {
		return UserInfo{}, errNilState
	}
	var user UserInfo
	if _, err := state.KVGet(userKey(addr), &user); err != nil {
		return UserInfo{}, err
	}
	return user, nil
}

func storeUser(state ado.State, addr string, user UserInfo) error {
	if state == nil {
		return errNilState
	}
	return state.KVPut(userKey(addr), user)
}
