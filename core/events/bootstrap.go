package events

import (
	"andromeda/core/types"
)

const (
	TypeBootstrapDeposit    = "bootstrap.deposit"
	TypeBootstrapWithdrawal = "bootstrap.withdrawal"
	TypeBootstrapLiquidity  = "bootstrap.liquidity_added"
	TypeBootstrapRewards    = "bootstrap.rewards_claimed"
)

// BootstrapDeposit records a token or UST deposit into the auction.
type BootstrapDeposit struct {
	User   string
	Asset  string
	Amount types.Uint128
}

func (BootstrapDeposit) EventType() string { return TypeBootstrapDeposit }

func (e BootstrapDeposit) Event() *types.Event {
	return &types.Event{
		Type: TypeBootstrapDeposit,
		Attributes: map[string]string{
			"user":   e.User,
			"asset":  normalizeDenom(e.Asset),
			"amount": e.Amount.String(),
		},
	}
}

type BootstrapWithdrawal struct {
	User   string
	Amount types.Uint128
}

func (BootstrapWithdrawal) EventType() string { return TypeBootstrapWithdrawal }

func (e BootstrapWithdrawal) Event() *types.Event {
	return &types.Event{
		Type: TypeBootstrapWithdrawal,
		Attributes: map[string]string{
			"user":   e.User,
			"amount": e.Amount.String(),
		},
	}
}

// BootstrapLiquidityAdded is emitted once the pool callback records the
// minted LP shares.
type BootstrapLiquidityAdded struct {
	LPSharesMinted types.Uint128
	Timestamp      uint64
}

func (BootstrapLiquidityAdded) EventType() string { return TypeBootstrapLiquidity }

func (e BootstrapLiquidityAdded) Event() *types.Event {
	return &types.Event{
		Type: TypeBootstrapLiquidity,
		Attributes: map[string]string{
			"lp_shares_minted": e.LPSharesMinted.String(),
			"timestamp":        uintToString(e.Timestamp),
		},
	}
}

type BootstrapRewardsClaimed struct {
	User        string
	TokenReward types.Uint128
	AstroReward types.Uint128
	LPShares    types.Uint128
}

func (BootstrapRewardsClaimed) EventType() string { return TypeBootstrapRewards }

func (e BootstrapRewardsClaimed) Event() *types.Event {
	return &types.Event{
		Type: TypeBootstrapRewards,
		Attributes: map[string]string{
			"user":         e.User,
			"token_reward": e.TokenReward.String(),
			"astro_reward": e.AstroReward.String(),
			"lp_shares":    e.LPShares.String(),
		},
	}
}
