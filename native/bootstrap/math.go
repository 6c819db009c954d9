package bootstrap

import (
	"math"

	"andromeda/core/types"
)

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// tokenDepositOpen reports whether now lies in [init, init+token window].
func tokenDepositOpen(now uint64, cfg Config) bool {
	return now >= cfg.InitTimestamp && now <= saturatingAdd(cfg.InitTimestamp, cfg.TokenDepositWindow)
}

// ustDepositOpen reports whether now lies in [init, init+UST window].
func ustDepositOpen(now uint64, cfg Config) bool {
	return now >= cfg.InitTimestamp && now <= saturatingAdd(cfg.InitTimestamp, cfg.UstDepositWindow)
}

// windowsClosed is true before the auction starts and once the UST deposit
// and withdrawal windows have both elapsed.
func windowsClosed(now uint64, cfg Config) bool {
	openedTill := saturatingAdd(saturatingAdd(cfg.InitTimestamp, cfg.UstDepositWindow), cfg.WithdrawalWindow)
	return now > openedTill || now < cfg.InitTimestamp
}

// allowedWithdrawalPercent is the share of a user's UST deposit that may be
// withdrawn at now: 100% while deposits are open, 50% in the first half of
// the withdrawal window, then linearly down to 0% at its end.
func allowedWithdrawalPercent(now uint64, cfg Config) (types.Decimal, error) {
	depositEnd := saturatingAdd(cfg.InitTimestamp, cfg.UstDepositWindow)
	if now <= depositEnd {
		return types.OneDecimal(), nil
	}
	half := cfg.WithdrawalWindow / 2
	midpoint := saturatingAdd(depositEnd, half)
	if now <= midpoint {
		return types.DecimalPercent(50), nil
	}
	final := saturatingAdd(midpoint, half)
	if now < final {
		// 50% * left / span
		left := final - now
		return types.DecimalFromRatio(types.NewUint128(left), types.NewUint128(2*(final-midpoint)))
	}
	return types.ZeroDecimal(), nil
}

// averageShare is (user tokens / total tokens + user UST / total UST) / 2.
// A side the user never deposited on contributes zero.
func averageShare(state State, user UserInfo) (types.Decimal, error) {
	tokenShare := types.ZeroDecimal()
	if !user.TokenDeposited.IsZero() {
		share, err := types.DecimalFromRatio(user.TokenDeposited, state.TotalTokenDeposited)
		if err != nil {
			return types.Decimal{}, err
		}
		tokenShare = share
	}
	ustShare := types.ZeroDecimal()
	if !user.UstDeposited.IsZero() {
		share, err := types.DecimalFromRatio(user.UstDeposited, state.TotalUstDeposited)
		if err != nil {
			return types.Decimal{}, err
		}
		ustShare = share
	}
	total, err := tokenShare.Add(ustShare)
	if err != nil {
		return types.Decimal{}, err
	}
	return total.DivUint64(2)
}

// userLPShares is the user's part of the minted LP shares. Until both sides
// of the auction hold deposits the stored value is kept.
func userLPShares(state State, user UserInfo) (types.Uint128, error) {
	if state.TotalTokenDeposited.IsZero() || state.TotalUstDeposited.IsZero() {
		return user.LPShares, nil
	}
	share, err := averageShare(state, user)
	if err != nil {
		return types.Uint128{}, err
	}
	return share.MulFloor(state.LPSharesMinted)
}

// auctionRewardForUser is the user's part of the auction incentives.
func auctionRewardForUser(state State, user UserInfo, totalRewards types.Uint128) (types.Uint128, error) {
	share, err := averageShare(state, user)
	if err != nil {
		return types.Uint128{}, err
	}
	return share.MulFloor(totalRewards)
}

// vestedLess returns total * elapsed / duration - withdrawn, or
// total - withdrawn once elapsed reaches duration.
func vestedLess(total, withdrawn types.Uint128, elapsed, duration uint64) (types.Uint128, error) {
	if elapsed >= duration {
		return total.Sub(withdrawn)
	}
	fraction, err := types.DecimalFromRatio(types.NewUint128(elapsed), types.NewUint128(duration))
	if err != nil {
		return types.Uint128{}, err
	}
	vested, err := fraction.MulFloor(total)
	if err != nil {
		return types.Uint128{}, err
	}
	return vested.Sub(withdrawn)
}

// withdrawableLPShares applies the LP vesting schedule from pool launch.
func withdrawableLPShares(now uint64, cfg Config, state State, user UserInfo) (types.Uint128, error) {
	if state.PoolInitTimestamp == 0 {
		return types.ZeroUint128(), nil
	}
	elapsed := saturatingSub(now, state.PoolInitTimestamp)
	return vestedLess(user.LPShares, user.WithdrawnLPShares, elapsed, cfg.LPTokensVestingDuration)
}

// withdrawableAuctionReward applies the incentive vesting schedule from pool
// launch.
func withdrawableAuctionReward(now uint64, cfg Config, state State, user UserInfo) (types.Uint128, error) {
	if user.WithdrawnAuctionIncentives.Cmp(user.TotalAuctionIncentives) == 0 || state.PoolInitTimestamp == 0 {
		return types.ZeroUint128(), nil
	}
	elapsed := saturatingSub(now, state.PoolInitTimestamp)
	return vestedLess(user.TotalAuctionIncentives, user.WithdrawnAuctionIncentives, elapsed, cfg.TokenVestingDuration)
}

// stakedShares is the LP balance the contract still holds for participants.
func (s State) stakedShares() types.Uint128 {
	return s.LPSharesMinted.SaturatingSub(s.LPSharesWithdrawn)
}

// accrueIndex adds claimed / staked shares to a global index. Nothing is
// accrued while no shares are staked.
func accrueIndex(index types.Decimal, claimed, staked types.Uint128) (types.Decimal, error) {
	if staked.IsZero() {
		return index, nil
	}
	increment, err := types.DecimalFromRatio(claimed, staked)
	if err != nil {
		return types.Decimal{}, err
	}
	return index.Add(increment)
}

func (s *State) accrueTokenRewards(claimed types.Uint128) error {
	next, err := accrueIndex(s.GlobalTokenRewardIndex, claimed, s.stakedShares())
	if err != nil {
		return err
	}
	s.GlobalTokenRewardIndex = next
	return nil
}

func (s *State) accrueAstroRewards(claimed types.Uint128) error {
	next, err := accrueIndex(s.GlobalAstroRewardIndex, claimed, s.stakedShares())
	if err != nil {
		return err
	}
	s.GlobalAstroRewardIndex = next
	return nil
}

// pendingReward is shares * global - shares * user. The caller moves the
// user index up to global afterwards.
func pendingReward(global, user types.Decimal, shares types.Uint128) (types.Uint128, error) {
	accrued, err := global.MulFloor(shares)
	if err != nil {
		return types.Uint128{}, err
	}
	settled, err := user.MulFloor(shares)
	if err != nil {
		return types.Uint128{}, err
	}
	return accrued.Sub(settled)
}

func (u UserInfo) stakedShares() types.Uint128 {
	return u.LPShares.SaturatingSub(u.WithdrawnLPShares)
}

// claimTokenReward returns the token staking reward owed to u and settles
// its index.
func (u *UserInfo) claimTokenReward(state State) (types.Uint128, error) {
	reward, err := pendingReward(state.GlobalTokenRewardIndex, u.TokenRewardIndex, u.stakedShares())
	if err != nil {
		return types.Uint128{}, err
	}
	u.TokenRewardIndex = state.GlobalTokenRewardIndex
	return reward, nil
}

func (u *UserInfo) claimAstroReward(state State) (types.Uint128, error) {
	reward, err := pendingReward(state.GlobalAstroRewardIndex, u.AstroRewardIndex, u.stakedShares())
	if err != nil {
		return types.Uint128{}, err
	}
	u.AstroRewardIndex = state.GlobalAstroRewardIndex
	return reward, nil
}

// settleEntitlements fills in the LP share and incentive totals the first
// time they can be computed.
func (u *UserInfo) settleEntitlements(cfg Config, state State) error {
	if u.LPShares.IsZero() {
		shares, err := userLPShares(state, *u)
		if err != nil {
			return err
		}
		u.LPShares = shares
	}
	if u.TotalAuctionIncentives.IsZero() {
		reward, err := auctionRewardForUser(state, *u, cfg.TokenRewards)
		if err != nil {
			return err
		}
		u.TotalAuctionIncentives = reward
	}
	return nil
}
