package splitter

import (
	"time"

	"andromeda/core/events"
	"andromeda/core/types"
	"andromeda/native/ado"
)

var configKey = []byte("splitter/config")

// Engine pays fixed amounts to a list of recipients out of attached funds.
type Engine struct {
	state   ado.State
	base    *ado.Base
	emitter events.Emitter
	now     func() time.Time
}

func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}, now: time.Now}
}

func (e *Engine) SetState(state ado.State) {
	e.state = state
	e.base = ado.New(state)
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) SetNowFunc(now func() time.Time) {
	if now == nil {
		e.now = time.Now
		return
	}
	e.now = now
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

func (e *Engine) seconds() uint64 {
	return uint64(e.now().Unix())
}

// Configure writes the initial recipients. A non-nil lockTime freezes them
// for that many seconds.
func (e *Engine) Configure(recipients []Recipient, lockTime *uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	cleaned, err := validateRecipients(recipients)
	if err != nil {
		return err
	}
	cfg := Config{Recipients: cleaned}
	if lockTime != nil {
		if err := validateLockTime(*lockTime); err != nil {
			return err
		}
		cfg.Lock = e.seconds() + *lockTime
	}
	return e.state.KVPut(configKey, cfg)
}

// Config returns the stored recipients and lock.
func (e *Engine) Config() (Config, error) {
	if err := e.ready(); err != nil {
		return Config{}, err
	}
	var cfg Config
	ok, err := e.state.KVGet(configKey, &cfg)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Config{}, ErrNotConfigured
	}
	return cfg, nil
}

// unlocked loads the config for an owner update, refusing while locked.
func (e *Engine) unlocked(sender string) (Config, error) {
	if err := e.ready(); err != nil {
		return Config{}, err
	}
	if err := e.base.RequireOwner(sender); err != nil {
		return Config{}, err
	}
	cfg, err := e.Config()
	if err != nil {
		return Config{}, err
	}
	if e.seconds() < cfg.Lock {
		return Config{}, ErrLocked
	}
	return cfg, nil
}

// UpdateRecipients replaces the recipient list. Owner only, while unlocked.
func (e *Engine) UpdateRecipients(sender string, recipients []Recipient) error {
	cfg, err := e.unlocked(sender)
	if err != nil {
		return err
	}
	cleaned, err := validateRecipients(recipients)
	if err != nil {
		return err
	}
	cfg.Recipients = cleaned
	return e.state.KVPut(configKey, cfg)
}

// UpdateLock freezes the recipients for lockTime seconds from now.
func (e *Engine) UpdateLock(sender string, lockTime uint64) (uint64, error) {
	cfg, err := e.unlocked(sender)
	if err != nil {
		return 0, err
	}
	if err := validateLockTime(lockTime); err != nil {
		return 0, err
	}
	cfg.Lock = e.seconds() + lockTime
	if err := e.state.KVPut(configKey, cfg); err != nil {
		return 0, err
	}
	return cfg.Lock, nil
}

// Split plans the payout of funds sent by sender. Each recipient receives its
// configured amount of every denom that was sent; what is left goes back to
// sender in the first message.
func (e *Engine) Split(sender string, funds []types.Coin) ([]types.CosmosMsg, error) {
	if len(funds) == 0 {
		return nil, ErrNoFunds
	}
	if len(funds) > MaxSendCoins {
		return nil, ErrExceedsMaxAllowedCoins
	}
	cfg, err := e.Config()
	if err != nil {
		return nil, err
	}
	remaining := make(map[string]types.Uint128, len(funds))
	order := make([]string, 0, len(funds))
	for _, c := range funds {
		amount, err := types.CoinAmount(c)
		if err != nil {
			return nil, err
		}
		prev, seen := remaining[c.Denom]
		if !seen {
			order = append(order, c.Denom)
		}
		total, err := prev.Add(amount)
		if err != nil {
			return nil, err
		}
		remaining[c.Denom] = total
	}

	var payouts []types.CosmosMsg
	for _, r := range cfg.Recipients {
		var coins []types.Coin
		for _, c := range r.Coins {
			left, sent := remaining[c.Denom]
			if !sent {
				continue
			}
			amount, err := types.CoinAmount(c)
			if err != nil {
				return nil, err
			}
			rest, err := left.Sub(amount)
			if err != nil {
				return nil, &InsufficientFundsError{Recipient: r.Recipient, Denom: c.Denom}
			}
			remaining[c.Denom] = rest
			coins = append(coins, types.NewCoin(amount, c.Denom))
		}
		if len(coins) > 0 {
			payouts = append(payouts, types.BankSend(r.Recipient, coins))
		}
	}

	var refund []types.Coin
	for _, denom := range order {
		if left := remaining[denom]; !left.IsZero() {
			refund = append(refund, types.NewCoin(left, denom))
		}
	}
	msgs := make([]types.CosmosMsg, 0, len(payouts)+1)
	if len(refund) > 0 {
		msgs = append(msgs, types.BankSend(sender, refund))
	}
	msgs = append(msgs, payouts...)
	e.emit(events.SplitSent{Sender: sender, Recipients: len(payouts), Refund: types.CoinsString(refund)})
	return msgs, nil
}
