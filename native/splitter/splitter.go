package splitter

import (
	"errors"
	"fmt"
	"strings"

	"andromeda/core/types"
)

const (
	// MaxRecipients bounds the recipient list.
	MaxRecipients = 100
	// MaxSendCoins bounds the number of denoms attached to one send.
	MaxSendCoins = 5

	minLockSeconds = 86_400
	maxLockSeconds = 31_536_000
)

var (
	errNilState = errors.New("splitter engine: state not configured")

	ErrLocked                 = errors.New("splitter: contract is locked")
	ErrInvalidLockTime        = errors.New("splitter: lock time must be between one day and one year")
	ErrEmptyRecipients        = errors.New("splitter: recipient list is empty")
	ErrTooManyRecipients      = errors.New("splitter: too many recipients")
	ErrDuplicateRecipient     = errors.New("splitter: duplicate recipient")
	ErrNoFunds                = errors.New("splitter: no funds attached")
	ErrExceedsMaxAllowedCoins = errors.New("splitter: too many coin denominations attached")
	ErrNotConfigured          = errors.New("splitter: not configured")
)

// InsufficientFundsError reports a recipient share the attached funds cannot
// cover.
type InsufficientFundsError struct {
	Recipient string
	Denom     string
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("splitter: insufficient %s for %s", e.Denom, e.Recipient)
}

// Recipient receives a fixed amount of each listed denom on every send.
type Recipient struct {
	Recipient string       `json:"recipient"`
	Coins     []types.Coin `json:"coins"`
}

// Config is the recipient list and the unix second until which it is frozen.
type Config struct {
	Recipients []Recipient `json:"recipients"`
	Lock       uint64      `json:"lock"`
}

func validateRecipients(recipients []Recipient) ([]Recipient, error) {
	if len(recipients) == 0 {
		return nil, ErrEmptyRecipients
	}
	if len(recipients) > MaxRecipients {
		return nil, ErrTooManyRecipients
	}
	seen := make(map[string]struct{}, len(recipients))
	out := make([]Recipient, 0, len(recipients))
	for _, r := range recipients {
		addr := strings.TrimSpace(r.Recipient)
		if err := types.ValidateAddress(addr); err != nil {
			return nil, err
		}
		if _, dup := seen[addr]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRecipient, addr)
		}
		seen[addr] = struct{}{}
		if len(r.Coins) == 0 {
			return nil, fmt.Errorf("splitter: %s has no coins", addr)
		}
		if err := types.ValidateCoins(r.Coins); err != nil {
			return nil, err
		}
		for _, c := range r.Coins {
			amount, _ := types.CoinAmount(c)
			if amount.IsZero() {
				return nil, fmt.Errorf("splitter: %s has a zero %s amount", addr, c.Denom)
			}
		}
		out = append(out, Recipient{Recipient: addr, Coins: types.CloneCoins(r.Coins)})
	}
	return out, nil
}

func validateLockTime(seconds uint64) error {
	if seconds < minLockSeconds || seconds > maxLockSeconds {
		return ErrInvalidLockTime
	}
	return nil
}
