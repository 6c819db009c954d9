package addresslist

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"andromeda/core/types"
)

var (
	errNilState = errors.New("addresslist engine: state not configured")

	// ErrActorNotFound is returned for actors without a stored permission.
	ErrActorNotFound = errors.New("addresslist: actor not found")
	// ErrEmptyPermission is returned when no permission variant is set.
	ErrEmptyPermission = errors.New("addresslist: permission must set exactly one variant")
)

// InvalidPermissionError rejects permissions the list cannot hold.
type InvalidPermissionError struct {
	Msg string
}

func (e *InvalidPermissionError) Error() string {
	return "addresslist: invalid permission: " + e.Msg
}

const contractPermissionMsg = "Contract permissions aren't allowed in the address list contract"

// Window bounds a permission. A nil Expiration never lapses.
type Window struct {
	Expiration *uint64 `json:"expiration,omitempty"`
}

func (w *Window) expired(now uint64) bool {
	return w != nil && w.Expiration != nil && now >= *w.Expiration
}

// Permission is a tagged union; exactly one variant is set. Contract
// permissions delegate to another contract and are refused here.
type Permission struct {
	Whitelisted *Window `json:"whitelisted,omitempty"`
	Blacklisted *Window `json:"blacklisted,omitempty"`
	Contract    *string `json:"contract,omitempty"`
}

// Whitelisted builds a whitelist permission expiring at expiration (unix
// seconds), or never when nil.
func Whitelisted(expiration *uint64) Permission {
	return Permission{Whitelisted: &Window{Expiration: expiration}}
}

// Blacklisted builds a blacklist permission.
func Blacklisted(expiration *uint64) Permission {
	return Permission{Blacklisted: &Window{Expiration: expiration}}
}

// Validate checks that exactly one local variant is set.
func (p Permission) Validate() error {
	set := 0
	for _, ok := range []bool{p.Whitelisted != nil, p.Blacklisted != nil, p.Contract != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return ErrEmptyPermission
	}
	if p.Contract != nil {
		return &InvalidPermissionError{Msg: contractPermissionMsg}
	}
	return nil
}

// Permits reports whether the actor holding p may act at now. A lapsed
// blacklist entry no longer blocks; a lapsed whitelist entry no longer admits.
func (p Permission) Permits(now uint64) bool {
	switch {
	case p.Whitelisted != nil:
		return !p.Whitelisted.expired(now)
	case p.Blacklisted != nil:
		return p.Blacklisted.expired(now)
	default:
		return false
	}
}

func (p Permission) String() string {
	var kind string
	var w *Window
	switch {
	case p.Whitelisted != nil:
		kind, w = "whitelisted", p.Whitelisted
	case p.Blacklisted != nil:
		kind, w = "blacklisted", p.Blacklisted
	case p.Contract != nil:
		return "contract:" + *p.Contract
	default:
		return "none"
	}
	if w.Expiration == nil {
		return kind
	}
	return kind + " until:" + strconv.FormatUint(*w.Expiration, 10)
}

// storedPermission is the rlp form of Permission.
type storedPermission struct {
	Blacklisted   bool
	HasExpiration bool
	Expiration    uint64
}

func toStored(p Permission) storedPermission {
	w := p.Whitelisted
	out := storedPermission{}
	if p.Blacklisted != nil {
		out.Blacklisted = true
		w = p.Blacklisted
	}
	if w != nil && w.Expiration != nil {
		out.HasExpiration = true
		out.Expiration = *w.Expiration
	}
	return out
}

func (s storedPermission) permission() Permission {
	var expiration *uint64
	if s.HasExpiration {
		v := s.Expiration
		expiration = &v
	}
	if s.Blacklisted {
		return Blacklisted(expiration)
	}
	return Whitelisted(expiration)
}

func normalizeActor(actor string) (string, error) {
	trimmed := strings.TrimSpace(actor)
	if err := types.ValidateAddress(trimmed); err != nil {
		return "", fmt.Errorf("addresslist: actor: %w", err)
	}
	return trimmed, nil
}
