package sessionkey

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"andromeda/core/events"
	"andromeda/core/types"
	"andromeda/native/ado"
)

var (
	errNilState = errors.New("sessionkey engine: state not configured")

	// ErrSessionKeyNotFound is returned for addresses that never had a key or
	// whose key was destroyed.
	ErrSessionKeyNotFound = errors.New("sessionkey: session key not found")
	// ErrExpired is returned once block time reaches the key's expiration.
	ErrExpired = errors.New("Session key is expired")
)

var keyPrefix = []byte("sessionkey/")

// SessionKey grants an address temporary rights until Expiration (unix
// seconds, exclusive).
type SessionKey struct {
	Address          string `json:"address"`
	Expiration       uint64 `json:"expiration"`
	AdminPermissions bool   `json:"admin_permissions"`
}

// IsExpired reports whether now has reached the expiration.
func (k SessionKey) IsExpired(now time.Time) bool {
	return unixSeconds(now) >= k.Expiration
}

func unixSeconds(t time.Time) uint64 {
	if t.Unix() <= 0 {
		return 0
	}
	return uint64(t.Unix())
}

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

func storageKey(addr string) []byte {
	return append(append([]byte(nil), keyPrefix...), addr...)
}

// Engine manages the session keys of one account.
type Engine struct {
	state   ado.State
	base    *ado.Base
	emitter events.Emitter
	nowFn   func() time.Time
}

func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}, nowFn: time.Now}
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

// SetNowFunc overrides the clock. Passing nil restores time.Now.
func (e *Engine) SetNowFunc(now func() time.Time) {
	if now == nil {
		e.nowFn = time.Now
		return
	}
	e.nowFn = now
}

func (e *Engine) now() time.Time {
	if e == nil || e.nowFn == nil {
		return time.Now()
	}
	return e.nowFn()
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

// Create installs or replaces the key for address. Only admins may do so.
func (e *Engine) Create(sender, address string, maxDuration uint64, adminPermissions bool) (SessionKey, error) {
	if e == nil || e.state == nil {
		return SessionKey{}, errNilState
	}
	address = strings.TrimSpace(address)
	if err := types.ValidateAddress(address); err != nil {
		return SessionKey{}, err
	}
	if err := e.base.RequireAdmin(sender); err != nil {
		return SessionKey{}, err
	}
	key := SessionKey{
		Address:          address,
		Expiration:       saturatingAdd(unixSeconds(e.now()), maxDuration),
		AdminPermissions: adminPermissions,
	}
	if err := e.state.KVPut(storageKey(address), key); err != nil {
		return SessionKey{}, fmt.Errorf("sessionkey: store %s: %w", address, err)
	}
	e.emit(events.SessionKeyCreated{
		Address:          key.Address,
		Expiration:       key.Expiration,
		AdminPermissions: key.AdminPermissions,
	})
	return key, nil
}

// Get loads the key for address.
func (e *Engine) Get(address string) (SessionKey, error) {
	if e == nil || e.state == nil {
		return SessionKey{}, errNilState
	}
	var key SessionKey
	ok, err := e.state.KVGet(storageKey(address), &key)
	if err != nil {
		return SessionKey{}, err
	}
	if !ok {
		return SessionKey{}, ErrSessionKeyNotFound
	}
	return key, nil
}

// Destroy removes the key. A key may always destroy itself; anyone else must
// be an admin.
func (e *Engine) Destroy(sender, address string) error {
	key, err := e.Get(strings.TrimSpace(address))
	if err != nil {
		return err
	}
	if key.Address != sender {
		if err := e.base.RequireAdmin(sender); err != nil {
			return err
		}
	}
	if err := e.state.KVDelete(storageKey(key.Address)); err != nil {
		return err
	}
	e.emit(events.SessionKeyDestroyed{Address: key.Address})
	return nil
}

// CanExecute reports the key's admin permission, or ErrExpired once the key
// has lapsed.
func (e *Engine) CanExecute(sender string) (bool, error) {
	key, err := e.Get(strings.TrimSpace(sender))
	if err != nil {
		return false, err
	}
	if key.IsExpired(e.now()) {
		return false, ErrExpired
	}
	return key.AdminPermissions, nil
}
