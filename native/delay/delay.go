package delay

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"andromeda/core/events"
	"andromeda/core/types"
	"andromeda/native/ado"
)

var (
	errNilState = errors.New("delay engine: state not configured")

	// ErrTransactionNotFound is returned for unknown or already settled
	// transaction numbers.
	ErrTransactionNotFound = errors.New("delay: transaction not found")
)

// DelayInProgressError is returned when a transaction is completed before
// its delay has elapsed.
type DelayInProgressError struct {
	TxNumber uint64
}

func (e *DelayInProgressError) Error() string {
	return fmt.Sprintf("Delay still in progress for tx number %d", e.TxNumber)
}

var (
	queuePrefix = []byte("delay/queue/")
	counterKey  = []byte("delay/counter")
)

// DelayedMsg is a queued chain message that becomes executable at
// DelayExpiration (unix seconds).
type DelayedMsg struct {
	DelayExpiration uint64          `json:"delay_expiration"`
	Message         types.CosmosMsg `json:"message"`
}

// Ready reports whether the delay has elapsed at now.
func (m DelayedMsg) Ready(now time.Time) bool {
	return unixSeconds(now) >= m.DelayExpiration
}

// TxEntry pairs a transaction number with its queued message; it encodes as
// [txnumber, delayed_msg].
type TxEntry struct {
	TxNumber uint64
	Delayed  DelayedMsg
}

func (e TxEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{e.TxNumber, e.Delayed})
}

func (e *TxEntry) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("delay: entry must be a [txnumber, delayed_msg] pair")
	}
	if err := json.Unmarshal(pair[0], &e.TxNumber); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &e.Delayed)
}

// queued is the stored form; the message is kept as its JSON encoding.
type queued struct {
	DelayExpiration uint64
	Message         []byte
}

func (q queued) delayed() (DelayedMsg, error) {
	out := DelayedMsg{DelayExpiration: q.DelayExpiration}
	if err := json.Unmarshal(q.Message, &out.Message); err != nil {
		return DelayedMsg{}, fmt.Errorf("delay: decode queued message: %w", err)
	}
	return out, nil
}

func queueKey(id uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], id)
	return append(append([]byte(nil), queuePrefix...), buf[:]...)
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

// Engine runs the delay queue of one account.
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

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return nil
}

func (e *Engine) nextID() (uint64, error) {
	var counter uint64
	if _, err := e.state.KVGet(counterKey, &counter); err != nil {
		return 0, err
	}
	counter++
	if err := e.state.KVPut(counterKey, counter); err != nil {
		return 0, err
	}
	return counter, nil
}

// Begin queues msg for delaySeconds and returns its transaction number.
func (e *Engine) Begin(sender string, msg types.CosmosMsg, delaySeconds uint64) (uint64, DelayedMsg, error) {
	if err := e.ready(); err != nil {
		return 0, DelayedMsg{}, err
	}
	if err := e.base.RequireAdmin(sender); err != nil {
		return 0, DelayedMsg{}, err
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return 0, DelayedMsg{}, fmt.Errorf("delay: encode message: %w", err)
	}
	id, err := e.nextID()
	if err != nil {
		return 0, DelayedMsg{}, err
	}
	expiration := saturatingAdd(unixSeconds(e.now()), delaySeconds)
	if err := e.state.KVPut(queueKey(id), queued{DelayExpiration: expiration, Message: body}); err != nil {
		return 0, DelayedMsg{}, err
	}
	e.emit(events.DelayedTx{Kind: events.TypeDelayedTxQueued, ID: id, Expiration: expiration})
	return id, DelayedMsg{DelayExpiration: expiration, Message: msg}, nil
}

// Get returns the queued transaction id.
func (e *Engine) Get(id uint64) (DelayedMsg, error) {
	if err := e.ready(); err != nil {
		return DelayedMsg{}, err
	}
	var q queued
	ok, err := e.state.KVGet(queueKey(id), &q)
	if err != nil {
		return DelayedMsg{}, err
	}
	if !ok {
		return DelayedMsg{}, fmt.Errorf("%w: %d", ErrTransactionNotFound, id)
	}
	return q.delayed()
}

// Cancel drops a queued transaction. Only admins may cancel.
func (e *Engine) Cancel(sender string, id uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.base.RequireAdmin(sender); err != nil {
		return err
	}
	if _, err := e.Get(id); err != nil {
		return err
	}
	if err := e.state.KVDelete(queueKey(id)); err != nil {
		return err
	}
	e.emit(events.DelayedTx{Kind: events.TypeDelayedTxCancelled, ID: id})
	return nil
}

// Complete removes a transaction whose delay has elapsed and returns its
// message for dispatch. Anyone may complete.
func (e *Engine) Complete(id uint64) (types.CosmosMsg, error) {
	delayed, err := e.Get(id)
	if err != nil {
		return types.CosmosMsg{}, err
	}
	if !delayed.Ready(e.now()) {
		return types.CosmosMsg{}, &DelayInProgressError{TxNumber: id}
	}
	if err := e.state.KVDelete(queueKey(id)); err != nil {
		return types.CosmosMsg{}, err
	}
	e.emit(events.DelayedTx{Kind: events.TypeDelayedTxCompleted, ID: id})
	return delayed.Message, nil
}

// All lists every queued transaction in ascending id order.
func (e *Engine) All() ([]TxEntry, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	out := []TxEntry{}
	err := e.state.KVIterate(queuePrefix, func(key []byte, decode func(out interface{}) error) (bool, error) {
		var q queued
		if err := decode(&q); err != nil {
			return false, err
		}
		delayed, err := q.delayed()
		if err != nil {
			return false, err
		}
		id := binary.BigEndian.Uint64(key[len(queuePrefix):])
		out = append(out, TxEntry{TxNumber: id, Delayed: delayed})
		return true, nil
	})
	return out, err
}
