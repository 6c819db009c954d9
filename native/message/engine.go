package message

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"

	"andromeda/core/events"
	"andromeda/core/types"
	"andromeda/native/ado"
	"andromeda/native/common"
)

var errNilState = errors.New("message engine: state not configured")

// Engine manages the authorization table of a message gatekeeper.
type Engine struct {
	state   ado.State
	base    *ado.Base
	emitter events.Emitter
}

// NewEngine creates an engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState configures the contract state backing the table.
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

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) table() (table, error) {
	if e == nil || e.state == nil {
		return table{}, errNilState
	}
	return table{state: e.state}, nil
}

// Add stores auth unless a lookup with the same filter already matches
// something. It returns the assigned primary key.
func (e *Engine) Add(sender string, auth Authorization) (string, error) {
	t, err := e.table()
	if err != nil {
		return "", err
	}
	if err := e.base.RequireAdmin(sender); err != nil {
		return "", err
	}
	existing, err := t.find(auth, nil)
	if err == nil && len(existing) > 0 {
		return "", ErrAuthExists
	}
	if err != nil && !errors.Is(err, ErrNoSuchAuthorization) {
		return "", err
	}
	pk, err := t.nextKey()
	if err != nil {
		return "", err
	}
	if err := t.save(pk, auth); err != nil {
		return "", err
	}
	e.emit(events.AuthorizationAdded{Key: string(pk), Identifier: auth.Identifier})
	return string(pk), nil
}

// Remove deletes the single authorization matching filter.
func (e *Engine) Remove(sender string, filter Authorization) error {
	t, err := e.table()
	if err != nil {
		return err
	}
	if err := e.base.RequireAdmin(sender); err != nil {
		return err
	}
	found, err := t.find(filter, nil)
	if err != nil {
		return &NoSuchAuthorizationError{Loc: "remove lookup"}
	}
	switch len(found) {
	case 0:
		return &NoSuchAuthorizationError{Loc: "remove"}
	case 1:
		if err := t.remove(found[0].Key); err != nil {
			return err
		}
		e.emit(events.AuthorizationRemoved{Key: string(found[0].Key)})
		return nil
	default:
		return &MultipleMatchingAuthorizationsError{Vector: found}
	}
}

// RemoveAll deletes every authorization matching filter and reports how many
// were removed.
func (e *Engine) RemoveAll(sender string, filter Authorization) (int, error) {
	t, err := e.table()
	if err != nil {
		return 0, err
	}
	if err := e.base.RequireAdmin(sender); err != nil {
		return 0, err
	}
	found, err := t.find(filter, nil)
	if err != nil {
		return 0, err
	}
	for _, entry := range found {
		if err := t.remove(entry.Key); err != nil {
			return 0, err
		}
		e.emit(events.AuthorizationRemoved{Key: string(entry.Key)})
	}
	return len(found), nil
}

// Find runs the matcher. msg, when non-nil, is a concrete message body to
// match stored fields against.
func (e *Engine) Find(filter Authorization, msg json.RawMessage) (AuthorizationsResponse, error) {
	t, err := e.table()
	if err != nil {
		return AuthorizationsResponse{}, err
	}
	found, err := t.find(filter, msg)
	if err != nil {
		return AuthorizationsResponse{}, err
	}
	return AuthorizationsResponse{Authorizations: found}, nil
}

// Page applies start_after (exclusive, on the primary key) and a clamped limit
// to a lookup result.
func Page(resp AuthorizationsResponse, startAfter *string, limit *uint32) AuthorizationsResponse {
	size := common.PageLimit(limit)
	out := make([]Entry, 0, size)
	for _, entry := range resp.Authorizations {
		if startAfter != nil && bytes.Compare(entry.Key, []byte(*startAfter)) <= 0 {
			continue
		}
		if len(out) == size {
			break
		}
		out = append(out, entry)
	}
	return AuthorizationsResponse{Authorizations: out}
}

// CheckMsg returns the authorizations approving sender's msg. Only wasm
// execute and instantiate messages are matched; everything else yields an
// empty set.
func (e *Engine) CheckMsg(sender string, msg types.UniversalMsg) (AuthorizationsResponse, error) {
	if msg.Legacy == nil || msg.Legacy.Wasm == nil {
		return AuthorizationsResponse{}, nil
	}
	wasm := msg.Legacy.Wasm
	switch {
	case wasm.Execute != nil:
		contract := wasm.Execute.ContractAddr
		return e.checkWasm(&contract, sender, json.RawMessage(wasm.Execute.Msg), types.MsgNameExecuteContract)
	case wasm.Instantiate != nil:
		return e.checkWasm(nil, sender, json.RawMessage(wasm.Instantiate.Msg), types.MsgNameInstantiateContract)
	default:
		return AuthorizationsResponse{}, nil
	}
}

func (e *Engine) checkWasm(contract *string, sender string, body json.RawMessage, messageName string) (AuthorizationsResponse, error) {
	obj, err := types.DecodeObject(body)
	if err != nil {
		return AuthorizationsResponse{}, ado.ErrUnauthorized
	}
	if len(obj) == 0 {
		return AuthorizationsResponse{}, types.ErrNoExecuteContents
	}
	names := make([]string, 0, len(obj))
	for name := range obj {
		names = append(names, name)
	}
	sort.Strings(names)
	filter := Authorization{
		Actor:          stringPtr(sender),
		Contract:       contract,
		MessageName:    stringPtr(messageName),
		WasmactionName: stringPtr(names[0]),
	}
	return e.Find(filter, body)
}
