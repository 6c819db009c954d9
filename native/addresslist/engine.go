package addresslist

import (
	"andromeda/core/events"
	"andromeda/native/ado"
)

var permissionPrefix = []byte("addresslist/permission/")

func permissionKey(actor string) []byte {
	return append(append([]byte(nil), permissionPrefix...), actor...)
}

// Engine stores one permission per actor.
type Engine struct {
	state   ado.State
	base    *ado.Base
	emitter events.Emitter
}

func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
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

func (e *Engine) requireOperator(sender string) error {
	ok, err := e.base.IsOwnerOrOperator(sender)
	if err != nil {
		return err
	}
	if !ok {
		return ado.ErrUnauthorized
	}
	return nil
}

// put stores permission for actor without an authorization check; used at
// instantiation.
func (e *Engine) put(actor string, permission Permission) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	actor, err := normalizeActor(actor)
	if err != nil {
		return "", err
	}
	if err := permission.Validate(); err != nil {
		return "", err
	}
	if err := e.state.KVPut(permissionKey(actor), toStored(permission)); err != nil {
		return "", err
	}
	e.emit(events.ActorPermission{Actor: actor, Permission: permission.String()})
	return actor, nil
}

// Add sets or replaces the permission of actor. Owner or operators only.
func (e *Engine) Add(sender, actor string, permission Permission) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	if err := e.requireOperator(sender); err != nil {
		return "", err
	}
	return e.put(actor, permission)
}

// Remove deletes the permission of actor. Owner or operators only.
func (e *Engine) Remove(sender, actor string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.requireOperator(sender); err != nil {
		return err
	}
	if _, err := e.Permission(actor); err != nil {
		return err
	}
	if err := e.state.KVDelete(permissionKey(actor)); err != nil {
		return err
	}
	e.emit(events.ActorPermission{Actor: actor, Removed: true})
	return nil
}

// Permission returns the stored permission of actor or ErrActorNotFound.
func (e *Engine) Permission(actor string) (Permission, error) {
	if err := e.ready(); err != nil {
		return Permission{}, err
	}
	var stored storedPermission
	ok, err := e.state.KVGet(permissionKey(actor), &stored)
	if err != nil {
		return Permission{}, err
	}
	if !ok {
		return Permission{}, ErrActorNotFound
	}
	return stored.permission(), nil
}

// Includes reports whether actor has any stored permission.
func (e *Engine) Includes(actor string) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	var stored storedPermission
	return e.state.KVGet(permissionKey(actor), &stored)
}

// IsPermitted evaluates the permission of actor at now. Actors without an
// entry are permitted.
func (e *Engine) IsPermitted(actor string, now uint64) (bool, error) {
	permission, err := e.Permission(actor)
	switch {
	case err == ErrActorNotFound:
		return true, nil
	case err != nil:
		return false, err
	}
	return permission.Permits(now), nil
}
