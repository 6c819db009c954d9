package sessionkey

import (
	"strconv"
	"time"

	"andromeda/core/host"
	"andromeda/core/types"
	"andromeda/native/ado"
)

const (
	ContractName    = "crates.io:andromeda-gatekeeper-sessionkey"
	ContractVersion = "0.1.0"
)

type InstantiateMsg struct {
	LegacyOwner *string `json:"legacy_owner,omitempty"`
}

type ExecuteMsg struct {
	CreateSessionKey  *CreateSessionKeyMsg      `json:"create_session_key,omitempty"`
	DestroySessionKey *DestroySessionKeyMsg     `json:"destroy_session_key,omitempty"`
	UpdateLegacyOwner *ado.UpdateLegacyOwnerMsg `json:"update_legacy_owner,omitempty"`
	AndrReceive       *types.AndromedaMsg       `json:"andr_receive,omitempty"`
}

type CreateSessionKeyMsg struct {
	Address          string `json:"address"`
	MaxDuration      uint64 `json:"max_duration"`
	AdminPermissions bool   `json:"admin_permissions"`
}

type DestroySessionKeyMsg struct {
	Address string `json:"address"`
}

type QueryMsg struct {
	CanExecute  *CanExecuteQuery `json:"can_execute,omitempty"`
	SessionKey  *AddressQuery    `json:"session_key,omitempty"`
	LegacyOwner *struct{}        `json:"legacy_owner,omitempty"`
}

// CanExecuteQuery carries the message for future per-message checks; only
// the sender's key is consulted today.
type CanExecuteQuery struct {
	Sender  string             `json:"sender"`
	Message types.UniversalMsg `json:"message"`
}

type AddressQuery struct {
	Address string `json:"address"`
}

type CanExecuteResponse struct {
	CanExecute bool `json:"can_execute"`
}

// Contract is the session-key gatekeeper entry point.
type Contract struct{}

func engineFor(deps host.Deps, env host.Env) *Engine {
	engine := NewEngine()
	engine.SetState(deps.Store)
	engine.SetEmitter(deps.Emitter)
	blockTime := env.Block.Time
	engine.SetNowFunc(func() time.Time { return blockTime })
	return engine
}

func (Contract) Instantiate(deps host.Deps, env host.Env, info host.MessageInfo, raw []byte) (*host.Response, error) {
	var msg InstantiateMsg
	if err := host.DecodeMsg(raw, &msg); err != nil {
		return nil, err
	}
	legacy := ""
	if msg.LegacyOwner != nil {
		legacy = *msg.LegacyOwner
	}
	if err := ado.New(deps.Store).Instantiate(ado.InstantiateInfo{
		ContractName: ContractName,
		Version:      ContractVersion,
		Owner:        info.Sender,
		LegacyOwner:  legacy,
	}); err != nil {
		return nil, err
	}
	return host.NewResponse().
		AddAttribute("method", "instantiate").
		AddAttribute("type", "sessionkey"), nil
}

func (Contract) Execute(deps host.Deps, env host.Env, info host.MessageInfo, raw []byte) (*host.Response, error) {
	var msg ExecuteMsg
	if err := host.DecodeMsg(raw, &msg); err != nil {
		return nil, err
	}
	engine := engineFor(deps, env)
	switch {
	case msg.CreateSessionKey != nil:
		m := msg.CreateSessionKey
		key, err := engine.Create(info.Sender, m.Address, m.MaxDuration, m.AdminPermissions)
		if err != nil {
			return nil, err
		}
		return host.NewResponse().
			AddAttribute("action", "create_session_key").
			AddAttribute("address", key.Address).
			AddAttribute("expiration", strconv.FormatUint(key.Expiration, 10)), nil
	case msg.DestroySessionKey != nil:
		if err := engine.Destroy(info.Sender, msg.DestroySessionKey.Address); err != nil {
			return nil, err
		}
		return host.NewResponse().
			AddAttribute("action", "destroy_session_key").
			AddAttribute("address", msg.DestroySessionKey.Address), nil
	case msg.UpdateLegacyOwner != nil:
		return ado.New(deps.Store).UpdateLegacyOwner(info.Sender, msg.UpdateLegacyOwner.NewOwner)
	case msg.AndrReceive != nil:
		return ado.New(deps.Store).Receive(info.Sender, *msg.AndrReceive)
	default:
		return nil, host.ErrUnknownVariant
	}
}

func (Contract) Query(deps host.Deps, env host.Env, raw []byte) ([]byte, error) {
	var msg QueryMsg
	if err := host.DecodeMsg(raw, &msg); err != nil {
		return nil, err
	}
	engine := engineFor(deps, env)
	switch {
	case msg.CanExecute != nil:
		ok, err := engine.CanExecute(msg.CanExecute.Sender)
		if err != nil {
			return nil, err
		}
		return host.EncodeReply(CanExecuteResponse{CanExecute: ok})
	case msg.SessionKey != nil:
		key, err := engine.Get(msg.SessionKey.Address)
		if err != nil {
			return nil, err
		}
		return host.EncodeReply(key)
	case msg.LegacyOwner != nil:
		return ado.LegacyOwnerReply(ado.New(deps.Store), "No legacy owner")
	default:
		return nil, host.ErrUnknownVariant
	}
}

func (Contract) Migrate(deps host.Deps, env host.Env, raw []byte) (*host.Response, error) {
	return ado.HandleMigrate(deps.Store, ContractName, ContractVersion)
}
