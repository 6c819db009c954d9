package addresslist

import (
	"andromeda/core/host"
	"andromeda/core/types"
	"andromeda/native/ado"
)

const (
	ContractName    = "crates.io:andromeda-address-list"
	ContractVersion = "0.1.0"
)

type ActorPermission struct {
	Actor      string     `json:"actor"`
	Permission Permission `json:"permission"`
}

type InstantiateMsg struct {
	ActorPermission *ActorPermission `json:"actor_permission,omitempty"`
	Operators       []string         `json:"operators,omitempty"`
}

type ActorMsg struct {
	Actor string `json:"actor"`
}

type ExecuteMsg struct {
	AddActorPermission    *ActorPermission    `json:"add_actor_permission,omitempty"`
	RemoveActorPermission *ActorMsg           `json:"remove_actor_permission,omitempty"`
	AndrReceive           *types.AndromedaMsg `json:"andr_receive,omitempty"`
}

type QueryMsg struct {
	IncludesActor   *ActorMsg `json:"includes_actor,omitempty"`
	ActorPermission *ActorMsg `json:"actor_permission,omitempty"`
	IsPermitted     *ActorMsg `json:"is_permitted,omitempty"`
}

type IncludesActorResponse struct {
	Included bool `json:"included"`
}

type ActorPermissionResponse struct {
	Permission Permission `json:"permission"`
}

type IsPermittedResponse struct {
	Permitted bool `json:"permitted"`
}

// Contract keeps a whitelist/blacklist of actors for other contracts to
// consult.
type Contract struct{}

func engineFor(deps host.Deps) *Engine {
	engine := NewEngine()
	engine.SetState(deps.Store)
	engine.SetEmitter(deps.Emitter)
	return engine
}

func (Contract) Instantiate(deps host.Deps, env host.Env, info host.MessageInfo, raw []byte) (*host.Response, error) {
	var msg InstantiateMsg
	if err := host.DecodeMsg(raw, &msg); err != nil {
		return nil, err
	}
	if err := ado.New(deps.Store).Instantiate(ado.InstantiateInfo{
		ContractName: ContractName,
		Version:      ContractVersion,
		Owner:        info.Sender,
		Operators:    msg.Operators,
	}); err != nil {
		return nil, err
	}
	if msg.ActorPermission != nil {
		if _, err := engineFor(deps).put(msg.ActorPermission.Actor, msg.ActorPermission.Permission); err != nil {
			return nil, err
		}
	}
	return host.NewResponse().
		AddAttribute("method", "instantiate").
		AddAttribute("type", "address-list"), nil
}

func (Contract) Execute(deps host.Deps, env host.Env, info host.MessageInfo, raw []byte) (*host.Response, error) {
	var msg ExecuteMsg
	if err := host.DecodeMsg(raw, &msg); err != nil {
		return nil, err
	}
	engine := engineFor(deps)
	switch {
	case msg.AddActorPermission != nil:
		add := msg.AddActorPermission
		actor, err := engine.Add(info.Sender, add.Actor, add.Permission)
		if err != nil {
			return nil, err
		}
		return host.NewResponse().
			AddAttribute("action", "add_actor_permission").
			AddAttribute("actor", actor).
			AddAttribute("permission", add.Permission.String()), nil
	case msg.RemoveActorPermission != nil:
		actor := msg.RemoveActorPermission.Actor
		if err := engine.Remove(info.Sender, actor); err != nil {
			return nil, err
		}
		return host.NewResponse().
			AddAttribute("action", "remove_actor_permission").
			AddAttribute("actor", actor), nil
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
	engine := engineFor(deps)
	switch {
	case msg.IncludesActor != nil:
		included, err := engine.Includes(msg.IncludesActor.Actor)
		if err != nil {
			return nil, err
		}
		return host.EncodeReply(IncludesActorResponse{Included: included})
	case msg.ActorPermission != nil:
		permission, err := engine.Permission(msg.ActorPermission.Actor)
		if err != nil {
			return nil, err
		}
		return host.EncodeReply(ActorPermissionResponse{Permission: permission})
	case msg.IsPermitted != nil:
		permitted, err := engine.IsPermitted(msg.IsPermitted.Actor, env.Seconds())
		if err != nil {
			return nil, err
		}
		return host.EncodeReply(IsPermittedResponse{Permitted: permitted})
	default:
		return nil, host.ErrUnknownVariant
	}
}

func (Contract) Migrate(deps host.Deps, env host.Env, raw []byte) (*host.Response, error) {
	return ado.HandleMigrate(deps.Store, ContractName, ContractVersion)
}

// QueryPermitted asks the address list at list whether actor may act now.
func QueryPermitted(q host.Querier, list, actor string) (bool, error) {
	var resp IsPermittedResponse
	if err := host.QueryJSON(q, list, QueryMsg{IsPermitted: &ActorMsg{Actor: actor}}, &resp); err != nil {
		return false, err
	}
	return resp.Permitted, nil
}
