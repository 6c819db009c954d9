package message

import (
	"strconv"

	"andromeda/core/host"
	"andromeda/core/types"
	"andromeda/native/ado"
)

const (
	ContractName    = "crates.io:andromeda-gatekeeper"
	ContractVersion = "0.1.0"
)

type InstantiateMsg struct {
	LegacyOwner *string `json:"legacy_owner,omitempty"`
}

type ExecuteMsg struct {
	AddAuthorization            *AddAuthorizationMsg      `json:"add_authorization,omitempty"`
	RemoveAuthorization         *RemoveAuthorizationMsg   `json:"remove_authorization,omitempty"`
	RmAllMatchingAuthorizations *RemoveAuthorizationMsg   `json:"rm_all_matching_authorizations,omitempty"`
	UpdateLegacyOwner           *ado.UpdateLegacyOwnerMsg `json:"update_legacy_owner,omitempty"`
	AndrReceive                 *types.AndromedaMsg       `json:"andr_receive,omitempty"`
}

type AddAuthorizationMsg struct {
	NewAuthorization Authorization `json:"new_authorization"`
}

type RemoveAuthorizationMsg struct {
	AuthorizationToRemove Authorization `json:"authorization_to_remove"`
}

type QueryMsg struct {
	Authorizations   *AuthorizationsQuery   `json:"authorizations,omitempty"`
	CheckTransaction *CheckTransactionQuery `json:"check_transaction,omitempty"`
}

// AuthorizationsQuery filters by whatever is set; identifier overrides the
// rest.
type AuthorizationsQuery struct {
	Identifier     *uint16 `json:"identifier,omitempty"`
	Actor          *string `json:"actor,omitempty"`
	TargetContract *string `json:"target_contract,omitempty"`
	MessageName    *string `json:"message_name,omitempty"`
	WasmactionName *string `json:"wasmaction_name,omitempty"`
	Fields         []Field `json:"fields,omitempty"`
	Limit          *uint32 `json:"limit,omitempty"`
	StartAfter     *string `json:"start_after,omitempty"`
}

func (q AuthorizationsQuery) filter() Authorization {
	f := Authorization{
		Actor:          q.Actor,
		Contract:       q.TargetContract,
		MessageName:    q.MessageName,
		WasmactionName: q.WasmactionName,
		Fields:         q.Fields,
	}
	if q.Identifier != nil {
		f.Identifier = *q.Identifier
	}
	return f
}

type CheckTransactionQuery struct {
	Msg    types.UniversalMsg `json:"msg"`
	Sender string             `json:"sender"`
}

// Contract is the message gatekeeper entry point.
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
	if err := deps.Store.KVPut(counterKey, uint64(0)); err != nil {
		return nil, err
	}
	return host.NewResponse().
		AddAttribute("method", "instantiate").
		AddAttribute("type", "gatekeeper"), nil
}

func (Contract) Execute(deps host.Deps, env host.Env, info host.MessageInfo, raw []byte) (*host.Response, error) {
	var msg ExecuteMsg
	if err := host.DecodeMsg(raw, &msg); err != nil {
		return nil, err
	}
	engine := engineFor(deps)
	switch {
	case msg.AddAuthorization != nil:
		key, err := engine.Add(info.Sender, msg.AddAuthorization.NewAuthorization)
		if err != nil {
			return nil, err
		}
		return host.NewResponse().
			AddAttribute("action", "add_authorization").
			AddAttribute("key", key), nil
	case msg.RemoveAuthorization != nil:
		if err := engine.Remove(info.Sender, msg.RemoveAuthorization.AuthorizationToRemove); err != nil {
			return nil, err
		}
		return host.NewResponse().AddAttribute("action", "remove_authorization"), nil
	case msg.RmAllMatchingAuthorizations != nil:
		n, err := engine.RemoveAll(info.Sender, msg.RmAllMatchingAuthorizations.AuthorizationToRemove)
		if err != nil {
			return nil, err
		}
		return host.NewResponse().
			AddAttribute("action", "rm_all_matching_authorizations").
			AddAttribute("removed", strconv.Itoa(n)), nil
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
	engine := engineFor(deps)
	switch {
	case msg.Authorizations != nil:
		q := msg.Authorizations
		resp, err := engine.Find(q.filter(), nil)
		if err != nil {
			return nil, err
		}
		return host.EncodeReply(Page(resp, q.StartAfter, q.Limit))
	case msg.CheckTransaction != nil:
		if err := msg.CheckTransaction.Msg.Validate(); err != nil {
			return nil, err
		}
		resp, err := engine.CheckMsg(msg.CheckTransaction.Sender, msg.CheckTransaction.Msg)
		if err != nil {
			return nil, err
		}
		return host.EncodeReply(resp)
	default:
		return nil, host.ErrUnknownVariant
	}
}

func (Contract) Migrate(deps host.Deps, env host.Env, raw []byte) (*host.Response, error) {
	return ado.HandleMigrate(deps.Store, ContractName, ContractVersion)
}
