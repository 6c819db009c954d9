package account

import (
	"strconv"

	"andromeda/core/host"
	"andromeda/core/types"
	"andromeda/native/ado"
)

const (
	ContractName    = "obi-proxy-contract"
	ContractVersion = "0.1.0"
)

type InstantiateMsg struct {
	Account         UserAccount `json:"account"`
	StartingUSDDebt *uint64     `json:"starting_usd_debt,omitempty"`
}

type ExecuteMsg struct {
	ProposeUpdateOwner      *ProposeUpdateOwnerMsg      `json:"propose_update_owner,omitempty"`
	ChangeOwnerUpdatesDelay *ChangeOwnerUpdatesDelayMsg `json:"change_owner_updates_delay,omitempty"`
	Execute                 *ExecuteUniversalMsg        `json:"execute,omitempty"`
	UpdateLegacyOwner       *ado.UpdateLegacyOwnerMsg   `json:"update_legacy_owner,omitempty"`
	AndrReceive             *types.AndromedaMsg         `json:"andr_receive,omitempty"`
}

type ProposeUpdateOwnerMsg struct {
	NewOwner string `json:"new_owner"`
}

type ChangeOwnerUpdatesDelayMsg struct {
	NewDelay uint64 `json:"new_delay"`
}

type ExecuteUniversalMsg struct {
	UniversalMsg types.UniversalMsg `json:"universal_msg"`
}

type QueryMsg struct {
	CanExecute          *CanExecuteQuery `json:"can_execute,omitempty"`
	UpdateDelay         *struct{}        `json:"update_delay,omitempty"`
	LegacyOwner         *struct{}        `json:"legacy_owner,omitempty"`
	GatekeeperContracts *struct{}        `json:"gatekeeper_contracts,omitempty"`
}

// CanExecuteQuery asks whether Address may send Msg through the account.
// Funds are accepted for compatibility; the attached funds are read from Msg.
type CanExecuteQuery struct {
	Address string             `json:"address"`
	Msg     types.UniversalMsg `json:"msg"`
	Funds   []types.Coin       `json:"funds"`
}

type UpdateDelayResponse struct {
	UpdateDelaySecs uint64 `json:"update_delay_secs"`
}

// Contract is the user account entry point.
type Contract struct{}

func engineFor(deps host.Deps, env host.Env) *Engine {
	engine := NewEngine()
	engine.SetState(deps.Store)
	engine.SetQuerier(deps.Querier)
	engine.SetEmitter(deps.Emitter)
	engine.SetSelf(env.Contract)
	return engine
}

func (Contract) Instantiate(deps host.Deps, env host.Env, info host.MessageInfo, raw []byte) (*host.Response, error) {
	var msg InstantiateMsg
	if err := host.DecodeMsg(raw, &msg); err != nil {
		return nil, err
	}
	if err := msg.Account.Validate(); err != nil {
		return nil, err
	}
	if err := ado.New(deps.Store).Instantiate(ado.InstantiateInfo{
		ContractName: ContractName,
		Version:      ContractVersion,
		Owner:        info.Sender,
		LegacyOwner:  trimmed(msg.Account.LegacyOwner),
	}); err != nil {
		return nil, err
	}
	if err := storeRecord(deps.Store, toRecord(msg.Account, msg.StartingUSDDebt)); err != nil {
		return nil, err
	}
	return host.NewResponse().
		AddAttribute("method", "instantiate").
		AddAttribute("type", "user-account"), nil
}

func (Contract) Execute(deps host.Deps, env host.Env, info host.MessageInfo, raw []byte) (*host.Response, error) {
	var msg ExecuteMsg
	if err := host.DecodeMsg(raw, &msg); err != nil {
		return nil, err
	}
	engine := engineFor(deps, env)
	switch {
	case msg.Execute != nil:
		return engine.Execute(info.Sender, msg.Execute.UniversalMsg)
	case msg.ProposeUpdateOwner != nil:
		return engine.ProposeUpdateOwner(info.Sender, msg.ProposeUpdateOwner.NewOwner)
	case msg.ChangeOwnerUpdatesDelay != nil:
		newDelay := msg.ChangeOwnerUpdatesDelay.NewDelay
		if err := engine.ChangeOwnerUpdatesDelay(info.Sender, newDelay); err != nil {
			return nil, err
		}
		return host.NewResponse().
			AddAttribute("action", "change_owner_updates_delay").
			AddAttribute("new_delay", strconv.FormatUint(newDelay, 10)), nil
	case msg.UpdateLegacyOwner != nil:
		return engine.UpdateLegacyOwner(info.Sender, msg.UpdateLegacyOwner.NewOwner)
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
		resp, err := engine.CanExecute(msg.CanExecute.Address, []types.UniversalMsg{msg.CanExecute.Msg})
		if err != nil {
			return nil, err
		}
		return host.EncodeReply(resp)
	case msg.UpdateDelay != nil:
		secs, err := engine.UpdateDelay()
		if err != nil {
			return nil, err
		}
		return host.EncodeReply(UpdateDelayResponse{UpdateDelaySecs: secs})
	case msg.LegacyOwner != nil:
		return ado.LegacyOwnerReply(ado.New(deps.Store), "No owner")
	case msg.GatekeeperContracts != nil:
		resp, err := engine.Gatekeepers()
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
