package spendlimit

import (
	"time"

	"andromeda/core/host"
	"andromeda/core/types"
	"andromeda/native/ado"
)

const (
	ContractName    = "crates.io:andromeda-gatekeeper-spendlimit"
	ContractVersion = "0.1.0"
)

type InstantiateMsg struct {
	LegacyOwner           *string                     `json:"legacy_owner,omitempty"`
	PermissionedAddresses []PermissionedAddressParams `json:"permissioned_addresses"`
	AssetUnifierContract  string                      `json:"asset_unifier_contract"`
}

type ExecuteMsg struct {
	UpdateLegacyOwner                   *ado.UpdateLegacyOwnerMsg `json:"update_legacy_owner,omitempty"`
	UpsertBeneficiary                   *UpsertBeneficiaryMsg     `json:"upsert_beneficiary,omitempty"`
	UpsertPermissionedAddress           *UpsertPermissionedMsg    `json:"upsert_permissioned_address,omitempty"`
	RmPermissionedAddress               *RmPermissionedMsg        `json:"rm_permissioned_address,omitempty"`
	UpdatePermissionedAddressSpendLimit *UpdateSpendLimitMsg      `json:"update_permissioned_address_spend_limit,omitempty"`
	RecordSpend                         *RecordSpendMsg           `json:"record_spend,omitempty"`
	AndrReceive                         *types.AndromedaMsg       `json:"andr_receive,omitempty"`
}

type UpsertBeneficiaryMsg struct {
	NewBeneficiary PermissionedAddressParams `json:"new_beneficiary"`
}

type UpsertPermissionedMsg struct {
	NewPermissionedAddress PermissionedAddressParams `json:"new_permissioned_address"`
}

type RmPermissionedMsg struct {
	DoomedPermissionedAddress string `json:"doomed_permissioned_address"`
}

type UpdateSpendLimitMsg struct {
	PermissionedAddress string    `json:"permissioned_address"`
	NewSpendLimits      CoinLimit `json:"new_spend_limits"`
	IsBeneficiary       string    `json:"is_beneficiary"`
}

// RecordSpendMsg deducts funds spent by Sender.
type RecordSpendMsg struct {
	Sender string       `json:"sender"`
	Funds  []types.Coin `json:"funds"`
}

type QueryMsg struct {
	LegacyOwner          *struct{}    `json:"legacy_owner,omitempty"`
	PermissionedAddresss *struct{}    `json:"permissioned_addresss,omitempty"`
	CanSpend             *CanSpendMsg `json:"can_spend,omitempty"`
}

type CanSpendMsg struct {
	Sender string            `json:"sender"`
	Funds  []types.Coin      `json:"funds"`
	Msgs   []types.CosmosMsg `json:"msgs,omitempty"`
}

// PermissionedAddresssResponse lists every permissioned address.
type PermissionedAddresssResponse struct {
	PermissionedAddresses []PermissionedAddressParams `json:"permissioned_addresses"`
}

// Contract is the spend-limit gatekeeper entry point.
type Contract struct{}

func engineFor(deps host.Deps, env host.Env) *Engine {
	engine := NewEngine()
	engine.SetState(deps.Store)
	engine.SetQuerier(deps.Querier)
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
	engine := engineFor(deps, env)
	if err := engine.SetUnifier(msg.AssetUnifierContract); err != nil {
		return nil, err
	}
	for _, params := range msg.PermissionedAddresses {
		if err := engine.Upsert(info.Sender, params, false); err != nil {
			return nil, err
		}
	}
	return host.NewResponse().AddAttribute("method", "instantiate"), nil
}

func (Contract) Execute(deps host.Deps, env host.Env, info host.MessageInfo, raw []byte) (*host.Response, error) {
	var msg ExecuteMsg
	if err := host.DecodeMsg(raw, &msg); err != nil {
		return nil, err
	}
	engine := engineFor(deps, env)
	switch {
	case msg.UpdateLegacyOwner != nil:
		return ado.New(deps.Store).UpdateLegacyOwner(info.Sender, msg.UpdateLegacyOwner.NewOwner)
	case msg.UpsertBeneficiary != nil:
		if err := engine.Upsert(info.Sender, msg.UpsertBeneficiary.NewBeneficiary, true); err != nil {
			return nil, err
		}
		return host.NewResponse().AddAttribute("action", "add_permissioned_address"), nil
	case msg.UpsertPermissionedAddress != nil:
		if err := engine.Upsert(info.Sender, msg.UpsertPermissionedAddress.NewPermissionedAddress, false); err != nil {
			return nil, err
		}
		return host.NewResponse().AddAttribute("action", "add_permissioned_address"), nil
	case msg.RmPermissionedAddress != nil:
		if err := engine.Remove(info.Sender, msg.RmPermissionedAddress.DoomedPermissionedAddress); err != nil {
			return nil, err
		}
		return host.NewResponse().AddAttribute("action", "rm_permissioned_address"), nil
	case msg.UpdatePermissionedAddressSpendLimit != nil:
		m := msg.UpdatePermissionedAddressSpendLimit
		if err := engine.UpdateSpendLimit(info.Sender, m.PermissionedAddress, m.NewSpendLimits, m.IsBeneficiary); err != nil {
			return nil, err
		}
		return host.NewResponse().AddAttribute("action", "update_permissioned_address_spend_limit"), nil
	case msg.RecordSpend != nil:
		spent, err := engine.RecordSpend(info.Sender, msg.RecordSpend.Sender, msg.RecordSpend.Funds)
		if err != nil {
			return nil, err
		}
		return host.NewResponse().
			AddAttribute("action", "record_spend").
			AddAttribute("spent", types.CoinsString(spent.Coins)).
			AddAttributes(spent.Attributes()...), nil
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
	case msg.LegacyOwner != nil:
		return ado.LegacyOwnerReply(ado.New(deps.Store), "No legacy owner")
	case msg.PermissionedAddresss != nil:
		list, err := engine.PermissionedAddresses()
		if err != nil {
			return nil, err
		}
		return host.EncodeReply(PermissionedAddresssResponse{PermissionedAddresses: list})
	case msg.CanSpend != nil:
		resp, err := engine.CanSpend(msg.CanSpend.Sender, msg.CanSpend.Funds)
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
