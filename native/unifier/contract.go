package unifier

import (
	"andromeda/core/host"
	"andromeda/core/types"
	"andromeda/native/ado"
	"andromeda/native/sourced"
)

const (
	ContractName    = "crates.io:andromeda-asset-unifier"
	ContractVersion = "0.1.0"
)

type InstantiateMsg struct {
	HomeNetwork          string         `json:"home_network"`
	LegacyOwner          *string        `json:"legacy_owner,omitempty"`
	UnifiedPriceContract *string        `json:"unified_price_contract,omitempty"`
	PairContracts        []PairContract `json:"pair_contracts,omitempty"`
}

type ExecuteMsg struct {
	UpdateLegacyOwner   *ado.UpdateLegacyOwnerMsg `json:"update_legacy_owner,omitempty"`
	UpdatePairContracts *UpdatePairContractsMsg   `json:"update_pair_contracts,omitempty"`
	AndrReceive         *types.AndromedaMsg       `json:"andr_receive,omitempty"`
}

type UpdatePairContractsMsg struct {
	PairContracts []PairContract `json:"pair_contracts"`
}

type QueryMsg struct {
	LegacyOwner   *struct{}               `json:"legacy_owner,omitempty"`
	UnifyAssets   *sourced.UnifyAssetsMsg `json:"unify_assets,omitempty"`
	PairContracts *struct{}               `json:"pair_contracts,omitempty"`
}

// PairContractsResponse lists the registry.
type PairContractsResponse struct {
	PairContracts []PairContract `json:"pair_contracts"`
}

// Contract is the asset unifier entry point.
type Contract struct{}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (Contract) Instantiate(deps host.Deps, env host.Env, info host.MessageInfo, raw []byte) (*host.Response, error) {
	var msg InstantiateMsg
	if err := host.DecodeMsg(raw, &msg); err != nil {
		return nil, err
	}
	base := ado.New(deps.Store)
	if err := base.Instantiate(ado.InstantiateInfo{
		ContractName: ContractName,
		Version:      ContractVersion,
		Owner:        info.Sender,
		LegacyOwner:  optional(msg.LegacyOwner),
	}); err != nil {
		return nil, err
	}
	engine := NewEngine(deps.Store, deps.Querier)
	if err := engine.Setup(msg.HomeNetwork, optional(msg.UnifiedPriceContract), msg.PairContracts); err != nil {
		return nil, err
	}
	return host.NewResponse().
		AddAttribute("method", "instantiate").
		AddAttribute("home_network", msg.HomeNetwork), nil
}

func (Contract) Execute(deps host.Deps, env host.Env, info host.MessageInfo, raw []byte) (*host.Response, error) {
	var msg ExecuteMsg
	if err := host.DecodeMsg(raw, &msg); err != nil {
		return nil, err
	}
	base := ado.New(deps.Store)
	switch {
	case msg.UpdateLegacyOwner != nil:
		return base.UpdateLegacyOwner(info.Sender, msg.UpdateLegacyOwner.NewOwner)
	case msg.UpdatePairContracts != nil:
		if err := base.RequireAdmin(info.Sender); err != nil {
			return nil, err
		}
		if err := NewEngine(deps.Store, deps.Querier).SetPairs(msg.UpdatePairContracts.PairContracts); err != nil {
			return nil, err
		}
		return host.NewResponse().AddAttribute("action", "update_pair_contracts"), nil
	case msg.AndrReceive != nil:
		return base.Receive(info.Sender, *msg.AndrReceive)
	default:
		return nil, host.ErrUnknownVariant
	}
}

func (Contract) Query(deps host.Deps, env host.Env, raw []byte) ([]byte, error) {
	var msg QueryMsg
	if err := host.DecodeMsg(raw, &msg); err != nil {
		return nil, err
	}
	engine := NewEngine(deps.Store, deps.Querier)
	switch {
	case msg.LegacyOwner != nil:
		return ado.LegacyOwnerReply(ado.New(deps.Store), "No owner")
	case msg.UnifyAssets != nil:
		resp, err := engine.UnifyAssets(msg.UnifyAssets.TargetAsset, msg.UnifyAssets.Assets, msg.UnifyAssets.AssetsAreTargetAmount)
		if err != nil {
			return nil, err
		}
		return host.EncodeReply(resp)
	case msg.PairContracts != nil:
		pairs, err := engine.Pairs()
		if err != nil {
			return nil, err
		}
		return host.EncodeReply(PairContractsResponse{PairContracts: pairs})
	default:
		return nil, host.ErrUnknownVariant
	}
}

func (Contract) Migrate(deps host.Deps, env host.Env, raw []byte) (*host.Response, error) {
	return ado.HandleMigrate(deps.Store, ContractName, ContractVersion)
}
