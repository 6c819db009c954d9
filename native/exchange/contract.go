package exchange

import (
	"encoding/json"
	"fmt"

	"andromeda/core/host"
	"andromeda/core/types"
	"andromeda/native/addresslist"
	"andromeda/native/ado"
	"andromeda/native/common"
	"andromeda/native/cw20"
)

const (
	ContractName    = "crates.io:andromeda-cw20-exchange"
	ContractVersion = "0.1.0"
)

type InstantiateMsg struct {
	TokenAddress string  `json:"token_address"`
	AddressList  *string `json:"address_list,omitempty"`
}

type AssetMsg struct {
	Asset Asset `json:"asset"`
}

type PurchaseMsg struct {
	Recipient *string `json:"recipient,omitempty"`
}

type ExecuteMsg struct {
	CancelSale  *AssetMsg           `json:"cancel_sale,omitempty"`
	Purchase    *PurchaseMsg        `json:"purchase,omitempty"`
	Receive     *cw20.ReceiveMsg    `json:"receive,omitempty"`
	AndrReceive *types.AndromedaMsg `json:"andr_receive,omitempty"`
}

type StartSaleMsg struct {
	Asset        Asset         `json:"asset"`
	ExchangeRate types.Uint128 `json:"exchange_rate"`
}

// HookMsg is carried in the payload of a cw20 send to this contract.
type HookMsg struct {
	StartSale *StartSaleMsg `json:"start_sale,omitempty"`
	Purchase  *PurchaseMsg  `json:"purchase,omitempty"`
}

type SaleAssetsQuery struct {
	StartAfter *string `json:"start_after,omitempty"`
	Limit      *uint32 `json:"limit,omitempty"`
}

type QueryMsg struct {
	Sale         *AssetMsg        `json:"sale,omitempty"`
	TokenAddress *struct{}        `json:"token_address,omitempty"`
	SaleAssets   *SaleAssetsQuery `json:"sale_assets,omitempty"`
}

type SaleResponse struct {
	Sale *Sale `json:"sale"`
}

type TokenAddressResponse struct {
	Address string `json:"address"`
}

type SaleAssetsResponse struct {
	Assets []Asset `json:"assets"`
}

// Contract sells a cw20 token for native coins or other cw20 tokens.
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
	}); err != nil {
		return nil, err
	}
	list := ""
	if msg.AddressList != nil {
		list = *msg.AddressList
	}
	if err := engineFor(deps).Configure(msg.TokenAddress, list); err != nil {
		return nil, err
	}
	return host.NewResponse().
		AddAttribute("method", "instantiate").
		AddAttribute("type", "cw20-exchange"), nil
}

func (Contract) Execute(deps host.Deps, env host.Env, info host.MessageInfo, raw []byte) (*host.Response, error) {
	var msg ExecuteMsg
	if err := host.DecodeMsg(raw, &msg); err != nil {
		return nil, err
	}
	engine := engineFor(deps)
	switch {
	case msg.CancelSale != nil:
		return cancelSale(engine, info.Sender, msg.CancelSale.Asset)
	case msg.Purchase != nil:
		if len(info.Funds) != 1 {
			return nil, &InvalidFundsError{Msg: "Must send exactly one coin"}
		}
		coin := info.Funds[0]
		amount, err := types.CoinAmount(coin)
		if err != nil {
			return nil, err
		}
		return purchase(deps, engine, info.Sender, msg.Purchase.Recipient, NativeAsset(coin.Denom), amount)
	case msg.Receive != nil:
		return receive(deps, engine, info.Sender, *msg.Receive)
	case msg.AndrReceive != nil:
		return ado.New(deps.Store).Receive(info.Sender, *msg.AndrReceive)
	default:
		return nil, host.ErrUnknownVariant
	}
}

// receive handles a cw20 send. token is the cw20 contract that called us.
func receive(deps host.Deps, engine *Engine, token string, rcv cw20.ReceiveMsg) (*host.Response, error) {
	if rcv.Amount.IsZero() {
		return nil, &InvalidFundsError{Msg: "Cannot send a 0 amount"}
	}
	var hook HookMsg
	if err := json.Unmarshal(rcv.Msg, &hook); err != nil {
		return nil, fmt.Errorf("exchange: decode hook: %w", err)
	}
	switch {
	case hook.StartSale != nil:
		start := hook.StartSale
		if _, err := engine.StartSale(rcv.Sender, token, rcv.Amount, start.Asset, start.ExchangeRate); err != nil {
			return nil, err
		}
		return host.NewResponse().
			AddAttribute("action", "start_sale").
			AddAttribute("asset", start.Asset.Key()).
			AddAttribute("rate", start.ExchangeRate.String()).
			AddAttribute("amount", rcv.Amount.String()), nil
	case hook.Purchase != nil:
		return purchase(deps, engine, rcv.Sender, hook.Purchase.Recipient, Cw20Asset(token), rcv.Amount)
	default:
		return nil, host.ErrUnknownVariant
	}
}

func purchase(deps host.Deps, engine *Engine, purchaser string, recipient *string, asset Asset, sent types.Uint128) (*host.Response, error) {
	list, err := engine.AddressList()
	if err != nil {
		return nil, err
	}
	if list != "" {
		permitted, err := addresslist.QueryPermitted(deps.Querier, list, purchaser)
		if err != nil {
			return nil, err
		}
		if !permitted {
			return nil, ado.ErrUnauthorized
		}
	}
	to := ""
	if recipient != nil {
		to = *recipient
	}
	receipt, err := engine.Purchase(purchaser, to, asset, sent)
	if err != nil {
		return nil, err
	}
	token, err := engine.TokenAddress()
	if err != nil {
		return nil, err
	}
	owner, err := ado.New(deps.Store).Owner()
	if err != nil {
		return nil, err
	}
	deliver, err := cw20.Transfer(token, receipt.Recipient, receipt.Purchased)
	if err != nil {
		return nil, err
	}
	resp := host.NewResponse().
		AddAttribute("action", "purchase").
		AddAttribute("purchaser", purchaser).
		AddAttribute("recipient", receipt.Recipient).
		AddAttribute("amount", receipt.Purchased.String()).
		AddAttribute("refund", receipt.Refund.String()).
		AddMessage(deliver)
	payout, err := payAsset(asset, owner, receipt.Proceeds)
	if err != nil {
		return nil, err
	}
	resp.AddMessage(payout)
	if !receipt.Refund.IsZero() {
		refund, err := payAsset(asset, purchaser, receipt.Refund)
		if err != nil {
			return nil, err
		}
		resp.AddMessage(refund)
	}
	return resp, nil
}

func payAsset(asset Asset, to string, amount types.Uint128) (types.CosmosMsg, error) {
	if asset.Native != nil {
		return types.BankSend(to, []types.Coin{types.NewCoin(amount, *asset.Native)}), nil
	}
	return cw20.Transfer(*asset.Cw20, to, amount)
}

func cancelSale(engine *Engine, sender string, asset Asset) (*host.Response, error) {
	returned, err := engine.CancelSale(sender, asset)
	if err != nil {
		return nil, err
	}
	token, err := engine.TokenAddress()
	if err != nil {
		return nil, err
	}
	refund, err := cw20.Transfer(token, sender, returned)
	if err != nil {
		return nil, err
	}
	return host.NewResponse().
		AddAttribute("action", "cancel_sale").
		AddAttribute("asset", asset.Key()).
		AddAttribute("returned", returned.String()).
		AddMessage(refund), nil
}

func (Contract) Query(deps host.Deps, env host.Env, raw []byte) ([]byte, error) {
	var msg QueryMsg
	if err := host.DecodeMsg(raw, &msg); err != nil {
		return nil, err
	}
	engine := engineFor(deps)
	switch {
	case msg.Sale != nil:
		asset := msg.Sale.Asset
		if err := asset.Validate(); err != nil {
			return nil, err
		}
		sale, ok, err := engine.Sale(asset)
		if err != nil {
			return nil, err
		}
		if !ok {
			return host.EncodeReply(SaleResponse{})
		}
		return host.EncodeReply(SaleResponse{Sale: &sale})
	case msg.TokenAddress != nil:
		token, err := engine.TokenAddress()
		if err != nil {
			return nil, err
		}
		return host.EncodeReply(TokenAddressResponse{Address: token})
	case msg.SaleAssets != nil:
		startAfter := ""
		if msg.SaleAssets.StartAfter != nil {
			startAfter = *msg.SaleAssets.StartAfter
		}
		assets, err := engine.SaleAssets(startAfter, common.PageLimit(msg.SaleAssets.Limit))
		if err != nil {
			return nil, err
		}
		if assets == nil {
			assets = []Asset{}
		}
		return host.EncodeReply(SaleAssetsResponse{Assets: assets})
	default:
		return nil, host.ErrUnknownVariant
	}
}

func (Contract) Migrate(deps host.Deps, env host.Env, raw []byte) (*host.Response, error) {
	return ado.HandleMigrate(deps.Store, ContractName, ContractVersion)
}
