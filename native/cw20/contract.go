package cw20

import (
	"strings"

	"andromeda/core/host"
	"andromeda/core/types"
	"andromeda/native/ado"
)

const (
	ContractName    = "crates.io:andromeda-cw20"
	ContractVersion = "0.1.0"
)

type InitialBalance struct {
	Address string        `json:"address"`
	Amount  types.Uint128 `json:"amount"`
}

type MinterInfo struct {
	Minter string         `json:"minter"`
	Cap    *types.Uint128 `json:"cap,omitempty"`
}

type InstantiateMsg struct {
	Name            string           `json:"name"`
	Symbol          string           `json:"symbol"`
	Decimals        uint8            `json:"decimals"`
	InitialBalances []InitialBalance `json:"initial_balances"`
	Mint            *MinterInfo      `json:"mint,omitempty"`
}

type ExecuteMsg struct {
	Transfer          *TransferMsg        `json:"transfer,omitempty"`
	Send              *SendMsg            `json:"send,omitempty"`
	IncreaseAllowance *AllowanceMsg       `json:"increase_allowance,omitempty"`
	DecreaseAllowance *AllowanceMsg       `json:"decrease_allowance,omitempty"`
	TransferFrom      *TransferFromMsg    `json:"transfer_from,omitempty"`
	SendFrom          *SendFromMsg        `json:"send_from,omitempty"`
	Mint              *MintMsg            `json:"mint,omitempty"`
	Burn              *BurnMsg            `json:"burn,omitempty"`
	AndrReceive       *types.AndromedaMsg `json:"andr_receive,omitempty"`
}

type AddressQuery struct {
	Address string `json:"address"`
}

type AllowanceQuery struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
}

type QueryMsg struct {
	Balance   *AddressQuery   `json:"balance,omitempty"`
	TokenInfo *struct{}       `json:"token_info,omitempty"`
	Allowance *AllowanceQuery `json:"allowance,omitempty"`
	Minter    *struct{}       `json:"minter,omitempty"`
}

// Contract is a fungible token following the CW20 wire format.
type Contract struct{}

func (Contract) Instantiate(deps host.Deps, env host.Env, info host.MessageInfo, raw []byte) (*host.Response, error) {
	var msg InstantiateMsg
	if err := host.DecodeMsg(raw, &msg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(msg.Symbol) == "" {
		return nil, ErrInvalidSymbol
	}
	if err := ado.New(deps.Store).Instantiate(ado.InstantiateInfo{
		ContractName: ContractName,
		Version:      ContractVersion,
		Owner:        info.Sender,
	}); err != nil {
		return nil, err
	}
	token := TokenInfo{Name: msg.Name, Symbol: msg.Symbol, Decimals: msg.Decimals}
	if msg.Mint != nil {
		minter := strings.TrimSpace(msg.Mint.Minter)
		if err := types.ValidateAddress(minter); err != nil {
			return nil, err
		}
		token.Minter = minter
		if msg.Mint.Cap != nil {
			token.HasCap = true
			token.Cap = *msg.Mint.Cap
		}
	}
	ledger := NewLedger(deps.Store)
	for _, initial := range msg.InitialBalances {
		addr := strings.TrimSpace(initial.Address)
		if err := types.ValidateAddress(addr); err != nil {
			return nil, err
		}
		supply, err := token.TotalSupply.Add(initial.Amount)
		if err != nil {
			return nil, err
		}
		token.TotalSupply = supply
		if err := ledger.credit(addr, initial.Amount); err != nil {
			return nil, err
		}
	}
	if token.HasCap && token.TotalSupply.Cmp(token.Cap) > 0 {
		return nil, ErrCapExceeded
	}
	if err := ledger.putInfo(token); err != nil {
		return nil, err
	}
	return host.NewResponse().
		AddAttribute("method", "instantiate").
		AddAttribute("type", "cw20"), nil
}

func (Contract) Execute(deps host.Deps, env host.Env, info host.MessageInfo, raw []byte) (*host.Response, error) {
	var msg ExecuteMsg
	if err := host.DecodeMsg(raw, &msg); err != nil {
		return nil, err
	}
	ledger := NewLedger(deps.Store)
	sender := info.Sender
	switch {
	case msg.Transfer != nil:
		if err := ledger.Transfer(sender, msg.Transfer.Recipient, msg.Transfer.Amount); err != nil {
			return nil, err
		}
		return host.NewResponse().
			AddAttribute("action", "transfer").
			AddAttribute("from", sender).
			AddAttribute("to", msg.Transfer.Recipient).
			AddAttribute("amount", msg.Transfer.Amount.String()), nil
	case msg.Send != nil:
		if err := ledger.Transfer(sender, msg.Send.Contract, msg.Send.Amount); err != nil {
			return nil, err
		}
		return sendResponse(sender, sender, *msg.Send)
	case msg.IncreaseAllowance != nil:
		allowance, err := ledger.IncreaseAllowance(sender, msg.IncreaseAllowance.Spender, msg.IncreaseAllowance.Amount)
		if err != nil {
			return nil, err
		}
		return allowanceResponse("increase_allowance", sender, msg.IncreaseAllowance.Spender, allowance), nil
	case msg.DecreaseAllowance != nil:
		allowance, err := ledger.DecreaseAllowance(sender, msg.DecreaseAllowance.Spender, msg.DecreaseAllowance.Amount)
		if err != nil {
			return nil, err
		}
		return allowanceResponse("decrease_allowance", sender, msg.DecreaseAllowance.Spender, allowance), nil
	case msg.TransferFrom != nil:
		from := msg.TransferFrom
		if err := ledger.TransferFrom(sender, from.Owner, from.Recipient, from.Amount); err != nil {
			return nil, err
		}
		return host.NewResponse().
			AddAttribute("action", "transfer_from").
			AddAttribute("from", from.Owner).
			AddAttribute("to", from.Recipient).
			AddAttribute("by", sender).
			AddAttribute("amount", from.Amount.String()), nil
	case msg.SendFrom != nil:
		from := msg.SendFrom
		if err := ledger.TransferFrom(sender, from.Owner, from.Contract, from.Amount); err != nil {
			return nil, err
		}
		return sendResponse(from.Owner, sender, SendMsg{Contract: from.Contract, Amount: from.Amount, Msg: from.Msg})
	case msg.Mint != nil:
		if err := ledger.Mint(sender, msg.Mint.Recipient, msg.Mint.Amount); err != nil {
			return nil, err
		}
		return host.NewResponse().
			AddAttribute("action", "mint").
			AddAttribute("to", msg.Mint.Recipient).
			AddAttribute("amount", msg.Mint.Amount.String()), nil
	case msg.Burn != nil:
		if err := ledger.Burn(sender, msg.Burn.Amount); err != nil {
			return nil, err
		}
		return host.NewResponse().
			AddAttribute("action", "burn").
			AddAttribute("from", sender).
			AddAttribute("amount", msg.Burn.Amount.String()), nil
	case msg.AndrReceive != nil:
		return ado.New(deps.Store).Receive(sender, *msg.AndrReceive)
	default:
		return nil, host.ErrUnknownVariant
	}
}

// sendResponse forwards the receive hook to the recipient contract. The hook
// sender is the token holder, not the spender.
func sendResponse(holder, by string, send SendMsg) (*host.Response, error) {
	hook, err := types.ExecuteContract(send.Contract, ReceiverExecuteMsg{Receive: ReceiveMsg{
		Sender: holder,
		Amount: send.Amount,
		Msg:    send.Msg,
	}}, nil)
	if err != nil {
		return nil, err
	}
	return host.NewResponse().
		AddAttribute("action", "send").
		AddAttribute("from", holder).
		AddAttribute("to", send.Contract).
		AddAttribute("by", by).
		AddAttribute("amount", send.Amount.String()).
		AddMessage(hook), nil
}

func allowanceResponse(action, owner, spender string, allowance types.Uint128) *host.Response {
	return host.NewResponse().
		AddAttribute("action", action).
		AddAttribute("owner", owner).
		AddAttribute("spender", spender).
		AddAttribute("allowance", allowance.String())
}

func (Contract) Query(deps host.Deps, env host.Env, raw []byte) ([]byte, error) {
	var msg QueryMsg
	if err := host.DecodeMsg(raw, &msg); err != nil {
		return nil, err
	}
	ledger := NewLedger(deps.Store)
	switch {
	case msg.Balance != nil:
		balance, err := ledger.Balance(strings.TrimSpace(msg.Balance.Address))
		if err != nil {
			return nil, err
		}
		return host.EncodeReply(BalanceResponse{Balance: balance})
	case msg.TokenInfo != nil:
		info, err := ledger.Info()
		if err != nil {
			return nil, err
		}
		return host.EncodeReply(TokenInfoResponse{
			Name:        info.Name,
			Symbol:      info.Symbol,
			Decimals:    info.Decimals,
			TotalSupply: info.TotalSupply,
		})
	case msg.Allowance != nil:
		allowance, err := ledger.Allowance(msg.Allowance.Owner, msg.Allowance.Spender)
		if err != nil {
			return nil, err
		}
		return host.EncodeReply(AllowanceResponse{Allowance: allowance})
	case msg.Minter != nil:
		info, err := ledger.Info()
		if err != nil {
			return nil, err
		}
		if info.Minter == "" {
			return host.EncodeReply(nil)
		}
		resp := MinterResponse{Minter: info.Minter}
		if info.HasCap {
			limit := info.Cap
			resp.Cap = &limit
		}
		return host.EncodeReply(resp)
	default:
		return nil, host.ErrUnknownVariant
	}
}

func (Contract) Migrate(deps host.Deps, env host.Env, raw []byte) (*host.Response, error) {
	return ado.HandleMigrate(deps.Store, ContractName, ContractVersion)
}
