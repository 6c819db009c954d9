package cw20

import (
	"encoding/json"
	"fmt"

	"andromeda/core/host"
	"andromeda/core/types"
)

type TransferMsg struct {
	Recipient string        `json:"recipient"`
	Amount    types.Uint128 `json:"amount"`
}

// SendMsg moves tokens to a contract and invokes its receive hook with Msg.
type SendMsg struct {
	Contract string        `json:"contract"`
	Amount   types.Uint128 `json:"amount"`
	Msg      []byte        `json:"msg"`
}

type AllowanceMsg struct {
	Spender string        `json:"spender"`
	Amount  types.Uint128 `json:"amount"`
}

type TransferFromMsg struct {
	Owner     string        `json:"owner"`
	Recipient string        `json:"recipient"`
	Amount    types.Uint128 `json:"amount"`
}

type SendFromMsg struct {
	Owner    string        `json:"owner"`
	Contract string        `json:"contract"`
	Amount   types.Uint128 `json:"amount"`
	Msg      []byte        `json:"msg"`
}

type MintMsg struct {
	Recipient string        `json:"recipient"`
	Amount    types.Uint128 `json:"amount"`
}

type BurnMsg struct {
	Amount types.Uint128 `json:"amount"`
}

// ReceiveMsg is delivered to a contract that is sent tokens. Sender is the
// original holder; the calling contract is the token itself.
type ReceiveMsg struct {
	Sender string        `json:"sender"`
	Amount types.Uint128 `json:"amount"`
	Msg    []byte        `json:"msg"`
}

// ReceiverExecuteMsg wraps ReceiveMsg the way receiving contracts expect it.
type ReceiverExecuteMsg struct {
	Receive ReceiveMsg `json:"receive"`
}

type BalanceResponse struct {
	Balance types.Uint128 `json:"balance"`
}

type AllowanceResponse struct {
	Allowance types.Uint128 `json:"allowance"`
}

type TokenInfoResponse struct {
	Name        string        `json:"name"`
	Symbol      string        `json:"symbol"`
	Decimals    uint8         `json:"decimals"`
	TotalSupply types.Uint128 `json:"total_supply"`
}

type MinterResponse struct {
	Minter string         `json:"minter"`
	Cap    *types.Uint128 `json:"cap"`
}

// Transfer builds a transfer of amount tokens to recipient.
func Transfer(token, recipient string, amount types.Uint128) (types.CosmosMsg, error) {
	return types.ExecuteContract(token, ExecuteMsg{Transfer: &TransferMsg{Recipient: recipient, Amount: amount}}, nil)
}

// Send builds a send to contract with hook encoded as the receive payload.
func Send(token, contract string, amount types.Uint128, hook interface{}) (types.CosmosMsg, error) {
	body, err := json.Marshal(hook)
	if err != nil {
		return types.CosmosMsg{}, fmt.Errorf("cw20: encode hook: %w", err)
	}
	return types.ExecuteContract(token, ExecuteMsg{Send: &SendMsg{Contract: contract, Amount: amount, Msg: body}}, nil)
}

// IncreaseAllowance builds an approval of amount for spender.
func IncreaseAllowance(token, spender string, amount types.Uint128) (types.CosmosMsg, error) {
	return types.ExecuteContract(token, ExecuteMsg{IncreaseAllowance: &AllowanceMsg{Spender: spender, Amount: amount}}, nil)
}

// TransferFrom builds a transfer on behalf of owner.
func TransferFrom(token, owner, recipient string, amount types.Uint128) (types.CosmosMsg, error) {
	return types.ExecuteContract(token, ExecuteMsg{TransferFrom: &TransferFromMsg{Owner: owner, Recipient: recipient, Amount: amount}}, nil)
}

// Mint builds a mint; the calling contract must be the minter.
func Mint(token, recipient string, amount types.Uint128) (types.CosmosMsg, error) {
	return types.ExecuteContract(token, ExecuteMsg{Mint: &MintMsg{Recipient: recipient, Amount: amount}}, nil)
}

// QueryBalance asks token for the balance of addr.
func QueryBalance(q host.Querier, token, addr string) (types.Uint128, error) {
	var resp BalanceResponse
	req := QueryMsg{Balance: &AddressQuery{Address: addr}}
	if err := host.QueryJSON(q, token, req, &resp); err != nil {
		return types.Uint128{}, fmt.Errorf("cw20: balance of %s at %s: %w", addr, token, err)
	}
	return resp.Balance, nil
}
