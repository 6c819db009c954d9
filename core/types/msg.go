package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	wasmvmtypes "github.com/CosmWasm/wasmvm/types"
)

// CosmosMsg is the CosmWasm outbound message union.
type CosmosMsg = wasmvmtypes.CosmosMsg

const (
	MsgNameExecuteContract     = "MsgExecuteContract"
	MsgNameInstantiateContract = "MsgInstantiateContract"
	MsgNameMigrateContract     = "MsgMigrateContract"
	MsgNameSend                = "MsgSend"
	MsgNameDelegate            = "MsgDelegate"
	MsgNameUndelegate          = "MsgUndelegate"
	MsgNameRedelegate          = "MsgBeginRedelegate"
)

var (
	// ErrNotObject reports a message body that is not a JSON object.
	ErrNotObject = errors.New("types: message is not a JSON object")
	// ErrNoExecuteContents reports an execute body with no variant key.
	ErrNoExecuteContents = errors.New("types: no execute message contents")
	// ErrTooManyVariants reports an execute body with more than one variant key.
	ErrTooManyVariants = errors.New("types: message has more than one variant")
)

// AndromedaMsg carries the ADO base messages every contract accepts through
// andr_receive.
type AndromedaMsg struct {
	UpdateOwner     *UpdateOwnerMsg     `json:"update_owner,omitempty"`
	UpdateOperators *UpdateOperatorsMsg `json:"update_operators,omitempty"`
}

type UpdateOwnerMsg struct {
	Address string `json:"address"`
}

type UpdateOperatorsMsg struct {
	Operators []string `json:"operators"`
}

// UniversalMsg is either an ADO-level message or a plain chain message. The
// variant tags are PascalCase on the wire.
type UniversalMsg struct {
	Andromeda *AndromedaMsg `json:"Andromeda,omitempty"`
	Legacy    *CosmosMsg    `json:"Legacy,omitempty"`
}

// Validate requires exactly one variant.
func (m UniversalMsg) Validate() error {
	if (m.Andromeda == nil) == (m.Legacy == nil) {
		return fmt.Errorf("types: universal message must set exactly one of Andromeda or Legacy")
	}
	return nil
}

// ExecuteContract builds a wasm execute message with a JSON-encoded body.
func ExecuteContract(contract string, msg interface{}, funds []Coin) (CosmosMsg, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return CosmosMsg{}, fmt.Errorf("encode execute msg for %s: %w", contract, err)
	}
	return CosmosMsg{Wasm: &wasmvmtypes.WasmMsg{Execute: &wasmvmtypes.ExecuteMsg{
		ContractAddr: contract,
		Msg:          body,
		Funds:        CloneCoins(funds),
	}}}, nil
}

// BankSend builds a bank transfer.
func BankSend(to string, amount []Coin) CosmosMsg {
	return CosmosMsg{Bank: &wasmvmtypes.BankMsg{Send: &wasmvmtypes.SendMsg{
		ToAddress: to,
		Amount:    CloneCoins(amount),
	}}}
}

// MessageName returns the chain message type name used by authorizations, or
// "" for variants without one.
func MessageName(msg CosmosMsg) string {
	switch {
	case msg.Wasm != nil && msg.Wasm.Execute != nil:
		return MsgNameExecuteContract
	case msg.Wasm != nil && msg.Wasm.Instantiate != nil:
		return MsgNameInstantiateContract
	case msg.Wasm != nil && msg.Wasm.Migrate != nil:
		return MsgNameMigrateContract
	case msg.Bank != nil && msg.Bank.Send != nil:
		return MsgNameSend
	case msg.Staking != nil && msg.Staking.Delegate != nil:
		return MsgNameDelegate
	case msg.Staking != nil && msg.Staking.Undelegate != nil:
		return MsgNameUndelegate
	case msg.Staking != nil && msg.Staking.Redelegate != nil:
		return MsgNameRedelegate
	default:
		return ""
	}
}

// DecodeObject decodes a JSON object preserving the raw value of each key.
func DecodeObject(raw []byte) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrNotObject
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotObject, err)
	}
	return obj, nil
}

// Variant splits an externally tagged message {"name": body} into its tag and
// body.
func Variant(raw []byte) (string, json.RawMessage, error) {
	obj, err := DecodeObject(raw)
	if err != nil {
		return "", nil, err
	}
	switch len(obj) {
	case 0:
		return "", nil, ErrNoExecuteContents
	case 1:
	default:
		return "", nil, ErrTooManyVariants
	}
	for name, body := range obj {
		return name, body, nil
	}
	return "", nil, ErrNoExecuteContents
}

// JSONString decodes raw as a JSON string. Numbers, booleans and objects
// report false.
func JSONString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
