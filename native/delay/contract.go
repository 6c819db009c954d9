package delay

import (
	"strconv"
	"time"

	"andromeda/core/host"
	"andromeda/core/types"
	"andromeda/native/ado"
)

const (
	ContractName    = "crates.io:andromeda-gatekeeper-delay"
	ContractVersion = "0.1.0"
)

type InstantiateMsg struct {
	LegacyOwner *string `json:"legacy_owner,omitempty"`
}

type ExecuteMsg struct {
	BeginTransaction    *BeginTransactionMsg      `json:"begin_transaction,omitempty"`
	CancelTransaction   *TxNumberMsg              `json:"cancel_transaction,omitempty"`
	CompleteTransaction *TxNumberMsg              `json:"complete_transaction,omitempty"`
	UpdateLegacyOwner   *ado.UpdateLegacyOwnerMsg `json:"update_legacy_owner,omitempty"`
	AndrReceive         *types.AndromedaMsg       `json:"andr_receive,omitempty"`
}

type BeginTransactionMsg struct {
	Message      types.CosmosMsg `json:"message"`
	DelaySeconds uint64          `json:"delay_seconds"`
}

type TxNumberMsg struct {
	TxNumber uint64 `json:"txnumber"`
}

type QueryMsg struct {
	TransactionInProgress     *TxNumberMsg `json:"transaction_in_progress,omitempty"`
	AllTransactionsInProgress *struct{}    `json:"all_transactions_in_progress,omitempty"`
	LegacyOwner               *struct{}    `json:"legacy_owner,omitempty"`
}

type TransactionResponse struct {
	DelayedTransaction DelayedMsg `json:"delayed_transaction"`
}

type AllTransactionsResponse struct {
	TransactionsWithIDs []TxEntry `json:"transactions_with_ids"`
}

// Contract is the delay gatekeeper entry point.
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
	if err := deps.Store.KVPut(counterKey, uint64(0)); err != nil {
		return nil, err
	}
	return host.NewResponse().
		AddAttribute("method", "instantiate").
		AddAttribute("type", "delay"), nil
}

func (Contract) Execute(deps host.Deps, env host.Env, info host.MessageInfo, raw []byte) (*host.Response, error) {
	var msg ExecuteMsg
	if err := host.DecodeMsg(raw, &msg); err != nil {
		return nil, err
	}
	engine := engineFor(deps, env)
	switch {
	case msg.BeginTransaction != nil:
		id, delayed, err := engine.Begin(info.Sender, msg.BeginTransaction.Message, msg.BeginTransaction.DelaySeconds)
		if err != nil {
			return nil, err
		}
		return host.NewResponse().
			AddAttribute("action", "begin_transaction").
			AddAttribute("transaction", types.MessageName(delayed.Message)).
			AddAttribute("pending_txnumber", strconv.FormatUint(id, 10)).
			AddAttribute("delay_expiration", strconv.FormatUint(delayed.DelayExpiration, 10)), nil
	case msg.CancelTransaction != nil:
		id := msg.CancelTransaction.TxNumber
		if err := engine.Cancel(info.Sender, id); err != nil {
			return nil, err
		}
		return host.NewResponse().
			AddAttribute("action", "remove_transaction").
			AddAttribute("removed_txnumber", strconv.FormatUint(id, 10)), nil
	case msg.CompleteTransaction != nil:
		id := msg.CompleteTransaction.TxNumber
		out, err := engine.Complete(id)
		if err != nil {
			return nil, err
		}
		return host.NewResponse().
			AddAttribute("action", "complete_transaction").
			AddAttribute("completed_txnumber", strconv.FormatUint(id, 10)).
			AddMessage(out), nil
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
	case msg.TransactionInProgress != nil:
		delayed, err := engine.Get(msg.TransactionInProgress.TxNumber)
		if err != nil {
			return nil, err
		}
		return host.EncodeReply(TransactionResponse{DelayedTransaction: delayed})
	case msg.AllTransactionsInProgress != nil:
		all, err := engine.All()
		if err != nil {
			return nil, err
		}
		return host.EncodeReply(AllTransactionsResponse{TransactionsWithIDs: all})
	case msg.LegacyOwner != nil:
		return ado.LegacyOwnerReply(ado.New(deps.Store), "No legacy owner")
	default:
		return nil, host.ErrUnknownVariant
	}
}

func (Contract) Migrate(deps host.Deps, env host.Env, raw []byte) (*host.Response, error) {
	return ado.HandleMigrate(deps.Store, ContractName, ContractVersion)
}
