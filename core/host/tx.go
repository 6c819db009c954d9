package host

import (
	"fmt"
	"log/slog"
	"time"

	"andromeda/core/events"
	"andromeda/core/types"
	"andromeda/observability"
	"andromeda/observability/logging"
	"andromeda/storage"
)

// txContext carries the cached state and accumulated output of one top-level
// call and every sub-message it triggers.
type txContext struct {
	app    *App
	db     *storage.CacheDB
	block  BlockInfo
	result *Result
}

func (tx *txContext) deps(addr string, queryDepth int) Deps {
	return Deps{
		Store:   NewContractStore(tx.db, addr),
		Querier: &txQuerier{tx: tx, depth: queryDepth},
		Emitter: &contractEmitter{tx: tx, contract: addr},
	}
}

func (tx *txContext) env(addr string) Env {
	return Env{Block: tx.block, Contract: addr}
}

func (tx *txContext) bank() bank {
	return bank{db: tx.db}
}

func (tx *txContext) lookup(addr string) (ContractInfo, *codeEntry, error) {
	info, ok, err := loadContractInfo(tx.db, addr)
	if err != nil {
		return ContractInfo{}, nil, err
	}
	if !ok {
		return ContractInfo{}, nil, fmt.Errorf("%w: %s", ErrUnknownContract, addr)
	}
	entry, ok := tx.app.codes[info.Code]
	if !ok {
		return ContractInfo{}, nil, fmt.Errorf("%w: %s", ErrUnknownCode, info.Code)
	}
	return info, entry, nil
}

func (tx *txContext) trace(entry, addr, code, sender string) {
	tx.app.logger.Debug("contract call",
		slog.String("tx_id", tx.result.TxID),
		slog.String("entry", entry),
		slog.String("contract", addr),
		slog.String("code", code),
		slog.String("sender", sender))
}

func (tx *txContext) instantiate(entry *codeEntry, sender, label, admin string, msg []byte, funds []types.Coin, depth int) (string, []byte, error) {
	if depth > tx.app.maxDepth {
		return "", nil, ErrMaxDepth
	}
	seq, err := loadUint64(tx.db, sequenceKey)
	if err != nil {
		return "", nil, err
	}
	seq++
	if err := storeUint64(tx.db, sequenceKey, seq); err != nil {
		return "", nil, err
	}
	addr := deriveAddress(sender, label, seq)
	info := ContractInfo{Address: addr, Code: entry.name, Label: label, Creator: sender, Admin: admin}
	if err := storeContractInfo(tx.db, info); err != nil {
		return "", nil, err
	}
	if err := tx.bank().send(sender, addr, funds); err != nil {
		return "", nil, err
	}

	tx.trace("instantiate", addr, entry.name, sender)
	start := time.Now()
	resp, err := entry.contract.Instantiate(tx.deps(addr, 0), tx.env(addr), MessageInfo{Sender: sender, Funds: types.CloneCoins(funds)}, msg)
	observability.ContractMetrics().Observe(entry.name, "instantiate", err, time.Since(start))
	if err != nil {
		return "", nil, err
	}
	data, err := tx.handleResponse(addr, resp, depth)
	return addr, data, err
}

func (tx *txContext) execute(sender, addr string, msg []byte, funds []types.Coin, depth int) ([]byte, error) {
	if depth > tx.app.maxDepth {
		return nil, ErrMaxDepth
	}
	_, entry, err := tx.lookup(addr)
	if err != nil {
		return nil, err
	}
	if err := tx.bank().send(sender, addr, funds); err != nil {
		return nil, err
	}

	tx.trace("execute", addr, entry.name, sender)
	tx.app.logger.Debug("execute message", slog.String("tx_id", tx.result.TxID), logging.MaskField("msg", string(msg)))
	start := time.Now()
	resp, err := entry.contract.Execute(tx.deps(addr, 0), tx.env(addr), MessageInfo{Sender: sender, Funds: types.CloneCoins(funds)}, msg)
	observability.ContractMetrics().Observe(entry.name, "execute", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return tx.handleResponse(addr, resp, depth)
}

func (tx *txContext) migrate(sender, addr string, entry *codeEntry, msg []byte, depth int) ([]byte, error) {
	if depth > tx.app.maxDepth {
		return nil, ErrMaxDepth
	}
	info, _, err := tx.lookup(addr)
	if err != nil {
		return nil, err
	}
	if info.Admin == "" || info.Admin != sender {
		return nil, ErrNotAdmin
	}
	info.Code = entry.name
	if err := storeContractInfo(tx.db, info); err != nil {
		return nil, err
	}

	tx.trace("migrate", addr, entry.name, sender)
	start := time.Now()
	resp, err := entry.contract.Migrate(tx.deps(addr, 0), tx.env(addr), msg)
	observability.ContractMetrics().Observe(entry.name, "migrate", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return tx.handleResponse(addr, resp, depth)
}

func (tx *txContext) query(addr string, msg []byte, depth int) ([]byte, error) {
	if depth > tx.app.maxDepth {
		return nil, ErrQueryDepth
	}
	_, entry, err := tx.lookup(addr)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	out, err := entry.contract.Query(tx.deps(addr, depth), tx.env(addr), msg)
	observability.ContractMetrics().Observe(entry.name, "query", err, time.Since(start))
	return out, err
}

// handleResponse records the attributes of resp and dispatches its messages
// depth-first in order. The first failing message aborts the transaction.
func (tx *txContext) handleResponse(addr string, resp *Response, depth int) ([]byte, error) {
	if resp == nil {
		return nil, nil
	}
	if len(resp.Attributes) > 0 {
		tx.result.Attributes = append(tx.result.Attributes, ContractEvent{
			Contract:   addr,
			Attributes: append([]Attribute(nil), resp.Attributes...),
		})
	}
	for i, msg := range resp.Messages {
		if err := tx.dispatch(addr, msg, depth+1); err != nil {
			return nil, fmt.Errorf("sub-message %d from %s: %w", i, addr, err)
		}
	}
	return resp.Data, nil
}

func (tx *txContext) dispatch(from string, msg types.CosmosMsg, depth int) error {
	metrics := observability.ContractMetrics()
	switch {
	case msg.Wasm != nil && msg.Wasm.Execute != nil:
		metrics.RecordSubmessage("wasm_execute")
		exec := msg.Wasm.Execute
		_, err := tx.execute(from, exec.ContractAddr, exec.Msg, exec.Funds, depth)
		return err
	case msg.Wasm != nil && msg.Wasm.Instantiate != nil:
		metrics.RecordSubmessage("wasm_instantiate")
		inst := msg.Wasm.Instantiate
		entry, ok := tx.app.codeIDs[inst.CodeID]
		if !ok {
			return fmt.Errorf("%w: code id %d", ErrUnknownCode, inst.CodeID)
		}
		_, _, err := tx.instantiate(entry, from, inst.Label, inst.Admin, inst.Msg, inst.Funds, depth)
		return err
	case msg.Wasm != nil && msg.Wasm.Migrate != nil:
		metrics.RecordSubmessage("wasm_migrate")
		mig := msg.Wasm.Migrate
		entry, ok := tx.app.codeIDs[mig.NewCodeID]
		if !ok {
			return fmt.Errorf("%w: code id %d", ErrUnknownCode, mig.NewCodeID)
		}
		_, err := tx.migrate(from, mig.ContractAddr, entry, mig.Msg, depth)
		return err
	case msg.Bank != nil && msg.Bank.Send != nil:
		metrics.RecordSubmessage("bank_send")
		return tx.bank().send(from, msg.Bank.Send.ToAddress, msg.Bank.Send.Amount)
	default:
		metrics.RecordSubmessage("unsupported")
		return ErrUnsupportedMessage
	}
}

// txQuerier serves smart queries from inside a contract call against the same
// cached state.
type txQuerier struct {
	tx    *txContext
	depth int
}

func (q *txQuerier) QuerySmart(contract string, msg []byte) ([]byte, error) {
	return q.tx.query(contract, msg, q.depth+1)
}

func (q *txQuerier) QueryBalance(address, denom string) (types.Uint128, error) {
	return q.tx.bank().balance(address, denom)
}

type contractEmitter struct {
	tx       *txContext
	contract string
}

func (e *contractEmitter) Emit(evt events.Event) {
	rendered := events.Render(evt)
	if rendered == nil {
		return
	}
	rendered.Contract = e.contract
	e.tx.result.Events = append(e.tx.result.Events, *rendered)
	e.tx.app.logger.Debug("contract event",
		slog.String("tx_id", e.tx.result.TxID),
		slog.String("contract", e.contract),
		slog.String("type", rendered.Type))
}
