package account

import (
	"fmt"

	"andromeda/core/events"
	"andromeda/core/host"
	"andromeda/core/types"
	"andromeda/native/ado"
	"andromeda/native/delay"
	"andromeda/native/message"
	"andromeda/native/sessionkey"
	"andromeda/native/spendlimit"
)

const (
	reasonMultiMessage     = "Multi-message txes with permissioned addresss not supported yet"
	reasonOwner            = "caller is owner with no debt"
	reasonSessionKey       = "Sender is active admin session key"
	reasonBlanket          = "Active permissioned address spending blanket-authorized token"
	reasonCustom           = "Custom CosmosMsg not yet supported"
	reasonDistribution     = "Distribution CosmosMsg not yet supported"
	reasonUnsupported      = "This CosmosMsg type not yet supported"
	reasonAllChecksPassed  = "all checks passed"
	cw20TransferVariant    = "transfer"
	defaultOwnerUpdateWait = uint64(0)
)

// blanketAuthorized are token contracts any permissioned address may call
// with no funds attached.
var blanketAuthorized = map[string]string{
	"juno18c5uecrztn4rqakm23fskusasud7s8afujnl8yu54ule2kak5q4sdnvcz4": "DRINK",
	"juno1x5xz6wu8qlau8znmc60tmazzj3ta98quhk7qkamul3am2x8fsaqqcwy7n9": "BOTTLE",
}

// Engine evaluates and dispatches messages on behalf of a user account.
type Engine struct {
	state   ado.State
	base    *ado.Base
	querier host.Querier
	emitter events.Emitter
	self    string
}

func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

func (e *Engine) SetState(state ado.State) {
	e.state = state
	e.base = ado.New(state)
}

// SetQuerier configures the querier used to reach the gatekeepers.
func (e *Engine) SetQuerier(q host.Querier) { e.querier = q }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetSelf records the account's own contract address.
func (e *Engine) SetSelf(addr string) { e.self = addr }

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return nil
}

// Gatekeepers returns the attached gatekeeper contracts.
func (e *Engine) Gatekeepers() (GatekeeperResponse, error) {
	rec, err := loadRecord(e.state)
	if err != nil {
		return GatekeeperResponse{}, err
	}
	return rec.gatekeepers(), nil
}

// UpdateDelay returns the delay applied to owner updates, in seconds.
func (e *Engine) UpdateDelay() (uint64, error) {
	rec, err := loadRecord(e.state)
	if err != nil {
		return 0, err
	}
	if !rec.HasDelay {
		return defaultOwnerUpdateWait, nil
	}
	return rec.DelaySecs, nil
}

// CanExecute decides whether address may have the account send msgs. Only a
// single message is supported.
func (e *Engine) CanExecute(address string, msgs []types.UniversalMsg) (spendlimit.CanSpendResponse, error) {
	if err := e.ready(); err != nil {
		return spendlimit.CanSpendResponse{}, err
	}
	switch len(msgs) {
	case 0:
		return spendlimit.CanSpendResponse{}, ErrNoMessages
	case 1:
	default:
		return deny(reasonMultiMessage), nil
	}
	rec, err := loadRecord(e.state)
	if err != nil {
		return spendlimit.CanSpendResponse{}, err
	}
	if e.base.IsAdmin(address) {
		return e.canOwnerExecute(msgs[0])
	}
	return e.canNonOwnerExecute(rec, address, msgs[0])
}

func allow(reason string) spendlimit.CanSpendResponse {
	return spendlimit.CanSpendResponse{CanSpend: true, Reason: reason}
}

func deny(reason string) spendlimit.CanSpendResponse {
	return spendlimit.CanSpendResponse{CanSpend: false, Reason: reason}
}

// canOwnerExecute always allows. Owner updates are delayed separately through
// ProposeUpdateOwner.
// TODO: deny while the debt gatekeeper reports unpaid debt once it exposes a
// balance query.
func (e *Engine) canOwnerExecute(types.UniversalMsg) (spendlimit.CanSpendResponse, error) {
	return allow(reasonOwner), nil
}

func (e *Engine) canNonOwnerExecute(rec accountRecord, address string, msg types.UniversalMsg) (spendlimit.CanSpendResponse, error) {
	if e.isAdminSessionKey(rec, address, msg) {
		return allow(reasonSessionKey), nil
	}
	if msg.Legacy != nil && msg.Legacy.Wasm != nil && msg.Legacy.Wasm.Execute != nil {
		exec := msg.Legacy.Wasm.Execute
		if _, ok := blanketAuthorized[exec.ContractAddr]; ok && len(exec.Funds) == 0 {
			return allow(reasonBlanket), nil
		}
	}

	var (
		funds []types.Coin
		rider bool
	)
	if msg.Legacy != nil {
		var reason string
		funds, rider, reason = classify(*msg.Legacy)
		if reason != "" {
			return deny(reason), nil
		}
	}

	if len(funds) > 0 {
		ok, err := e.spendIsOK(rec, address, funds)
		if err != nil {
			return spendlimit.CanSpendResponse{}, err
		}
		if !ok {
			return spendlimit.CanSpendResponse{}, &spendlimit.CannotSpendMoreThanLimitError{
				Amount: funds[0].Amount,
				Denom:  funds[0].Denom,
			}
		}
	}
	if !rider {
		ok, err := e.messageIsOK(rec, address, msg)
		if err != nil {
			return spendlimit.CanSpendResponse{}, err
		}
		if !ok {
			return spendlimit.CanSpendResponse{}, ado.ErrUnauthorized
		}
	}
	return allow(reasonAllChecksPassed), nil
}

// classify returns the funds msg moves and whether a passing spend check is
// enough to authorize it. A non-empty reason rejects the message type.
func classify(msg types.CosmosMsg) ([]types.Coin, bool, string) {
	switch {
	case msg.Wasm != nil && msg.Wasm.Execute != nil:
		exec := msg.Wasm.Execute
		name, _, err := types.Variant(exec.Msg)
		return types.CloneCoins(exec.Funds), err == nil && name == cw20TransferVariant, ""
	case msg.Bank != nil && msg.Bank.Send != nil:
		return types.CloneCoins(msg.Bank.Send.Amount), true, ""
	case msg.Staking != nil && msg.Staking.Delegate != nil:
		return []types.Coin{msg.Staking.Delegate.Amount}, false, ""
	case len(msg.Custom) > 0:
		return nil, false, reasonCustom
	case msg.Distribution != nil:
		return nil, false, reasonDistribution
	default:
		return nil, false, reasonUnsupported
	}
}

// fundsOf returns the funds a dispatched message moves out of the account.
func fundsOf(msg types.CosmosMsg) []types.Coin {
	funds, _, _ := classify(msg)
	return funds
}

func (e *Engine) isAdminSessionKey(rec accountRecord, sender string, msg types.UniversalMsg) bool {
	if rec.Sessionkey == "" {
		return false
	}
	var resp sessionkey.CanExecuteResponse
	req := sessionkey.QueryMsg{CanExecute: &sessionkey.CanExecuteQuery{Sender: sender, Message: msg}}
	if err := host.QueryJSON(e.querier, rec.Sessionkey, req, &resp); err != nil {
		return false
	}
	return resp.CanExecute
}

func (e *Engine) spendIsOK(rec accountRecord, sender string, funds []types.Coin) (bool, error) {
	if rec.Spendlimit == "" {
		return false, nil
	}
	var resp spendlimit.CanSpendResponse
	req := spendlimit.QueryMsg{CanSpend: &spendlimit.CanSpendMsg{Sender: sender, Funds: funds}}
	if err := host.QueryJSON(e.querier, rec.Spendlimit, req, &resp); err != nil {
		return false, fmt.Errorf("account: spend limit check: %w", err)
	}
	return resp.CanSpend, nil
}

func (e *Engine) messageIsOK(rec accountRecord, sender string, msg types.UniversalMsg) (bool, error) {
	if rec.Message == "" {
		return false, nil
	}
	var resp message.AuthorizationsResponse
	req := message.QueryMsg{CheckTransaction: &message.CheckTransactionQuery{Msg: msg, Sender: sender}}
	if err := host.QueryJSON(e.querier, rec.Message, req, &resp); err != nil {
		return false, fmt.Errorf("account: message check: %w", err)
	}
	return len(resp.Authorizations) > 0, nil
}

// Execute dispatches msg for sender once CanExecute approves it. Funded calls
// approved by the spend-limit path are first recorded against the sender's
// limit.
func (e *Engine) Execute(sender string, msg types.UniversalMsg) (*host.Response, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	decision, err := e.CanExecute(sender, []types.UniversalMsg{msg})
	if err != nil {
		return nil, err
	}
	if !decision.CanSpend {
		return nil, fmt.Errorf("%w: %s", ado.ErrUnauthorized, decision.Reason)
	}
	if msg.Andromeda != nil {
		return nil, ErrAndromedaUnsupported
	}
	resp := host.NewResponse().
		AddAttribute("execute_msg", "cosmos_msg").
		AddAttribute("reason", decision.Reason)
	if decision.Reason == reasonAllChecksPassed {
		if funds := fundsOf(*msg.Legacy); len(funds) > 0 {
			rec, err := loadRecord(e.state)
			if err != nil {
				return nil, err
			}
			if rec.Spendlimit != "" {
				record, err := types.ExecuteContract(rec.Spendlimit, spendlimit.ExecuteMsg{
					RecordSpend: &spendlimit.RecordSpendMsg{Sender: sender, Funds: funds},
				}, nil)
				if err != nil {
					return nil, err
				}
				resp.AddMessage(record)
			}
		}
	}
	return resp.AddMessage(*msg.Legacy), nil
}

// ProposeUpdateOwner queues an update_legacy_owner call to this account in
// the delay gatekeeper.
func (e *Engine) ProposeUpdateOwner(sender, newOwner string) (*host.Response, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.base.RequireAdmin(sender); err != nil {
		return nil, err
	}
	if err := types.ValidateAddress(newOwner); err != nil {
		return nil, err
	}
	rec, err := loadRecord(e.state)
	if err != nil {
		return nil, err
	}
	if rec.Delay == "" {
		return nil, ErrNoDelayGatekeeper
	}
	inner, err := types.ExecuteContract(e.self, ExecuteMsg{
		UpdateLegacyOwner: &ado.UpdateLegacyOwnerMsg{NewOwner: newOwner},
	}, nil)
	if err != nil {
		return nil, err
	}
	delaySecs := defaultOwnerUpdateWait
	if rec.HasDelay {
		delaySecs = rec.DelaySecs
	}
	queued, err := types.ExecuteContract(rec.Delay, delay.ExecuteMsg{
		BeginTransaction: &delay.BeginTransactionMsg{Message: inner, DelaySeconds: delaySecs},
	}, nil)
	if err != nil {
		return nil, err
	}
	return host.NewResponse().
		AddAttribute("action", "propose_update_owner").
		AddAttribute("new_owner", newOwner).
		AddMessage(queued), nil
}

// ChangeOwnerUpdatesDelay sets the owner-update delay. It is refused while
// the delay gatekeeper still holds queued transactions.
func (e *Engine) ChangeOwnerUpdatesDelay(sender string, newDelay uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.base.RequireAdmin(sender); err != nil {
		return err
	}
	rec, err := loadRecord(e.state)
	if err != nil {
		return err
	}
	if rec.Delay != "" {
		var pending delay.AllTransactionsResponse
		req := delay.QueryMsg{AllTransactionsInProgress: &struct{}{}}
		if err := host.QueryJSON(e.querier, rec.Delay, req, &pending); err != nil {
			return fmt.Errorf("account: pending owner updates: %w", err)
		}
		if len(pending.TransactionsWithIDs) > 0 {
			return ErrOwnerUpdatePending
		}
	}
	rec.HasDelay = true
	rec.DelaySecs = newDelay
	return storeRecord(e.state, rec)
}

// UpdateLegacyOwner hands the legacy owner role over. The current legacy
// owner may do so directly; the delay gatekeeper does so when a proposed
// update completes.
func (e *Engine) UpdateLegacyOwner(sender, newOwner string) (*host.Response, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	rec, err := loadRecord(e.state)
	if err != nil {
		return nil, err
	}
	if rec.Delay == "" || sender != rec.Delay {
		return e.base.UpdateLegacyOwner(sender, newOwner)
	}
	if err := e.base.SetLegacyOwner(newOwner); err != nil {
		return nil, err
	}
	return host.NewResponse().
		AddAttribute("action", "update_legacy_owner").
		AddAttribute("value", newOwner), nil
}
