package splitter

import (
	"strconv"
	"time"

	"andromeda/core/host"
	"andromeda/core/types"
	"andromeda/native/ado"
)

const (
	ContractName    = "crates.io:andromeda-set-amount-splitter"
	ContractVersion = "0.1.0"
)

type InstantiateMsg struct {
	Recipients []Recipient `json:"recipients"`
	LockTime   *uint64     `json:"lock_time,omitempty"`
}

type UpdateRecipientsMsg struct {
	Recipients []Recipient `json:"recipients"`
}

type UpdateLockMsg struct {
	LockTime uint64 `json:"lock_time"`
}

type ExecuteMsg struct {
	UpdateRecipients *UpdateRecipientsMsg `json:"update_recipients,omitempty"`
	UpdateLock       *UpdateLockMsg       `json:"update_lock,omitempty"`
	Send             *struct{}            `json:"send,omitempty"`
	AndrReceive      *types.AndromedaMsg  `json:"andr_receive,omitempty"`
}

type QueryMsg struct {
	GetSplitterConfig *struct{} `json:"get_splitter_config,omitempty"`
}

type GetSplitterConfigResponse struct {
	Config Config `json:"config"`
}

// Contract forwards fixed coin amounts to its recipients on every send.
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
	if err := ado.New(deps.Store).Instantiate(ado.InstantiateInfo{
		ContractName: ContractName,
		Version:      ContractVersion,
		Owner:        info.Sender,
	}); err != nil {
		return nil, err
	}
	if err := engineFor(deps, env).Configure(msg.Recipients, msg.LockTime); err != nil {
		return nil, err
	}
	return host.NewResponse().
		AddAttribute("method", "instantiate").
		AddAttribute("type", "set-amount-splitter"), nil
}

func (Contract) Execute(deps host.Deps, env host.Env, info host.MessageInfo, raw []byte) (*host.Response, error) {
	var msg ExecuteMsg
	if err := host.DecodeMsg(raw, &msg); err != nil {
		return nil, err
	}
	engine := engineFor(deps, env)
	switch {
	case msg.UpdateRecipients != nil:
		if err := engine.UpdateRecipients(info.Sender, msg.UpdateRecipients.Recipients); err != nil {
			return nil, err
		}
		return host.NewResponse().
			AddAttribute("action", "update_recipients").
			AddAttribute("recipients", strconv.Itoa(len(msg.UpdateRecipients.Recipients))), nil
	case msg.UpdateLock != nil:
		lock, err := engine.UpdateLock(info.Sender, msg.UpdateLock.LockTime)
		if err != nil {
			return nil, err
		}
		return host.NewResponse().
			AddAttribute("action", "update_lock").
			AddAttribute("locked", strconv.FormatUint(lock, 10)), nil
	case msg.Send != nil:
		msgs, err := engine.Split(info.Sender, info.Funds)
		if err != nil {
			return nil, err
		}
		return host.NewResponse().
			AddAttribute("action", "send").
			AddAttribute("sender", info.Sender).
			AddMessages(msgs...), nil
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
	switch {
	case msg.GetSplitterConfig != nil:
		cfg, err := engineFor(deps, env).Config()
		if err != nil {
			return nil, err
		}
		return host.EncodeReply(GetSplitterConfigResponse{Config: cfg})
	default:
		return nil, host.ErrUnknownVariant
	}
}

func (Contract) Migrate(deps host.Deps, env host.Env, raw []byte) (*host.Response, error) {
	return ado.HandleMigrate(deps.Store, ContractName, ContractVersion)
}
