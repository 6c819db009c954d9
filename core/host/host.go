package host

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"andromeda/core/events"
	"andromeda/core/types"
)

var (
	// ErrUnknownContract is returned when a call targets an unregistered address.
	ErrUnknownContract = errors.New("host: unknown contract")
	// ErrUnknownCode is returned when instantiating an unregistered code.
	ErrUnknownCode = errors.New("host: unknown code")
	// ErrUnsupportedMessage is returned for outbound messages the host cannot route.
	ErrUnsupportedMessage = errors.New("host: unsupported message")
	// ErrInsufficientFunds is returned when a bank transfer exceeds the balance.
	ErrInsufficientFunds = errors.New("host: insufficient funds")
	// ErrMaxDepth is returned when sub-message recursion exceeds the limit.
	ErrMaxDepth = errors.New("host: sub-message depth exceeded")
	// ErrQueryDepth is returned when nested smart queries exceed the limit.
	ErrQueryDepth = errors.New("host: query depth exceeded")
	// ErrUnknownVariant is returned when a message sets no known variant.
	ErrUnknownVariant = errors.New("host: unknown message variant")
	// ErrNotAdmin is returned when a migrate is not sent by the contract admin.
	ErrNotAdmin = errors.New("host: sender is not the contract admin")
)

// BlockInfo describes the block a call executes in.
type BlockInfo struct {
	Height  uint64
	Time    time.Time
	ChainID string
}

// Env is the environment passed to every entry point.
type Env struct {
	Block    BlockInfo
	Contract string
}

// Seconds returns the block time as unix seconds.
func (e Env) Seconds() uint64 {
	if e.Block.Time.IsZero() {
		return 0
	}
	return uint64(e.Block.Time.Unix())
}

// MessageInfo carries the caller and the funds sent along with the call.
type MessageInfo struct {
	Sender string
	Funds  []types.Coin
}

// Attribute is an ordered key/value pair on a Response.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Response is returned by instantiate, execute and migrate. Messages are
// dispatched in order after the entry point returns.
type Response struct {
	Messages   []types.CosmosMsg
	Attributes []Attribute
	Data       []byte
}

// NewResponse returns an empty response.
func NewResponse() *Response {
	return &Response{}
}

// AddAttribute appends a key/value pair.
func (r *Response) AddAttribute(key, value string) *Response {
	r.Attributes = append(r.Attributes, Attribute{Key: key, Value: value})
	return r
}

// AddAttributes appends several pairs.
func (r *Response) AddAttributes(attrs ...Attribute) *Response {
	r.Attributes = append(r.Attributes, attrs...)
	return r
}

// AddMessage appends an outbound message.
func (r *Response) AddMessage(msg types.CosmosMsg) *Response {
	r.Messages = append(r.Messages, msg)
	return r
}

// AddMessages appends several outbound messages.
func (r *Response) AddMessages(msgs ...types.CosmosMsg) *Response {
	r.Messages = append(r.Messages, msgs...)
	return r
}

// SetData sets the response payload.
func (r *Response) SetData(data []byte) *Response {
	r.Data = data
	return r
}

// Querier is the read-only view of other contracts and the bank.
type Querier interface {
	QuerySmart(contract string, msg []byte) ([]byte, error)
	QueryBalance(address, denom string) (types.Uint128, error)
}

// Store is the per-contract key/value capability. Values are rlp-encoded.
type Store interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
	// KVIterate visits keys under prefix in ascending order while fn returns
	// true.
	KVIterate(prefix []byte, fn func(key []byte, decode func(out interface{}) error) (bool, error)) error
}

// Deps bundles the capabilities handed to an entry point.
type Deps struct {
	Store   Store
	Querier Querier
	Emitter events.Emitter
}

// Contract is implemented by every native contract registered with the App.
// Messages are raw JSON.
type Contract interface {
	Instantiate(deps Deps, env Env, info MessageInfo, msg []byte) (*Response, error)
	Execute(deps Deps, env Env, info MessageInfo, msg []byte) (*Response, error)
	Query(deps Deps, env Env, msg []byte) ([]byte, error)
	Migrate(deps Deps, env Env, msg []byte) (*Response, error)
}

// QueryJSON marshals req, performs a smart query and decodes the reply into out.
func QueryJSON(q Querier, contract string, req interface{}, out interface{}) error {
	if q == nil {
		return fmt.Errorf("host: querier unavailable")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode query for %s: %w", contract, err)
	}
	raw, err := q.QuerySmart(contract, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode query reply from %s: %w", contract, err)
	}
	return nil
}

// DecodeMsg decodes a raw JSON message into out.
func DecodeMsg(raw []byte, out interface{}) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("host: decode message: %w", err)
	}
	return nil
}

// EncodeReply encodes a query reply.
func EncodeReply(v interface{}) ([]byte, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("host: encode reply: %w", err)
	}
	return out, nil
}
