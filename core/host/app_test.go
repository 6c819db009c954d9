package host

import (
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"andromeda/core/types"
	"andromeda/storage"
)

var errBoom = errors.New("counter: boom")

type pinged struct{ n uint64 }

func (pinged) EventType() string { return "counter.pinged" }

// counterContract is a minimal contract used to exercise the host.
type counterContract struct{}

type counterExec struct {
	Inc   *struct{} `json:"inc,omitempty"`
	Fail  *struct{} `json:"fail,omitempty"`
	Relay *struct {
		To  string          `json:"to"`
		Msg json.RawMessage `json:"msg"`
	} `json:"relay,omitempty"`
	Pay *struct {
		To     string `json:"to"`
		Amount string `json:"amount"`
	} `json:"pay,omitempty"`
}

func (counterContract) Instantiate(deps Deps, env Env, info MessageInfo, msg []byte) (*Response, error) {
	if err := deps.Store.KVPut([]byte("count"), uint64(0)); err != nil {
		return nil, err
	}
	return NewResponse().AddAttribute("action", "instantiate"), nil
}

func (counterContract) Execute(deps Deps, env Env, info MessageInfo, msg []byte) (*Response, error) {
	var exec counterExec
	if err := DecodeMsg(msg, &exec); err != nil {
		return nil, err
	}
	var count uint64
	if _, err := deps.Store.KVGet([]byte("count"), &count); err != nil {
		return nil, err
	}
	count++
	if err := deps.Store.KVPut([]byte("count"), count); err != nil {
		return nil, err
	}
	deps.Emitter.Emit(pinged{n: count})
	resp := NewResponse().AddAttribute("count", strconv.FormatUint(count, 10))
	switch {
	case exec.Fail != nil:
		return nil, errBoom
	case exec.Relay != nil:
		resp.AddMessage(mustExecute(exec.Relay.To, exec.Relay.Msg))
	case exec.Pay != nil:
		resp.AddMessage(types.BankSend(exec.Pay.To, []types.Coin{{Denom: "uusd", Amount: exec.Pay.Amount}}))
	}
	return resp, nil
}

func (counterContract) Query(deps Deps, env Env, msg []byte) ([]byte, error) {
	var count uint64
	if _, err := deps.Store.KVGet([]byte("count"), &count); err != nil {
		return nil, err
	}
	return EncodeReply(map[string]uint64{"count": count, "time": env.Seconds()})
}

func (counterContract) Migrate(deps Deps, env Env, msg []byte) (*Response, error) {
	return NewResponse().AddAttribute("action", "migrate"), nil
}

func mustExecute(to string, msg json.RawMessage) types.CosmosMsg {
	out, err := types.ExecuteContract(to, msg, nil)
	if err != nil {
		panic(err)
	}
	return out
}

func newTestApp(t *testing.T) (*App, storage.Database) {
	t.Helper()
	db, err := storage.NewLevelDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(db.Close)
	now := time.Unix(1_700_000_000, 0).UTC()
	app := NewApp(db, WithNowFunc(func() time.Time { return now }), WithChainID("test-1"))
	app.RegisterCode("counter", counterContract{})
	return app, db
}

func queryCount(t *testing.T, app *App, addr string) uint64 {
	t.Helper()
	raw, err := app.Query(addr, []byte(`{}`))
	require.NoError(t, err)
	var out map[string]uint64
	require.NoError(t, json.Unmarshal(raw, &out))
	return out["count"]
}

func TestInstantiateExecuteQuery(t *testing.T) {
	app, _ := newTestApp(t)
	res, err := app.Instantiate("counter", "creator", "first", "creator", []byte(`{}`), nil)
	require.NoError(t, err)
	require.Contains(t, res.Contract, AddressPrefix)
	require.NotEmpty(t, res.TxID)

	res, err = app.Execute("user", res.Contract, []byte(`{"inc":{}}`), nil)
	require.NoError(t, err)
	require.Equal(t, uint64(2), res.Height)
	require.Len(t, res.Events, 1)
	require.Equal(t, "counter.pinged", res.Events[0].Type)
	require.Equal(t, res.Contract, res.Events[0].Contract)
	require.Equal(t, uint64(1), queryCount(t, app, res.Contract))

	raw, err := app.Query(res.Contract, []byte(`{}`))
	require.NoError(t, err)
	require.JSONEq(t, `{"count":1,"time":1700000000}`, string(raw))
}

func TestFailedSubMessageRollsBackParent(t *testing.T) {
	app, _ := newTestApp(t)
	a, err := app.Instantiate("counter", "creator", "a", "", []byte(`{}`), nil)
	require.NoError(t, err)
	b, err := app.Instantiate("counter", "creator", "b", "", []byte(`{}`), nil)
	require.NoError(t, err)
	require.NotEqual(t, a.Contract, b.Contract)

	relay := []byte(`{"relay":{"to":"` + b.Contract + `","msg":{"fail":{}}}}`)
	_, err = app.Execute("user", a.Contract, relay, nil)
	require.ErrorIs(t, err, errBoom)
	require.Zero(t, queryCount(t, app, a.Contract))
	require.Zero(t, queryCount(t, app, b.Contract))

	relay = []byte(`{"relay":{"to":"` + b.Contract + `","msg":{"inc":{}}}}`)
	res, err := app.Execute("user", a.Contract, relay, nil)
	require.NoError(t, err)
	require.Len(t, res.Attributes, 2)
	require.Equal(t, a.Contract, res.Attributes[0].Contract)
	require.Equal(t, b.Contract, res.Attributes[1].Contract)
	require.Equal(t, uint64(1), queryCount(t, app, a.Contract))
	require.Equal(t, uint64(1), queryCount(t, app, b.Contract))
}

func TestBankTransfersAndFunds(t *testing.T) {
	app, _ := newTestApp(t)
	c, err := app.Instantiate("counter", "creator", "bank", "", []byte(`{}`), nil)
	require.NoError(t, err)
	require.NoError(t, app.Mint("user", []types.Coin{types.NewCoin64(100, "uusd")}))

	_, err = app.Execute("user", c.Contract, []byte(`{"inc":{}}`), []types.Coin{types.NewCoin64(150, "uusd")})
	require.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = app.Execute("user", c.Contract, []byte(`{"pay":{"to":"friend","amount":"30"}}`), []types.Coin{types.NewCoin64(40, "uusd")})
	require.NoError(t, err)

	for addr, want := range map[string]uint64{"user": 60, c.Contract: 10, "friend": 30} {
		bal, err := app.Balance(addr, "uusd")
		require.NoError(t, err)
		require.Equal(t, types.NewUint128(want), bal, addr)
	}
}

func TestUnknownTargetsAndDepth(t *testing.T) {
	app, _ := newTestApp(t)
	_, err := app.Execute("user", "andr1missing", []byte(`{}`), nil)
	require.ErrorIs(t, err, ErrUnknownContract)
	_, err = app.Instantiate("nope", "user", "x", "", nil, nil)
	require.ErrorIs(t, err, ErrUnknownCode)

	c, err := app.Instantiate("counter", "creator", "loop", "", []byte(`{}`), nil)
	require.NoError(t, err)
	self := `{"relay":{"to":"` + c.Contract + `","msg":{"inc":{}}}}`
	for i := 0; i < 20; i++ {
		self = `{"relay":{"to":"` + c.Contract + `","msg":` + self + `}}`
	}
	_, err = app.Execute("user", c.Contract, []byte(self), nil)
	require.ErrorIs(t, err, ErrMaxDepth)
	require.Zero(t, queryCount(t, app, c.Contract))
}

func TestMigrateRequiresAdmin(t *testing.T) {
	app, _ := newTestApp(t)
	c, err := app.Instantiate("counter", "creator", "m", "admin", []byte(`{}`), nil)
	require.NoError(t, err)
	_, err = app.Migrate("user", c.Contract, "counter", []byte(`{}`))
	require.ErrorIs(t, err, ErrNotAdmin)
	res, err := app.Migrate("admin", c.Contract, "counter", []byte(`{}`))
	require.NoError(t, err)
	require.Equal(t, "migrate", res.Attributes[0].Attributes[0].Value)

	infos, err := app.Contracts()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.Equal(t, "counter", infos[0].Code)
	require.Equal(t, []string{"counter"}, app.Codes())
}

func TestContractStoreIterate(t *testing.T) {
	store := NewMemoryStore()
	for i, k := range []string{"item/2", "item/1", "other/1"} {
		require.NoError(t, store.KVPut([]byte(k), uint64(i)))
	}
	var keys []string
	err := store.KVIterate([]byte("item/"), func(key []byte, decode func(out interface{}) error) (bool, error) {
		var v uint64
		require.NoError(t, decode(&v))
		keys = append(keys, string(key)+"="+strconv.FormatUint(v, 10))
		return true, nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"item/1=1", "item/2=0"}, keys)

	found, err := store.KVGet([]byte("missing"), nil)
	require.NoError(t, err)
	require.False(t, found)
	require.NoError(t, store.KVDelete([]byte("item/1")))
	found, err = store.KVGet([]byte("item/1"), nil)
	require.NoError(t, err)
	require.False(t, found)
}
