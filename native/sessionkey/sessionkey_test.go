package sessionkey

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"andromeda/core/events"
	"andromeda/core/host"
	"andromeda/native/ado"
)

type captureEmitter struct {
	events []events.Event
}

func (c *captureEmitter) Emit(evt events.Event) { c.events = append(c.events, evt) }

type testEngine struct {
	*Engine
	store   *host.ContractStore
	clock   time.Time
	emitter *captureEmitter
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()
	store := host.NewMemoryStore()
	if err := ado.New(store).Instantiate(ado.InstantiateInfo{
		ContractName: ContractName,
		Version:      ContractVersion,
		Owner:        "juno1owner",
		LegacyOwner:  "juno1legacy",
	}); err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	te := &testEngine{
		Engine:  NewEngine(),
		store:   store,
		clock:   time.Unix(1_650_000_000, 0),
		emitter: &captureEmitter{},
	}
	te.SetState(store)
	te.SetEmitter(te.emitter)
	te.SetNowFunc(func() time.Time { return te.clock })
	return te
}

func TestSessionKeyExpiresAtBoundary(t *testing.T) {
	e := newTestEngine(t)
	key, err := e.Create("juno1legacy", "juno1session", 3600, true)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if want := uint64(1_650_003_600); key.Expiration != want {
		t.Fatalf("expiration: got %d want %d", key.Expiration, want)
	}
	ok, err := e.CanExecute("juno1session")
	if err != nil || !ok {
		t.Fatalf("fresh key: got %v, %v", ok, err)
	}
	e.clock = e.clock.Add(3599 * time.Second)
	if ok, err := e.CanExecute("juno1session"); err != nil || !ok {
		t.Fatalf("last second: got %v, %v", ok, err)
	}
	e.clock = e.clock.Add(time.Second)
	if _, err := e.CanExecute("juno1session"); !errors.Is(err, ErrExpired) {
		t.Fatalf("expired: got %v want %v", err, ErrExpired)
	}
	created, ok := e.emitter.events[0].(events.SessionKeyCreated)
	if !ok || created.Address != "juno1session" || !created.AdminPermissions {
		t.Fatalf("event: got %+v", e.emitter.events[0])
	}
}

func TestNonAdminKeyAndSaturation(t *testing.T) {
	e := newTestEngine(t)
	key, err := e.Create("juno1owner", "juno1viewer", math.MaxUint64, false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if key.Expiration != math.MaxUint64 {
		t.Fatalf("saturation: got %d", key.Expiration)
	}
	ok, err := e.CanExecute("juno1viewer")
	if err != nil || ok {
		t.Fatalf("non-admin key: got %v, %v", ok, err)
	}
	if _, err := e.CanExecute("juno1nobody"); !errors.Is(err, ErrSessionKeyNotFound) {
		t.Fatalf("missing key: got %v", err)
	}
}

func TestCreateAndDestroyPermissions(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.Create("juno1stranger", "juno1session", 60, true); !errors.Is(err, ado.ErrUnauthorized) {
		t.Fatalf("stranger create: got %v", err)
	}
	for _, addr := range []string{"juno1first", "juno1second"} {
		if _, err := e.Create("juno1owner", addr, 60, false); err != nil {
			t.Fatalf("create %s: %v", addr, err)
		}
	}
	if err := e.Destroy("juno1second", "juno1first"); !errors.Is(err, ado.ErrUnauthorized) {
		t.Fatalf("other key destroy: got %v", err)
	}
	if err := e.Destroy("juno1first", "juno1first"); err != nil {
		t.Fatalf("self destroy: %v", err)
	}
	if err := e.Destroy("juno1legacy", "juno1second"); err != nil {
		t.Fatalf("admin destroy: %v", err)
	}
	if err := e.Destroy("juno1owner", "juno1second"); !errors.Is(err, ErrSessionKeyNotFound) {
		t.Fatalf("double destroy: got %v", err)
	}
	last := e.emitter.events[len(e.emitter.events)-1]
	if destroyed, ok := last.(events.SessionKeyDestroyed); !ok || destroyed.Address != "juno1second" {
		t.Fatalf("event: got %+v", last)
	}
}

func TestContractCanExecuteQuery(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.Create("juno1owner", "juno1session", 100, true); err != nil {
		t.Fatalf("create: %v", err)
	}
	deps := host.Deps{Store: e.store}
	env := host.Env{Block: host.BlockInfo{Time: e.clock.Add(10 * time.Second)}}
	raw, err := Contract{}.Query(deps, env, []byte(`{"can_execute":{"sender":"juno1session","message":{"Legacy":{"bank":{"send":{"to_address":"juno1x","amount":[]}}}}}}`))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	var resp CanExecuteResponse
	if err := json.Unmarshal(raw, &resp); err != nil || !resp.CanExecute {
		t.Fatalf("response: got %s, %v", raw, err)
	}
	env.Block.Time = e.clock.Add(100 * time.Second)
	if _, err := (Contract{}).Query(deps, env, []byte(`{"can_execute":{"sender":"juno1session","message":{"Legacy":{"bank":{"send":{"to_address":"juno1x","amount":[]}}}}}}`)); err == nil || err.Error() != "Session key is expired" {
		t.Fatalf("expired query: got %v", err)
	}
}
