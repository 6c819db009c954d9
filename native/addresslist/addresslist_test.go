package addresslist

import (
	"encoding/json"
	"errors"
	"testing"

	"andromeda/core/events"
	"andromeda/core/host"
	"andromeda/native/ado"
	"andromeda/storage"
)

const (
	owner    = "juno1owner"
	operator = "juno1operator"
	spock    = "juno1spock"
	khan     = "juno1khan"
)

type captureEmitter struct {
	events []events.Event
}

func (c *captureEmitter) Emit(evt events.Event) { c.events = append(c.events, evt) }

func newTestEngine(t *testing.T) (*Engine, *captureEmitter) {
	t.Helper()
	store := host.NewMemoryStore()
	if err := ado.New(store).Instantiate(ado.InstantiateInfo{
		ContractName: ContractName,
		Version:      ContractVersion,
		Owner:        owner,
		Operators:    []string{operator},
	}); err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	emitter := &captureEmitter{}
	e := NewEngine()
	e.SetState(store)
	e.SetEmitter(emitter)
	return e, emitter
}

func expiry(v uint64) *uint64 { return &v }

func TestAddAndRemoveRequireOperator(t *testing.T) {
	e, emitter := newTestEngine(t)
	if _, err := e.Add(khan, spock, Whitelisted(nil)); !errors.Is(err, ado.ErrUnauthorized) {
		t.Fatalf("stranger add: got %v want %v", err, ado.ErrUnauthorized)
	}
	actor, err := e.Add(operator, "  "+spock+" ", Whitelisted(nil))
	if err != nil {
		t.Fatalf("operator add: %v", err)
	}
	if actor != spock {
		t.Fatalf("actor: got %q want %q", actor, spock)
	}
	included, err := e.Includes(spock)
	if err != nil || !included {
		t.Fatalf("includes: got %v, %v", included, err)
	}
	if err := e.Remove(khan, spock); !errors.Is(err, ado.ErrUnauthorized) {
		t.Fatalf("stranger remove: got %v", err)
	}
	if err := e.Remove(owner, spock); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := e.Remove(owner, spock); !errors.Is(err, ErrActorNotFound) {
		t.Fatalf("double remove: got %v want %v", err, ErrActorNotFound)
	}
	if _, err := e.Permission(spock); !errors.Is(err, ErrActorNotFound) {
		t.Fatalf("permission after remove: got %v", err)
	}
	if len(emitter.events) != 2 {
		t.Fatalf("events: got %d want 2", len(emitter.events))
	}
	if got := emitter.events[1].EventType(); got != events.TypeActorPermissionRemoved {
		t.Fatalf("event type: got %q", got)
	}
}

func TestPermissionValidation(t *testing.T) {
	e, _ := newTestEngine(t)
	other := "juno1other"
	var invalid *InvalidPermissionError
	if _, err := e.Add(owner, spock, Permission{Contract: &other}); !errors.As(err, &invalid) {
		t.Fatalf("contract permission: got %v", err)
	}
	if invalid.Msg != contractPermissionMsg {
		t.Fatalf("message: got %q", invalid.Msg)
	}
	if _, err := e.Add(owner, spock, Permission{}); !errors.Is(err, ErrEmptyPermission) {
		t.Fatalf("empty permission: got %v", err)
	}
	both := Permission{Whitelisted: &Window{}, Blacklisted: &Window{}}
	if _, err := e.Add(owner, spock, both); !errors.Is(err, ErrEmptyPermission) {
		t.Fatalf("two variants: got %v", err)
	}
	if _, err := e.Add(owner, "Juno1Spock", Whitelisted(nil)); err == nil {
		t.Fatalf("unnormalised actor: expected error")
	}
}

func TestIsPermittedHonoursExpiration(t *testing.T) {
	e, _ := newTestEngine(t)
	if _, err := e.Add(owner, spock, Whitelisted(expiry(1_000))); err != nil {
		t.Fatalf("whitelist: %v", err)
	}
	if _, err := e.Add(owner, khan, Blacklisted(expiry(1_000))); err != nil {
		t.Fatalf("blacklist: %v", err)
	}
	cases := []struct {
		actor string
		now   uint64
		want  bool
	}{
		{spock, 999, true},
		{spock, 1_000, false},
		{khan, 999, false},
		{khan, 1_000, true},
		{"juno1unknown", 0, true},
	}
	for _, tc := range cases {
		got, err := e.IsPermitted(tc.actor, tc.now)
		if err != nil {
			t.Fatalf("%s at %d: %v", tc.actor, tc.now, err)
		}
		if got != tc.want {
			t.Fatalf("%s at %d: got %v want %v", tc.actor, tc.now, got, tc.want)
		}
	}
	perm, err := e.Permission(khan)
	if err != nil {
		t.Fatalf("permission: %v", err)
	}
	if perm.String() != "blacklisted until:1000" {
		t.Fatalf("string: got %q", perm.String())
	}
}

func TestContractRoundTrip(t *testing.T) {
	app := host.NewApp(storage.NewMemDB())
	app.RegisterCode("address-list", Contract{})
	body, _ := json.Marshal(InstantiateMsg{ActorPermission: &ActorPermission{Actor: spock, Permission: Whitelisted(nil)}})
	res, err := app.Instantiate("address-list", owner, "list", "", body, nil)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	list := res.Contract

	raw, err := app.Query(list, []byte(`{"actor_permission":{"actor":"juno1spock"}}`))
	if err != nil {
		t.Fatalf("query permission: %v", err)
	}
	if string(raw) != `{"permission":{"whitelisted":{}}}` {
		t.Fatalf("permission: got %s", raw)
	}

	add := []byte(`{"add_actor_permission":{"actor":"juno1khan","permission":{"blacklisted":{}}}}`)
	if _, err := app.Execute(owner, list, add, nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	raw, err = app.Query(list, []byte(`{"is_permitted":{"actor":"juno1khan"}}`))
	if err != nil {
		t.Fatalf("is_permitted: %v", err)
	}
	var permitted IsPermittedResponse
	if err := json.Unmarshal(raw, &permitted); err != nil || permitted.Permitted {
		t.Fatalf("khan permitted: got %s (%v)", raw, err)
	}
	raw, err = app.Query(list, []byte(`{"includes_actor":{"actor":"juno1nobody"}}`))
	if err != nil {
		t.Fatalf("includes: %v", err)
	}
	if string(raw) != `{"included":false}` {
		t.Fatalf("includes: got %s", raw)
	}

	bad := []byte(`{"add_actor_permission":{"actor":"juno1khan","permission":{"contract":"juno1other"}}}`)
	if _, err := app.Execute(owner, list, bad, nil); err == nil {
		t.Fatalf("contract permission: expected error")
	}
}
