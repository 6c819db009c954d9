package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"andromeda/core/host"
	"andromeda/storage"
)

func newTestServer(t *testing.T) (*httptest.Server, *host.App) {
	t.Helper()
	app := host.NewApp(storage.NewMemDB())
	registerCodes(app)
	srv := httptest.NewServer(newRouter(app, nil, serverConfig{
		MetricsEnabled:     true,
		RateLimitPerSecond: 1000,
		RateLimitBurst:     1000,
	}))
	t.Cleanup(srv.Close)
	return srv, app
}

func postJSON(t *testing.T, url string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func TestServerInstantiateExecuteQuery(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := postJSON(t, srv.URL+"/contracts", instantiateRequest{
		Code:   "cw20",
		Sender: "juno1owner",
		Label:  "andr",
		Msg:    json.RawMessage(`{"name":"Andromeda","symbol":"ANDR","decimals":6,"initial_balances":[{"address":"juno1alice","amount":"1000"}]}`),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created host.Result
	require.NoError(t, json.Unmarshal(body, &created))
	require.NotEmpty(t, created.Contract)
	require.NotEmpty(t, created.TxID)
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, body = postJSON(t, srv.URL+"/contracts/"+created.Contract+"/execute", executeRequest{
		Sender: "juno1alice",
		Msg:    json.RawMessage(`{"transfer":{"recipient":"juno1bob","amount":"400"}}`),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = postJSON(t, srv.URL+"/contracts/"+created.Contract+"/query", map[string]interface{}{
		"balance": map[string]string{"address": "juno1bob"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"balance":"400"}`, string(body))

	resp, body = postJSON(t, srv.URL+"/contracts/"+created.Contract+"/execute", executeRequest{
		Sender: "juno1bob",
		Msg:    json.RawMessage(`{"transfer":{"recipient":"juno1alice","amount":"401"}}`),
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Contains(t, string(body), "error")

	listResp, err := http.Get(srv.URL + "/contracts")
	require.NoError(t, err)
	defer listResp.Body.Close()
	var contracts []host.ContractInfo
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&contracts))
	require.Len(t, contracts, 1)
	require.Equal(t, "andr", contracts[0].Label)
}

func TestServerUnknownContract(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, _ := postJSON(t, srv.URL+"/contracts/andr1missing/execute", executeRequest{Sender: "juno1alice"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = postJSON(t, srv.URL+"/contracts", instantiateRequest{Code: "nope", Sender: "juno1alice", Label: "x"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = postJSON(t, srv.URL+"/contracts", map[string]string{"unexpected": "field"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServerFaucetAndBalance(t *testing.T) {
	srv, app := newTestServer(t)
	resp, body := postJSON(t, srv.URL+"/faucet", map[string]interface{}{
		"address": "juno1alice",
		"coins":   []map[string]string{{"denom": "uusd", "amount": "250"}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	balance, err := app.Balance("juno1alice", "uusd")
	require.NoError(t, err)
	require.Equal(t, "250", balance.String())

	get, err := http.Get(srv.URL + "/balances/juno1alice/uusd")
	require.NoError(t, err)
	defer get.Body.Close()
	var out balanceResponse
	require.NoError(t, json.NewDecoder(get.Body).Decode(&out))
	require.Equal(t, "250", out.Amount.String())
}

func TestServerMetricsAndHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	postJSON(t, srv.URL+"/contracts", instantiateRequest{Code: "cw20", Sender: "juno1owner", Label: "m", Msg: json.RawMessage(`{"name":"M","symbol":"M","decimals":0,"initial_balances":[]}`)})

	health, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	health.Body.Close()
	require.Equal(t, http.StatusOK, health.StatusCode)

	metrics, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	text, err := io.ReadAll(metrics.Body)
	require.NoError(t, err)
	require.Contains(t, string(text), "andromeda_contract_calls_total")
}

func TestRateLimiterPerClient(t *testing.T) {
	limiter := newRateLimiter(1, 2)
	now := time.Unix(1_700_000_000, 0)
	limiter.clockNow = func() time.Time { return now }

	require.True(t, limiter.allow("10.0.0.1"))
	require.True(t, limiter.allow("10.0.0.1"))
	require.False(t, limiter.allow("10.0.0.1"))
	require.True(t, limiter.allow("10.0.0.2"))

	now = now.Add(time.Second)
	require.True(t, limiter.allow("10.0.0.1"))

	now = now.Add(10 * time.Minute)
	limiter.allow("10.0.0.3")
	require.Len(t, limiter.visitors, 1)
}

func TestClientID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	require.Equal(t, "192.0.2.1", clientID(req))
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	require.Equal(t, "203.0.113.7", clientID(req))
	req.Header.Set("X-Real-IP", "198.51.100.2")
	require.Equal(t, "198.51.100.2", clientID(req))
}
