package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"andromeda/core/host"
	"andromeda/core/types"
)

const maxBodyBytes = 1 << 20

type serverConfig struct {
	MetricsEnabled     bool
	RateLimitPerSecond float64
	RateLimitBurst     int
}

type server struct {
	app    *host.App
	logger *slog.Logger
}

type instantiateRequest struct {
	Code   string          `json:"code"`
	Sender string          `json:"sender"`
	Label  string          `json:"label"`
	Admin  string          `json:"admin,omitempty"`
	Msg    json.RawMessage `json:"msg"`
	Funds  []types.Coin    `json:"funds,omitempty"`
}

type executeRequest struct {
	Sender string          `json:"sender"`
	Msg    json.RawMessage `json:"msg"`
	Funds  []types.Coin    `json:"funds,omitempty"`
}

type migrateRequest struct {
	Sender string          `json:"sender"`
	Code   string          `json:"code"`
	Msg    json.RawMessage `json:"msg"`
}

type mintRequest struct {
	Address string       `json:"address"`
	Coins   []types.Coin `json:"coins"`
}

type balanceResponse struct {
	Address string        `json:"address"`
	Denom   string        `json:"denom"`
	Amount  types.Uint128 `json:"amount"`
}

// newRouter exposes the host over JSON/HTTP.
func newRouter(app *host.App, logger *slog.Logger, cfg serverConfig) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &server{app: app, logger: logger}
	r := chi.NewRouter()
	r.Use(s.requestID)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Group(func(api chi.Router) {
		api.Use(newRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst).Middleware)
		api.Get("/codes", s.listCodes)
		api.Get("/height", s.height)
		api.Post("/contracts", s.instantiate)
		api.Get("/contracts", s.listContracts)
		api.Get("/contracts/{address}", s.contractInfo)
		api.Post("/contracts/{address}/execute", s.execute)
		api.Post("/contracts/{address}/query", s.query)
		api.Post("/contracts/{address}/migrate", s.migrate)
		api.Get("/balances/{address}/{denom}", s.balance)
		api.Post("/faucet", s.mint)
	})
	return r
}

func (s *server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("http request",
			slog.String("request_id", id),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration", time.Since(start)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeCallError maps host errors onto HTTP statuses.
func writeCallError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, host.ErrUnknownContract), errors.Is(err, host.ErrUnknownCode):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	}
}

func decodeBody(r *http.Request, out interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func rawOrEmpty(msg json.RawMessage) []byte {
	if len(msg) == 0 {
		return []byte("{}")
	}
	return msg
}

func (s *server) listCodes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"codes": s.app.Codes()})
}

func (s *server) height(w http.ResponseWriter, r *http.Request) {
	height, err := s.app.Height()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"height": height})
}

func (s *server) instantiate(w http.ResponseWriter, r *http.Request) {
	var req instantiateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.app.Instantiate(req.Code, req.Sender, req.Label, req.Admin, rawOrEmpty(req.Msg), req.Funds)
	if err != nil {
		writeCallError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *server) listContracts(w http.ResponseWriter, r *http.Request) {
	contracts, err := s.app.Contracts()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if contracts == nil {
		contracts = []host.ContractInfo{}
	}
	writeJSON(w, http.StatusOK, contracts)
}

func (s *server) contractInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.app.Contract(chi.URLParam(r, "address"))
	if err != nil {
		writeCallError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *server) execute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.app.Execute(req.Sender, chi.URLParam(r, "address"), rawOrEmpty(req.Msg), req.Funds)
	if err != nil {
		writeCallError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) query(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.app.Query(chi.URLParam(r, "address"), body)
	if err != nil {
		writeCallError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func (s *server) migrate(w http.ResponseWriter, r *http.Request) {
	var req migrateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.app.Migrate(req.Sender, chi.URLParam(r, "address"), req.Code, rawOrEmpty(req.Msg))
	if err != nil {
		writeCallError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) balance(w http.ResponseWriter, r *http.Request) {
	addr := chi.URLParam(r, "address")
	denom := chi.URLParam(r, "denom")
	amount, err := s.app.Balance(addr, denom)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Address: addr, Denom: denom, Amount: amount})
}

func (s *server) mint(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := types.ValidateAddress(req.Address); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.app.Mint(req.Address, req.Coins); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Info("faucet mint", slog.String("address", req.Address), slog.String("coins", types.CoinsString(req.Coins)))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
