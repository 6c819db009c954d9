package host

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/google/uuid"

	"andromeda/core/types"
	"andromeda/observability"
	"andromeda/storage"
)

const (
	// AddressPrefix prefixes every derived contract address.
	AddressPrefix = "andr1"

	defaultMaxDepth = 16
)

var (
	contractInfoPrefix = []byte("host/contract/")
	sequenceKey        = []byte("host/seq")
	heightKey          = []byte("host/height")
)

// ContractInfo is the host's registry entry for an instantiated contract.
type ContractInfo struct {
	Address string `json:"address"`
	Code    string `json:"code"`
	Label   string `json:"label"`
	Creator string `json:"creator"`
	Admin   string `json:"admin,omitempty"`
}

// ContractEvent groups the attributes one contract returned during a call.
type ContractEvent struct {
	Contract   string      `json:"contract"`
	Attributes []Attribute `json:"attributes"`
}

// Result summarises a committed transaction.
type Result struct {
	TxID       string          `json:"tx_id"`
	Height     uint64          `json:"height"`
	Contract   string          `json:"contract,omitempty"`
	Data       []byte          `json:"data,omitempty"`
	Attributes []ContractEvent `json:"attributes"`
	Events     []types.Event   `json:"events"`
}

type codeEntry struct {
	id       uint64
	name     string
	contract Contract
}

// App hosts native contracts. Every top-level call runs against a cached
// overlay of the database; the overlay is committed as a single batch when the
// call and all of its sub-messages succeed and dropped otherwise.
type App struct {
	mu       sync.Mutex
	db       storage.Database
	codes    map[string]*codeEntry
	codeIDs  map[uint64]*codeEntry
	logger   *slog.Logger
	nowFn    func() time.Time
	chainID  string
	maxDepth int
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger used for call tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithChainID sets the chain id reported in Env.
func WithChainID(chainID string) Option {
	return func(a *App) { a.chainID = strings.TrimSpace(chainID) }
}

// WithNowFunc overrides the block clock.
func WithNowFunc(now func() time.Time) Option {
	return func(a *App) {
		if now != nil {
			a.nowFn = now
		}
	}
}

// WithMaxDepth bounds sub-message recursion.
func WithMaxDepth(depth int) Option {
	return func(a *App) {
		if depth > 0 {
			a.maxDepth = depth
		}
	}
}

// NewApp constructs a host over db.
func NewApp(db storage.Database, opts ...Option) *App {
	app := &App{
		db:       db,
		codes:    make(map[string]*codeEntry),
		codeIDs:  make(map[uint64]*codeEntry),
		logger:   slog.Default(),
		nowFn:    func() time.Time { return time.Now().UTC() },
		chainID:  "andromeda-local",
		maxDepth: defaultMaxDepth,
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// SetNowFunc overrides the block clock. Passing nil restores the UTC clock.
func (a *App) SetNowFunc(now func() time.Time) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if now == nil {
		a.nowFn = func() time.Time { return time.Now().UTC() }
		return
	}
	a.nowFn = now
}

// RegisterCode makes a contract implementation instantiable under name and
// returns its numeric code id. Registering the same name twice replaces the
// implementation and keeps the id.
func (a *App) RegisterCode(name string, contract Contract) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if existing, ok := a.codes[name]; ok {
		existing.contract = contract
		return existing.id
	}
	entry := &codeEntry{id: uint64(len(a.codes) + 1), name: name, contract: contract}
	a.codes[name] = entry
	a.codeIDs[entry.id] = entry
	return entry.id
}

// Codes lists registered code names ordered by id.
func (a *App) Codes() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	names := make([]string, len(a.codeIDs))
	for id, entry := range a.codeIDs {
		names[id-1] = entry.name
	}
	return names
}

// Instantiate creates a new contract from code and returns its address in
// Result.Contract.
func (a *App) Instantiate(code, sender, label, admin string, msg []byte, funds []types.Coin) (*Result, error) {
	return a.run("instantiate", func(tx *txContext) error {
		entry, ok := a.codes[code]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownCode, code)
		}
		addr, data, err := tx.instantiate(entry, sender, label, admin, msg, funds, 0)
		if err != nil {
			return err
		}
		tx.result.Contract = addr
		tx.result.Data = data
		return nil
	})
}

// Execute calls contract's execute entry point on behalf of sender.
func (a *App) Execute(sender, contract string, msg []byte, funds []types.Coin) (*Result, error) {
	return a.run("execute", func(tx *txContext) error {
		data, err := tx.execute(sender, contract, msg, funds, 0)
		if err != nil {
			return err
		}
		tx.result.Contract = contract
		tx.result.Data = data
		return nil
	})
}

// Migrate moves contract to code. Only the contract admin may migrate.
func (a *App) Migrate(sender, contract, code string, msg []byte) (*Result, error) {
	return a.run("migrate", func(tx *txContext) error {
		entry, ok := a.codes[code]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownCode, code)
		}
		data, err := tx.migrate(sender, contract, entry, msg, 0)
		if err != nil {
			return err
		}
		tx.result.Contract = contract
		tx.result.Data = data
		return nil
	})
}

// Query runs a smart query against the committed state.
func (a *App) Query(contract string, msg []byte) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	tx, err := a.newTx()
	if err != nil {
		return nil, err
	}
	return tx.query(contract, msg, 0)
}

// Balance returns the native balance of addr.
func (a *App) Balance(addr, denom string) (types.Uint128, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return bank{db: a.db}.balance(addr, denom)
}

// Mint credits coins to addr outside of any contract call. It is used to fund
// accounts from a deployment manifest and in tests.
func (a *App) Mint(addr string, coins []types.Coin) error {
	if err := types.ValidateCoins(coins); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	cache := storage.NewCacheDB(a.db)
	if err := (bank{db: cache}).mint(addr, coins); err != nil {
		return err
	}
	return cache.Commit()
}

// Contract returns the registry entry for addr.
func (a *App) Contract(addr string) (ContractInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	info, ok, err := loadContractInfo(a.db, addr)
	if err != nil {
		return ContractInfo{}, err
	}
	if !ok {
		return ContractInfo{}, fmt.Errorf("%w: %s", ErrUnknownContract, addr)
	}
	return info, nil
}

// Contracts lists every instantiated contract ordered by address.
func (a *App) Contracts() ([]ContractInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []ContractInfo
	var decodeErr error
	err := a.db.Iterate(contractInfoPrefix, func(key, value []byte) bool {
		var info ContractInfo
		if err := rlp.DecodeBytes(value, &info); err != nil {
			decodeErr = err
			return false
		}
		out = append(out, info)
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out, err
}

// Height returns the height of the last committed transaction.
func (a *App) Height() (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return loadUint64(a.db, heightKey)
}

func (a *App) newTx() (*txContext, error) {
	cache := storage.NewCacheDB(a.db)
	height, err := loadUint64(cache, heightKey)
	if err != nil {
		return nil, err
	}
	return &txContext{
		app: a,
		db:  cache,
		block: BlockInfo{
			Height:  height,
			Time:    a.nowFn().UTC(),
			ChainID: a.chainID,
		},
		result: &Result{TxID: uuid.NewString(), Height: height},
	}, nil
}

func (a *App) run(entry string, fn func(tx *txContext) error) (*Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	tx, err := a.newTx()
	if err != nil {
		return nil, err
	}
	tx.block.Height++
	tx.result.Height = tx.block.Height

	if err := fn(tx); err != nil {
		tx.db.Discard()
		observability.ContractMetrics().RecordRollback(entry)
		a.logger.Warn("transaction rolled back",
			slog.String("tx_id", tx.result.TxID),
			slog.String("entry", entry),
			slog.Any("error", err))
		return nil, err
	}
	if err := storeUint64(tx.db, heightKey, tx.block.Height); err != nil {
		return nil, err
	}
	if err := tx.db.Commit(); err != nil {
		return nil, fmt.Errorf("host: commit: %w", err)
	}
	a.logger.Debug("transaction committed",
		slog.String("tx_id", tx.result.TxID),
		slog.String("entry", entry),
		slog.Uint64("height", tx.block.Height))
	return tx.result, nil
}

func deriveAddress(creator, label string, seq uint64) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seq)
	hash := ethcrypto.Keccak256([]byte(creator), []byte{0}, []byte(label), buf[:])
	return AddressPrefix + hex.EncodeToString(hash[:20])
}

func contractInfoKey(addr string) []byte {
	return append(append([]byte(nil), contractInfoPrefix...), addr...)
}

func loadContractInfo(db storage.Database, addr string) (ContractInfo, bool, error) {
	data, err := db.Get(contractInfoKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return ContractInfo{}, false, nil
	}
	if err != nil {
		return ContractInfo{}, false, err
	}
	var info ContractInfo
	if err := rlp.DecodeBytes(data, &info); err != nil {
		return ContractInfo{}, false, fmt.Errorf("host: decode contract info: %w", err)
	}
	return info, true, nil
}

func storeContractInfo(db storage.Database, info ContractInfo) error {
	encoded, err := rlp.EncodeToBytes(info)
	if err != nil {
		return err
	}
	return db.Put(contractInfoKey(info.Address), encoded)
}

func loadUint64(db storage.Database, key []byte) (uint64, error) {
	data, err := db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var v uint64
	if err := rlp.DecodeBytes(data, &v); err != nil {
		return 0, err
	}
	return v, nil
}

func storeUint64(db storage.Database, key []byte, v uint64) error {
	encoded, err := rlp.EncodeToBytes(v)
	if err != nil {
		return err
	}
	return db.Put(key, encoded)
}
