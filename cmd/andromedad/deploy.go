package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"andromeda/core/host"
	"andromeda/core/types"
)

// Manifest describes the accounts to fund and the contracts to instantiate
// when a node starts on an empty database.
type Manifest struct {
	Accounts  []FundedAccount `yaml:"accounts"`
	Contracts []Deployment    `yaml:"contracts"`
}

type FundedAccount struct {
	Address string       `yaml:"address"`
	Coins   []types.Coin `yaml:"coins"`
}

// Deployment is one contract instantiation. Strings in Msg of the form
// ${label} are replaced by the address of an earlier deployment.
type Deployment struct {
	Label  string       `yaml:"label"`
	Code   string       `yaml:"code"`
	Sender string       `yaml:"sender"`
	Admin  string       `yaml:"admin"`
	Msg    interface{}  `yaml:"msg"`
	Funds  []types.Coin `yaml:"funds"`
}

func loadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	seen := make(map[string]struct{}, len(manifest.Contracts))
	for i, d := range manifest.Contracts {
		if strings.TrimSpace(d.Label) == "" || strings.TrimSpace(d.Code) == "" || strings.TrimSpace(d.Sender) == "" {
			return nil, fmt.Errorf("manifest contract %d: label, code and sender are required", i)
		}
		if _, dup := seen[d.Label]; dup {
			return nil, fmt.Errorf("manifest contract %d: duplicate label %q", i, d.Label)
		}
		seen[d.Label] = struct{}{}
	}
	return &manifest, nil
}

// applyManifest funds accounts and instantiates contracts in order. Contracts
// whose label already exists are left alone, so restarts are no-ops. Accounts
// are only funded on an empty database.
func applyManifest(app *host.App, manifest *Manifest, logger *slog.Logger) (map[string]string, error) {
	existing, err := app.Contracts()
	if err != nil {
		return nil, err
	}
	addresses := make(map[string]string, len(existing)+len(manifest.Contracts))
	for _, info := range existing {
		addresses[info.Label] = info.Address
	}
	if len(existing) == 0 {
		for _, acct := range manifest.Accounts {
			if err := app.Mint(acct.Address, acct.Coins); err != nil {
				return nil, fmt.Errorf("fund %s: %w", acct.Address, err)
			}
			logger.Info("funded account", slog.String("address", acct.Address), slog.String("coins", types.CoinsString(acct.Coins)))
		}
	}
	for _, d := range manifest.Contracts {
		if addr, ok := addresses[d.Label]; ok {
			logger.Debug("contract already deployed", slog.String("label", d.Label), slog.String("contract", addr))
			continue
		}
		msg, err := renderMsg(d.Msg, addresses)
		if err != nil {
			return nil, fmt.Errorf("contract %s: %w", d.Label, err)
		}
		res, err := app.Instantiate(d.Code, d.Sender, d.Label, d.Admin, msg, d.Funds)
		if err != nil {
			return nil, fmt.Errorf("instantiate %s (%s): %w", d.Label, d.Code, err)
		}
		addresses[d.Label] = res.Contract
		logger.Info("deployed contract",
			slog.String("label", d.Label),
			slog.String("code", d.Code),
			slog.String("contract", res.Contract),
			slog.String("tx_id", res.TxID))
	}
	return addresses, nil
}

func renderMsg(msg interface{}, addresses map[string]string) ([]byte, error) {
	if msg == nil {
		return []byte("{}"), nil
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode msg: %w", err)
	}
	text := os.Expand(string(raw), func(label string) string {
		if addr, ok := addresses[label]; ok {
			return addr
		}
		return "${" + label + "}"
	})
	if strings.Contains(text, "${") {
		return nil, fmt.Errorf("msg references an unknown deployment: %s", text)
	}
	return []byte(text), nil
}
