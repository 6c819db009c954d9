package account

import (
	"errors"
	"fmt"
	"strings"

	"andromeda/core/types"
	"andromeda/native/ado"
)

var (
	errNilState = errors.New("account engine: state not configured")

	ErrNoDelayGatekeeper     = errors.New("account: no known delay gatekeeper address")
	ErrAndromedaUnsupported  = errors.New("account: Andromeda messages are not supported yet")
	ErrNoMessages            = errors.New("account: no message to check")
	ErrOwnerUpdatePending    = errors.New("account: an owner update is pending in the delay gatekeeper")
	ErrAccountNotInitialised = errors.New("account: configuration not found")
)

var configKey = []byte("account/config")

// UserAccount wires an account to its gatekeepers. Every field is optional;
// a missing gatekeeper makes the checks it backs fail closed.
type UserAccount struct {
	LegacyOwner                      *string `json:"legacy_owner"`
	OwnerUpdatesDelaySecs            *uint64 `json:"owner_updates_delay_secs"`
	SpendlimitGatekeeperContractAddr *string `json:"spendlimit_gatekeeper_contract_addr"`
	DelayGatekeeperContractAddr      *string `json:"delay_gatekeeper_contract_addr"`
	MessageGatekeeperContractAddr    *string `json:"message_gatekeeper_contract_addr"`
	SessionkeyGatekeeperContractAddr *string `json:"sessionkey_gatekeeper_contract_addr"`
	DebtGatekeeperContractAddr       *string `json:"debt_gatekeeper_contract_addr"`
}

// Validate checks every configured address.
func (a UserAccount) Validate() error {
	for name, addr := range map[string]*string{
		"legacy_owner":                        a.LegacyOwner,
		"spendlimit_gatekeeper_contract_addr": a.SpendlimitGatekeeperContractAddr,
		"delay_gatekeeper_contract_addr":      a.DelayGatekeeperContractAddr,
		"message_gatekeeper_contract_addr":    a.MessageGatekeeperContractAddr,
		"sessionkey_gatekeeper_contract_addr": a.SessionkeyGatekeeperContractAddr,
		"debt_gatekeeper_contract_addr":       a.DebtGatekeeperContractAddr,
	} {
		if addr == nil {
			continue
		}
		if err := types.ValidateAddress(strings.TrimSpace(*addr)); err != nil {
			return fmt.Errorf("account: %s: %w", name, err)
		}
	}
	return nil
}

// GatekeeperResponse lists the attached gatekeeper contracts.
type GatekeeperResponse struct {
	SpendlimitGatekeeperContractAddr *string `json:"spendlimit_gatekeeper_contract_addr"`
	DelayGatekeeperContractAddr      *string `json:"delay_gatekeeper_contract_addr"`
	MessageGatekeeperContractAddr    *string `json:"message_gatekeeper_contract_addr"`
	SessionkeyGatekeeperContractAddr *string `json:"sessionkey_gatekeeper_contract_addr"`
	DebtGatekeeperContractAddr       *string `json:"debt_gatekeeper_contract_addr"`
}

// accountRecord is the stored configuration; an empty address means unset.
// The legacy owner lives in the ADO base record.
type accountRecord struct {
	HasDelay        bool
	DelaySecs       uint64
	Spendlimit      string
	Delay           string
	Message         string
	Sessionkey      string
	Debt            string
	HasStartingDebt bool
	StartingUSDDebt uint64
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toRecord(a UserAccount, startingDebt *uint64) accountRecord {
	rec := accountRecord{
		Spendlimit: trimmed(a.SpendlimitGatekeeperContractAddr),
		Delay:      trimmed(a.DelayGatekeeperContractAddr),
		Message:    trimmed(a.MessageGatekeeperContractAddr),
		Sessionkey: trimmed(a.SessionkeyGatekeeperContractAddr),
		Debt:       trimmed(a.DebtGatekeeperContractAddr),
	}
	if a.OwnerUpdatesDelaySecs != nil {
		rec.HasDelay = true
		rec.DelaySecs = *a.OwnerUpdatesDelaySecs
	}
	if startingDebt != nil {
		rec.HasStartingDebt = true
		rec.StartingUSDDebt = *startingDebt
	}
	return rec
}

func (rec accountRecord) gatekeepers() GatekeeperResponse {
	return GatekeeperResponse{
		SpendlimitGatekeeperContractAddr: optional(rec.Spendlimit),
		DelayGatekeeperContractAddr:      optional(rec.Delay),
		MessageGatekeeperContractAddr:    optional(rec.Message),
		SessionkeyGatekeeperContractAddr: optional(rec.Sessionkey),
		DebtGatekeeperContractAddr:       optional(rec.Debt),
	}
}

func loadRecord(state ado.State) (accountRecord, error) {
	if state == nil {
		return accountRecord{}, errNilState
	}
	var rec accountRecord
	ok, err := state.KVGet(configKey, &rec)
	if err != nil {
		return accountRecord{}, err
	}
	if !ok {
		return accountRecord{}, ErrAccountNotInitialised
	}
	return rec, nil
}

func storeRecord(state ado.State, rec accountRecord) error {
	if state == nil {
		return errNilState
	}
	return state.KVPut(configKey, rec)
}
