package ado

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

var contractInfoKey = []byte("ado/contract_info")

// ErrInvalidVersion is returned for versions that are not semantic versions.
var ErrInvalidVersion = errors.New("ado: invalid semantic version")

// ContractVersion is the stored name and version of the running code.
type ContractVersion struct {
	Contract string `json:"contract"`
	Version  string `json:"version"`
}

// CannotMigrateError reports a migration to a different contract or to a
// version that is not newer than the stored one.
type CannotMigrateError struct {
	PreviousContract string
}

func (e *CannotMigrateError) Error() string {
	return fmt.Sprintf("ado: cannot migrate from %s", e.PreviousContract)
}

func canonicalVersion(v string) (string, error) {
	trimmed := strings.TrimSpace(v)
	if !strings.HasPrefix(trimmed, "v") {
		trimmed = "v" + trimmed
	}
	if !semver.IsValid(trimmed) {
		return "", fmt.Errorf("%w: %q", ErrInvalidVersion, v)
	}
	return trimmed, nil
}

// SetContractVersion records name and version.
func SetContractVersion(state State, name, version string) error {
	if _, err := canonicalVersion(version); err != nil {
		return err
	}
	return state.KVPut(contractInfoKey, ContractVersion{Contract: name, Version: version})
}

// GetContractVersion loads the stored record.
func GetContractVersion(state State) (ContractVersion, error) {
	var stored ContractVersion
	ok, err := state.KVGet(contractInfoKey, &stored)
	if err != nil {
		return ContractVersion{}, err
	}
	if !ok {
		return ContractVersion{}, ErrNotInitialised
	}
	return stored, nil
}

// Migrate upgrades the stored version to version. The stored contract name must
// equal name and the stored version must be strictly lower.
func Migrate(state State, name, version string) error {
	stored, err := GetContractVersion(state)
	if err != nil {
		return err
	}
	if stored.Contract != name {
		return &CannotMigrateError{PreviousContract: stored.Contract}
	}
	prev, err := canonicalVersion(stored.Version)
	if err != nil {
		return err
	}
	next, err := canonicalVersion(version)
	if err != nil {
		return err
	}
	if semver.Compare(prev, next) >= 0 {
		return &CannotMigrateError{PreviousContract: stored.Version}
	}
	return SetContractVersion(state, name, version)
}
