package ado

import (
	"andromeda/core/host"
)

// UpdateLegacyOwnerMsg is the body of update_legacy_owner.
type UpdateLegacyOwnerMsg struct {
	NewOwner string `json:"new_owner"`
}

// MigrateMsg is the (empty) migrate body accepted by every contract.
type MigrateMsg struct{}

// LegacyOwnerResponse answers legacy_owner queries.
type LegacyOwnerResponse struct {
	LegacyOwner string `json:"legacy_owner"`
}

// LegacyOwnerReply encodes the legacy owner, or none when unset.
func LegacyOwnerReply(b *Base, none string) ([]byte, error) {
	legacy, ok, err := b.LegacyOwner()
	if err != nil {
		return nil, err
	}
	if !ok {
		legacy = none
	}
	return host.EncodeReply(LegacyOwnerResponse{LegacyOwner: legacy})
}

// HandleMigrate runs the version gate and reports the new version.
func HandleMigrate(state State, name, version string) (*host.Response, error) {
	if err := Migrate(state, name, version); err != nil {
		return nil, err
	}
	return host.NewResponse().
		AddAttribute("action", "migrate").
		AddAttribute("version", version), nil
}
