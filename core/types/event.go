package types

// Event represents a typed event emitted during contract execution. Contract
// is filled in by the host with the emitting contract's address.
type Event struct {
	Type       string            `json:"type"`
	Contract   string            `json:"contract,omitempty"`
	Attributes map[string]string `json:"attributes"`
}
