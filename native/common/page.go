package common

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 30
)

// PageLimit clamps a requested page size: nil gives the default, anything
// above the maximum is capped.
func PageLimit(requested *uint32) int {
	if requested == nil {
		return DefaultPageLimit
	}
	if *requested > MaxPageLimit {
		return MaxPageLimit
	}
	return int(*requested)
}
