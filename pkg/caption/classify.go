package caption

import "strings"

// Kind categorizes an inference failure for user-facing guidance.
type Kind int

const (
	KindGeneric Kind = iota
	KindOutOfMemory
	KindConnectivity
)

func (k Kind) String() string {
	switch k {
	case KindOutOfMemory:
		return "out_of_memory"
	case KindConnectivity:
		return "connectivity"
	default:
		return "generic"
	}
}

// ClassifyError maps an error message to a guidance category by
// case-insensitive substring matching. Backend error text is not a stable
// contract, so this is best-effort polish: anything unrecognized is Generic.
func ClassifyError(msg string) Kind {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "out of memory"):
		return KindOutOfMemory
	case strings.Contains(lower, "connection"):
		return KindConnectivity
	default:
		return KindGeneric
	}
}
