package dynamo

import "fmt"

// StabilityClass labels the local phase portrait around an equilibrium.
type StabilityClass int

const (
	Unclassified StabilityClass = iota
	StableNode
	UnstableNode
	Saddle
	StableFocus
	UnstableFocus
	Center
	Degenerate
)

var stabilityNames = [...]string{
	Unclassified:  "unclassified",
	StableNode:    "stable node",
	UnstableNode:  "unstable node",
	Saddle:        "saddle",
	StableFocus:   "stable focus",
	UnstableFocus: "unstable focus",
	Center:        "center",
	Degenerate:    "degenerate",
}

func (c StabilityClass) String() string {
	if c < 0 || int(c) >= len(stabilityNames) {
		return fmt.Sprintf("StabilityClass(%d)", int(c))
	}
	return stabilityNames[c]
}

func (c StabilityClass) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func ParseStabilityClass(s string) (StabilityClass, error) {
	for i, name := range stabilityNames {
		if name == s {
			return StabilityClass(i), nil
		}
	}
	return Unclassified, fmt.Errorf("%w: stability class %q", ErrUnknownKind, s)
}

// IsStable reports whether nearby trajectories converge to the equilibrium.
func (c StabilityClass) IsStable() bool {
	return c == StableNode || c == StableFocus
}

// Verdict is the stability of a fixed point of a map, decided by the
// magnitude of its multiplier or the spectral radius of its Jacobian.
type Verdict int

const (
	VerdictUnknown Verdict = iota
	VerdictStable
	VerdictUnstable
	VerdictCritical
)

func (v Verdict) String() string {
	switch v {
	case VerdictStable:
		return "stable"
	case VerdictUnstable:
		return "unstable"
	case VerdictCritical:
		return "critical"
	default:
		return "unknown"
	}
}

func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// VerdictFor maps a multiplier magnitude to a verdict.
func VerdictFor(magnitude float64) Verdict {
	switch {
	case magnitude < 1:
		return VerdictStable
	case magnitude > 1:
		return VerdictUnstable
	case magnitude == 1:
		return VerdictCritical
	default:
		return VerdictUnknown
	}
}
