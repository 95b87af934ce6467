package datasource

import "strings"

// ComparisonFlag is one fact learned by comparing a local datasource with
// the server.
type ComparisonFlag uint8

const (
	MissingOnServer ComparisonFlag = 1 << iota
	DifferentFromServer
	SameAsServer
	NotNativeAccess
)

func (f ComparisonFlag) String() string {
	switch f {
	case MissingOnServer:
		return "missing"
	case DifferentFromServer:
		return "different"
	case SameAsServer:
		return "same"
	case NotNativeAccess:
		return "not-native"
	default:
		return "unknown"
	}
}

// Comparison is the set of flags produced by Registry.Compare.
type Comparison struct {
	flags ComparisonFlag
}

func comparisonOf(flags ...ComparisonFlag) Comparison {
	var c Comparison
	for _, f := range flags {
		c.flags |= f
	}
	return c
}

// Has reports whether flag is set.
func (c Comparison) Has(flag ComparisonFlag) bool {
	return c.flags&flag != 0
}

// Flags lists the set flags in declaration order.
func (c Comparison) Flags() []ComparisonFlag {
	var out []ComparisonFlag
	for _, f := range []ComparisonFlag{MissingOnServer, DifferentFromServer, SameAsServer, NotNativeAccess} {
		if c.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// RemoteState collapses a comparison into the single state callers switch on.
type RemoteState int

const (
	StateUnknown RemoteState = iota
	StateNotNative
	StateMissing
	StateDifferent
	StateSame
)

// State returns the dominant state. Not-native wins over everything else.
func (c Comparison) State() RemoteState {
	switch {
	case c.Has(NotNativeAccess):
		return StateNotNative
	case c.Has(MissingOnServer):
		return StateMissing
	case c.Has(DifferentFromServer):
		return StateDifferent
	case c.Has(SameAsServer):
		return StateSame
	default:
		return StateUnknown
	}
}

func (c Comparison) String() string {
	flags := c.Flags()
	if len(flags) == 0 {
		return "{}"
	}
	names := make([]string, len(flags))
	for i, f := range flags {
		names[i] = f.String()
	}
	return "{" + strings.Join(names, ",") + "}"
}
