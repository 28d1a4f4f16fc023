package telemetry

// NullMode selects how absent telemetry values are represented in an export.
type NullMode string

const (
	NullEmpty   NullMode = "empty"  // substitute ""
	NullLiteral NullMode = "null"   // substitute the string "null"
	NullSkip    NullMode = "skip"   // drop the record or leave the pivot cell unset
	NullCustom  NullMode = "custom" // substitute a caller-provided string
)

// Valid reports whether m is a known null-handling mode.
func (m NullMode) Valid() bool {
	switch m {
	case NullEmpty, NullLiteral, NullSkip, NullCustom:
		return true
	}
	return false
}

// ResolveNull applies the null policy to a decoded value. Non-nil values pass
// through unchanged with keep=true. Nil values are substituted per mode;
// keep=false means the field is absent and must be omitted entirely, which is
// distinct from any substitution (including the empty string).
func ResolveNull(value any, mode NullMode, custom string) (resolved any, keep bool) {
	if value != nil {
		return value, true
	}
	switch mode {
	case NullEmpty:
		return "", true
	case NullLiteral:
		return "null", true
	case NullCustom:
		return custom, true
	default: // NullSkip
		return nil, false
	}
}
