package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveNullPassthrough(t *testing.T) {
	v, keep := ResolveNull(21.5, NullSkip, "")
	require.True(t, keep)
	require.Equal(t, 21.5, v)

	// Empty string is a value, not a null.
	v, keep = ResolveNull("", NullSkip, "")
	require.True(t, keep)
	require.Equal(t, "", v)
}

func TestResolveNullModes(t *testing.T) {
	v, keep := ResolveNull(nil, NullEmpty, "")
	require.True(t, keep)
	require.Equal(t, "", v)

	v, keep = ResolveNull(nil, NullLiteral, "")
	require.True(t, keep)
	require.Equal(t, "null", v)

	v, keep = ResolveNull(nil, NullCustom, "N/A")
	require.True(t, keep)
	require.Equal(t, "N/A", v)

	// Custom without a custom value defaults to the empty string.
	v, keep = ResolveNull(nil, NullCustom, "")
	require.True(t, keep)
	require.Equal(t, "", v)

	_, keep = ResolveNull(nil, NullSkip, "")
	require.False(t, keep)
}

func TestNullModeValid(t *testing.T) {
	require.True(t, NullEmpty.Valid())
	require.True(t, NullCustom.Valid())
	require.False(t, NullMode("drop").Valid())
}
