package ingest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCardinalityTrackerAllowsKnownSeries(t *testing.T) {
	c := NewCardinalityTracker()
	require.NoError(t, c.Check("dev-1", "temperature"))
	c.Record("dev-1", "temperature")

	// Re-checking a recorded series always passes
	require.NoError(t, c.Check("dev-1", "temperature"))
	require.Equal(t, 1, c.TotalKeys())
}

func TestCardinalityTrackerCountsOnce(t *testing.T) {
	c := NewCardinalityTracker()
	c.Record("dev-1", "temperature")
	c.Record("dev-1", "temperature")
	c.Record("dev-1", "humidity")
	require.Equal(t, 2, c.TotalKeys())
}

func TestCardinalityTrackerDeviceLimit(t *testing.T) {
	c := NewCardinalityTracker()
	c.keysPerDevice["dev-1"] = MaxKeysPerDevice

	err := c.Check("dev-1", "one-too-many")
	require.ErrorIs(t, err, ErrDeviceCardinalityLimit)

	// Other devices are unaffected
	require.NoError(t, c.Check("dev-2", "temperature"))
}

func TestCardinalityTrackerGlobalLimit(t *testing.T) {
	c := NewCardinalityTracker()
	c.totalKeys = MaxTotalKeys

	err := c.Check("dev-1", "temperature")
	require.ErrorIs(t, err, ErrCardinalityLimit)
}

func TestValidateKey(t *testing.T) {
	require.ErrorIs(t, ValidateKey(""), ErrKeyEmpty)
	require.NoError(t, ValidateKey("temperature"))

	long := fmt.Sprintf("%0*d", MaxKeyLength+1, 0)
	require.ErrorIs(t, ValidateKey(long), ErrKeyTooLong)
}
