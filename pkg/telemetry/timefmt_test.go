package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormatTimestampUnix(t *testing.T) {
	require.Equal(t, int64(1625097600), FormatTimestamp(1625097600, TimeUnix))
	require.Equal(t, int64(1700000000000), FormatTimestamp(1700000000000, TimeUnix))
}

func TestFormatTimestampISO(t *testing.T) {
	// 10 digits: second resolution.
	require.Equal(t, "2021-07-01T00:00:00.000Z", FormatTimestamp(1625097600, TimeISO))
	// 13 digits: already milliseconds.
	require.Equal(t, "2023-11-14T22:13:20.000Z", FormatTimestamp(1700000000000, TimeISO))
}

func TestFormatTimestampHuman(t *testing.T) {
	require.Equal(t, "7/1/2021, 12:00:00 AM", FormatTimestamp(1625097600, TimeHuman))
}

func TestFormatTimestampInvalidEpoch(t *testing.T) {
	// Out-of-range epochs come back unchanged under every non-unix mode.
	huge := int64(9_000_000_000_000_000)
	require.Equal(t, huge, FormatTimestamp(huge, TimeISO))
	require.Equal(t, huge, FormatTimestamp(huge, TimeHuman))
	require.Equal(t, huge, FormatTimestamp(huge, TimeRelative))
	require.Equal(t, -huge, FormatTimestamp(-huge, TimeISO))
}

func TestFormatTimestampRelative(t *testing.T) {
	now := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC) // epoch 1700000000000

	cases := []struct {
		epoch int64
		want  string
	}{
		{1700000000000 - 5*1000, "5 seconds ago"},
		{1700000000000 - 60*1000, "1 minute ago"},
		{1700000000000 - 2*3600*1000, "2 hours ago"},
		{1700000000000 - 3*24*3600*1000, "3 days ago"},
		{1700000000000 - 45*24*3600*1000, "1 month ago"},
		{1700000000000 - 800*24*3600*1000, "2 years ago"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, FormatTimestampAt(tc.epoch, TimeRelative, now))
	}
}

func TestTimeFormatValid(t *testing.T) {
	require.True(t, TimeISO.Valid())
	require.True(t, TimeUnix.Valid())
	require.False(t, TimeFormat("rfc822").Valid())
}
