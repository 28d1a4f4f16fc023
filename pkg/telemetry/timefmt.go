package telemetry

import (
	"fmt"
	"time"
)

// TimeFormat selects the timestamp representation used in an export.
type TimeFormat string

const (
	TimeISO      TimeFormat = "iso"      // round-trippable UTC, millisecond precision
	TimeHuman    TimeFormat = "human"    // fixed en-US style display string
	TimeRelative TimeFormat = "relative" // "<n> <unit>s ago"
	TimeUnix     TimeFormat = "unix"     // raw epoch, unchanged
)

// Valid reports whether f is a known time format.
func (f TimeFormat) Valid() bool {
	switch f {
	case TimeISO, TimeHuman, TimeRelative, TimeUnix:
		return true
	}
	return false
}

const (
	// isoLayout matches ECMAScript toISOString output.
	isoLayout = "2006-01-02T15:04:05.000Z"

	// humanLayout is the documented locale for TimeHuman: en-US style,
	// always rendered in UTC. Held constant so exports are reproducible.
	humanLayout = "1/2/2006, 3:04:05 PM"

	// maxEpochMillis bounds representable instants (±100M days from the
	// epoch). Outside this range the raw value is returned unchanged.
	maxEpochMillis = 8_640_000_000_000_000
)

// FormatTimestamp renders an epoch per the requested format. TimeUnix returns
// the raw value unchanged. Other formats first normalize resolution: a
// 10-digit epoch is taken as seconds and scaled to milliseconds. An epoch
// outside the representable range comes back unchanged instead of erroring.
func FormatTimestamp(epoch int64, format TimeFormat) any {
	return FormatTimestampAt(epoch, format, time.Now())
}

// FormatTimestampAt is FormatTimestamp with an explicit reference instant for
// the relative format.
func FormatTimestampAt(epoch int64, format TimeFormat, now time.Time) any {
	if format == TimeUnix {
		return epoch
	}

	millis := epoch
	if decimalDigits(epoch) == 10 {
		millis = epoch * 1000
	}
	if millis < -maxEpochMillis || millis > maxEpochMillis {
		return epoch
	}

	t := time.UnixMilli(millis).UTC()
	switch format {
	case TimeISO:
		return t.Format(isoLayout)
	case TimeHuman:
		return t.Format(humanLayout)
	case TimeRelative:
		return relativeAge(millis, now)
	default:
		return epoch
	}
}

func decimalDigits(n int64) int {
	if n < 0 {
		n = -n
	}
	digits := 1
	for n >= 10 {
		n /= 10
		digits++
	}
	return digits
}

// relativeAge buckets elapsed time into the largest non-zero calendar-ish
// unit (months are 30 days, years 12 months).
func relativeAge(millis int64, now time.Time) string {
	seconds := (now.UnixMilli() - millis) / 1000
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24
	months := days / 30
	years := months / 12

	switch {
	case years > 0:
		return pluralAgo(years, "year")
	case months > 0:
		return pluralAgo(months, "month")
	case days > 0:
		return pluralAgo(days, "day")
	case hours > 0:
		return pluralAgo(hours, "hour")
	case minutes > 0:
		return pluralAgo(minutes, "minute")
	default:
		return pluralAgo(seconds, "second")
	}
}

func pluralAgo(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
