package ingest

import "fmt"

// Validation and cardinality limits for telemetry ingestion.
const (
	MaxKeyLength         = 256   // Maximum telemetry key length
	MaxValuesPerRequest  = 1000  // Maximum values in a single request
	MaxStringValueLength = 65536 // Maximum encoded string or JSON value length

	// MaxKeysPerDevice caps distinct telemetry keys per device.
	MaxKeysPerDevice = 10000

	// MaxTotalKeys caps distinct (device, key) series across all devices.
	MaxTotalKeys = 1000000
)

var (
	// ErrKeyEmpty is returned when a telemetry key is empty
	ErrKeyEmpty = fmt.Errorf("telemetry key cannot be empty")

	// ErrKeyTooLong is returned when a telemetry key is too long
	ErrKeyTooLong = fmt.Errorf("telemetry key too long (max %d chars)", MaxKeyLength)

	// ErrValueTooLong is returned when an encoded value is too long
	ErrValueTooLong = fmt.Errorf("telemetry value too long (max %d bytes)", MaxStringValueLength)

	// ErrTooManyValues is returned when a request carries too many values
	ErrTooManyValues = fmt.Errorf("too many values in request (max %d)", MaxValuesPerRequest)

	// ErrCardinalityLimit is returned when the global series limit is exceeded
	ErrCardinalityLimit = fmt.Errorf("cardinality limit exceeded (max %d series)", MaxTotalKeys)

	// ErrDeviceCardinalityLimit is returned when a single device's key limit is exceeded
	ErrDeviceCardinalityLimit = fmt.Errorf("device cardinality limit exceeded (max %d keys per device)", MaxKeysPerDevice)
)

// ValidateKey checks one telemetry key against the ingest limits.
func ValidateKey(key string) error {
	if key == "" {
		return ErrKeyEmpty
	}
	if len(key) > MaxKeyLength {
		return fmt.Errorf("%w: %q has %d chars", ErrKeyTooLong, key, len(key))
	}
	return nil
}
