package ingest

import (
	"sync"
	"time"
)

// CardinalityTracker tracks unique (device, key) series to enforce
// cardinality limits.
// SAFETY: Periodically clears old series to prevent unbounded memory growth
type CardinalityTracker struct {
	mu sync.RWMutex

	// keysPerDevice tracks unique keys per device
	keysPerDevice map[string]int

	// totalKeys tracks unique series across all devices
	totalKeys int

	// seriesSeen maps seriesKey(deviceID, key) to last-seen time
	seriesSeen map[string]time.Time

	lastCleanup time.Time
}

const (
	// Clean up series not seen in last 24 hours
	seriesRetentionPeriod = 24 * time.Hour

	// Run cleanup every hour
	cleanupInterval = 1 * time.Hour
)

// NewCardinalityTracker creates a new cardinality tracker.
func NewCardinalityTracker() *CardinalityTracker {
	return &CardinalityTracker{
		keysPerDevice: make(map[string]int),
		seriesSeen:    make(map[string]time.Time),
		lastCleanup:   time.Now(),
	}
}

func seriesKey(deviceID, key string) string {
	return deviceID + "\x00" + key
}

// Check validates that writing this key won't exceed cardinality limits.
func (c *CardinalityTracker) Check(deviceID, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupOldSeriesLocked()

	// A recently seen series is always allowed
	if _, exists := c.seriesSeen[seriesKey(deviceID, key)]; exists {
		return nil
	}

	if c.totalKeys >= MaxTotalKeys {
		return ErrCardinalityLimit
	}
	if c.keysPerDevice[deviceID] >= MaxKeysPerDevice {
		return ErrDeviceCardinalityLimit
	}
	return nil
}

// Record marks a series as seen, updating counters.
// Should be called after Check() passes and the row is successfully written.
func (c *CardinalityTracker) Record(deviceID, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sk := seriesKey(deviceID, key)
	_, existed := c.seriesSeen[sk]
	c.seriesSeen[sk] = time.Now()

	if !existed {
		c.keysPerDevice[deviceID]++
		c.totalKeys++
	}
}

// TotalKeys returns the number of live series.
func (c *CardinalityTracker) TotalKeys() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.totalKeys
}

// cleanupOldSeriesLocked removes series not seen in seriesRetentionPeriod.
// MUST be called with lock held.
func (c *CardinalityTracker) cleanupOldSeriesLocked() {
	now := time.Now()
	if now.Sub(c.lastCleanup) < cleanupInterval {
		return
	}
	c.lastCleanup = now
	cutoff := now.Add(-seriesRetentionPeriod)

	for sk, lastSeen := range c.seriesSeen {
		if !lastSeen.Before(cutoff) {
			continue
		}
		delete(c.seriesSeen, sk)
		c.totalKeys--

		// seriesKey embeds the device ID before the NUL separator
		for i := 0; i < len(sk); i++ {
			if sk[i] == 0 {
				deviceID := sk[:i]
				if c.keysPerDevice[deviceID] > 1 {
					c.keysPerDevice[deviceID]--
				} else {
					delete(c.keysPerDevice, deviceID)
				}
				break
			}
		}
	}
}
