package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineDistance(t *testing.T) {
	// Barcelona -> Madrid, ~505 km
	d := HaversineDistance(41.3851, 2.1734, 40.4168, -3.7038)
	assert.InDelta(t, 505, d, 5)

	assert.Equal(t, 0.0, HaversineDistance(10, 10, 10, 10))
}

func TestInitialBearing(t *testing.T) {
	assert.InDelta(t, 0, InitialBearing(0, 0, 1, 0), 0.001)
	assert.InDelta(t, 90, InitialBearing(0, 0, 0, 1), 0.001)
	assert.InDelta(t, 180, InitialBearing(1, 0, 0, 0), 0.001)
	assert.InDelta(t, 270, InitialBearing(0, 1, 0, 0), 0.001)
}
