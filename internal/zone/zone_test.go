package zone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapExactMatch(t *testing.T) {
	z, est := Map("90210")
	assert.Equal(t, 0, z)
	assert.Equal(t, "1-2 business days", est)

	// ZIP+4 and whitespace sanitize down to the same code
	z2, est2 := Map(" 90210-1234 ")
	assert.Equal(t, z, z2)
	assert.Equal(t, est, est2)
}

func TestMapPrefixMatch(t *testing.T) {
	z, _ := Map("98109") // Seattle prefix 981, not in the exact table
	assert.Equal(t, 1, z)

	z, _ = Map("99501") // Alaska
	assert.Equal(t, 8, z)
}

func TestMapUnmappedDefaults(t *testing.T) {
	for _, code := range []string{"00000", "", "not-a-zip", "12"} {
		z, est := Map(code)
		assert.Equal(t, DefaultZone, z, "code %q", code)
		assert.NotEmpty(t, est)
	}
}

func TestMapDeterministic(t *testing.T) {
	z1, e1 := Map("90210")
	z2, e2 := Map("90210")
	assert.Equal(t, z1, z2)
	assert.Equal(t, e1, e2)
}

func TestTransitDaysExpressBounds(t *testing.T) {
	for z := 0; z <= 8; z++ {
		stdMin, stdMax := TransitDays(z, false)
		expMin, expMax := TransitDays(z, true)
		assert.GreaterOrEqual(t, expMin, 1, "zone %d", z)
		assert.LessOrEqual(t, expMin, stdMin, "zone %d", z)
		assert.LessOrEqual(t, expMax, stdMax, "zone %d", z)
		assert.LessOrEqual(t, expMin, expMax, "zone %d", z)
	}
}

func TestTransitDaysOutOfRangeZone(t *testing.T) {
	min, max := TransitDays(99, false)
	dmin, dmax := TransitDays(DefaultZone, false)
	assert.Equal(t, dmin, min)
	assert.Equal(t, dmax, max)
}
