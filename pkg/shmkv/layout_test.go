package shmkv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// The region layout is a cross-process contract: creator and every opener
// must agree on these numbers byte for byte.
func TestRegionLayout(t *testing.T) {
	assert.Equal(t, 328, entrySize)
	assert.Equal(t, 3280, gateOffset)
	assert.Equal(t, 3288, versionOffset)
	assert.Equal(t, 3292, entryCountOffset)
	assert.Equal(t, 3296, RegionSize)

	// Counters and timestamps must stay naturally aligned for the atomic
	// and unsafe accesses over the mapping.
	assert.Zero(t, gateOffset%8)
	assert.Zero(t, versionOffset%4)
	assert.Zero(t, (tableOffset+entryTimestampOffset)%8)
	assert.Zero(t, entrySize%8)
}

func TestTableSlotAccessors(t *testing.T) {
	tab := table{mem: make([]byte, RegionSize)}

	assert.True(t, tab.empty(0))
	tab.setKey(0, "alpha")
	tab.setValue(0, "one")
	tab.setTimestamp(0, 42)
	assert.False(t, tab.empty(0))
	assert.Equal(t, "alpha", tab.key(0))
	assert.Equal(t, "one", tab.value(0))
	assert.EqualValues(t, 42, tab.timestamp(0))
	assert.True(t, tab.keyEquals(0, "alpha"))
	assert.False(t, tab.keyEquals(0, "alph"))
	assert.False(t, tab.keyEquals(0, "alphaX"))

	// Overwriting with a shorter value must not leak bytes of the longer
	// previous occupant.
	tab.setValue(0, "longer-value")
	tab.setValue(0, "x")
	assert.Equal(t, "x", tab.value(0))

	tab.clear(0)
	assert.True(t, tab.empty(0))
	assert.EqualValues(t, 0, tab.timestamp(0))
}
