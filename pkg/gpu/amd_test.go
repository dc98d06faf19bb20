//go:build linux

package gpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandAMDBitmaps_OneTuplePerSetBit(t *testing.T) {
	entries := []amdProcessEntry{
		{
			pid:           777,
			cardBitmap:    0b101,
			memKiBByCard:  map[int]uint64{0: 1000, 2: 2000},
			utilPctByCard: map[int]float64{0: 10, 2: 30},
		},
	}

	out := expandAMDBitmaps(entries)

	require := assert.New(t)
	require.Len(out, 2)
	require.Equal(777, out[0].PID)
	require.Equal(0, out[0].CardIndex)
	require.Equal(uint64(1000), out[0].MemKiB)
	require.Equal(777, out[1].PID)
	require.Equal(2, out[1].CardIndex)
	require.Equal(uint64(2000), out[1].MemKiB)
}

func TestExpandAMDBitmaps_NoBitsSetYieldsNothing(t *testing.T) {
	entries := []amdProcessEntry{{pid: 1, cardBitmap: 0}}
	assert.Empty(t, expandAMDBitmaps(entries))
}
