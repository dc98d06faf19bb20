package legacycsv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeArray_KnownVector(t *testing.T) {
	got, err := EncodeArray([]uint64{1, 30, 89, 12})
	require.NoError(t, err)
	assert.Equal(t, ")(t*1b", got)
}

func TestDecodeArray_RoundTrip(t *testing.T) {
	vectors := [][]uint64{
		{1, 30, 89, 12},
		{0},
		{5, 5, 5},
		{100000, 1, 99999999},
	}
	for _, v := range vectors {
		enc, err := EncodeArray(v)
		require.NoError(t, err)
		dec, err := DecodeArray(enc)
		require.NoError(t, err)
		assert.Equal(t, v, dec, "round trip for %v via %q", v, enc)
	}
}

func TestEncodeArray_EmptyRejected(t *testing.T) {
	_, err := EncodeArray(nil)
	assert.Error(t, err)
}

func TestEncodeLine_QuotesCommaAndQuote(t *testing.T) {
	line := EncodeLine([]KV{
		{Key: "cmd", Value: `a,b"c`},
		{Key: "pid", Value: "123"},
	})
	assert.Equal(t, `cmd="a,b""c",pid=123`, line)
}

func TestDecodeLine_RoundTrip(t *testing.T) {
	fields := []KV{
		{Key: "cmd", Value: `a,b"c`},
		{Key: "pid", Value: "123"},
	}
	line := EncodeLine(fields)
	got, err := DecodeLine(line)
	require.NoError(t, err)
	assert.Equal(t, fields, got)
}
