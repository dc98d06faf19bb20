package gpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFamily struct {
	name string
	live bool
	h    Handle
}

func (f fakeFamily) Name() string         { return f.name }
func (f fakeFamily) Probe() (Handle, bool) { return f.h, f.live }

func TestProbeAll_ReturnsFirstLiveHandle(t *testing.T) {
	mock := NewMockNvidiaFamily()
	families := []Family{
		fakeFamily{name: "absent", live: false},
		mock,
		fakeFamily{name: "never-reached", live: true, h: &mockHandle{f: MockFamily{Vendor: "other"}}},
	}

	h := ProbeAll(families)
	require.NotNil(t, h)
	assert.Equal(t, "NVIDIA", h.Manufacturer())
}

func TestProbeAll_NoneLiveReturnsNil(t *testing.T) {
	families := []Family{fakeFamily{name: "a"}, fakeFamily{name: "b"}}
	assert.Nil(t, ProbeAll(families))
}

func TestMockNvidiaFamily_ProcessUsageSumsAcrossCards(t *testing.T) {
	h, ok := NewMockNvidiaFamily().Probe()
	require.True(t, ok)

	usage, err := h.ProcessUsage(nil)
	require.NoError(t, err)

	var totalKiB uint64
	for _, u := range usage {
		if u.PID == 4242 {
			totalKiB += u.MemKiB
		}
	}
	assert.Equal(t, uint64(1536*1024), totalKiB)
}
