//go:build linux

package inventory

import (
	"testing"

	"github.com/ja7ad/sonar/pkg/gpu"
	"github.com/stretchr/testify/assert"
)

func TestDescribeCards_MergesAdjacentEqualCards(t *testing.T) {
	cards := []gpu.Card{
		{Model: "A100", MemoryKiB: 40 * 1024 * 1024},
		{Model: "H100", MemoryKiB: 80 * 1024 * 1024},
		{Model: "A100", MemoryKiB: 40 * 1024 * 1024},
	}
	got := describeCards(cards)
	assert.Equal(t, "2x A100 @ 40960MiB, 1x H100 @ 81920MiB", got)
}

func TestDescribeCards_Empty(t *testing.T) {
	assert.Equal(t, "", describeCards(nil))
}
