package srs

import (
	"testing"
	"time"

	"github.com/phrazzld/kanjidrill/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestFuzzDelta(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 1.0, fuzzDelta(2), epsilon)
	assert.InDelta(t, 1.0+0.15*2.5, fuzzDelta(5), epsilon)
	assert.InDelta(t, 1.0+0.15*4.5+0.10*3, fuzzDelta(10), epsilon)
}

func TestApplyFuzz(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2, applyFuzz(2, 36500, 42), "short intervals are not fuzzed")

	for seed := uint64(0); seed < 200; seed++ {
		got := applyFuzz(30, 36500, seed)
		delta := fuzzDelta(30)
		assert.GreaterOrEqual(t, float64(got), 30-delta-1)
		assert.LessOrEqual(t, float64(got), 30+delta+1)
		assert.Equal(t, got, applyFuzz(30, 36500, seed), "same seed gives same interval")
	}

	assert.LessOrEqual(t, applyFuzz(100, 90, 7), 90)
}

func TestFuzzSeed(t *testing.T) {
	t.Parallel()
	card := domain.NewCard(1, 2, t0)
	other := domain.NewCard(1, 3, t0)

	assert.Equal(t, fuzzSeed(card, t0), fuzzSeed(card, t0))
	assert.NotEqual(t, fuzzSeed(card, t0), fuzzSeed(other, t0))
	assert.NotEqual(t, fuzzSeed(card, t0), fuzzSeed(card, t0.Add(time.Second)))
}
