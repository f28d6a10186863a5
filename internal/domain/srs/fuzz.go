package srs

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"time"

	"github.com/phrazzld/kanjidrill/internal/domain"
)

type fuzzRange struct {
	start, end float64
	factor     float64
}

var fuzzRanges = []fuzzRange{
	{2.5, 7.0, 0.15},
	{7.0, 20.0, 0.10},
	{20.0, math.Inf(1), 0.05},
}

// fuzzDelta returns the half-width of the fuzz window for an interval in days.
func fuzzDelta(interval float64) float64 {
	delta := 1.0
	for _, r := range fuzzRanges {
		delta += r.factor * math.Max(math.Min(interval, r.end)-r.start, 0)
	}
	return delta
}

// applyFuzz picks an interval within the fuzz window. Intervals under 2.5 days are kept.
func applyFuzz(interval, maxInterval int, seed uint64) int {
	if float64(interval) < 2.5 {
		return interval
	}
	ivl := float64(interval)
	delta := fuzzDelta(ivl)
	lo := max(2, int(math.Round(ivl-delta)))
	hi := min(int(math.Round(ivl+delta)), maxInterval)
	lo = min(lo, hi)

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	fuzzed := lo + rng.IntN(hi-lo+1)
	return min(fuzzed, maxInterval)
}

// fuzzSeed derives a stable seed from the card identity, its repetition count and the review time.
func fuzzSeed(card domain.Card, now time.Time) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, v := range []int64{int64(card.SetID), int64(card.ItemID), int64(card.Memory.Reps), now.UnixNano()} {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}
