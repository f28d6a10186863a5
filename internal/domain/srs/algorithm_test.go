package srs

import (
	"math"
	"testing"
	"time"

	"github.com/phrazzld/kanjidrill/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const epsilon = 1e-4

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func defaultModel() model {
	return newModel(DefaultWeights)
}

func reviewStateCard(stability, difficulty float64) domain.Card {
	last := t0
	card := domain.NewCard(1, 1, t0)
	card.Memory.State = domain.StateReview
	card.Memory.Stability = stability
	card.Memory.Difficulty = difficulty
	card.Memory.Reps = 3
	card.Memory.LastReviewedAt = &last
	card.TotalReviews = 3
	return card
}

func TestModelConstants(t *testing.T) {
	t.Parallel()
	m := defaultModel()
	assert.InDelta(t, -0.1542, m.decay, epsilon)
	assert.InDelta(t, math.Pow(0.9, 1.0/m.decay)-1.0, m.factor, epsilon)
}

func TestRetrievability(t *testing.T) {
	t.Parallel()
	m := defaultModel()

	assert.InDelta(t, 1.0, m.retrievability(0, 5), epsilon, "no time elapsed")
	assert.InDelta(t, 0.9, m.retrievability(5, 5), epsilon, "R(S, S) is 0.9 by definition")
	assert.Greater(t, m.retrievability(1, 5), m.retrievability(10, 5), "recall decays over time")
	assert.Zero(t, m.retrievability(3, 0))
}

func TestInitialState(t *testing.T) {
	t.Parallel()
	m := defaultModel()
	for _, r := range domain.AllRatings {
		assert.InDelta(t, DefaultWeights[r-1], m.initStability(r), epsilon, r.String())
		d := m.initDifficulty(r, true)
		assert.GreaterOrEqual(t, d, 1.0)
		assert.LessOrEqual(t, d, 10.0)
	}
	assert.Greater(t, m.initDifficulty(domain.RatingAgain, true), m.initDifficulty(domain.RatingEasy, true))
}

func TestNextInterval(t *testing.T) {
	t.Parallel()
	m := defaultModel()

	assert.Equal(t, 5, m.nextInterval(5, 0.9, 36500), "interval equals stability at 90% retention")
	assert.Equal(t, 1, m.nextInterval(0.001, 0.9, 36500), "clamped to one day")
	assert.Equal(t, 365, m.nextInterval(100000, 0.9, 365), "clamped to the maximum")
	assert.Greater(t, m.nextInterval(10, 0.8, 36500), m.nextInterval(10, 0.9, 36500),
		"lower retention gives a longer interval")
}

func TestStabilityUpdates(t *testing.T) {
	t.Parallel()
	m := defaultModel()

	assert.GreaterOrEqual(t, m.shortTermStability(5, domain.RatingGood), 5.0)
	assert.Less(t, m.shortTermStability(5, domain.RatingAgain), 5.0)
	assert.Greater(t, m.nextRecallStability(5, 5, 0.9, domain.RatingGood), 5.0)
	assert.Less(t,
		m.nextRecallStability(5, 5, 0.9, domain.RatingHard),
		m.nextRecallStability(5, 5, 0.9, domain.RatingGood))
	assert.Greater(t,
		m.nextRecallStability(5, 5, 0.9, domain.RatingEasy),
		m.nextRecallStability(5, 5, 0.9, domain.RatingGood))

	for _, s := range []float64{0.3, 1, 5, 50, 400} {
		assert.Less(t, m.nextForgetStability(5, s, 0.9), s, "forget stability below S=%v", s)
	}
}

func TestNextDifficulty(t *testing.T) {
	t.Parallel()
	m := defaultModel()

	assert.Greater(t, m.nextDifficulty(5, domain.RatingAgain), 5.0)
	assert.Less(t, m.nextDifficulty(5, domain.RatingEasy), 5.0)
	assert.LessOrEqual(t, m.nextDifficulty(10, domain.RatingAgain), 10.0)
	assert.GreaterOrEqual(t, m.nextDifficulty(1, domain.RatingEasy), 1.0)
}

func TestCalculateNextCard_FirstReview(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	m := defaultModel()

	tests := []struct {
		rating    domain.Rating
		wantState domain.State
		wantDue   time.Time
	}{
		{domain.RatingAgain, domain.StateLearning, t0.Add(time.Minute)},
		{domain.RatingHard, domain.StateLearning, t0.Add(330 * time.Second)},
		{domain.RatingGood, domain.StateLearning, t0.Add(10 * time.Minute)},
		{domain.RatingEasy, domain.StateReview, t0.Add(time.Duration(m.nextInterval(DefaultWeights[3], 0.9, 36500)) * day)},
	}

	for _, tc := range tests {
		card := domain.NewCard(3, 7, t0)
		next := calculateNextCard(card, tc.rating, t0, params, &m)

		assert.Equal(t, tc.wantState, next.Memory.State, tc.rating.String())
		assert.Equal(t, tc.wantDue, next.Memory.Due, tc.rating.String())
		assert.InDelta(t, DefaultWeights[tc.rating-1], next.Memory.Stability, epsilon)
		assert.Equal(t, 1, next.Memory.Reps)
		require.NotNil(t, next.Memory.LastReviewedAt)
		assert.Equal(t, t0, *next.Memory.LastReviewedAt)
		assert.Equal(t, domain.StateNew, card.Memory.State, "input card must not change")
	}
}

func TestCalculateNextCard_LearningGraduates(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	m := defaultModel()

	card := calculateNextCard(domain.NewCard(1, 1, t0), domain.RatingGood, t0, params, &m)
	require.NotNil(t, card.Memory.Step)
	assert.Equal(t, 1, *card.Memory.Step)

	card = calculateNextCard(card, domain.RatingGood, t0.Add(10*time.Minute), params, &m)
	assert.Equal(t, domain.StateReview, card.Memory.State)
	assert.Nil(t, card.Memory.Step)
	assert.GreaterOrEqual(t, card.Memory.ScheduledDays, 1)
}

func TestCalculateNextCard_SameDayUsesShortTerm(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	m := defaultModel()

	card := reviewStateCard(5, 5)
	next := calculateNextCard(card, domain.RatingGood, t0.Add(6*time.Hour), params, &m)

	assert.InDelta(t, m.shortTermStability(5, domain.RatingGood), next.Memory.Stability, epsilon)
	assert.Equal(t, 0, next.Memory.ElapsedDays)
}

func TestCalculateNextCard_CrossDay(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	m := defaultModel()

	card := reviewStateCard(5, 5)
	now := t0.Add(5 * day)
	good := calculateNextCard(card, domain.RatingGood, now, params, &m)
	hard := calculateNextCard(card, domain.RatingHard, now, params, &m)
	easy := calculateNextCard(card, domain.RatingEasy, now, params, &m)

	assert.Equal(t, domain.StateReview, good.Memory.State)
	assert.Equal(t, 5, good.Memory.ElapsedDays)
	assert.Greater(t, good.Memory.ScheduledDays, 5)
	assert.Less(t, hard.Memory.Due, good.Memory.Due)
	assert.Greater(t, easy.Memory.Due, good.Memory.Due)
}

func TestCalculateNextCard_Lapse(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	m := defaultModel()

	for _, elapsed := range []time.Duration{2 * time.Hour, 3 * day, 40 * day} {
		for _, s := range []float64{0.5, 4, 30, 250} {
			card := reviewStateCard(s, 6)
			now := t0.Add(elapsed)
			next := calculateNextCard(card, domain.RatingAgain, now, params, &m)

			assert.Equal(t, domain.StateRelearning, next.Memory.State)
			assert.Less(t, next.Memory.Stability, s, "stability must drop on a lapse")
			assert.Equal(t, card.Memory.Lapses+1, next.Memory.Lapses)
			assert.Equal(t, now.Add(10*time.Minute), next.Memory.Due)
			require.NotNil(t, next.Memory.Step)
			assert.Equal(t, 0, *next.Memory.Step)
		}
	}
}

func TestCalculateNextCard_LapseAtStabilityFloor(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	m := defaultModel()

	card := reviewStateCard(0.001, 9)
	next := calculateNextCard(card, domain.RatingAgain, t0.Add(2*time.Hour), params, &m)

	assert.Equal(t, domain.StateRelearning, next.Memory.State)
	assert.InDelta(t, 0.001, next.Memory.Stability, 1e-12, "stability stays on the floor")
	assert.Equal(t, card.Memory.Lapses+1, next.Memory.Lapses)
}

func TestCalculateNextCard_RelearningReturnsToReview(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	m := defaultModel()

	card := calculateNextCard(reviewStateCard(10, 5), domain.RatingAgain, t0.Add(12*day), params, &m)
	require.Equal(t, domain.StateRelearning, card.Memory.State)

	card = calculateNextCard(card, domain.RatingGood, t0.Add(12*day+10*time.Minute), params, &m)
	assert.Equal(t, domain.StateReview, card.Memory.State)
	assert.Nil(t, card.Memory.Step)
}

func TestCalculateNextCard_HardSingleStep(t *testing.T) {
	t.Parallel()
	params, err := NewParams(ParamsConfig{LearningSteps: []time.Duration{5 * time.Minute}})
	require.NoError(t, err)
	m := newModel(params.Weights)

	next := calculateNextCard(domain.NewCard(1, 1, t0), domain.RatingHard, t0, params, &m)
	assert.Equal(t, t0.Add(450*time.Second), next.Memory.Due)
}

func TestCalculateNextCard_NoLearningSteps(t *testing.T) {
	t.Parallel()
	params, err := NewParams(ParamsConfig{LearningSteps: []time.Duration{}})
	require.NoError(t, err)
	m := newModel(params.Weights)

	next := calculateNextCard(domain.NewCard(1, 1, t0), domain.RatingHard, t0, params, &m)
	assert.Equal(t, domain.StateReview, next.Memory.State)
	assert.GreaterOrEqual(t, next.Memory.ScheduledDays, 1)
}
