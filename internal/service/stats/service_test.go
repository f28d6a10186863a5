package stats

import (
	"context"
	"testing"
	"time"

	"github.com/phrazzld/kanjidrill/internal/domain"
	"github.com/phrazzld/kanjidrill/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = 24 * time.Hour

// now is mid-afternoon so that "today" spans both sides of it.
var now = time.Date(2025, 5, 20, 15, 0, 0, 0, time.UTC)

type fakeStore struct {
	cards []domain.Card
	logs  []domain.ReviewLogEntry
}

func (f *fakeStore) GetAllCards(_ context.Context, setID *int) []domain.Card {
	var out []domain.Card
	for _, c := range f.cards {
		if setID == nil || c.SetID == *setID {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeStore) GetAllLogs(_ context.Context, setID *int) []domain.ReviewLogEntry {
	var out []domain.ReviewLogEntry
	for _, e := range f.logs {
		if setID == nil || e.SetID == *setID {
			out = append(out, e)
		}
	}
	return out
}

type stateGauge struct{ counts map[string]int }

func (g *stateGauge) SetCardsByState(counts map[string]int) { g.counts = counts }

func card(setID, itemID int, state domain.State, due time.Time) domain.Card {
	c := domain.NewCard(setID, itemID, due)
	c.Memory.State = state
	return c
}

func entry(setID int, correct bool, at time.Time) domain.ReviewLogEntry {
	return domain.ReviewLogEntry{SetID: setID, ItemID: 1, Rating: domain.RatingGood, IsCorrect: correct, Timestamp: at}
}

func newService(fs *fakeStore, opts ...Option) *Service {
	opts = append([]Option{WithClock(func() time.Time { return now }), WithLocation(time.UTC)}, opts...)
	return NewService(fs, nil, opts...)
}

func TestStatistics_Empty(t *testing.T) {
	t.Parallel()
	st := newService(&fakeStore{}).Statistics(context.Background(), nil)

	assert.Zero(t, st.TotalCards)
	assert.Zero(t, st.TotalReviews)
	assert.Zero(t, st.SuccessRate)
	assert.Zero(t, st.StreakDays)
	assert.Nil(t, st.LastReviewDate)
}

func TestStatistics_CountsAndRates(t *testing.T) {
	t.Parallel()
	today := time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)

	fs := &fakeStore{
		cards: []domain.Card{
			card(1, 1, domain.StateNew, now),                       // due later today: not counted as due today
			card(1, 2, domain.StateLearning, today.Add(-time.Hour)), // due today
			card(1, 3, domain.StateReview, today),                  // exactly start of today
			card(1, 4, domain.StateReview, today.Add(7*day)),       // end of week window
			card(1, 5, domain.StateRelearning, today.Add(8*day)),
			card(2, 1, domain.StateReview, today.Add(-3*day)),
		},
		logs: []domain.ReviewLogEntry{
			entry(1, true, now.Add(-day)),
			entry(1, false, now.Add(-2*time.Hour)),
			entry(1, true, now.Add(-3*day)),
			entry(2, true, now.Add(-time.Hour)),
		},
	}
	gauge := &stateGauge{}
	svc := newService(fs, WithRecorder(gauge))

	all := svc.Statistics(context.Background(), nil)
	assert.Equal(t, 6, all.TotalCards)
	assert.Equal(t, ByState{New: 1, Learning: 1, Review: 3, Relearning: 1}, all.ByState)
	assert.Equal(t, 4, all.TotalReviews)
	assert.Equal(t, 3, all.CorrectReviews)
	assert.InDelta(t, 75.0, all.SuccessRate, 1e-9)
	assert.Equal(t, 3, all.DueToday)
	assert.Equal(t, 5, all.DueThisWeek)
	require.NotNil(t, all.LastReviewDate)
	assert.Equal(t, now.Add(-time.Hour), *all.LastReviewDate)
	assert.Equal(t, map[string]int{"new": 1, "learning": 1, "review": 3, "relearning": 1}, gauge.counts)

	setID := 1
	one := svc.Statistics(context.Background(), &setID)
	assert.Equal(t, 5, one.TotalCards)
	assert.Equal(t, 3, one.TotalReviews)
	assert.InDelta(t, 200.0/3.0, one.SuccessRate, 1e-9)
	assert.Equal(t, 2, one.DueToday)
	assert.Equal(t, now.Add(-2*time.Hour), *one.LastReviewDate)
}

func TestStatistics_Streak(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		logs []time.Time
		want int
	}{
		{"no_reviews", nil, 0},
		{"today_only", []time.Time{now}, 1},
		{"today_and_yesterday", []time.Time{now, now.Add(-day)}, 2},
		{"yesterday_only_keeps_streak", []time.Time{now.Add(-day), now.Add(-2 * day)}, 2},
		{"gap_breaks_streak", []time.Time{now, now.Add(-2 * day), now.Add(-3 * day)}, 1},
		{"two_days_ago_only", []time.Time{now.Add(-2 * day)}, 0},
		{"several_reviews_one_day", []time.Time{now, now.Add(-time.Hour), now.Add(-2 * time.Hour)}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &fakeStore{}
			for _, at := range tt.logs {
				fs.logs = append(fs.logs, entry(1, true, at))
			}
			assert.Equal(t, tt.want, newService(fs).Statistics(context.Background(), nil).StreakDays)
		})
	}
}

func TestStatistics_TimeZoneDefinesDays(t *testing.T) {
	t.Parallel()
	eastern := time.FixedZone("EST", -5*60*60)

	// In UTC the reviews fall on May 20 and May 18; five hours west they
	// fall on May 19 and May 18.
	fs := &fakeStore{logs: []domain.ReviewLogEntry{
		entry(1, true, time.Date(2025, 5, 20, 2, 0, 0, 0, time.UTC)),
		entry(1, true, time.Date(2025, 5, 18, 23, 0, 0, 0, time.UTC)),
	}}

	assert.Equal(t, 1, newService(fs).Statistics(context.Background(), nil).StreakDays)
	assert.Equal(t, 2, newService(fs, WithLocation(eastern)).Statistics(context.Background(), nil).StreakDays)

	fs.cards = []domain.Card{card(1, 1, domain.StateReview, time.Date(2025, 5, 20, 3, 0, 0, 0, time.UTC))}
	assert.Equal(t, 0, newService(fs).Statistics(context.Background(), nil).DueToday)
	assert.Equal(t, 1, newService(fs, WithLocation(eastern)).Statistics(context.Background(), nil).DueToday)
}

func TestStatistics_FromStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := store.New(store.NewMemoryKV(), "test", nil)
	require.NoError(t, st.Init(ctx))

	svc := NewService(st, nil, WithClock(func() time.Time { return now }))
	stats := svc.Statistics(ctx, nil)
	assert.Zero(t, stats.TotalCards)
	assert.Zero(t, stats.StreakDays)
}

func TestNewService_PanicsWithoutStore(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { NewService(nil, nil) })
}
