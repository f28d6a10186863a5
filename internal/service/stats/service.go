// Package stats aggregates card and review history into learner statistics.
package stats

import (
	"context"
	"log/slog"
	"time"

	"github.com/phrazzld/kanjidrill/internal/domain"
	"github.com/phrazzld/kanjidrill/internal/platform/logger"
)

// ByState counts cards per learning state.
type ByState struct {
	New        int `json:"new"`
	Learning   int `json:"learning"`
	Review     int `json:"review"`
	Relearning int `json:"relearning"`
}

// Statistics is a summary of the learner's progress.
type Statistics struct {
	TotalCards     int        `json:"total_cards"`
	ByState        ByState    `json:"by_state"`
	TotalReviews   int        `json:"total_reviews"`
	CorrectReviews int        `json:"correct_reviews"`
	SuccessRate    float64    `json:"success_rate"` // percent
	DueToday       int        `json:"due_today"`
	DueThisWeek    int        `json:"due_this_week"`
	StreakDays     int        `json:"streak_days"`
	LastReviewDate *time.Time `json:"last_review_date,omitempty"`
}

// Store is the read access the aggregator needs.
type Store interface {
	GetAllCards(ctx context.Context, setID *int) []domain.Card
	GetAllLogs(ctx context.Context, setID *int) []domain.ReviewLogEntry
}

// Recorder publishes the latest per-state card counts.
type Recorder interface {
	SetCardsByState(counts map[string]int)
}

// Option configures the Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the time zone that defines calendar days.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithRecorder publishes card counts to r on every whole-collection aggregation.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// Service computes Statistics.
type Service struct {
	store    Store
	recorder Recorder
	now      func() time.Time
	loc      *time.Location
	logger   *slog.Logger
}

// NewService creates a statistics Service using the process time zone by default.
func NewService(store Store, logger *slog.Logger, opts ...Option) *Service {
	if store == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		store:  store,
		now:    time.Now,
		loc:    time.Local,
		logger: logger.With(slog.String("component", "stats_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Statistics aggregates the cards and logs of one set, or of all sets when setID is nil.
func (s *Service) Statistics(ctx context.Context, setID *int) Statistics {
	cards := s.store.GetAllCards(ctx, setID)
	logs := s.store.GetAllLogs(ctx, setID)

	now := s.now().In(s.loc)
	today := startOfDay(now)
	weekEnd := today.AddDate(0, 0, 7)

	var st Statistics
	st.TotalCards = len(cards)
	for _, c := range cards {
		switch c.Memory.State {
		case domain.StateNew:
			st.ByState.New++
		case domain.StateLearning:
			st.ByState.Learning++
		case domain.StateReview:
			st.ByState.Review++
		case domain.StateRelearning:
			st.ByState.Relearning++
		}
		if !c.Memory.Due.After(today) {
			st.DueToday++
		}
		if !c.Memory.Due.After(weekEnd) {
			st.DueThisWeek++
		}
	}

	st.TotalReviews = len(logs)
	for _, e := range logs {
		if e.IsCorrect {
			st.CorrectReviews++
		}
		if st.LastReviewDate == nil || e.Timestamp.After(*st.LastReviewDate) {
			ts := e.Timestamp
			st.LastReviewDate = &ts
		}
	}
	if st.TotalReviews > 0 {
		st.SuccessRate = float64(st.CorrectReviews) / float64(st.TotalReviews) * 100
	}
	st.StreakDays = streak(logs, today, s.loc)

	if s.recorder != nil && setID == nil {
		s.recorder.SetCardsByState(map[string]int{
			domain.StateNew.String():        st.ByState.New,
			domain.StateLearning.String():   st.ByState.Learning,
			domain.StateReview.String():     st.ByState.Review,
			domain.StateRelearning.String(): st.ByState.Relearning,
		})
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("statistics computed",
		slog.Int("total_cards", st.TotalCards),
		slog.Int("total_reviews", st.TotalReviews),
		slog.Int("streak_days", st.StreakDays))
	return st
}

// streak counts consecutive calendar days with at least one review, ending at
// today when today has a review and at yesterday otherwise.
func streak(logs []domain.ReviewLogEntry, today time.Time, loc *time.Location) int {
	days := make(map[string]struct{}, len(logs))
	for _, e := range logs {
		days[e.Timestamp.In(loc).Format(time.DateOnly)] = struct{}{}
	}
	reviewed := func(t time.Time) bool {
		_, ok := days[t.Format(time.DateOnly)]
		return ok
	}

	day := today
	if !reviewed(day) {
		day = day.AddDate(0, 0, -1)
	}
	count := 0
	for reviewed(day) {
		count++
		day = day.AddDate(0, 0, -1)
	}
	return count
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
