package study

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/phrazzld/kanjidrill/internal/domain"
	"github.com/phrazzld/kanjidrill/internal/platform/logger"
)

// CardStore is the read access the selector needs.
type CardStore interface {
	GetAllCards(ctx context.Context, setID *int) []domain.Card
	GetExclusions(ctx context.Context, setID int) []int
}

// Recorder receives the composition of each study list.
type Recorder interface {
	RecordStudyList(due, fresh int)
}

// Option configures the service.
type Option func(*serviceImpl)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *serviceImpl) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRecorder reports study list composition to r.
func WithRecorder(r Recorder) Option {
	return func(s *serviceImpl) {
		s.recorder = r
	}
}

var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	store    CardStore
	recorder Recorder
	now      func() time.Time
	logger   *slog.Logger
}

// NewService creates a study Service.
func NewService(store CardStore, logger *slog.Logger, opts ...Option) Service {
	if store == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &serviceImpl{
		store:  store,
		now:    time.Now,
		logger: logger.With(slog.String("component", "study_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// partition splits the candidates into due cards and unseen ids.
// Duplicate and excluded candidates are dropped.
type partition struct {
	due   []domain.Card
	fresh []int
}

func (s *serviceImpl) partition(ctx context.Context, candidateIDs []int, setID int, now time.Time) partition {
	excluded := toSet(s.store.GetExclusions(ctx, setID))
	cards := make(map[int]domain.Card)
	for _, c := range s.store.GetAllCards(ctx, &setID) {
		cards[c.ItemID] = c
	}

	var p partition
	seen := make(map[int]struct{}, len(candidateIDs))
	for _, id := range candidateIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := excluded[id]; ok {
			continue
		}

		card, ok := cards[id]
		switch {
		case !ok || card.IsNew():
			p.fresh = append(p.fresh, id)
		case card.IsDue(now):
			p.due = append(p.due, card)
		}
	}
	sortByOverdue(p.due)
	return p
}

// StudyList implements Service.StudyList.
func (s *serviceImpl) StudyList(ctx context.Context, candidateIDs []int, setID int, budget Budget) ([]int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := budget.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %+v", err, budget)
	}
	if setID < 0 {
		return nil, fmt.Errorf("%w: set id must be non-negative", domain.ErrInvalidInput)
	}

	result := []int{}
	if len(candidateIDs) == 0 {
		return result, nil
	}

	p := s.partition(ctx, candidateIDs, setID, s.now())

	dueCount := min(len(p.due), budget.MaxReviews)
	for _, c := range p.due[:dueCount] {
		result = append(result, c.ItemID)
	}
	freshCount := min(len(p.fresh), budget.MaxNew)
	result = append(result, p.fresh[:freshCount]...)

	if len(result) > budget.TotalLimit {
		result = result[:budget.TotalLimit]
	}
	dueCount = min(dueCount, len(result))

	if s.recorder != nil {
		s.recorder.RecordStudyList(dueCount, len(result)-dueCount)
	}
	log.Debug("study list built",
		slog.Int("set_id", setID),
		slog.Int("candidates", len(candidateIDs)),
		slog.Int("due", dueCount),
		slog.Int("new", len(result)-dueCount))

	return result, nil
}

// DueItems implements Service.DueItems.
func (s *serviceImpl) DueItems(ctx context.Context, setID, limit int) ([]DueItem, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit %d", ErrInvalidBudget, limit)
	}
	if setID < 0 {
		return nil, fmt.Errorf("%w: set id must be non-negative", domain.ErrInvalidInput)
	}

	now := s.now()
	excluded := toSet(s.store.GetExclusions(ctx, setID))

	var due []domain.Card
	for _, c := range s.store.GetAllCards(ctx, &setID) {
		if _, ok := excluded[c.ItemID]; ok {
			continue
		}
		if !c.IsNew() && c.IsDue(now) {
			due = append(due, c)
		}
	}
	sortByOverdue(due)
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	items := make([]DueItem, 0, len(due))
	for _, c := range due {
		items = append(items, DueItem{
			ItemID:      c.ItemID,
			DaysOverdue: int(math.Floor(now.Sub(c.Memory.Due).Hours() / 24)),
			Card:        c,
		})
	}
	return items, nil
}

// NewItems implements Service.NewItems.
func (s *serviceImpl) NewItems(ctx context.Context, candidateIDs []int, setID, limit int) ([]int, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit %d", ErrInvalidBudget, limit)
	}
	if setID < 0 {
		return nil, fmt.Errorf("%w: set id must be non-negative", domain.ErrInvalidInput)
	}

	fresh := s.partition(ctx, candidateIDs, setID, s.now()).fresh
	if limit > 0 && len(fresh) > limit {
		fresh = fresh[:limit]
	}
	if fresh == nil {
		fresh = []int{}
	}
	return fresh, nil
}

// sortByOverdue orders cards by due time ascending, which is overdue duration
// descending, breaking ties by item id.
func sortByOverdue(cards []domain.Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		di, dj := cards[i].Memory.Due, cards[j].Memory.Due
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return cards[i].ItemID < cards[j].ItemID
	})
}

func toSet(ids []int) map[int]struct{} {
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
