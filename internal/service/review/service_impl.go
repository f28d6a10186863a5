package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/phrazzld/kanjidrill/internal/domain"
	"github.com/phrazzld/kanjidrill/internal/domain/srs"
	"github.com/phrazzld/kanjidrill/internal/platform/logger"
)

// CardStore is the persistence the review service depends on.
type CardStore interface {
	GetCard(ctx context.Context, setID, itemID int) domain.Card
	SaveCard(ctx context.Context, card domain.Card) error
	SaveReview(ctx context.Context, card domain.Card, entry domain.ReviewLogEntry) error
	GetItemLogs(ctx context.Context, setID, itemID int) []domain.ReviewLogEntry
}

// Recorder receives a notification for every recorded outcome.
type Recorder interface {
	RecordReview(rating, state string)
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

// WithRecorder reports recorded outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(s *serviceImpl) {
		s.recorder = r
	}
}

var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	store      CardStore
	srsService srs.Service
	recorder   Recorder
	now        func() time.Time
	logger     *slog.Logger
}

// NewService creates a review Service.
func NewService(store CardStore, srsService srs.Service, logger *slog.Logger, opts ...Option) Service {
	if store == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("store cannot be nil")
	}
	if srsService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("srsService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &serviceImpl{
		store:      store,
		srsService: srsService,
		now:        time.Now,
		logger:     logger.With(slog.String("component", "review_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordOutcome implements Service.RecordOutcome.
func (s *serviceImpl) RecordOutcome(ctx context.Context, outcome Outcome) (*Result, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.Int("set_id", outcome.SetID),
		slog.Int("item_id", outcome.ItemID),
	)

	if err := validateIDs(outcome.SetID, outcome.ItemID); err != nil {
		return nil, err
	}
	if !outcome.Rating.IsValid() {
		log.Debug("rejected unknown rating", slog.Int("rating", int(outcome.Rating)))
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidRating, int(outcome.Rating))
	}

	now := s.now()
	card := s.store.GetCard(ctx, outcome.SetID, outcome.ItemID)

	updated, err := s.srsService.CalculateNextReview(card, outcome.Rating, now)
	if err != nil {
		if errors.Is(err, srs.ErrInvalidRating) {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRating, err)
		}
		log.Error("failed to calculate next review", slog.String("error", err.Error()))
		return nil, NewRecordOutcomeError("failed to calculate next review", err)
	}

	updated.TotalReviews = card.TotalReviews + 1
	if updated.FirstReviewedAt == nil {
		first := now
		updated.FirstReviewedAt = &first
	}

	entry := domain.NewReviewLogEntry(updated, outcome.Rating, outcome.IsCorrect, outcome.UserAnswer, now)
	if err := s.store.SaveReview(ctx, updated, entry); err != nil {
		log.Warn("failed to persist review", slog.String("error", err.Error()))
		return nil, NewRecordOutcomeError("failed to persist review", err)
	}

	if s.recorder != nil {
		s.recorder.RecordReview(outcome.Rating.String(), updated.Memory.State.String())
	}
	log.Info("review recorded",
		slog.String("rating", outcome.Rating.String()),
		slog.String("state", updated.Memory.State.String()),
		slog.Time("next_due", updated.Memory.Due),
		slog.Int("total_reviews", updated.TotalReviews))

	return &Result{Card: updated, Entry: entry, NextDue: updated.Memory.Due}, nil
}

// CardInfo implements Service.CardInfo.
func (s *serviceImpl) CardInfo(ctx context.Context, setID, itemID int) (*CardInfo, error) {
	if err := validateIDs(setID, itemID); err != nil {
		return nil, err
	}

	now := s.now()
	card := s.store.GetCard(ctx, setID, itemID)
	return &CardInfo{
		Card:           card,
		IsDue:          card.IsDue(now),
		IsNew:          card.IsNew(),
		DaysUntilDue:   int(math.Ceil(card.Memory.Due.Sub(now).Hours() / 24)),
		Retrievability: s.srsService.Retrievability(card, now),
	}, nil
}

// Postpone implements Service.Postpone.
func (s *serviceImpl) Postpone(ctx context.Context, setID, itemID, days int) (domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := validateIDs(setID, itemID); err != nil {
		return domain.Card{}, err
	}

	card := s.store.GetCard(ctx, setID, itemID)
	if card.IsNew() {
		return domain.Card{}, NewPostponeError("card has never been reviewed",
			fmt.Errorf("%w: new cards cannot be postponed", domain.ErrInvalidInput))
	}

	postponed, err := s.srsService.PostponeReview(card, days, s.now())
	if err != nil {
		return domain.Card{}, NewPostponeError("invalid postponement",
			fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
	}

	if err := s.store.SaveCard(ctx, postponed); err != nil {
		log.Warn("failed to persist postponed card", slog.String("error", err.Error()))
		return domain.Card{}, NewPostponeError("failed to persist card", err)
	}

	log.Info("review postponed",
		slog.Int("set_id", setID),
		slog.Int("item_id", itemID),
		slog.Int("days", days),
		slog.Time("due", postponed.Memory.Due))
	return postponed, nil
}

// ItemLogs implements Service.ItemLogs.
func (s *serviceImpl) ItemLogs(ctx context.Context, setID, itemID int) ([]domain.ReviewLogEntry, error) {
	if err := validateIDs(setID, itemID); err != nil {
		return nil, err
	}
	logs := s.store.GetItemLogs(ctx, setID, itemID)
	if logs == nil {
		logs = []domain.ReviewLogEntry{}
	}
	return logs, nil
}

func validateIDs(setID, itemID int) error {
	if setID < 0 || itemID < 0 {
		return fmt.Errorf("%w: set and item ids must be non-negative", domain.ErrInvalidInput)
	}
	return nil
}
