package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/kanjidrill/internal/domain"
	"github.com/phrazzld/kanjidrill/internal/platform/logger"
)

var validate = validator.New()

// Snapshot is the export format: every collection plus the schema version.
type Snapshot struct {
	Version    string                  `json:"version"`
	ExportDate time.Time               `json:"export_date"`
	Cards      map[string]domain.Card  `json:"cards"                validate:"required"`
	Reviews    []domain.ReviewLogEntry `json:"reviews"              validate:"required"`
	Exclusions map[string][]int        `json:"exclusions,omitempty" validate:"omitempty,dive,dive,gte=0"`
}

// ExportSnapshot serializes all collections as indented JSON. Unlike the
// read paths it fails when the medium cannot be read.
func (s *Store) ExportSnapshot(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cards, err := s.readCards(ctx)
	if err != nil {
		return nil, err
	}
	reviews, err := s.readReviews(ctx)
	if err != nil {
		return nil, err
	}
	exclusions, err := s.readExclusions(ctx)
	if err != nil {
		return nil, err
	}

	snap := Snapshot{
		Version:    SchemaVersion,
		ExportDate: s.now(),
		Cards:      cards,
		Reviews:    reviews,
		Exclusions: exclusions,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, NewStoreError("snapshot", "export", "encode failed", err)
	}
	return data, nil
}

// ImportSnapshot replaces all collections with the snapshot in blob. It
// returns an error wrapping ErrInvalidImport, leaving the current state
// untouched, when the blob cannot be parsed, lacks the cards or reviews
// collection, or holds an invalid record.
func (s *Store) ImportSnapshot(ctx context.Context, blob []byte) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	snap, err := parseSnapshot(blob)
	if err != nil {
		log.Warn("snapshot import rejected", slog.String("error", err.Error()))
		return NewStoreError("snapshot", "import", "snapshot rejected", err)
	}
	if snap.Exclusions == nil {
		snap.Exclusions = map[string][]int{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make(map[string][]byte, 4)
	for name, v := range map[string]any{
		CollectionCards:      snap.Cards,
		CollectionReviews:    snap.Reviews,
		CollectionExclusions: snap.Exclusions,
	} {
		data, err := json.Marshal(v)
		if err != nil {
			return NewStoreError(name, "import", "encode failed", err)
		}
		entries[s.key(name)] = data
	}
	entries[s.key(keySchemaVersion)] = []byte(SchemaVersion)

	if err := s.kv.SetMany(ctx, entries); err != nil {
		return unavailable("snapshot", "import", err)
	}

	log.Info("snapshot imported",
		slog.String("snapshot_version", snap.Version),
		slog.Int("cards", len(snap.Cards)),
		slog.Int("reviews", len(snap.Reviews)))
	return nil
}

func parseSnapshot(blob []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}
	if err := validate.Struct(&snap); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}
	if err := validateCards(snap.Cards); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}
	if err := validateReviews(snap.Reviews); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}
	if err := validateExclusions(snap.Exclusions); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}
	return &snap, nil
}
