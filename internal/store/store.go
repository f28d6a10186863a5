package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/phrazzld/kanjidrill/internal/domain"
	"github.com/phrazzld/kanjidrill/internal/platform/logger"
)

// SchemaVersion is the logical schema written by this package.
const SchemaVersion = "1.0"

// DefaultNamespace prefixes every key when no namespace is configured.
const DefaultNamespace = "kanjidrill"

// Collection names, also used as key suffixes.
const (
	CollectionCards      = "cards"
	CollectionReviews    = "reviews"
	CollectionExclusions = "exclusions"
	keySchemaVersion     = "schema_version"
)

// Anomaly kinds reported to an AnomalyRecorder.
const (
	AnomalyCorrupt     = "corrupt"
	AnomalyUnavailable = "unavailable"
	AnomalyMigrated    = "migrated"
)

// AnomalyRecorder receives storage anomalies, typically to count them.
type AnomalyRecorder interface {
	RecordStorageAnomaly(collection, kind string)
}

type nopRecorder struct{}

func (nopRecorder) RecordStorageAnomaly(string, string) {}

// Option configures a Store.
type Option func(*Store)

// WithAnomalyRecorder reports corrupt blobs, read failures and migrations to r.
func WithAnomalyRecorder(r AnomalyRecorder) Option {
	return func(s *Store) {
		if r != nil {
			s.anomalies = r
		}
	}
}

// WithClock overrides the time source used for synthesized cards and export dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store owns the persisted cards, review log and exclusion lists.
// All operations are serialized; writes are read-modify-write on whole collections.
type Store struct {
	kv        KV
	namespace string
	logger    *slog.Logger
	anomalies AnomalyRecorder
	now       func() time.Time

	mu sync.Mutex
}

// New creates a Store on top of kv. Keys are prefixed with namespace.
func New(kv KV, namespace string, logger *slog.Logger, opts ...Option) *Store {
	if kv == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("kv cannot be nil for Store")
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		kv:        kv,
		namespace: namespace,
		logger:    logger.With(slog.String("component", "store")),
		anomalies: nopRecorder{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(name string) string {
	return s.namespace + ":" + name
}

// Init prepares the logical schema. It is idempotent. When the version marker
// is missing or differs, the marker is rewritten and only the missing
// collections are created; existing data is kept.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initLocked(ctx)
}

func (s *Store) initLocked(ctx context.Context) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	raw, err := s.kv.Get(ctx, s.key(keySchemaVersion))
	switch {
	case err == nil && string(raw) == SchemaVersion:
		return nil
	case err != nil && !errors.Is(err, ErrKeyNotFound):
		return unavailable(keySchemaVersion, "init", err)
	}
	previous := ""
	if err == nil {
		previous = string(raw)
	}

	entries := map[string][]byte{s.key(keySchemaVersion): []byte(SchemaVersion)}
	empties := map[string]string{
		CollectionCards:      "{}",
		CollectionReviews:    "[]",
		CollectionExclusions: "{}",
	}
	for name, empty := range empties {
		_, err := s.kv.Get(ctx, s.key(name))
		if errors.Is(err, ErrKeyNotFound) {
			entries[s.key(name)] = []byte(empty)
			continue
		}
		if err != nil {
			return unavailable(name, "init", err)
		}
	}

	if err := s.kv.SetMany(ctx, entries); err != nil {
		return unavailable(keySchemaVersion, "init", err)
	}

	if previous != "" {
		s.anomalies.RecordStorageAnomaly(keySchemaVersion, AnomalyMigrated)
		log.Info("storage schema migrated",
			slog.String("from_version", previous),
			slog.String("to_version", SchemaVersion),
			slog.Int("created_collections", len(entries)-1))
	} else {
		log.Info("storage schema initialized", slog.String("version", SchemaVersion))
	}
	return nil
}

// GetCard returns the stored card for (setID, itemID) or a synthesized New card.
// Synthesized cards are not persisted.
func (s *Store) GetCard(ctx context.Context, setID, itemID int) domain.Card {
	s.mu.Lock()
	defer s.mu.Unlock()

	cards := s.cardsOrEmpty(ctx)
	if card, ok := cards[domain.CardKey(setID, itemID)]; ok {
		return card
	}
	return domain.NewCard(setID, itemID, s.now())
}

// SaveCard upserts a single card.
func (s *Store) SaveCard(ctx context.Context, card domain.Card) error {
	return s.SaveCards(ctx, card)
}

// SaveCards upserts cards by key, last write wins.
func (s *Store) SaveCards(ctx context.Context, cards ...domain.Card) error {
	for _, c := range cards {
		if err := c.Validate(); err != nil {
			return NewStoreError(CollectionCards, "save", "invalid card "+c.Key(),
				fmt.Errorf("%w: %w", ErrInvalidEntity, err))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.readCards(ctx)
	if err != nil {
		return err
	}
	for _, c := range cards {
		stored[c.Key()] = c
	}
	return s.write(ctx, "save", map[string]any{CollectionCards: stored})
}

// AppendReviewLog appends an entry to the review log. Entries are never deduplicated.
func (s *Store) AppendReviewLog(ctx context.Context, entry domain.ReviewLogEntry) error {
	if err := entry.Validate(); err != nil {
		return NewStoreError(CollectionReviews, "append", "invalid review log entry",
			fmt.Errorf("%w: %w", ErrInvalidEntity, err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	logs, err := s.readReviews(ctx)
	if err != nil {
		return err
	}
	logs = append(logs, entry)
	return s.write(ctx, "append", map[string]any{CollectionReviews: logs})
}

// SaveReview persists an updated card and its log entry in a single atomic write.
func (s *Store) SaveReview(ctx context.Context, card domain.Card, entry domain.ReviewLogEntry) error {
	if err := card.Validate(); err != nil {
		return NewStoreError(CollectionCards, "save_review", "invalid card "+card.Key(),
			fmt.Errorf("%w: %w", ErrInvalidEntity, err))
	}
	if err := entry.Validate(); err != nil {
		return NewStoreError(CollectionReviews, "save_review", "invalid review log entry",
			fmt.Errorf("%w: %w", ErrInvalidEntity, err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cards, err := s.readCards(ctx)
	if err != nil {
		return err
	}
	logs, err := s.readReviews(ctx)
	if err != nil {
		return err
	}
	cards[card.Key()] = card
	logs = append(logs, entry)
	return s.write(ctx, "save_review", map[string]any{
		CollectionCards:   cards,
		CollectionReviews: logs,
	})
}

// GetAllCards returns every stored card, optionally restricted to one set,
// ordered by set then item.
func (s *Store) GetAllCards(ctx context.Context, setID *int) []domain.Card {
	s.mu.Lock()
	defer s.mu.Unlock()

	cards := s.cardsOrEmpty(ctx)
	out := make([]domain.Card, 0, len(cards))
	for _, c := range cards {
		if setID != nil && c.SetID != *setID {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SetID != out[j].SetID {
			return out[i].SetID < out[j].SetID
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out
}

// GetAllLogs returns the review log in append order, optionally restricted to one set.
func (s *Store) GetAllLogs(ctx context.Context, setID *int) []domain.ReviewLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	logs := s.reviewsOrEmpty(ctx)
	if setID == nil {
		return logs
	}
	out := make([]domain.ReviewLogEntry, 0, len(logs))
	for _, e := range logs {
		if e.SetID == *setID {
			out = append(out, e)
		}
	}
	return out
}

// GetItemLogs returns the review history of one item in append order.
func (s *Store) GetItemLogs(ctx context.Context, setID, itemID int) []domain.ReviewLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.ReviewLogEntry
	for _, e := range s.reviewsOrEmpty(ctx) {
		if e.SetID == setID && e.ItemID == itemID {
			out = append(out, e)
		}
	}
	return out
}

// ToggleExclusion flips the exclusion mark of an item and reports whether it is now excluded.
func (s *Store) ToggleExclusion(ctx context.Context, setID, itemID int) (bool, error) {
	if setID < 0 || itemID < 0 {
		return false, NewStoreError(CollectionExclusions, "toggle", "ids must be non-negative",
			fmt.Errorf("%w: %w", ErrInvalidEntity, domain.ErrInvalidInput))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exclusions, err := s.readExclusions(ctx)
	if err != nil {
		return false, err
	}

	setKey := strconv.Itoa(setID)
	ids := exclusions[setKey]
	excluded := true
	next := make([]int, 0, len(ids)+1)
	for _, id := range ids {
		if id == itemID {
			excluded = false
			continue
		}
		next = append(next, id)
	}
	if excluded {
		next = append(next, itemID)
	}
	sort.Ints(next)

	if len(next) == 0 {
		delete(exclusions, setKey)
	} else {
		exclusions[setKey] = next
	}
	if err := s.write(ctx, "toggle", map[string]any{CollectionExclusions: exclusions}); err != nil {
		return false, err
	}
	return excluded, nil
}

// GetExclusions returns the sorted excluded item ids of a set.
func (s *Store) GetExclusions(ctx context.Context, setID int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	exclusions, err := s.readExclusions(ctx)
	if err != nil {
		s.degraded(ctx, CollectionExclusions, err)
		return []int{}
	}
	ids := append([]int{}, exclusions[strconv.Itoa(setID)]...)
	sort.Ints(ids)
	return ids
}

// Ping reports whether the underlying medium is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.kv.Ping(ctx); err != nil {
		return unavailable("kv", "ping", err)
	}
	return nil
}

// ClearAll removes every collection and the version marker, then re-initializes.
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := []string{
		s.key(CollectionCards),
		s.key(CollectionReviews),
		s.key(CollectionExclusions),
		s.key(keySchemaVersion),
	}
	if err := s.kv.Delete(ctx, keys...); err != nil {
		return unavailable("all", "clear", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Info("all scheduling data cleared")
	return s.initLocked(ctx)
}

// readCards decodes the cards collection. Corrupt blobs decode as empty;
// only medium failures are returned.
func (s *Store) readCards(ctx context.Context) (map[string]domain.Card, error) {
	var cards map[string]domain.Card
	ok, err := s.load(ctx, CollectionCards, &cards, func() error { return validateCards(cards) })
	if err != nil {
		return nil, err
	}
	if !ok || cards == nil {
		return make(map[string]domain.Card), nil
	}
	return cards, nil
}

func (s *Store) readReviews(ctx context.Context) ([]domain.ReviewLogEntry, error) {
	var logs []domain.ReviewLogEntry
	ok, err := s.load(ctx, CollectionReviews, &logs, func() error { return validateReviews(logs) })
	if err != nil {
		return nil, err
	}
	if !ok || logs == nil {
		return []domain.ReviewLogEntry{}, nil
	}
	return logs, nil
}

func (s *Store) readExclusions(ctx context.Context) (map[string][]int, error) {
	var exclusions map[string][]int
	ok, err := s.load(ctx, CollectionExclusions, &exclusions, func() error {
		return validateExclusions(exclusions)
	})
	if err != nil {
		return nil, err
	}
	if !ok || exclusions == nil {
		return make(map[string][]int), nil
	}
	return exclusions, nil
}

func (s *Store) cardsOrEmpty(ctx context.Context) map[string]domain.Card {
	cards, err := s.readCards(ctx)
	if err != nil {
		s.degraded(ctx, CollectionCards, err)
		return map[string]domain.Card{}
	}
	return cards
}

func (s *Store) reviewsOrEmpty(ctx context.Context) []domain.ReviewLogEntry {
	logs, err := s.readReviews(ctx)
	if err != nil {
		s.degraded(ctx, CollectionReviews, err)
		return []domain.ReviewLogEntry{}
	}
	return logs
}

// load fetches and decodes one collection into dst. It reports false when the
// key is missing or the blob is corrupt; the corrupt bytes are left in place.
func (s *Store) load(ctx context.Context, name string, dst any, validate func() error) (bool, error) {
	raw, err := s.kv.Get(ctx, s.key(name))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return false, nil
		}
		return false, unavailable(name, "read", err)
	}

	err = json.Unmarshal(raw, dst)
	if err == nil && validate != nil {
		err = validate()
	}
	if err != nil {
		s.anomalies.RecordStorageAnomaly(name, AnomalyCorrupt)
		logger.FromContextOrDefault(ctx, s.logger).Warn("persisted collection is corrupt, treating it as empty",
			slog.String("collection", name),
			slog.String("error", fmt.Errorf("%w: %w", ErrCorruptData, err).Error()))
		return false, nil
	}
	return true, nil
}

func (s *Store) degraded(ctx context.Context, name string, err error) {
	s.anomalies.RecordStorageAnomaly(name, AnomalyUnavailable)
	logger.FromContextOrDefault(ctx, s.logger).Warn("storage read failed, using empty defaults",
		slog.String("collection", name),
		slog.String("error", err.Error()))
}

// write encodes the given collections and stores them together.
func (s *Store) write(ctx context.Context, op string, collections map[string]any) error {
	blobs := make(map[string][]byte, len(collections))
	names := make([]string, 0, len(collections))
	for name, v := range collections {
		data, err := json.Marshal(v)
		if err != nil {
			return NewStoreError(name, op, "encode failed", err)
		}
		blobs[s.key(name)] = data
		names = append(names, name)
	}
	sort.Strings(names)

	var err error
	if len(blobs) == 1 {
		err = s.kv.Set(ctx, s.key(names[0]), blobs[s.key(names[0])])
	} else {
		err = s.kv.SetMany(ctx, blobs)
	}
	if err != nil {
		return unavailable(fmt.Sprint(names), op, err)
	}
	return nil
}

func unavailable(entity, op string, err error) error {
	if errors.Is(err, ErrStorageUnavailable) {
		return NewStoreError(entity, op, "storage medium failed", err)
	}
	return NewStoreError(entity, op, "storage medium failed", fmt.Errorf("%w: %w", ErrStorageUnavailable, err))
}

func validateCards(cards map[string]domain.Card) error {
	for key, c := range cards {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("card %s: %w", key, err)
		}
		if key != c.Key() {
			return fmt.Errorf("card stored under %q has key %q", key, c.Key())
		}
	}
	return nil
}

func validateReviews(logs []domain.ReviewLogEntry) error {
	for i, e := range logs {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("review %d: %w", i, err)
		}
	}
	return nil
}

func validateExclusions(exclusions map[string][]int) error {
	for key, ids := range exclusions {
		setID, err := strconv.Atoi(key)
		if err != nil || setID < 0 {
			return fmt.Errorf("exclusion set key %q is not a set id", key)
		}
		for _, id := range ids {
			if id < 0 {
				return fmt.Errorf("exclusion set %s: negative item id %d", key, id)
			}
		}
	}
	return nil
}
