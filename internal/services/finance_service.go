package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/auth"
	"bilancio/internal/cache"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/storage"
)

var (
	// ErrForbidden covers both a missing entity and one owned by someone else,
	// so callers cannot discover other users' IDs.
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrEmailTaken         = errors.New("email already registered")
)

const (
	categoryCacheSize = 512
	categoryCacheTTL  = 5 * time.Minute
)

// EventPublisher receives record.changed notifications after every mutation.
type EventPublisher interface {
	PublishRecordChanged(ctx context.Context, evt amqp.RecordChangedEvent) error
}

// FinanceService orchestrates the record store, session tokens and event
// publishing for users, months, transactions, assets and categories.
type FinanceService struct {
	store      *storage.Store
	events     EventPublisher
	tokens     *auth.TokenManager
	categories *cache.LRUCache[[]core.Category]
	logger     *log.Logger
	audit      *log.StructuredLogger
	now        func() time.Time
}

type Option func(*FinanceService)

func WithLogger(l *log.Logger) Option {
	return func(s *FinanceService) { s.logger = l }
}

// WithClock overrides the time source used to pick the current month.
func WithClock(now func() time.Time) Option {
	return func(s *FinanceService) { s.now = now }
}

// WithCategoryCache shares a category cache, e.g. one registered with a cache.Manager.
func WithCategoryCache(c *cache.LRUCache[[]core.Category]) Option {
	return func(s *FinanceService) { s.categories = c }
}

// NewFinanceService wires the service. events may be nil when no broker is configured.
func NewFinanceService(store *storage.Store, events EventPublisher, tokens *auth.TokenManager, opts ...Option) *FinanceService {
	s := &FinanceService{
		store:  store,
		events: events,
		tokens: tokens,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(log.DefaultConfig())
	}
	s.logger = s.logger.WithComponent(log.ComponentFinance)
	if s.categories == nil {
		s.categories = NewCategoryCache()
	}
	s.audit = log.NewStructuredLogger(s.logger)
	return s
}

// NewCategoryCache builds the per-user category list cache.
func NewCategoryCache() *cache.LRUCache[[]core.Category] {
	return cache.NewLRUCache[[]core.Category](categoryCacheSize, categoryCacheTTL)
}

// CategoryCacheStats reports usage of the category list cache.
func (s *FinanceService) CategoryCacheStats() cache.Stats {
	return s.categories.Stats()
}

// Ping checks the store for readiness checks.
func (s *FinanceService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Now is the service clock.
func (s *FinanceService) Now() time.Time {
	return s.now()
}

// CurrentPeriod is the calendar month containing the service clock's now.
func (s *FinanceService) CurrentPeriod() core.Period {
	return core.PeriodOf(s.now())
}

// publish announces a change to rec. Failures are logged and swallowed: the
// mutation is already committed.
func (s *FinanceService) publish(ctx context.Context, rec core.MonthlyRecord, kind, action string) {
	if s.events == nil {
		return
	}
	evt := amqp.NewRecordChangedEvent(rec.ID, rec.UserID, rec.Year, rec.Month, kind, action)
	if err := s.events.PublishRecordChanged(ctx, evt); err != nil {
		s.audit.LogError(ctx, "Failed to publish record.changed", err, log.ComponentAMQP, log.OpPublish,
			log.NewFields().WithRecord(rec.ID, rec.Year, rec.Month).WithUser(rec.UserID))
	}
}

// ownedRecord loads a record and checks it belongs to userID.
func (s *FinanceService) ownedRecord(ctx context.Context, userID, recordID string) (core.MonthlyRecord, error) {
	rec, err := s.store.GetMonthlyRecordByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.MonthlyRecord{}, ErrForbidden
		}
		return core.MonthlyRecord{}, fmt.Errorf("get monthly record: %w", err)
	}
	if rec.UserID != userID {
		return core.MonthlyRecord{}, ErrForbidden
	}
	return rec, nil
}

// usableCategory loads a category a transaction of userID may reference.
func (s *FinanceService) usableCategory(ctx context.Context, userID, categoryID string) (core.Category, error) {
	cat, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.Category{}, ErrInvalidCategory
		}
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	if !cat.UsableBy(userID) {
		return core.Category{}, ErrInvalidCategory
	}
	return cat, nil
}
