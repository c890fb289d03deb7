package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/athulkrishnap25/expanse-tracker/internal/domain"
	"github.com/athulkrishnap25/expanse-tracker/internal/events"
	"github.com/athulkrishnap25/expanse-tracker/internal/store"
)

const (
	dateLayout         = "2006-01-02"
	productSearchLimit = 10
	// moneyPlaces matches the NUMERIC(14, 2) money columns.
	moneyPlaces = 2
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo       store.Repository
	dispatcher events.Dispatcher
	policy     store.StockPolicy
	now        func() time.Time
	loc        *time.Location
	log        zerolog.Logger
}

type Option func(*Service)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone used for calendar dates and month boundaries.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.log = logger.With().Str("component", "service").Logger() }
}

// WithStockPolicy makes RecordSale refuse carts that would take stock below
// zero when policy is StockRejectNegative.
func WithStockPolicy(policy store.StockPolicy) Option {
	return func(s *Service) { s.policy = policy }
}

func New(repo store.Repository, dispatcher events.Dispatcher, opts ...Option) *Service {
	if dispatcher == nil {
		dispatcher = events.Noop{}
	}
	s := &Service{
		repo:       repo,
		dispatcher: dispatcher,
		policy:     store.StockAllowNegative,
		now:        time.Now,
		loc:        time.Local,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) clock() time.Time {
	return s.now().In(s.loc)
}

func (s *Service) parseDate(field string, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, store.Invalid("%s is required", field)
	}
	day, err := time.ParseInLocation(dateLayout, value, s.loc)
	if err != nil {
		return time.Time{}, store.Invalid("%s must be a date in YYYY-MM-DD form", field)
	}
	return day, nil
}

// roundMoney rounds to cents, half away from zero, so every store keeps the
// same value.
func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}
