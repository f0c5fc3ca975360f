package dashboard

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperpc/marketsync/internal/application/bulksync"
	"github.com/hyperpc/marketsync/internal/domain/integration"
	"github.com/hyperpc/marketsync/internal/domain/shared"
)

// DefaultLowStockThreshold applies to products without a MinStock
const DefaultLowStockThreshold = 5

// Summary is the dashboard view for one day
type Summary struct {
	Stats
	// Date is the requested day
	Date time.Time
	// DateMatched is false when no order fell on Date and Stats covers every order
	DateMatched   bool
	LowStockCount int
	LastSync      *time.Time
}

// Service answers dashboard queries from the canonical store
type Service struct {
	orders    integration.OrderRepository
	products  integration.ProductRepository
	threshold int
	loc       *time.Location
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.RWMutex
	lastSync *time.Time
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithLowStockThreshold sets the threshold for products without MinStock
func WithLowStockThreshold(n int) ServiceOption {
	return func(s *Service) {
		if n >= 0 {
			s.threshold = n
		}
	}
}

// WithLocation sets the time zone that calendar days are evaluated in
func WithLocation(loc *time.Location) ServiceOption {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithNow overrides the time source used for the default date
func WithNow(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a dashboard service
func NewService(orders integration.OrderRepository, products integration.ProductRepository, logger *zap.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		orders:    orders,
		products:  products,
		threshold: DefaultLowStockThreshold,
		loc:       time.UTC,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the time zone calendar days are evaluated in
func (s *Service) Location() *time.Location {
	return s.loc
}

// Summary computes the stats of day. A nil day means today.
func (s *Service) Summary(ctx context.Context, day *time.Time) (*Summary, error) {
	d := s.now().In(s.loc)
	if day != nil {
		d = day.In(s.loc)
	}

	orders, err := s.orders.FindAll(ctx, integration.OrderFilter{})
	if err != nil {
		return nil, err
	}
	products, err := s.products.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	selected, matched := FilterByDate(orders, d)
	if !matched && len(orders) > 0 {
		s.logger.Debug("No orders on selected date, showing all",
			zap.String("date", d.Format(time.DateOnly)),
			zap.Int("orders", len(orders)),
		)
	}

	return &Summary{
		Stats:         Compute(selected),
		Date:          d,
		DateMatched:   matched,
		LowStockCount: LowStockCount(products, s.threshold),
		LastSync:      s.LastSync(),
	}, nil
}

// Orders lists orders matching filter, newest first
func (s *Service) Orders(ctx context.Context, filter integration.OrderFilter) ([]integration.Order, error) {
	return s.orders.FindAll(ctx, filter)
}

// LowStock lists products at or below their reorder threshold
func (s *Service) LowStock(ctx context.Context) ([]integration.Product, error) {
	products, err := s.products.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]integration.Product, 0)
	for i := range products {
		if products[i].IsLowStock(s.threshold) {
			out = append(out, products[i])
		}
	}
	return out, nil
}

// MarkSynced records a completed synchronization. Older times are ignored.
func (s *Service) MarkSynced(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSync == nil || at.After(*s.lastSync) {
		s.lastSync = &at
	}
}

// LastSync returns the time of the last completed synchronization
func (s *Service) LastSync() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastSync == nil {
		return nil
	}
	t := *s.lastSync
	return &t
}

// ---------------------------------------------------------------------------
// Event handling
// ---------------------------------------------------------------------------

// Handle records the finish time of bulk sync runs and marketplace pulls
func (s *Service) Handle(_ context.Context, event shared.DomainEvent) error {
	switch event.EventType() {
	case bulksync.EventTypeRunFinished, integration.EventTypeMarketplacePulled:
		s.MarkSynced(event.OccurredAt())
	}
	return nil
}

// EventTypes returns the events the service listens to
func (s *Service) EventTypes() []string {
	return []string{bulksync.EventTypeRunFinished, integration.EventTypeMarketplacePulled}
}

var _ shared.EventHandler = (*Service)(nil)
