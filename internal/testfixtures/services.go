package testfixtures

import (
	"time"

	"go.uber.org/zap"

	"github.com/example/marketplace-booking/internal/application"
	"github.com/example/marketplace-booking/internal/availability"
	"github.com/example/marketplace-booking/internal/persistence"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Engine      *availability.Engine
	Store       persistence.KeyValueStore
	Logger      *zap.Logger
	EndInterval int
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults: UTC engine
// with 30 minute slots, 15 minute end options and an in-memory store.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Engine:      availability.NewEngine(time.UTC),
		Store:       persistence.NewMemoryStore(),
		Logger:      zap.NewNop(),
		EndInterval: 15,
	}
	for _, opt := range opts {
		opt(factory)
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithStore overrides the key-value store used by session and cart services.
func WithStore(store persistence.KeyValueStore) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Store = store
	}
}

// WithEngine overrides the availability engine.
func WithEngine(engine *availability.Engine) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Engine = engine
	}
}

// NewBookingService builds a booking service against api.
func (f *ServiceFactory) NewBookingService(api application.BookingAPI) *application.BookingService {
	return application.NewBookingServiceWithLogger(api, f.Engine, f.EndInterval, f.Logger)
}

// NewRequestFlowService builds a request flow service against api.
func (f *ServiceFactory) NewRequestFlowService(api application.BookingAPI) *application.RequestFlowService {
	return application.NewRequestFlowService(api, f.Engine, application.RequestFlowOptions{
		EndInterval: f.EndInterval,
		TTL:         30 * time.Minute,
		MaxFlows:    16,
		IDGenerator: f.IDGenerator.NextFunc(),
		Now:         f.Clock.NowFunc(),
		Logger:      f.Logger,
	})
}

// NewSessionService builds a session service on the factory store.
func (f *ServiceFactory) NewSessionService() *application.SessionService {
	return application.NewSessionServiceWithLogger(f.Store, "test", f.Clock.NowFunc(), f.Logger)
}

// NewCartService builds a cart service on the factory store.
func (f *ServiceFactory) NewCartService() *application.CartService {
	return application.NewCartServiceWithLogger(f.Store, "test", f.IDGenerator.NextFunc(), f.Logger)
}
