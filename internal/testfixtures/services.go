package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/meeting-scheduler/internal/application"
	"github.com/example/meeting-scheduler/internal/persistence"
	"github.com/example/meeting-scheduler/internal/storeadapter"
)

// ServiceFactory builds application services over a store with a
// deterministic clock and meeting IDs.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with a ReferenceTime clock and a discarding logger.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("")
	}
	if factory.Logger == nil {
		factory.Logger = slog.New(slog.DiscardHandler)
	}
	return factory
}

// WithClock overrides the factory clock.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.Clock = clock }
}

// WithIDGenerator overrides the meeting ID generator.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.IDGenerator = generator }
}

// WithLogger overrides the logger handed to services.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.Logger = logger }
}

// SchedulerDeps holds the optional collaborators of a scheduler under test.
type SchedulerDeps struct {
	Locker      application.Locker
	Observer    application.RunObserver
	Location    *time.Location
	Concurrency int
}

// NewSchedulerService builds a SchedulerService reading from and writing to store.
func (f *ServiceFactory) NewSchedulerService(store persistence.Store, deps SchedulerDeps) *application.SchedulerService {
	adapter := storeadapter.New(store)
	return application.NewSchedulerService(application.SchedulerDependencies{
		Clubs:       adapter,
		Meetings:    adapter,
		Attendance:  adapter,
		Locker:      deps.Locker,
		Observer:    deps.Observer,
		IDGenerator: f.IDGenerator.NextFunc(),
		Now:         f.Clock.NowFunc(),
		Logger:      f.Logger,
		Location:    deps.Location,
		Concurrency: deps.Concurrency,
	})
}

// NewMeetingQueryService builds a MeetingQueryService over store.
func (f *ServiceFactory) NewMeetingQueryService(store persistence.Store) *application.MeetingQueryService {
	adapter := storeadapter.New(store)
	return application.NewMeetingQueryServiceWithLogger(adapter, adapter, f.Clock.NowFunc(), f.Logger)
}
