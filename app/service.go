// Package app wires the scheduling engine together from the configuration.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/propscan/scheduler/api/scheduling"
	"github.com/propscan/scheduler/config"
	"github.com/propscan/scheduler/core/events"
	"github.com/propscan/scheduler/core/extsync"
	coremetrics "github.com/propscan/scheduler/core/metrics"
	"github.com/propscan/scheduler/core/model"
	"github.com/propscan/scheduler/core/reminder"
	"github.com/propscan/scheduler/core/schedule"
	corestore "github.com/propscan/scheduler/core/store"
	"github.com/propscan/scheduler/core/territory"
	"github.com/propscan/scheduler/infra/gcal"
	"github.com/propscan/scheduler/infra/logger"
	"github.com/propscan/scheduler/infra/metrics"
	"github.com/propscan/scheduler/infra/notify"
	"github.com/propscan/scheduler/infra/store"
	"github.com/propscan/scheduler/internal/eventbus"
)

// Service orchestrates the booking engine, its background workers and the
// HTTP surface.
type Service struct {
	Store       corestore.CalendarStore
	Coordinator *schedule.Coordinator
	Assigner    *schedule.Assigner
	Router      http.Handler

	bus        *eventbus.Bus[events.BookingEvent]
	reminders  *reminder.Scheduler
	dispatcher *reminder.Dispatcher
	sync       *extsync.Worker
	log        logger.Logger
	cfg        *config.Config
	closers    []func() error
}

// New creates a Service from the configuration.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	svc := &Service{log: logg, cfg: cfg}

	var st corestore.CalendarStore
	if cfg.Store.URL == "" {
		logg.Infof("no store url configured, using in-memory store")
		st = corestore.NewMemoryStore()
	} else {
		pg, err := store.Connect(cfg.Store)
		if err != nil {
			return nil, fmt.Errorf("connect store: %w", err)
		}
		svc.closers = append(svc.closers, pg.Close)
		st = pg
	}
	svc.Store = st

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(nil)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sink := metrics.NewInfluxSinkWithFallback(cfg.Metrics)
		if c, ok := sink.(*metrics.InfluxSink); ok {
			svc.closers = append(svc.closers, func() error { c.Close(); return nil })
		}
		sinks = append(sinks, sink)
	}
	var sink coremetrics.MetricsSink
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	matrix := territory.New(cfg.Territory)
	detector := schedule.NewConflictDetector(st, matrix, cfg.Schedule)
	availability := schedule.NewAvailabilityIndex(st, cfg.Schedule)
	assigner := schedule.NewAssigner(st, detector, matrix, logger.New("assigner"))
	if rec, ok := sink.(coremetrics.SuggestionRecorder); ok {
		assigner.SetRecorder(rec)
	}

	bus := eventbus.New[events.BookingEvent]()
	svc.bus = bus
	coordinator, err := schedule.NewCoordinator(st, detector, bus, sink, logger.New("coordinator"), cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("coordinator: %w", err)
	}
	planner, err := schedule.NewPlanner(st, matrix, cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}

	reminders, err := reminder.NewScheduler(st, logger.New("reminder"), cfg.Reminder)
	if err != nil {
		return nil, fmt.Errorf("reminder scheduler: %w", err)
	}
	var sender reminder.Sender
	if cfg.Notify.Broker != "" {
		mq, err := notify.NewMQTTSender(cfg.Notify)
		if err != nil {
			return nil, fmt.Errorf("mqtt sender: %w", err)
		}
		svc.closers = append(svc.closers, func() error { mq.Disconnect(250); return nil })
		sender = mq
	} else {
		logg.Warnf("no notification broker configured, reminders are logged only")
		sender = notify.NewLogSender()
	}
	remRecorder, _ := sink.(coremetrics.ReminderRecorder)
	dispatcher, err := reminder.NewDispatcher(st, sender, remRecorder, logger.New("reminder-dispatch"), cfg.Reminder)
	if err != nil {
		return nil, fmt.Errorf("reminder dispatcher: %w", err)
	}

	var provider extsync.Provider
	if cfg.GCal.Enabled {
		provider, err = gcal.NewProvider(ctx, cfg.GCal)
		if err != nil {
			return nil, fmt.Errorf("calendar provider: %w", err)
		}
	} else {
		logg.Warnf("calendar sync disabled, using local provider")
		provider = localProvider{log: logg}
	}
	syncRecorder, _ := sink.(coremetrics.SyncRecorder)
	syncWorker, err := extsync.NewWorker(st, provider, syncRecorder, logger.New("extsync"), cfg.Sync)
	if err != nil {
		return nil, fmt.Errorf("sync worker: %w", err)
	}

	svc.Coordinator = coordinator
	svc.Assigner = assigner
	svc.reminders = reminders
	svc.dispatcher = dispatcher
	svc.sync = syncWorker

	handler := scheduling.NewHandler(st, availability, detector, assigner, coordinator, planner, reminders, syncWorker, logger.New("api"))
	svc.Router = scheduling.NewRouter(handler, cfg.Server.AllowedOrigins)
	return svc, nil
}

// Run starts the background workers and the HTTP server, blocking until the
// context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	go s.dispatcher.Run(ctx)
	go s.sync.Run(ctx)
	go s.consumeEvents(ctx)

	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Infof("listening on %s", s.cfg.Server.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

// consumeEvents feeds booking lifecycle events to the reminder scheduler and
// the sync worker.
func (s *Service) consumeEvents(ctx context.Context) {
	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			s.reminders.HandleEvent(ctx, ev)
			s.sync.HandleEvent(ctx, ev)
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// localProvider stands in for the calendar provider when sync is disabled.
// Operations succeed locally so records still reach a terminal state.
type localProvider struct {
	log logger.Logger
}

func (p localProvider) UpsertEvent(_ context.Context, insp model.Inspection, externalEventID string) (string, error) {
	if externalEventID == "" {
		externalEventID = uuid.NewString()
	}
	p.log.Debugf("local upsert for inspection %s", insp.ID)
	return externalEventID, nil
}

func (p localProvider) DeleteEvent(_ context.Context, externalEventID string) error {
	p.log.Debugf("local delete for event %s", externalEventID)
	return nil
}
