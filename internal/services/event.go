package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ticketing/internal/domain"
)

type eventService struct {
	store          domain.TableStore
	emailService   domain.EmailService
	logger         *slog.Logger
	contextTimeout time.Duration
	corruptAsEmpty bool

	// mu serialises every read-modify-write of the events and counts tables.
	mu sync.Mutex
	// mail tracks confirmation emails still being sent.
	mail sync.WaitGroup
}

// NewEventService creates an EventService over store. When corruptAsEmpty is true an undecodable
// table is logged and read as empty; otherwise the storage error is returned to the caller.
// emailService may be nil, in which case no confirmation emails are sent.
func NewEventService(store domain.TableStore,
	emailService domain.EmailService,
	logger *slog.Logger,
	timeout time.Duration,
	corruptAsEmpty bool,
) domain.EventService {
	if logger == nil {
		logger = slog.Default()
	}
	return &eventService{
		store:          store,
		emailService:   emailService,
		logger:         logger,
		contextTimeout: timeout,
		corruptAsEmpty: corruptAsEmpty,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if name == "" {
		return fmt.Errorf("%w: event name is required", domain.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.loadEvents(ctx)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	if _, ok := events[name]; ok {
		return fmt.Errorf("%w: event %q already exists", domain.ErrConflict, name)
	}
	counts, err := s.loadCounts(ctx)
	if err != nil {
		return fmt.Errorf("load counts: %w", err)
	}

	prev := events.Clone()
	events[name] = domain.NewEvent()
	counts[name] = 0

	return s.commit(ctx, prev, events, counts)
}

func (s *eventService) ListEvents(ctx context.Context) (domain.EventsTable, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.loadEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	return events, nil
}

func (s *eventService) ListRegistrationCounts(ctx context.Context) (domain.CountsTable, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	counts, err := s.loadCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load counts: %w", err)
	}
	return counts, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.loadEvents(ctx)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	// Existence is decided by the events table only; a missing counts entry is not an error.
	if _, ok := events[name]; !ok {
		return fmt.Errorf("%w: event %q", domain.ErrNotFound, name)
	}
	counts, err := s.loadCounts(ctx)
	if err != nil {
		return fmt.Errorf("load counts: %w", err)
	}

	prev := events.Clone()
	delete(events, name)
	delete(counts, name)

	return s.commit(ctx, prev, events, counts)
}

func (s *eventService) Reconcile(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.loadEvents(ctx)
	if err != nil {
		return 0, fmt.Errorf("load events: %w", err)
	}
	counts, err := s.loadCounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("load counts: %w", err)
	}

	want := events.Counts()
	changed := 0
	for name, n := range want {
		if got, ok := counts[name]; !ok || got != n {
			changed++
		}
	}
	for name := range counts {
		if _, ok := want[name]; !ok {
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}
	if err := s.store.Put(ctx, domain.TableCounts, want); err != nil {
		return 0, fmt.Errorf("put counts: %w", err)
	}
	s.logger.InfoContext(ctx, "registration counts reconciled", "changed", changed)
	return changed, nil
}

// commit writes events then counts. If the counts write fails, the previous events snapshot is
// written back so the two tables stay consistent.
func (s *eventService) commit(ctx context.Context, prev, events domain.EventsTable, counts domain.CountsTable) error {
	if err := s.store.Put(ctx, domain.TableEvents, events); err != nil {
		return fmt.Errorf("put events: %w", err)
	}
	if err := s.store.Put(ctx, domain.TableCounts, counts); err != nil {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.contextTimeout)
		defer cancel()
		if rbErr := s.store.Put(rctx, domain.TableEvents, prev); rbErr != nil {
			s.logger.ErrorContext(ctx, "restore events after failed counts write", "err", rbErr, "cause", err)
		}
		return fmt.Errorf("put counts: %w", err)
	}
	return nil
}

func (s *eventService) loadEvents(ctx context.Context) (domain.EventsTable, error) {
	events := domain.EventsTable{}
	if err := s.store.Get(ctx, domain.TableEvents, &events); err != nil {
		if !s.tolerate(ctx, domain.TableEvents, err) {
			return nil, err
		}
		events = domain.EventsTable{}
	}
	// A stored JSON null decodes to a nil map.
	if events == nil {
		events = domain.EventsTable{}
	}
	for name, ev := range events {
		if ev == nil {
			events[name] = domain.NewEvent()
		} else if ev.Registrations == nil {
			ev.Registrations = []domain.Registration{}
		}
	}
	return events, nil
}

func (s *eventService) loadCounts(ctx context.Context) (domain.CountsTable, error) {
	counts := domain.CountsTable{}
	if err := s.store.Get(ctx, domain.TableCounts, &counts); err != nil {
		if !s.tolerate(ctx, domain.TableCounts, err) {
			return nil, err
		}
		counts = domain.CountsTable{}
	}
	if counts == nil {
		counts = domain.CountsTable{}
	}
	return counts, nil
}

// tolerate reports whether a read error may be treated as an empty table.
func (s *eventService) tolerate(ctx context.Context, table domain.Table, err error) bool {
	if !s.corruptAsEmpty || !domain.IsCorrupt(err) {
		return false
	}
	s.logger.WarnContext(ctx, "table is corrupt, reading as empty", "table", string(table), "err", err)
	return true
}

// Wait blocks until every confirmation email started by RegisterAttendee has finished.
func (s *eventService) Wait() {
	s.mail.Wait()
}
