package services

import (
	"context"
	"fmt"

	"ticketing/internal/domain"
)

func (s *eventService) RegisterAttendee(ctx context.Context, eventName string, reg domain.Registration) (*domain.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if reg.Name == "" || reg.Email == "" || eventName == "" {
		return nil, fmt.Errorf("%w: name, email, and event are required", domain.ErrValidation)
	}

	if err := s.appendRegistration(ctx, eventName, reg); err != nil {
		return nil, err
	}

	if s.emailService != nil {
		s.sendConfirmation(ctx, &domain.RegistrationConfirmationEmailData{
			Email:     reg.Email,
			Name:      reg.Name,
			EventName: eventName,
		})
	}
	return &reg, nil
}

func (s *eventService) appendRegistration(ctx context.Context, eventName string, reg domain.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.loadEvents(ctx)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	ev, ok := events[eventName]
	if !ok {
		return fmt.Errorf("%w: event %q", domain.ErrNotFound, eventName)
	}
	if ev.HasEmail(reg.Email) {
		return fmt.Errorf("%w: %s is already registered for %q", domain.ErrConflict, reg.Email, eventName)
	}
	counts, err := s.loadCounts(ctx)
	if err != nil {
		return fmt.Errorf("load counts: %w", err)
	}

	prev := events.Clone()
	ev.Registrations = append(ev.Registrations, reg)
	counts[eventName] = len(ev.Registrations)

	return s.commit(ctx, prev, events, counts)
}

// sendConfirmation mails the attendee in the background. The registration is already persisted, so
// failures are only logged, and the send gets its own timeout detached from the request.
func (s *eventService) sendConfirmation(ctx context.Context, data *domain.RegistrationConfirmationEmailData) {
	s.mail.Add(1)
	go func() {
		defer s.mail.Done()
		mailCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.contextTimeout)
		defer cancel()
		if err := s.emailService.SendRegistrationConfirmation(mailCtx, data); err != nil {
			s.logger.WarnContext(mailCtx, "send registration confirmation", "event", data.EventName, "err", err)
		}
	}()
}
