package domain

import "context"

// Table names one persisted mapping. Each table is read and written as a whole.
type Table string

const (
	// TableEvents maps event name to its Event record.
	TableEvents Table = "events"
	// TableCounts maps event name to the number of registrations for it.
	TableCounts Table = "registration-counts"
)

// Event is the record stored for one event in the events table. The event is identified by its
// key in EventsTable, not by a field.
// swagger:model Event
type Event struct {
	Registrations []Registration `json:"registrations"`
}

// NewEvent returns an Event with no registrations. Registrations is never nil so it encodes as [].
func NewEvent() *Event {
	return &Event{Registrations: []Registration{}}
}

// HasEmail reports whether an attendee with exactly this email is already registered.
func (e *Event) HasEmail(email string) bool {
	for _, r := range e.Registrations {
		if r.Email == email {
			return true
		}
	}
	return false
}

// EventsTable is the events table: event name to event record.
type EventsTable map[string]*Event

// CountsTable is the registration counts table: event name to len(registrations).
type CountsTable map[string]int

// Clone returns a deep copy, used to restore a snapshot when a paired write fails.
func (t EventsTable) Clone() EventsTable {
	out := make(EventsTable, len(t))
	for name, ev := range t {
		if ev == nil {
			out[name] = NewEvent()
			continue
		}
		regs := make([]Registration, len(ev.Registrations))
		copy(regs, ev.Registrations)
		out[name] = &Event{Registrations: regs}
	}
	return out
}

// Counts derives the counts table from the events table.
func (t EventsTable) Counts() CountsTable {
	out := make(CountsTable, len(t))
	for name, ev := range t {
		if ev == nil {
			out[name] = 0
			continue
		}
		out[name] = len(ev.Registrations)
	}
	return out
}

// TableStore persists whole tables. Get decodes the table into dest and leaves dest untouched when
// the table does not exist yet. Put replaces the table with src.
// Implementations return *StorageError for every failure.
type TableStore interface {
	Get(ctx context.Context, table Table, dest any) error
	Put(ctx context.Context, table Table, src any) error
}

// EventService defines the business logic for events and their registrations.
type EventService interface {
	CreateEvent(ctx context.Context, name string) error
	// RegisterAttendee appends the registration to the named event and returns it.
	RegisterAttendee(ctx context.Context, eventName string, reg Registration) (*Registration, error)
	ListEvents(ctx context.Context) (EventsTable, error)
	ListRegistrationCounts(ctx context.Context) (CountsTable, error)
	DeleteEvent(ctx context.Context, name string) error
	// Reconcile rewrites the counts table from the events table and returns how many entries changed.
	Reconcile(ctx context.Context) (int, error)
}
