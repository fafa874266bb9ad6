package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"ticketing/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger so service tests don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeTableStore is an in-memory TableStore that keeps encoded documents and can fail on demand.
type fakeTableStore struct {
	mu     sync.Mutex
	docs   map[domain.Table][]byte
	getErr map[domain.Table]error
	putErr map[domain.Table]error
	puts   []domain.Table
}

func newFakeTableStore() *fakeTableStore {
	return &fakeTableStore{
		docs:   make(map[domain.Table][]byte),
		getErr: make(map[domain.Table]error),
		putErr: make(map[domain.Table]error),
	}
}

func (f *fakeTableStore) Get(_ context.Context, table domain.Table, dest any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.getErr[table]; err != nil {
		return err
	}
	doc, ok := f.docs[table]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(doc, dest); err != nil {
		return domain.NewStorageError(table, "get", fmt.Errorf("%w: %v", domain.ErrCorruptTable, err))
	}
	return nil
}

func (f *fakeTableStore) Put(_ context.Context, table domain.Table, src any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, table)
	if err := f.putErr[table]; err != nil {
		return domain.NewStorageError(table, "put", err)
	}
	doc, err := json.Marshal(src)
	if err != nil {
		return err
	}
	f.docs[table] = doc
	return nil
}

func (f *fakeTableStore) events(t *testing.T) domain.EventsTable {
	t.Helper()
	out := domain.EventsTable{}
	require.NoError(t, f.Get(context.Background(), domain.TableEvents, &out))
	return out
}

func (f *fakeTableStore) counts(t *testing.T) domain.CountsTable {
	t.Helper()
	out := domain.CountsTable{}
	require.NoError(t, f.Get(context.Background(), domain.TableCounts, &out))
	return out
}

func (f *fakeTableStore) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.puts)
}

// fakeEmailService records confirmation emails. When release is set, each send blocks until it
// is closed and then records the context error it observes.
type fakeEmailService struct {
	mu      sync.Mutex
	err     error
	release chan struct{}
	sent    []*domain.RegistrationConfirmationEmailData
	ctxErrs []error
}

func (f *fakeEmailService) SendRegistrationConfirmation(ctx context.Context, data *domain.RegistrationConfirmationEmailData) error {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, data)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	return f.err
}

func (f *fakeEmailService) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestService(store domain.TableStore, email domain.EmailService) *eventService {
	return NewEventService(store, email, testLogger, time.Second, true).(*eventService)
}

func TestEventService_CreateEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("success writes both tables", func(t *testing.T) {
		store := newFakeTableStore()
		svc := newTestService(store, nil)

		require.NoError(t, svc.CreateEvent(ctx, "Tech Conference 2024"))

		assert.Equal(t, domain.EventsTable{"Tech Conference 2024": domain.NewEvent()}, store.events(t))
		assert.Equal(t, domain.CountsTable{"Tech Conference 2024": 0}, store.counts(t))
		assert.Equal(t, []domain.Table{domain.TableEvents, domain.TableCounts}, store.puts)
	})

	t.Run("empty name", func(t *testing.T) {
		store := newFakeTableStore()
		svc := newTestService(store, nil)

		err := svc.CreateEvent(ctx, "")

		require.ErrorIs(t, err, domain.ErrValidation)
		assert.Zero(t, store.putCount())
	})

	t.Run("duplicate name", func(t *testing.T) {
		store := newFakeTableStore()
		svc := newTestService(store, nil)
		require.NoError(t, svc.CreateEvent(ctx, "Conf"))

		err := svc.CreateEvent(ctx, "Conf")

		require.ErrorIs(t, err, domain.ErrConflict)
		assert.Len(t, store.events(t), 1)
		assert.Equal(t, 2, store.putCount(), "rejected create must not write")
	})

	t.Run("storage read error", func(t *testing.T) {
		store := newFakeTableStore()
		store.getErr[domain.TableEvents] = domain.NewStorageError(domain.TableEvents, "get", errors.New("permission denied"))
		svc := newTestService(store, nil)

		err := svc.CreateEvent(ctx, "Conf")

		var se *domain.StorageError
		require.True(t, errors.As(err, &se))
		assert.Zero(t, store.putCount())
	})
}

func TestEventService_RegisterAttendee(t *testing.T) {
	ctx := context.Background()
	alice := domain.NewRegistration("Alice", "a@x.com")

	t.Run("success appends and counts", func(t *testing.T) {
		store := newFakeTableStore()
		mail := &fakeEmailService{}
		svc := newTestService(store, mail)
		require.NoError(t, svc.CreateEvent(ctx, "Tech Conference 2024"))

		reg, err := svc.RegisterAttendee(ctx, "Tech Conference 2024", alice)

		require.NoError(t, err)
		assert.Equal(t, alice, *reg)
		assert.Equal(t, []domain.Registration{alice}, store.events(t)["Tech Conference 2024"].Registrations)
		assert.Equal(t, 1, store.counts(t)["Tech Conference 2024"])
		svc.Wait()
		require.Len(t, mail.sent, 1)
		assert.Equal(t, "Tech Conference 2024", mail.sent[0].EventName)
		assert.Equal(t, "a@x.com", mail.sent[0].Email)
	})

	t.Run("duplicate email", func(t *testing.T) {
		store := newFakeTableStore()
		svc := newTestService(store, nil)
		require.NoError(t, svc.CreateEvent(ctx, "Conf"))
		_, err := svc.RegisterAttendee(ctx, "Conf", alice)
		require.NoError(t, err)

		_, err = svc.RegisterAttendee(ctx, "Conf", domain.NewRegistration("Alice Again", "a@x.com"))

		require.ErrorIs(t, err, domain.ErrConflict)
		assert.Equal(t, 1, store.counts(t)["Conf"])
		assert.Len(t, store.events(t)["Conf"].Registrations, 1)
	})

	t.Run("email match is case-sensitive", func(t *testing.T) {
		store := newFakeTableStore()
		svc := newTestService(store, nil)
		require.NoError(t, svc.CreateEvent(ctx, "Conf"))
		_, err := svc.RegisterAttendee(ctx, "Conf", alice)
		require.NoError(t, err)

		_, err = svc.RegisterAttendee(ctx, "Conf", domain.NewRegistration("Alice", "A@x.com"))

		require.NoError(t, err)
		assert.Equal(t, 2, store.counts(t)["Conf"])
	})

	t.Run("unknown event writes nothing", func(t *testing.T) {
		store := newFakeTableStore()
		svc := newTestService(store, nil)

		_, err := svc.RegisterAttendee(ctx, "Nope", alice)

		require.ErrorIs(t, err, domain.ErrNotFound)
		assert.Zero(t, store.putCount())
	})

	t.Run("missing fields", func(t *testing.T) {
		cases := []struct {
			event string
			reg   domain.Registration
		}{
			{"Conf", domain.NewRegistration("", "a@x.com")},
			{"Conf", domain.NewRegistration("Alice", "")},
			{"", alice},
		}
		for _, c := range cases {
			store := newFakeTableStore()
			svc := newTestService(store, nil)
			_, err := svc.RegisterAttendee(ctx, c.event, c.reg)
			require.ErrorIs(t, err, domain.ErrValidation)
			assert.Zero(t, store.putCount())
		}
	})

	t.Run("email failure does not fail registration", func(t *testing.T) {
		store := newFakeTableStore()
		svc := newTestService(store, &fakeEmailService{err: errors.New("smtp down")})
		require.NoError(t, svc.CreateEvent(ctx, "Conf"))

		_, err := svc.RegisterAttendee(ctx, "Conf", alice)

		require.NoError(t, err)
		assert.Equal(t, 1, store.counts(t)["Conf"])
		svc.Wait()
	})

	t.Run("slow email does not hold the response", func(t *testing.T) {
		store := newFakeTableStore()
		mail := &fakeEmailService{release: make(chan struct{})}
		svc := newTestService(store, mail)
		require.NoError(t, svc.CreateEvent(ctx, "Conf"))
		reqCtx, cancel := context.WithCancel(ctx)

		_, err := svc.RegisterAttendee(reqCtx, "Conf", alice)

		require.NoError(t, err)
		assert.Zero(t, mail.sentCount(), "email is still pending when the registration returns")
		cancel()
		close(mail.release)
		svc.Wait()
		require.Equal(t, 1, mail.sentCount())
		assert.NoError(t, mail.ctxErrs[0], "request cancellation must not cancel the email")
	})
}

func TestEventService_ListEvents(t *testing.T) {
	ctx := context.Background()
	store := newFakeTableStore()
	svc := newTestService(store, nil)
	require.NoError(t, svc.CreateEvent(ctx, "A"))
	require.NoError(t, svc.CreateEvent(ctx, "B"))
	_, err := svc.RegisterAttendee(ctx, "B", domain.NewRegistration("Bob", "b@x.com"))
	require.NoError(t, err)

	events, err := svc.ListEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.EventsTable{
		"A": domain.NewEvent(),
		"B": {Registrations: []domain.Registration{{Name: "Bob", Email: "b@x.com"}}},
	}, events)

	counts, err := svc.ListRegistrationCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.CountsTable{"A": 0, "B": 1}, counts)
}

func TestEventService_ListEvents_NormalisesNullRecords(t *testing.T) {
	store := newFakeTableStore()
	store.docs[domain.TableEvents] = []byte(`{"A": null, "B": {}}`)
	svc := newTestService(store, nil)

	events, err := svc.ListEvents(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.EventsTable{"A": domain.NewEvent(), "B": domain.NewEvent()}, events)
}

func TestEventService_DeleteEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("removes from both tables", func(t *testing.T) {
		store := newFakeTableStore()
		svc := newTestService(store, nil)
		require.NoError(t, svc.CreateEvent(ctx, "Conf"))
		require.NoError(t, svc.CreateEvent(ctx, "Keep"))

		require.NoError(t, svc.DeleteEvent(ctx, "Conf"))

		assert.NotContains(t, store.events(t), "Conf")
		assert.NotContains(t, store.counts(t), "Conf")
		assert.Contains(t, store.events(t), "Keep")

		err := svc.DeleteEvent(ctx, "Conf")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("missing counts entry is a no-op", func(t *testing.T) {
		store := newFakeTableStore()
		store.docs[domain.TableEvents] = []byte(`{"Conf": {"registrations": []}}`)
		store.docs[domain.TableCounts] = []byte(`{"Other": 4}`)
		svc := newTestService(store, nil)

		require.NoError(t, svc.DeleteEvent(ctx, "Conf"))

		assert.Empty(t, store.events(t))
		assert.Equal(t, domain.CountsTable{"Other": 4}, store.counts(t))
	})
}

func TestEventService_CountsWriteFailureRestoresEvents(t *testing.T) {
	ctx := context.Background()
	store := newFakeTableStore()
	svc := newTestService(store, nil)
	require.NoError(t, svc.CreateEvent(ctx, "Conf"))

	store.putErr[domain.TableCounts] = errors.New("disk full")
	_, err := svc.RegisterAttendee(ctx, "Conf", domain.NewRegistration("Alice", "a@x.com"))

	var se *domain.StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, domain.TableCounts, se.Table)
	assert.Empty(t, store.events(t)["Conf"].Registrations, "events table must be restored")
	assert.Equal(t, 0, store.counts(t)["Conf"])
}

func TestEventService_CorruptTable(t *testing.T) {
	ctx := context.Background()

	t.Run("read as empty when tolerated", func(t *testing.T) {
		store := newFakeTableStore()
		store.docs[domain.TableEvents] = []byte(`{"Conf":`)
		svc := NewEventService(store, nil, testLogger, time.Second, true)

		events, err := svc.ListEvents(ctx)
		require.NoError(t, err)
		assert.Empty(t, events)

		require.NoError(t, svc.CreateEvent(ctx, "Fresh"))
		assert.Equal(t, domain.EventsTable{"Fresh": domain.NewEvent()}, store.events(t))
	})

	t.Run("surfaced when strict", func(t *testing.T) {
		store := newFakeTableStore()
		store.docs[domain.TableCounts] = []byte(`[1, 2`)
		svc := NewEventService(store, nil, testLogger, time.Second, false)

		_, err := svc.ListRegistrationCounts(ctx)
		require.Error(t, err)
		assert.True(t, domain.IsCorrupt(err))

		err = svc.CreateEvent(ctx, "Conf")
		require.Error(t, err)
		assert.True(t, domain.IsCorrupt(err))
		assert.Zero(t, store.putCount(), "strict mode must not overwrite a corrupt table")
	})

	for _, table := range []domain.Table{domain.TableEvents, domain.TableCounts} {
		t.Run("json null "+string(table)+" reads as empty", func(t *testing.T) {
			store := newFakeTableStore()
			store.docs[table] = []byte("null")
			svc := NewEventService(store, nil, testLogger, time.Second, false)

			require.NotPanics(t, func() {
				require.NoError(t, svc.CreateEvent(ctx, "Conf"))
				_, err := svc.RegisterAttendee(ctx, "Conf", domain.NewRegistration("Alice", "a@x.com"))
				require.NoError(t, err)
			})
			assert.Equal(t, domain.CountsTable{"Conf": 1}, store.counts(t))
			assert.Len(t, store.events(t)["Conf"].Registrations, 1)
		})
	}
}

func TestEventService_Reconcile(t *testing.T) {
	ctx := context.Background()
	store := newFakeTableStore()
	store.docs[domain.TableEvents] = []byte(`{"A": {"registrations": [{"name": "x", "email": "x"}]}, "B": {"registrations": []}}`)
	store.docs[domain.TableCounts] = []byte(`{"A": 5, "Gone": 2}`)
	svc := newTestService(store, nil)

	changed, err := svc.Reconcile(ctx)

	require.NoError(t, err)
	assert.Equal(t, 3, changed)
	assert.Equal(t, domain.CountsTable{"A": 1, "B": 0}, store.counts(t))

	puts := store.putCount()
	changed, err = svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, changed)
	assert.Equal(t, puts, store.putCount(), "consistent tables are not rewritten")
}

func TestEventService_ConcurrentRegistrationsAreNotLost(t *testing.T) {
	ctx := context.Background()
	store := newFakeTableStore()
	svc := newTestService(store, nil)
	require.NoError(t, svc.CreateEvent(ctx, "Conf"))

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.RegisterAttendee(ctx, "Conf", domain.NewRegistration("guest", fmt.Sprintf("g%d@x.com", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.events(t)["Conf"].Registrations, n)
	assert.Equal(t, n, store.counts(t)["Conf"])
}

func TestEventService_CountsMatchRegistrationsAfterEveryOperation(t *testing.T) {
	ctx := context.Background()
	store := newFakeTableStore()
	svc := newTestService(store, nil)

	steps := []func() error{
		func() error { return svc.CreateEvent(ctx, "A") },
		func() error { return svc.CreateEvent(ctx, "B") },
		func() error { _, err := svc.RegisterAttendee(ctx, "A", domain.NewRegistration("1", "1@x")); return err },
		func() error { _, err := svc.RegisterAttendee(ctx, "A", domain.NewRegistration("2", "2@x")); return err },
		func() error { _, err := svc.RegisterAttendee(ctx, "B", domain.NewRegistration("1", "1@x")); return err },
		func() error { return svc.DeleteEvent(ctx, "A") },
		func() error { return svc.CreateEvent(ctx, "A") },
		func() error { _, err := svc.RegisterAttendee(ctx, "A", domain.NewRegistration("3", "3@x")); return err },
	}
	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)
		assert.Equal(t, store.events(t).Counts(), store.counts(t), "step %d", i)
	}
}
