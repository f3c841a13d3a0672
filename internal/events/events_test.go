package events

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtg-lucifer/sahotsava-be/internal/models"
	"github.com/dtg-lucifer/sahotsava-be/internal/storage"
)

type fakeEventStore struct {
	events  map[string]models.Event
	regs    map[string][]models.Registration
	tickets []models.Ticket
}

func newFakeEventStore(events ...models.Event) *fakeEventStore {
	s := &fakeEventStore{
		events: make(map[string]models.Event),
		regs:   make(map[string][]models.Registration),
	}
	for _, e := range events {
		s.events[e.ID] = e
	}
	return s
}

func (s *fakeEventStore) ListEvents(context.Context) ([]models.Event, error) {
	var list []models.Event
	for _, e := range s.events {
		list = append(list, e)
	}
	return list, nil
}

func (s *fakeEventStore) EventByID(_ context.Context, id string) (models.Event, error) {
	e, ok := s.events[id]
	if !ok {
		return models.Event{}, storage.ErrEventNotFound
	}
	return e, nil
}

func (s *fakeEventStore) SaveEvent(_ context.Context, e models.Event) error {
	s.events[e.ID] = e
	return nil
}

func (s *fakeEventStore) UpdateEvent(_ context.Context, e models.Event) error {
	if _, ok := s.events[e.ID]; !ok {
		return storage.ErrEventNotFound
	}
	s.events[e.ID] = e
	return nil
}

func (s *fakeEventStore) DeleteEvent(_ context.Context, id string) error {
	if _, ok := s.events[id]; !ok {
		return storage.ErrEventNotFound
	}
	delete(s.events, id)
	return nil
}

func (s *fakeEventStore) RegistrationsByEvent(_ context.Context, eventID string) ([]models.Registration, error) {
	return s.regs[eventID], nil
}

func (s *fakeEventStore) SaveTicket(_ context.Context, t models.Ticket) error {
	s.tickets = append(s.tickets, t)
	return nil
}

func newTestService(store *fakeEventStore) *Service {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), store)
}

func sampleEvent(id string) models.Event {
	return models.Event{
		ID:       id,
		Title:    "Hack Night",
		Venue:    "Main Hall",
		StartsAt: time.Now().Add(24 * time.Hour),
		EndsAt:   time.Now().Add(36 * time.Hour),
		Capacity: 100,
	}
}

func TestCreate_RoleGate(t *testing.T) {
	t.Parallel()

	store := newFakeEventStore()
	svc := newTestService(store)
	ctx := context.Background()

	for _, allowed := range []models.Role{models.RoleSuperAdmin, models.RoleDomainLead} {
		e, err := svc.Create(ctx, allowed, sampleEvent(""))
		require.NoError(t, err)
		assert.NotEmpty(t, e.ID)
	}

	for _, denied := range []models.Role{models.RoleCampusAmbassador, models.RoleCheckinCrew} {
		_, err := svc.Create(ctx, denied, sampleEvent(""))
		assert.ErrorIs(t, err, ErrForbidden)
	}
}

func TestDelete_SuperAdminOnly(t *testing.T) {
	t.Parallel()

	store := newFakeEventStore(sampleEvent("e-1"))
	svc := newTestService(store)
	ctx := context.Background()

	err := svc.Delete(ctx, models.RoleDomainLead, "e-1")
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.Delete(ctx, models.RoleSuperAdmin, "e-1"))

	err = svc.Delete(ctx, models.RoleSuperAdmin, "e-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGet_NotFound(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeEventStore())

	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistrations_UnknownEvent(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeEventStore())

	_, err := svc.Registrations(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIssueTicket_CodeCarriesRolePrefix(t *testing.T) {
	t.Parallel()

	store := newFakeEventStore(sampleEvent("e-1"))
	svc := newTestService(store)
	ctx := context.Background()

	issuer := models.User{ID: "u-1", Role: models.RoleCampusAmbassador}

	ticket, err := svc.IssueTicket(ctx, issuer, "e-1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ticket.Code, "CA-"), "code %q", ticket.Code)
	assert.Equal(t, "e-1", ticket.EventID)
	assert.Equal(t, "u-1", ticket.UserID)
	require.Len(t, store.tickets, 1)
}

func TestIssueTicket_UnknownEvent(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeEventStore())

	_, err := svc.IssueTicket(context.Background(), models.User{ID: "u-1", Role: models.RoleCheckinCrew}, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
