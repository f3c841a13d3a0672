// Package events is the read/CRUD layer over the event tables. Mutations are
// role-gated; reads are open to any authenticated caller.
package events

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	sl "github.com/dtg-lucifer/sahotsava-be/internal/lib/logger"
	"github.com/dtg-lucifer/sahotsava-be/internal/models"
	"github.com/dtg-lucifer/sahotsava-be/internal/storage"
)

var (
	ErrNotFound  = errors.New("event not found")
	ErrForbidden = errors.New("role not allowed")
)

type EventStore interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	EventByID(ctx context.Context, id string) (models.Event, error)
	SaveEvent(ctx context.Context, e models.Event) error
	UpdateEvent(ctx context.Context, e models.Event) error
	DeleteEvent(ctx context.Context, id string) error
	RegistrationsByEvent(ctx context.Context, eventID string) ([]models.Registration, error)
	SaveTicket(ctx context.Context, t models.Ticket) error
}

type Service struct {
	log   *slog.Logger
	store EventStore
}

func New(log *slog.Logger, store EventStore) *Service {
	return &Service{log: log, store: store}
}

func (s *Service) List(ctx context.Context) ([]models.Event, error) {
	return s.store.ListEvents(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (models.Event, error) {
	e, err := s.store.EventByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrEventNotFound) {
			return models.Event{}, ErrNotFound
		}

		return models.Event{}, err
	}

	return e, nil
}

func (s *Service) Create(ctx context.Context, actor models.Role, e models.Event) (models.Event, error) {
	const op = "events.Create"

	if !actor.CanManageEvents() {
		return models.Event{}, ErrForbidden
	}

	e.ID = uuid.NewString()

	if err := s.store.SaveEvent(ctx, e); err != nil {
		s.log.Error("failed to save event", slog.String("op", op), sl.Err(err))
		return models.Event{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("event created", slog.String("event_id", e.ID))

	return e, nil
}

func (s *Service) Update(ctx context.Context, actor models.Role, e models.Event) error {
	const op = "events.Update"

	if !actor.CanManageEvents() {
		return ErrForbidden
	}

	if err := s.store.UpdateEvent(ctx, e); err != nil {
		if errors.Is(err, storage.ErrEventNotFound) {
			return ErrNotFound
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Delete is restricted to SuperAdmin; dropping an event also drops its
// registrations at the database level.
func (s *Service) Delete(ctx context.Context, actor models.Role, id string) error {
	const op = "events.Delete"

	if actor != models.RoleSuperAdmin {
		return ErrForbidden
	}

	if err := s.store.DeleteEvent(ctx, id); err != nil {
		if errors.Is(err, storage.ErrEventNotFound) {
			return ErrNotFound
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Service) Registrations(ctx context.Context, eventID string) ([]models.Registration, error) {
	const op = "events.Registrations"

	if _, err := s.store.EventByID(ctx, eventID); err != nil {
		if errors.Is(err, storage.ErrEventNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.store.RegistrationsByEvent(ctx, eventID)
}

// IssueTicket creates a ticket whose code carries the issuer's role prefix,
// e.g. "CA-4f2d9c0a11b3".
func (s *Service) IssueTicket(ctx context.Context, issuer models.User, eventID string) (models.Ticket, error) {
	const op = "events.IssueTicket"

	if _, err := s.store.EventByID(ctx, eventID); err != nil {
		if errors.Is(err, storage.ErrEventNotFound) {
			return models.Ticket{}, ErrNotFound
		}

		return models.Ticket{}, fmt.Errorf("%s: %w", op, err)
	}

	code, err := ticketCode(issuer.Role)
	if err != nil {
		return models.Ticket{}, fmt.Errorf("%s: %w", op, err)
	}

	ticket := models.Ticket{
		ID:       uuid.NewString(),
		Code:     code,
		EventID:  eventID,
		UserID:   issuer.ID,
		IssuedAt: time.Now(),
	}

	if err := s.store.SaveTicket(ctx, ticket); err != nil {
		s.log.Error("failed to save ticket", slog.String("op", op), sl.Err(err))
		return models.Ticket{}, fmt.Errorf("%s: %w", op, err)
	}

	return ticket, nil
}

func ticketCode(role models.Role) (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%s", role.Prefix(), hex.EncodeToString(b)), nil
}
