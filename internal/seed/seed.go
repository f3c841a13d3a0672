// Package seed loads pre-provisioned users, campuses and events from CSV
// files. Users are the only way accounts enter the system: there is no
// self-service signup.
package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	sl "github.com/dtg-lucifer/sahotsava-be/internal/lib/logger"
	"github.com/dtg-lucifer/sahotsava-be/internal/models"
	"github.com/dtg-lucifer/sahotsava-be/internal/storage"
)

type Store interface {
	SaveUser(ctx context.Context, u models.User) error
	SaveCampus(ctx context.Context, c models.Campus) error
	SaveEvent(ctx context.Context, e models.Event) error
}

type Seeder struct {
	log   *slog.Logger
	store Store
}

func New(log *slog.Logger, store Store) *Seeder {
	return &Seeder{log: log, store: store}
}

// ParseUsers reads rows of "email,name,role,password,campus_id" (header
// required). Every non-ambassador role is provisioned verified: only
// CampusAmbassador accounts go through the email-verification flow.
func ParseUsers(r io.Reader) ([]models.User, error) {
	const op = "seed.ParseUsers"

	rows, err := readAll(r, 5)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	users := make([]models.User, 0, len(rows))

	for i, row := range rows {
		role, err := models.ParseRole(row[2])
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", op, i+2, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(row[3]), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", op, i+2, err)
		}

		u := models.User{
			ID:         uuid.NewString(),
			Email:      row[0],
			Name:       row[1],
			Role:       role,
			PassHash:   hash,
			IsVerified: role != models.RoleCampusAmbassador,
		}

		if row[4] != "" {
			campusID := row[4]
			u.CampusID = &campusID
		}

		users = append(users, u)
	}

	return users, nil
}

// ParseCampuses reads rows of "name,city".
func ParseCampuses(r io.Reader) ([]models.Campus, error) {
	const op = "seed.ParseCampuses"

	rows, err := readAll(r, 2)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	campuses := make([]models.Campus, 0, len(rows))

	for _, row := range rows {
		campuses = append(campuses, models.Campus{
			ID:   uuid.NewString(),
			Name: row[0],
			City: row[1],
		})
	}

	return campuses, nil
}

// ParseEvents reads rows of "title,description,venue,starts_at,ends_at,capacity"
// with RFC 3339 timestamps.
func ParseEvents(r io.Reader) ([]models.Event, error) {
	const op = "seed.ParseEvents"

	rows, err := readAll(r, 6)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	events := make([]models.Event, 0, len(rows))

	for i, row := range rows {
		startsAt, err := time.Parse(time.RFC3339, row[3])
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: bad starts_at: %w", op, i+2, err)
		}

		endsAt, err := time.Parse(time.RFC3339, row[4])
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: bad ends_at: %w", op, i+2, err)
		}

		capacity, err := strconv.Atoi(row[5])
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: bad capacity: %w", op, i+2, err)
		}

		events = append(events, models.Event{
			ID:          uuid.NewString(),
			Title:       row[0],
			Description: row[1],
			Venue:       row[2],
			StartsAt:    startsAt,
			EndsAt:      endsAt,
			Capacity:    capacity,
		})
	}

	return events, nil
}

// SeedUsers inserts parsed users, skipping duplicates so reseeding an
// existing database is safe.
func (s *Seeder) SeedUsers(ctx context.Context, users []models.User) error {
	const op = "seed.SeedUsers"

	for _, u := range users {
		err := s.store.SaveUser(ctx, u)
		if err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				s.log.Info("user already seeded", slog.String("email", u.Email))
				continue
			}

			s.log.Error("failed to seed user", slog.String("email", u.Email), sl.Err(err))
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	s.log.Info("users seeded", slog.Int("count", len(users)))

	return nil
}

func (s *Seeder) SeedCampuses(ctx context.Context, campuses []models.Campus) error {
	const op = "seed.SeedCampuses"

	for _, c := range campuses {
		err := s.store.SaveCampus(ctx, c)
		if err != nil && !errors.Is(err, storage.ErrDuplicate) {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	s.log.Info("campuses seeded", slog.Int("count", len(campuses)))

	return nil
}

func (s *Seeder) SeedEvents(ctx context.Context, events []models.Event) error {
	const op = "seed.SeedEvents"

	for _, e := range events {
		err := s.store.SaveEvent(ctx, e)
		if err != nil && !errors.Is(err, storage.ErrDuplicate) {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	s.log.Info("events seeded", slog.Int("count", len(events)))

	return nil
}

func readAll(r io.Reader, wantFields int) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = wantFields

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("empty csv")
	}

	// First row is the header.
	return rows[1:], nil
}
