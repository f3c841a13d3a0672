package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dtg-lucifer/sahotsava-be/internal/config"
	"github.com/dtg-lucifer/sahotsava-be/internal/models"
	"github.com/dtg-lucifer/sahotsava-be/internal/storage"
)

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg *config.Config) (*PostgresRepo, error) {
	const op = "storage.postgres.New"

	poolConfig, err := pgxpool.ParseConfig(dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse config: %w", op, err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create pool: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	return &PostgresRepo{pool: pool}, nil
}

const userColumns = `id, email, name, role, password_hash, is_verified, verification_token, campus_id`

func (r *PostgresRepo) UserByEmail(ctx context.Context, email string) (models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1;
	`

	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *PostgresRepo) UserByID(ctx context.Context, id string) (models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1;
	`

	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

// UpdateVerification sets the verification flag and the durable token mirror
// in one statement and returns the updated row.
func (r *PostgresRepo) UpdateVerification(ctx context.Context, id string, verified bool, token *string) (models.User, error) {
	const op = "storage.postgres.UpdateVerification"

	query := `
		UPDATE users
		SET is_verified = $2, verification_token = $3
		WHERE id = $1
		RETURNING ` + userColumns + `;
	`

	u, err := r.scanUser(r.pool.QueryRow(ctx, query, id, verified, token))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.User{}, storage.ErrUserNotFound
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

func (r *PostgresRepo) SaveUser(ctx context.Context, u models.User) error {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users (id, email, name, role, password_hash, is_verified, verification_token, campus_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`

	_, err := r.pool.Exec(ctx, query,
		u.ID, u.Email, u.Name, string(u.Role), u.PassHash, u.IsVerified, u.VerificationToken, u.CampusID,
	)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return storage.ErrDuplicate
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) scanUser(row pgx.Row) (models.User, error) {
	var (
		u    models.User
		role string
	)

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&role,
		&u.PassHash,
		&u.IsVerified,
		&u.VerificationToken,
		&u.CampusID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrUserNotFound
		}

		return models.User{}, err
	}

	u.Role, err = models.ParseRole(role)
	if err != nil {
		return models.User{}, err
	}

	return u, nil
}

const eventColumns = `id, title, description, venue, starts_at, ends_at, capacity, created_by`

func (r *PostgresRepo) ListEvents(ctx context.Context) ([]models.Event, error) {
	const op = "storage.postgres.ListEvents"

	query := `
		SELECT ` + eventColumns + `
		FROM events
		ORDER BY starts_at;
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var events []models.Event

	for rows.Next() {
		var e models.Event

		err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Venue, &e.StartsAt, &e.EndsAt, &e.Capacity, &e.CreatedBy)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		events = append(events, e)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: %w", op, rows.Err())
	}

	return events, nil
}

func (r *PostgresRepo) EventByID(ctx context.Context, id string) (models.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1;
	`

	var e models.Event

	err := r.pool.QueryRow(ctx, query, id).
		Scan(&e.ID, &e.Title, &e.Description, &e.Venue, &e.StartsAt, &e.EndsAt, &e.Capacity, &e.CreatedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Event{}, storage.ErrEventNotFound
	}

	return e, err
}

func (r *PostgresRepo) SaveEvent(ctx context.Context, e models.Event) error {
	const op = "storage.postgres.SaveEvent"

	query := `
		INSERT INTO events (id, title, description, venue, starts_at, ends_at, capacity, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`

	_, err := r.pool.Exec(ctx, query,
		e.ID, e.Title, e.Description, e.Venue, e.StartsAt, e.EndsAt, e.Capacity, e.CreatedBy,
	)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return storage.ErrDuplicate
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) UpdateEvent(ctx context.Context, e models.Event) error {
	const op = "storage.postgres.UpdateEvent"

	query := `
		UPDATE events
		SET title = $2, description = $3, venue = $4, starts_at = $5, ends_at = $6, capacity = $7
		WHERE id = $1;
	`

	tag, err := r.pool.Exec(ctx, query, e.ID, e.Title, e.Description, e.Venue, e.StartsAt, e.EndsAt, e.Capacity)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrEventNotFound
	}

	return nil
}

func (r *PostgresRepo) DeleteEvent(ctx context.Context, id string) error {
	const op = "storage.postgres.DeleteEvent"

	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrEventNotFound
	}

	return nil
}

func (r *PostgresRepo) RegistrationsByEvent(ctx context.Context, eventID string) ([]models.Registration, error) {
	const op = "storage.postgres.RegistrationsByEvent"

	query := `
		SELECT id, event_id, user_id, team_id, created_at
		FROM registrations
		WHERE event_id = $1
		ORDER BY created_at;
	`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var regs []models.Registration

	for rows.Next() {
		var reg models.Registration

		if err := rows.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.TeamID, &reg.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		regs = append(regs, reg)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: %w", op, rows.Err())
	}

	return regs, nil
}

func (r *PostgresRepo) SaveTicket(ctx context.Context, t models.Ticket) error {
	const op = "storage.postgres.SaveTicket"

	query := `
		INSERT INTO tickets (id, code, event_id, user_id, issued_at)
		VALUES ($1, $2, $3, $4, $5);
	`

	_, err := r.pool.Exec(ctx, query, t.ID, t.Code, t.EventID, t.UserID, t.IssuedAt)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return storage.ErrDuplicate
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) SaveCampus(ctx context.Context, c models.Campus) error {
	const op = "storage.postgres.SaveCampus"

	query := `
		INSERT INTO campuses (id, name, city)
		VALUES ($1, $2, $3);
	`

	_, err := r.pool.Exec(ctx, query, c.ID, c.Name, c.City)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return storage.ErrDuplicate
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) Close() {
	r.pool.Close()
}

func dsn(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s database=%s sslmode=%s",
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.DBName,
		cfg.Postgres.SSLMode,
	)
}
