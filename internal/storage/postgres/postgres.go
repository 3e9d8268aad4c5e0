package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gym-service/internal/models"
	"gym-service/internal/storage"
	"gym-service/pkg/response"

	"github.com/lib/pq"
)

type Storage struct {
	db *sql.DB
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

func (s *Storage) BeginTx(ctx context.Context) (storage.Tx, error) {
	const op = "storage.postgres.BeginTx"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}

	return tx, nil
}

func unwrapTx(op string, tx storage.Tx) (*sql.Tx, error) {
	sqlTx, ok := tx.(*sql.Tx)
	if !ok {
		return nil, fmt.Errorf("%s: tx was not opened by this storage", op)
	}

	return sqlTx, nil
}

// Init creates the schema. Classes keep their attendee list in a JSONB
// column, one row per occurrence.
func (s *Storage) Init(ctx context.Context) error {
	const op = "storage.postgres.Init"

	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS classes (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			day        TEXT NOT NULL,
			start_time TEXT NOT NULL,
			date       TEXT NOT NULL,
			duration   INT  NOT NULL,
			capacity   INT  NOT NULL CHECK (capacity > 0),
			attendees  JSONB NOT NULL DEFAULT '[]'
		)`)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapErr(err))
	}

	_, err = s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			uid          TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			email        TEXT NOT NULL DEFAULT '',
			phone_number TEXT NOT NULL DEFAULT '',
			photo_url    TEXT NOT NULL DEFAULT '',
			dob          TEXT NOT NULL DEFAULT '',
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapErr(err))
	}

	_, err = s.db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS classes_attendees_idx ON classes USING GIN (attendees)`)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapErr(err))
	}

	return nil
}

// #### classes ####

const classColumns = `id, name, day, start_time, date, duration, capacity, attendees`

func scanClass(row interface{ Scan(...any) error }) (*models.ClassOccurrence, error) {
	var c models.ClassOccurrence
	var attendees []byte

	err := row.Scan(&c.ID, &c.Name, &c.Day, &c.Time, &c.Date, &c.Duration, &c.Capacity, &attendees)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(attendees, &c.Attendees); err != nil {
		return nil, err
	}
	if c.Attendees == nil {
		c.Attendees = []models.Attendee{}
	}

	return &c, nil
}

// CreateClass inserts an occurrence, leaving an already materialized one
// untouched. Returns whether a row was created.
func (s *Storage) CreateClass(ctx context.Context, tx storage.Tx, c *models.ClassOccurrence) (bool, error) {
	const op = "storage.postgres.CreateClass"

	sqlTx, err := unwrapTx(op, tx)
	if err != nil {
		return false, err
	}

	attendees, err := json.Marshal(c.Attendees)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if c.Attendees == nil {
		attendees = []byte("[]")
	}

	res, err := sqlTx.ExecContext(ctx, `
		INSERT INTO classes (id, name, day, start_time, date, duration, capacity, attendees)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		c.ID, c.Name, c.Day, c.Time, c.Date, c.Duration, c.Capacity, attendees,
	)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, mapErr(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return n > 0, nil
}

func (s *Storage) GetClass(ctx context.Context, id string) (*models.ClassOccurrence, error) {
	const op = "storage.postgres.GetClass"

	row := s.db.QueryRowContext(ctx,
		`SELECT `+classColumns+` FROM classes WHERE id=$1`, id)

	c, err := scanClass(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}

	return c, nil
}

// GetClassForUpdate reads an occurrence inside tx with a row lock, so the
// capacity and uniqueness checks and the attendee write that follow are
// serialized against concurrent bookings of the same class.
func (s *Storage) GetClassForUpdate(ctx context.Context, tx storage.Tx, id string) (*models.ClassOccurrence, error) {
	const op = "storage.postgres.GetClassForUpdate"

	sqlTx, err := unwrapTx(op, tx)
	if err != nil {
		return nil, err
	}

	row := sqlTx.QueryRowContext(ctx,
		`SELECT `+classColumns+` FROM classes WHERE id=$1 FOR UPDATE`, id)

	c, err := scanClass(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}

	return c, nil
}

func (s *Storage) UpdateClassAttendees(ctx context.Context, tx storage.Tx, id string, attendees []models.Attendee) error {
	const op = "storage.postgres.UpdateClassAttendees"

	sqlTx, err := unwrapTx(op, tx)
	if err != nil {
		return err
	}

	if attendees == nil {
		attendees = []models.Attendee{}
	}

	b, err := json.Marshal(attendees)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := sqlTx.ExecContext(ctx,
		`UPDATE classes SET attendees=$1 WHERE id=$2`, b, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapErr(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

func (s *Storage) FindByDayTime(ctx context.Context, day, startTime string) ([]*models.ClassOccurrence, error) {
	const op = "storage.postgres.FindByDayTime"

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+classColumns+` FROM classes WHERE day=$1 AND start_time=$2 ORDER BY date`, day, startTime)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}

	defer rows.Close()

	return collectClasses(op, rows)
}

func (s *Storage) FindByDateRange(ctx context.Context, from, to string) ([]*models.ClassOccurrence, error) {
	const op = "storage.postgres.FindByDateRange"

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+classColumns+` FROM classes WHERE date >= $1 AND date <= $2 ORDER BY date, start_time`, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}

	defer rows.Close()

	return collectClasses(op, rows)
}

// FindByAttendeeSnapshot matches classes whose attendees array contains an
// entry carrying the exact denormalized snapshot (uid, name, photoURL).
// JSONB containment is the store's array-contains-embedded-record primitive.
func (s *Storage) FindByAttendeeSnapshot(ctx context.Context, uid, name, photoURL string) ([]*models.ClassOccurrence, error) {
	const op = "storage.postgres.FindByAttendeeSnapshot"

	probe, err := json.Marshal([]map[string]string{{
		"uid":      uid,
		"name":     name,
		"photoURL": photoURL,
	}})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+classColumns+` FROM classes WHERE attendees @> $1`, probe)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}

	defer rows.Close()

	return collectClasses(op, rows)
}

// FindByAttendeeUID fetches every class referencing uid as an attendee.
// Candidates are filtered in application code where the query needs to
// distinguish photo-less snapshots, containment alone cannot.
func (s *Storage) FindByAttendeeUID(ctx context.Context, uid string) ([]*models.ClassOccurrence, error) {
	const op = "storage.postgres.FindByAttendeeUID"

	probe, err := json.Marshal([]map[string]string{{"uid": uid}})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+classColumns+` FROM classes WHERE attendees @> $1`, probe)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}

	defer rows.Close()

	return collectClasses(op, rows)
}

func collectClasses(op string, rows *sql.Rows) ([]*models.ClassOccurrence, error) {
	var classes []*models.ClassOccurrence

	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		classes = append(classes, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}

	return classes, nil
}

// #### users ####

func (s *Storage) CreateProfile(ctx context.Context, tx storage.Tx, p *models.UserProfile) error {
	const op = "storage.postgres.CreateProfile"

	sqlTx, err := unwrapTx(op, tx)
	if err != nil {
		return err
	}

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO users (uid, name, email, phone_number, photo_url, dob, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.UID, p.Name, p.Email, p.PhoneNumber, p.PhotoURL, p.DOB, p.CreatedAt,
	)
	if err != nil {
		sqlErr, ok := err.(*pq.Error)
		if ok && sqlErr.Code == "23505" {
			return fmt.Errorf("%s: %w", op, response.ErrConflict)
		}

		return fmt.Errorf("%s: %w", op, mapErr(err))
	}

	return nil
}

func (s *Storage) GetProfile(ctx context.Context, uid string) (*models.UserProfile, error) {
	const op = "storage.postgres.GetProfile"

	var p models.UserProfile

	err := s.db.QueryRowContext(ctx, `
		SELECT uid, name, email, phone_number, photo_url, dob, created_at
		FROM users WHERE uid=$1`, uid).
		Scan(&p.UID, &p.Name, &p.Email, &p.PhoneNumber, &p.PhotoURL, &p.DOB, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}

	return &p, nil
}

// GetProfileByName backs the write-time name uniqueness check. The store
// does not enforce it, the profile operations do.
func (s *Storage) GetProfileByName(ctx context.Context, name string) (*models.UserProfile, error) {
	const op = "storage.postgres.GetProfileByName"

	var p models.UserProfile

	err := s.db.QueryRowContext(ctx, `
		SELECT uid, name, email, phone_number, photo_url, dob, created_at
		FROM users WHERE name=$1`, name).
		Scan(&p.UID, &p.Name, &p.Email, &p.PhoneNumber, &p.PhotoURL, &p.DOB, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}

	return &p, nil
}

func (s *Storage) UpdateProfile(ctx context.Context, tx storage.Tx, p *models.UserProfile) error {
	const op = "storage.postgres.UpdateProfile"

	sqlTx, err := unwrapTx(op, tx)
	if err != nil {
		return err
	}

	res, err := sqlTx.ExecContext(ctx, `
		UPDATE users SET name=$1, email=$2, phone_number=$3, photo_url=$4, dob=$5
		WHERE uid=$6`,
		p.Name, p.Email, p.PhoneNumber, p.PhotoURL, p.DOB, p.UID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapErr(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// mapErr folds transient connection failures into ErrStoreUnavailable so
// callers can tell I/O trouble from business outcomes.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%w: %v", response.ErrStoreUnavailable, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && strings.HasPrefix(string(pqErr.Code), "08") {
		return fmt.Errorf("%w: %v", response.ErrStoreUnavailable, err)
	}

	return err
}
