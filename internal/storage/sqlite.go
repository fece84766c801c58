package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"schedule_manager/internal/model"
	"schedule_manager/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite is a single-writer engine; one pooled connection avoids
	// SQLITE_BUSY under concurrent scan and edit traffic.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateUser inserts a new user and populates its ID and CreateTime.
// Returns ErrEmailTaken if the email is already registered.
func (s *SQLite) CreateUser(ctx context.Context, u *model.User) error {
	if _, err := s.GetUserByEmail(ctx, u.Email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, create_time) VALUES (?, ?, ?)`,
		u.Email, u.PasswordHash, now,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	u.ID = id
	u.CreateTime, _ = time.Parse(timeLayout, now)
	return nil
}

// GetUser returns a single user by its ID.
func (s *SQLite) GetUser(ctx context.Context, id int64) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, create_time FROM users WHERE id = ?`, id,
	)
	return scanUser(row)
}

// GetUserByEmail returns a single user by its email address.
func (s *SQLite) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, create_time FROM users WHERE email = ?`, email,
	)
	return scanUser(row)
}

// CreateEntry inserts a new schedule entry and populates its ID and
// CreateTime. New entries always start unconfirmed. A ValidationError is
// returned (and nothing is persisted) when the alert time falls after the
// end time or the owner does not exist.
func (s *SQLite) CreateEntry(ctx context.Context, e *model.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if err := s.ownerExists(ctx, e.OwnerID); err != nil {
		return err
	}

	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO schedules (title, owner_id, end_time, alert_time, is_confirmed, note, create_time)
		 VALUES (?, ?, ?, ?, 0, ?, ?)`,
		e.Title, e.OwnerID, fmtTime(e.EndTime), fmtTime(e.AlertTime), e.Note, now,
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	e.ID = id
	e.IsConfirmed = false
	e.CreateTime, _ = time.Parse(timeLayout, now)
	return nil
}

// GetEntry returns a single entry by its ID.
func (s *SQLite) GetEntry(ctx context.Context, id int64) (*model.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, owner_id, end_time, alert_time, is_confirmed, note, create_time
		 FROM schedules WHERE id = ?`, id,
	)
	return scanEntry(row)
}

// UpdateEntry persists changes to an existing entry. OwnerID and CreateTime
// are never modified. Returns ErrNotFound for a nonexistent id.
func (s *SQLite) UpdateEntry(ctx context.Context, e *model.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE schedules SET title = ?, end_time = ?, alert_time = ?, is_confirmed = ?, note = ?
		 WHERE id = ?`,
		e.Title, fmtTime(e.EndTime), fmtTime(e.AlertTime), boolToInt(e.IsConfirmed), e.Note, e.ID,
	)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEntry removes an entry. Deleting a nonexistent id is a no-op.
func (s *SQLite) DeleteEntry(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

// ConfirmEntry marks an entry as acknowledged by the user. Times are not
// altered. Returns ErrNotFound for a nonexistent id.
func (s *SQLite) ConfirmEntry(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE schedules SET is_confirmed = 1 WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("confirm entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// QueryEntries returns the owner's entries whose title or note contains
// keyword (case-insensitive) and whose end time falls within r, bounds
// inclusive, ordered ascending by end time. An empty keyword matches all.
func (s *SQLite) QueryEntries(ctx context.Context, ownerID int64, keyword string, r model.TimeRange) ([]model.Entry, error) {
	pattern := "%" + keyword + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, owner_id, end_time, alert_time, is_confirmed, note, create_time
		 FROM schedules
		 WHERE owner_id = ? AND (title LIKE ? OR note LIKE ?)
		   AND end_time >= ? AND end_time <= ?
		 ORDER BY end_time`,
		ownerID, pattern, pattern, fmtTime(r.From), fmtTime(r.To),
	)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanEntries(rows)
}

// FindDue returns the owner's unconfirmed entries whose alert time has
// passed as of asOf and whose id is not in excluding.
func (s *SQLite) FindDue(ctx context.Context, ownerID int64, asOf time.Time, excluding []int64) ([]model.Entry, error) {
	query := `SELECT id, title, owner_id, end_time, alert_time, is_confirmed, note, create_time
		 FROM schedules
		 WHERE owner_id = ? AND is_confirmed = 0 AND alert_time <= ?`
	args := []any{ownerID, fmtTime(asOf)}

	if len(excluding) > 0 {
		query += ` AND id NOT IN (?` + strings.Repeat(",?", len(excluding)-1) + `)`
		for _, id := range excluding {
			args = append(args, id)
		}
	}
	query += ` ORDER BY alert_time`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query due entries: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanEntries(rows)
}

// ownerExists verifies the FK invariant before inserting an entry.
func (s *SQLite) ownerExists(ctx context.Context, ownerID int64) error {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE id = ?`, ownerID,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("check owner: %w", err)
	}
	if count == 0 {
		return &model.ValidationError{Field: "owner_id", Reason: "owner does not exist"}
	}
	return nil
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scannable interface {
	Scan(dest ...any) error
}

func scanUser(row scannable) (*model.User, error) {
	var u model.User
	var created string
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.CreateTime, _ = time.Parse(timeLayout, created)
	return &u, nil
}

func scanEntry(row scannable) (*model.Entry, error) {
	var e model.Entry
	var confirmed int
	var end, alert, created string
	err := row.Scan(&e.ID, &e.Title, &e.OwnerID, &end, &alert, &confirmed, &e.Note, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan entry: %w", err)
	}
	e.IsConfirmed = confirmed == 1
	e.EndTime, _ = time.Parse(timeLayout, end)
	e.AlertTime, _ = time.Parse(timeLayout, alert)
	e.CreateTime, _ = time.Parse(timeLayout, created)
	return &e, nil
}

func scanEntries(rows *sql.Rows) ([]model.Entry, error) {
	var entries []model.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}
