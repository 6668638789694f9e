package repository

import (
	"context"
	"database/sql"
	"time"

	helpers "github.com/Lineblocs/go-helpers"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"teknologiumum.com/pesto/models"
)

const createTokenEventsSQL = `
CREATE TABLE IF NOT EXISTS token_events (
    id VARCHAR(36) NOT NULL PRIMARY KEY,
    action VARCHAR(16) NOT NULL,
    user_email VARCHAR(255) NOT NULL,
    token_hint VARCHAR(16) NOT NULL,
    created_at DATETIME NOT NULL
);`

type AuditRepository interface {
	Record(ctx context.Context, event models.AuditEvent) error
	Since(ctx context.Context, since time.Time) ([]models.AuditEvent, error)
}

type AuditService struct {
	db *sql.DB
}

// NewAuditRepository returns a MySQL-backed audit trail, or a repository
// that drops events when db is nil.
func NewAuditRepository(db *sql.DB) AuditRepository {
	if db == nil {
		return &NoopAudit{}
	}
	return NewAuditService(db)
}

func NewAuditService(db *sql.DB) *AuditService {
	return &AuditService{
		db: db,
	}
}

func (as *AuditService) EnsureSchema(ctx context.Context) error {
	if _, err := as.db.ExecContext(ctx, createTokenEventsSQL); err != nil {
		return errors.Wrap(err, "failed to create token_events table")
	}
	return nil
}

func (as *AuditService) Record(ctx context.Context, event models.AuditEvent) error {
	_, err := as.db.ExecContext(ctx,
		"INSERT INTO token_events (id, action, user_email, token_hint, created_at) VALUES (?, ?, ?, ?, ?)",
		event.ID, string(event.Action), event.UserEmail, event.TokenHint, event.CreatedAt.UTC())
	if err != nil {
		helpers.Log(logrus.ErrorLevel, "error inserting token event..\r\n")
		return &models.BackendError{Op: "insert token_events", Key: event.ID, Err: err}
	}
	return nil
}

func (as *AuditService) Since(ctx context.Context, since time.Time) ([]models.AuditEvent, error) {
	rows, err := as.db.QueryContext(ctx,
		"SELECT id, action, user_email, token_hint, created_at FROM token_events WHERE created_at >= ? ORDER BY created_at",
		since.UTC())
	if err != nil {
		return nil, &models.BackendError{Op: "select token_events", Err: err}
	}
	defer rows.Close()

	events := []models.AuditEvent{}
	for rows.Next() {
		var event models.AuditEvent
		var action string
		if err := rows.Scan(&event.ID, &action, &event.UserEmail, &event.TokenHint, &event.CreatedAt); err != nil {
			return nil, errors.Wrap(models.ErrDecode, err.Error())
		}
		event.Action = models.AuditAction(action)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.BackendError{Op: "select token_events", Err: err}
	}

	return events, nil
}

// Prune deletes events created before the cutoff and returns how many went.
func (as *AuditService) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := as.db.ExecContext(ctx, "DELETE FROM token_events WHERE created_at < ?", before.UTC())
	if err != nil {
		helpers.Log(logrus.ErrorLevel, "error occurred in token event removal\r\n")
		return 0, &models.BackendError{Op: "delete token_events", Err: err}
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return removed, nil
}

// NoopAudit discards events when no audit database is configured.
type NoopAudit struct{}

func (NoopAudit) Record(context.Context, models.AuditEvent) error {
	return nil
}

func (NoopAudit) Since(context.Context, time.Time) ([]models.AuditEvent, error) {
	return []models.AuditEvent{}, nil
}
