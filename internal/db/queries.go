package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strconv"
	"time"

	"github.com/hpungsan/intentdesk/internal/errors"
)

// IntentRow is a stored intent. Timestamps are Unix milliseconds.
type IntentRow struct {
	ID        int64
	Author    string
	Content   string
	CreatedAt int64
	UpdatedAt int64
}

// ReportRow is a stored report entry.
type ReportRow struct {
	ID            string
	IntentID      int64
	AgentName     string
	Response      string
	CreatedAt     int64
	ExecutionTime float64
}

// InsertIntent stores a new intent and fills in its ID and timestamps.
func InsertIntent(ctx context.Context, db *sql.DB, row *IntentRow) error {
	now := time.Now().UnixMilli()
	res, err := db.ExecContext(ctx,
		`INSERT INTO intents (author, content, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		row.Author, row.Content, now, now,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.NewInternal(err)
	}
	row.ID = id
	row.CreatedAt = now
	row.UpdatedAt = now
	return nil
}

// ListIntents returns every intent in creation order.
func ListIntents(ctx context.Context, db *sql.DB) ([]IntentRow, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, author, content, created_at, updated_at FROM intents ORDER BY id`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	out := make([]IntentRow, 0)
	for rows.Next() {
		var r IntentRow
		if err := rows.Scan(&r.ID, &r.Author, &r.Content, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// GetIntent retrieves an intent by ID.
func GetIntent(ctx context.Context, db *sql.DB, id int64) (*IntentRow, error) {
	var r IntentRow
	err := db.QueryRowContext(ctx,
		`SELECT id, author, content, created_at, updated_at FROM intents WHERE id = ?`, id,
	).Scan(&r.ID, &r.Author, &r.Content, &r.CreatedAt, &r.UpdatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFound(strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &r, nil
}

// UpdateContent replaces an intent's content and bumps updated_at.
// Does NOT change: id, author, created_at
func UpdateContent(ctx context.Context, db *sql.DB, id int64, content string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE intents SET content = ?, updated_at = ? WHERE id = ?`,
		content, time.Now().UnixMilli(), id,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireAffected(res, id)
}

// DeleteIntent removes an intent together with its report entries.
func DeleteIntent(ctx context.Context, db *sql.DB, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM intents WHERE id = ?`, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := requireAffected(res, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM report_entries WHERE intent_id = ?`, id); err != nil {
		return errors.NewInternal(err)
	}
	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// InsertReport stores a report entry for an existing intent. CreatedAt
// defaults to now.
func InsertReport(ctx context.Context, db *sql.DB, row *ReportRow) error {
	if _, err := GetIntent(ctx, db, row.IntentID); err != nil {
		return err
	}
	if row.CreatedAt == 0 {
		row.CreatedAt = time.Now().UnixMilli()
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO report_entries (id, intent_id, agent_name, response, created_at, execution_time)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		row.ID, row.IntentID, row.AgentName, row.Response, row.CreatedAt, row.ExecutionTime,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// ListReports returns the report entries of an intent, oldest first.
func ListReports(ctx context.Context, db *sql.DB, intentID int64) ([]ReportRow, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, intent_id, agent_name, response, created_at, execution_time
		 FROM report_entries WHERE intent_id = ? ORDER BY created_at, id`, intentID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	out := make([]ReportRow, 0)
	for rows.Next() {
		var r ReportRow
		if err := rows.Scan(&r.ID, &r.IntentID, &r.AgentName, &r.Response, &r.CreatedAt, &r.ExecutionTime); err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

func requireAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if n == 0 {
		return errors.NewNotFound(strconv.FormatInt(id, 10))
	}
	return nil
}
