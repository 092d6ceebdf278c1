// Package audit provides the command audit trail: a durable record of
// every dispatched settings frame and its resolution, queryable for
// compliance review after the in-memory command history has rotated.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fieldwatch/cathodic-core/internal/command"
)

// Kinds of audit entries.
const (
	KindDispatched = "dispatched"
	KindResolved   = "resolved"
)

// Entry is a single command audit record.
type Entry struct {
	ID            string         `json:"id"`
	DeviceID      string         `json:"device_id"`
	CommandID     string         `json:"command_id"`
	Kind          string         `json:"kind"`
	Status        string         `json:"status,omitempty"`
	ChangedFields []string       `json:"changed_fields,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Filter controls which audit entries to return.
type Filter struct {
	DeviceID  string // optional: filter by device
	CommandID string // optional: filter by command
	Kind      string // optional: dispatched or resolved
	Limit     int    // default 50, max 200
	Offset    int    // pagination offset
}

// ListResult contains paginated audit entries.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// SQLiteRepository persists audit entries in SQLite. It satisfies the
// dispatcher's Auditor interface.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new command audit repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// RecordDispatch writes an audit entry for a newly published command.
func (r *SQLiteRepository) RecordDispatch(ctx context.Context, cmd *command.Command) error {
	return r.insert(ctx, &Entry{
		DeviceID:      cmd.DeviceID,
		CommandID:     cmd.ID,
		Kind:          KindDispatched,
		ChangedFields: cmd.ChangedFields,
		CreatedAt:     cmd.CreatedAt,
	})
}

// RecordResolution writes an audit entry for a resolved command.
func (r *SQLiteRepository) RecordResolution(ctx context.Context, cmd *command.Command) error {
	entry := &Entry{
		DeviceID:  cmd.DeviceID,
		CommandID: cmd.ID,
		Kind:      KindResolved,
		Status:    string(cmd.Status),
	}
	if cmd.Message != "" || cmd.Error != "" {
		entry.Details = map[string]any{}
		if cmd.Message != "" {
			entry.Details["message"] = cmd.Message
		}
		if cmd.Error != "" {
			entry.Details["error"] = cmd.Error
		}
	}
	if cmd.ResolvedAt != nil {
		entry.CreatedAt = *cmd.ResolvedAt
	}
	return r.insert(ctx, entry)
}

func (r *SQLiteRepository) insert(ctx context.Context, entry *Entry) error {
	if entry.ID == "" {
		entry.ID = "aud-" + uuid.NewString()[:8]
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var changedJSON *string
	if entry.ChangedFields != nil {
		b, err := json.Marshal(entry.ChangedFields)
		if err != nil {
			return fmt.Errorf("marshalling changed fields: %w", err)
		}
		s := string(b)
		changedJSON = &s
	}

	var detailsJSON *string
	if entry.Details != nil {
		b, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshalling audit details: %w", err)
		}
		s := string(b)
		detailsJSON = &s
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO command_audit (id, device_id, command_id, kind, status, changed_fields, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.DeviceID, entry.CommandID, entry.Kind,
		nullableString(entry.Status), changedJSON, detailsJSON,
		entry.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

// nullableString returns nil for empty strings, or the string otherwise.
// Used for nullable TEXT columns in SQLite.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// List returns audit entries matching the filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 200 {
		filter.Limit = 200
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var conditions []string
	var args []any

	if filter.DeviceID != "" {
		conditions = append(conditions, "device_id = ?")
		args = append(args, filter.DeviceID)
	}
	if filter.CommandID != "" {
		conditions = append(conditions, "command_id = ?")
		args = append(args, filter.CommandID)
	}
	if filter.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, filter.Kind)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM command_audit %s", where)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting audit entries: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT id, device_id, command_id, kind, status, changed_fields, details, created_at FROM command_audit %s ORDER BY created_at DESC LIMIT ? OFFSET ?",
		where,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var status, changedJSON, detailsJSON sql.NullString
		var createdAt string

		if err := rows.Scan(&entry.ID, &entry.DeviceID, &entry.CommandID, &entry.Kind,
			&status, &changedJSON, &detailsJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}

		if status.Valid {
			entry.Status = status.String
		}
		if changedJSON.Valid && changedJSON.String != "" {
			var changed []string
			if json.Unmarshal([]byte(changedJSON.String), &changed) == nil {
				entry.ChangedFields = changed
			}
		}
		if detailsJSON.Valid && detailsJSON.String != "" {
			var details map[string]any
			if json.Unmarshal([]byte(detailsJSON.String), &details) == nil {
				entry.Details = details
			}
		}

		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing audit timestamp %q: %w", createdAt, err)
		}
		entry.CreatedAt = t

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit entries: %w", err)
	}

	if entries == nil {
		entries = []Entry{}
	}

	return &ListResult{
		Entries: entries,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}
