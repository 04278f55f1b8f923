package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Record is one finished task as persisted in the history table.
type Record struct {
	ID          int64
	TaskID      string
	ParentID    string
	URL         string
	Title       string
	Kind        string
	Status      string
	Filename    string
	SizeBytes   int64
	Error       string
	Duration    time.Duration
	BitRate     int64
	Codec       string
	AddedAt     time.Time
	CompletedAt time.Time
}

const recordColumns = "id, task_id, parent_id, url, title, kind, status, filename, size_bytes, error_message, duration_seconds, bit_rate, codec, added_at, completed_at"

// Add inserts a finished task record.
func (s *Store) Add(ctx context.Context, rec Record) error {
	if rec.CompletedAt.IsZero() {
		rec.CompletedAt = time.Now()
	}
	if rec.AddedAt.IsZero() {
		rec.AddedAt = rec.CompletedAt
	}
	err := retryOnBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx,
			`INSERT INTO downloads (
                task_id, parent_id, url, title, kind, status, filename, size_bytes,
                error_message, duration_seconds, bit_rate, codec, added_at, completed_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.TaskID,
			nullableString(rec.ParentID),
			rec.URL,
			nullableString(rec.Title),
			rec.Kind,
			rec.Status,
			nullableString(rec.Filename),
			rec.SizeBytes,
			nullableString(rec.Error),
			rec.Duration.Seconds(),
			rec.BitRate,
			nullableString(rec.Codec),
			rec.AddedAt.UTC().Format(time.RFC3339Nano),
			rec.CompletedAt.UTC().Format(time.RFC3339Nano),
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("insert history record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first. A non-positive limit returns all.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	query := "SELECT " + recordColumns + " FROM downloads ORDER BY completed_at DESC, id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (Record, error) {
	var (
		rec          Record
		parentID     sql.NullString
		title        sql.NullString
		filename     sql.NullString
		sizeBytes    sql.NullInt64
		errorMessage sql.NullString
		duration     sql.NullFloat64
		bitRate      sql.NullInt64
		codec        sql.NullString
		addedRaw     string
		completedRaw string
	)
	if err := scanner.Scan(
		&rec.ID,
		&rec.TaskID,
		&parentID,
		&rec.URL,
		&title,
		&rec.Kind,
		&rec.Status,
		&filename,
		&sizeBytes,
		&errorMessage,
		&duration,
		&bitRate,
		&codec,
		&addedRaw,
		&completedRaw,
	); err != nil {
		return Record{}, fmt.Errorf("scan history record: %w", err)
	}
	rec.ParentID = parentID.String
	rec.Title = title.String
	rec.Filename = filename.String
	rec.Error = errorMessage.String
	rec.Codec = codec.String
	rec.BitRate = bitRate.Int64
	rec.SizeBytes = sizeBytes.Int64
	if duration.Valid {
		rec.Duration = time.Duration(duration.Float64 * float64(time.Second))
	}
	rec.AddedAt = parseTime(addedRaw)
	rec.CompletedAt = parseTime(completedRaw)
	return rec, nil
}

func nullableString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func parseTime(raw string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
