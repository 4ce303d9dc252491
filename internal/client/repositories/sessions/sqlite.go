package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/reconkeeper/internal/client/models"
	"github.com/dmitrijs2005/reconkeeper/internal/dbx"
)

type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

var _ Repository = (*SQLiteRepository)(nil)

const columns = `file_id, kind, object_key, upload_id, total_parts, size_bytes, local_path, status, last_error, created_at, updated_at`

func (r *SQLiteRepository) Record(ctx context.Context, s *models.UploadSession) error {
	now := r.now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	if s.Status == "" {
		s.Status = models.SessionOpen
	}

	query := `INSERT INTO upload_sessions (` + columns + `)
			values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(file_id) DO UPDATE SET kind = excluded.kind,
				object_key = excluded.object_key,
				upload_id = excluded.upload_id,
				total_parts = excluded.total_parts,
				size_bytes = excluded.size_bytes,
				local_path = excluded.local_path,
				status = excluded.status,
				last_error = excluded.last_error,
				updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		s.FileID, string(s.Kind), s.ObjectKey, s.UploadID, s.TotalParts, s.SizeBytes, s.LocalPath,
		string(s.Status), s.LastError, s.CreatedAt.UnixNano(), s.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to upsert upload session: %w", err)
	}

	return nil
}

func (r *SQLiteRepository) SetStatus(ctx context.Context, fileID string, status models.SessionStatus, lastErr string) error {
	query := `update upload_sessions set status=?, last_error=?, updated_at=? where file_id=?`
	result, err := r.db.ExecContext(ctx, query, string(status), lastErr, r.now().UTC().UnixNano(), fileID)
	if err != nil {
		return fmt.Errorf("failed to update upload session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected != 1 {
		return fmt.Errorf("session %s: %w", fileID, ErrNotFound)
	}

	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, fileID string) (*models.UploadSession, error) {
	query := `select ` + columns + ` from upload_sessions where file_id=?`
	s, err := scanSession(r.db.QueryRowContext(ctx, query, fileID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", fileID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read upload session: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) ListOrphans(ctx context.Context) ([]*models.UploadSession, error) {
	query := `select ` + columns + ` from upload_sessions where status in (?, ?) order by created_at, file_id`
	rows, err := r.db.QueryContext(ctx, query, string(models.SessionOpen), string(models.SessionFailed))
	if err != nil {
		return nil, fmt.Errorf("error selecting upload sessions: %w", err)
	}
	return collect(rows)
}

func (r *SQLiteRepository) ListSettled(ctx context.Context, before time.Time) ([]*models.UploadSession, error) {
	query := `select ` + columns + ` from upload_sessions where status in (?, ?) and updated_at < ? order by updated_at, file_id`
	rows, err := r.db.QueryContext(ctx, query, string(models.SessionConfirmed), string(models.SessionAborted), before.UTC().UnixNano())
	if err != nil {
		return nil, fmt.Errorf("error selecting upload sessions: %w", err)
	}
	return collect(rows)
}

func (r *SQLiteRepository) Delete(ctx context.Context, fileID string) error {
	result, err := r.db.ExecContext(ctx, `delete from upload_sessions where file_id=?`, fileID)
	if err != nil {
		return fmt.Errorf("failed to delete upload session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected != 1 {
		return fmt.Errorf("session %s: %w", fileID, ErrNotFound)
	}

	return nil
}

func collect(rows *sql.Rows) ([]*models.UploadSession, error) {
	defer rows.Close()

	var result []*models.UploadSession

	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*models.UploadSession, error) {
	var (
		s                models.UploadSession
		kind, status     string
		created, updated int64
	)
	err := row.Scan(&s.FileID, &kind, &s.ObjectKey, &s.UploadID, &s.TotalParts, &s.SizeBytes, &s.LocalPath,
		&status, &s.LastError, &created, &updated)
	if err != nil {
		return nil, err
	}
	s.Kind = models.EntityKind(kind)
	s.Status = models.SessionStatus(status)
	s.CreatedAt = time.Unix(0, created).UTC()
	s.UpdatedAt = time.Unix(0, updated).UTC()
	return &s, nil
}
