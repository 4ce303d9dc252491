package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/reconkeeper/internal/client/models"
)

// ErrNotFound is returned when no session exists for a file id.
var ErrNotFound = errors.New("upload session not found")

// Repository describes journal operations for UploadSession records.
type Repository interface {
	// Record inserts a session or replaces the one stored for the same file.
	Record(ctx context.Context, s *models.UploadSession) error

	// SetStatus moves a session to status and stores lastErr alongside.
	SetStatus(ctx context.Context, fileID string, status models.SessionStatus, lastErr string) error

	// Get returns the session recorded for fileID.
	Get(ctx context.Context, fileID string) (*models.UploadSession, error)

	// ListOrphans returns sessions that never reached confirmed or aborted,
	// oldest first.
	ListOrphans(ctx context.Context) ([]*models.UploadSession, error)

	// ListSettled returns confirmed or aborted sessions last updated before
	// the given time.
	ListSettled(ctx context.Context, before time.Time) ([]*models.UploadSession, error)

	// Delete removes the session of fileID.
	Delete(ctx context.Context, fileID string) error
}
