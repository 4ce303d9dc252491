package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/reconkeeper/internal/client/models"
	"github.com/dmitrijs2005/reconkeeper/internal/client/objectstore"
	"github.com/dmitrijs2005/reconkeeper/internal/client/repositories/sessions"
	"github.com/dmitrijs2005/reconkeeper/internal/logging"
)

// ErrNotOrphan is returned when aborting a session that was confirmed or
// already aborted.
var ErrNotOrphan = errors.New("session is not orphaned")

// MultipartStore is the store-side surface needed to clean up sessions.
type MultipartStore interface {
	AbortMultipartUpload(ctx context.Context, key, uploadID string) error
	ListMultipartUploads(ctx context.Context, prefix string) ([]objectstore.MultipartUpload, error)
}

// uploadPrefixes are the key roots fresh uploads land under.
var uploadPrefixes = []string{"items/", "clips/"}

type OrphanService interface {
	// List returns journaled sessions that never reached confirmed.
	List(ctx context.Context) ([]*models.UploadSession, error)
	// Abort discards the store-side session of fileID and marks it aborted.
	Abort(ctx context.Context, fileID string) error
	// Remote lists in-progress multipart sessions the store itself reports.
	Remote(ctx context.Context) ([]objectstore.MultipartUpload, error)
}

type orphanService struct {
	journal sessions.Repository
	store   MultipartStore
	log     logging.Logger
}

func NewOrphanService(journal sessions.Repository, store MultipartStore, log logging.Logger) OrphanService {
	if log == nil {
		log = logging.Nop()
	}
	return &orphanService{journal: journal, store: store, log: log}
}

func (s *orphanService) List(ctx context.Context) ([]*models.UploadSession, error) {
	out, err := s.journal.ListOrphans(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}

func (s *orphanService) Abort(ctx context.Context, fileID string) error {
	sess, err := s.journal.Get(ctx, fileID)
	if err != nil {
		return err
	}
	if sess.Status == models.SessionConfirmed || sess.Status == models.SessionAborted {
		return fmt.Errorf("%s is %s: %w", fileID, sess.Status, ErrNotOrphan)
	}
	if s.store == nil {
		return errors.New("no object store configured for aborts")
	}

	err = s.store.AbortMultipartUpload(ctx, sess.ObjectKey, sess.UploadID)
	switch {
	case errors.Is(err, objectstore.ErrNotFound):
		s.log.Info(ctx, "store has no such session, marking aborted", "file_id", fileID, "upload_id", sess.UploadID)
	case err != nil:
		return err
	}

	if err := s.journal.SetStatus(ctx, fileID, models.SessionAborted, sess.LastError); err != nil {
		return fmt.Errorf("mark aborted: %w", err)
	}
	s.log.Info(ctx, "multipart session aborted", "file_id", fileID, "key", sess.ObjectKey)
	return nil
}

func (s *orphanService) Remote(ctx context.Context) ([]objectstore.MultipartUpload, error) {
	if s.store == nil {
		return nil, errors.New("no object store configured for listing")
	}

	var out []objectstore.MultipartUpload
	for _, p := range uploadPrefixes {
		ups, err := s.store.ListMultipartUploads(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, ups...)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Initiated.Before(out[j].Initiated) })
	return out, nil
}
