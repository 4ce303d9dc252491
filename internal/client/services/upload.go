package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/reconkeeper/internal/client/client"
	"github.com/dmitrijs2005/reconkeeper/internal/client/metrics"
	"github.com/dmitrijs2005/reconkeeper/internal/client/models"
	"github.com/dmitrijs2005/reconkeeper/internal/client/paths"
	"github.com/dmitrijs2005/reconkeeper/internal/client/repositories/sessions"
	"github.com/dmitrijs2005/reconkeeper/internal/logging"
	"github.com/dmitrijs2005/reconkeeper/internal/netx"
)

var ErrEmptyFile = errors.New("file is empty")

// Stage names the step of the upload protocol that failed.
type Stage string

const (
	StageIntent   Stage = "intent"
	StageTransfer Stage = "transfer"
	StageConfirm  Stage = "confirm"
)

// StageError attributes an upload failure to its protocol step.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Putter sends bytes to a pre-signed URL and returns the reported ETag.
type Putter interface {
	Put(ctx context.Context, url string, body io.Reader, size int64, contentType string) (string, error)
}

// UploadRequest queues one local file.
type UploadRequest struct {
	Path     string
	Kind     models.EntityKind
	ParentID string
	// FileID is generated when empty.
	FileID string
}

// TransitionFunc observes every state change of an upload. It receives a
// snapshot and may be called from several goroutines when the batch runs
// with more than one worker.
type TransitionFunc func(u models.UploadIntent)

type UploadOptions struct {
	// Workers bounds concurrent files in a batch; values below 2 run the
	// batch sequentially.
	Workers int
	// ExpiresIn is the requested lifetime of granted URLs.
	ExpiresIn    time.Duration
	OnTransition TransitionFunc
}

type UploadService interface {
	// Upload drives one file through intent, transfer and confirm. The
	// returned intent is always non-nil and ends in success or error.
	Upload(ctx context.Context, req UploadRequest) (*models.UploadIntent, error)
	// UploadBatch uploads every request and returns one final intent per
	// request, in request order. A failed file never stops its siblings.
	UploadBatch(ctx context.Context, reqs []UploadRequest) []*models.UploadIntent
}

type uploadService struct {
	client  client.Client
	putter  Putter
	journal sessions.Repository
	obs     metrics.Observer
	log     logging.Logger
	opts    UploadOptions
	newID   func() string
}

// NewUploadService wires the coordinator. journal may be nil, in which case
// multipart grants are not recorded.
func NewUploadService(c client.Client, putter Putter, journal sessions.Repository, obs metrics.Observer, log logging.Logger, opts UploadOptions) UploadService {
	if obs == nil {
		obs = metrics.Nop()
	}
	if log == nil {
		log = logging.Nop()
	}
	return &uploadService{
		client:  c,
		putter:  putter,
		journal: journal,
		obs:     obs,
		log:     log,
		opts:    opts,
		newID:   uuid.NewString,
	}
}

func (s *uploadService) UploadBatch(ctx context.Context, reqs []UploadRequest) []*models.UploadIntent {
	results := make([]*models.UploadIntent, len(reqs))

	if s.opts.Workers < 2 {
		for i, r := range reqs {
			results[i], _ = s.Upload(ctx, r)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for i, r := range reqs {
		g.Go(func() error {
			results[i], _ = s.Upload(ctx, r)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// upload is the per-file state of one Upload call.
type upload struct {
	s     *uploadService
	u     *models.UploadIntent
	log   logging.Logger
	start time.Time
}

func (up *upload) advance(to models.UploadStatus) {
	from := up.u.Status
	if !models.CanTransition(from, to) {
		panic(fmt.Sprintf("upload %s: illegal transition %s -> %s", up.u.FileID, from, to))
	}
	up.u.Status = to
	snap := *up.u

	up.log.Debug(context.Background(), "upload transition", "from", from, "to", to)
	if up.s.opts.OnTransition != nil {
		up.s.opts.OnTransition(snap)
	}
}

func (up *upload) fail(ctx context.Context, stage Stage, err error) (*models.UploadIntent, error) {
	se := &StageError{Stage: stage, Err: err}
	up.u.Err = se.Error()
	up.advance(models.StateError)

	up.log.Warn(ctx, "upload failed", "stage", stage, "err", err)
	up.s.obs.RecordUpload(string(up.u.Kind), time.Since(up.start), up.u.SizeBytes, se)

	if up.u.Multipart() {
		up.s.markSession(ctx, up.u.FileID, models.SessionFailed, se.Error())
	}
	return up.u, se
}

func (s *uploadService) Upload(ctx context.Context, req UploadRequest) (*models.UploadIntent, error) {
	id := req.FileID
	if id == "" {
		id = s.newID()
	}

	up := &upload{
		s: s,
		u: &models.UploadIntent{
			FileID:    id,
			Kind:      req.Kind,
			ParentID:  req.ParentID,
			Extension: extensionOf(req.Path),
			LocalPath: req.Path,
			Status:    models.StatePending,
		},
		log:   s.log.With("file_id", id, "kind", req.Kind),
		start: time.Now(),
	}
	if s.opts.OnTransition != nil {
		s.opts.OnTransition(*up.u)
	}

	key, err := paths.UploadKey(req.Kind, id, req.ParentID, up.u.Extension)
	if err != nil {
		return up.fail(ctx, StageIntent, err)
	}

	f, err := os.Open(req.Path)
	if err != nil {
		return up.fail(ctx, StageIntent, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return up.fail(ctx, StageIntent, err)
	}
	if fi.Size() == 0 {
		return up.fail(ctx, StageIntent, fmt.Errorf("%s: %w", req.Path, ErrEmptyFile))
	}
	up.u.SizeBytes = fi.Size()

	// intent
	up.advance(models.StateIntent)
	up.u.TotalParts = RequestedParts(up.u.SizeBytes)

	grant, err := s.client.CreateIntent(ctx, req.Kind, id, client.IntentRequest{
		Extension: up.u.Extension,
		ParentID:  req.ParentID,
		Parts:     up.u.TotalParts,
		ExpiresIn: int(s.opts.ExpiresIn / time.Second),
	})
	if err != nil {
		return up.fail(ctx, StageIntent, err)
	}
	up.u.UploadID = grant.UploadID
	up.u.PartURLs = grant.PartURLs()

	plan, err := PlanParts(up.u.SizeBytes, len(up.u.PartURLs))
	if err != nil {
		return up.fail(ctx, StageIntent, err)
	}

	if up.u.Multipart() {
		s.recordSession(ctx, up.u, key)
	}

	// transfer
	up.advance(models.StateUploading)
	contentType := grant.ContentType
	if contentType == "" {
		contentType = netx.DefaultContentType
	}

	completed := make([]models.CompletedPart, 0, len(plan))
	for _, p := range plan {
		etag, err := s.putPart(ctx, f, up.u.PartURLs[p.Number-1], p, contentType)
		if err != nil {
			return up.fail(ctx, StageTransfer, fmt.Errorf("part %d/%d: %w", p.Number, len(plan), err))
		}
		if up.u.Multipart() && etag == "" {
			return up.fail(ctx, StageTransfer, fmt.Errorf("part %d/%d: %w", p.Number, len(plan), netx.ErrMissingETag))
		}
		up.log.Debug(ctx, "part sent", "part", p.Number, "bytes", p.Size)
		completed = append(completed, models.CompletedPart{PartNumber: p.Number, ETag: etag})
	}

	// confirm
	up.advance(models.StateConfirming)
	var confirm client.ConfirmRequest
	if up.u.Multipart() {
		confirm = client.ConfirmRequest{UploadID: up.u.UploadID, Parts: completed}
	}
	if err := s.client.Confirm(ctx, req.Kind, id, confirm); err != nil {
		return up.fail(ctx, StageConfirm, err)
	}

	up.advance(models.StateSuccess)
	if up.u.Multipart() {
		s.markSession(ctx, id, models.SessionConfirmed, "")
	}
	s.obs.RecordUpload(string(req.Kind), time.Since(up.start), up.u.SizeBytes, nil)
	up.log.Info(ctx, "upload confirmed", "key", key, "bytes", up.u.SizeBytes, "parts", len(plan))

	return up.u, nil
}

func (s *uploadService) putPart(ctx context.Context, f *os.File, url string, p PartRange, contentType string) (string, error) {
	start := time.Now()
	etag, err := s.putter.Put(ctx, url, io.NewSectionReader(f, p.Offset, p.Size), p.Size, contentType)
	s.obs.RecordPart(time.Since(start), p.Size, err)
	return etag, err
}

func (s *uploadService) recordSession(ctx context.Context, u *models.UploadIntent, key string) {
	if s.journal == nil {
		return
	}
	err := s.journal.Record(ctx, &models.UploadSession{
		FileID:     u.FileID,
		Kind:       u.Kind,
		ObjectKey:  key,
		UploadID:   u.UploadID,
		TotalParts: len(u.PartURLs),
		SizeBytes:  u.SizeBytes,
		LocalPath:  u.LocalPath,
		Status:     models.SessionOpen,
	})
	if err != nil {
		s.log.Warn(ctx, "journal record failed", "file_id", u.FileID, "err", err)
	}
}

func (s *uploadService) markSession(ctx context.Context, fileID string, status models.SessionStatus, lastErr string) {
	if s.journal == nil {
		return
	}
	// the journal must reflect the outcome even when ctx was cancelled
	if err := s.journal.SetStatus(context.WithoutCancel(ctx), fileID, status, lastErr); err != nil {
		s.log.Warn(ctx, "journal update failed", "file_id", fileID, "status", status, "err", err)
	}
}

func extensionOf(path string) string {
	return paths.Extension(strings.ToLower(filepath.Ext(path)))
}
