package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/reconkeeper/internal/client/client"
	"github.com/dmitrijs2005/reconkeeper/internal/client/models"
	"github.com/dmitrijs2005/reconkeeper/internal/client/objectstore"
	"github.com/dmitrijs2005/reconkeeper/internal/client/repositories/sessions"
	"github.com/dmitrijs2005/reconkeeper/internal/netx"
)

/************* control plane *************/

type intentCall struct {
	Kind models.EntityKind
	ID   string
	Req  client.IntentRequest
}

type confirmCall struct {
	Kind models.EntityKind
	ID   string
	Req  client.ConfirmRequest
}

type fakeClient struct {
	mu sync.Mutex

	// grant builds the intent response; defaults to one URL per requested
	// part, or a single URL.
	grant      func(id string, req client.IntentRequest) (*client.IntentGrant, error)
	confirmErr map[string]error

	items    map[string]*models.Item
	bundles  map[string]*models.Bundle
	children map[string][]models.Item
	listErr  map[string]error
	matches  map[string][]models.Match
	matchErr error

	intents  []intentCall
	confirms []confirmCall
	listed   []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		confirmErr: map[string]error{},
		items:      map[string]*models.Item{},
		bundles:    map[string]*models.Bundle{},
		children:   map[string][]models.Item{},
		listErr:    map[string]error{},
		matches:    map[string][]models.Match{},
	}
}

func defaultGrant(id string, req client.IntentRequest) (*client.IntentGrant, error) {
	if req.Parts == 0 {
		return &client.IntentGrant{URL: "https://store/" + id + "?sig"}, nil
	}
	urls := make([]string, req.Parts)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://store/%s?part=%d", id, i+1)
	}
	return &client.IntentGrant{URLs: urls, UploadID: "up-" + id}, nil
}

func (f *fakeClient) CreateIntent(ctx context.Context, kind models.EntityKind, id string, req client.IntentRequest) (*client.IntentGrant, error) {
	f.mu.Lock()
	f.intents = append(f.intents, intentCall{Kind: kind, ID: id, Req: req})
	g := f.grant
	f.mu.Unlock()

	if g == nil {
		g = defaultGrant
	}
	return g(id, req)
}

func (f *fakeClient) Confirm(ctx context.Context, kind models.EntityKind, id string, req client.ConfirmRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirms = append(f.confirms, confirmCall{Kind: kind, ID: id, Req: req})
	return f.confirmErr[id]
}

func (f *fakeClient) ListItems(ctx context.Context, q client.ItemQuery) (*client.Page[models.Item], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listed = append(f.listed, q.ParentID)
	if err := f.listErr[q.ParentID]; err != nil {
		return nil, err
	}
	items := f.children[q.ParentID]
	return &client.Page[models.Item]{Items: items, Page: q.Page, Limit: q.Limit, Total: len(items)}, nil
}

func (f *fakeClient) GetItem(ctx context.Context, id string) (*models.Item, error) {
	it, ok := f.items[id]
	if !ok {
		return nil, client.ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (f *fakeClient) GetBundle(ctx context.Context, id string) (*models.Bundle, error) {
	b, ok := f.bundles[id]
	if !ok {
		return nil, client.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeClient) BundleMatches(ctx context.Context, bundleID string) ([]models.Match, error) {
	if f.matchErr != nil {
		return nil, f.matchErr
	}
	return f.matches[bundleID], nil
}

/************* object store *************/

type putCall struct {
	URL         string
	Size        int64
	Read        int64
	ContentType string
}

type fakePutter struct {
	mu     sync.Mutex
	calls  []putCall
	errs   map[string]error
	noETag bool
}

func (p *fakePutter) Put(ctx context.Context, url string, body io.Reader, size int64, contentType string) (string, error) {
	n, _ := io.Copy(io.Discard, body)

	p.mu.Lock()
	p.calls = append(p.calls, putCall{URL: url, Size: size, Read: n, ContentType: contentType})
	err := p.errs[url]
	noETag := p.noETag
	p.mu.Unlock()

	if err != nil {
		return "", err
	}
	if noETag {
		return "", nil
	}
	return `"etag-` + url + `"`, nil
}

type fakeStore struct {
	blobs map[string]*netx.Blob

	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration

	mu   sync.Mutex
	gets []string
}

func (s *fakeStore) Get(ctx context.Context, key string) (*netx.Blob, error) {
	s.mu.Lock()
	s.gets = append(s.gets, key)
	s.mu.Unlock()

	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		m := s.maxSeen.Load()
		if n <= m || s.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	b, ok := s.blobs[key]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", key, objectstore.ErrNotFound)
	}
	return b, nil
}

/************* journal *************/

type fakeJournal struct {
	mu       sync.Mutex
	sessions map[string]*models.UploadSession
	history  []string
	getErr   error
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{sessions: map[string]*models.UploadSession{}}
}

func (j *fakeJournal) Record(ctx context.Context, s *models.UploadSession) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	cp := *s
	j.sessions[s.FileID] = &cp
	j.history = append(j.history, s.FileID+":"+string(s.Status))
	return nil
}

func (j *fakeJournal) SetStatus(ctx context.Context, fileID string, status models.SessionStatus, lastErr string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	s, ok := j.sessions[fileID]
	if !ok {
		return sessions.ErrNotFound
	}
	s.Status = status
	s.LastError = lastErr
	j.history = append(j.history, fileID+":"+string(status))
	return nil
}

func (j *fakeJournal) Get(ctx context.Context, fileID string) (*models.UploadSession, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.getErr != nil {
		return nil, j.getErr
	}
	s, ok := j.sessions[fileID]
	if !ok {
		return nil, sessions.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (j *fakeJournal) ListOrphans(ctx context.Context) ([]*models.UploadSession, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []*models.UploadSession
	for _, s := range j.sessions {
		if s.Status == models.SessionOpen || s.Status == models.SessionFailed {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].FileID < out[k].FileID })
	return out, nil
}

func (j *fakeJournal) ListSettled(ctx context.Context, before time.Time) ([]*models.UploadSession, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []*models.UploadSession
	for _, s := range j.sessions {
		if (s.Status == models.SessionConfirmed || s.Status == models.SessionAborted) && s.UpdatedAt.Before(before) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (j *fakeJournal) Delete(ctx context.Context, fileID string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, ok := j.sessions[fileID]; !ok {
		return sessions.ErrNotFound
	}
	delete(j.sessions, fileID)
	return nil
}
