package services

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/reconkeeper/internal/client/client"
	"github.com/dmitrijs2005/reconkeeper/internal/client/metrics"
	"github.com/dmitrijs2005/reconkeeper/internal/client/models"
	"github.com/dmitrijs2005/reconkeeper/internal/client/objectstore"
	"github.com/dmitrijs2005/reconkeeper/internal/client/paths"
	"github.com/dmitrijs2005/reconkeeper/internal/filex"
	"github.com/dmitrijs2005/reconkeeper/internal/logging"
)

const (
	defaultFetchConcurrency = 8
	defaultPageLimit        = 1000
)

// ErrUnsafePath marks a manifest entry whose key or archive path would leave
// its root. Such entries are never fetched and count as failed.
var ErrUnsafePath = errors.New("unsafe archive path")

type ArchiveOptions struct {
	OutputDir string
	// Concurrency bounds simultaneous fetches and listings.
	Concurrency int
	// PageLimit is the listing page size used for child discovery.
	PageLimit int
}

// Plan is a resolved archive job before any blob is fetched.
type Plan struct {
	Kind        models.EntityKind
	RootID      string
	ArchiveName string
	Manifest    models.Manifest
	// DiscoveryFailures counts listings that failed and were treated as
	// zero results.
	DiscoveryFailures int
}

type ArchiveService interface {
	// PlanBundle resolves the manifest of a bundle archive.
	PlanBundle(ctx context.Context, bundleID string, withMatches bool) (*Plan, error)
	// PlanItem resolves the manifest of a single-item archive.
	PlanItem(ctx context.Context, itemID string) (*Plan, error)
	// Assemble fetches every manifest entry and writes the archive. Only a
	// failure to write the archive is returned as an error.
	Assemble(ctx context.Context, plan *Plan) (*models.ArchiveSummary, error)
}

type archiveService struct {
	client client.Client
	store  objectstore.Store
	obs    metrics.Observer
	log    logging.Logger
	opts   ArchiveOptions
}

func NewArchiveService(c client.Client, store objectstore.Store, obs metrics.Observer, log logging.Logger, opts ArchiveOptions) ArchiveService {
	if obs == nil {
		obs = metrics.Nop()
	}
	if log == nil {
		log = logging.Nop()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultFetchConcurrency
	}
	if opts.PageLimit <= 0 {
		opts.PageLimit = defaultPageLimit
	}
	return &archiveService{client: c, store: store, obs: obs, log: log, opts: opts}
}

// BundleArchiveName and ItemArchiveName name the output file of a job.
func BundleArchiveName(id string) string { return "bundle_" + id + ".zip" }
func ItemArchiveName(id string) string   { return "image_" + id + ".zip" }

func (s *archiveService) PlanBundle(ctx context.Context, bundleID string, withMatches bool) (*Plan, error) {
	b, err := s.client.GetBundle(ctx, bundleID)
	if err != nil {
		return nil, fmt.Errorf("bundle %s: %w", bundleID, err)
	}

	keys := paths.BundleKeys(*b)
	plan := &Plan{Kind: models.EntityBundle, RootID: b.ID, ArchiveName: BundleArchiveName(b.ID)}

	var m models.Manifest
	for _, k := range keys.ThreeD() {
		m = append(m, models.ManifestEntry{Key: k, ArchivePath: paths.Relative(keys.Dir, k), Category: models.CategoryFixed})
	}

	children, failed := s.discoverChildren(ctx, b.ItemIDs)
	plan.DiscoveryFailures += failed
	m = append(m, childImages(children)...)

	if withMatches {
		matches, err := s.client.BundleMatches(ctx, b.ID)
		if err != nil {
			plan.DiscoveryFailures++
			s.log.Warn(ctx, "match discovery failed", "bundle_id", b.ID, "err", err)
		}
		for _, mt := range matches {
			for _, k := range paths.MatchKeys(mt).All() {
				m = append(m, models.ManifestEntry{Key: k, ArchivePath: k, Category: models.CategoryMatch})
			}
		}
	}

	plan.Manifest = normalize(m)
	return plan, nil
}

func (s *archiveService) PlanItem(ctx context.Context, itemID string) (*Plan, error) {
	it, err := s.client.GetItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", itemID, err)
	}

	keys := paths.ItemKeys(*it)
	plan := &Plan{Kind: models.EntityItem, RootID: it.ID, ArchiveName: ItemArchiveName(it.ID)}

	fixed := func(k, ext string) models.ManifestEntry {
		return models.ManifestEntry{Key: k, ArchivePath: paths.Relative(keys.Dir, k), Category: models.CategoryFixed, FallbackExt: ext}
	}

	m := models.Manifest{fixed(keys.Image, paths.Extension(it.Extension))}
	if it.DepthStatus.Done() {
		m = append(m, fixed(keys.Depth, ""), fixed(keys.Camera, ""))
	}
	if it.FeatureStatus.Done() {
		for _, k := range keys.Features.All() {
			m = append(m, fixed(k, ""))
		}
	}

	if it.IsParent() {
		children, failed := s.discoverChildren(ctx, []string{it.ID})
		plan.DiscoveryFailures += failed
		m = append(m, childImages(children)...)
	}

	plan.Manifest = normalize(m)
	return plan, nil
}

// discoverChildren lists the children of every parent concurrently. A failed
// listing counts as zero children.
func (s *archiveService) discoverChildren(ctx context.Context, parentIDs []string) ([]models.Item, int) {
	lists := make([][]models.Item, len(parentIDs))
	failed := make([]bool, len(parentIDs))

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i, pid := range parentIDs {
		g.Go(func() error {
			page, err := s.client.ListItems(ctx, client.ItemQuery{
				ParentID:  pid,
				SortBy:    "createdAt",
				SortOrder: "asc",
				Page:      1,
				Limit:     s.opts.PageLimit,
			})
			if err != nil {
				failed[i] = true
				s.log.Warn(ctx, "child discovery failed", "parent_id", pid, "err", err)
				return nil
			}
			if page.Total > len(page.Items) {
				s.log.Warn(ctx, "child listing truncated", "parent_id", pid, "total", page.Total, "listed", len(page.Items))
			}
			lists[i] = page.Items
			return nil
		})
	}
	_ = g.Wait()

	var out []models.Item
	seen := map[string]bool{}
	n := 0
	for i := range parentIDs {
		if failed[i] {
			n++
		}
		for _, c := range lists[i] {
			if c.ID == "" || seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			out = append(out, c)
		}
	}
	return out, n
}

func childImages(children []models.Item) models.Manifest {
	m := make(models.Manifest, 0, len(children))
	for _, c := range children {
		ext := paths.Extension(c.Extension)
		m = append(m, models.ManifestEntry{
			Key:         paths.ItemKeys(c).Image,
			ArchivePath: "images/" + c.ID + "." + ext,
			Category:    models.CategoryImage,
			FallbackExt: ext,
		})
	}
	return m
}

// normalize sorts entries by archive path and drops duplicates.
func normalize(m models.Manifest) models.Manifest {
	sort.SliceStable(m, func(i, j int) bool { return m[i].ArchivePath < m[j].ArchivePath })
	out := m[:0]
	for i, e := range m {
		if i > 0 && e.ArchivePath == m[i-1].ArchivePath {
			continue
		}
		out = append(out, e)
	}
	return out
}

// fetchResult points at a fetched blob spooled to disk, so the all-settled
// barrier holds file names rather than payloads.
type fetchResult struct {
	spool       string
	contentType string
	err         error
}

func (s *archiveService) Assemble(ctx context.Context, plan *Plan) (*models.ArchiveSummary, error) {
	sum := models.NewArchiveSummary(plan.RootID, plan.ArchiveName)
	sum.DiscoveryFailures = plan.DiscoveryFailures

	spoolDir, err := os.MkdirTemp("", "rk-archive-*")
	if err != nil {
		return sum, fmt.Errorf("spool dir: %w", err)
	}
	defer os.RemoveAll(spoolDir)

	results := make([]fetchResult, len(plan.Manifest))

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i, e := range plan.Manifest {
		if !paths.CleanRelative(e.Key) || !paths.CleanRelative(e.ArchivePath) {
			results[i] = fetchResult{err: fmt.Errorf("%w: %q", ErrUnsafePath, e.ArchivePath)}
			continue
		}
		g.Go(func() error {
			results[i] = s.fetch(ctx, e, filepath.Join(spoolDir, strconv.Itoa(i)))
			return nil
		})
	}
	_ = g.Wait()

	dir, err := filex.EnsureDir(s.opts.OutputDir)
	if err != nil {
		return sum, fmt.Errorf("output dir: %w", err)
	}
	sum.ArchivePath = filepath.Join(dir, plan.ArchiveName)

	out, err := filex.CreatePending(sum.ArchivePath)
	if err != nil {
		return sum, err
	}

	zw := zip.NewWriter(out)
	for i, e := range plan.Manifest {
		r := results[i]
		name := e.ArchivePath
		if r.err == nil {
			name = archivePath(e, r.contentType)
			if !paths.CleanRelative(name) {
				r.err = fmt.Errorf("%w: %q", ErrUnsafePath, name)
			}
		}
		if r.err != nil {
			sum.Tally(e.Category).Failed++
			sum.Missing = append(sum.Missing, e.ArchivePath)
			msg := "artifact fetch failed"
			if errors.Is(r.err, ErrUnsafePath) {
				msg = "artifact rejected"
			}
			s.log.Warn(ctx, msg, "archive_path", e.ArchivePath, "key", e.Key, "err", r.err)
			continue
		}

		if err := copyInto(zw, name, r.spool); err != nil {
			out.Discard()
			return sum, fmt.Errorf("write %s: %w", e.ArchivePath, err)
		}
		sum.Tally(e.Category).OK++
	}

	if err := zw.Close(); err != nil {
		out.Discard()
		return sum, fmt.Errorf("finish archive: %w", err)
	}
	if err := out.Commit(); err != nil {
		return sum, err
	}

	if fi, err := os.Stat(sum.ArchivePath); err == nil {
		sum.Bytes = fi.Size()
	}
	s.log.Info(ctx, "archive written", "path", sum.ArchivePath, "ok", sum.SuccessCount(), "failed", sum.FailCount())

	return sum, nil
}

// fetch downloads one entry and writes its payload to spool.
func (s *archiveService) fetch(ctx context.Context, e models.ManifestEntry, spool string) fetchResult {
	start := time.Now()
	blob, err := s.store.Get(ctx, e.Key)
	var n int64
	if blob != nil {
		n = int64(len(blob.Data))
	}
	s.obs.RecordFetch(string(e.Category), time.Since(start), n, err)
	if err != nil {
		return fetchResult{err: err}
	}

	if err := os.WriteFile(spool, blob.Data, 0o600); err != nil {
		return fetchResult{err: fmt.Errorf("spool %s: %w", e.ArchivePath, err)}
	}
	return fetchResult{spool: spool, contentType: blob.ContentType}
}

func copyInto(zw *zip.Writer, name, spool string) error {
	f, err := os.Open(spool)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}

// archivePath swaps the recorded extension of an image entry for the one
// implied by the response content type.
func archivePath(e models.ManifestEntry, contentType string) string {
	if e.FallbackExt == "" {
		return e.ArchivePath
	}
	ext := ExtensionForContentType(contentType, e.FallbackExt)
	return strings.TrimSuffix(e.ArchivePath, "."+e.FallbackExt) + "." + ext
}

// ExtensionForContentType maps a response content type to a file extension,
// falling back to fallback when the type is absent, generic or unknown.
func ExtensionForContentType(contentType, fallback string) string {
	if contentType != "" {
		mt, _, err := mime.ParseMediaType(contentType)
		if err == nil && mt != "application/octet-stream" {
			if m := mimetype.Lookup(mt); m != nil {
				if ext := strings.TrimPrefix(m.Extension(), "."); ext != "" {
					return ext
				}
			}
		}
	}
	return paths.Extension(fallback)
}
