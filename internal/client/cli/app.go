package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrijs2005/reconkeeper/internal/client/client"
	"github.com/dmitrijs2005/reconkeeper/internal/client/config"
	"github.com/dmitrijs2005/reconkeeper/internal/client/metrics"
	"github.com/dmitrijs2005/reconkeeper/internal/client/models"
	"github.com/dmitrijs2005/reconkeeper/internal/client/objectstore"
	"github.com/dmitrijs2005/reconkeeper/internal/client/services"
	"github.com/dmitrijs2005/reconkeeper/internal/logging"
	"github.com/dmitrijs2005/reconkeeper/internal/netx"
)

const metricsNamespace = "reconkeeper"

// sessionPruner deletes settled journal rows.
type sessionPruner interface {
	PruneSessions(ctx context.Context, before time.Time) ([]string, error)
}

// App holds the services one rk process works with. Services that need the
// local journal are opened on first use.
type App struct {
	config *config.Config
	log    logging.Logger
	out    io.Writer
	reader *bufio.Reader
	pal    palette

	archives services.ArchiveService
	uploads  services.UploadService
	orphans  services.OrphanService
	pruner   sessionPruner

	api       client.Client
	putter    services.Putter
	multipart services.MultipartStore
	obs       metrics.Observer
	registry  *prometheus.Registry
	repos     *client.Repositories

	mu       sync.Mutex
	progress services.TransitionFunc
}

// NewApp wires the control-plane client, the object store and the metrics
// registry from c. Logs go to errOut; command output goes to out.
func NewApp(ctx context.Context, c *config.Config, in io.Reader, out, errOut io.Writer) (*App, error) {
	log, err := logging.New(errOut, c.LogLevel, c.LogFormat)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{}

	api, err := client.NewHTTPClient(c.APIEndpoint, httpClient, c.RequestTimeout)
	if err != nil {
		return nil, err
	}
	tr := netx.NewTransport(httpClient, c.RequestTimeout)

	registry := prometheus.NewRegistry()
	obs, err := metrics.NewPrometheusObserver(metricsNamespace, registry)
	if err != nil {
		return nil, err
	}

	a := &App{
		config:   c,
		log:      log,
		out:      out,
		reader:   bufio.NewReader(in),
		pal:      newPalette(isTerminal(out)),
		api:      api,
		putter:   tr,
		obs:      obs,
		registry: registry,
	}

	var store objectstore.Store
	if c.S3() {
		s3, err := objectstore.NewS3Store(ctx, objectstore.S3Config{
			Bucket:    c.S3Bucket,
			Region:    c.S3Region,
			Endpoint:  c.S3Endpoint,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Timeout:   c.RequestTimeout,
		})
		if err != nil {
			return nil, err
		}
		store = s3
		a.multipart = s3
	} else {
		store = objectstore.NewHTTPStore(c.StoreBaseURL, tr)
	}

	a.archives = services.NewArchiveService(api, store, obs, log, services.ArchiveOptions{
		OutputDir:   c.OutputDir,
		Concurrency: c.FetchConcurrency,
		PageLimit:   c.ListPageLimit,
	})

	log.Debug(ctx, "app ready", "api", c.APIEndpoint, "store_mode", c.StoreMode)
	return a, nil
}

// openJournal opens the session journal and builds the services that use
// it. It is a no-op once they exist.
func (a *App) openJournal(ctx context.Context) error {
	if a.uploads != nil && a.orphans != nil && a.pruner != nil {
		return nil
	}

	repos, err := client.InitDatabase(ctx, a.config.JournalPath)
	if err != nil {
		return fmt.Errorf("open journal %s: %w", a.config.JournalPath, err)
	}
	a.repos = repos
	a.pruner = repos

	a.uploads = services.NewUploadService(a.api, a.putter, repos.Sessions, a.obs, a.log, services.UploadOptions{
		Workers:      a.config.UploadWorkers,
		ExpiresIn:    a.config.IntentExpiresIn,
		OnTransition: a.onTransition,
	})
	a.orphans = services.NewOrphanService(repos.Sessions, a.multipart, a.log)
	return nil
}

func (a *App) onTransition(u models.UploadIntent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.progress != nil {
		a.progress(u)
	}
}

func (a *App) setProgress(fn services.TransitionFunc) {
	a.mu.Lock()
	a.progress = fn
	a.mu.Unlock()
}

// Close flushes metrics to the configured textfile and closes the journal.
func (a *App) Close(ctx context.Context) error {
	var firstErr error

	if path := a.config.MetricsTextfile; path != "" && a.registry != nil {
		if err := metrics.WriteTextfile(path, a.registry); err != nil {
			a.log.Error(ctx, "metrics textfile not written", "path", path, "err", err)
			firstErr = err
		}
	}

	if err := a.repos.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
