// Package netx moves bytes to and from the object store over plain HTTP(S)
// against pre-signed or public URLs.
package netx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/reconkeeper/internal/common"
)

// DefaultContentType is sent on PUTs whose URL was not signed for a type.
const DefaultContentType = "application/octet-stream"

var (
	// ErrNotFound is returned for a 404 from the object store.
	ErrNotFound = errors.New("object not found")
	// ErrStatus is returned for any other non-2xx response.
	ErrStatus = errors.New("unexpected status")
	// ErrMissingETag is returned when a PUT succeeds without an ETag header.
	ErrMissingETag = errors.New("response carries no ETag")
)

// Blob is a fetched object.
type Blob struct {
	Data        []byte
	ContentType string
}

// Transport issues object-store requests, each bounded by its own timeout.
// Expiry surfaces as an ordinary error.
type Transport struct {
	client  *http.Client
	timeout time.Duration
}

// NewTransport wraps client. A nil client means http.DefaultClient and a
// non-positive timeout means common.RequestTimeout.
func NewTransport(client *http.Client, timeout time.Duration) *Transport {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = common.RequestTimeout
	}
	return &Transport{client: client, timeout: timeout}
}

// Put uploads size bytes from body to url and returns the ETag reported by
// the store, which may be empty for single-shot uploads.
func (t *Transport) Put(ctx context.Context, url string, body io.Reader, size int64, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return "", fmt.Errorf("build put request: %w", err)
	}
	req.ContentLength = size
	if contentType == "" {
		contentType = DefaultContentType
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("put: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "upload"); err != nil {
		return "", err
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.Header.Get("ETag"), nil
}

// Get downloads url into memory.
func (t *Transport) Get(ctx context.Context, url string) (*Blob, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build get request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "download"); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Blob{Data: data, ContentType: resp.Header.Get("Content-Type")}, nil
}

func checkStatus(resp *http.Response, op string) error {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s failed: %w", op, ErrNotFound)
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%s failed: %s; body: %s: %w", op, resp.Status, strings.TrimSpace(string(b)), ErrStatus)
}

// JoinURL appends an object key to a base URL with exactly one slash
// between them.
func JoinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
