// Package objectstore fetches blobs by key from the object store, either
// through a public base URL or directly over the S3 API.
package objectstore

import (
	"context"

	"github.com/dmitrijs2005/reconkeeper/internal/netx"
)

// ErrNotFound is returned when the key does not exist.
var ErrNotFound = netx.ErrNotFound

// Store resolves a key to its bytes and reported content type.
type Store interface {
	Get(ctx context.Context, key string) (*netx.Blob, error)
}

// HTTPStore fetches keys relative to a base URL.
type HTTPStore struct {
	base string
	tr   *netx.Transport
}

func NewHTTPStore(baseURL string, tr *netx.Transport) *HTTPStore {
	if tr == nil {
		tr = netx.NewTransport(nil, 0)
	}
	return &HTTPStore{base: baseURL, tr: tr}
}

// URL returns the address key is fetched from.
func (s *HTTPStore) URL(key string) string {
	return netx.JoinURL(s.base, key)
}

func (s *HTTPStore) Get(ctx context.Context, key string) (*netx.Blob, error) {
	return s.tr.Get(ctx, s.URL(key))
}
