package objectstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/reconkeeper/internal/netx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStore_Get(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/reconstruction/bundles/b1/3d/mesh.ply":
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write([]byte("ply"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	s := NewHTTPStore(ts.URL+"/reconstruction/", netx.NewTransport(ts.Client(), time.Second))

	blob, err := s.Get(context.Background(), "bundles/b1/3d/mesh.ply")
	require.NoError(t, err)
	assert.Equal(t, "ply", string(blob.Data))

	_, err = s.Get(context.Background(), "bundles/b1/3d/textured_mesh.obj")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPStore_URL(t *testing.T) {
	s := NewHTTPStore("http://minio:9000/bucket", nil)
	assert.Equal(t, "http://minio:9000/bucket/items/a/image.jpg", s.URL("items/a/image.jpg"))
}
