package client

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/reconkeeper/internal/client/models"
)

// IntentRequest is the body of POST /{entity}/{id}.
type IntentRequest struct {
	Extension string `json:"extension"`
	// ParentID links a child item to its parent; empty for top-level items
	// and clips.
	ParentID string `json:"parentId,omitempty"`
	// Parts is the requested part count; omitted for single-shot uploads.
	Parts int `json:"parts,omitempty"`
	// ExpiresIn is the requested URL lifetime in seconds.
	ExpiresIn int `json:"expiresIn,omitempty"`
}

// IntentGrant is the validated answer to an intent request: either one URL,
// or an ordered list of part URLs with the multipart session id.
type IntentGrant struct {
	URL      string
	URLs     []string
	UploadID string
	// ContentType is the type the URLs were signed for; empty means the
	// store accepts application/octet-stream.
	ContentType string
}

// Multipart reports whether the grant opened a multipart session.
func (g *IntentGrant) Multipart() bool {
	return g.UploadID != ""
}

// PartURLs returns the URLs in part order; a single grant yields one URL.
func (g *IntentGrant) PartURLs() []string {
	if g.Multipart() {
		return g.URLs
	}
	return []string{g.URL}
}

type intentResponse struct {
	URL      string   `json:"url"`
	URLs     []string `json:"urls"`
	UploadID string   `json:"uploadId"`

	ContentType string `json:"contentType"`
}

func (r intentResponse) grant() (*IntentGrant, error) {
	single := r.URL != ""
	multi := len(r.URLs) > 0 || r.UploadID != ""

	switch {
	case single && !multi:
		return &IntentGrant{URL: r.URL, ContentType: r.ContentType}, nil
	case multi && !single:
		if len(r.URLs) == 0 || r.UploadID == "" {
			return nil, fmt.Errorf("%w: multipart grant needs both urls and uploadId", ErrMalformedResponse)
		}
		for i, u := range r.URLs {
			if u == "" {
				return nil, fmt.Errorf("%w: empty url for part %d", ErrMalformedResponse, i+1)
			}
		}
		return &IntentGrant{URLs: r.URLs, UploadID: r.UploadID, ContentType: r.ContentType}, nil
	case single && multi:
		return nil, fmt.Errorf("%w: grant mixes url with urls/uploadId", ErrMalformedResponse)
	default:
		return nil, fmt.Errorf("%w: grant carries no url", ErrMalformedResponse)
	}
}

// ConfirmRequest is the body of POST /{entity}/{id}/confirm. Both fields are
// omitted for single-shot uploads.
type ConfirmRequest struct {
	UploadID string                 `json:"uploadId,omitempty"`
	Parts    []models.CompletedPart `json:"parts,omitempty"`
}

// Page is the single envelope used by every collection endpoint:
//
//	{"items": [...], "page": 1, "limit": 1000, "total": 3}
//
// A payload without the items field is rejected.
type Page[T any] struct {
	Items []T `json:"items"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

func decodePage[T any](data []byte) (*Page[T], error) {
	var probe struct {
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(probe.Items) == 0 || string(probe.Items) == "null" {
		return nil, fmt.Errorf("%w: missing items", ErrMalformedResponse)
	}

	var p Page[T]
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &p, nil
}

// ItemQuery selects items for GET /items.
type ItemQuery struct {
	ParentID  string
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
