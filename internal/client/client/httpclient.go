package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/reconkeeper/internal/client/models"
	"github.com/dmitrijs2005/reconkeeper/internal/common"
)

// HTTPClient talks to the control plane over REST/JSON.
type HTTPClient struct {
	endpoint string
	http     *http.Client
	timeout  time.Duration
}

// NewHTTPClient builds a client for the control plane at endpointURL.
// A nil httpClient means http.DefaultClient; a non-positive timeout means
// common.RequestTimeout.
func NewHTTPClient(endpointURL string, httpClient *http.Client, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(endpointURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api endpoint %q", endpointURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = common.RequestTimeout
	}
	return &HTTPClient{
		endpoint: strings.TrimRight(endpointURL, "/"),
		http:     httpClient,
		timeout:  timeout,
	}, nil
}

var _ Client = (*HTTPClient)(nil)

func (c *HTTPClient) CreateIntent(ctx context.Context, kind models.EntityKind, id string, req IntentRequest) (*IntentGrant, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}

	data, err := c.do(ctx, http.MethodPost, "/"+kind.Collection()+"/"+url.PathEscape(id), nil, req)
	if err != nil {
		return nil, err
	}

	var resp intentResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return resp.grant()
}

func (c *HTTPClient) Confirm(ctx context.Context, kind models.EntityKind, id string, req ConfirmRequest) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown entity kind %q", kind)
	}
	_, err := c.do(ctx, http.MethodPost, "/"+kind.Collection()+"/"+url.PathEscape(id)+"/confirm", nil, req)
	return err
}

func (c *HTTPClient) ListItems(ctx context.Context, q ItemQuery) (*Page[models.Item], error) {
	v := url.Values{}
	if q.ParentID != "" {
		v.Set("filter[parentId]", q.ParentID)
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	if q.SortOrder != "" {
		v.Set("sortOrder", q.SortOrder)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}

	data, err := c.do(ctx, http.MethodGet, "/items", v, nil)
	if err != nil {
		return nil, err
	}
	return decodePage[models.Item](data)
}

func (c *HTTPClient) GetItem(ctx context.Context, id string) (*models.Item, error) {
	return getObject(ctx, c, "/items/"+url.PathEscape(id), func(it *models.Item) string { return it.ID })
}

func (c *HTTPClient) GetBundle(ctx context.Context, id string) (*models.Bundle, error) {
	return getObject(ctx, c, "/bundles/"+url.PathEscape(id), func(b *models.Bundle) string { return b.ID })
}

func (c *HTTPClient) BundleMatches(ctx context.Context, bundleID string) ([]models.Match, error) {
	data, err := c.do(ctx, http.MethodGet, "/matches/bundle/"+url.PathEscape(bundleID), nil, nil)
	if err != nil {
		return nil, err
	}
	p, err := decodePage[models.Match](data)
	if err != nil {
		return nil, err
	}
	return p.Items, nil
}

// getObject fetches a bare JSON object and rejects it when id reports no _id.
func getObject[T any](ctx context.Context, c *HTTPClient, path string, id func(*T) string) (*T, error) {
	data, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if id(&v) == "" {
		return nil, fmt.Errorf("%w: object has no _id", ErrMalformedResponse)
	}
	return &v, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.endpoint + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", common.ContentTypeJSON)
	if body != nil {
		req.Header.Set("Content-Type", common.ContentTypeJSON)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	if err := mapStatus(resp.StatusCode, data); err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return data, nil
}

func mapStatus(code int, body []byte) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrUnauthorized
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 400 && code < 500:
		return fmt.Errorf("%w: %s", ErrRejected, serverMessage(code, body))
	default:
		return fmt.Errorf("%w: %s", ErrUnavailable, serverMessage(code, body))
	}
}

func serverMessage(code int, body []byte) string {
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		if eb.Message != "" {
			return eb.Message
		}
		if eb.Error != "" {
			return eb.Error
		}
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		if len(msg) > 512 {
			msg = msg[:512]
		}
		return msg
	}
	return http.StatusText(code)
}
