package client

import (
	"context"

	"github.com/dmitrijs2005/reconkeeper/internal/client/models"
)

// Client is the control-plane contract the upload and archive paths depend on.
type Client interface {
	// CreateIntent requests an upload grant for one file (POST /{entity}/{id}).
	CreateIntent(ctx context.Context, kind models.EntityKind, id string, req IntentRequest) (*IntentGrant, error)
	// Confirm reports a finished transfer (POST /{entity}/{id}/confirm).
	Confirm(ctx context.Context, kind models.EntityKind, id string, req ConfirmRequest) error

	// ListItems returns one page of items (GET /items).
	ListItems(ctx context.Context, q ItemQuery) (*Page[models.Item], error)
	GetItem(ctx context.Context, id string) (*models.Item, error)
	GetBundle(ctx context.Context, id string) (*models.Bundle, error)
	// BundleMatches returns the matches computed for a bundle
	// (GET /matches/bundle/{id}).
	BundleMatches(ctx context.Context, bundleID string) ([]models.Match, error)
}
