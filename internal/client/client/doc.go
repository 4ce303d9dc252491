// Package client contains the control-plane side of reconkeeper.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface) covering
//     upload intents, confirms, item listing and bundle/item/match lookups.
//  2. A REST/JSON implementation (see HTTPClient) that validates every
//     response envelope and maps HTTP status codes to sentinel errors.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) for the
//     upload-session journal, wiring SQLite and embedded goose migrations.
//
// # Error Handling
//
// Common conditions are exposed as sentinel errors that callers can match with
// errors.Is: ErrUnavailable, ErrUnauthorized, ErrNotFound, ErrRejected and
// ErrMalformedResponse. Rejections carry the server's message text.
//
// # Envelopes
//
// Collections always arrive as {"items": [...], "page", "limit", "total"}.
// An intent grant is either {"url"} or {"urls", "uploadId"}; anything else is
// a malformed response.
package client
