package client

import "errors"

var (
	ErrUnavailable  = errors.New("control plane unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	// ErrRejected covers validation and quota refusals (4xx other than
	// 401/403/404).
	ErrRejected = errors.New("request rejected")
	// ErrMalformedResponse is returned for payloads that do not match the
	// documented envelope.
	ErrMalformedResponse = errors.New("malformed response")
)
