// Package common holds protocol constants shared by the upload and archive
// paths of reconkeeper.
package common

import "time"

const MiB = 1 << 20

const (
	// MultipartThreshold is the largest file size sent as a single PUT.
	MultipartThreshold int64 = 5 * MiB

	// MinPartSize is the smallest size of any multipart part but the last.
	MinPartSize int64 = 5 * MiB

	// MaxParts is the object-store ceiling on parts per multipart upload.
	MaxParts = 10000

	// RequestTimeout is the default ceiling for a single HTTP request.
	RequestTimeout = 10 * time.Minute
)

// ContentTypeJSON is sent on every control-plane request with a body.
const ContentTypeJSON = "application/json"
