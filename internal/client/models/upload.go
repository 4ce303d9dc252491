package models

import "time"

// UploadStatus is a state of the per-file upload state machine.
type UploadStatus string

const (
	StatePending    UploadStatus = "pending"
	StateIntent     UploadStatus = "intent"
	StateUploading  UploadStatus = "uploading"
	StateConfirming UploadStatus = "confirming"
	StateSuccess    UploadStatus = "success"
	StateError      UploadStatus = "error"
)

// Terminal reports whether no further transition is possible.
func (s UploadStatus) Terminal() bool {
	return s == StateSuccess || s == StateError
}

// next maps each non-terminal state to its successor on the happy path.
var next = map[UploadStatus]UploadStatus{
	StatePending:    StateIntent,
	StateIntent:     StateUploading,
	StateUploading:  StateConfirming,
	StateConfirming: StateSuccess,
}

// CanTransition reports whether from -> to is a legal transition: either the
// next state on the happy path, or error from any non-terminal state.
func CanTransition(from, to UploadStatus) bool {
	if from.Terminal() {
		return false
	}
	if to == StateError {
		return true
	}
	return next[from] == to
}

// UploadIntent is the client-held record of one file moving into the object
// store. It lives in memory only; the sessions journal keeps the subset
// needed to find orphaned multipart uploads.
type UploadIntent struct {
	FileID    string
	Kind      EntityKind
	ParentID  string
	Extension string
	LocalPath string
	SizeBytes int64

	// TotalParts is the requested part count; zero for single-shot uploads.
	TotalParts int
	// UploadID identifies a multipart session; empty for single-shot uploads.
	UploadID string
	// PartURLs holds the granted pre-signed URLs in part order. A single-shot
	// grant has exactly one URL.
	PartURLs []string

	Status UploadStatus
	// Err is the human-readable cause once Status is StateError.
	Err string
}

// Multipart reports whether the grant is a multipart session.
func (u *UploadIntent) Multipart() bool {
	return u.UploadID != ""
}

// CompletedPart is one (partNumber, ETag) pair sent on confirm.
type CompletedPart struct {
	PartNumber int    `json:"partNumber"`
	ETag       string `json:"eTag"`
}

// SessionStatus is the journal-level state of a multipart session.
type SessionStatus string

const (
	SessionOpen      SessionStatus = "open"
	SessionConfirmed SessionStatus = "confirmed"
	SessionFailed    SessionStatus = "failed"
	SessionAborted   SessionStatus = "aborted"
)

// UploadSession is a journal row describing a granted multipart upload.
type UploadSession struct {
	FileID     string
	Kind       EntityKind
	ObjectKey  string
	UploadID   string
	TotalParts int
	SizeBytes  int64
	LocalPath  string
	Status     SessionStatus
	LastError  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
