package models

import (
	"fmt"
	"strings"
)

// ArtifactCategory partitions archive entries for the summary.
type ArtifactCategory string

const (
	CategoryFixed ArtifactCategory = "fixed"
	CategoryImage ArtifactCategory = "images"
	CategoryMatch ArtifactCategory = "matches"
)

// ManifestEntry is one (source key, destination path) pair of an archive.
type ManifestEntry struct {
	// Key is the object-store key the blob is fetched from.
	Key string
	// ArchivePath is the POSIX-style path inside the archive.
	ArchivePath string
	Category    ArtifactCategory
	// FallbackExt is the recorded extension used when the response carries no
	// usable content type. Only set for images.
	FallbackExt string
}

// Manifest is the ordered list of entries of one archive job.
type Manifest []ManifestEntry

// Paths returns the archive paths in manifest order.
func (m Manifest) Paths() []string {
	out := make([]string, len(m))
	for i, e := range m {
		out[i] = e.ArchivePath
	}
	return out
}

// CategoryTally counts settled fetches of one category.
type CategoryTally struct {
	OK     int
	Failed int
}

// ArchiveSummary reports the outcome of an archive job.
type ArchiveSummary struct {
	RootID      string
	ArchiveName string
	ArchivePath string
	Bytes       int64

	Tallies map[ArtifactCategory]*CategoryTally
	// DiscoveryFailures counts listing calls that failed and were treated as
	// zero children.
	DiscoveryFailures int
	// Missing lists archive paths that could not be fetched.
	Missing []string
}

// NewArchiveSummary returns a summary with empty tallies.
func NewArchiveSummary(rootID, name string) *ArchiveSummary {
	return &ArchiveSummary{
		RootID:      rootID,
		ArchiveName: name,
		Tallies:     map[ArtifactCategory]*CategoryTally{},
	}
}

// Tally returns the counters for c, creating them on first use.
func (s *ArchiveSummary) Tally(c ArtifactCategory) *CategoryTally {
	t, ok := s.Tallies[c]
	if !ok {
		t = &CategoryTally{}
		s.Tallies[c] = t
	}
	return t
}

// SuccessCount is the number of artifacts written to the archive.
func (s *ArchiveSummary) SuccessCount() int {
	n := 0
	for _, t := range s.Tallies {
		n += t.OK
	}
	return n
}

// FailCount is the number of artifacts that could not be fetched.
func (s *ArchiveSummary) FailCount() int {
	n := 0
	for _, t := range s.Tallies {
		n += t.Failed
	}
	return n
}

// String renders the operator-facing summary.
func (s *ArchiveSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d file(s) archived, %d failed", s.ArchiveName, s.SuccessCount(), s.FailCount())
	for _, c := range []ArtifactCategory{CategoryFixed, CategoryImage, CategoryMatch} {
		t, ok := s.Tallies[c]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\n  %-8s ok=%d failed=%d", c, t.OK, t.Failed)
	}
	if s.DiscoveryFailures > 0 {
		fmt.Fprintf(&b, "\n  child discovery failed for %d parent(s)", s.DiscoveryFailures)
	}
	if s.FailCount() > 0 {
		b.WriteString("\nMissing files may not exist yet if their processing stage has not finished.")
	}
	return b.String()
}
