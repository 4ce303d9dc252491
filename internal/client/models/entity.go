// Package models defines the entities, upload intents and archive jobs the
// reconkeeper client works with.
package models

// EntityKind classifies an entity tracked by the control plane.
type EntityKind string

const (
	EntityItem   EntityKind = "item"
	EntityBundle EntityKind = "bundle"
	EntityClip   EntityKind = "clip"
	EntityMatch  EntityKind = "match"
)

// Collection returns the REST collection name used in control-plane routes
// ("items", "bundles", ...).
func (k EntityKind) Collection() string {
	switch k {
	case EntityItem:
		return "items"
	case EntityBundle:
		return "bundles"
	case EntityClip:
		return "clips"
	case EntityMatch:
		return "matches"
	default:
		return ""
	}
}

// Valid reports whether k is one of the known entity kinds.
func (k EntityKind) Valid() bool {
	return k.Collection() != ""
}

// Status is a processing-stage flag as reported by the backend.
type Status string

const (
	StatusUnprocessed Status = "unprocessed"
	StatusProcessing  Status = "processing"
	StatusProcessed   Status = "processed"
	StatusFailed      Status = "failed"
)

// Done reports whether the stage finished successfully.
func (s Status) Done() bool {
	return s == StatusProcessed
}

// Item is a single image, either top-level or a child of another item
// (for example a frame extracted from a clip).
type Item struct {
	ID        string `json:"_id"`
	ParentID  string `json:"parentId,omitempty"`
	Extension string `json:"extension,omitempty"`
	Name      string `json:"name,omitempty"`

	TilingStatus  Status `json:"tilingStatus,omitempty"`
	FeatureStatus Status `json:"featureStatus,omitempty"`
	DepthStatus   Status `json:"depthStatus,omitempty"`
}

// IsParent reports whether the item sits at the top level and may own
// children.
func (i Item) IsParent() bool {
	return i.ParentID == ""
}

// Bundle groups parent items for a joint reconstruction.
type Bundle struct {
	ID      string   `json:"_id"`
	Name    string   `json:"name,omitempty"`
	ItemIDs []string `json:"itemIds"`

	FeatureStatus        Status `json:"featureStatus,omitempty"`
	ReconstructionStatus Status `json:"reconstructionStatus,omitempty"`
	MeshStatus           Status `json:"meshStatus,omitempty"`

	// Textures lists texture filenames registered once meshing completes.
	Textures []string `json:"textures,omitempty"`
}

// Clip is an uploaded video; processing yields derived items.
type Clip struct {
	ID        string `json:"_id"`
	Extension string `json:"extension,omitempty"`
	Name      string `json:"name,omitempty"`
	Status    Status `json:"status,omitempty"`
}

// Match pairs two items and owns correspondence and pose artifacts.
type Match struct {
	ID      string `json:"_id"`
	ItemID0 string `json:"itemId0"`
	ItemID1 string `json:"itemId1"`
	Status  Status `json:"status,omitempty"`
}
