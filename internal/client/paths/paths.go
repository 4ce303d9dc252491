// Package paths derives object-store keys for every artifact of every entity.
//
// Key layout is a stable contract with the backend: artifacts uploaded under
// one layout are only discoverable through the same layout. All functions are
// pure and never fail for a well-formed descriptor; a missing extension falls
// back to DefaultExtension so callers can always build a URL, even from a
// partially populated entity record.
//
// Layout
//
//	items/{id}/image.{ext}                       top-level item
//	items/{parentId}/children/{id}/image.{ext}   child item
//	items/.../{depth.png,camera.json}
//	items/.../features/{scores.npy,image_tensor.npy,keypoints.npy,descriptors.npy,features.png}
//	bundles/{id}/features/pydir_index_mapping.json
//	bundles/{id}/features/nearest/{itemId}/search_results.json
//	bundles/{id}/3d/{data.db,points3D.bin,...,textured_mesh.conf,<textures>}
//	clips/{id}.{ext}
//	matches/{id}/{matches0.npy,matches1.npy,matches.png,valid_matches.json,pose.json}
package paths

import (
	"errors"
	"path"
	"strings"

	"github.com/dmitrijs2005/reconkeeper/internal/client/models"
)

// DefaultExtension is used whenever an entity carries no extension.
const DefaultExtension = "jpg"

var ErrUnknownKind = errors.New("unknown entity kind")

const (
	itemsRoot   = "items"
	bundlesRoot = "bundles"
	clipsRoot   = "clips"
	matchesRoot = "matches"
)

// Extension normalizes e: leading dots are dropped and an empty value
// becomes DefaultExtension.
func Extension(e string) string {
	e = strings.TrimLeft(strings.TrimSpace(e), ".")
	if e == "" {
		return DefaultExtension
	}
	return e
}

func join(parts ...string) string {
	return strings.Join(parts, "/")
}

// Relative strips dir and the following slash from key. Keys outside dir are
// returned unchanged.
func Relative(dir, key string) string {
	if rest, ok := strings.CutPrefix(key, dir+"/"); ok {
		return rest
	}
	return key
}

// CleanRelative reports whether p is a clean slash-separated relative path
// that stays below its root. Keys and archive paths built from ids or
// texture names holding "..", a leading slash or a backslash fail it.
func CleanRelative(p string) bool {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, `\`) {
		return false
	}
	if path.Clean(p) != p {
		return false
	}
	return p != "." && p != ".." && !strings.HasPrefix(p, "../")
}

// Descriptor is the kind-independent input of Resolve. Fields that do not
// apply to a kind are ignored.
type Descriptor struct {
	ID        string
	ParentID  string
	Extension string
	// ItemIDs lists a bundle's parent items; each yields a nearest-neighbour key.
	ItemIDs []string
	// Textures lists a bundle's registered texture filenames.
	Textures []string
}

// Resolve returns every key of the described entity in a stable order.
func Resolve(kind models.EntityKind, d Descriptor) ([]string, error) {
	switch kind {
	case models.EntityItem:
		return ItemKeys(models.Item{ID: d.ID, ParentID: d.ParentID, Extension: d.Extension}).All(), nil
	case models.EntityBundle:
		return BundleKeys(models.Bundle{ID: d.ID, ItemIDs: d.ItemIDs, Textures: d.Textures}).All(), nil
	case models.EntityClip:
		return []string{ClipKey(models.Clip{ID: d.ID, Extension: d.Extension})}, nil
	case models.EntityMatch:
		return MatchKeys(models.Match{ID: d.ID}).All(), nil
	default:
		return nil, ErrUnknownKind
	}
}

// UploadKey returns the key a freshly uploaded file of the given kind lands
// under. Only items and clips are uploaded from local media.
func UploadKey(kind models.EntityKind, id, parentID, ext string) (string, error) {
	switch kind {
	case models.EntityItem:
		return ItemKeys(models.Item{ID: id, ParentID: parentID, Extension: ext}).Image, nil
	case models.EntityClip:
		return ClipKey(models.Clip{ID: id, Extension: ext}), nil
	default:
		return "", ErrUnknownKind
	}
}

// ClipKey returns the single key of a clip.
func ClipKey(c models.Clip) string {
	return clipsRoot + "/" + c.ID + "." + Extension(c.Extension)
}
