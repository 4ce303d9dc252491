package paths

import "github.com/dmitrijs2005/reconkeeper/internal/client/models"

// FeaturePaths are the keys produced by feature extraction for one item.
type FeaturePaths struct {
	Dir         string
	Scores      string
	ImageTensor string
	Keypoints   string
	Descriptors string
	Preview     string
}

// All returns the feature keys in a stable order.
func (f FeaturePaths) All() []string {
	return []string{f.Scores, f.ImageTensor, f.Keypoints, f.Descriptors, f.Preview}
}

// ItemPaths are the keys of one item.
type ItemPaths struct {
	Dir      string
	Image    string
	Depth    string
	Camera   string
	Features FeaturePaths
}

// All returns every key of the item: image, depth, camera, then features.
func (p ItemPaths) All() []string {
	return append([]string{p.Image, p.Depth, p.Camera}, p.Features.All()...)
}

// ItemDir returns the base directory of an item. Two items with the same id
// but different parent linkage never share a directory.
func ItemDir(id, parentID string) string {
	if parentID == "" {
		return join(itemsRoot, id)
	}
	return join(itemsRoot, parentID, "children", id)
}

// ItemKeys resolves every key of it.
func ItemKeys(it models.Item) ItemPaths {
	dir := ItemDir(it.ID, it.ParentID)
	features := join(dir, "features")
	return ItemPaths{
		Dir:    dir,
		Image:  join(dir, "image."+Extension(it.Extension)),
		Depth:  join(dir, "depth.png"),
		Camera: join(dir, "camera.json"),
		Features: FeaturePaths{
			Dir:         features,
			Scores:      join(features, "scores.npy"),
			ImageTensor: join(features, "image_tensor.npy"),
			Keypoints:   join(features, "keypoints.npy"),
			Descriptors: join(features, "descriptors.npy"),
			Preview:     join(features, "features.png"),
		},
	}
}
