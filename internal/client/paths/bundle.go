package paths

import "github.com/dmitrijs2005/reconkeeper/internal/client/models"

// BundlePaths are the keys of one bundle.
type BundlePaths struct {
	Dir          string
	FeaturesDir  string
	IndexMapping string
	ThreeDDir    string

	Database         string
	Points3D         string
	Images           string
	Cameras          string
	CamerasJSON      string
	VanishingPoints  string
	Mesh             string
	PointCloud       string
	TexturedMesh     string
	TexturedMeshMTL  string
	TexturedMeshConf string
	// Textures holds one key per registered texture filename.
	Textures []string

	itemIDs []string
}

// Nearest returns the nearest-neighbour search results key of itemID.
func (p BundlePaths) Nearest(itemID string) string {
	return join(p.FeaturesDir, "nearest", itemID, "search_results.json")
}

// ThreeD returns the reconstruction and mesh keys, textures last.
func (p BundlePaths) ThreeD() []string {
	keys := []string{
		p.Database,
		p.Points3D,
		p.Images,
		p.Cameras,
		p.CamerasJSON,
		p.VanishingPoints,
		p.Mesh,
		p.PointCloud,
		p.TexturedMesh,
		p.TexturedMeshMTL,
		p.TexturedMeshConf,
	}
	return append(keys, p.Textures...)
}

// All returns the feature index, one nearest-neighbour key per item, then
// the 3d keys.
func (p BundlePaths) All() []string {
	keys := make([]string, 0, 1+len(p.itemIDs)+11+len(p.Textures))
	keys = append(keys, p.IndexMapping)
	for _, id := range p.itemIDs {
		keys = append(keys, p.Nearest(id))
	}
	return append(keys, p.ThreeD()...)
}

// BundleKeys resolves every key of b.
func BundleKeys(b models.Bundle) BundlePaths {
	dir := join(bundlesRoot, b.ID)
	features := join(dir, "features")
	threeD := join(dir, "3d")

	textures := make([]string, 0, len(b.Textures))
	for _, name := range b.Textures {
		if name == "" {
			continue
		}
		textures = append(textures, join(threeD, name))
	}

	return BundlePaths{
		Dir:              dir,
		FeaturesDir:      features,
		IndexMapping:     join(features, "pydir_index_mapping.json"),
		ThreeDDir:        threeD,
		Database:         join(threeD, "data.db"),
		Points3D:         join(threeD, "points3D.bin"),
		Images:           join(threeD, "images.bin"),
		Cameras:          join(threeD, "cameras.bin"),
		CamerasJSON:      join(threeD, "cameras.json"),
		VanishingPoints:  join(threeD, "vps.json"),
		Mesh:             join(threeD, "mesh.ply"),
		PointCloud:       join(threeD, "pointcloud.ply"),
		TexturedMesh:     join(threeD, "textured_mesh.obj"),
		TexturedMeshMTL:  join(threeD, "textured_mesh.mtl"),
		TexturedMeshConf: join(threeD, "textured_mesh.conf"),
		Textures:         textures,
		itemIDs:          append([]string(nil), b.ItemIDs...),
	}
}
