package paths

import (
	"testing"

	"github.com/dmitrijs2005/reconkeeper/internal/client/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemKeys_ImageKey(t *testing.T) {
	tests := []struct {
		name string
		item models.Item
		want string
	}{
		{name: "top level", item: models.Item{ID: "abc", Extension: "png"}, want: "items/abc/image.png"},
		{name: "child", item: models.Item{ID: "abc", Extension: "png", ParentID: "parent1"}, want: "items/parent1/children/abc/image.png"},
		{name: "missing extension", item: models.Item{ID: "abc"}, want: "items/abc/image.jpg"},
		{name: "dotted extension", item: models.Item{ID: "abc", Extension: ".tif"}, want: "items/abc/image.tif"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ItemKeys(tt.item).Image)
		})
	}
}

func TestItemKeys_ParentLinkageChangesEveryKey(t *testing.T) {
	top := ItemKeys(models.Item{ID: "i1", Extension: "jpg"}).All()
	child := ItemKeys(models.Item{ID: "i1", Extension: "jpg", ParentID: "p"}).All()

	require.Len(t, child, len(top))
	for i := range top {
		assert.NotEqual(t, top[i], child[i])
	}
}

func TestItemKeys_FullLayout(t *testing.T) {
	got := ItemKeys(models.Item{ID: "abc", ParentID: "p1", Extension: "png"}).All()
	want := []string{
		"items/p1/children/abc/image.png",
		"items/p1/children/abc/depth.png",
		"items/p1/children/abc/camera.json",
		"items/p1/children/abc/features/scores.npy",
		"items/p1/children/abc/features/image_tensor.npy",
		"items/p1/children/abc/features/keypoints.npy",
		"items/p1/children/abc/features/descriptors.npy",
		"items/p1/children/abc/features/features.png",
	}
	assert.Empty(t, cmp.Diff(want, got))
}

func TestItemKeys_Deterministic(t *testing.T) {
	for _, it := range []models.Item{
		{ID: "a"},
		{ID: "a", ParentID: "b", Extension: "png"},
		{ID: "x-y_z", Extension: "heic"},
	} {
		assert.Equal(t, ItemKeys(it), ItemKeys(it))
	}
}

func TestBundleKeys_Layout(t *testing.T) {
	b := models.Bundle{ID: "b1", ItemIDs: []string{"i1", "i2"}, Textures: []string{"tex_0.png", "", "tex_1.png"}}
	p := BundleKeys(b)

	assert.Equal(t, "bundles/b1/features/pydir_index_mapping.json", p.IndexMapping)
	assert.Equal(t, "bundles/b1/features/nearest/i2/search_results.json", p.Nearest("i2"))

	wantThreeD := []string{
		"bundles/b1/3d/data.db",
		"bundles/b1/3d/points3D.bin",
		"bundles/b1/3d/images.bin",
		"bundles/b1/3d/cameras.bin",
		"bundles/b1/3d/cameras.json",
		"bundles/b1/3d/vps.json",
		"bundles/b1/3d/mesh.ply",
		"bundles/b1/3d/pointcloud.ply",
		"bundles/b1/3d/textured_mesh.obj",
		"bundles/b1/3d/textured_mesh.mtl",
		"bundles/b1/3d/textured_mesh.conf",
		"bundles/b1/3d/tex_0.png",
		"bundles/b1/3d/tex_1.png",
	}
	assert.Empty(t, cmp.Diff(wantThreeD, p.ThreeD()))

	all := p.All()
	require.Len(t, all, 1+2+len(wantThreeD))
	assert.Equal(t, "bundles/b1/features/nearest/i1/search_results.json", all[1])
}

func TestBundleKeys_DoesNotAliasInput(t *testing.T) {
	b := models.Bundle{ID: "b1", ItemIDs: []string{"i1"}}
	p := BundleKeys(b)
	b.ItemIDs[0] = "changed"

	assert.Contains(t, p.All(), "bundles/b1/features/nearest/i1/search_results.json")
}

func TestClipAndMatchKeys(t *testing.T) {
	assert.Equal(t, "clips/c1.mp4", ClipKey(models.Clip{ID: "c1", Extension: "mp4"}))
	assert.Equal(t, "clips/c1.jpg", ClipKey(models.Clip{ID: "c1"}))

	want := []string{
		"matches/m1/matches0.npy",
		"matches/m1/matches1.npy",
		"matches/m1/matches.png",
		"matches/m1/valid_matches.json",
		"matches/m1/pose.json",
	}
	assert.Empty(t, cmp.Diff(want, MatchKeys(models.Match{ID: "m1"}).All()))
}

func TestResolve_Dispatch(t *testing.T) {
	keys, err := Resolve(models.EntityItem, Descriptor{ID: "abc", ParentID: "parent1", Extension: "png"})
	require.NoError(t, err)
	assert.Equal(t, "items/parent1/children/abc/image.png", keys[0])

	keys, err = Resolve(models.EntityClip, Descriptor{ID: "c", Extension: "mov"})
	require.NoError(t, err)
	assert.Equal(t, []string{"clips/c.mov"}, keys)

	keys, err = Resolve(models.EntityBundle, Descriptor{ID: "b", ItemIDs: []string{"i"}})
	require.NoError(t, err)
	assert.Len(t, keys, 1+1+11)

	keys, err = Resolve(models.EntityMatch, Descriptor{ID: "m"})
	require.NoError(t, err)
	assert.Len(t, keys, 5)

	_, err = Resolve(models.EntityKind("tile"), Descriptor{ID: "x"})
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestUploadKey(t *testing.T) {
	k, err := UploadKey(models.EntityItem, "i", "p", "png")
	require.NoError(t, err)
	assert.Equal(t, "items/p/children/i/image.png", k)

	k, err = UploadKey(models.EntityClip, "c", "", "mp4")
	require.NoError(t, err)
	assert.Equal(t, "clips/c.mp4", k)

	_, err = UploadKey(models.EntityBundle, "b", "", "")
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestRelative(t *testing.T) {
	assert.Equal(t, "3d/mesh.ply", Relative("bundles/b1", "bundles/b1/3d/mesh.ply"))
	assert.Equal(t, "other/key", Relative("bundles/b1", "other/key"))
}

func TestCleanRelative(t *testing.T) {
	tests := []struct {
		p    string
		want bool
	}{
		{"3d/mesh.ply", true},
		{"images/c1.jpg", true},
		{"items/p1/children/c1/image.jpg", true},
		{"3d/tex..old.png", true},
		{"", false},
		{".", false},
		{"..", false},
		{"../x", false},
		{"3d/../../../evil.sh", false},
		{"images/../../x.jpg", false},
		{"/etc/passwd", false},
		{"images//c1.jpg", false},
		{"images/./c1.jpg", false},
		{`images\..\c1.jpg`, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanRelative(tt.p), "path %q", tt.p)
	}
}

func TestBundleKeys_HostileTextureFailsCleanRelative(t *testing.T) {
	keys := BundleKeys(models.Bundle{ID: "b1", Textures: []string{"../../../evil.sh"}})
	var bad []string
	for _, k := range keys.ThreeD() {
		if !CleanRelative(k) {
			bad = append(bad, k)
		}
	}
	assert.Equal(t, []string{"bundles/b1/3d/../../../evil.sh"}, bad)
}
