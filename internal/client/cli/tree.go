package cli

import (
	"path"

	"github.com/disiqueira/gotree/v3"
)

// manifestTree renders archive paths as a directory tree.
type manifestTree struct {
	tree gotree.Tree
	dirs map[string]gotree.Tree
}

func newManifestTree(rootLabel string) manifestTree {
	return manifestTree{tree: gotree.New(rootLabel), dirs: make(map[string]gotree.Tree)}
}

func (t manifestTree) dir(dirPath string) gotree.Tree {
	if dirPath == "." || dirPath == "" {
		return t.tree
	}
	d := t.dirs[dirPath]
	if d == nil {
		d = t.dir(path.Dir(dirPath)).Add(path.Base(dirPath) + "/")
		t.dirs[dirPath] = d
	}
	return d
}

// Insert adds archivePath as a leaf under its directories.
func (t manifestTree) Insert(archivePath string) {
	t.dir(path.Dir(archivePath)).Add(path.Base(archivePath))
}

func (t manifestTree) Render() string {
	return t.tree.Print()
}
