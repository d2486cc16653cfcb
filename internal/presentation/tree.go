package presentation

import (
	"path"
	"strings"

	"github.com/disiqueira/gotree/v3"
)

// EmptyFolderTree renders logical folder paths as a tree. Paths sharing a
// first segment hang off the same top-level node.
func EmptyFolderTree(folders []string) string {
	root := gotree.New("Empty folders")
	nodes := make(map[string]gotree.Tree)

	var node func(dir string) gotree.Tree
	node = func(dir string) gotree.Tree {
		if dir == "." || dir == "" || dir == "/" {
			return root
		}
		if existing, ok := nodes[dir]; ok {
			return existing
		}
		created := node(path.Dir(dir)).Add(path.Base(dir))
		nodes[dir] = created
		return created
	}

	for _, folder := range folders {
		folder = strings.Trim(folder, "/")
		if folder == "" {
			continue
		}
		node(folder)
	}
	return root.Print()
}
