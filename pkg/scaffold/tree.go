package scaffold

import (
	"os"
	"path"
	"path/filepath"
)

// hiddenInTree is the artifact list plus framework caches.
var hiddenInTree = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"build":        true,
	".next":        true,
}

// Node types in a Tree.
const (
	NodeFile      = "file"
	NodeDirectory = "directory"
)

// Node is one entry of a generated project's file tree.
type Node struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Path     string `json:"path"`
	Size     int64  `json:"size,omitempty"`
	Children []Node `json:"children,omitempty"`
}

// Tree lists root recursively, directories before their contents, entries
// sorted by name. Paths are slash-separated and relative to root.
func Tree(root string) ([]Node, error) {
	return readTree(root, "")
}

func readTree(dir, rel string) ([]Node, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	nodes := make([]Node, 0, len(entries))
	for _, entry := range entries {
		if hiddenInTree[entry.Name()] {
			continue
		}

		itemPath := path.Join(rel, entry.Name())
		full := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			children, err := readTree(full, itemPath)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, Node{
				Name:     entry.Name(),
				Type:     NodeDirectory,
				Path:     itemPath,
				Children: children,
			})
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, Node{
			Name: entry.Name(),
			Type: NodeFile,
			Path: itemPath,
			Size: info.Size(),
		})
	}

	return nodes, nil
}
