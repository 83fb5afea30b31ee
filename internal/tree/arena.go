package tree

import (
	"path/filepath"
	"slices"
	"strings"
)

const rootNodeIndex = 0

// TreeNode is one entry of an Arena. Children are indices into the arena keyed by entry name.
type TreeNode struct {
	Name        string
	Path        string
	IsDirectory bool
	children    map[string]int
}

// Arena rebuilds a hierarchy from flat walk results. Node 0 is the listed directory.
type Arena struct {
	nodes []TreeNode
}

// NewArena starts an arena rooted at rootPath.
func NewArena(rootPath string) *Arena {
	return &Arena{nodes: []TreeNode{{
		Name:        filepath.Base(rootPath),
		Path:        rootPath,
		IsDirectory: true,
		children:    map[string]int{},
	}}}
}

// Len returns the number of nodes including the root.
func (arena *Arena) Len() int {
	return len(arena.nodes)
}

// Node returns the node stored at index.
func (arena *Arena) Node(index int) TreeNode {
	return arena.nodes[index]
}

// ChildOrCreate returns the index of the child called name below parentIndex, creating it when missing.
// An existing node that was first created as an intermediate directory keeps its directory flag.
func (arena *Arena) ChildOrCreate(parentIndex int, name string, isDirectory bool) int {
	if childIndex, exists := arena.nodes[parentIndex].children[name]; exists {
		return childIndex
	}
	childIndex := len(arena.nodes)
	arena.nodes = append(arena.nodes, TreeNode{
		Name:        name,
		Path:        filepath.Join(arena.nodes[parentIndex].Path, name),
		IsDirectory: isDirectory,
		children:    map[string]int{},
	})
	arena.nodes[parentIndex].children[name] = childIndex
	return childIndex
}

// InsertPath inserts the entry named by segments, relative to the root, creating missing
// intermediate directories. It returns the index of the final node.
func (arena *Arena) InsertPath(segments []string, isDirectory bool) int {
	currentIndex := rootNodeIndex
	for segmentIndex, segment := range segments {
		isLeaf := segmentIndex == len(segments)-1
		currentIndex = arena.ChildOrCreate(currentIndex, segment, !isLeaf || isDirectory)
	}
	return currentIndex
}

// Render prints the arena depth first with children sorted by name and returns the text
// together with the file paths in printing order.
func (arena *Arena) Render() (string, []string) {
	var builder strings.Builder
	var files []string
	builder.WriteString(RootMarker + lineTerminator)
	arena.renderChildren(rootNodeIndex, "", &builder, &files)
	return builder.String(), files
}

func (arena *Arena) renderChildren(parentIndex int, prefix string, builder *strings.Builder, files *[]string) {
	children := arena.nodes[parentIndex].children
	childNames := make([]string, 0, len(children))
	for childName := range children {
		childNames = append(childNames, childName)
	}
	slices.Sort(childNames)

	for position, childName := range childNames {
		child := arena.nodes[children[childName]]
		isLast := position == len(childNames)-1
		builder.WriteString(entryLine(prefix, child.Name, child.IsDirectory, isLast))
		if !child.IsDirectory {
			*files = append(*files, child.Path)
			continue
		}
		arena.renderChildren(children[childName], childPrefix(prefix, isLast), builder, files)
	}
}
