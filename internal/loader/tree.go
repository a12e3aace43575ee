package loader

import (
	"path"
	"sort"
	"strings"

	"github.com/stellarlink/repochat/internal/repo"
)

// TreeNode is one node of the nested repository tree.
type TreeNode struct {
	Path     string
	Name     string
	Dir      bool
	Children []*TreeNode
}

// BuildTree assembles the nested tree from the flat recursive listing.
// Entries are sorted lexicographically by path first, which guarantees a
// parent directory is visited before anything beneath it; an entry whose
// parent was never listed attaches at the root.
func BuildTree(entries []repo.TreeEntry) []*TreeNode {
	sorted := make([]repo.TreeEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	nodes := make(map[string]*TreeNode)
	var roots []*TreeNode

	for _, e := range sorted {
		if e.Path == "" {
			continue
		}

		node := &TreeNode{
			Path: e.Path,
			Name: path.Base(e.Path),
			Dir:  e.Type == "tree",
		}
		nodes[e.Path] = node

		parent := path.Dir(e.Path)
		if pn, ok := nodes[parent]; ok && parent != "." {
			pn.Children = append(pn.Children, node)
		} else {
			roots = append(roots, node)
		}
	}

	return roots
}

// RenderTree formats the nested tree as an indented listing, directories
// suffixed with a slash.
func RenderTree(roots []*TreeNode) string {
	var b strings.Builder
	for _, n := range roots {
		renderNode(&b, n, 0)
	}
	return b.String()
}

func renderNode(b *strings.Builder, n *TreeNode, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.Name)
	if n.Dir {
		b.WriteString("/")
	}
	b.WriteString("\n")

	for _, c := range n.Children {
		renderNode(b, c, depth+1)
	}
}
