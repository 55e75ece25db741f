// Package category maintains the hierarchical category set of a budget.
//
// Categories are identified by colon-delimited paths such as
// "Home:Utilities:Power". Adding a path implicitly creates every missing
// ancestor, so each category's parent is always itself a member of the tree.
package category

import (
	"fmt"
	"sort"
	"strings"
)

// Separator delimits path segments.
const Separator = ":"

// Category is a single member of the tree.
type Category struct {
	Path   string
	Parent string // empty for a root category
}

// IsRoot reports whether c has no parent.
func (c Category) IsRoot() bool {
	return c.Parent == ""
}

// AddResult reports the outcome of ensuring one path prefix exists.
type AddResult struct {
	Path    string
	Existed bool
}

// Node is one line of the ordered listing.
type Node struct {
	Path  string
	Name  string // last path segment
	Depth int
}

// InvalidPathError is returned for paths with empty segments.
type InvalidPathError struct {
	Path string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid category path %q: segments must not be empty", e.Path)
}

// Tree is the set of categories, keyed by path.
type Tree struct {
	categories map[string]Category
}

// NewTree creates an empty tree.
func NewTree() *Tree {
	return &Tree{categories: make(map[string]Category)}
}

// Split returns the trimmed segments of path, or an error if any is empty.
func Split(path string) ([]string, error) {
	parts := strings.Split(path, Separator)
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
		if parts[i] == "" {
			return nil, &InvalidPathError{Path: path}
		}
	}
	return parts, nil
}

// Normalize returns the canonical form of path (segments trimmed).
func Normalize(path string) (string, error) {
	parts, err := Split(path)
	if err != nil {
		return "", err
	}
	return strings.Join(parts, Separator), nil
}

// Plan reports, without mutating the tree, what Add would create.
func (t *Tree) Plan(path string) ([]AddResult, error) {
	parts, err := Split(path)
	if err != nil {
		return nil, err
	}

	results := make([]AddResult, 0, len(parts))
	full := ""
	for i, part := range parts {
		if i > 0 {
			full += Separator
		}
		full += part
		_, ok := t.categories[full]
		results = append(results, AddResult{Path: full, Existed: ok})
	}
	return results, nil
}

// Add ensures every prefix of path exists, creating missing ones with their
// parent set to the previous prefix. One result is returned per segment.
func (t *Tree) Add(path string) ([]AddResult, error) {
	results, err := t.Plan(path)
	if err != nil {
		return nil, err
	}

	parent := ""
	for _, r := range results {
		if !r.Existed {
			t.categories[r.Path] = Category{Path: r.Path, Parent: parent}
		}
		parent = r.Path
	}
	return results, nil
}

// Insert adds a category with an explicit parent. It is used when restoring
// persisted state; callers are responsible for checking referential integrity.
func (t *Tree) Insert(c Category) {
	t.categories[c.Path] = c
}

// Has reports whether path is a member of the tree.
func (t *Tree) Has(path string) bool {
	_, ok := t.categories[path]
	return ok
}

// Get returns the category at path.
func (t *Tree) Get(path string) (Category, bool) {
	c, ok := t.categories[path]
	return c, ok
}

// Len returns the number of categories.
func (t *Tree) Len() int {
	return len(t.categories)
}

// Paths returns all category paths sorted lexicographically.
func (t *Tree) Paths() []string {
	paths := make([]string, 0, len(t.categories))
	for p := range t.categories {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Categories returns all categories sorted by path.
func (t *Tree) Categories() []Category {
	out := make([]Category, 0, len(t.categories))
	for _, p := range t.Paths() {
		out = append(out, t.categories[p])
	}
	return out
}

// Listing returns the categories as a pre-order traversal of the forest built
// from parent links. Roots and siblings are sorted lexicographically. A
// category whose parent is missing from the tree is listed as a root.
func (t *Tree) Listing() []Node {
	children := make(map[string][]string, len(t.categories))
	var roots []string
	for path, c := range t.categories {
		if c.IsRoot() || !t.Has(c.Parent) {
			roots = append(roots, path)
			continue
		}
		children[c.Parent] = append(children[c.Parent], path)
	}

	type frame struct {
		path  string
		depth int
	}

	// Push in reverse order so the smallest path is popped first.
	push := func(stack []frame, paths []string, depth int) []frame {
		sort.Sort(sort.Reverse(sort.StringSlice(paths)))
		for _, p := range paths {
			stack = append(stack, frame{path: p, depth: depth})
		}
		return stack
	}

	nodes := make([]Node, 0, len(t.categories))
	stack := push(nil, roots, 0)
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		nodes = append(nodes, Node{Path: f.path, Name: lastSegment(f.path), Depth: f.depth})
		stack = push(stack, children[f.path], f.depth+1)
	}
	return nodes
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, Separator); i >= 0 {
		return path[i+1:]
	}
	return path
}
