package category

import (
	"errors"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestTree_Add(t *testing.T) {
	t.Run("creates every prefix", func(t *testing.T) {
		tree := NewTree()

		results, err := tree.Add("A:B:C")
		assert.NoError(t, err)
		assert.Equal(t, []AddResult{
			{Path: "A", Existed: false},
			{Path: "A:B", Existed: false},
			{Path: "A:B:C", Existed: false},
		}, results)

		assert.Equal(t, 3, tree.Len())

		a, _ := tree.Get("A")
		ab, _ := tree.Get("A:B")
		abc, _ := tree.Get("A:B:C")
		assert.True(t, a.IsRoot())
		assert.Equal(t, "A", ab.Parent)
		assert.Equal(t, "A:B", abc.Parent)
	})

	t.Run("second add reports existing segments", func(t *testing.T) {
		tree := NewTree()
		_, err := tree.Add("A:B:C")
		assert.NoError(t, err)

		results, err := tree.Add("A:B:C")
		assert.NoError(t, err)
		assert.Equal(t, 3, len(results))
		for _, r := range results {
			assert.True(t, r.Existed, r.Path)
		}
		assert.Equal(t, 3, tree.Len())
	})

	t.Run("reuses existing ancestors", func(t *testing.T) {
		tree := NewTree()
		_, err := tree.Add("Home")
		assert.NoError(t, err)

		results, err := tree.Add("Home:Power")
		assert.NoError(t, err)
		assert.Equal(t, []AddResult{
			{Path: "Home", Existed: true},
			{Path: "Home:Power", Existed: false},
		}, results)
	})

	t.Run("trims segments", func(t *testing.T) {
		tree := NewTree()
		results, err := tree.Add(" Home : Power ")
		assert.NoError(t, err)
		assert.Equal(t, "Home:Power", results[len(results)-1].Path)
		assert.True(t, tree.Has("Home:Power"))
	})

	t.Run("rejects empty segments", func(t *testing.T) {
		tree := NewTree()
		for _, path := range []string{"", "A::B", "A:", ":A", "A: :B"} {
			_, err := tree.Add(path)
			var pe *InvalidPathError
			assert.True(t, errors.As(err, &pe), path)
		}
		assert.Equal(t, 0, tree.Len())
	})
}

func TestTree_Plan(t *testing.T) {
	tree := NewTree()
	_, err := tree.Add("A")
	assert.NoError(t, err)

	plan, err := tree.Plan("A:B")
	assert.NoError(t, err)
	assert.Equal(t, []AddResult{{Path: "A", Existed: true}, {Path: "A:B", Existed: false}}, plan)
	assert.False(t, tree.Has("A:B"), "plan must not mutate")
}

func TestTree_Listing(t *testing.T) {
	tree := NewTree()
	for _, p := range []string{"Home:Utilities:Power", "Food", "Home:Rent", "Home:Utilities:Water", "Auto"} {
		_, err := tree.Add(p)
		assert.NoError(t, err)
	}

	got := tree.Listing()
	want := []Node{
		{Path: "Auto", Name: "Auto", Depth: 0},
		{Path: "Food", Name: "Food", Depth: 0},
		{Path: "Home", Name: "Home", Depth: 0},
		{Path: "Home:Rent", Name: "Rent", Depth: 1},
		{Path: "Home:Utilities", Name: "Utilities", Depth: 1},
		{Path: "Home:Utilities:Power", Name: "Power", Depth: 2},
		{Path: "Home:Utilities:Water", Name: "Water", Depth: 2},
	}
	assert.Equal(t, want, got)

	// Deterministic across calls.
	assert.Equal(t, want, tree.Listing())
}

func TestTree_ListingOrphan(t *testing.T) {
	tree := NewTree()
	tree.Insert(Category{Path: "Lost:Child", Parent: "Lost"})
	tree.Insert(Category{Path: "Base"})

	got := tree.Listing()
	assert.Equal(t, []Node{
		{Path: "Base", Name: "Base", Depth: 0},
		{Path: "Lost:Child", Name: "Child", Depth: 0},
	}, got)
}

func TestTree_ListingDeep(t *testing.T) {
	tree := NewTree()
	segments := make([]string, 500)
	for i := range segments {
		segments[i] = "n"
	}
	_, err := tree.Add(strings.Join(segments, Separator))
	assert.NoError(t, err)

	nodes := tree.Listing()
	assert.Equal(t, 500, len(nodes))
	assert.Equal(t, 499, nodes[len(nodes)-1].Depth)
}

func TestNormalize(t *testing.T) {
	got, err := Normalize(" A :B")
	assert.NoError(t, err)
	assert.Equal(t, "A:B", got)

	_, err = Normalize("A::B")
	assert.Error(t, err)
}
