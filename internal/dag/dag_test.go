package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chain builds mesh -> dt -> stf -> domain with an extra mesh -> domain edge.
func chain(t *testing.T) *Graph {
	t.Helper()
	g := New()
	for _, id := range []string{"mesh", "dt", "stf", "domain"} {
		g.AddNode(id)
	}
	require.NoError(t, g.AddEdge("mesh", "dt"))
	require.NoError(t, g.AddEdge("dt", "stf"))
	require.NoError(t, g.AddEdge("stf", "domain"))
	require.NoError(t, g.AddEdge("mesh", "domain"))
	return g
}

func TestAddNode(t *testing.T) {
	g := New()
	assert.Empty(t, g.Nodes())

	g.AddNode("exodus")
	g.AddNode("exodus")
	g.AddNode("source")
	assert.Equal(t, []string{"exodus", "source"}, g.Nodes())
}

func TestAddEdge(t *testing.T) {
	g := New()
	g.AddNode("mesh")
	g.AddNode("dt")

	require.NoError(t, g.AddEdge("mesh", "dt"))
	deps, err := g.Dependencies("dt")
	require.NoError(t, err)
	assert.Equal(t, []string{"mesh"}, deps)
	dependents, err := g.Dependents("mesh")
	require.NoError(t, err)
	assert.Equal(t, []string{"dt"}, dependents)

	assert.ErrorContains(t, g.AddEdge("nope", "dt"), "source node not found")
	assert.ErrorContains(t, g.AddEdge("mesh", "nope"), "destination node not found")
	assert.ErrorContains(t, g.AddEdge("mesh", "mesh"), "self-referential edge")

	_, err = g.Dependencies("nope")
	assert.Error(t, err)
}

func TestDetectCycles(t *testing.T) {
	t.Run("empty graph", func(t *testing.T) {
		assert.NoError(t, New().DetectCycles())
	})

	t.Run("acyclic with transitive edge", func(t *testing.T) {
		assert.NoError(t, chain(t).DetectCycles())
	})

	t.Run("back edge", func(t *testing.T) {
		g := chain(t)
		require.NoError(t, g.AddEdge("domain", "dt"))
		assert.ErrorContains(t, g.DetectCycles(), "cycle detected")
	})

	t.Run("cycle in a disjoint component", func(t *testing.T) {
		g := chain(t)
		g.AddNode("x")
		g.AddNode("y")
		require.NoError(t, g.AddEdge("x", "y"))
		require.NoError(t, g.AddEdge("y", "x"))
		assert.ErrorContains(t, g.DetectCycles(), "cycle detected")
	})
}

func TestCheckOrder(t *testing.T) {
	g := chain(t)

	assert.NoError(t, g.CheckOrder([]string{"mesh", "dt", "stf", "domain"}))
	assert.ErrorContains(t, g.CheckOrder([]string{"dt", "mesh", "stf", "domain"}), "before its dependency 'mesh'")
	assert.ErrorContains(t, g.CheckOrder([]string{"mesh", "dt", "stf"}), "order has 3 nodes")
	assert.ErrorContains(t, g.CheckOrder([]string{"mesh", "mesh", "stf", "domain"}), "listed twice")
	assert.ErrorContains(t, g.CheckOrder([]string{"mesh", "dt", "stf", "receivers"}), "node not found")
}

func TestTopologicalSort(t *testing.T) {
	g := New()
	for _, id := range []string{"domain", "stf", "mesh", "dt"} {
		g.AddNode(id)
	}
	require.NoError(t, g.AddEdge("mesh", "dt"))
	require.NoError(t, g.AddEdge("dt", "stf"))
	require.NoError(t, g.AddEdge("stf", "domain"))

	order, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"mesh", "dt", "stf", "domain"}, order)
	assert.NoError(t, g.CheckOrder(order))

	independent := New()
	independent.AddNode("b")
	independent.AddNode("a")
	order, err = independent.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, order, "insertion order breaks ties")

	require.NoError(t, g.AddEdge("domain", "mesh"))
	_, err = g.TopologicalSort()
	assert.ErrorContains(t, err, "cycle detected")
}
