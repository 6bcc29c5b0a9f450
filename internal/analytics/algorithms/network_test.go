package algorithms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

func TestCalculateNetworkMetrics(t *testing.T) {
	lib := NewDefault()

	t.Run("centrality, density and components", func(t *testing.T) {
		r := lib.CalculateNetworkMetrics(analytics.NetworkPayload{
			Nodes: []analytics.NetworkNode{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}, {ID: "e"}},
			Edges: []analytics.NetworkEdge{
				{Source: "a", Target: "b", Weight: 2},
				{Source: "a", Target: "c"},
				{Source: "b", Target: "a", Weight: 1},
				{Source: "d", Target: "e", Weight: 3},
				{Source: "a", Target: "ghost"},
			},
		})

		assert.Equal(t, 5, r.NodeCount)
		assert.Equal(t, 4, r.EdgeCount)
		assert.InDelta(t, 3.0/10.0, r.Density, 1e-12)
		require.Len(t, r.Components, 2)
		assert.Equal(t, []string{"a", "b", "c"}, r.Components[0])
		assert.Equal(t, []string{"d", "e"}, r.Components[1])

		byID := map[string]analytics.NodeMetrics{}
		for _, n := range r.Nodes {
			byID[n.ID] = n
		}
		a := byID["a"]
		assert.Equal(t, 3, a.Degree)
		assert.Equal(t, 2, a.Betweenness)
		assert.Equal(t, 4.0, a.WeightedDegree)
		assert.Equal(t, 2.5, a.Importance)
		assert.Equal(t, r.Nodes[0].ID, "a")
		assert.Equal(t, byID["d"].Component, byID["e"].Component)
		assert.NotEqual(t, byID["a"].Component, byID["d"].Component)
	})

	t.Run("parallel edges and self-loops keep density within one", func(t *testing.T) {
		r := lib.CalculateNetworkMetrics(analytics.NetworkPayload{
			Nodes: []analytics.NetworkNode{{ID: "a"}, {ID: "b"}},
			Edges: []analytics.NetworkEdge{
				{Source: "a", Target: "b"},
				{Source: "b", Target: "a"},
				{Source: "a", Target: "b"},
				{Source: "a", Target: "a"},
				{Source: "b", Target: "b"},
			},
		})

		assert.Equal(t, 5, r.EdgeCount)
		assert.Equal(t, 1.0, r.Density)
	})

	t.Run("self-loops alone have no density", func(t *testing.T) {
		r := lib.CalculateNetworkMetrics(analytics.NetworkPayload{
			Nodes: []analytics.NetworkNode{{ID: "a"}, {ID: "b"}, {ID: "c"}},
			Edges: []analytics.NetworkEdge{{Source: "a", Target: "a"}, {Source: "c", Target: "c"}},
		})

		assert.Equal(t, 2, r.EdgeCount)
		assert.Zero(t, r.Density)
		assert.Len(t, r.Components, 3)
	})

	t.Run("isolated nodes form their own component", func(t *testing.T) {
		r := lib.CalculateNetworkMetrics(analytics.NetworkPayload{
			Nodes: []analytics.NetworkNode{{ID: "solo"}},
		})
		assert.Equal(t, [][]string{{"solo"}}, r.Components)
		assert.Zero(t, r.Density)
	})

	t.Run("empty graph", func(t *testing.T) {
		r := lib.CalculateNetworkMetrics(analytics.NetworkPayload{})
		assert.Empty(t, r.Nodes)
		assert.Empty(t, r.Components)
	})
}
