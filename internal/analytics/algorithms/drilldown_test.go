package algorithms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

func drilldownRecords() []analytics.Record {
	return []analytics.Record{
		{"shopping": "Park", "tenant": "Loja A", "billed": 100.0},
		{"shopping": "Park", "tenant": "Loja B", "billed": 250.0},
		{"shopping": "Park", "tenant": "Loja A", "billed": 50.0},
		{"shopping": "Centro", "tenant": "Loja A", "billed": 300.0},
		{"shopping": "Centro", "tenant": "Loja C", "billed": "25.5"},
		{"shopping": "Norte", "billed": 10.0},
	}
}

func TestProcessDrilldown(t *testing.T) {
	lib := NewDefault()

	t.Run("leaf values sum to the raw total and parents resolve", func(t *testing.T) {
		records := drilldownRecords()
		r := lib.ProcessDrilldown(analytics.DrilldownPayload{
			Records:   records,
			Hierarchy: []string{"shopping", "tenant"},
			ValueKey:  "billed",
		})

		require.Len(t, r.Levels, 2)
		raw := 0.0
		for _, rec := range records {
			v, _ := numeric(rec["billed"])
			raw += v
		}
		leafSum := 0.0
		for _, n := range r.Levels[1].Nodes {
			leafSum += n.Value
		}
		assert.InDelta(t, raw, leafSum, 1e-9)
		assert.InDelta(t, raw, r.Total, 1e-9)

		roots := map[string]bool{}
		for _, n := range r.Levels[0].Nodes {
			assert.Empty(t, n.ParentID)
			roots[n.ID] = true
		}
		for _, n := range r.Levels[1].Nodes {
			assert.True(t, roots[n.ParentID], "parent %q of %q must exist", n.ParentID, n.ID)
		}
	})

	t.Run("levels are sorted by value descending", func(t *testing.T) {
		r := lib.ProcessDrilldown(analytics.DrilldownPayload{
			Records:   drilldownRecords(),
			Hierarchy: []string{"shopping", "tenant"},
			ValueKey:  "billed",
		})

		roots := r.Levels[0].Nodes
		require.Len(t, roots, 3)
		assert.Equal(t, "Park", roots[0].Key)
		assert.Equal(t, 400.0, roots[0].Value)
		assert.Equal(t, 3, roots[0].Count)
		assert.Equal(t, "Centro", roots[1].Key)
		assert.Equal(t, "shopping:Park", roots[0].ID)

		leaves := r.Levels[1].Nodes
		for i := 1; i < len(leaves); i++ {
			assert.GreaterOrEqual(t, leaves[i-1].Value, leaves[i].Value)
		}
		assert.Equal(t, "shopping:Centro/tenant:Loja A", leaves[0].ID)
		assert.Equal(t, "shopping:Centro", leaves[0].ParentID)
	})

	t.Run("same group under different parents stays distinct", func(t *testing.T) {
		r := lib.ProcessDrilldown(analytics.DrilldownPayload{
			Records:   drilldownRecords(),
			Hierarchy: []string{"shopping", "tenant"},
			ValueKey:  "billed",
		})
		count := 0
		for _, n := range r.Levels[1].Nodes {
			if n.Key == "Loja A" {
				count++
			}
		}
		assert.Equal(t, 2, count)
	})

	t.Run("missing keys group under N/A", func(t *testing.T) {
		r := lib.ProcessDrilldown(analytics.DrilldownPayload{
			Records:   drilldownRecords(),
			Hierarchy: []string{"shopping", "tenant"},
			ValueKey:  "billed",
		})
		found := false
		for _, n := range r.Levels[1].Nodes {
			if n.ID == "shopping:Norte/tenant:N/A" {
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("empty hierarchy or records", func(t *testing.T) {
		assert.Empty(t, lib.ProcessDrilldown(analytics.DrilldownPayload{Records: drilldownRecords()}).Levels)

		r := lib.ProcessDrilldown(analytics.DrilldownPayload{Hierarchy: []string{"shopping"}, ValueKey: "billed"})
		require.Len(t, r.Levels, 1)
		assert.Empty(t, r.Levels[0].Nodes)
		assert.Zero(t, r.Total)
	})
}
