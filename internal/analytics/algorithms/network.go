package algorithms

import (
	"sort"
	"strings"

	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

// CalculateNetworkMetrics computes degree, a distinct-neighbor betweenness proxy,
// density and connected components of an undirected weighted graph. Edges that
// reference unknown nodes are ignored. Density counts distinct node pairs, so
// it stays within [0, 1] for multigraphs.
func (l *Library) CalculateNetworkMetrics(p analytics.NetworkPayload) analytics.NetworkResult {
	result := analytics.NetworkResult{
		Nodes:      []analytics.NodeMetrics{},
		Components: [][]string{},
	}

	index := make(map[string]int, len(p.Nodes))
	ids := make([]string, 0, len(p.Nodes))
	for _, n := range p.Nodes {
		id := strings.TrimSpace(n.ID)
		if id == "" {
			continue
		}
		if _, dup := index[id]; dup {
			continue
		}
		index[id] = len(ids)
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return result
	}

	degree := make([]int, len(ids))
	weighted := make([]float64, len(ids))
	neighbors := make([]map[int]struct{}, len(ids))
	for i := range neighbors {
		neighbors[i] = make(map[int]struct{})
	}

	edges := 0
	for _, e := range p.Edges {
		s, okS := index[strings.TrimSpace(e.Source)]
		t, okT := index[strings.TrimSpace(e.Target)]
		if !okS || !okT {
			continue
		}
		edges++
		w := e.Weight
		if w == 0 {
			w = 1
		}
		degree[s]++
		degree[t]++
		weighted[s] += w
		weighted[t] += w
		if s != t {
			neighbors[s][t] = struct{}{}
			neighbors[t][s] = struct{}{}
		}
	}

	component := make([]int, len(ids))
	for i := range component {
		component[i] = -1
	}
	for start := range ids {
		if component[start] >= 0 {
			continue
		}
		c := len(result.Components)
		members := []string{}
		stack := []int{start}
		component[start] = c
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			members = append(members, ids[cur])
			for next := range neighbors[cur] {
				if component[next] < 0 {
					component[next] = c
					stack = append(stack, next)
				}
			}
		}
		sort.Strings(members)
		result.Components = append(result.Components, members)
	}

	for i, id := range ids {
		betweenness := len(neighbors[i])
		result.Nodes = append(result.Nodes, analytics.NodeMetrics{
			ID:             id,
			Degree:         degree[i],
			Betweenness:    betweenness,
			WeightedDegree: weighted[i],
			Importance:     float64(degree[i]+betweenness) / 2,
			Component:      component[i],
		})
	}
	sort.SliceStable(result.Nodes, func(i, j int) bool {
		return result.Nodes[i].Importance > result.Nodes[j].Importance
	})

	result.NodeCount = len(ids)
	result.EdgeCount = edges
	if n := len(ids); n > 1 {
		// parallel edges and self-loops do not add connections
		pairs := 0
		for _, nb := range neighbors {
			pairs += len(nb)
		}
		result.Density = float64(pairs/2) / (float64(n) * float64(n-1) / 2)
	}
	return result
}
