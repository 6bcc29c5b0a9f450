package algorithms

import (
	"sort"

	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

// ProcessDrilldown builds one level per hierarchy key. Each level groups the records
// by the keys up to that depth, so every node has exactly one parent on the previous
// level. Node ids chain the ancestor ids: "shopping:A/tenant:X".
func (l *Library) ProcessDrilldown(p analytics.DrilldownPayload) analytics.DrilldownResult {
	result := analytics.DrilldownResult{Levels: []analytics.DrilldownLevel{}}
	if len(p.Hierarchy) == 0 {
		return result
	}

	ids := make([]string, len(p.Records))
	for depth, key := range p.Hierarchy {
		nodes := make(map[string]*analytics.DrilldownNode)
		for i, rec := range p.Records {
			parent := ids[i]
			group := label(rec[key])
			id := key + ":" + group
			if depth > 0 {
				id = parent + "/" + id
			}
			ids[i] = id

			n, ok := nodes[id]
			if !ok {
				n = &analytics.DrilldownNode{ID: id, ParentID: parent, Level: key, Key: group}
				nodes[id] = n
			}
			n.Count++
			if v, ok := numeric(rec[p.ValueKey]); ok {
				n.Value += v
			}
		}

		level := analytics.DrilldownLevel{Key: key, Depth: depth, Nodes: make([]analytics.DrilldownNode, 0, len(nodes))}
		for _, n := range nodes {
			level.Nodes = append(level.Nodes, *n)
		}
		sort.Slice(level.Nodes, func(i, j int) bool {
			if level.Nodes[i].Value != level.Nodes[j].Value {
				return level.Nodes[i].Value > level.Nodes[j].Value
			}
			return level.Nodes[i].ID < level.Nodes[j].ID
		})
		result.Levels = append(result.Levels, level)
	}

	for _, n := range result.Levels[0].Nodes {
		result.Total += n.Value
	}
	return result
}
