package strategy

import (
	"sort"

	"supply-rounds/internal/model"
)

// FlowCandidate is a same-day refinery -> tank movement proposal.
type FlowCandidate struct {
	ConnectionID string
	Amount       int64
	Priority     float64
}

// FlowAmount is the largest flow the refinery, tank and connection all allow.
func FlowAmount(r *model.Refinery, t *model.Tank, c *model.Connection) int64 {
	return minInt64(minInt64(r.MaxOutput, t.MaxInput), c.MaxCapacity)
}

// FlowPriority favours draining full refineries into empty tanks. Connections
// that are not pipelines get their fullness difference scaled down.
func FlowPriority(r *model.Refinery, t *model.Tank, c *model.Connection, p Params) float64 {
	diff := r.Fullness() - t.Fullness()
	if c.Type == p.PipelineType {
		return diff
	}
	return diff * p.NonPipelineFactor
}

// Flows returns one candidate per refinery -> tank connection, ordered by
// priority descending. Equal priorities are ordered by connection id
// ascending so that submissions are deterministic.
func Flows(ctx Context, p Params) []FlowCandidate {
	out := []FlowCandidate{}
	for _, c := range ctx.Network.Connections() {
		r, ok := ctx.Network.Refinery(c.FromID)
		if !ok {
			continue
		}
		t, ok := ctx.Network.Tank(c.ToID)
		if !ok {
			continue
		}
		out = append(out, FlowCandidate{
			ConnectionID: c.ID,
			Amount:       FlowAmount(r, t, c),
			Priority:     FlowPriority(r, t, c, p),
		})
	}
	SortFlows(out)
	return out
}

// SortFlows orders candidates by priority descending, then connection id.
func SortFlows(flows []FlowCandidate) {
	sort.SliceStable(flows, func(i, j int) bool {
		if flows[i].Priority != flows[j].Priority {
			return flows[i].Priority > flows[j].Priority
		}
		return flows[i].ConnectionID < flows[j].ConnectionID
	})
}
