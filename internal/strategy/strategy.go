package strategy

import "supply-rounds/internal/model"

// Context is what a planner sees for one simulated day.
type Context struct {
	Day     int
	Network *model.Network
}

// Params groups the tunables shared by the flow heuristic and the allocator.
type Params struct {
	// PipelineType is the connection type that keeps its full priority.
	PipelineType model.ConnectionType
	// NonPipelineFactor scales the priority of every other connection type.
	NonPipelineFactor float64
	// GraceDays is how many days past the deadline a delivery may still land.
	GraceDays int
}

// DefaultParams returns the values the arbiter rules were tuned for.
func DefaultParams() Params {
	return Params{
		PipelineType:      model.ConnectionPipeline,
		NonPipelineFactor: 0.5,
		GraceDays:         2,
	}
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
