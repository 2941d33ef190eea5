package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"supply-rounds/internal/api/models"
	"supply-rounds/internal/model"
	"supply-rounds/internal/strategy"
)

// NetworkHandler serves read-only views of the loaded topology and the
// planner configuration.
type NetworkHandler struct {
	net    *model.Network
	params strategy.Params
	rounds int
}

// NewNetworkHandler creates a new network handler
func NewNetworkHandler(net *model.Network, params strategy.Params, rounds int) *NetworkHandler {
	return &NetworkHandler{net: net, params: params, rounds: rounds}
}

// Summary handles GET /api/v1/network
func (h *NetworkHandler) Summary(c *gin.Context) {
	c.JSON(http.StatusOK, h.net.Summary())
}

// ListStrategies handles GET /api/v1/strategies
func (h *NetworkHandler) ListStrategies(c *gin.Context) {
	strategies := []models.StrategyInfo{
		{
			Name:        "flow",
			Description: "Same-day refinery to tank flows, sized to the tightest limit and submitted by fullness difference.",
			Parameters: []models.ParameterInfo{
				{
					Name:        "pipeline_type",
					Type:        "string",
					Description: "Connection type that keeps its full priority",
					Value:       string(h.params.PipelineType),
				},
				{
					Name:        "non_pipeline_factor",
					Type:        "float",
					Description: "Priority multiplier for every other connection type",
					Value:       h.params.NonPipelineFactor,
				},
			},
		},
		{
			Name:        "allocator",
			Description: "Greedy reservation of customer connections on future days, earliest deadline first.",
			Parameters: []models.ParameterInfo{
				{
					Name:        "grace_days",
					Type:        "int",
					Description: "Days past the deadline a delivery may still arrive",
					Value:       h.params.GraceDays,
				},
				{
					Name:        "rounds",
					Type:        "int",
					Description: "Simulated days per session",
					Value:       h.rounds,
				},
			},
		},
	}

	c.JSON(http.StatusOK, gin.H{"strategies": strategies})
}
