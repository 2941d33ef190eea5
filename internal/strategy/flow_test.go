package strategy

import (
	"math"
	"testing"

	"supply-rounds/internal/model"
)

func TestFlowAmount_TakesMinimum(t *testing.T) {
	r := makeRefinery("r", 1000, 0, 100)
	tk := makeTank("t", 1000, 0, 50)
	c := makeConn("c", "r", "t", model.ConnectionPipeline, 80, 1)
	if got := FlowAmount(r, tk, c); got != 50 {
		t.Fatalf("FlowAmount = %d, want 50", got)
	}
}

func TestFlowPriority_PipelineVsTruck(t *testing.T) {
	r := makeRefinery("r", 100, 80, 10)
	tk := makeTank("t", 100, 20, 10)
	p := DefaultParams()

	pipe := FlowPriority(r, tk, makeConn("c1", "r", "t", model.ConnectionPipeline, 10, 1), p)
	if math.Abs(pipe-0.6) > 1e-9 {
		t.Fatalf("pipeline priority = %v, want 0.6", pipe)
	}
	truck := FlowPriority(r, tk, makeConn("c2", "r", "t", model.ConnectionTruck, 10, 1), p)
	if math.Abs(truck-0.3) > 1e-9 {
		t.Fatalf("truck priority = %v, want 0.3", truck)
	}
}

func TestFlowPriority_ZeroCapacityCountsAsEmpty(t *testing.T) {
	r := makeRefinery("r", 0, 10, 10)
	tk := makeTank("t", 100, 50, 10)
	got := FlowPriority(r, tk, makeConn("c", "r", "t", model.ConnectionPipeline, 10, 1), DefaultParams())
	if math.Abs(got-(-0.5)) > 1e-9 {
		t.Fatalf("priority = %v, want -0.5", got)
	}
}

func TestFlows_OnlyRefineryToTankOrderedByPriority(t *testing.T) {
	net := mustNetwork(t, model.Topology{
		Refineries: []*model.Refinery{
			makeRefinery("r1", 100, 90, 40),
			makeRefinery("r2", 100, 10, 40),
		},
		Tanks: []*model.Tank{
			makeTank("t1", 100, 10, 30),
			makeTank("t2", 100, 10, 30),
		},
		Customers: []*model.Customer{makeCustomer("k1", 100)},
		Connections: []*model.Connection{
			makeConn("e-low", "r2", "t1", model.ConnectionPipeline, 100, 1),  // 0.0
			makeConn("e-truck", "r1", "t2", model.ConnectionTruck, 100, 1),   // 0.4
			makeConn("e-pipe", "r1", "t1", model.ConnectionPipeline, 100, 1), // 0.8
			makeConn("e-tie", "r1", "t2", model.ConnectionTruck, 100, 1),     // 0.4
			makeConn("e-cust", "t1", "k1", model.ConnectionTruck, 100, 1),    // not a flow
		},
	})

	got := Flows(Context{Day: 0, Network: net}, DefaultParams())
	want := []string{"e-pipe", "e-tie", "e-truck", "e-low"}
	if len(got) != len(want) {
		t.Fatalf("got %d candidates, want %d: %+v", len(got), len(want), got)
	}
	for i, id := range want {
		if got[i].ConnectionID != id {
			t.Fatalf("position %d: got %s, want %s (all: %+v)", i, got[i].ConnectionID, id, got)
		}
		if got[i].Amount != 30 {
			t.Fatalf("%s amount = %d, want 30", id, got[i].Amount)
		}
	}
}

func TestSortFlows_TieBreakByConnectionID(t *testing.T) {
	flows := []FlowCandidate{
		{ConnectionID: "b", Priority: 0.1},
		{ConnectionID: "a", Priority: 0.1},
		{ConnectionID: "c", Priority: 0.2},
	}
	SortFlows(flows)
	if flows[0].ConnectionID != "c" || flows[1].ConnectionID != "a" || flows[2].ConnectionID != "b" {
		t.Fatalf("unexpected order: %+v", flows)
	}
}
