package strategy

import (
	"fmt"
	"testing"

	"supply-rounds/internal/model"
)

func makeRefinery(id string, capacity, stock, maxOutput int64) *model.Refinery {
	return &model.Refinery{ID: id, Capacity: capacity, Stock: stock, MaxOutput: maxOutput}
}

func makeTank(id string, capacity, stock, maxInput int64) *model.Tank {
	return &model.Tank{ID: id, Capacity: capacity, Stock: stock, MaxInput: maxInput}
}

func makeCustomer(id string, maxInput int64) *model.Customer {
	return &model.Customer{ID: id, MaxInput: maxInput}
}

func makeConn(id, from, to string, typ model.ConnectionType, capacity int64, lead int) *model.Connection {
	return &model.Connection{ID: id, FromID: from, ToID: to, Type: typ, MaxCapacity: capacity, LeadTimeDays: lead}
}

func mustNetwork(t *testing.T, topo model.Topology) *model.Network {
	t.Helper()
	n, err := model.NewNetwork(topo)
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}
	return n
}

// seqIDs returns an id generator yielding m1, m2, ...
func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("m%d", n)
	}
}
