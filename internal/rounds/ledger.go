package rounds

import "supply-rounds/internal/model"

// LedgerRow is one row of per-round output.
// This is the primary artifact for "what happened" in a session.
type LedgerRow struct {
	Day int `json:"day"`

	FlowMovements      int   `json:"flow_movements"`
	ScheduledMovements int   `json:"scheduled_movements"`
	AmountSubmitted    int64 `json:"amount_submitted"`

	// Backlog handed to the allocator and what became of it.
	OrdersReceived   int `json:"orders_received"`
	OrdersUnresolved int `json:"orders_unresolved"`
	OrdersFulfilled  int `json:"orders_fulfilled"`
	OrdersOpen       int `json:"orders_open"`
	Reservations     int `json:"reservations"`

	// What the arbiter answered.
	NewOrders int     `json:"new_orders"`
	Penalties int     `json:"penalties"`
	DeltaCost float64 `json:"delta_cost"`
	DeltaCO2  float64 `json:"delta_co2"`
	TotalCost float64 `json:"total_cost"`
	TotalCO2  float64 `json:"total_co2"`
}

// Result is the outcome of a (possibly partial) session.
type Result struct {
	SessionID string      `json:"session_id"`
	Rounds    int         `json:"rounds"`
	Totals    model.KPI   `json:"totals"`
	Ledger    []LedgerRow `json:"ledger,omitempty"`
}
