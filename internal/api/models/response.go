package models

// SessionResponse is returned when a session starts or ends.
type SessionResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Totals    *KPI   `json:"totals,omitempty"`
	Rounds    int    `json:"rounds,omitempty"`
}

// KPI holds cost and environmental impact.
type KPI struct {
	Cost float64 `json:"cost"`
	CO2  float64 `json:"co2"`
}

// SolveResponse represents the outcome of a full round loop
type SolveResponse struct {
	SessionID string       `json:"session_id"`
	Status    string       `json:"status"`
	Summary   SolveSummary `json:"summary"`
	Ledger    []LedgerRow  `json:"ledger,omitempty"`
}

// SolveSummary contains aggregated session results
type SolveSummary struct {
	Rounds             int     `json:"rounds"`
	TotalCost          float64 `json:"total_cost"`
	TotalCO2           float64 `json:"total_co2"`
	Penalties          int     `json:"penalties"`
	FlowMovements      int     `json:"flow_movements"`
	ScheduledMovements int     `json:"scheduled_movements"`
	AmountSubmitted    int64   `json:"amount_submitted"`
}

// LedgerRow represents one round in the session ledger
type LedgerRow struct {
	Day                int     `json:"day"`
	FlowMovements      int     `json:"flow_movements"`
	ScheduledMovements int     `json:"scheduled_movements"`
	AmountSubmitted    int64   `json:"amount_submitted"`
	OrdersReceived     int     `json:"orders_received"`
	OrdersUnresolved   int     `json:"orders_unresolved"`
	OrdersFulfilled    int     `json:"orders_fulfilled"`
	OrdersOpen         int     `json:"orders_open"`
	Reservations       int     `json:"reservations"`
	NewOrders          int     `json:"new_orders"`
	Penalties          int     `json:"penalties"`
	DeltaCost          float64 `json:"delta_cost"`
	DeltaCO2           float64 `json:"delta_co2"`
	TotalCost          float64 `json:"total_cost"`
	TotalCO2           float64 `json:"total_co2"`
}

// StrategyInfo describes the planning heuristics and their parameters
type StrategyInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// ParameterInfo describes a strategy parameter
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "float", "int", "string"
	Description string      `json:"description"`
	Value       interface{} `json:"value"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
