package model

// Order is a customer's outstanding demand with a delivery window.
// Days are simulated day indexes starting at 0.
type Order struct {
	CustomerID string
	Customer   *Customer // resolved from the network; nil until resolved
	Amount     int64     // amount still required
	PostDay    int
	StartDay   int // earliest acceptable delivery day
	EndDay     int // deadline day
}

// Movement is one shipment over a connection.
type Movement struct {
	ID           string
	Amount       int64
	ConnectionID string
}

// MovementSource says which planner produced a movement.
type MovementSource string

const (
	SourceFlow      MovementSource = "flow"
	SourceScheduled MovementSource = "scheduled"
)
