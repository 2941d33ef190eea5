package models

// PlayRoundRequest is the body of POST /api/v1/play/round.
type PlayRoundRequest struct {
	Day       *int            `json:"day" binding:"required,min=0"`
	Movements []MovementEntry `json:"movements"`
}

// MovementEntry mirrors the arbiter's movement wire form.
type MovementEntry struct {
	ConnectionID string `json:"connectionId" binding:"required"`
	Amount       int64  `json:"amount" binding:"min=0"`
}

// SolveOptions are the query parameters of POST /api/v1/solve.
type SolveOptions struct {
	IncludeLedger bool `form:"include_ledger"` // default: false
}
