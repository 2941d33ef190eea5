package model

// RoundRequest is the body of one /play/round submission.
type RoundRequest struct {
	Day       int             `json:"day"`
	Movements []MovementEntry `json:"movements"`
}

// MovementEntry is the wire form of a movement.
type MovementEntry struct {
	ConnectionID string `json:"connectionId"`
	Amount       int64  `json:"amount"`
}

// RoundResponse matches the JSON shape returned by the arbiter after a round
// and at the end of a session.
//
// Example:
//
//	{
//	  "round": 3,
//	  "demand": [ {"customerId": "...", "amount": 40, "postDay": 3, "startDay": 5, "endDay": 9} ],
//	  "penalties": [ ... ],
//	  "deltaKpis": {"day": 3, "cost": 120, "co2": 8},
//	  "totalKpis": {"day": 3, "cost": 900, "co2": 61}
//	}
type RoundResponse struct {
	Round     int         `json:"round"`
	Demand    []DemandDTO `json:"demand"`
	Penalties []Penalty   `json:"penalties"`
	DeltaKPIs KPI         `json:"deltaKpis"`
	TotalKPIs KPI         `json:"totalKpis"`
}

// DemandDTO is an order as sent by the arbiter.
type DemandDTO struct {
	CustomerID string `json:"customerId"`
	Amount     int64  `json:"amount"`
	PostDay    int    `json:"postDay"`
	StartDay   int    `json:"startDay"`
	EndDay     int    `json:"endDay"`
}

// Penalty is one penalty the arbiter applied.
type Penalty struct {
	Day     int     `json:"day"`
	Type    string  `json:"type"`
	Message string  `json:"message"`
	Cost    float64 `json:"cost"`
	CO2     float64 `json:"co2"`
}

// KPI holds cost and environmental impact totals.
type KPI struct {
	Day  int     `json:"day"`
	Cost float64 `json:"cost"`
	CO2  float64 `json:"co2"`
}

// ToOrder converts the wire form without resolving the customer.
func (d DemandDTO) ToOrder() Order {
	return Order{
		CustomerID: d.CustomerID,
		Amount:     d.Amount,
		PostDay:    d.PostDay,
		StartDay:   d.StartDay,
		EndDay:     d.EndDay,
	}
}
