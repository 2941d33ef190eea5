package model

import (
	"errors"
	"fmt"
)

// Node is the common view over every network node variant.
type Node interface {
	NodeID() string
	Type() NodeType
	Fullness() float64
}

// Refinery is a producer node.
// Units: amounts are whole units of product per day; penalties and
// costs are per unit.
type Refinery struct {
	ID                string
	Name              string
	Capacity          int64
	Stock             int64
	MaxOutput         int64
	Production        int64
	OverflowPenalty   float64
	UnderflowPenalty  float64
	OverOutputPenalty float64
	ProductionCost    float64
	ProductionCO2     float64
}

func (r *Refinery) NodeID() string    { return r.ID }
func (r *Refinery) Type() NodeType    { return NodeRefinery }
func (r *Refinery) Fullness() float64 { return fullness(r.Stock, r.Capacity) }

// Tank is a storage site.
type Tank struct {
	ID                string
	Name              string
	Capacity          int64
	Stock             int64
	MaxInput          int64
	MaxOutput         int64
	OverflowPenalty   float64
	UnderflowPenalty  float64
	OverInputPenalty  float64
	OverOutputPenalty float64
}

func (t *Tank) NodeID() string    { return t.ID }
func (t *Tank) Type() NodeType    { return NodeTank }
func (t *Tank) Fullness() float64 { return fullness(t.Stock, t.Capacity) }

// Customer is a consumer node. Customers carry no stock of their own in the
// topology tables, so Capacity and Stock are usually zero.
type Customer struct {
	ID                   string
	Name                 string
	Capacity             int64
	Stock                int64
	MaxInput             int64
	OverInputPenalty     float64
	LateDeliveryPenalty  float64
	EarlyDeliveryPenalty float64
}

func (c *Customer) NodeID() string    { return c.ID }
func (c *Customer) Type() NodeType    { return NodeCustomer }
func (c *Customer) Fullness() float64 { return fullness(c.Stock, c.Capacity) }

// fullness is stock/capacity; a node without capacity counts as empty.
func fullness(stock, capacity int64) float64 {
	if capacity <= 0 {
		return 0
	}
	return float64(stock) / float64(capacity)
}

// Connection is a directed edge between two nodes.
type Connection struct {
	ID           string
	FromID       string
	ToID         string
	Distance     int64
	LeadTimeDays int
	Type         ConnectionType
	MaxCapacity  int64
}

// Validate checks the attributes the planner relies on.
func (c *Connection) Validate() error {
	if c.ID == "" {
		return errors.New("connection id is required")
	}
	if c.FromID == "" || c.ToID == "" {
		return fmt.Errorf("connection %s: from_id and to_id are required", c.ID)
	}
	if c.LeadTimeDays < 0 {
		return fmt.Errorf("connection %s: lead_time_days must be >= 0", c.ID)
	}
	if c.MaxCapacity < 0 {
		return fmt.Errorf("connection %s: max_capacity must be >= 0", c.ID)
	}
	return nil
}
