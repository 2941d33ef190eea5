package model

import (
	"fmt"
	"sort"
)

// Network is a read-only snapshot of the supply network taken when the
// topology was loaded. Nothing in the planner mutates it; authoritative
// stock changes come back from the arbiter.
type Network struct {
	refineries  []*Refinery
	tanks       []*Tank
	customers   []*Customer
	connections []*Connection

	// Demands present in the static topology. The round loop never uses
	// them; the arbiter sends the live backlog with every response.
	initialOrders []Order

	nodes       map[string]Node
	connByID    map[string]*Connection
	connsByDest map[string][]*Connection
}

// Topology is the raw input used to build a Network.
type Topology struct {
	Refineries    []*Refinery
	Tanks         []*Tank
	Customers     []*Customer
	Connections   []*Connection
	InitialOrders []Order
}

// NewNetwork indexes a topology. Duplicate node or connection ids and
// connections that reference unknown nodes are rejected.
func NewNetwork(t Topology) (*Network, error) {
	n := &Network{
		refineries:    t.Refineries,
		tanks:         t.Tanks,
		customers:     t.Customers,
		connections:   t.Connections,
		initialOrders: t.InitialOrders,
		nodes:         make(map[string]Node, len(t.Refineries)+len(t.Tanks)+len(t.Customers)),
		connByID:      make(map[string]*Connection, len(t.Connections)),
		connsByDest:   map[string][]*Connection{},
	}
	add := func(node Node) error {
		if node.NodeID() == "" {
			return fmt.Errorf("%s node with empty id", node.Type())
		}
		if _, dup := n.nodes[node.NodeID()]; dup {
			return fmt.Errorf("duplicate node id %q", node.NodeID())
		}
		n.nodes[node.NodeID()] = node
		return nil
	}
	for _, r := range t.Refineries {
		if err := add(r); err != nil {
			return nil, err
		}
	}
	for _, tk := range t.Tanks {
		if err := add(tk); err != nil {
			return nil, err
		}
	}
	for _, c := range t.Customers {
		if err := add(c); err != nil {
			return nil, err
		}
	}
	for _, c := range t.Connections {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if _, dup := n.connByID[c.ID]; dup {
			return nil, fmt.Errorf("duplicate connection id %q", c.ID)
		}
		if _, ok := n.nodes[c.FromID]; !ok {
			return nil, fmt.Errorf("connection %s: unknown from node %q", c.ID, c.FromID)
		}
		if _, ok := n.nodes[c.ToID]; !ok {
			return nil, fmt.Errorf("connection %s: unknown to node %q", c.ID, c.ToID)
		}
		n.connByID[c.ID] = c
		n.connsByDest[c.ToID] = append(n.connsByDest[c.ToID], c)
	}
	return n, nil
}

func (n *Network) Refineries() []*Refinery    { return n.refineries }
func (n *Network) Tanks() []*Tank             { return n.tanks }
func (n *Network) Customers() []*Customer     { return n.customers }
func (n *Network) Connections() []*Connection { return n.connections }
func (n *Network) InitialOrders() []Order     { return n.initialOrders }

// Node looks up any node by id.
func (n *Network) Node(id string) (Node, bool) {
	node, ok := n.nodes[id]
	return node, ok
}

// Refinery looks up a producer by id.
func (n *Network) Refinery(id string) (*Refinery, bool) {
	r, ok := n.nodes[id].(*Refinery)
	return r, ok
}

// Tank looks up a storage site by id.
func (n *Network) Tank(id string) (*Tank, bool) {
	t, ok := n.nodes[id].(*Tank)
	return t, ok
}

// Customer looks up a consumer by id.
func (n *Network) Customer(id string) (*Customer, bool) {
	c, ok := n.nodes[id].(*Customer)
	return c, ok
}

// Connection looks up an edge by id.
func (n *Network) Connection(id string) (*Connection, bool) {
	c, ok := n.connByID[id]
	return c, ok
}

// ConnectionsInto returns the edges whose destination is nodeID, in load order.
// The returned slice is shared; callers must copy before reordering.
func (n *Network) ConnectionsInto(nodeID string) []*Connection {
	return n.connsByDest[nodeID]
}

// Summary counts the network's contents.
type Summary struct {
	Refineries    int `json:"refineries"`
	Tanks         int `json:"tanks"`
	Customers     int `json:"customers"`
	Connections   int `json:"connections"`
	Pipelines     int `json:"pipelines"`
	InitialOrders int `json:"initial_orders"`
}

func (n *Network) Summary() Summary {
	s := Summary{
		Refineries:    len(n.refineries),
		Tanks:         len(n.tanks),
		Customers:     len(n.customers),
		Connections:   len(n.connections),
		InitialOrders: len(n.initialOrders),
	}
	for _, c := range n.connections {
		if c.Type.IsPipeline() {
			s.Pipelines++
		}
	}
	return s
}

// NodeIDs returns all node ids sorted ascending.
func (n *Network) NodeIDs() []string {
	ids := make([]string, 0, len(n.nodes))
	for id := range n.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
