package model

// NodeType tags a network node variant.
// Keep these values stable; they match the topology tables and CSV output.
type NodeType string

const (
	NodeRefinery NodeType = "REFINERY"
	NodeTank     NodeType = "STORAGE_TANK"
	NodeCustomer NodeType = "CUSTOMER"
)

// ConnectionType tags the transport mode of an edge.
type ConnectionType string

const (
	ConnectionPipeline ConnectionType = "PIPELINE"
	ConnectionTruck    ConnectionType = "TRUCK"
)

// IsPipeline reports whether the connection is a pipeline.
func (t ConnectionType) IsPipeline() bool {
	return t == ConnectionPipeline
}
