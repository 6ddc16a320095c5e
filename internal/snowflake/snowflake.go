package snowflake

import (
	"strconv"

	"github.com/bwmarrin/snowflake"
)

// Generator hands out snowflake IDs for one node.
// Node ID should be unique across all instances (0-1023).
type Generator struct {
	node *snowflake.Node
}

// New creates a generator for the given node ID.
func New(nodeID int64) (*Generator, error) {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}
	return &Generator{node: n}, nil
}

// Next generates a new unique snowflake ID.
func (g *Generator) Next() int64 {
	return g.node.Generate().Int64()
}

// Parse converts the decimal string form back to an ID.
// Anything that is not a positive int64 is rejected.
func Parse(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Format renders an ID in the decimal string form used on the wire.
func Format(id int64) string {
	return strconv.FormatInt(id, 10)
}
