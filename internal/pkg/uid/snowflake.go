package uid

import "github.com/bwmarrin/snowflake"

// Snowflake generates 63-bit IDs from a node-local sequence.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake returns a generator for node. Every running instance needs a
// distinct node number in [0, 1023].
func NewSnowflake(node int64) (*Snowflake, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, err
	}
	return &Snowflake{node: n}, nil
}

func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
