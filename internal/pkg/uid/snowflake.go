package uid

import (
	"hash/fnv"
	"os"

	"github.com/bwmarrin/snowflake"
)

// Snowflake generates time-ordered int64 IDs using bwmarrin/snowflake.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake creates a generator whose node number is derived from the
// hostname so replicas do not collide.
func NewSnowflake() (*Snowflake, error) {
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}

	h := fnv.New32a()
	//nolint:errcheck // fnv never returns an error
	h.Write([]byte(host))
	nodeNum := int64(h.Sum32()) % 1024
	if nodeNum < 0 {
		nodeNum = -nodeNum
	}

	node, err := snowflake.NewNode(nodeNum)
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: node}, nil
}

// Generate returns a new snowflake ID.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
