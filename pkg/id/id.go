package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

// DefaultNode is used when New is called before Init.
const DefaultNode int64 = 1

var (
	node *snowflake.Node
	once sync.Once
)

// Init sets the snowflake node for this process. Only the first call has any
// effect; node ids must be unique across running instances.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New returns a time-ordered, process-unique int64 id.
func New() int64 {
	once.Do(func() {
		node, _ = snowflake.NewNode(DefaultNode)
	})
	return node.Generate().Int64()
}
