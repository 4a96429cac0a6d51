package idgen

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

var (
	node     *snowflake.Node
	nodeOnce sync.Once
)

// Init sets the snowflake node; later calls are ignored.
func Init(nodeID int64) error {
	var err error
	nodeOnce.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	if err != nil {
		return fmt.Errorf("init snowflake node %d: %w", nodeID, err)
	}
	return nil
}

// GenerateID returns a snowflake id, initialising node 1 on first use.
func GenerateID() int64 {
	if err := Init(1); err != nil || node == nil {
		panic(fmt.Sprintf("snowflake node unavailable: %v", err))
	}
	return node.Generate().Int64()
}

// NewUUID is used for dashboard and menu item primary keys.
func NewUUID() string {
	return uuid.NewString()
}
