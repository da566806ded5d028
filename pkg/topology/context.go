package topology

import (
	"github.com/go-logr/logr"

	"l7mp.io/tableflow/pkg/store"
)

// Context is the runtime context handed to a processor at Init time. It is
// bound to one node and gives access to downstream forwarding and to the
// topology's state stores.
type Context struct {
	nodeName string
	driver   *Driver
	log      logr.Logger
}

func (c *Context) NodeName() string    { return c.nodeName }
func (c *Context) Logger() logr.Logger { return c.log }

// Forward delivers a record to every child of the current node, in
// registration order, synchronously.
func (c *Context) Forward(key, value any) error {
	for _, child := range c.driver.topo.nodes[c.nodeName].children {
		if err := c.driver.deliver(child, key, value); err != nil {
			return err
		}
	}
	return nil
}

// Store resolves a registered state store by name.
func (c *Context) Store(name string) (store.KeyValueStore, error) {
	s, ok := c.driver.stores[name]
	if !ok {
		return nil, NewTopologyError("node %s: state store %s not registered", c.nodeName, name)
	}
	return s, nil
}
