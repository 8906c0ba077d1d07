package device

import (
	"fmt"

	"github.com/JamesHertz/the-internet-simulator/link"
)

// An Interface is the attachment point of one link end on a device.
type Interface struct {
	id         int
	module     *Module
	connection *link.End
}

// ID returns the id of the interface, local to its module.
func (i *Interface) ID() int {
	return i.id
}

// IsUp tells if a link is attached. It does not check whether the far end is
// attached too.
func (i *Interface) IsUp() bool {
	return i.connection != nil
}

// Connection returns the attached link end, or nil if the interface is down.
func (i *Interface) Connection() *link.End {
	return i.connection
}

// Send transmits data over the attached link.
func (i *Interface) Send(data []byte) error {
	if i.connection == nil {
		return fmt.Errorf("module %s: interface %d: %w",
			i.module.name, i.id, ErrInterfaceDown)
	}

	if err := i.connection.Send(data); err != nil {
		return fmt.Errorf("module %s: interface %d: %w",
			i.module.name, i.id, err)
	}

	return nil
}
