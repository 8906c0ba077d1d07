package device

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/JamesHertz/the-internet-simulator/link"
	"github.com/JamesHertz/the-internet-simulator/sim"
)

var (
	// ErrInterfaceOutOfRange is returned when an interface id is not lower
	// than the number of interfaces of the module.
	ErrInterfaceOutOfRange = errors.New("interface out of range")

	// ErrInterfaceDown is returned when sending through an interface that has
	// no link attached.
	ErrInterfaceDown = errors.New("interface is down")
)

// WireMsg is one delivery waiting in a module's inbound queue.
type WireMsg struct {
	InterfaceID int
	Data        []byte
}

// Module owns the interfaces of a device and the queue every interface
// delivers into. Exactly one goroutine, the device's own, is expected to call
// WaitForMsg; any number of link senders push into the queue.
type Module struct {
	name       string
	interfaces []*Interface

	lock    sync.Mutex
	inbound sim.Buffer
	notify  chan struct{}
}

// NewModule creates a module with n interfaces, all down. It panics if n is
// not positive.
func NewModule(name string, n int) *Module {
	if n <= 0 {
		panic(fmt.Sprintf("module %s: %d interfaces given, need at least 1",
			name, n))
	}

	m := &Module{
		name:       name,
		interfaces: make([]*Interface, n),
		inbound:    sim.NewBuffer(name+".InboundBuf", sim.Unbounded),
		notify:     make(chan struct{}, 1),
	}

	for i := range m.interfaces {
		m.interfaces[i] = &Interface{id: i, module: m}
	}

	return m
}

// Name returns the name of the module.
func (m *Module) Name() string {
	return m.name
}

// InterfaceNr returns the number of interfaces.
func (m *Module) InterfaceNr() int {
	return len(m.interfaces)
}

// Interface returns the interface with the given id.
func (m *Module) Interface(id int) (*Interface, error) {
	if id < 0 || id >= len(m.interfaces) {
		return nil, fmt.Errorf("module %s: interface %d of %d: %w",
			m.name, id, len(m.interfaces), ErrInterfaceOutOfRange)
	}

	return m.interfaces[id], nil
}

// Interfaces returns all interfaces ordered by id.
func (m *Module) Interfaces() []*Interface {
	return append([]*Interface(nil), m.interfaces...)
}

// AttachLink binds a link end to an interface and registers the interface as
// the receiver of that end. Misuse is a wiring bug and panics: an out of range
// id, an interface that is already connected, or an end that already has a
// receiver.
func (m *Module) AttachLink(id int, end *link.End) {
	iface, err := m.Interface(id)
	if err != nil {
		panic(err)
	}

	if iface.connection != nil {
		panic(fmt.Sprintf(
			"module %s: attaching link %s to interface %d, "+
				"which is already connected to %s",
			m.name, end.Link().Name(), id, iface.connection.Link().Name()))
	}

	err = end.AttachReceiver(inbox{module: m, interfaceID: id})
	if err != nil {
		panic(fmt.Sprintf("module %s: interface %d: %v", m.name, id, err))
	}

	iface.connection = end
}

// WaitForMsg blocks until the inbound queue is not empty and returns the
// oldest message. It returns ctx.Err() once ctx is done.
func (m *Module) WaitForMsg(ctx context.Context) (WireMsg, error) {
	for {
		m.lock.Lock()
		item := m.inbound.Pop()
		m.lock.Unlock()

		if item != nil {
			return item.(WireMsg), nil
		}

		select {
		case <-m.notify:
		case <-ctx.Done():
			return WireMsg{}, ctx.Err()
		}
	}
}

// PendingMsgs returns the number of messages waiting in the inbound queue.
func (m *Module) PendingMsgs() int {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.inbound.Size()
}

func (m *Module) push(msg WireMsg) {
	m.lock.Lock()
	m.inbound.Push(msg)
	m.lock.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// inbox is the link receiver of one interface.
type inbox struct {
	module      *Module
	interfaceID int
}

func (b inbox) Deliver(data []byte) {
	b.module.push(WireMsg{InterfaceID: b.interfaceID, Data: data})
}
