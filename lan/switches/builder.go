package switches

import (
	"log/slog"

	"github.com/JamesHertz/the-internet-simulator/device"
	"github.com/JamesHertz/the-internet-simulator/ethernet"
	"github.com/JamesHertz/the-internet-simulator/lan/learning"
	"github.com/JamesHertz/the-internet-simulator/sim"
)

// Builder can help building switches
type Builder struct {
	address       ethernet.MacAddress
	addressGiven  bool
	numInterfaces int
	learnTable    learning.Table
	logger        *slog.Logger
}

// MakeBuilder creates a Builder with no address and no interfaces.
func MakeBuilder() Builder {
	return Builder{}
}

// WithAddress sets the MAC address of the switch to build.
func (b Builder) WithAddress(addr ethernet.MacAddress) Builder {
	b.address = addr
	b.addressGiven = true

	return b
}

// WithNumInterfaces sets the number of interfaces of the switch to build.
func (b Builder) WithNumInterfaces(n int) Builder {
	b.numInterfaces = n
	return b
}

// WithLearnTable sets the learn table used by the switch to build. A new empty
// table is used if not given.
func (b Builder) WithLearnTable(t learning.Table) Builder {
	b.learnTable = t
	return b
}

// WithLogger makes the switch log its frame events into the logger.
func (b Builder) WithLogger(logger *slog.Logger) Builder {
	b.logger = logger
	return b
}

// Build creates a new switch
func (b Builder) Build(name string) *Comp {
	sim.NameMustBeValid(name)
	b.addressMustBeGiven()
	b.numInterfacesMustBePositive()

	s := &Comp{
		name:       name,
		address:    b.address,
		module:     device.NewModule(name, b.numInterfaces),
		learnTable: b.learnTable,
	}

	if s.learnTable == nil {
		s.learnTable = learning.NewTable()
	}

	if b.logger != nil {
		s.AcceptHook(device.NewFrameLogger(b.logger))
	}

	return s
}

func (b Builder) addressMustBeGiven() {
	if !b.addressGiven {
		panic("switch requires a MAC address")
	}
}

func (b Builder) numInterfacesMustBePositive() {
	if b.numInterfaces <= 0 {
		panic("switch requires at least one interface")
	}
}
