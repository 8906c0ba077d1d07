package endpoint

import (
	"log/slog"

	"github.com/JamesHertz/the-internet-simulator/device"
	"github.com/JamesHertz/the-internet-simulator/ethernet"
	"github.com/JamesHertz/the-internet-simulator/sim"
)

// Builder can help building hosts.
type Builder struct {
	address       ethernet.MacAddress
	addressGiven  bool
	numInterfaces int
	logger        *slog.Logger
}

// MakeBuilder creates a Builder for a single interface host.
func MakeBuilder() Builder {
	return Builder{
		numInterfaces: 1,
	}
}

// WithAddress sets the MAC address of the host to build.
func (b Builder) WithAddress(addr ethernet.MacAddress) Builder {
	b.address = addr
	b.addressGiven = true

	return b
}

// WithNumInterfaces sets the number of interfaces of the host to build.
func (b Builder) WithNumInterfaces(n int) Builder {
	b.numInterfaces = n
	return b
}

// WithLogger makes the host log its frame events into the logger.
func (b Builder) WithLogger(logger *slog.Logger) Builder {
	b.logger = logger
	return b
}

// Build creates a new host.
func (b Builder) Build(name string) *Comp {
	sim.NameMustBeValid(name)

	if !b.addressGiven {
		panic("host requires a MAC address")
	}

	if b.address.IsBroadcast() {
		panic("host cannot use the broadcast address")
	}

	h := &Comp{
		name:    name,
		address: b.address,
		module:  device.NewModule(name, b.numInterfaces),
		arrival: make(chan struct{}, 1),
	}

	if b.logger != nil {
		h.AcceptHook(device.NewFrameLogger(b.logger))
	}

	return h
}
