package topology

import (
	"log/slog"
	"sort"

	"github.com/JamesHertz/the-internet-simulator/lan/endpoint"
	"github.com/JamesHertz/the-internet-simulator/lan/switches"
	"github.com/JamesHertz/the-internet-simulator/simulation"
)

// Network is a topology turned into devices registered on a simulator.
type Network struct {
	Simulator *simulation.Simulator
	Hosts     map[string]*endpoint.Comp
	Switches  map[string]*switches.Comp
}

// HostNames returns the names of the hosts, sorted.
func (n *Network) HostNames() []string {
	names := make([]string, 0, len(n.Hosts))
	for name := range n.Hosts {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Option may be passed to Build to customize the network.
type Option func(*buildConfig)

type buildConfig struct {
	simID        string
	logger       *slog.Logger
	deviceLogger *slog.Logger
}

// WithSimulatorID sets the id of the simulator to build.
func WithSimulatorID(id string) Option {
	return func(c *buildConfig) {
		c.simID = id
	}
}

// WithLogger sets the logger of the simulator to build.
func WithLogger(logger *slog.Logger) Option {
	return func(c *buildConfig) {
		c.logger = logger
	}
}

// WithDeviceLogger makes every device log its frame events into the logger.
func WithDeviceLogger(logger *slog.Logger) Option {
	return func(c *buildConfig) {
		c.deviceLogger = logger
	}
}

// Build validates the topology and creates its devices and links on a new
// simulator.
func Build(t *T, opts ...Option) (*Network, error) {
	c := &buildConfig{}
	for _, opt := range opts {
		opt(c)
	}

	r, err := t.resolve()
	if err != nil {
		return nil, err
	}

	n := &Network{
		Simulator: simulation.MakeBuilder().
			WithID(c.simID).
			WithLogger(c.logger).
			Build(),
		Hosts:    make(map[string]*endpoint.Comp),
		Switches: make(map[string]*switches.Comp),
	}

	for _, d := range r.devices {
		switch d.Kind {
		case KindSwitch:
			b := switches.MakeBuilder().
				WithAddress(d.mac).
				WithNumInterfaces(d.numInterfaces)
			if c.deviceLogger != nil {
				b = b.WithLogger(c.deviceLogger)
			}

			sw := b.Build(d.Name)
			n.Switches[d.Name] = sw
			n.Simulator.AddDevice(sw)
		case KindHost:
			b := endpoint.MakeBuilder().
				WithAddress(d.mac).
				WithNumInterfaces(d.numInterfaces)
			if c.deviceLogger != nil {
				b = b.WithLogger(c.deviceLogger)
			}

			h := b.Build(d.Name)
			n.Hosts[d.Name] = h
			n.Simulator.AddDevice(h)
		}
	}

	for _, l := range r.links {
		n.Simulator.AddLink(
			simulation.InterfaceSpec{MAC: l.from.mac, InterfaceID: l.fromPort},
			simulation.InterfaceSpec{MAC: l.to.mac, InterfaceID: l.toPort},
		)
	}

	return n, nil
}
