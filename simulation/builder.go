package simulation

import (
	"log/slog"

	"github.com/rs/xid"

	"github.com/JamesHertz/the-internet-simulator/ethernet"
)

// Builder can be used to build a simulator.
type Builder struct {
	id     string
	logger *slog.Logger
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{}
}

// WithID sets the id of the simulator. A new xid is used if not given.
func (b Builder) WithID(id string) Builder {
	b.id = id
	return b
}

// WithLogger sets the logger the simulator reports its life cycle to.
func (b Builder) WithLogger(logger *slog.Logger) Builder {
	b.logger = logger
	return b
}

// Build builds the simulator.
func (b Builder) Build() *Simulator {
	s := &Simulator{
		id:          b.id,
		logger:      b.logger,
		deviceIndex: make(map[ethernet.MacAddress]int),
	}

	if s.id == "" {
		s.id = xid.New().String()
	}

	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}

	return s
}
