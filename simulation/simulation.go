// Package simulation provides the Simulator, which owns the devices of a
// network and the links between them.
package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/JamesHertz/the-internet-simulator/device"
	"github.com/JamesHertz/the-internet-simulator/ethernet"
	"github.com/JamesHertz/the-internet-simulator/link"
	"github.com/JamesHertz/the-internet-simulator/sim"
)

// Hook positions of the simulator. Both fire on the goroutine of the device,
// so hooks attached to the simulator must be safe for concurrent use. The
// Item is the device.
var (
	HookPosDeviceStart = &sim.HookPos{Name: "Device Start"}
	HookPosDeviceStop  = &sim.HookPos{Name: "Device Stop"}
)

// InterfaceSpec names one interface of one device.
type InterfaceSpec struct {
	MAC         ethernet.MacAddress
	InterfaceID int
}

func (s InterfaceSpec) String() string {
	return fmt.Sprintf("%s.%d", s.MAC, s.InterfaceID)
}

// LinkSpec is a link waiting to be created when the simulator runs.
type LinkSpec struct {
	From InterfaceSpec
	To   InterfaceSpec
}

// A Simulator registers devices and the links between them, and runs every
// device on its own goroutine.
type Simulator struct {
	sim.HookableBase

	id     string
	logger *slog.Logger

	lock        sync.Mutex
	devices     []device.Device
	deviceIndex map[ethernet.MacAddress]int
	linkSpecs   []LinkSpec
	frameHooks  []sim.Hook
	started     bool
}

// NewSimulator creates a simulator with a new id and no logging.
func NewSimulator() *Simulator {
	return MakeBuilder().Build()
}

// ID returns the id of the simulator.
func (s *Simulator) ID() string {
	return s.id
}

// AddDevice registers a device. It panics if another device with the same
// MAC address is registered or if the simulator is already running.
func (s *Simulator) AddDevice(d device.Device) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.mustNotHaveStarted("add device " + d.Name())

	mac := d.MACAddress()
	if _, found := s.deviceIndex[mac]; found {
		panic(fmt.Sprintf("device with MAC %s already registered", mac))
	}

	s.devices = append(s.devices, d)
	s.deviceIndex[mac] = len(s.devices) - 1

	if h, ok := d.(sim.Hookable); ok {
		for _, hook := range s.frameHooks {
			h.AcceptHook(hook)
		}
	}
}

// AddLink records a link between two interfaces. The link is only checked and
// created when the simulator runs.
func (s *Simulator) AddLink(from, to InterfaceSpec) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.mustNotHaveStarted(fmt.Sprintf("add link %s-%s", from, to))

	s.linkSpecs = append(s.linkSpecs, LinkSpec{From: from, To: to})
}

// AcceptFrameHook attaches the hook to every hookable device, including the
// devices added later. It panics once the simulator runs.
func (s *Simulator) AcceptFrameHook(hook sim.Hook) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.mustNotHaveStarted("accept frame hook")

	s.frameHooks = append(s.frameHooks, hook)

	for _, d := range s.devices {
		if h, ok := d.(sim.Hookable); ok {
			h.AcceptHook(hook)
		}
	}
}

// Device returns the device with the given MAC address.
func (s *Simulator) Device(mac ethernet.MacAddress) (device.Device, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	i, found := s.deviceIndex[mac]
	if !found {
		return nil, false
	}

	return s.devices[i], true
}

// Devices returns all devices in registration order.
func (s *Simulator) Devices() []device.Device {
	s.lock.Lock()
	defer s.lock.Unlock()

	return append([]device.Device(nil), s.devices...)
}

// Links returns the recorded links in registration order.
func (s *Simulator) Links() []LinkSpec {
	s.lock.Lock()
	defer s.lock.Unlock()

	return append([]LinkSpec(nil), s.linkSpecs...)
}

// Run creates the links, then runs every device until all of them return. The
// errors the devices return are collected into one. A simulator can only run
// once.
func (s *Simulator) Run(ctx context.Context) error {
	devices := s.start()

	s.createNetwork()

	s.logger.Info("simulation started",
		slog.String("id", s.id),
		slog.Int("devices", len(devices)),
		slog.Int("links", len(s.linkSpecs)))

	var g multierror.Group
	for _, d := range devices {
		d := d
		g.Go(func() error {
			return s.runDevice(ctx, d)
		})
	}

	err := g.Wait().ErrorOrNil()

	s.logger.Info("simulation stopped", slog.String("id", s.id))

	return err
}

func (s *Simulator) start() []device.Device {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.mustNotHaveStarted("run")
	s.started = true

	return append([]device.Device(nil), s.devices...)
}

func (s *Simulator) runDevice(ctx context.Context, d device.Device) error {
	s.InvokeHook(sim.HookCtx{Domain: s, Pos: HookPosDeviceStart, Item: d})
	s.logger.Debug("device started",
		slog.String("device", d.Name()),
		slog.String("mac", d.MACAddress().String()))

	err := d.Run(ctx)

	s.InvokeHook(sim.HookCtx{
		Domain: s,
		Pos:    HookPosDeviceStop,
		Item:   d,
		Detail: err,
	})

	if err != nil {
		s.logger.Error("device failed",
			slog.String("device", d.Name()),
			slog.String("err", err.Error()))

		return fmt.Errorf("device %s: %w", d.Name(), err)
	}

	s.logger.Debug("device stopped", slog.String("device", d.Name()))

	return nil
}

func (s *Simulator) createNetwork() {
	for _, spec := range s.linkSpecs {
		from := s.mustFindDevice(spec.From)
		to := s.mustFindDevice(spec.To)

		first, second := link.New(fmt.Sprintf("%s.%d-%s.%d",
			from.Name(), spec.From.InterfaceID,
			to.Name(), spec.To.InterfaceID))

		from.Module().AttachLink(spec.From.InterfaceID, first)
		to.Module().AttachLink(spec.To.InterfaceID, second)
	}
}

func (s *Simulator) mustFindDevice(spec InterfaceSpec) device.Device {
	i, found := s.deviceIndex[spec.MAC]
	if !found {
		panic(fmt.Sprintf("link references unknown device %s", spec.MAC))
	}

	return s.devices[i]
}

func (s *Simulator) mustNotHaveStarted(action string) {
	if s.started {
		panic(fmt.Sprintf("simulator %s: cannot %s after run", s.id, action))
	}
}
