// Package device provides what every simulated device is made of: a Module
// with a fixed set of interfaces and one inbound queue.
package device

import (
	"context"

	"github.com/JamesHertz/the-internet-simulator/ethernet"
	"github.com/JamesHertz/the-internet-simulator/sim"
)

// A Device is anything the simulator can run.
type Device interface {
	sim.Named

	// MACAddress identifies the device in the simulated network.
	MACAddress() ethernet.MacAddress

	// Module returns the interfaces and inbound queue of the device.
	Module() *Module

	// Run executes the behavior loop of the device until ctx is done.
	Run(ctx context.Context) error
}

// Hook positions shared by all devices. Each frame a device handles fires
// HookPosFrameRecv (or HookPosFrameParseError) followed by exactly one
// decision position.
var (
	// HookPosFrameRecv marks a frame taken from the inbound queue and decoded.
	HookPosFrameRecv = &sim.HookPos{Name: "Frame Recv"}

	// HookPosFrameParseError marks a queued payload that is not a valid
	// frame. The payload is dropped.
	HookPosFrameParseError = &sim.HookPos{Name: "Frame Parse Error"}

	// HookPosFrameForward marks a frame sent out of a single interface.
	HookPosFrameForward = &sim.HookPos{Name: "Frame Forward"}

	// HookPosFrameFlood marks a frame sent out of every other interface.
	HookPosFrameFlood = &sim.HookPos{Name: "Frame Flood"}

	// HookPosFrameDrop marks a frame whose destination sits behind the
	// interface it arrived on.
	HookPosFrameDrop = &sim.HookPos{Name: "Frame Drop"}

	// HookPosFrameDeliver marks a frame accepted by its destination.
	HookPosFrameDeliver = &sim.HookPos{Name: "Frame Deliver"}

	// HookPosFrameIgnore marks a frame an endpoint received but that is not
	// addressed to it.
	HookPosFrameIgnore = &sim.HookPos{Name: "Frame Ignore"}

	// HookPosFrameSendError marks a failed send on an interface.
	HookPosFrameSendError = &sim.HookPos{Name: "Frame Send Error"}
)

// FrameEvent is the Item of every frame hook.
type FrameEvent struct {
	// Device is the address of the device raising the event.
	Device ethernet.MacAddress

	// Ingress is the interface the frame arrived on, or -1 for frames the
	// device originated.
	Ingress int

	// Egress lists the interfaces the frame was sent out of.
	Egress []int

	// Frame is nil when decoding failed.
	Frame *ethernet.Frame

	// Data is the raw payload as carried by the link.
	Data []byte

	// Err is set for parse and send errors.
	Err error
}
