// Package endpoint provides hosts, the devices that originate and consume
// frames.
package endpoint

import (
	"context"
	"sync"

	"github.com/JamesHertz/the-internet-simulator/device"
	"github.com/JamesHertz/the-internet-simulator/ethernet"
	"github.com/JamesHertz/the-internet-simulator/sim"
)

// Comp is a host. It sends frames on request and keeps every frame addressed
// to it, or broadcast, that it receives.
type Comp struct {
	sim.HookableBase

	name    string
	address ethernet.MacAddress
	module  *device.Module

	lock     sync.Mutex
	received []*ethernet.Frame
	arrival  chan struct{}
}

// Name returns the name of the host.
func (c *Comp) Name() string {
	return c.name
}

// MACAddress returns the address of the host.
func (c *Comp) MACAddress() ethernet.MacAddress {
	return c.address
}

// Module returns the interfaces and inbound queue of the host.
func (c *Comp) Module() *device.Module {
	return c.module
}

// Transmit sends a frame from this host out of interface 0.
func (c *Comp) Transmit(
	dst ethernet.MacAddress,
	protocol ethernet.Protocol,
	payload []byte,
) error {
	return c.TransmitOn(0, dst, protocol, payload)
}

// TransmitOn sends a frame from this host out of the given interface.
func (c *Comp) TransmitOn(
	interfaceID int,
	dst ethernet.MacAddress,
	protocol ethernet.Protocol,
	payload []byte,
) error {
	iface, err := c.module.Interface(interfaceID)
	if err != nil {
		return err
	}

	frame := &ethernet.Frame{
		Source:      c.address,
		Destination: dst,
		Protocol:    protocol,
		Payload:     payload,
	}
	data := ethernet.Encode(frame)

	err = iface.Send(data)
	if err != nil {
		c.fire(device.HookPosFrameSendError, device.FrameEvent{
			Ingress: -1,
			Egress:  []int{interfaceID},
			Frame:   frame,
			Data:    data,
			Err:     err,
		})

		return err
	}

	return nil
}

// Run consumes inbound frames until ctx is done.
func (c *Comp) Run(ctx context.Context) error {
	for {
		msg, err := c.module.WaitForMsg(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return err
		}

		c.handle(msg)
	}
}

func (c *Comp) handle(msg device.WireMsg) {
	frame, err := ethernet.Decode(msg.Data)
	if err != nil {
		c.fire(device.HookPosFrameParseError, device.FrameEvent{
			Ingress: msg.InterfaceID,
			Data:    msg.Data,
			Err:     err,
		})

		return
	}

	evt := device.FrameEvent{
		Ingress: msg.InterfaceID,
		Frame:   frame,
		Data:    msg.Data,
	}
	c.fire(device.HookPosFrameRecv, evt)

	if frame.Destination != c.address && !frame.Destination.IsBroadcast() {
		c.fire(device.HookPosFrameIgnore, evt)
		return
	}

	c.lock.Lock()
	c.received = append(c.received, frame)
	c.lock.Unlock()

	select {
	case c.arrival <- struct{}{}:
	default:
	}

	c.fire(device.HookPosFrameDeliver, evt)
}

// ReceivedFrames returns the frames delivered to this host so far, oldest
// first.
func (c *Comp) ReceivedFrames() []*ethernet.Frame {
	c.lock.Lock()
	defer c.lock.Unlock()

	return append([]*ethernet.Frame(nil), c.received...)
}

// NumReceived returns the number of frames delivered to this host.
func (c *Comp) NumReceived() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return len(c.received)
}

// WaitReceived blocks until at least n frames have been delivered or ctx is
// done.
func (c *Comp) WaitReceived(ctx context.Context, n int) error {
	for {
		if c.NumReceived() >= n {
			return nil
		}

		select {
		case <-c.arrival:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Comp) fire(pos *sim.HookPos, evt device.FrameEvent) {
	if c.NumHooks() == 0 {
		return
	}

	evt.Device = c.address
	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    pos,
		Item:   evt,
	})
}

var _ device.Device = (*Comp)(nil)
