// Package switches provides a MAC-learning switch.
package switches

import (
	"context"

	"github.com/JamesHertz/the-internet-simulator/device"
	"github.com/JamesHertz/the-internet-simulator/ethernet"
	"github.com/JamesHertz/the-internet-simulator/lan/learning"
	"github.com/JamesHertz/the-internet-simulator/sim"
)

// Comp is a switch that learns on which interface each source address lives
// and forwards frames accordingly. Frames for unknown destinations are flooded.
type Comp struct {
	sim.HookableBase

	name       string
	address    ethernet.MacAddress
	module     *device.Module
	learnTable learning.Table
}

// Name returns the name of the switch.
func (c *Comp) Name() string {
	return c.name
}

// MACAddress returns the address of the switch.
func (c *Comp) MACAddress() ethernet.MacAddress {
	return c.address
}

// Module returns the interfaces and inbound queue of the switch.
func (c *Comp) Module() *device.Module {
	return c.module
}

// LearnTable returns the learn table used by the switch.
func (c *Comp) LearnTable() learning.Table {
	return c.learnTable
}

// Run processes inbound frames until ctx is done.
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

	if !frame.Source.IsBroadcast() {
		c.learnTable.Learn(frame.Source, msg.InterfaceID)
	}

	out, found := c.learnTable.Lookup(frame.Destination)

	switch {
	case !found:
		c.flood(evt)
	case out == msg.InterfaceID:
		c.fire(device.HookPosFrameDrop, evt)
	default:
		c.forward(evt, out)
	}
}

func (c *Comp) forward(evt device.FrameEvent, out int) {
	iface, err := c.module.Interface(out)
	if err != nil {
		evt.Egress = []int{out}
		evt.Err = err
		c.fire(device.HookPosFrameSendError, evt)

		return
	}

	if !c.send(evt, iface) {
		return
	}

	evt.Egress = []int{out}
	c.fire(device.HookPosFrameForward, evt)
}

func (c *Comp) flood(evt device.FrameEvent) {
	evt.Egress = []int{}

	for _, iface := range c.module.Interfaces() {
		if iface.ID() == evt.Ingress || !iface.IsUp() {
			continue
		}

		if c.send(evt, iface) {
			evt.Egress = append(evt.Egress, iface.ID())
		}
	}

	c.fire(device.HookPosFrameFlood, evt)
}

func (c *Comp) send(evt device.FrameEvent, iface *device.Interface) bool {
	err := iface.Send(evt.Data)
	if err == nil {
		return true
	}

	evt.Egress = []int{iface.ID()}
	evt.Err = err
	c.fire(device.HookPosFrameSendError, evt)

	return false
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
