// Package link provides point-to-point duplex links between device
// interfaces.
package link

import (
	"errors"
	"fmt"
	"sync"

	"github.com/JamesHertz/the-internet-simulator/sim"
)

var (
	// ErrLinkDown is returned when the far end has no receiver attached.
	ErrLinkDown = errors.New("link is down")

	// ErrReceiverAlreadyAttached is returned when a second receiver is
	// attached to the same end.
	ErrReceiverAlreadyAttached = errors.New("receiver already attached")
)

// HookPosLinkDeliver marks when a payload is handed to the far end's receiver.
var HookPosLinkDeliver = &sim.HookPos{Name: "Link Deliver"}

// EndID names one of the two ends of a link.
type EndID uint8

// The two ends of a link.
const (
	First EndID = iota
	Second
)

// Other returns the opposite end.
func (id EndID) Other() EndID {
	if id == First {
		return Second
	}

	return First
}

func (id EndID) String() string {
	if id == First {
		return "First"
	}

	return "Second"
}

// A Receiver accepts payloads delivered by a link. Deliver runs on the
// sender's goroutine and must only enqueue work; it must never block waiting
// for the receiving device.
type Receiver interface {
	Deliver(data []byte)
}

// A Link connects exactly two ends. Its receiver table is the only state
// shared between the devices on both sides.
type Link struct {
	sim.HookableBase

	lock      sync.Mutex
	name      string
	receivers [2]Receiver
}

// End is one side of a link. It is used to send and to register a receiver.
type End struct {
	link *Link
	id   EndID
}

// New creates a link and returns its two ends.
func New(name string) (*End, *End) {
	sim.NameMustBeValid(name)

	l := &Link{name: name}

	return &End{link: l, id: First}, &End{link: l, id: Second}
}

// Name returns the name of the link.
func (l *Link) Name() string {
	return l.name
}

// Attached tells if a receiver is registered on the given end.
func (l *Link) Attached(id EndID) bool {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.receivers[id] != nil
}

func (l *Link) attach(id EndID, r Receiver) error {
	if r == nil {
		panic("nil receiver")
	}

	l.lock.Lock()
	defer l.lock.Unlock()

	if l.receivers[id] != nil {
		return fmt.Errorf("%s.%s: %w", l.name, id, ErrReceiverAlreadyAttached)
	}

	l.receivers[id] = r

	return nil
}

// send looks the receiver up under the lock and delivers after releasing
// it, so a receiver may send on the same link again.
func (l *Link) send(from EndID, data []byte) error {
	to := from.Other()

	l.lock.Lock()
	r := l.receivers[to]
	l.lock.Unlock()

	if r == nil {
		return fmt.Errorf("%s.%s: %w", l.name, to, ErrLinkDown)
	}

	payload := append([]byte(nil), data...)
	r.Deliver(payload)

	if l.NumHooks() > 0 {
		l.InvokeHook(sim.HookCtx{
			Domain: l,
			Pos:    HookPosLinkDeliver,
			Item:   payload,
			Detail: to,
		})
	}

	return nil
}

// ID returns which end of the link this is.
func (e *End) ID() EndID {
	return e.id
}

// Link returns the link the end belongs to.
func (e *End) Link() *Link {
	return e.link
}

// Send delivers a copy of data to the receiver on the other end. It is safe
// to call from several goroutines.
func (e *End) Send(data []byte) error {
	return e.link.send(e.id, data)
}

// AttachReceiver registers the receiver of this end. It succeeds at most once
// per end.
func (e *End) AttachReceiver(r Receiver) error {
	return e.link.attach(e.id, r)
}
