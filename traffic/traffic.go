// Package traffic sends frames between random pairs of hosts and checks that
// every frame arrives exactly once at the host it was sent to.
package traffic

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/JamesHertz/the-internet-simulator/device"
	"github.com/JamesHertz/the-internet-simulator/ethernet"
	"github.com/JamesHertz/the-internet-simulator/lan/endpoint"
	"github.com/JamesHertz/the-internet-simulator/sim"
)

const idSeparator = '|'

// Msg is one frame generated by a Test.
type Msg struct {
	ID       string
	Src, Dst *endpoint.Comp
	Payload  []byte
}

// Progress is told how many messages are in flight and delivered.
type Progress interface {
	IncrementInProgress(amount uint64)
	MoveInProgressToFinished(amount uint64)
}

// Summary holds the counts of a Test.
type Summary struct {
	Sent         int
	Received     int
	Duplicated   int
	Misdelivered int
	Missing      []string
}

// Test is a traffic test case. It is a hook and must be attached to every host
// it sends to.
type Test struct {
	rand       *rand.Rand
	maxPayload int
	logger     *slog.Logger
	progress   Progress

	hosts []*endpoint.Comp
	msgs  []*Msg

	lock         sync.Mutex
	msgTable     map[string]*Msg
	receivedMsgs map[string]bool
	errs         *multierror.Error
	duplicated   int
	misdelivered int
	arrival      chan struct{}
}

// NewTest creates a new test whose choices are driven by the seed.
func NewTest(seed int64) *Test {
	return &Test{
		rand:         rand.New(rand.NewSource(seed)),
		maxPayload:   1500,
		logger:       slog.New(slog.DiscardHandler),
		msgTable:     make(map[string]*Msg),
		receivedMsgs: make(map[string]bool),
		arrival:      make(chan struct{}, 1),
	}
}

// WithMaxPayload sets the largest payload size generated, in bytes.
func (t *Test) WithMaxPayload(n int) *Test {
	t.maxPayload = n
	return t
}

// WithLogger sets the logger the test reports to.
func (t *Test) WithLogger(logger *slog.Logger) *Test {
	t.logger = logger
	return t
}

// WithProgress sets where the test reports its progress.
func (t *Test) WithProgress(p Progress) *Test {
	t.progress = p
	return t
}

// RegisterHost adds a host to the Test and attaches the test to it.
func (t *Test) RegisterHost(h *endpoint.Comp) {
	t.hosts = append(t.hosts, h)
	h.AcceptHook(t)
}

// Msgs returns the generated messages.
func (t *Test) Msgs() []*Msg {
	return t.msgs
}

// GenerateMsgs generates n messages from a random host to a random other host.
func (t *Test) GenerateMsgs(n int) {
	if len(t.hosts) < 2 {
		panic("traffic test requires at least two hosts")
	}

	for i := 0; i < n; i++ {
		srcID := t.rand.Intn(len(t.hosts))

		dstID := t.rand.Intn(len(t.hosts))
		for dstID == srcID {
			dstID = t.rand.Intn(len(t.hosts))
		}

		msg := &Msg{
			ID:  sim.GetIDGenerator().Generate(),
			Src: t.hosts[srcID],
			Dst: t.hosts[dstID],
		}

		padding := make([]byte, t.rand.Intn(t.maxPayload+1))
		t.rand.Read(padding)
		msg.Payload = append([]byte(msg.ID), idSeparator)
		msg.Payload = append(msg.Payload, padding...)

		t.registerMsg(msg)
	}
}

func (t *Test) registerMsg(msg *Msg) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.msgs = append(t.msgs, msg)
	t.msgTable[msg.ID] = msg
}

// Send transmits every generated message from its source host.
func (t *Test) Send() error {
	for _, msg := range t.msgs {
		if t.progress != nil {
			t.progress.IncrementInProgress(1)
		}

		err := msg.Src.Transmit(
			msg.Dst.MACAddress(), ethernet.ProtocolIPv4, msg.Payload)
		if err != nil {
			return fmt.Errorf("msg %s: %w", msg.ID, err)
		}
	}

	t.logger.Info("traffic sent", slog.Int("msgs", len(t.msgs)))

	return nil
}

// Func marks the messages delivered to hosts as received.
func (t *Test) Func(ctx sim.HookCtx) {
	if ctx.Pos != device.HookPosFrameDeliver {
		return
	}

	evt, ok := ctx.Item.(device.FrameEvent)
	if !ok || evt.Frame == nil {
		return
	}

	t.receiveMsg(evt.Frame, evt.Device)
}

func (t *Test) receiveMsg(frame *ethernet.Frame, at ethernet.MacAddress) {
	id, _, found := bytes.Cut(frame.Payload, []byte{idSeparator})
	if !found {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	msg, known := t.msgTable[string(id)]
	if !known {
		return
	}

	if msg.Dst.MACAddress() != at {
		t.misdelivered++
		t.errs = multierror.Append(t.errs,
			fmt.Errorf("msg %s: delivered to %s, sent to %s",
				msg.ID, at, msg.Dst.MACAddress()))

		return
	}

	if t.receivedMsgs[msg.ID] {
		t.duplicated++
		t.errs = multierror.Append(t.errs,
			fmt.Errorf("msg %s: delivered more than once", msg.ID))

		return
	}

	t.receivedMsgs[msg.ID] = true

	if t.progress != nil {
		t.progress.MoveInProgressToFinished(1)
	}

	select {
	case t.arrival <- struct{}{}:
	default:
	}
}

// Wait blocks until every message is received or ctx is done.
func (t *Test) Wait(ctx context.Context) error {
	for {
		if t.numReceived() == len(t.msgs) {
			return nil
		}

		select {
		case <-t.arrival:
		case <-ctx.Done():
			return fmt.Errorf("waiting for traffic: %w", ctx.Err())
		}
	}
}

func (t *Test) numReceived() int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return len(t.receivedMsgs)
}

// MustHaveReceivedAllMsgs returns an error naming every message not received
// and every misdelivery or duplicate observed.
func (t *Test) MustHaveReceivedAllMsgs() error {
	report := t.Report()

	var errs *multierror.Error

	t.lock.Lock()
	errs = multierror.Append(errs, t.errs)
	t.lock.Unlock()

	for _, id := range report.Missing {
		t.logger.Warn("msg expected, but not received", slog.String("msg", id))
		errs = multierror.Append(errs, fmt.Errorf("msg %s: not received", id))
	}

	return errs.ErrorOrNil()
}

// Report returns the counts observed so far.
func (t *Test) Report() Summary {
	t.lock.Lock()
	defer t.lock.Unlock()

	r := Summary{
		Sent:         len(t.msgs),
		Received:     len(t.receivedMsgs),
		Duplicated:   t.duplicated,
		Misdelivered: t.misdelivered,
	}

	for _, msg := range t.msgs {
		if !t.receivedMsgs[msg.ID] {
			r.Missing = append(r.Missing, msg.ID)
		}
	}

	return r
}
