package traffic

import (
	"context"
	"fmt"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/JamesHertz/the-internet-simulator/device"
	"github.com/JamesHertz/the-internet-simulator/ethernet"
	"github.com/JamesHertz/the-internet-simulator/lan/endpoint"
	"github.com/JamesHertz/the-internet-simulator/lan/switches"
	"github.com/JamesHertz/the-internet-simulator/sim"
	"github.com/JamesHertz/the-internet-simulator/simulation"
)

func mac(i int) ethernet.MacAddress {
	return ethernet.MacAddress{0, 0, 0, 0, 0, byte(i)}
}

// twoSwitchTree connects hosts 0 and 1 to Switch0, hosts 2 and 3 to Switch1,
// and the two switches to each other.
func twoSwitchTree(
	s *simulation.Simulator,
) []*endpoint.Comp {
	sw0 := switches.MakeBuilder().
		WithAddress(mac(0xF0)).
		WithNumInterfaces(3).
		Build("Switch0")
	sw1 := switches.MakeBuilder().
		WithAddress(mac(0xF1)).
		WithNumInterfaces(3).
		Build("Switch1")
	s.AddDevice(sw0)
	s.AddDevice(sw1)
	s.AddLink(
		simulation.InterfaceSpec{MAC: sw0.MACAddress(), InterfaceID: 2},
		simulation.InterfaceSpec{MAC: sw1.MACAddress(), InterfaceID: 2},
	)

	var hosts []*endpoint.Comp
	for i := 0; i < 4; i++ {
		h := endpoint.MakeBuilder().
			WithAddress(mac(i + 1)).
			Build(fmt.Sprintf("Host%d", i))
		s.AddDevice(h)

		sw := sw0
		if i >= 2 {
			sw = sw1
		}

		s.AddLink(
			simulation.InterfaceSpec{MAC: h.MACAddress(), InterfaceID: 0},
			simulation.InterfaceSpec{MAC: sw.MACAddress(), InterfaceID: i % 2},
		)

		hosts = append(hosts, h)
	}

	return hosts
}

var _ = Describe("Test", func() {
	var (
		simulator *simulation.Simulator
		test      *Test
		hosts     []*endpoint.Comp
		ctx       context.Context
		cancel    context.CancelFunc
		done      chan error
	)

	BeforeEach(func() {
		simulator = simulation.NewSimulator()
		hosts = twoSwitchTree(simulator)

		test = NewTest(1).WithMaxPayload(64)
		for _, h := range hosts {
			test.RegisterHost(h)
		}

		started := make(chan struct{}, 6)
		simulator.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			if ctx.Pos == simulation.HookPosDeviceStart {
				started <- struct{}{}
			}
		}))

		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		done = make(chan error, 1)
		go func() {
			done <- simulator.Run(ctx)
		}()

		for i := 0; i < 6; i++ {
			Eventually(started).Should(Receive())
		}
	})

	AfterEach(func() {
		cancel()
		Eventually(done).Should(Receive(BeNil()))
	})

	It("should need two hosts", func() {
		t := NewTest(1)
		t.RegisterHost(endpoint.MakeBuilder().WithAddress(mac(9)).Build("H"))

		Expect(func() { t.GenerateMsgs(1) }).To(Panic())
	})

	It("should generate messages between distinct hosts", func() {
		test.GenerateMsgs(50)

		Expect(test.Msgs()).To(HaveLen(50))
		for _, msg := range test.Msgs() {
			Expect(msg.Src).NotTo(BeIdenticalTo(msg.Dst))
			Expect(len(msg.Payload)).To(BeNumerically("<=", len(msg.ID)+1+64))
		}
	})

	It("should deliver every message over a two-switch tree", func() {
		test.GenerateMsgs(200)

		Expect(test.Send()).To(Succeed())
		Expect(test.Wait(ctx)).To(Succeed())
		Expect(test.MustHaveReceivedAllMsgs()).To(Succeed())

		report := test.Report()
		Expect(report.Sent).To(Equal(200))
		Expect(report.Received).To(Equal(200))
		Expect(report.Duplicated).To(Equal(0))
		Expect(report.Misdelivered).To(Equal(0))
		Expect(report.Missing).To(BeEmpty())
	})

	It("should name the messages that did not arrive", func() {
		test.GenerateMsgs(3)

		waitCtx, waitCancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer waitCancel()

		Expect(test.Wait(waitCtx)).To(MatchError(context.DeadlineExceeded))

		err := test.MustHaveReceivedAllMsgs()
		Expect(err).To(HaveOccurred())
		for _, msg := range test.Msgs() {
			Expect(err.Error()).To(ContainSubstring(msg.ID))
		}
	})

	It("should report misdelivered and duplicated messages", func() {
		test.GenerateMsgs(1)
		msg := test.Msgs()[0]

		deliver := func(at ethernet.MacAddress) {
			test.Func(sim.HookCtx{
				Pos: device.HookPosFrameDeliver,
				Item: device.FrameEvent{
					Device: at,
					Frame: &ethernet.Frame{
						Source:      msg.Src.MACAddress(),
						Destination: msg.Dst.MACAddress(),
						Protocol:    ethernet.ProtocolIPv4,
						Payload:     msg.Payload,
					},
				},
			})
		}

		deliver(msg.Src.MACAddress())
		deliver(msg.Dst.MACAddress())
		deliver(msg.Dst.MACAddress())

		report := test.Report()
		Expect(report.Received).To(Equal(1))
		Expect(report.Misdelivered).To(Equal(1))
		Expect(report.Duplicated).To(Equal(1))
		Expect(test.MustHaveReceivedAllMsgs()).To(HaveOccurred())
	})
})

type countingProgress struct {
	lock                 sync.Mutex
	inProgress, finished uint64
}

func (p *countingProgress) IncrementInProgress(amount uint64) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.inProgress += amount
}

func (p *countingProgress) MoveInProgressToFinished(amount uint64) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.inProgress -= amount
	p.finished += amount
}

var _ = Describe("Progress", func() {
	It("should move delivered messages to finished", func() {
		simulator := simulation.NewSimulator()
		hosts := twoSwitchTree(simulator)

		progress := &countingProgress{}
		test := NewTest(7).WithProgress(progress)
		for _, h := range hosts {
			test.RegisterHost(h)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		done := make(chan error, 1)
		started := make(chan struct{}, 6)
		simulator.AcceptHook(sim.HookFunc(func(hc sim.HookCtx) {
			if hc.Pos == simulation.HookPosDeviceStart {
				started <- struct{}{}
			}
		}))
		go func() {
			done <- simulator.Run(ctx)
		}()
		for i := 0; i < 6; i++ {
			Eventually(started).Should(Receive())
		}

		test.GenerateMsgs(20)
		Expect(test.Send()).To(Succeed())
		Expect(test.Wait(ctx)).To(Succeed())

		progress.lock.Lock()
		Expect(progress.finished).To(Equal(uint64(20)))
		Expect(progress.inProgress).To(Equal(uint64(0)))
		progress.lock.Unlock()

		cancel()
		Eventually(done).Should(Receive(BeNil()))
	})
})
