package ethernet_test

import (
	"bytes"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/JamesHertz/the-internet-simulator/ethernet"
)

func header(protocol uint16) []byte {
	buf := append(bytes.Repeat([]byte{10}, 6), bytes.Repeat([]byte{11}, 6)...)
	return append(buf, byte(protocol>>8), byte(protocol))
}

var _ = Describe("Frame", func() {
	var (
		src = ethernet.MacAddress{10, 10, 10, 10, 10, 10}
		dst = ethernet.BroadcastMAC
	)

	It("should encode with the documented layout", func() {
		f := &ethernet.Frame{
			Source:      src,
			Destination: dst,
			Protocol:    ethernet.ProtocolARP,
			Payload:     []byte{1, 2, 3},
		}

		data := ethernet.Encode(f)

		Expect(data).To(HaveLen(18 + 3))
		Expect(data[0:6]).To(Equal(src.Bytes()))
		Expect(data[6:12]).To(Equal(dst.Bytes()))
		Expect(data[12:14]).To(Equal([]byte{0x08, 0x06}))
		Expect(data[14:17]).To(Equal([]byte{1, 2, 3}))
		Expect(data[17:]).To(Equal([]byte{0, 0, 0, 0}))
	})

	It("should round trip", func() {
		original := &ethernet.Frame{
			Source:      src,
			Destination: dst,
			Protocol:    ethernet.ProtocolIPv4,
			Payload:     bytes.Repeat([]byte{200}, 512),
		}

		frame, err := ethernet.Decode(ethernet.Encode(original))

		Expect(err).NotTo(HaveOccurred())
		Expect(frame).To(Equal(original))
	})

	It("should round trip random frames", func() {
		rng := rand.New(rand.NewSource(7))
		protocols := []ethernet.Protocol{
			ethernet.ProtocolIPv4, ethernet.ProtocolARP,
		}

		for i := 0; i < 200; i++ {
			f := &ethernet.Frame{Protocol: protocols[rng.Intn(2)]}
			rng.Read(f.Source[:])
			rng.Read(f.Destination[:])
			f.Payload = make([]byte, 1+rng.Intn(1500))
			rng.Read(f.Payload)

			decoded, err := ethernet.Decode(ethernet.Encode(f))

			Expect(err).NotTo(HaveOccurred())
			Expect(decoded).To(Equal(f))
		}
	})

	It("should decode an empty payload", func() {
		f := &ethernet.Frame{Source: src, Destination: dst,
			Protocol: ethernet.ProtocolARP}

		decoded, err := ethernet.Decode(ethernet.Encode(f))

		Expect(err).NotTo(HaveOccurred())
		Expect(decoded.Payload).To(BeEmpty())
		Expect(decoded.Source).To(Equal(src))
	})

	It("should not alias the input buffer", func() {
		data := ethernet.Encode(&ethernet.Frame{
			Source: src, Destination: dst,
			Protocol: ethernet.ProtocolIPv4, Payload: []byte{1},
		})

		frame, err := ethernet.Decode(data)
		Expect(err).NotTo(HaveOccurred())

		data[14] = 99
		Expect(frame.Payload).To(Equal([]byte{1}))
	})

	DescribeTable("missing bytes",
		func(data []byte) {
			_, err := ethernet.Decode(data)

			Expect(err).To(MatchError(ethernet.ErrMissingBytes))
		},
		Entry("empty buffer", []byte{}),
		Entry("partial destination", make([]byte, 10)),
		Entry("partial protocol", make([]byte, 13)),
		Entry("no trailer", header(0x0806)),
		Entry("short trailer", append(header(0x0806), 0, 0)),
	)

	It("should reject unknown protocols", func() {
		data := append(header(0), make([]byte, 10)...)

		_, err := ethernet.Decode(data)

		var fieldErr *ethernet.InvalidFieldValueError
		Expect(err).To(BeAssignableToTypeOf(fieldErr))
		Expect(err).To(Equal(&ethernet.InvalidFieldValueError{
			Field: "protocol",
			Value: 0,
		}))
	})

	It("should strip the trailer without checking it", func() {
		data := append(header(0x0800), 7, 1, 2, 3, 4)

		frame, err := ethernet.Decode(data)

		Expect(err).NotTo(HaveOccurred())
		Expect(frame.Payload).To(Equal([]byte{7}))
	})

	It("should peek the destination", func() {
		data := ethernet.Encode(&ethernet.Frame{
			Source: src, Destination: dst, Protocol: ethernet.ProtocolIPv4,
		})

		peeked, err := ethernet.PeekDestination(data)

		Expect(err).NotTo(HaveOccurred())
		Expect(peeked).To(Equal(dst))

		_, err = ethernet.PeekDestination(data[:8])
		Expect(err).To(MatchError(ethernet.ErrMissingBytes))
	})

	It("should print protocols", func() {
		Expect(ethernet.ProtocolIPv4.String()).To(Equal("IPv4"))
		Expect(ethernet.ProtocolARP.String()).To(Equal("ARP"))
		Expect(ethernet.Protocol(0x86dd).String()).To(Equal("Protocol(0x86dd)"))
	})
})
