package ethernet_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/JamesHertz/the-internet-simulator/ethernet"
)

var _ = Describe("MacAddress", func() {
	DescribeTable("formatting",
		func(raw []byte, text string) {
			addr, err := ethernet.BuildMacAddress(raw)

			Expect(err).NotTo(HaveOccurred())
			Expect(addr.String()).To(Equal(text))

			parsed, err := ethernet.ParseMacAddress(text)
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(addr))
		},
		Entry("zero", []byte{0, 0, 0, 0, 0, 0}, "00:00:00:00:00:00"),
		Entry("broadcast",
			[]byte{255, 255, 255, 255, 255, 255}, "FF:FF:FF:FF:FF:FF"),
		Entry("repeated", []byte{16, 16, 16, 16, 16, 16}, "10:10:10:10:10:10"),
		Entry("mixed", []byte{255, 0, 32, 11, 0, 254}, "FF:00:20:0B:00:FE"),
	)

	It("should round trip any six bytes", func() {
		rng := rand.New(rand.NewSource(1))

		for i := 0; i < 500; i++ {
			raw := make([]byte, ethernet.MACAddrSize)
			rng.Read(raw)

			addr, err := ethernet.BuildMacAddress(raw)
			Expect(err).NotTo(HaveOccurred())
			Expect(addr.Bytes()).To(Equal(raw))

			parsed, err := ethernet.ParseMacAddress(addr.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(addr))
		}
	})

	It("should reject byte slices that are not six bytes long", func() {
		for _, n := range []int{0, 1, 3, 5, 7, 10} {
			_, err := ethernet.BuildMacAddress(make([]byte, n))

			Expect(err).To(MatchError(ethernet.ErrInvalidMacAddress))
		}
	})

	DescribeTable("rejecting malformed text",
		func(text string) {
			_, err := ethernet.ParseMacAddress(text)

			Expect(err).To(MatchError(ethernet.ErrInvalidMacAddress))
		},
		Entry("empty", ""),
		Entry("short", "00:00:00:00:00"),
		Entry("long", "00:00:00:00:00:00:"),
		Entry("non hex", "0G:00:00:00:00:00"),
		Entry("dashes", "00-00-00-00-00-00"),
		Entry("uneven groups", "000:00:00:00:0:00"),
		Entry("signed group", "+1:00:00:00:00:00"),
	)

	It("should accept lower case hex", func() {
		addr, err := ethernet.ParseMacAddress("0a:bc:de:f0:12:34")

		Expect(err).NotTo(HaveOccurred())
		Expect(addr.String()).To(Equal("0A:BC:DE:F0:12:34"))
	})

	It("should tell broadcast addresses", func() {
		Expect(ethernet.BroadcastMAC.IsBroadcast()).To(BeTrue())
		Expect(ethernet.MustParseMacAddress("FF:FF:FF:FF:FF:FE").IsBroadcast()).
			To(BeFalse())
	})

	It("should unmarshal text", func() {
		var addr ethernet.MacAddress

		err := addr.UnmarshalText([]byte("02:00:00:00:00:01"))

		Expect(err).NotTo(HaveOccurred())
		Expect(addr).To(Equal(ethernet.MacAddress{2, 0, 0, 0, 0, 1}))
	})
})
