package learning

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/JamesHertz/the-internet-simulator/ethernet"
)

var _ = Describe("Table", func() {
	var (
		t Table
		a = ethernet.MustParseMacAddress("00:00:00:00:00:0A")
		b = ethernet.MustParseMacAddress("00:00:00:00:00:0B")
	)

	BeforeEach(func() {
		t = NewTable()
	})

	It("should not find unknown addresses", func() {
		_, found := t.Lookup(a)

		Expect(found).To(BeFalse())
		Expect(t.Len()).To(Equal(0))
	})

	It("should find learned addresses", func() {
		t.Learn(a, 2)

		id, found := t.Lookup(a)

		Expect(found).To(BeTrue())
		Expect(id).To(Equal(2))
	})

	It("should keep the most recent sighting", func() {
		t.Learn(a, 2)
		t.Learn(a, 0)

		id, _ := t.Lookup(a)

		Expect(id).To(Equal(0))
		Expect(t.Len()).To(Equal(1))
	})

	It("should list entries ordered by address", func() {
		t.Learn(b, 1)
		t.Learn(a, 3)

		Expect(t.Entries()).To(Equal([]Mapping{
			{Address: a, InterfaceID: 3},
			{Address: b, InterfaceID: 1},
		}))
	})
})
