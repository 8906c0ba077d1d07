package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("BufferImpl", func() {

	var (
		buf Buffer
	)

	BeforeEach(func() {
		buf = NewBuffer("Buf", 2)
	})

	It("should allow push and pop", func() {
		Expect(buf.Capacity()).To(Equal(2))
		Expect(buf.CanPush()).To(BeTrue())

		buf.Push(1)
		Expect(buf.CanPush()).To(BeTrue())
		Expect(buf.Size()).To(Equal(1))

		buf.Push(2)
		Expect(buf.CanPush()).To(BeFalse())
		Expect(buf.Size()).To(Equal(2))
		Expect(func() {
			buf.Push(3)
		}).To(Panic())

		Expect(buf.Peek()).To(Equal(1))
		Expect(buf.Pop()).To(Equal(1))
		Expect(buf.Size()).To(Equal(1))
		Expect(buf.Peek()).To(Equal(2))
		Expect(buf.Pop()).To(Equal(2))
		Expect(buf.Size()).To(Equal(0))
		Expect(buf.Peek()).To(BeNil())
		Expect(buf.Pop()).To(BeNil())
	})

	It("should clear", func() {
		buf.Push(2)
		Expect(buf.Size()).To(Equal(1))

		buf.Clear()

		Expect(buf.Size()).To(Equal(0))
		Expect(buf.Peek()).To(BeNil())
	})

	It("should never refuse a push when unbounded", func() {
		unbounded := NewBuffer("Unbounded", Unbounded)

		for i := 0; i < 1000; i++ {
			Expect(unbounded.CanPush()).To(BeTrue())
			unbounded.Push(i)
		}

		Expect(unbounded.Size()).To(Equal(1000))
		Expect(unbounded.Pop()).To(Equal(0))
	})

	It("should reject invalid names", func() {
		Expect(func() { NewBuffer("", 1) }).To(Panic())
		Expect(func() { NewBuffer("Bad Name", 1) }).To(Panic())
		Expect(func() { NewBuffer("Dev..Buf", 1) }).To(Panic())
	})

	It("should invoke hooks on push and pop", func() {
		mockCtrl := gomock.NewController(GinkgoT())
		defer mockCtrl.Finish()

		hook := NewMockHook(mockCtrl)
		buf.AcceptHook(hook)

		hook.EXPECT().Func(gomock.Any()).Do(func(ctx HookCtx) {
			Expect(ctx.Pos).To(Equal(HookPosBufPush))
			Expect(ctx.Item).To(Equal(7))
		})
		buf.Push(7)

		hook.EXPECT().Func(gomock.Any()).Do(func(ctx HookCtx) {
			Expect(ctx.Pos).To(Equal(HookPosBufPop))
			Expect(ctx.Item).To(Equal(7))
		})
		buf.Pop()
	})
})
