package expense

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Status", func() {
	Describe("Known", func() {
		It("recognizes the four lifecycle statuses", func() {
			Expect(StatusDraft.Known()).To(BeTrue())
			Expect(StatusSubmitted.Known()).To(BeTrue())
			Expect(StatusApproved.Known()).To(BeTrue())
			Expect(StatusRejected.Known()).To(BeTrue())
		})

		It("rejects anything else", func() {
			Expect(Status("archived").Known()).To(BeFalse())
			Expect(Status("").Known()).To(BeFalse())
		})
	})

	Describe("CanTransitionTo", func() {
		It("allows draft to move to submitted only", func() {
			Expect(StatusDraft.CanTransitionTo(StatusSubmitted)).To(BeTrue())
			Expect(StatusDraft.CanTransitionTo(StatusApproved)).To(BeFalse())
			Expect(StatusDraft.CanTransitionTo(StatusRejected)).To(BeFalse())
		})

		It("allows submitted to be approved or rejected", func() {
			Expect(StatusSubmitted.CanTransitionTo(StatusApproved)).To(BeTrue())
			Expect(StatusSubmitted.CanTransitionTo(StatusRejected)).To(BeTrue())
			Expect(StatusSubmitted.CanTransitionTo(StatusDraft)).To(BeFalse())
		})

		It("treats approved and rejected as terminal", func() {
			Expect(StatusApproved.CanTransitionTo(StatusSubmitted)).To(BeFalse())
			Expect(StatusRejected.CanTransitionTo(StatusSubmitted)).To(BeFalse())
		})
	})
})
