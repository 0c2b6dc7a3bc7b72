package domain_test

import (
	"lexgate/domain"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Actions", func() {
	Describe("ParseAction", func() {
		It("should accept the five concrete actions", func() {
			for _, value := range []string{"view", "create", "edit", "delete", "manage"} {
				a, err := domain.ParseAction(value)
				Expect(err).To(BeNil())
				Expect(string(a)).To(Equal(value))
			}
		})
		It("should reject unknown actions and the wildcard", func() {
			_, err := domain.ParseAction("approve")
			Expect(err).To(Equal(domain.ErrUnknownAction))
			_, err = domain.ParseAction("*")
			Expect(err).To(Equal(domain.ErrUnknownAction))
			_, err = domain.ParseAction("")
			Expect(err).To(Equal(domain.ErrUnknownAction))
		})
	})

	Describe("ParsePolicyAction", func() {
		It("should accept the wildcard besides concrete actions", func() {
			a, err := domain.ParsePolicyAction("*")
			Expect(err).To(BeNil())
			Expect(a).To(Equal(domain.AnyAction))
			_, err = domain.ParsePolicyAction("approve")
			Expect(err).To(Equal(domain.ErrUnknownAction))
		})
	})

	Describe("Covers", func() {
		It("should follow the ordered action closure", func() {
			Expect(domain.ActionManage.Covers(domain.ActionDelete)).To(BeTrue())
			Expect(domain.ActionEdit.Covers(domain.ActionView)).To(BeTrue())
			Expect(domain.ActionEdit.Covers(domain.ActionCreate)).To(BeTrue())
			Expect(domain.ActionEdit.Covers(domain.ActionDelete)).To(BeFalse())
			Expect(domain.ActionView.Covers(domain.ActionView)).To(BeTrue())
			Expect(domain.ActionView.Covers(domain.ActionEdit)).To(BeFalse())
			Expect(domain.AnyAction.Covers(domain.ActionView)).To(BeFalse())
		})
	})

	Describe("MatchPolicyAction", func() {
		It("should rank exact above manage above wildcard", func() {
			spec, matched := domain.MatchPolicyAction(domain.ActionEdit, domain.ActionEdit)
			Expect(matched).To(BeTrue())
			Expect(spec).To(Equal(2))

			spec, matched = domain.MatchPolicyAction(domain.ActionManage, domain.ActionEdit)
			Expect(matched).To(BeTrue())
			Expect(spec).To(Equal(1))

			spec, matched = domain.MatchPolicyAction(domain.AnyAction, domain.ActionEdit)
			Expect(matched).To(BeTrue())
			Expect(spec).To(Equal(0))
		})
		It("should not match a different concrete action", func() {
			_, matched := domain.MatchPolicyAction(domain.ActionDelete, domain.ActionEdit)
			Expect(matched).To(BeFalse())
		})
	})

	Describe("ParseEffect", func() {
		It("should only accept allow and deny", func() {
			e, err := domain.ParseEffect("allow")
			Expect(err).To(BeNil())
			Expect(e).To(Equal(domain.EffectAllow))
			_, err = domain.ParseEffect("grant")
			Expect(err).To(Equal(domain.ErrUnknownEffect))
		})
	})
})
