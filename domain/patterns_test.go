package domain_test

import (
	"lexgate/domain"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Patterns", func() {
	subject := domain.Subject{UserID: 100, Role: "lawyer"}

	Describe("MatchSubjectPattern", func() {
		It("should match a user pattern with the highest specificity", func() {
			spec, matched := domain.MatchSubjectPattern("user:100", subject)
			Expect(matched).To(BeTrue())
			Expect(spec).To(Equal(domain.SpecificityExact))

			_, matched = domain.MatchSubjectPattern("user:101", subject)
			Expect(matched).To(BeFalse())
		})
		It("should match a role pattern case-insensitively", func() {
			spec, matched := domain.MatchSubjectPattern("role:Lawyer", subject)
			Expect(matched).To(BeTrue())
			Expect(spec).To(Equal(domain.SpecificityWildcard))

			_, matched = domain.MatchSubjectPattern("role:admin", subject)
			Expect(matched).To(BeFalse())
		})
		It("should never match a role pattern for a subject without role", func() {
			_, matched := domain.MatchSubjectPattern("role:", domain.Subject{UserID: 1})
			Expect(matched).To(BeFalse())
		})
		It("should match the universal wildcard with zero specificity", func() {
			spec, matched := domain.MatchSubjectPattern("*", subject)
			Expect(matched).To(BeTrue())
			Expect(spec).To(Equal(domain.SpecificityAny))
		})
		It("should reject malformed patterns", func() {
			_, matched := domain.MatchSubjectPattern("user:abc", subject)
			Expect(matched).To(BeFalse())
			_, matched = domain.MatchSubjectPattern("lawyer", subject)
			Expect(matched).To(BeFalse())
		})
	})

	Describe("MatchResourcePattern", func() {
		resource := domain.Resource{Type: "cases", ID: "c42"}

		It("should match an exact id pattern first", func() {
			spec, matched := domain.MatchResourcePattern("cases:c42", resource)
			Expect(matched).To(BeTrue())
			Expect(spec).To(Equal(domain.SpecificityExact))

			_, matched = domain.MatchResourcePattern("cases:c43", resource)
			Expect(matched).To(BeFalse())
		})
		It("should match a type wildcard for any id of the type", func() {
			spec, matched := domain.MatchResourcePattern("cases:*", resource)
			Expect(matched).To(BeTrue())
			Expect(spec).To(Equal(domain.SpecificityWildcard))

			spec, matched = domain.MatchResourcePattern("cases", domain.Resource{Type: "cases"})
			Expect(matched).To(BeTrue())
			Expect(spec).To(Equal(domain.SpecificityWildcard))
		})
		It("should keep dotted module keys intact", func() {
			spec, matched := domain.MatchResourcePattern("finance.invoices:*", domain.Resource{Type: "finance.invoices", ID: "i1"})
			Expect(matched).To(BeTrue())
			Expect(spec).To(Equal(domain.SpecificityWildcard))
		})
		It("should match the universal wildcard with zero specificity", func() {
			spec, matched := domain.MatchResourcePattern("*", resource)
			Expect(matched).To(BeTrue())
			Expect(spec).To(Equal(domain.SpecificityAny))
		})
		It("should not match a different type", func() {
			_, matched := domain.MatchResourcePattern("clients:*", resource)
			Expect(matched).To(BeFalse())
		})
	})
})
