package policy_test

import (
	"errors"
	"testing"
	"time"

	"lexgate/bizerror"
	"lexgate/domain"
	"lexgate/policy"
	"lexgate/testinfra"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func TestUpdatePolicyValidation(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should reject an update without the enabled flag", func(t *testing.T) {
		sec := testinfra.BuildSecCtx(1, domain.RoleAdmin)
		record, err := policy.UpdatePolicy(123, &policy.PolicyUpdating{
			SubjectPattern: "role:lawyer", ResourcePattern: "cases:*",
			Action: "edit", Effect: "allow", Priority: 10,
		}, sec)
		Expect(record).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrMissingRequiredField))
	})

	t.Run("should reject a non-admin session before anything else", func(t *testing.T) {
		sec := testinfra.BuildSecCtx(30, domain.RoleLawyer)
		record, err := policy.UpdatePolicy(123, &policy.PolicyUpdating{}, sec)
		Expect(record).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})
}

func TestListActivePolicies(t *testing.T) {
	RegisterTestingT(t)

	originLoad := policy.LoadEnabledPoliciesFunc
	defer func() {
		policy.LoadEnabledPoliciesFunc = originLoad
		policy.ClearCaches()
	}()

	subject := domain.Subject{UserID: 5, Role: domain.RoleLawyer}
	resource := domain.Resource{Type: "cases", ID: "c42"}

	t.Run("should keep only the policies able to match the request", func(t *testing.T) {
		policy.ClearCaches()
		policy.LoadEnabledPoliciesFunc = func() ([]policy.Policy, error) {
			return []policy.Policy{
				{ID: 1, SubjectPattern: "role:lawyer", ResourcePattern: "cases:*", Action: domain.ActionEdit, Effect: domain.EffectAllow, Priority: 10},
				{ID: 2, SubjectPattern: "role:accountant", ResourcePattern: "cases:*", Action: domain.ActionEdit, Effect: domain.EffectAllow, Priority: 10},
				{ID: 3, SubjectPattern: "user:5", ResourcePattern: "clients", Action: domain.ActionEdit, Effect: domain.EffectAllow, Priority: 10},
				{ID: 4, SubjectPattern: "*", ResourcePattern: "cases:c42", Action: domain.AnyAction, Effect: domain.EffectDeny, Priority: 10},
				{ID: 5, SubjectPattern: "user:5", ResourcePattern: "*", Action: domain.ActionDelete, Effect: domain.EffectAllow, Priority: 10},
			}, nil
		}

		matching, err := policy.ListActivePolicies(subject, resource, domain.ActionEdit)
		Expect(err).To(BeNil())
		ids := []types.ID{}
		for _, p := range matching {
			ids = append(ids, p.ID)
		}
		Expect(ids).To(Equal([]types.ID{1, 4}))
	})

	t.Run("should serve repeated reads from the snapshot cache", func(t *testing.T) {
		policy.ClearCaches()
		loadCount := 0
		policy.LoadEnabledPoliciesFunc = func() ([]policy.Policy, error) {
			loadCount++
			return []policy.Policy{}, nil
		}

		_, err := policy.ListActivePolicies(subject, resource, domain.ActionView)
		Expect(err).To(BeNil())
		_, err = policy.ListActivePolicies(subject, resource, domain.ActionEdit)
		Expect(err).To(BeNil())
		Expect(loadCount).To(Equal(1))
	})

	t.Run("should fall back to the last good snapshot when reload fails", func(t *testing.T) {
		policy.ClearCaches()
		policy.LoadEnabledPoliciesFunc = func() ([]policy.Policy, error) {
			return []policy.Policy{
				{ID: 9, SubjectPattern: "role:lawyer", ResourcePattern: "cases:*", Action: domain.ActionEdit, Effect: domain.EffectAllow, Priority: 10},
			}, nil
		}
		_, err := policy.ListActivePolicies(subject, resource, domain.ActionEdit)
		Expect(err).To(BeNil())

		policy.InvalidateCache()
		policy.LoadEnabledPoliciesFunc = func() ([]policy.Policy, error) {
			return nil, errors.New("connection refused")
		}

		matching, err := policy.ListActivePolicies(subject, resource, domain.ActionEdit)
		Expect(err).To(BeNil())
		Expect(len(matching)).To(Equal(1))
		Expect(matching[0].ID).To(Equal(types.ID(9)))
	})

	t.Run("should report unavailable when reload fails with no fallback", func(t *testing.T) {
		policy.ClearCaches()
		policy.LoadEnabledPoliciesFunc = func() ([]policy.Policy, error) {
			return nil, errors.New("connection refused")
		}

		matching, err := policy.ListActivePolicies(subject, resource, domain.ActionEdit)
		Expect(matching).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrEvaluationUnavailable))
	})

	t.Run("should give up on a reload that exceeds the timeout", func(t *testing.T) {
		policy.ClearCaches()
		originTimeout := policy.ReloadTimeout
		policy.ReloadTimeout = 10 * time.Millisecond
		defer func() {
			policy.ReloadTimeout = originTimeout
		}()

		policy.LoadEnabledPoliciesFunc = func() ([]policy.Policy, error) {
			time.Sleep(200 * time.Millisecond)
			return []policy.Policy{}, nil
		}

		matching, err := policy.ListActivePolicies(subject, resource, domain.ActionEdit)
		Expect(matching).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrEvaluationUnavailable))
	})
}
