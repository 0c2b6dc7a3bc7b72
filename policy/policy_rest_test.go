package policy_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"lexgate/bizerror"
	"lexgate/domain"
	"lexgate/policy"
	"lexgate/session"
	"lexgate/testinfra"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
)

func TestPoliciesRestAPI(t *testing.T) {
	RegisterTestingT(t)

	var secCtx *session.Session
	router := gin.Default()
	router.Use(func(c *gin.Context) {
		session.InjectSessionIntoGinContext(c, secCtx)
	}, bizerror.ErrorHandling())
	policy.RegisterPoliciesRestAPI(router)

	defer func() {
		policy.QueryPoliciesFunc = policy.QueryPolicies
		policy.CreatePolicyFunc = policy.CreatePolicy
		policy.UpdatePolicyFunc = policy.UpdatePolicy
		policy.DeletePolicyFunc = policy.DeletePolicy
	}()

	demoTime := types.TimestampOfDate(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	demoPolicy := policy.Policy{
		ID: 123, SubjectPattern: "role:lawyer", ResourcePattern: "cases:*",
		Action: domain.ActionEdit, Effect: domain.EffectAllow, Priority: 10, Enabled: true,
		CreateTime: demoTime, UpdateTime: demoTime,
	}

	t.Run("should be able to query policies", func(t *testing.T) {
		secCtx = testinfra.BuildSecCtx(1, domain.RoleAdmin)
		policy.QueryPoliciesFunc = func(sec *session.Session) ([]policy.Policy, error) {
			return []policy.Policy{demoPolicy}, nil
		}

		req, _ := http.NewRequest(http.MethodGet, policy.PathPolicies, nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		expected, err := json.Marshal([]policy.Policy{demoPolicy})
		Expect(err).To(BeNil())
		Expect(body).To(MatchJSON(expected))
	})

	t.Run("should be able to create a policy", func(t *testing.T) {
		secCtx = testinfra.BuildSecCtx(1, domain.RoleAdmin)
		var received *policy.PolicyCreation
		policy.CreatePolicyFunc = func(c *policy.PolicyCreation, sec *session.Session) (*policy.Policy, error) {
			received = c
			return &demoPolicy, nil
		}

		req, _ := http.NewRequest(http.MethodPost, policy.PathPolicies, bytes.NewReader([]byte(
			`{"subjectPattern":"role:lawyer","resourcePattern":"cases:*","action":"edit","effect":"allow","priority":10}`)))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusCreated))
		expected, err := json.Marshal(demoPolicy)
		Expect(err).To(BeNil())
		Expect(body).To(MatchJSON(expected))
		Expect(received.SubjectPattern).To(Equal("role:lawyer"))
		Expect(received.Priority).To(Equal(10))
	})

	t.Run("should return 400 when creation validation fails", func(t *testing.T) {
		secCtx = testinfra.BuildSecCtx(1, domain.RoleAdmin)
		req, _ := http.NewRequest(http.MethodPost, policy.PathPolicies, bytes.NewReader([]byte(
			`{"subjectPattern":"role:lawyer","action":"edit","effect":"allow","priority":10}`)))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(ContainSubstring(`"code":"bad_request.validation_failed"`))
	})

	t.Run("should be able to update a policy", func(t *testing.T) {
		secCtx = testinfra.BuildSecCtx(1, domain.RoleAdmin)
		var receivedId types.ID
		policy.UpdatePolicyFunc = func(id types.ID, u *policy.PolicyUpdating, sec *session.Session) (*policy.Policy, error) {
			receivedId = id
			return &demoPolicy, nil
		}

		req, _ := http.NewRequest(http.MethodPut, policy.PathPolicies+"/123", bytes.NewReader([]byte(
			`{"subjectPattern":"role:lawyer","resourcePattern":"cases:*","action":"edit",
			  "effect":"allow","priority":10,"enabled":true}`)))
		status, _, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(receivedId).To(Equal(types.ID(123)))
	})

	t.Run("should be able to delete a policy", func(t *testing.T) {
		secCtx = testinfra.BuildSecCtx(1, domain.RoleAdmin)
		var receivedId types.ID
		policy.DeletePolicyFunc = func(id types.ID, sec *session.Session) error {
			receivedId = id
			return nil
		}

		req, _ := http.NewRequest(http.MethodDelete, policy.PathPolicies+"/123", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusNoContent))
		Expect(body).To(BeEmpty())
		Expect(receivedId).To(Equal(types.ID(123)))
	})

	t.Run("non-admins should be rejected", func(t *testing.T) {
		secCtx = testinfra.BuildSecCtx(30, domain.RoleLawyer)
		policy.QueryPoliciesFunc = policy.QueryPolicies
		// QueryPolicies itself enforces the admin check before touching storage
		req, _ := http.NewRequest(http.MethodGet, policy.PathPolicies, nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusForbidden))
		Expect(body).To(MatchJSON(`{"code":"security.forbidden","message":"access forbidden","data":null}`))
	})
}
