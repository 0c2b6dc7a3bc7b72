package evaluation

import (
	"sort"
	"time"

	"lexgate/bizerror"
	"lexgate/decisionlog"
	"lexgate/domain"
	"lexgate/grant"
	"lexgate/idgen"
	"lexgate/override"
	"lexgate/policy"
	"lexgate/roledefault"

	"github.com/fundwit/go-commons/types"
	"github.com/sony/sonyflake"
)

var (
	idWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	EvaluateFunc = Evaluate
)

// Evaluate turns an access request into an allow/deny decision. The stages
// short-circuit in precedence order: user override, named policies, resource
// grant, role defaults, default deny. Every evaluated request is queued to
// the decision log; log availability never affects the returned decision.
//
// A malformed request is an error, not a deny: the caller has a bug that must
// surface. A store outage with no cached snapshot is also an error, distinct
// from deny, and is never recorded as a decision.
func Evaluate(req *domain.AccessRequest) (*domain.Decision, error) {
	begin := time.Now()
	if req == nil || req.Subject.IsZero() || req.Resource.Type == "" || !req.Action.IsConcrete() {
		return nil, bizerror.ErrInvalidEvaluationRequest
	}

	decision, err := decide(req)
	if err != nil {
		return nil, err
	}

	decisionlog.AppendFunc(&decisionlog.PermissionDecision{
		ID:            idgen.NextID(idWorker),
		UserID:        req.Subject.UserID,
		Role:          req.Subject.Role,
		Action:        req.Action,
		ResourceType:  req.Resource.Type,
		ResourceID:    req.Resource.ID,
		Effect:        decision.Effect,
		ReasonCode:    decision.ReasonCode,
		MatchedRuleID: decision.MatchedRuleID,
		EvaluatedAt:   types.CurrentTimestamp(),
		LatencyMicros: time.Since(begin).Microseconds(),
	})
	return decision, nil
}

func decide(req *domain.AccessRequest) (*domain.Decision, error) {
	// stage 1: user override, the single most specific signal in the system
	if o, err := findOverride(req); err != nil {
		return nil, err
	} else if o != nil {
		if o.Action.Denies() {
			return &domain.Decision{Effect: domain.EffectDeny, ReasonCode: domain.ReasonUserOverrideDeny, MatchedRuleID: o.ID}, nil
		}
		return &domain.Decision{Effect: domain.EffectAllow, ReasonCode: domain.ReasonUserOverrideGrant, MatchedRuleID: o.ID}, nil
	}

	// stage 2: named policies
	matching, err := policy.ListActivePoliciesFunc(req.Subject, req.Resource, req.Action)
	if err != nil {
		return nil, err
	}
	if top := RankPolicies(matching, req); top != nil {
		return &domain.Decision{Effect: top.Effect, ReasonCode: domain.ReasonPolicyMatch, MatchedRuleID: top.ID}, nil
	}

	// stage 3: direct resource grant
	if req.Resource.ID != "" {
		g, err := grant.FindGrantFunc(req.Subject.UserID, req.Resource.Type, req.Resource.ID)
		if err != nil {
			return nil, err
		}
		if g != nil && g.Role.Allows(req.Action) {
			return &domain.Decision{Effect: domain.EffectAllow, ReasonCode: domain.ReasonResourceGrant, MatchedRuleID: g.ID}, nil
		}
	}

	// stage 4: static role defaults
	if maxAction, found := roledefault.MaxActionFunc(req.Subject.Role, req.Resource.Type); found &&
		maxAction.Covers(req.Action) {
		return &domain.Decision{Effect: domain.EffectAllow, ReasonCode: domain.ReasonRoleDefault}, nil
	}

	// stage 5: absence of a rule never implies access
	return &domain.Decision{Effect: domain.EffectDeny, ReasonCode: domain.ReasonNoMatchingRule}, nil
}

// findOverride consults the page namespace for every action and the sidebar
// namespace for view requests only. The namespaces are independent keys; a
// page entry is checked first because it binds the whole module.
func findOverride(req *domain.AccessRequest) (*override.UserOverride, error) {
	o, err := override.FindOverrideFunc(req.Subject.UserID, override.KindPage, req.Resource.Type)
	if err != nil || o != nil {
		return o, err
	}
	if req.Action == domain.ActionView {
		return override.FindOverrideFunc(req.Subject.UserID, override.KindSidebar, req.Resource.Type)
	}
	return nil, nil
}

type rankedPolicy struct {
	policy.Policy

	subjectSpecificity  int
	resourceSpecificity int
	actionSpecificity   int
}

// RankPolicies orders the matching policies and returns the authoritative
// one, or nil when none match. Ranking: priority descending, then pattern
// specificity (subject, resource, action), then deny over allow as the
// fail-safe tie-break, then the most recently updated policy.
func RankPolicies(matching []policy.Policy, req *domain.AccessRequest) *policy.Policy {
	ranked := make([]rankedPolicy, 0, len(matching))
	for _, p := range matching {
		subjectSpec, ok := domain.MatchSubjectPattern(p.SubjectPattern, req.Subject)
		if !ok {
			continue
		}
		resourceSpec, ok := domain.MatchResourcePattern(p.ResourcePattern, req.Resource)
		if !ok {
			continue
		}
		actionSpec, ok := domain.MatchPolicyAction(p.Action, req.Action)
		if !ok {
			continue
		}
		ranked = append(ranked, rankedPolicy{Policy: p,
			subjectSpecificity: subjectSpec, resourceSpecificity: resourceSpec, actionSpecificity: actionSpec})
	}
	if len(ranked) == 0 {
		return nil
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.subjectSpecificity != b.subjectSpecificity {
			return a.subjectSpecificity > b.subjectSpecificity
		}
		if a.resourceSpecificity != b.resourceSpecificity {
			return a.resourceSpecificity > b.resourceSpecificity
		}
		if a.actionSpecificity != b.actionSpecificity {
			return a.actionSpecificity > b.actionSpecificity
		}
		if a.Effect != b.Effect {
			return a.Effect == domain.EffectDeny
		}
		return time.Time(a.UpdateTime).After(time.Time(b.UpdateTime))
	})

	top := ranked[0].Policy
	return &top
}
