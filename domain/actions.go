package domain

// Action is the closed set of operations a caller may request on a resource.
// AnyAction is only legal inside a policy pattern, never in an access request.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionManage Action = "manage"

	AnyAction Action = "*"
)

var actionRanks = map[Action]int{
	ActionView:   1,
	ActionCreate: 2,
	ActionEdit:   3,
	ActionDelete: 4,
	ActionManage: 5,
}

// ParseAction accepts the five concrete actions of an access request.
func ParseAction(value string) (Action, error) {
	a := Action(value)
	if _, found := actionRanks[a]; !found {
		return "", ErrUnknownAction
	}
	return a, nil
}

// ParsePolicyAction additionally accepts the "*" wildcard.
func ParsePolicyAction(value string) (Action, error) {
	if Action(value) == AnyAction {
		return AnyAction, nil
	}
	return ParseAction(value)
}

func (a Action) IsConcrete() bool {
	_, found := actionRanks[a]
	return found
}

// Covers reports whether a as a maximum action includes the requested action,
// following the ordered closure view ⊂ create ⊂ edit ⊂ delete ⊂ manage.
func (a Action) Covers(requested Action) bool {
	maxRank, found := actionRanks[a]
	if !found {
		return false
	}
	reqRank, found := actionRanks[requested]
	if !found {
		return false
	}
	return maxRank >= reqRank
}

// MatchPolicyAction reports whether a policy action pattern matches the
// requested action, with the specificity of the match: an exact action (2)
// outranks manage (1), which outranks the "*" wildcard (0). Apart from manage
// and "*", a policy action only matches itself.
func MatchPolicyAction(policyAction, requested Action) (specificity int, matched bool) {
	switch {
	case policyAction == requested:
		return 2, true
	case policyAction == ActionManage:
		return 1, true
	case policyAction == AnyAction:
		return 0, true
	}
	return 0, false
}

type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

func ParseEffect(value string) (Effect, error) {
	e := Effect(value)
	if e != EffectAllow && e != EffectDeny {
		return "", ErrUnknownEffect
	}
	return e, nil
}

// ReasonCode is the stable vocabulary callers may compare against, but never parse.
type ReasonCode string

const (
	ReasonUserOverrideDeny  ReasonCode = "user_override_deny"
	ReasonUserOverrideGrant ReasonCode = "user_override_grant"
	ReasonPolicyMatch       ReasonCode = "policy_match"
	ReasonResourceGrant     ReasonCode = "resource_grant"
	ReasonRoleDefault       ReasonCode = "role_default"
	ReasonNoMatchingRule    ReasonCode = "no_matching_rule"
)
