package domain

import (
	"strings"

	"github.com/fundwit/go-commons/types"
)

// Pattern specificity: an exact match (2) outranks a role or type wildcard
// match (1), which outranks the universal "*" (0).
const (
	SpecificityExact    = 2
	SpecificityWildcard = 1
	SpecificityAny      = 0
)

const (
	subjectUserPrefix = "user:"
	subjectRolePrefix = "role:"
)

// MatchSubjectPattern matches a policy subject pattern ("user:<id>",
// "role:<role>" or "*") against a subject.
func MatchSubjectPattern(pattern string, subject Subject) (specificity int, matched bool) {
	if pattern == "*" {
		return SpecificityAny, true
	}
	if strings.HasPrefix(pattern, subjectUserPrefix) {
		id, err := types.ParseID(pattern[len(subjectUserPrefix):])
		if err != nil {
			return 0, false
		}
		if id == subject.UserID {
			return SpecificityExact, true
		}
		return 0, false
	}
	if strings.HasPrefix(pattern, subjectRolePrefix) {
		if subject.Role != "" && strings.EqualFold(pattern[len(subjectRolePrefix):], subject.Role) {
			return SpecificityWildcard, true
		}
		return 0, false
	}
	return 0, false
}

// MatchResourcePattern matches a policy resource pattern ("<type>:<id>",
// "<type>:*", bare "<type>" or "*") against a resource.
func MatchResourcePattern(pattern string, resource Resource) (specificity int, matched bool) {
	if pattern == "*" {
		return SpecificityAny, true
	}
	patternType := pattern
	patternId := "*"
	if idx := strings.LastIndex(pattern, ":"); idx >= 0 {
		patternType = pattern[0:idx]
		patternId = pattern[idx+1:]
	}
	if !strings.EqualFold(patternType, resource.Type) {
		return 0, false
	}
	if patternId == "*" {
		return SpecificityWildcard, true
	}
	if resource.ID != "" && patternId == resource.ID {
		return SpecificityExact, true
	}
	return 0, false
}
