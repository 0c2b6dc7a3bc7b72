package domain

import (
	"github.com/fundwit/go-commons/types"
)

// Subject is the acting principal. Identity resolution happens upstream;
// the decision core only needs the id, the firm role and group memberships.
type Subject struct {
	UserID   types.ID   `json:"userId"`
	Role     string     `json:"role"`
	GroupIDs []types.ID `json:"groupIds,omitempty"`
}

func (s Subject) IsZero() bool {
	return s.UserID == 0 && s.Role == ""
}

// Resource is the target of an action: a module key like "cases" or
// "finance.invoices", optionally narrowed to one record.
type Resource struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

type AccessRequest struct {
	Subject  Subject  `json:"subject"`
	Action   Action   `json:"action"`
	Resource Resource `json:"resource"`
}

// Decision is the binary outcome handed back to callers.
type Decision struct {
	Effect        Effect     `json:"effect"`
	ReasonCode    ReasonCode `json:"reasonCode"`
	MatchedRuleID types.ID   `json:"matchedRuleId,omitempty"`
}
