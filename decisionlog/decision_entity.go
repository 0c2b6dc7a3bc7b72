package decisionlog

import (
	"lexgate/domain"

	"github.com/fundwit/go-commons/types"
)

// PermissionDecision is the append-only audit record of one evaluation.
// Records are never updated or deleted by the application.
type PermissionDecision struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	UserID        types.ID          `json:"userId" gorm:"index:for_audit"`
	Role          string            `json:"role"`
	Action        domain.Action     `json:"action"`
	ResourceType  string            `json:"resourceType" gorm:"index:for_audit"`
	ResourceID    string            `json:"resourceId"`
	Effect        domain.Effect     `json:"effect"`
	ReasonCode    domain.ReasonCode `json:"reasonCode"`
	MatchedRuleID types.ID          `json:"matchedRuleId,omitempty"`

	EvaluatedAt   types.Timestamp `json:"evaluatedAt" gorm:"index:for_audit" sql:"type:DATETIME(6)"`
	LatencyMicros int64           `json:"latencyMicros"`
}

func (d *PermissionDecision) TableName() string {
	return "permission_decisions"
}

type DecisionQuery struct {
	SubjectID    types.ID `form:"subjectId" json:"subjectId"`
	ResourceType string   `form:"resourceType" json:"resourceType"`
	Effect       string   `form:"effect" json:"effect"`

	From *types.Timestamp `form:"from" json:"from"`
	To   *types.Timestamp `form:"to" json:"to"`

	Page int `form:"page" json:"page"`
	Size int `form:"size" json:"size"`
}
