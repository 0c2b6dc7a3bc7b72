package policy

import (
	"lexgate/domain"

	"github.com/fundwit/go-commons/types"
)

// Policy is an administrator-defined rule: subject/resource/action patterns
// mapped to an effect with a priority. Higher priority evaluates first.
type Policy struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	SubjectPattern  string        `json:"subjectPattern"`
	ResourcePattern string        `json:"resourcePattern"`
	Action          domain.Action `json:"action"`
	Effect          domain.Effect `json:"effect"`
	Priority        int           `json:"priority"`
	Enabled         bool          `json:"enabled"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
	UpdateTime types.Timestamp `json:"updateTime" sql:"type:DATETIME(6)"`
}

func (p *Policy) TableName() string {
	return "policies"
}

type PolicyCreation struct {
	SubjectPattern  string `json:"subjectPattern" binding:"required,lte=128"`
	ResourcePattern string `json:"resourcePattern" binding:"required,lte=128"`
	Action          string `json:"action" binding:"required"`
	Effect          string `json:"effect" binding:"required"`
	Priority        int    `json:"priority" binding:"required,min=1"`
	Enabled         *bool  `json:"enabled"`
}

type PolicyUpdating struct {
	SubjectPattern  string `json:"subjectPattern" binding:"required,lte=128"`
	ResourcePattern string `json:"resourcePattern" binding:"required,lte=128"`
	Action          string `json:"action" binding:"required"`
	Effect          string `json:"effect" binding:"required"`
	Priority        int    `json:"priority" binding:"required,min=1"`
	Enabled         *bool  `json:"enabled" binding:"required"`
}
