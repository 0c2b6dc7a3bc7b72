package grant

import (
	"time"

	"lexgate/domain"

	"github.com/fundwit/go-commons/types"
)

// GrantRole is the role a grant assigns on one resource. Roles are ordered:
// owner ⊇ editor ⊇ viewer.
type GrantRole string

const (
	GrantRoleViewer GrantRole = "viewer"
	GrantRoleEditor GrantRole = "editor"
	GrantRoleOwner  GrantRole = "owner"
)

var grantRoleMaxActions = map[GrantRole]domain.Action{
	GrantRoleViewer: domain.ActionView,
	GrantRoleEditor: domain.ActionEdit,
	GrantRoleOwner:  domain.ActionManage,
}

func ParseGrantRole(value string) (GrantRole, error) {
	r := GrantRole(value)
	if _, found := grantRoleMaxActions[r]; !found {
		return "", domain.ErrUnknownAction
	}
	return r, nil
}

// Allows reports whether the role's implied action set contains the action.
func (r GrantRole) Allows(action domain.Action) bool {
	maxAction, found := grantRoleMaxActions[r]
	if !found {
		return false
	}
	return maxAction.Covers(action)
}

// ResourceAccess is a direct per-resource grant outside the policy system.
// An expired grant is inert but kept for its audit value.
type ResourceAccess struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	UserID       types.ID  `json:"userId" gorm:"index:for_lookup"`
	ResourceType string    `json:"resourceType" gorm:"index:for_lookup"`
	ResourceID   string    `json:"resourceId" gorm:"index:for_lookup"`
	Role         GrantRole `json:"role"`

	GrantTime  types.Timestamp  `json:"grantTime" sql:"type:DATETIME(6)"`
	ExpireTime *types.Timestamp `json:"expireTime,omitempty" sql:"type:DATETIME(6)"`
}

func (r *ResourceAccess) TableName() string {
	return "resource_access"
}

func (r *ResourceAccess) Expired(now time.Time) bool {
	if r.ExpireTime == nil {
		return false
	}
	return !time.Time(*r.ExpireTime).After(now)
}

type GrantCreation struct {
	UserID       types.ID `json:"userId" binding:"required"`
	ResourceType string   `json:"resourceType" binding:"required,lte=64"`
	ResourceID   string   `json:"resourceId" binding:"required,lte=64"`
	Role         string   `json:"role" binding:"required"`

	ExpireTime *types.Timestamp `json:"expireTime"`
}

type GrantRevoking struct {
	UserID       types.ID `json:"userId" binding:"required"`
	ResourceType string   `json:"resourceType" binding:"required,lte=64"`
	ResourceID   string   `json:"resourceId" binding:"required,lte=64"`
}
