package override

import (
	"time"

	"github.com/fundwit/go-commons/types"
)

// OverrideKind separates the two override namespaces. A sidebar entry and a
// page entry referencing the same screen are independent keys and never
// conflict with each other.
type OverrideKind string

const (
	KindSidebar OverrideKind = "sidebar"
	KindPage    OverrideKind = "page"
)

// OverrideAction is kind-specific: show|hide for sidebar items, grant|deny
// for pages.
type OverrideAction string

const (
	ActionShow  OverrideAction = "show"
	ActionHide  OverrideAction = "hide"
	ActionGrant OverrideAction = "grant"
	ActionDeny  OverrideAction = "deny"
)

var kindActions = map[OverrideKind][]OverrideAction{
	KindSidebar: {ActionShow, ActionHide},
	KindPage:    {ActionGrant, ActionDeny},
}

func (k OverrideKind) Accepts(action OverrideAction) bool {
	for _, a := range kindActions[k] {
		if a == action {
			return true
		}
	}
	return false
}

// Denies reports whether the override action blocks access in its namespace.
func (a OverrideAction) Denies() bool {
	return a == ActionHide || a == ActionDeny
}

// UserOverride is a per-user exception. When several active entries share the
// identical (user, kind, item) key, the most recently created one wins.
type UserOverride struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	UserID types.ID       `json:"userId" gorm:"index:for_lookup"`
	Kind   OverrideKind   `json:"kind"`
	ItemID string         `json:"itemId"`
	Action OverrideAction `json:"action"`

	Reason     string           `json:"reason,omitempty"`
	ExpireTime *types.Timestamp `json:"expireTime,omitempty" sql:"type:DATETIME(6)"`
	CreatedBy  types.ID         `json:"createdBy"`
	CreateTime types.Timestamp  `json:"createTime" sql:"type:DATETIME(6)"`
}

func (o *UserOverride) TableName() string {
	return "user_overrides"
}

func (o *UserOverride) Expired(now time.Time) bool {
	if o.ExpireTime == nil {
		return false
	}
	return !time.Time(*o.ExpireTime).After(now)
}

type OverrideCreation struct {
	UserID types.ID `json:"userId" binding:"required"`
	Kind   string   `json:"kind" binding:"required,oneof=sidebar page"`
	ItemID string   `json:"itemId" binding:"required,lte=64"`
	Action string   `json:"action" binding:"required,oneof=show hide grant deny"`

	Reason     string           `json:"reason" binding:"omitempty,lte=256"`
	ExpireTime *types.Timestamp `json:"expireTime"`
}
