package account

import "github.com/fundwit/go-commons/types"

type User struct {
	ID     types.ID `json:"id" gorm:"primary_key"`
	Name   string   `json:"name"`
	Secret string   `json:"-"`
	Role   string   `json:"role"`

	Nickname string `json:"nickname"`
}

type UserInfo struct {
	ID       types.ID `json:"id"`
	Name     string   `json:"name"`
	Role     string   `json:"role"`
	Nickname string   `json:"nickname"`
}

type UserCreation struct {
	Name     string `json:"name" binding:"required,lte=32"`
	Secret   string `json:"secret" binding:"required,gte=6,lte=32"`
	Role     string `json:"role" binding:"required,lte=32"`
	Nickname string `json:"nickname" binding:"omitempty,gte=1,lte=32"`
}

func (u User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Name
}
