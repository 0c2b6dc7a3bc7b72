package account

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"

	"lexgate/bizerror"
	"lexgate/domain"
	"lexgate/idgen"
	"lexgate/persistence"
	"lexgate/session"

	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	userIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	QueryUsersFunc = QueryUsers
	CreateUserFunc = CreateUser
)

func HashSha256(raw string) string {
	h := sha256.New()
	h.Write([]byte(raw))
	return hex.EncodeToString(h.Sum(nil))
}

// DefaultSecurityConfiguration seeds the initial owner account when the user
// table is empty.
func DefaultSecurityConfiguration() error {
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	admin := User{}
	err := db.Model(&User{}).Where(&User{ID: 1}).First(&admin).Error
	if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		initialAdminPassword := os.ExpandEnv("${INITIAL_ADMIN_PASSWORD}")
		if initialAdminPassword == "" {
			initialAdminPassword = "admin123"
		}
		if err := db.Save(&User{ID: 1, Name: "admin", Role: domain.RoleOwner,
			Secret: HashSha256(initialAdminPassword)}).Error; err != nil {
			return err
		}
		return nil
	}
	return err
}

func QueryUsers(sec *session.Session) ([]UserInfo, error) {
	if !sec.IsAdmin() {
		return nil, bizerror.ErrForbidden
	}
	var users []UserInfo
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Model(&User{}).Scan(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func CreateUser(c *UserCreation, sec *session.Session) (*UserInfo, error) {
	if !sec.IsAdmin() {
		return nil, bizerror.ErrForbidden
	}
	user := User{ID: idgen.NextID(userIdWorker), Name: c.Name, Role: c.Role,
		Nickname: c.Nickname, Secret: HashSha256(c.Secret)}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &UserInfo{ID: user.ID, Name: user.Name, Role: user.Role, Nickname: user.Nickname}, nil
}
