package override

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lexgate/bizerror"
	"lexgate/idgen"
	"lexgate/persistence"
	"lexgate/session"

	"github.com/fundwit/go-commons/types"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"github.com/sony/sonyflake"
)

var (
	idWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CacheTTL      = 15 * time.Second
	ReloadTimeout = 3 * time.Second

	overridesCache = cache.New(15*time.Second, time.Minute)
	lastGoodCache  = cache.New(cache.NoExpiration, 0)

	errReloadTimeout = errors.New("override reload timed out")

	LoadUserOverridesFunc = loadUserOverrides
	FindOverrideFunc      = FindOverride
	SetOverrideFunc       = SetOverride
	DeleteOverrideFunc    = DeleteOverride
	QueryOverridesFunc    = QueryOverrides
)

func userCacheKey(userId types.ID) string {
	return fmt.Sprintf("user/%d", userId)
}

// FindOverride returns the authoritative active override for the exact
// (user, kind, item) key, or nil. Among colliding active entries the most
// recently created wins; expired entries are inert.
func FindOverride(userId types.ID, kind OverrideKind, itemId string) (*UserOverride, error) {
	all, err := userOverridesSnapshot(userId)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var winner *UserOverride
	for i := range all {
		o := all[i]
		if o.Kind != kind || o.ItemID != itemId || o.Expired(now) {
			continue
		}
		if winner == nil || time.Time(o.CreateTime).After(time.Time(winner.CreateTime)) {
			winner = &o
		}
	}
	return winner, nil
}

func userOverridesSnapshot(userId types.ID) ([]UserOverride, error) {
	key := userCacheKey(userId)
	if value, found := overridesCache.Get(key); found {
		return value.([]UserOverride), nil
	}

	loaded, err := reloadWithTimeout(userId)
	if err != nil {
		if value, found := lastGoodCache.Get(key); found {
			logrus.Warnf("override reload failed, serving last-known-good: %v", err)
			return value.([]UserOverride), nil
		}
		logrus.Errorf("override reload failed with no fallback: %v", err)
		return nil, bizerror.ErrEvaluationUnavailable
	}

	overridesCache.Set(key, loaded, CacheTTL)
	lastGoodCache.Set(key, loaded, cache.NoExpiration)
	return loaded, nil
}

func reloadWithTimeout(userId types.ID) ([]UserOverride, error) {
	type loadResult struct {
		overrides []UserOverride
		err       error
	}
	resultChan := make(chan loadResult, 1)
	go func() {
		overrides, err := LoadUserOverridesFunc(userId)
		resultChan <- loadResult{overrides: overrides, err: err}
	}()
	select {
	case r := <-resultChan:
		return r.overrides, r.err
	case <-time.After(ReloadTimeout):
		return nil, errReloadTimeout
	}
}

func loadUserOverrides(userId types.ID) ([]UserOverride, error) {
	overrides := []UserOverride{}
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	if err := db.Where(&UserOverride{UserID: userId}).Find(&overrides).Error; err != nil {
		return nil, err
	}
	return overrides, nil
}

func InvalidateCache(userId types.ID) {
	overridesCache.Delete(userCacheKey(userId))
}

// ClearCaches drops fallback state too. Test hook.
func ClearCaches() {
	overridesCache.Flush()
	lastGoodCache.Flush()
}

func SetOverride(c *OverrideCreation, sec *session.Session) (*UserOverride, error) {
	if !sec.IsAdmin() {
		return nil, bizerror.ErrForbidden
	}
	kind := OverrideKind(c.Kind)
	action := OverrideAction(c.Action)
	if !kind.Accepts(action) {
		return nil, bizerror.ErrMismatchedOverrideAction
	}
	if c.ExpireTime != nil && !time.Time(*c.ExpireTime).After(time.Now()) {
		return nil, bizerror.ErrExpiryInPast
	}

	record := UserOverride{
		ID:         idgen.NextID(idWorker),
		UserID:     c.UserID,
		Kind:       kind,
		ItemID:     c.ItemID,
		Action:     action,
		Reason:     c.Reason,
		ExpireTime: c.ExpireTime,
		CreatedBy:  sec.Identity.ID,
		CreateTime: types.CurrentTimestamp(),
	}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Create(&record).Error; err != nil {
		return nil, err
	}
	InvalidateCache(c.UserID)
	return &record, nil
}

// DeleteOverride expires an override entry immediately, keeping the row.
func DeleteOverride(id types.ID, sec *session.Session) error {
	if !sec.IsAdmin() {
		return bizerror.ErrForbidden
	}
	record := UserOverride{}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Where(&UserOverride{ID: id}).First(&record).Error; err != nil {
		return err
	}
	now := types.CurrentTimestamp()
	if err := db.Model(&UserOverride{}).Where("id = ?", id).Update("expire_time", now).Error; err != nil {
		return err
	}
	InvalidateCache(record.UserID)
	return nil
}

func QueryOverrides(userId types.ID, sec *session.Session) ([]UserOverride, error) {
	if !sec.IsAdmin() && sec.Identity.ID != userId {
		return nil, bizerror.ErrForbidden
	}
	overrides := []UserOverride{}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Where(&UserOverride{UserID: userId}).Order("create_time DESC").Find(&overrides).Error; err != nil {
		return nil, err
	}
	return overrides, nil
}
