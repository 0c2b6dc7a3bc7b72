package grant

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

	grantsCache   = cache.New(15*time.Second, time.Minute)
	lastGoodCache = cache.New(cache.NoExpiration, 0)

	errReloadTimeout = errors.New("grant reload timed out")

	LoadGrantsFunc          = loadGrants
	FindGrantFunc           = FindGrant
	GrantAccessFunc         = GrantAccess
	RevokeAccessFunc        = RevokeAccess
	QueryResourceAccessFunc = QueryResourceAccess
)

func grantCacheKey(userId types.ID, resourceType, resourceId string) string {
	return fmt.Sprintf("%d/%s/%s", userId, resourceType, resourceId)
}

// FindGrant returns the active grant for the exact (user, resource) key, or
// nil. Expired rows are never consulted: they are filtered out before the
// most recently granted row is picked, so an expired newer grant cannot mask
// an older one that is still active.
func FindGrant(userId types.ID, resourceType, resourceId string) (*ResourceAccess, error) {
	key := grantCacheKey(userId, resourceType, resourceId)

	var records []ResourceAccess
	if value, found := grantsCache.Get(key); found {
		records = value.([]ResourceAccess)
	} else {
		loaded, err := reloadWithTimeout(userId, resourceType, resourceId)
		if err != nil {
			if value, found := lastGoodCache.Get(key); found {
				logrus.Warnf("grant reload failed, serving last-known-good: %v", err)
				records = value.([]ResourceAccess)
			} else {
				logrus.Errorf("grant reload failed with no fallback: %v", err)
				return nil, bizerror.ErrEvaluationUnavailable
			}
		} else {
			records = loaded
			grantsCache.Set(key, records, CacheTTL)
			lastGoodCache.Set(key, records, cache.NoExpiration)
		}
	}

	now := time.Now()
	var winner *ResourceAccess
	for i := range records {
		r := records[i]
		if r.Expired(now) {
			continue
		}
		if winner == nil || time.Time(r.GrantTime).After(time.Time(winner.GrantTime)) {
			winner = &r
		}
	}
	return winner, nil
}

func reloadWithTimeout(userId types.ID, resourceType, resourceId string) ([]ResourceAccess, error) {
	type loadResult struct {
		records []ResourceAccess
		err     error
	}
	resultChan := make(chan loadResult, 1)
	go func() {
		records, err := LoadGrantsFunc(userId, resourceType, resourceId)
		resultChan <- loadResult{records: records, err: err}
	}()
	select {
	case r := <-resultChan:
		return r.records, r.err
	case <-time.After(ReloadTimeout):
		return nil, errReloadTimeout
	}
}

func loadGrants(userId types.ID, resourceType, resourceId string) ([]ResourceAccess, error) {
	records := []ResourceAccess{}
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	err := db.Where(&ResourceAccess{UserID: userId, ResourceType: resourceType, ResourceID: resourceId}).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func InvalidateCache(userId types.ID, resourceType, resourceId string) {
	grantsCache.Delete(grantCacheKey(userId, resourceType, resourceId))
}

// ClearCaches drops fallback state too. Test hook.
func ClearCaches() {
	grantsCache.Flush()
	lastGoodCache.Flush()
}

// GrantAccess records a grant. An existing grant for the same key is replaced
// logically: the most recent grant wins at read time, old rows stay for audit.
func GrantAccess(c *GrantCreation, sec *session.Session) (*ResourceAccess, error) {
	if !sec.IsAdmin() {
		return nil, bizerror.ErrForbidden
	}
	role, err := ParseGrantRole(c.Role)
	if err != nil {
		return nil, err
	}
	if c.ExpireTime != nil && !time.Time(*c.ExpireTime).After(time.Now()) {
		return nil, bizerror.ErrExpiryInPast
	}

	record := ResourceAccess{
		ID:           idgen.NextID(idWorker),
		UserID:       c.UserID,
		ResourceType: c.ResourceType,
		ResourceID:   c.ResourceID,
		Role:         role,
		GrantTime:    types.CurrentTimestamp(),
		ExpireTime:   c.ExpireTime,
	}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Create(&record).Error; err != nil {
		return nil, err
	}
	InvalidateCache(c.UserID, c.ResourceType, c.ResourceID)
	return &record, nil
}

// RevokeAccess expires all grants for the key immediately. Rows are never
// physically deleted, they keep their audit value.
func RevokeAccess(r *GrantRevoking, sec *session.Session) error {
	if !sec.IsAdmin() {
		return bizerror.ErrForbidden
	}
	now := types.CurrentTimestamp()
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err := db.Model(&ResourceAccess{}).
		Where(&ResourceAccess{UserID: r.UserID, ResourceType: r.ResourceType, ResourceID: r.ResourceID}).
		Update("expire_time", now).Error
	if err != nil {
		return err
	}
	InvalidateCache(r.UserID, r.ResourceType, r.ResourceID)
	return nil
}

func QueryResourceAccess(userId types.ID, sec *session.Session) ([]ResourceAccess, error) {
	if !sec.IsAdmin() && sec.Identity.ID != userId {
		return nil, bizerror.ErrForbidden
	}
	records := []ResourceAccess{}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Where(&ResourceAccess{UserID: userId}).Order("grant_time DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
