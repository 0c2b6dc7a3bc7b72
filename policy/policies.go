package policy

import (
	"context"
	"errors"
	"time"

	"lexgate/bizerror"
	"lexgate/domain"
	"lexgate/idgen"
	"lexgate/persistence"
	"lexgate/session"

	"github.com/fundwit/go-commons/types"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"github.com/sony/sonyflake"
)

const enabledPoliciesCacheKey = "enabled-policies"

var (
	idWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	// Read-mostly snapshot of enabled policies. The short TTL bounds the
	// staleness administrative changes can reach through indirect readers;
	// the last-known-good cache never expires and backs reload failures.
	CacheTTL      = 15 * time.Second
	ReloadTimeout = 3 * time.Second

	policiesCache = cache.New(15*time.Second, time.Minute)
	lastGoodCache = cache.New(cache.NoExpiration, 0)

	errReloadTimeout = errors.New("policy snapshot reload timed out")

	LoadEnabledPoliciesFunc = loadEnabledPolicies
	ListActivePoliciesFunc  = ListActivePolicies
	QueryPoliciesFunc       = QueryPolicies
	CreatePolicyFunc        = CreatePolicy
	UpdatePolicyFunc        = UpdatePolicy
	DeletePolicyFunc        = DeletePolicy
)

// ListActivePolicies returns the enabled policies capable of matching the
// given request. The decision engine does the precise ranking.
func ListActivePolicies(subject domain.Subject, resource domain.Resource, action domain.Action) ([]Policy, error) {
	snapshot, err := enabledPoliciesSnapshot()
	if err != nil {
		return nil, err
	}
	matching := []Policy{}
	for _, p := range snapshot {
		if _, ok := domain.MatchSubjectPattern(p.SubjectPattern, subject); !ok {
			continue
		}
		if _, ok := domain.MatchResourcePattern(p.ResourcePattern, resource); !ok {
			continue
		}
		if _, ok := domain.MatchPolicyAction(p.Action, action); !ok {
			continue
		}
		matching = append(matching, p)
	}
	return matching, nil
}

func enabledPoliciesSnapshot() ([]Policy, error) {
	if value, found := policiesCache.Get(enabledPoliciesCacheKey); found {
		return value.([]Policy), nil
	}

	loaded, err := reloadWithTimeout()
	if err != nil {
		// availability over freshness: fall back to the last good snapshot
		if value, found := lastGoodCache.Get(enabledPoliciesCacheKey); found {
			logrus.Warnf("policy snapshot reload failed, serving last-known-good: %v", err)
			return value.([]Policy), nil
		}
		logrus.Errorf("policy snapshot reload failed with no fallback: %v", err)
		return nil, bizerror.ErrEvaluationUnavailable
	}

	policiesCache.Set(enabledPoliciesCacheKey, loaded, CacheTTL)
	lastGoodCache.Set(enabledPoliciesCacheKey, loaded, cache.NoExpiration)
	return loaded, nil
}

func reloadWithTimeout() ([]Policy, error) {
	type loadResult struct {
		policies []Policy
		err      error
	}
	resultChan := make(chan loadResult, 1)
	go func() {
		policies, err := LoadEnabledPoliciesFunc()
		resultChan <- loadResult{policies: policies, err: err}
	}()
	select {
	case r := <-resultChan:
		return r.policies, r.err
	case <-time.After(ReloadTimeout):
		return nil, errReloadTimeout
	}
}

func loadEnabledPolicies() ([]Policy, error) {
	policies := []Policy{}
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	if err := db.Where(&Policy{Enabled: true}).Find(&policies).Error; err != nil {
		return nil, err
	}
	return policies, nil
}

// InvalidateCache drops the fresh snapshot. Administrative writes call this
// before returning so a subsequent evaluation reloads; the last-known-good
// fallback is intentionally left in place.
func InvalidateCache() {
	policiesCache.Delete(enabledPoliciesCacheKey)
}

// ClearCaches drops fallback state too. Test hook.
func ClearCaches() {
	policiesCache.Flush()
	lastGoodCache.Flush()
}

func QueryPolicies(sec *session.Session) ([]Policy, error) {
	if !sec.IsAdmin() {
		return nil, bizerror.ErrForbidden
	}
	policies := []Policy{}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Order("priority DESC, id ASC").Find(&policies).Error; err != nil {
		return nil, err
	}
	return policies, nil
}

func CreatePolicy(c *PolicyCreation, sec *session.Session) (*Policy, error) {
	if !sec.IsAdmin() {
		return nil, bizerror.ErrForbidden
	}
	action, err := domain.ParsePolicyAction(c.Action)
	if err != nil {
		return nil, err
	}
	effect, err := domain.ParseEffect(c.Effect)
	if err != nil {
		return nil, err
	}

	enabled := true
	if c.Enabled != nil {
		enabled = *c.Enabled
	}
	now := types.CurrentTimestamp()
	record := Policy{
		ID:              idgen.NextID(idWorker),
		SubjectPattern:  c.SubjectPattern,
		ResourcePattern: c.ResourcePattern,
		Action:          action,
		Effect:          effect,
		Priority:        c.Priority,
		Enabled:         enabled,
		CreateTime:      now,
		UpdateTime:      now,
	}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Create(&record).Error; err != nil {
		return nil, err
	}
	InvalidateCache()
	return &record, nil
}

func UpdatePolicy(id types.ID, u *PolicyUpdating, sec *session.Session) (*Policy, error) {
	if !sec.IsAdmin() {
		return nil, bizerror.ErrForbidden
	}
	if u.Enabled == nil {
		return nil, bizerror.ErrMissingRequiredField
	}
	action, err := domain.ParsePolicyAction(u.Action)
	if err != nil {
		return nil, err
	}
	effect, err := domain.ParseEffect(u.Effect)
	if err != nil {
		return nil, err
	}

	record := Policy{}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Where(&Policy{ID: id}).First(&record).Error; err != nil {
		return nil, err
	}
	changes := map[string]interface{}{
		"subject_pattern":  u.SubjectPattern,
		"resource_pattern": u.ResourcePattern,
		"action":           string(action),
		"effect":           string(effect),
		"priority":         u.Priority,
		"enabled":          *u.Enabled,
		"update_time":      types.CurrentTimestamp(),
	}
	if err := db.Model(&Policy{}).Where("id = ?", id).Update(changes).Error; err != nil {
		return nil, err
	}
	InvalidateCache()
	updated := Policy{}
	if err := db.Where(&Policy{ID: id}).First(&updated).Error; err != nil {
		return nil, err
	}
	return &updated, nil
}

func DeletePolicy(id types.ID, sec *session.Session) error {
	if !sec.IsAdmin() {
		return bizerror.ErrForbidden
	}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Model(&Policy{}).Delete(&Policy{ID: id}).Error; err != nil {
		return err
	}
	InvalidateCache()
	return nil
}
