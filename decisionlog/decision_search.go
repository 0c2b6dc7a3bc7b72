package decisionlog

import (
	"context"
	"fmt"
	"sync"

	"lexgate/bizerror"
	"lexgate/es"
	"lexgate/persistence"
	"lexgate/session"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var (
	DecisionIndexName        = "permission-decisions"
	DecisionIndexHandlerName = "decisionIndexer"

	reindexLock    sync.Mutex
	reindexRunning bool

	ReindexBatchSize = 500
	// bounds the load a full reindex puts on mysql and elasticsearch
	reindexLimiter = rate.NewLimiter(rate.Limit(10), 1)

	DecisionsFullReindexFunc  = DecisionsFullReindex
	ScheduleNewReindexRunFunc = ScheduleNewReindexRun
	SearchDecisionsFunc       = SearchDecisions
)

// IndexDecisionHandle mirrors each durably appended decision into the search
// index. Indexing failure never touches the decision path.
func IndexDecisionHandle(d *PermissionDecision) *DecisionHandleResult {
	if err := es.IndexFunc(DecisionIndexName, d.ID, d); err != nil {
		return &DecisionHandleResult{
			Message:           fmt.Sprintf("index decision %d, %v", d.ID, err),
			HandlerIdentifier: DecisionIndexHandlerName,
		}
	}
	return &DecisionHandleResult{Success: true, HandlerIdentifier: DecisionIndexHandlerName}
}

func ScheduleNewReindexRun(sec *session.Session) (bool, error) {
	if !sec.IsAdmin() {
		return false, bizerror.ErrForbidden
	}

	reindexLock.Lock()
	if reindexRunning {
		reindexLock.Unlock()
		return false, nil
	}
	reindexRunning = true
	reindexLock.Unlock()

	waitRunning := sync.WaitGroup{}
	waitRunning.Add(1)
	go func() {
		waitRunning.Done()
		defer func() {
			reindexLock.Lock()
			reindexRunning = false
			reindexLock.Unlock()
		}()
		if err := DecisionsFullReindexFunc(); err != nil {
			logrus.Warnf("decisions full reindex finished with error: %v", err)
		}
	}()
	waitRunning.Wait()
	return true, nil
}

func DecisionsFullReindex() (err error) {
	defer func() {
		if ret := recover(); ret != nil {
			e, ok := ret.(error)
			if ok {
				err = e
			} else {
				err = fmt.Errorf("error on decisions full reindex: %v", ret)
			}
		}
	}()

	page := 1
	for {
		if err := reindexLimiter.Wait(context.Background()); err != nil {
			return err
		}

		records, err := loadDecisionBatch(page, ReindexBatchSize)
		if err != nil {
			logrus.Warnf("decisions full reindex: error on retrieve decisions(page = %d, pageSize = %d): %v",
				page, ReindexBatchSize, err)
			page++
			continue
		}
		if len(records) == 0 {
			logrus.Infof("decisions full reindex: there are no more decisions to index")
			return nil // loop exit
		}

		for i := range records {
			if err := es.IndexFunc(DecisionIndexName, records[i].ID, &records[i]); err != nil {
				logrus.Warnf("decisions full reindex: error on index decision %d: %v", records[i].ID, err)
			}
		}
		page++
	}
}

func loadDecisionBatch(page, size int) ([]PermissionDecision, error) {
	records := []PermissionDecision{}
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	offset := (page - 1) * size
	if offset < 0 {
		offset = 0
	}
	if err := db.Model(&PermissionDecision{}).Order("id ASC").Offset(offset).Limit(size).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// SearchDecisions serves free-text audit search over the mirrored index.
func SearchDecisions(keyword string, sec *session.Session) ([]PermissionDecision, error) {
	if !sec.IsAdmin() {
		return nil, bizerror.ErrForbidden
	}
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"query_string": map[string]interface{}{
				"query": keyword,
			},
		},
		"sort": []map[string]interface{}{
			{"evaluatedAt": map[string]interface{}{"order": "desc", "unmapped_type": "date"}},
		},
	}
	records := []PermissionDecision{}
	if err := es.SearchFunc(DecisionIndexName, query, &records); err != nil {
		return nil, err
	}
	return records, nil
}
