package decisionlog

import (
	"context"
	"sync"
	"sync/atomic"

	"lexgate/bizerror"
	"lexgate/persistence"
	"lexgate/session"

	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

// DecisionHandler is invoked after a record is durably appended.
// Return nil when the handler does not apply to the record.
type DecisionHandler func(d *PermissionDecision) *DecisionHandleResult

type DecisionHandleResult struct {
	Success           bool
	Message           string
	HandlerIdentifier string
}

var DecisionHandlers []DecisionHandler

var (
	// QueueCapacity bounds the in-memory append queue. When the queue is
	// full the oldest unwritten record is dropped and counted; the caller
	// of Append never blocks and never sees a failure.
	QueueCapacity = 4096

	queueMutex    sync.Mutex
	decisionQueue chan *PermissionDecision

	droppedRecords uint64

	DecisionPersistFunc = decisionPersistCreate
	AppendFunc          = Append
	QueryDecisionsFunc  = QueryDecisions
)

func init() {
	decisionQueue = make(chan *PermissionDecision, QueueCapacity)
}

// ResetQueue recreates the queue with the current QueueCapacity and zeroes
// the dropped counter. Test hook; never call while a drainer runs.
func ResetQueue() {
	queueMutex.Lock()
	defer queueMutex.Unlock()
	decisionQueue = make(chan *PermissionDecision, QueueCapacity)
	atomic.StoreUint64(&droppedRecords, 0)
}

// DroppedRecords returns how many audit records were discarded because the
// queue was full or the sink failed.
func DroppedRecords() uint64 {
	return atomic.LoadUint64(&droppedRecords)
}

// Append enqueues a decision record, dropping the oldest queued record when
// the queue is full. Authorization must never be unavailable because audit
// storage is unavailable, but drops stay observable through the counter.
func Append(record *PermissionDecision) {
	queueMutex.Lock()
	queue := decisionQueue
	queueMutex.Unlock()

	for {
		select {
		case queue <- record:
			return
		default:
		}
		select {
		case <-queue:
			atomic.AddUint64(&droppedRecords, 1)
		default:
		}
	}
}

// StartDrainer launches the background drain task and returns its stop
// function. Stopping drains nothing further; queued records stay queued.
func StartDrainer() (stop func()) {
	queueMutex.Lock()
	queue := decisionQueue
	queueMutex.Unlock()

	done := make(chan struct{})
	var once sync.Once
	go func() {
		for {
			select {
			case record := <-queue:
				drainOne(record)
			case <-done:
				return
			}
		}
	}()
	return func() {
		once.Do(func() { close(done) })
	}
}

// DrainQueued synchronously persists everything currently queued. Used by the
// drainer indirectly and by tests for deterministic accounting.
func DrainQueued() int {
	queueMutex.Lock()
	queue := decisionQueue
	queueMutex.Unlock()

	drained := 0
	for {
		select {
		case record := <-queue:
			drainOne(record)
			drained++
		default:
			return drained
		}
	}
}

func drainOne(record *PermissionDecision) {
	if err := DecisionPersistFunc(record); err != nil {
		// sink failure is never propagated; it is only observable here
		atomic.AddUint64(&droppedRecords, 1)
		logrus.Warnf("failed to persist decision record %d: %v", record.ID, err)
		return
	}
	invokeHandlers(record)
}

func invokeHandlers(record *PermissionDecision) []DecisionHandleResult {
	results := []DecisionHandleResult{}
	for _, handler := range DecisionHandlers {
		r := handler(record)
		if r == nil {
			continue
		}
		results = append(results, *r)
		if !r.Success {
			logrus.Error("decision handler error. ", r)
		}
	}
	return results
}

func decisionPersistCreate(record *PermissionDecision) error {
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	return db.Create(record).Error
}

// QueryDecisions serves the audit review screen. Only admins may read the
// whole log; other sessions see their own decisions.
func QueryDecisions(q *DecisionQuery, sec *session.Session) ([]PermissionDecision, error) {
	if !sec.IsAdmin() {
		if q.SubjectID != 0 && q.SubjectID != sec.Identity.ID {
			return nil, bizerror.ErrForbidden
		}
		q.SubjectID = sec.Identity.ID
	}

	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	query := buildDecisionQuery(db, q)

	size := q.Size
	if size <= 0 || size > 500 {
		size = 100
	}
	page := q.Page
	if page < 1 {
		page = 1
	}

	records := []PermissionDecision{}
	err := query.Order("evaluated_at DESC").Offset((page - 1) * size).Limit(size).Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func buildDecisionQuery(db *gorm.DB, q *DecisionQuery) *gorm.DB {
	query := db.Model(&PermissionDecision{})
	if q.SubjectID != 0 {
		query = query.Where("user_id = ?", q.SubjectID)
	}
	if q.ResourceType != "" {
		query = query.Where("resource_type = ?", q.ResourceType)
	}
	if q.Effect != "" {
		query = query.Where("effect = ?", q.Effect)
	}
	if q.From != nil {
		query = query.Where("evaluated_at >= ?", *q.From)
	}
	if q.To != nil {
		query = query.Where("evaluated_at < ?", *q.To)
	}
	return query
}
