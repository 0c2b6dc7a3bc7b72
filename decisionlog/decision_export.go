package decisionlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"lexgate/bizerror"
	"lexgate/session"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/sirupsen/logrus"
)

var (
	ExportBucket *oss.Bucket

	ExportBatchSize     = 500
	ExportDecisionsFunc = ExportDecisions
	putObjectFunc       = putObject
)

func BootstrapExport() {
	var err error
	ExportBucket, err = buildBucketFromEnv()
	if err != nil {
		panic(err)
	}
}

func buildBucketFromEnv() (*oss.Bucket, error) {
	endpoint := os.ExpandEnv(os.Getenv("OSS_ENDPOINT"))
	if endpoint == "" {
		endpoint = "dummy"
	}
	accessKey := os.Getenv("OSS_ACCESS_KEY")
	secretKey := os.Getenv("OSS_SECRET_KEY")
	bucket := os.Getenv("OSS_BUCKET")
	if bucket == "" {
		bucket = "lexgate"
	}

	cli, err := oss.New(endpoint, accessKey, secretKey)
	if err != nil {
		return nil, err
	}
	return cli.Bucket(bucket)
}

// ExportDecisions writes the filtered decision slice to the audit bucket as a
// JSON-lines object and returns the object key.
func ExportDecisions(q *DecisionQuery, sec *session.Session) (string, error) {
	if !sec.IsAdmin() {
		return "", bizerror.ErrForbidden
	}

	buf := bytes.Buffer{}
	encoder := json.NewEncoder(&buf)

	exported := 0
	batch := *q
	batch.Size = ExportBatchSize
	for page := 1; ; page++ {
		batch.Page = page
		records, err := QueryDecisionsFunc(&batch, sec)
		if err != nil {
			return "", err
		}
		if len(records) == 0 {
			break
		}
		for i := range records {
			if err := encoder.Encode(&records[i]); err != nil {
				return "", err
			}
		}
		exported += len(records)
		if len(records) < ExportBatchSize {
			break
		}
	}

	key := fmt.Sprintf("audit-exports/%s.jsonl", time.Now().UTC().Format("20060102T150405Z"))
	if err := putObjectFunc(key, &buf, sec); err != nil {
		return "", err
	}
	logrus.Infof("exported %d decision records to %s", exported, key)
	return key, nil
}

func putObject(key string, buf *bytes.Buffer, sec *session.Session) error {
	var childSpan *opentracing.Span
	if sec.Context != nil {
		parentSpan := opentracing.SpanFromContext(sec.Context)
		if parentSpan != nil {
			tracer := parentSpan.Tracer()
			sp := tracer.StartSpan("put-audit-export", opentracing.ChildOf(parentSpan.Context()))
			sp.SetTag("object-key", key)
			childSpan = &sp
			defer sp.Finish()
		}
	}

	err := ExportBucket.PutObject(key, bytes.NewReader(buf.Bytes()))
	if childSpan != nil {
		ext.Error.Set(*childSpan, err != nil)
	}
	return err
}
