package es

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/fundwit/go-commons/types"
)

// ELASTICSEARCH_URL
var ActiveESClient *elasticsearch.Client

var (
	IndexFunc              = Index
	DeleteDocumentByIdFunc = DeleteDocumentById
	SearchFunc             = Search
)

func Bootstrap() {
	client, err := elasticsearch.NewDefaultClient()
	if err != nil {
		panic(err)
	}
	ActiveESClient = client
}

func Index(index string, id types.ID, doc interface{}) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      index,
		DocumentID: id.String(),
		Body:       bytes.NewReader(buf.Bytes()),
	}
	res, err := req.Do(context.Background(), ActiveESClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := ioutil.ReadAll(res.Body)
		return fmt.Errorf("index document %s into %s: %s %s", id.String(), index, res.Status(), string(body))
	}
	return nil
}

func DeleteDocumentById(index string, id types.ID) error {
	req := esapi.DeleteRequest{Index: index, DocumentID: id.String()}
	res, err := req.Do(context.Background(), ActiveESClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		body, _ := ioutil.ReadAll(res.Body)
		return fmt.Errorf("delete document %s from %s: %s %s", id.String(), index, res.Status(), string(body))
	}
	return nil
}

// Search runs the query body against the index and decodes the raw hit
// sources into result, which must be a pointer to a slice.
func Search(index string, query interface{}, result interface{}) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return err
	}

	res, err := ActiveESClient.Search(
		ActiveESClient.Search.WithContext(context.Background()),
		ActiveESClient.Search.WithIndex(index),
		ActiveESClient.Search.WithBody(&buf),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := ioutil.ReadAll(res.Body)
		return errors.New("search " + index + ": " + res.Status() + " " + string(body))
	}

	envelope := struct {
		Hits struct {
			Hits []struct {
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}{}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return err
	}

	sources := make([]json.RawMessage, 0, len(envelope.Hits.Hits))
	for _, hit := range envelope.Hits.Hits {
		sources = append(sources, hit.Source)
	}
	merged, err := json.Marshal(sources)
	if err != nil {
		return err
	}
	return json.Unmarshal(merged, result)
}
