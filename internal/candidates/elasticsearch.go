// internal/candidates/elasticsearch.go
package candidates

import (
	"context"
	"encoding/json"
	"fmt"

	"caregiver-matching/internal/common/database"
	"caregiver-matching/internal/models"

	"github.com/tidwall/gjson"
)

// maxSearchWindow is the default index.max_result_window.
const maxSearchWindow = 10000

// ElasticsearchLoader reads candidate documents with a match_all search. Each _source
// has the candidate JSON shape.
type ElasticsearchLoader struct {
	es    *database.ElasticsearchClient
	index string
}

func NewElasticsearchLoader(es *database.ElasticsearchClient, index string) *ElasticsearchLoader {
	return &ElasticsearchLoader{es: es, index: index}
}

func (l *ElasticsearchLoader) Source() string {
	return "elasticsearch"
}

func (l *ElasticsearchLoader) Load(ctx context.Context) ([]models.Candidate, error) {
	query := map[string]interface{}{
		"size":  maxSearchWindow,
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
		"sort":  []interface{}{map[string]interface{}{"_doc": "asc"}},
	}

	body, err := l.es.Search(ctx, l.index, query)
	if err != nil {
		return nil, err
	}

	hits := gjson.GetBytes(body, "hits.hits")
	if !hits.IsArray() {
		return nil, fmt.Errorf("%w: search response has no hits", ErrInvalidRecords)
	}

	var pool []models.Candidate
	var decodeErr error
	hits.ForEach(func(_, hit gjson.Result) bool {
		var c models.Candidate
		if err := json.Unmarshal([]byte(hit.Get("_source").Raw), &c); err != nil {
			decodeErr = fmt.Errorf("%w: document %s: %v", ErrInvalidRecords, hit.Get("_id").String(), err)
			return false
		}
		if c.ID == "" {
			c.ID = hit.Get("_id").String()
		}
		pool = append(pool, c)
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return finish(pool)
}
