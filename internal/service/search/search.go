package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/mperera/lottery-dms/internal/models"
)

// Search runs a fuzzy multi_match over the lottery index.
func Search(ctx context.Context, es *elasticsearch.Client, index, query string, from, size int) (int64, []models.Lottery, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^2", "type"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(index),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Lottery `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	lots := make([]models.Lottery, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		lots[i] = hit.Source
	}
	return r.Hits.Total.Value, lots, nil
}

// IndexLottery upserts one lottery document, keyed by its DB id.
func IndexLottery(ctx context.Context, es *elasticsearch.Client, index string, lot *models.Lottery) error {
	data, err := json.Marshal(lot)
	if err != nil {
		return fmt.Errorf("index lottery: %w", err)
	}

	res, err := es.Index(
		index,
		bytes.NewReader(data),
		es.Index.WithContext(ctx),
		es.Index.WithDocumentID(strconv.FormatUint(uint64(lot.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("index lottery: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index lottery: %s", res.Status())
	}
	return nil
}

func DeleteLottery(ctx context.Context, es *elasticsearch.Client, index string, id uint) error {
	res, err := es.Delete(
		index,
		strconv.FormatUint(uint64(id), 10),
		es.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete lottery: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete lottery: %s", res.Status())
	}
	return nil
}
