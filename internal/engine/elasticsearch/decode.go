package elasticsearch

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cast"

	"github.com/utafrali/TranscriptSearch/internal/domain"
)

type esSearchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total *struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID        string              `json:"_id"`
			Score     *float64            `json:"_score"`
			Source    map[string]any      `json:"_source"`
			Highlight map[string][]string `json:"highlight"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]struct {
		Buckets []struct {
			Key      any `json:"key"`
			DocCount int `json:"doc_count"`
		} `json:"buckets"`
	} `json:"aggregations"`
}

type esBulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

type esIndexResponse struct {
	ID     string `json:"_id"`
	Result string `json:"result"`
}

// decodeSearchResponse converts the wire reply into a RawResponse. A missing
// hits.total is kept as nil so binding can flag it.
func decodeSearchResponse(body io.Reader) (*domain.RawResponse, error) {
	var esResp esSearchResponse
	if err := json.NewDecoder(body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	raw := &domain.RawResponse{
		TookMs: esResp.Took,
		Hits:   make([]domain.RawHit, 0, len(esResp.Hits.Hits)),
	}
	if esResp.Hits.Total != nil {
		total := esResp.Hits.Total.Value
		raw.Total = &total
	}

	for _, h := range esResp.Hits.Hits {
		hit := domain.RawHit{ID: h.ID, Source: h.Source, Highlight: h.Highlight}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		raw.Hits = append(raw.Hits, hit)
	}

	if esResp.Aggregations != nil {
		raw.Aggregations = make(map[string][]domain.RawBucket, len(esResp.Aggregations))
		for name, agg := range esResp.Aggregations {
			buckets := make([]domain.RawBucket, 0, len(agg.Buckets))
			for _, b := range agg.Buckets {
				buckets = append(buckets, domain.RawBucket{Key: cast.ToString(b.Key), Count: b.DocCount})
			}
			raw.Aggregations[name] = buckets
		}
	}

	return raw, nil
}

// decodeError extracts the type and reason from an error body.
func decodeError(body io.Reader) error {
	var errResp esErrorResponse
	if err := json.NewDecoder(body).Decode(&errResp); err == nil && errResp.Error.Type != "" {
		return fmt.Errorf("%s: %s", errResp.Error.Type, errResp.Error.Reason)
	}
	return fmt.Errorf("unexpected error response")
}
