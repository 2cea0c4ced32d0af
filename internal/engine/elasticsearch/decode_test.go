package elasticsearch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSearchResponse = `{
  "took": 7,
  "hits": {
    "total": {"value": 25, "relation": "eq"},
    "hits": [
      {
        "_id": "sample-000001",
        "_score": 3.2,
        "_source": {"generated_text": "hello world", "duration": 2.5, "age": "twenties", "gender": null, "accent": "us"},
        "highlight": {"generated_text": ["<em>hello</em> world"]}
      },
      {"_id": "sample-000002", "_score": null, "_source": {"generated_text": "hello again"}}
    ]
  },
  "aggregations": {
    "age": {"buckets": [{"key": "twenties", "doc_count": 10}, {"key": "thirties", "doc_count": 3}]},
    "gender": {"buckets": []},
    "accent": {"buckets": [{"key": 42, "doc_count": 1}]}
  }
}`

func TestDecodeSearchResponse(t *testing.T) {
	raw, err := decodeSearchResponse(strings.NewReader(sampleSearchResponse))
	require.NoError(t, err)

	assert.Equal(t, int64(7), raw.TookMs)
	require.NotNil(t, raw.Total)
	assert.Equal(t, 25, *raw.Total)

	require.Len(t, raw.Hits, 2)
	assert.Equal(t, "sample-000001", raw.Hits[0].ID)
	assert.InDelta(t, 3.2, raw.Hits[0].Score, 0.0001)
	assert.Equal(t, []string{"<em>hello</em> world"}, raw.Hits[0].Highlight["generated_text"])
	assert.Equal(t, 2.5, raw.Hits[0].Source["duration"])
	assert.Zero(t, raw.Hits[1].Score)

	assert.Len(t, raw.Aggregations["age"], 2)
	assert.Empty(t, raw.Aggregations["gender"])
	assert.Equal(t, "42", raw.Aggregations["accent"][0].Key)
}

func TestDecodeSearchResponse_MissingTotal(t *testing.T) {
	raw, err := decodeSearchResponse(strings.NewReader(`{"took": 1, "hits": {"hits": []}}`))
	require.NoError(t, err)
	assert.Nil(t, raw.Total)
	assert.Nil(t, raw.Aggregations)
}

func TestDecodeSearchResponse_Invalid(t *testing.T) {
	_, err := decodeSearchResponse(strings.NewReader(`<html>`))
	assert.Error(t, err)
}

func TestDecodeError(t *testing.T) {
	err := decodeError(strings.NewReader(`{"error": {"type": "index_not_found_exception", "reason": "no such index"}, "status": 404}`))
	assert.EqualError(t, err, "index_not_found_exception: no such index")

	err = decodeError(strings.NewReader(`not json`))
	assert.EqualError(t, err, "unexpected error response")
}
