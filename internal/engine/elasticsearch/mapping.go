package elasticsearch

// buildIndexMapping returns the index definition for transcription records.
// Facet fields are text with a keyword sub-field so they can be both searched
// and aggregated.
func buildIndexMapping() string {
	return `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0
  },
  "mappings": {
    "properties": {
      "generated_text": { "type": "text" },
      "duration":       { "type": "float" },
      "age":    { "type": "text", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 } } },
      "gender": { "type": "text", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 } } },
      "accent": { "type": "text", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 } } }
    }
  }
}`
}
