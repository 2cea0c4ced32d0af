package domain

import "strings"

// IndexName is the default search index holding transcription records.
const IndexName = "cv-transcriptions"

// Transcription is one voice clip's record in the search index. Demographic
// fields and duration are optional in the source dataset and stay null in
// the index when unknown.
type Transcription struct {
	ID            string   `json:"-"`
	GeneratedText string   `json:"generated_text"`
	Duration      *float64 `json:"duration"`
	Age           *string  `json:"age"`
	Gender        *string  `json:"gender"`
	Accent        *string  `json:"accent"`
}

// Normalize trims whitespace and turns blank optional values into nulls.
func (t *Transcription) Normalize() {
	t.ID = strings.TrimSpace(t.ID)
	t.GeneratedText = strings.TrimSpace(t.GeneratedText)
	t.Age = blankToNil(t.Age)
	t.Gender = blankToNil(t.Gender)
	t.Accent = blankToNil(t.Accent)
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// BulkResult reports the outcome of a bulk index call.
type BulkResult struct {
	Indexed int               `json:"indexed"`
	Failed  int               `json:"failed"`
	Errors  map[string]string `json:"errors,omitempty"`
}
