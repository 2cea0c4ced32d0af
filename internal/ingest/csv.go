package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path"
	"strings"

	"github.com/spf13/cast"

	"github.com/utafrali/TranscriptSearch/internal/domain"
)

// Columns read from a Common Voice transcription CSV. Others are ignored.
const (
	ColumnFilename      = "filename"
	ColumnGeneratedText = "generated_text"
	ColumnDuration      = "duration"
	ColumnAge           = "age"
	ColumnGender        = "gender"
	ColumnAccent        = "accent"
)

// ErrMissingColumn is returned when the header lacks generated_text.
var ErrMissingColumn = errors.New("ingest: required column missing")

// Reader yields transcription records from CSV input. A missing or empty
// generated_text becomes "", other missing values become null. The record
// ID is the clip's base filename without extension, or empty when the file
// has no filename column.
type Reader struct {
	r     *csv.Reader
	index map[string]int
	line  int
}

// NewReader reads the header row and prepares to stream records.
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("ingest: read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	if _, ok := index[ColumnGeneratedText]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnGeneratedText)
	}

	return &Reader{r: cr, index: index, line: 1}, nil
}

// Next returns the next record, or io.EOF when the input is exhausted.
func (r *Reader) Next() (domain.Transcription, error) {
	row, err := r.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Transcription{}, io.EOF
		}
		return domain.Transcription{}, fmt.Errorf("ingest: read line %d: %w", r.line+1, err)
	}
	r.line++

	t := domain.Transcription{
		ID:            recordID(r.present(row, ColumnFilename)),
		GeneratedText: r.present(row, ColumnGeneratedText),
		Age:           r.optional(row, ColumnAge),
		Gender:        r.optional(row, ColumnGender),
		Accent:        r.optional(row, ColumnAccent),
	}
	if v := r.present(row, ColumnDuration); v != "" {
		d, err := cast.ToFloat64E(v)
		if err != nil {
			return domain.Transcription{}, fmt.Errorf("ingest: line %d: duration %q: %w", r.line, v, err)
		}
		// JSON has no encoding for NaN or infinities.
		if !math.IsNaN(d) && !math.IsInf(d, 0) {
			t.Duration = &d
		}
	}
	t.Normalize()
	return t, nil
}

// Line returns the number of the last line read, header included.
func (r *Reader) Line() int { return r.line }

func (r *Reader) value(row []string, column string) string {
	i, ok := r.index[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// present returns the cell, or "" when it is empty or a pandas "nan".
func (r *Reader) present(row []string, column string) string {
	v := r.value(row, column)
	if strings.EqualFold(v, "nan") {
		return ""
	}
	return v
}

func (r *Reader) optional(row []string, column string) *string {
	v := r.present(row, column)
	if v == "" {
		return nil
	}
	return &v
}

func recordID(filename string) string {
	if filename == "" {
		return ""
	}
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}
