package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transcription struct {
	ID       string   `json:"id" validate:"required"`
	Text     string   `json:"generated_text" validate:"max=20"`
	Duration float64  `json:"duration" validate:"gte=0"`
	Gender   string   `json:"gender" validate:"omitempty,oneof=male female other"`
	Tags     []string `json:"tags" validate:"max=2"`
}

func TestValidate_Success(t *testing.T) {
	err := Validate(transcription{ID: "a.mp3", Text: "hello", Duration: 2.5, Gender: "female"})
	assert.NoError(t, err)
}

func TestValidate_UsesJSONFieldNames(t *testing.T) {
	err := Validate(transcription{Duration: -1})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["id"])
	assert.Equal(t, "must be greater than or equal to 0", fields["duration"])
}

func TestValidate_Messages(t *testing.T) {
	err := Validate(transcription{
		ID:     "a.mp3",
		Text:   "this sentence is definitely longer than twenty characters",
		Gender: "robot",
		Tags:   []string{"a", "b", "c"},
	})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "must be at most 20 characters", fields["generated_text"])
	assert.Equal(t, "must be one of: male female other", fields["gender"])
	assert.Equal(t, "must contain at most 2 items", fields["tags"])
	assert.Contains(t, valErr.Error(), "field 'gender'")
}

func TestValidate_NonStruct(t *testing.T) {
	err := Validate("not a struct")
	require.Error(t, err)

	var valErr *ValidationError
	assert.NotErrorAs(t, err, &valErr)
}
