package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clip struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func TestNewEvent_RoundTrip(t *testing.T) {
	ev, err := NewEvent("transcription.created", "clip-1", "asr-pipeline", clip{ID: "clip-1", Text: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, 1, ev.Version)

	raw, err := ev.Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, ev.EventID, decoded.EventID)

	var got clip
	require.NoError(t, decoded.UnmarshalData(&got))
	assert.Equal(t, "hello", got.Text)
}

func TestUnmarshalEvent_Invalid(t *testing.T) {
	_, err := UnmarshalEvent([]byte("{not json"))
	assert.Error(t, err)
}

func TestUnmarshalData_Empty(t *testing.T) {
	ev := &Event{EventID: "e1"}
	var got clip
	assert.Error(t, ev.UnmarshalData(&got))
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "cvsearch.transcription.created", Topic("transcription", "created"))
	assert.Equal(t, "cvsearch.transcription.created.dlq", DLQTopic(Topic("transcription", "created")))
}
