package kafka

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/epw-weather-service/internal/config"
	"github.com/couchcryptid/epw-weather-service/internal/epw"
	"github.com/couchcryptid/epw-weather-service/internal/pipeline"
)

func testConversion(stationID string) pipeline.Conversion {
	return pipeline.Conversion{
		JobID:  "job-1",
		Source: "chicago",
		Summary: pipeline.Summary{
			Name:     "chicago",
			Location: epw.Location{City: "Chicago Ohare Intl Ap", StationID: stationID},
		},
		Outputs: []pipeline.Output{
			{Format: epw.FormatJSON, Data: []byte(`{"type":"EPW"}`)},
			{Format: epw.FormatWEA, Data: []byte("place x\n")},
		},
		ProcessedAt: time.Date(2024, 4, 27, 6, 0, 0, 0, time.UTC),
	}
}

func TestSerializeToMessage(t *testing.T) {
	conv := testConversion("725300")

	msg, err := serializeToMessage(conv)
	require.NoError(t, err)

	assert.Equal(t, []byte("725300"), msg.Key)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "job_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("job-1"), msg.Headers[0].Value)
	assert.Equal(t, "format", msg.Headers[1].Key)
	assert.Equal(t, []byte("json,wea"), msg.Headers[1].Value)
	assert.Equal(t, "processed_at", msg.Headers[2].Key)
	assert.Equal(t, []byte("2024-04-27T06:00:00Z"), msg.Headers[2].Value)

	var event Event
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, "job-1", event.JobID)
	assert.Equal(t, "Chicago Ohare Intl Ap", event.Summary.Location.City)
	assert.Equal(t, []OutputInfo{{Format: epw.FormatJSON, Bytes: 14}, {Format: epw.FormatWEA, Bytes: 8}}, event.Outputs)
	assert.True(t, conv.ProcessedAt.Equal(event.ProcessedAt))
}

func TestMessageKey_FallsBackToSource(t *testing.T) {
	assert.Equal(t, "chicago", messageKey(testConversion("-")))
	assert.Equal(t, "chicago", messageKey(testConversion("")))
}

func TestWriter_EmptyBatchIsNoop(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"localhost:1"}, KafkaTopic: "epw-documents"}
	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, w.LoadBatch(context.Background(), nil))
}
