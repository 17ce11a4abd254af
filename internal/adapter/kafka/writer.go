package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	json "github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/epw-weather-service/internal/config"
	"github.com/couchcryptid/epw-weather-service/internal/epw"
	"github.com/couchcryptid/epw-weather-service/internal/pipeline"
)

// Event is the message value published for each conversion. Full renderings
// stay on the filesystem; the event lists which formats were produced.
type Event struct {
	JobID       string           `json:"job_id"`
	Source      string           `json:"source"`
	Summary     pipeline.Summary `json:"summary"`
	Outputs     []OutputInfo     `json:"outputs"`
	ProcessedAt time.Time        `json:"processed_at"`
}

// OutputInfo describes one rendered output.
type OutputInfo struct {
	Format epw.Format `json:"format"`
	Bytes  int        `json:"bytes"`
}

// Writer produces conversion events to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic. Events for the
// same station hash to the same partition.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes the conversions in a single
// WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, conversions []pipeline.Conversion) error {
	if len(conversions) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(conversions))
	for i := range conversions {
		msg, err := serializeToMessage(conversions[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d events to %s: %w", len(msgs), w.writer.Topic, err)
	}
	w.logger.Debug("events published", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// messageKey prefers the WMO station id and falls back to the source name.
func messageKey(conv pipeline.Conversion) string {
	if id := conv.Summary.Location.StationID; id != "" && id != "-" {
		return id
	}
	return conv.Source
}

// serializeToMessage marshals a conversion into a Kafka message.
func serializeToMessage(conv pipeline.Conversion) (kafkago.Message, error) {
	event := Event{
		JobID:       conv.JobID,
		Source:      conv.Source,
		Summary:     conv.Summary,
		Outputs:     make([]OutputInfo, len(conv.Outputs)),
		ProcessedAt: conv.ProcessedAt,
	}
	formats := ""
	for i, o := range conv.Outputs {
		event.Outputs[i] = OutputInfo{Format: o.Format, Bytes: len(o.Data)}
		if i > 0 {
			formats += ","
		}
		formats += string(o.Format)
	}
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize conversion event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(messageKey(conv)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "job_id", Value: []byte(conv.JobID)},
			{Key: "format", Value: []byte(formats)},
			{Key: "processed_at", Value: []byte(conv.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
