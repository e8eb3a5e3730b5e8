package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// Defaults for graph ingestion.
const (
	GraphIngestSubject = "graph.ingest.entity"
	GraphIngestStream  = "GRAPH"
)

// Publisher publishes to JetStream. jetstream.JetStream satisfies it.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// StreamManager creates streams. jetstream.JetStream satisfies it.
type StreamManager interface {
	CreateOrUpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
}

// EnsureStream creates or updates the stream that captures subjects.
func EnsureStream(ctx context.Context, js StreamManager, name string, subjects ...string) error {
	if js == nil {
		return nil
	}
	if len(subjects) == 0 {
		subjects = []string{GraphIngestSubject}
	}
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        name,
		Description: "Packaging resource graph ingestion",
		Subjects:    subjects,
	})
	if err != nil {
		return fmt.Errorf("ensure stream %s: %w", name, err)
	}
	return nil
}

// Publish sends every resource of g to subject, one message per resource. It
// returns the number of messages published.
func Publish(ctx context.Context, js Publisher, subject string, g *Graph, source string) (int, error) {
	if js == nil {
		return 0, nil // Skip publishing if no JetStream (graceful degradation)
	}
	if subject == "" {
		subject = GraphIngestSubject
	}

	sent := 0
	for _, p := range g.Payloads(source, time.Now()) {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if err := p.Validate(); err != nil {
			return sent, fmt.Errorf("validate resource %s: %w", p.ID, err)
		}
		data, err := json.Marshal(p)
		if err != nil {
			return sent, fmt.Errorf("marshal resource %s: %w", p.ID, err)
		}
		if _, err := js.Publish(ctx, subject, data); err != nil {
			return sent, fmt.Errorf("publish resource %s: %w", p.ID, err)
		}
		sent++
	}
	return sent, nil
}
