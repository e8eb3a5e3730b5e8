package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGraph() *Graph {
	b := NewBuilder()
	b.AddLiteral("urn:a", TypePredicate, "Collection")
	b.AddLiteral("urn:b", TypePredicate, "DataItem")
	b.AddEdge("urn:b", "isMemberOf", "urn:a")
	b.AddLiteral("urn:b", "size", "42")
	return b.Graph()
}

func TestBuilder_SetSemantics(t *testing.T) {
	b := NewBuilder()
	b.EnsureNode("urn:a")
	b.EnsureNode("urn:a")
	b.AddEdge("urn:a", "p", "urn:b")
	b.AddEdge("urn:a", "p", "urn:b")
	b.AddLiteral("urn:a", "title", "x")
	b.AddLiteral("urn:a", "title", "x")
	b.AddLiteral("urn:a", "title", "y")
	g := b.Graph()

	assert.Equal(t, []string{"urn:a", "urn:b"}, g.Nodes())
	assert.Len(t, g.Edges(), 1)
	assert.Equal(t, []string{"x", "y"}, g.Values("urn:a", "title"))
	assert.True(t, g.Node("urn:b"), "edge target becomes a node")
	assert.False(t, g.Node("urn:c"))
}

func TestBuilder_UnusableAfterGraph(t *testing.T) {
	b := NewBuilder()
	b.EnsureNode("urn:a")
	_ = b.Graph()
	assert.Panics(t, func() { b.EnsureNode("urn:b") })
}

func TestGraph_Queries(t *testing.T) {
	g := sampleGraph()

	assert.Equal(t, 2, g.Len())
	assert.Equal(t, []string{"urn:a"}, g.Objects("urn:b", "isMemberOf"))
	assert.Empty(t, g.Objects("urn:a", "isMemberOf"))
	assert.Equal(t, []string{"DataItem"}, g.Types("urn:b"))
	assert.Equal(t, []string{"urn:a"}, g.SubjectsWithValue(TypePredicate, "Collection"))
	assert.Len(t, g.Literals(), 3)
}

func TestGraph_Triples(t *testing.T) {
	g := sampleGraph()
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	triples := g.Triples("contentgraph", ts)
	require.Len(t, triples, 4)

	assert.Equal(t, "urn:a", triples[0].Subject)
	assert.Equal(t, "Collection", triples[0].Object)

	// urn:b literals come before its edge
	assert.Equal(t, "size", triples[2].Predicate)
	assert.Equal(t, "isMemberOf", triples[3].Predicate)
	assert.Equal(t, "urn:a", triples[3].Object)
	for _, tr := range triples {
		assert.Equal(t, "contentgraph", tr.Source)
		assert.Equal(t, ts, tr.Timestamp)
		assert.Equal(t, 1.0, tr.Confidence)
	}
}

func wideGraph(n int) *Graph {
	b := NewBuilder()
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("urn:n%d", i)
		b.AddLiteral(id, TypePredicate, "DataFile")
		for j := 0; j < 4; j++ {
			b.AddLiteral(id, fmt.Sprintf("p%d", j), fmt.Sprintf("v%d-%d", i, j))
		}
		if i > 0 {
			b.AddEdge(id, "isMemberOf", "urn:n0")
		}
	}
	return b.Graph()
}

func TestGraph_PayloadsGroupBySubjectAtScale(t *testing.T) {
	const n = 20000
	g := wideGraph(n)

	start := time.Now()
	payloads := g.Payloads("contentgraph", time.Now())
	elapsed := time.Since(start)

	require.Len(t, payloads, n)
	assert.Len(t, payloads[0].TripleData, 5, "edge targets only carry their own triples")
	for i, p := range payloads {
		want := 6
		if i == 0 {
			want = 5
		}
		require.Len(t, p.TripleData, want, p.ID)
		for _, tr := range p.TripleData {
			require.Equal(t, p.ID, tr.Subject)
		}
		if i > 0 {
			assert.Equal(t, "isMemberOf", p.TripleData[want-1].Predicate, "edges follow literals")
		}
	}
	assert.Equal(t, []string{"v19999-3"}, g.Values("urn:n19999", "p3"))
	assert.Equal(t, []string{"urn:n0"}, g.Objects("urn:n19999", "isMemberOf"))
	assert.Less(t, elapsed, 5*time.Second)
}

func BenchmarkPayloads(b *testing.B) {
	g := wideGraph(5000)
	ts := time.Now()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = g.Payloads("contentgraph", ts)
	}
}

func TestResourcePayload(t *testing.T) {
	g := sampleGraph()
	payloads := g.Payloads("contentgraph", time.Now())
	require.Len(t, payloads, 2)

	p := payloads[1]
	assert.Equal(t, "urn:b", p.EntityID())
	assert.Len(t, p.Triples(), 3)
	assert.Equal(t, ResourceType, p.Schema())
	require.NoError(t, p.Validate())

	data, err := json.Marshal(p)
	require.NoError(t, err)
	var decoded ResourcePayload
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "urn:b", decoded.ID)
	assert.Len(t, decoded.TripleData, 3)

	assert.Error(t, (&ResourcePayload{}).Validate())
	assert.Error(t, (&ResourcePayload{ID: "urn:x"}).Validate())
}

type fakePublisher struct {
	subjects []string
	messages [][]byte
	failAt   int
}

func (f *fakePublisher) Publish(_ context.Context, subject string, data []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	if f.failAt > 0 && len(f.messages)+1 == f.failAt {
		return nil, errors.New("no responders")
	}
	f.subjects = append(f.subjects, subject)
	f.messages = append(f.messages, data)
	return &jetstream.PubAck{Stream: GraphIngestStream}, nil
}

func TestPublish(t *testing.T) {
	g := sampleGraph()

	t.Run("one message per resource", func(t *testing.T) {
		pub := &fakePublisher{}
		n, err := Publish(context.Background(), pub, "", g, "contentgraph")
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, []string{GraphIngestSubject, GraphIngestSubject}, pub.subjects)

		var msg ResourcePayload
		require.NoError(t, json.Unmarshal(pub.messages[0], &msg))
		assert.Equal(t, "urn:a", msg.ID)
	})

	t.Run("nil publisher skips", func(t *testing.T) {
		n, err := Publish(context.Background(), nil, "", g, "contentgraph")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("publish failure", func(t *testing.T) {
		pub := &fakePublisher{failAt: 2}
		n, err := Publish(context.Background(), pub, "custom.subject", g, "contentgraph")
		require.Error(t, err)
		assert.Equal(t, 1, n)
		assert.Contains(t, err.Error(), "publish resource urn:b")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Publish(ctx, &fakePublisher{}, "", g, "contentgraph")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

type fakeStreams struct {
	cfg jetstream.StreamConfig
	err error
}

func (f *fakeStreams) CreateOrUpdateStream(_ context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	f.cfg = cfg
	return nil, f.err
}

func TestEnsureStream(t *testing.T) {
	fs := &fakeStreams{}
	require.NoError(t, EnsureStream(context.Background(), fs, GraphIngestStream))
	assert.Equal(t, GraphIngestStream, fs.cfg.Name)
	assert.Equal(t, []string{GraphIngestSubject}, fs.cfg.Subjects)

	fs.err = errors.New("denied")
	assert.Error(t, EnsureStream(context.Background(), fs, "X", "a.b"))

	assert.NoError(t, EnsureStream(context.Background(), nil, "X"))
}
