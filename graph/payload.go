package graph

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/message"
)

func init() {
	err := component.RegisterPayload(&component.PayloadRegistration{
		Domain:      "packaging",
		Category:    "resource",
		Version:     "v1",
		Description: "Packaging resource with its literal and relationship triples",
		Factory:     func() any { return &ResourcePayload{} },
	})
	if err != nil {
		panic("failed to register ResourcePayload: " + err.Error())
	}
}

// ResourceType is the message type for packaging resource payloads.
var ResourceType = message.Type{Domain: "packaging", Category: "resource", Version: "v1"}

// ResourcePayload carries one resource of a generated graph to the knowledge graph.
type ResourcePayload struct {
	ID         string           `json:"id"`
	TripleData []message.Triple `json:"triples"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func (p *ResourcePayload) EntityID() string          { return p.ID }
func (p *ResourcePayload) Triples() []message.Triple { return p.TripleData }
func (p *ResourcePayload) Schema() message.Type      { return ResourceType }

func (p *ResourcePayload) Validate() error {
	if p.ID == "" {
		return errors.New("resource ID is required")
	}
	if len(p.TripleData) == 0 {
		return errors.New("resource has no triples")
	}
	return nil
}

func (p *ResourcePayload) MarshalJSON() ([]byte, error) {
	type Alias ResourcePayload
	return json.Marshal((*Alias)(p))
}

func (p *ResourcePayload) UnmarshalJSON(data []byte) error {
	type Alias ResourcePayload
	return json.Unmarshal(data, (*Alias)(p))
}

// Payloads returns one payload per node that has at least one triple.
func (g *Graph) Payloads(source string, ts time.Time) []*ResourcePayload {
	out := make([]*ResourcePayload, 0, len(g.nodes))
	for _, id := range g.nodes {
		triples := g.SubjectTriples(id, source, ts)
		if len(triples) == 0 {
			continue
		}
		out = append(out, &ResourcePayload{ID: id, TripleData: triples, UpdatedAt: ts})
	}
	return out
}
