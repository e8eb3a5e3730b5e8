// Package graph holds the resource graph produced by a generation run and hands it
// off to the knowledge graph over JetStream.
package graph

import (
	"time"

	"github.com/c360studio/semstreams/message"
)

// TypePredicate carries a resource's type as a literal.
const TypePredicate = "rdf.syntax.type"

// Edge is a directed relationship between two resources.
type Edge struct {
	Subject   string
	Predicate string
	Object    string
}

// Literal is a value attached to a resource.
type Literal struct {
	Subject   string
	Predicate string
	Value     string
}

// Graph is a set of resource nodes, edges and literals. Nodes, edges and literals
// keep insertion order; adding an identical element twice stores it once. A Graph
// returned by Builder.Graph is never modified again.
type Graph struct {
	nodes    []string
	nodeSet  map[string]struct{}
	edges    []Edge
	edgeSet  map[Edge]struct{}
	literals []Literal
	litSet   map[Literal]struct{}

	// positions into edges and literals, keyed by subject
	edgesBySubject    map[string][]int
	literalsBySubject map[string][]int
}

func newGraph() *Graph {
	return &Graph{
		nodeSet:           make(map[string]struct{}),
		edgeSet:           make(map[Edge]struct{}),
		litSet:            make(map[Literal]struct{}),
		edgesBySubject:    make(map[string][]int),
		literalsBySubject: make(map[string][]int),
	}
}

// Node reports whether id is a node of the graph.
func (g *Graph) Node(id string) bool {
	_, ok := g.nodeSet[id]
	return ok
}

// Nodes returns node identifiers in insertion order.
func (g *Graph) Nodes() []string {
	return append([]string(nil), g.nodes...)
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// Literals returns all literals in insertion order.
func (g *Graph) Literals() []Literal {
	return append([]Literal(nil), g.literals...)
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Objects returns the objects of edges from subject labeled predicate.
func (g *Graph) Objects(subject, predicate string) []string {
	var out []string
	for _, i := range g.edgesBySubject[subject] {
		if e := g.edges[i]; e.Predicate == predicate {
			out = append(out, e.Object)
		}
	}
	return out
}

// Values returns the literal values attached to subject under predicate.
func (g *Graph) Values(subject, predicate string) []string {
	var out []string
	for _, i := range g.literalsBySubject[subject] {
		if l := g.literals[i]; l.Predicate == predicate {
			out = append(out, l.Value)
		}
	}
	return out
}

// SubjectsWithValue returns the subjects carrying the literal value under predicate.
func (g *Graph) SubjectsWithValue(predicate, value string) []string {
	var out []string
	for _, l := range g.literals {
		if l.Predicate == predicate && l.Value == value {
			out = append(out, l.Subject)
		}
	}
	return out
}

// Types returns the resource types of subject.
func (g *Graph) Types(subject string) []string {
	return g.Values(subject, TypePredicate)
}

// Triples converts the whole graph to semstreams triples, node by node. Literals
// precede edges for each subject.
func (g *Graph) Triples(source string, ts time.Time) []message.Triple {
	var out []message.Triple
	for _, id := range g.nodes {
		out = append(out, g.SubjectTriples(id, source, ts)...)
	}
	return out
}

// SubjectTriples converts the literals and outgoing edges of one node.
func (g *Graph) SubjectTriples(subject, source string, ts time.Time) []message.Triple {
	lits, edges := g.literalsBySubject[subject], g.edgesBySubject[subject]
	out := make([]message.Triple, 0, len(lits)+len(edges))
	for _, i := range lits {
		l := g.literals[i]
		out = append(out, message.Triple{
			Subject:    l.Subject,
			Predicate:  l.Predicate,
			Object:     l.Value,
			Source:     source,
			Timestamp:  ts,
			Confidence: 1.0,
		})
	}
	for _, i := range edges {
		e := g.edges[i]
		out = append(out, message.Triple{
			Subject:    e.Subject,
			Predicate:  e.Predicate,
			Object:     e.Object,
			Source:     source,
			Timestamp:  ts,
			Confidence: 1.0,
		})
	}
	return out
}

// Builder accumulates a Graph. It is not safe for concurrent use.
type Builder struct {
	g *Graph
}

// NewBuilder returns a builder for an empty graph.
func NewBuilder() *Builder {
	return &Builder{g: newGraph()}
}

// EnsureNode adds id as a node unless present.
func (b *Builder) EnsureNode(id string) {
	g := b.graph()
	if _, ok := g.nodeSet[id]; ok {
		return
	}
	g.nodeSet[id] = struct{}{}
	g.nodes = append(g.nodes, id)
}

// AddEdge adds a directed edge, creating either endpoint as needed.
func (b *Builder) AddEdge(subject, predicate, object string) {
	b.EnsureNode(subject)
	b.EnsureNode(object)
	g := b.g
	e := Edge{Subject: subject, Predicate: predicate, Object: object}
	if _, ok := g.edgeSet[e]; ok {
		return
	}
	g.edgeSet[e] = struct{}{}
	g.edgesBySubject[subject] = append(g.edgesBySubject[subject], len(g.edges))
	g.edges = append(g.edges, e)
}

// AddLiteral attaches a value to subject, creating the node as needed.
func (b *Builder) AddLiteral(subject, predicate, value string) {
	b.EnsureNode(subject)
	g := b.g
	l := Literal{Subject: subject, Predicate: predicate, Value: value}
	if _, ok := g.litSet[l]; ok {
		return
	}
	g.litSet[l] = struct{}{}
	g.literalsBySubject[subject] = append(g.literalsBySubject[subject], len(g.literals))
	g.literals = append(g.literals, l)
}

// Graph finalizes and returns the graph. The builder must not be used afterwards.
func (b *Builder) Graph() *Graph {
	g := b.graph()
	b.g = nil
	return g
}

func (b *Builder) graph() *Graph {
	if b.g == nil {
		panic("graph: builder used after Graph")
	}
	return b.g
}
