// Package export serializes a resource graph as RDF in Turtle, N-Triples and
// JSON-LD, with ontology type assertions chosen by profile.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/c360studio/semstreams/vocabulary"

	"github.com/c360studio/contentgraph/graph"
	"github.com/c360studio/contentgraph/vocabulary/packaging"
)

const (
	rdfType    = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	xsdNS      = "http://www.w3.org/2001/XMLSchema#"
	xsdInteger = xsdNS + "integer"
	xsdDecimal = xsdNS + "decimal"
	xsdBoolean = xsdNS + "boolean"
	xsdDate    = xsdNS + "dateTime"
)

func defaultPrefixes() map[string]string {
	return map[string]string{
		"rdf":  "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
		"rdfs": "http://www.w3.org/2000/01/rdf-schema#",
		"xsd":  xsdNS,
		"dc":   "http://purl.org/dc/terms/",
		"prov": "http://www.w3.org/ns/prov#",
		"bfo":  "http://purl.obolibrary.org/obo/BFO_",
		"cco":  "https://www.commoncoreontologies.org/",
		"bom":  packaging.Namespace,
	}
}

// Term is the object of a statement: an IRI, or a literal with an optional
// datatype IRI.
type Term struct {
	IRI      string
	Value    string
	Datatype string
}

// IRI returns an IRI term.
func IRI(iri string) Term { return Term{IRI: iri} }

// Literal returns a literal term.
func Literal(value, datatype string) Term { return Term{Value: value, Datatype: datatype} }

// IsIRI reports whether the term names a resource.
func (t Term) IsIRI() bool { return t.IRI != "" }

func (t Term) ntriples() string {
	if t.IsIRI() {
		return "<" + t.IRI + ">"
	}
	if t.Datatype != "" {
		return fmt.Sprintf("\"%s\"^^<%s>", escapeString(t.Value), t.Datatype)
	}
	return fmt.Sprintf("\"%s\"", escapeString(t.Value))
}

func (t Term) turtle() string {
	if t.IsIRI() || t.Datatype == "" || !strings.HasPrefix(t.Datatype, xsdNS) {
		return t.ntriples()
	}
	return fmt.Sprintf("\"%s\"^^xsd:%s", escapeString(t.Value), strings.TrimPrefix(t.Datatype, xsdNS))
}

// Statement is a single RDF triple.
type Statement struct {
	Subject   string
	Predicate string
	Object    Term
}

// RDFExporter converts a resource graph to RDF.
type RDFExporter struct {
	types    *TypeAsserter
	prefixes map[string]string
}

// NewRDFExporter creates an exporter for the given profile.
func NewRDFExporter(profile Profile) *RDFExporter {
	return &RDFExporter{
		types:    NewTypeAsserter(profile),
		prefixes: defaultPrefixes(),
	}
}

// SetPrefix adds or replaces a namespace prefix used by Turtle and JSON-LD output.
func (e *RDFExporter) SetPrefix(prefix, iri string) {
	e.prefixes[prefix] = iri
}

// Statements returns the RDF statements for g, grouped by subject in node order
// with type assertions first. Type literals become rdf:type assertions for every
// class the profile selects; edges keep their object node as an IRI.
func (e *RDFExporter) Statements(g *graph.Graph) []Statement {
	if g == nil {
		return nil
	}
	types := make(map[string][]Statement, g.Len())
	bySubject := make(map[string][]Statement, g.Len())
	for _, l := range g.Literals() {
		if l.Predicate == graph.TypePredicate {
			for _, typeIRI := range e.types.GetTypeIRIs(l.Value) {
				types[l.Subject] = append(types[l.Subject], Statement{
					Subject:   l.Subject,
					Predicate: rdfType,
					Object:    IRI(typeIRI),
				})
			}
			continue
		}
		bySubject[l.Subject] = append(bySubject[l.Subject], Statement{
			Subject:   l.Subject,
			Predicate: packaging.GetPredicateIRI(l.Predicate),
			Object:    Literal(l.Value, literalDatatype(l.Predicate)),
		})
	}
	for _, edge := range g.Edges() {
		bySubject[edge.Subject] = append(bySubject[edge.Subject], Statement{
			Subject:   edge.Subject,
			Predicate: packaging.GetPredicateIRI(edge.Predicate),
			Object:    IRI(edge.Object),
		})
	}

	var out []Statement
	for _, node := range g.Nodes() {
		out = append(out, dedupe(append(types[node], bySubject[node]...))...)
	}
	return out
}

// dedupe drops repeated statements, which happen when two profile classes resolve
// to the same IRI.
func dedupe(stmts []Statement) []Statement {
	seen := make(map[Statement]bool, len(stmts))
	out := stmts[:0]
	for _, s := range stmts {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// Export serializes g in the given format.
func (e *RDFExporter) Export(g *graph.Graph, format Format) (string, error) {
	switch format {
	case FormatTurtle:
		return e.toTurtle(g), nil
	case FormatNTriples:
		return e.toNTriples(g), nil
	case FormatJSONLD:
		return e.toJSONLD(g)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// Write serializes g to w.
func (e *RDFExporter) Write(w io.Writer, g *graph.Graph, format Format) error {
	out, err := e.Export(g, format)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, out); err != nil {
		return fmt.Errorf("write %s: %w", format, err)
	}
	return nil
}

func (e *RDFExporter) toTurtle(g *graph.Graph) string {
	w := NewTurtleWriter()
	for prefix, iri := range e.prefixes {
		w.SetPrefix(prefix, iri)
	}
	w.WritePrefixes()

	stmts := e.Statements(g)
	for i := 0; i < len(stmts); {
		subject := stmts[i].Subject
		j := i
		for j < len(stmts) && stmts[j].Subject == subject {
			j++
		}
		w.WriteSubject(subject)
		for k := i; k < j; k++ {
			last := k == j-1
			if stmts[k].Predicate == rdfType {
				w.WriteType(stmts[k].Object.IRI, last)
			} else {
				w.WritePredicate(stmts[k].Predicate, stmts[k].Object, last)
			}
		}
		w.WriteBlank()
		i = j
	}
	return w.String()
}

func (e *RDFExporter) toNTriples(g *graph.Graph) string {
	w := NewNTriplesWriter()
	for _, s := range e.Statements(g) {
		w.WriteTriple(s.Subject, s.Predicate, s.Object)
	}
	return w.String()
}

func (e *RDFExporter) toJSONLD(g *graph.Graph) (string, error) {
	w := NewJSONLDWriter()
	w.SetContext(e.prefixes)

	stmts := e.Statements(g)
	for i := 0; i < len(stmts); {
		subject := stmts[i].Subject
		var types []string
		props := make(map[string]any)
		for ; i < len(stmts) && stmts[i].Subject == subject; i++ {
			s := stmts[i]
			if s.Predicate == rdfType {
				types = append(types, s.Object.IRI)
				continue
			}
			props[s.Predicate] = appendValue(props[s.Predicate], jsonldValue(s.Object))
		}
		w.AddNode(subject, types, props)
	}
	return w.String()
}

func jsonldValue(t Term) map[string]string {
	if t.IsIRI() {
		return map[string]string{"@id": t.IRI}
	}
	if t.Datatype != "" {
		return map[string]string{"@value": t.Value, "@type": t.Datatype}
	}
	return map[string]string{"@value": t.Value}
}

// appendValue keeps single values scalar and promotes repeated ones to a list.
func appendValue(existing any, v map[string]string) any {
	switch cur := existing.(type) {
	case nil:
		return v
	case map[string]string:
		return []map[string]string{cur, v}
	case []map[string]string:
		return append(cur, v)
	default:
		return v
	}
}

// literalDatatype maps a registered predicate data type to its XSD datatype.
func literalDatatype(predicate string) string {
	meta := vocabulary.GetPredicateMetadata(predicate)
	if meta == nil {
		return ""
	}
	switch meta.DataType {
	case "int", "integer":
		return xsdInteger
	case "float", "decimal":
		return xsdDecimal
	case "bool", "boolean":
		return xsdBoolean
	case "datetime", "time.Time":
		return xsdDate
	default:
		return ""
	}
}

func escapeString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}
