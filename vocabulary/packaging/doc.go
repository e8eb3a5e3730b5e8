// Package packaging provides vocabulary predicates and classes for archival packaging
// resources.
//
// A generated graph describes a content tree with five resource types:
//   - Project: the root of the tree
//   - Collection: a directory that groups other directories
//   - DataItem: a directory holding only files
//   - DataFile: a file belonging to a DataItem
//   - MetadataFile: a file describing the directory it sits in
//
// # Semstreams Integration
//
// This package follows semstreams vocabulary patterns:
//   - Predicates use three-level dotted notation (domain.category.property)
//   - Predicates are registered in init() using vocabulary.Register()
//   - IRI mappings use vocabulary.WithIRI() for RDF export compatibility
//
// Class IRIs live in the business object model namespace; PROV-O, BFO and CCO
// alignments are provided by the class maps for profile-based RDF export.
//
// # Usage
//
//	import (
//	    "github.com/c360studio/contentgraph/vocabulary/packaging"
//	    "github.com/c360studio/contentgraph/graph"
//	)
//
//	g.Values(id, packaging.ResourceSource)
//	g.SubjectsWithValue(graph.TypePredicate, packaging.TypeDataFile)
package packaging
