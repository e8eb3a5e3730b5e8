package packaging

import (
	"github.com/c360studio/semstreams/vocabulary"
	"github.com/c360studio/semstreams/vocabulary/bfo"
	"github.com/c360studio/semstreams/vocabulary/cco"
)

// ClassMap maps resource types to business object model class IRIs.
var ClassMap = map[string]string{
	TypeProject:      ClassProject,
	TypeCollection:   ClassCollection,
	TypeDataItem:     ClassDataItem,
	TypeDataFile:     ClassDataFile,
	TypeMetadataFile: ClassMetadataFile,
}

// PROVClassMap maps resource types to PROV-O class IRIs.
var PROVClassMap = map[string]string{
	TypeProject:      vocabulary.ProvEntity,
	TypeCollection:   vocabulary.ProvEntity,
	TypeDataItem:     vocabulary.ProvEntity,
	TypeDataFile:     vocabulary.ProvEntity,
	TypeMetadataFile: vocabulary.ProvEntity,
}

// BFOClassMap maps resource types to BFO class IRIs.
var BFOClassMap = map[string]string{
	TypeProject:      bfo.GenericallyDependentContinuant,
	TypeCollection:   bfo.GenericallyDependentContinuant,
	TypeDataItem:     bfo.GenericallyDependentContinuant,
	TypeDataFile:     bfo.GenericallyDependentContinuant,
	TypeMetadataFile: bfo.GenericallyDependentContinuant,
}

// CCOClassMap maps resource types to CCO class IRIs.
var CCOClassMap = map[string]string{
	TypeProject:      cco.InformationContentEntity,
	TypeCollection:   cco.InformationContentEntity,
	TypeDataItem:     cco.InformationContentEntity,
	TypeDataFile:     cco.InformationContentEntity,
	TypeMetadataFile: cco.DirectiveInformationContentEntity,
}

// GetTypesForResource returns all type IRIs for a resource type and profile:
//   - "minimal": business object model + PROV-O
//   - "bfo": adds BFO
//   - "cco": adds BFO and CCO
//
// Unknown resource types map to a class in the business object model namespace.
func GetTypesForResource(resourceType, profile string) []string {
	types := make([]string, 0, 4)

	if class, ok := ClassMap[resourceType]; ok {
		types = append(types, class)
	} else {
		types = append(types, Namespace+resourceType)
	}

	if provClass, ok := PROVClassMap[resourceType]; ok {
		types = append(types, provClass)
	}

	if profile == "bfo" || profile == "cco" {
		if bfoClass, ok := BFOClassMap[resourceType]; ok {
			types = append(types, bfoClass)
		}
	}

	if profile == "cco" {
		if ccoClass, ok := CCOClassMap[resourceType]; ok {
			types = append(types, ccoClass)
		}
	}

	return types
}

// GetPredicateIRI returns the standard IRI registered for a predicate. Unregistered
// predicates fall back to the business object model namespace.
func GetPredicateIRI(predicate string) string {
	if meta := vocabulary.GetPredicateMetadata(predicate); meta != nil && meta.StandardIRI != "" {
		return meta.StandardIRI
	}
	return Namespace + predicate
}
