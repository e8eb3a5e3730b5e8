package packaging

import (
	"github.com/c360studio/semstreams/vocabulary"
	"github.com/c360studio/semstreams/vocabulary/bfo"
)

// Resource type names carried by the rdf.syntax.type literal.
const (
	TypeProject      = "Project"
	TypeCollection   = "Collection"
	TypeDataItem     = "DataItem"
	TypeDataFile     = "DataFile"
	TypeMetadataFile = "MetadataFile"
)

// Resource predicates apply to every packaging resource.
const (
	// ResourceSource is the entity path relative to the parent of the traversal root.
	ResourceSource = "packaging.resource.source"

	// ResourceTitle is the entity's base name.
	ResourceTitle = "packaging.resource.title"

	// ResourceCreated is the creation timestamp (RFC 3339).
	ResourceCreated = "packaging.resource.created"

	// ResourceModified is the modification timestamp (RFC 3339).
	ResourceModified = "packaging.resource.modified"
)

// File predicates apply to file resources.
const (
	// FileSize is the byte length.
	FileSize = "packaging.file.size"

	// FileFormat is the detected MIME type.
	FileFormat = "packaging.file.format"

	// FileChecksum is "algorithm:hexdigest".
	FileChecksum = "packaging.file.checksum"
)

// Relationship predicates link resources.
const (
	// MemberOf links a resource to its aggregating parent.
	MemberOf = "packaging.membership.member_of"

	// MetadataFor links a metadata file to the resource it describes.
	MetadataFor = "packaging.metadata.describes"
)

func init() {
	vocabulary.Register(ResourceSource,
		vocabulary.WithDescription("Entity path relative to the parent of the traversal root"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(vocabulary.DcSource))

	vocabulary.Register(ResourceTitle,
		vocabulary.WithDescription("Entity base name"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(vocabulary.DcTitle))

	vocabulary.Register(ResourceCreated,
		vocabulary.WithDescription("Creation timestamp"),
		vocabulary.WithDataType("datetime"),
		vocabulary.WithIRI(DcCreated))

	vocabulary.Register(ResourceModified,
		vocabulary.WithDescription("Last modification timestamp"),
		vocabulary.WithDataType("datetime"),
		vocabulary.WithIRI(DcModified))

	vocabulary.Register(FileSize,
		vocabulary.WithDescription("File size in bytes"),
		vocabulary.WithDataType("int"),
		vocabulary.WithIRI(DcExtent))

	vocabulary.Register(FileFormat,
		vocabulary.WithDescription("Detected MIME type"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(DcFormat))

	vocabulary.Register(FileChecksum,
		vocabulary.WithDescription("Content digest as algorithm:hex"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Namespace+"checksum"))

	vocabulary.Register(MemberOf,
		vocabulary.WithDescription("Links a resource to the resource aggregating it"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(bfo.PartOf))

	vocabulary.Register(MetadataFor,
		vocabulary.WithDescription("Links a metadata file to the resource it describes"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(PropIsMetadataFor))
}
