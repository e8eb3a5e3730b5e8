package packaging

// Namespace is the base IRI prefix for business object model terms.
const Namespace = "http://dataconservancy.org/business-object-model#"

// Standard ontology IRI constants for mappings.
const (
	// DcFormat is the Dublin Core format property.
	DcFormat = "http://purl.org/dc/terms/format"

	// DcCreated is the Dublin Core creation date property.
	DcCreated = "http://purl.org/dc/terms/created"

	// DcModified is the Dublin Core modification date property.
	DcModified = "http://purl.org/dc/terms/modified"

	// DcExtent is the Dublin Core extent property, used for byte sizes.
	DcExtent = "http://purl.org/dc/terms/extent"
)

// Class IRIs define the types of packaging resources.
const (
	// ClassProject represents the root of a content tree.
	ClassProject = Namespace + "Project"

	// ClassCollection represents a directory of directories.
	ClassCollection = Namespace + "Collection"

	// ClassDataItem represents a directory of files.
	ClassDataItem = Namespace + "DataItem"

	// ClassDataFile represents a content file.
	ClassDataFile = Namespace + "DataFile"

	// ClassMetadataFile represents a file describing another resource.
	ClassMetadataFile = Namespace + "MetadataFile"
)

// Object Property IRIs define relationships between packaging resources.
const (
	// PropIsMemberOf links a resource to the resource that aggregates it.
	PropIsMemberOf = Namespace + "isMemberOf"

	// PropIsMetadataFor links a metadata file to the resource it describes.
	PropIsMetadataFor = Namespace + "isMetadataFor"
)
