package core

// typeAcronyms maps transformation types to the prefix used in qualified node names.
var typeAcronyms = map[string]string{
	"Filter":                           "FILT_",
	"Target Definition":                "TGT_",
	"Source Definition":                "SRC_",
	"App Multi-Group Source Qualifier": "SRCQ_",
	"Source Qualifier":                 "SRCQ_",
	"XML Source Qualifier":             "XSRCQ_",
	"Custom Transformation":            "CTR_",
	"Aggregator":                       "AGGR_",
	"Update Strategy":                  "UPD_",
	"Expression":                       "EXPR_",
	"Lookup Procedure":                 "LOOK_",
	"Sequence":                         "SEQ_",
}

// TypeAcronym returns the node prefix for a transformation type.
// Unknown types are returned unchanged so that distinct types never collide.
func TypeAcronym(transformationType string) string {
	if a, ok := typeAcronyms[transformationType]; ok {
		return a
	}
	return transformationType
}

// KnownType reports whether the type has a registered acronym.
func KnownType(transformationType string) bool {
	_, ok := typeAcronyms[transformationType]
	return ok
}

// QualifiedName joins the type acronym and instance name.
func QualifiedName(transformationType, name string) string {
	return TypeAcronym(transformationType) + name
}
