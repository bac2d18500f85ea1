package ingest

import (
	"github.com/esperluet/cv-smarter/internal/pipeline"
)

const schemaVersion = "1.0"

func canonical(doc pipeline.InputDocument, text string) pipeline.CanonicalDocument {
	return pipeline.CanonicalDocument{
		SchemaVersion:   schemaVersion,
		SourceMediaType: doc.MediaType,
		Text:            text,
		Metadata:        map[string]string{"original_name": doc.OriginalName},
	}
}

func supportedSet(types []string) map[string]struct{} {
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return set
}
