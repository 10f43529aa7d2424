package archive

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/theimaginaryfoundation/pdt/snapshot"
	"github.com/theimaginaryfoundation/pdt/snapshot/synopsis"
)

// GenerateSchema reflects T into an inlined JSON Schema document.
func GenerateSchema[T any]() ([]byte, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	b, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("GenerateSchema: %w", err)
	}
	return append(b, '\n'), nil
}

// schemaFiles returns the schema documents shipped under schema/, in archive order.
func schemaFiles() ([]File, error) {
	gens := []struct {
		name string
		gen  func() ([]byte, error)
	}{
		{"evidence_row.schema.json", GenerateSchema[snapshot.EvidenceRow]},
		{"snapshot.schema.json", GenerateSchema[snapshot.Snapshot]},
		{"profile_synopsis.schema.json", GenerateSchema[synopsis.ProfileSynopsis]},
	}
	out := make([]File, 0, len(gens))
	for _, g := range gens {
		b, err := g.gen()
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", g.name, err)
		}
		out = append(out, File{Name: SchemaDirectory + g.name, Data: b})
	}
	return out, nil
}
