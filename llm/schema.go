package llm

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Schema reflects a JSON schema for T with additional properties disallowed
// and every definition inlined
func Schema[T any]() *jsonschema.Schema {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// SchemaJSON renders Schema[T] for embedding in a prompt
func SchemaJSON[T any]() string {
	data, err := json.MarshalIndent(Schema[T](), "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}
