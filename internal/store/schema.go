package store

import (
	"embed"
	"strings"

	contextutils "civicfeedback/internal/utils"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// payloadValidator checks persisted payloads against the embedded JSON schemas
type payloadValidator struct {
	schemas map[string]*gojsonschema.Schema
}

func newPayloadValidator() (*payloadValidator, error) {
	v := &payloadValidator{schemas: make(map[string]*gojsonschema.Schema)}
	for key, file := range map[string]string{
		UsersKey:     "schemas/users.json",
		FeedbackKey:  "schemas/feedback.json",
		SequencesKey: "schemas/sequences.json",
	} {
		data, err := schemaFS.ReadFile(file)
		if err != nil {
			return nil, contextutils.WrapErrorf(err, "failed to read schema %s", file)
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if err != nil {
			return nil, contextutils.WrapErrorf(err, "failed to compile schema %s", file)
		}
		v.schemas[key] = schema
	}
	return v, nil
}

// validate returns a CORRUPT_DATA error listing the violations when payload does not match the schema for key
func (v *payloadValidator) validate(key string, payload []byte) error {
	schema, ok := v.schemas[key]
	if !ok {
		return contextutils.ErrorWithContextf("no schema registered for %s", key)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return contextutils.WithDetails(contextutils.ErrCorruptData, "%s is not valid JSON: %v", key, err)
	}
	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return contextutils.WithDetails(contextutils.ErrCorruptData, "%s: %s", key, strings.Join(violations, "; "))
}
