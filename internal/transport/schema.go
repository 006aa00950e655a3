package transport

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var (
	chatReplySchema = mustSchema(`{
		"type": "object",
		"required": ["resposta"],
		"properties": {"resposta": {"type": "string"}}
	}`)
	statusSchema = mustSchema(`{
		"type": "object",
		"required": ["chatbot_disponivel"],
		"properties": {"chatbot_disponivel": {"type": "boolean"}}
	}`)
)

func mustSchema(raw string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("transport: invalid schema: %v", err))
	}
	return schema
}

func validate(schema *gojsonschema.Schema, payload []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("response is not json: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return errors.New(strings.Join(msgs, "; "))
}
