package httpapi

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// chatRequestSchema describes the body of POST /api/chat.
// Whether a usable question exists is decided by the chat service.
const chatRequestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "messages": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "role": {"type": "string", "enum": ["user", "assistant"]},
          "content": {"type": "string"}
        },
        "required": ["role", "content"]
      }
    },
    "message": {"type": "string"}
  },
  "anyOf": [
    {"required": ["message"]},
    {"required": ["messages"]}
  ]
}`

var chatSchemaLoader = gojsonschema.NewStringLoader(chatRequestSchema)

// validateChatBody checks a raw request body against chatRequestSchema.
func validateChatBody(body []byte) error {
	result, err := gojsonschema.Validate(chatSchemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("malformed JSON body: %w", err)
	}
	if result.Valid() {
		return nil
	}

	errs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return fmt.Errorf("invalid request body: %s", strings.Join(errs, "; "))
}
