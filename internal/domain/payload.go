package domain

import "encoding/json"

// typedBody is the only part of an event body the pipeline inspects
type typedBody struct {
	Type json.RawMessage `json:"type"`
}

// TypeTag extracts the "type" field of a raw event body.
//
// Bodies that are not JSON objects, or whose "type" is absent or not a string,
// yield an empty tag, which classifies to QueueDefault.
func TypeTag(body []byte) string {
	var tb typedBody
	if err := json.Unmarshal(body, &tb); err != nil || len(tb.Type) == 0 {
		return ""
	}

	var tag string
	if err := json.Unmarshal(tb.Type, &tag); err != nil {
		return ""
	}
	return tag
}

// DecodeContent turns a raw payload into an open-ended structured value.
// Valid JSON is decoded as-is (objects become map[string]interface{});
// anything else is kept as a string so no payload is ever rejected.
func DecodeContent(payload []byte) interface{} {
	var content interface{}
	if err := json.Unmarshal(payload, &content); err != nil {
		return string(payload)
	}
	return content
}
