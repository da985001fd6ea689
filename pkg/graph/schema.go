package graph

// documentSchema is the JSON Schema gate applied to flow documents before
// decoding. It pins the envelope shape and the closed enums; referential
// checks happen in Validate, where node context is available.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["nodes"],
  "properties": {
    "id": {"type": "string"},
    "name": {"type": "string"},
    "nodes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "kind"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "kind": {
            "type": "string",
            "enum": ["start", "command", "message", "user-input", "photo", "video", "audio", "document", "location"]
          },
          "position": {
            "type": "object",
            "properties": {
              "x": {"type": "number"},
              "y": {"type": "number"}
            }
          },
          "config": {"type": "object"}
        }
      }
    },
    "connections": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["source", "target"],
        "properties": {
          "source": {"type": "string", "minLength": 1},
          "target": {"type": "string", "minLength": 1},
          "sourceHandle": {"type": "string"},
          "targetHandle": {"type": "string"}
        }
      }
    }
  }
}`
