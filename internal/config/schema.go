package config

// ruleDocumentSchema is the JSON Schema (draft 2020-12) every rule
// document is validated against before the rules are decoded. Payload
// contents are deliberately loose here: each logic type enforces its own
// payload shape with a strict decode at evaluation time.
const ruleDocumentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "confgate rule document",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "title", "logic_type", "payload"],
    "additionalProperties": false,
    "properties": {
      "id": {
        "type": "string",
        "pattern": "^[a-zA-Z0-9_-]+$"
      },
      "title": {
        "type": "string",
        "minLength": 1
      },
      "description": {
        "type": "string"
      },
      "remediation": {
        "type": "string"
      },
      "severity": {
        "type": "string",
        "enum": ["", "low", "medium", "high", "critical"]
      },
      "tags": {
        "type": "array",
        "items": {
          "type": "string"
        }
      },
      "logic_type": {
        "type": "string",
        "minLength": 1
      },
      "payload": {
        "type": "object"
      },
      "disabled": {
        "type": "boolean"
      }
    }
  }
}`
