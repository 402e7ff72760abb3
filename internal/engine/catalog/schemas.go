package catalog

// JSON schemas for the built-in config payloads.

const rangeSchema = `{
  "type": "object",
  "properties": {
    "min": {"type": "number"},
    "max": {"type": "number"}
  },
  "anyOf": [{"required": ["min"]}, {"required": ["max"]}]
}`

const lengthSchema = `{
  "type": "object",
  "properties": {
    "min": {"type": "integer", "minimum": 0},
    "max": {"type": "integer", "minimum": 0}
  },
  "anyOf": [{"required": ["min"]}, {"required": ["max"]}]
}`

const regexSchema = `{
  "type": "object",
  "required": ["pattern"],
  "properties": {
    "pattern": {"type": "string", "minLength": 1}
  }
}`

const formatSchema = `{
  "type": "object",
  "required": ["format"],
  "properties": {
    "format": {"type": "string", "enum": ["email", "phone", "url"]}
  }
}`

const tagSchema = `{
  "type": "object",
  "required": ["tag"],
  "properties": {
    "tag": {"type": "string", "minLength": 1}
  }
}`

const oneOfSchema = `{
  "type": "object",
  "required": ["values"],
  "properties": {
    "values": {"type": "array", "minItems": 1, "items": {"type": ["string", "number", "boolean"]}},
    "caseSensitive": {"type": "boolean"}
  }
}`

const uniqueInScopeSchema = `{
  "type": "object",
  "required": ["existing"],
  "properties": {
    "existing": {
      "oneOf": [
        {"type": "array", "items": {"type": "string"}},
        {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}}
      ]
    },
    "caseSensitive": {"type": "boolean"},
    "scopeLabel": {"type": "string"}
  }
}`

const dependentSchema = `{
  "type": "object",
  "properties": {
    "caseSensitive": {"type": "boolean"},
    "dependencyLabel": {"type": "string"}
  }
}`

const dependentCompareSchema = `{
  "type": "object",
  "required": ["operator"],
  "properties": {
    "operator": {"type": "string", "enum": ["lt", "lte", "gt", "gte"]},
    "dependencyLabel": {"type": "string"}
  }
}`

const requiredIfSchema = `{
  "type": "object",
  "required": ["equals"],
  "properties": {
    "equals": {"type": ["string", "number", "boolean"]},
    "caseSensitive": {"type": "boolean"},
    "dependencyLabel": {"type": "string"}
  }
}`
