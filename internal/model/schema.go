package model

import "encoding/json"

type SchemaType string

const (
	TypeObject  SchemaType = "object"
	TypeArray   SchemaType = "array"
	TypeString  SchemaType = "string"
	TypeBoolean SchemaType = "boolean"
)

// Schema is the subset of JSON Schema that the backends can all express.
type Schema struct {
	Type        SchemaType
	Description string
	Properties  map[string]*Schema
	Items       *Schema
	Required    []string
}

// Map renders s as a JSON Schema document.
func (s *Schema) Map() map[string]any {
	if s == nil {
		return nil
	}
	out := map[string]any{"type": string(s.Type)}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = p.Map()
		}
		out["properties"] = props
	}
	if s.Items != nil {
		out["items"] = s.Items.Map()
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	return out
}

func (s *Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Map())
}

// RepliesSchema describes {"options":[{"title","reply"}]}.
var RepliesSchema = &Schema{
	Type: TypeObject,
	Properties: map[string]*Schema{
		"options": {
			Type: TypeArray,
			Items: &Schema{
				Type: TypeObject,
				Properties: map[string]*Schema{
					"title": {Type: TypeString},
					"reply": {Type: TypeString},
				},
				Required: []string{"title", "reply"},
			},
		},
	},
	Required: []string{"options"},
}

// VerdictSchema describes {"inappropriate": bool, "reason"?: string}.
var VerdictSchema = &Schema{
	Type: TypeObject,
	Properties: map[string]*Schema{
		"inappropriate": {Type: TypeBoolean},
		"reason":        {Type: TypeString, Description: "Short reason, only when inappropriate is true."},
	},
	Required: []string{"inappropriate"},
}
