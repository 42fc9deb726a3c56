package types

import (
	json "github.com/goccy/go-json"
)

// typeJSON is the serialized shape of a DataType tree.
type typeJSON struct {
	Kind   string      `json:"kind"`
	Fields []fieldJSON `json:"fields,omitempty"`
}

type fieldJSON struct {
	Name string   `json:"name,omitempty"`
	Type typeJSON `json:"type"`
}

func (t *DataType) toJSON() typeJSON {
	out := typeJSON{Kind: t.kind.String()}
	for _, f := range t.fields {
		out.Fields = append(out.Fields, fieldJSON{Name: f.Name, Type: f.Type.toJSON()})
	}
	return out
}

// MarshalJSON renders the full type tree for diagnostics and tooling output.
func (t *DataType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.toJSON())
}
