package komposition

import "encoding/json"

// documentAlias breaks UnmarshalJSON's recursion while reusing Document's
// field tags.
type documentAlias Document

// UnmarshalJSON decodes the declared fields normally and stashes any
// top-level key the schema doesn't know about into Extra, so a document
// written by a newer producer still round-trips through an older reader.
func (d *Document) UnmarshalJSON(data []byte) error {
	var alias documentAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*d = Document(alias)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, known := range []string{"metadata", "segments", "audio", "global_filters", "effects_tree"} {
		delete(raw, known)
	}
	if len(raw) == 0 {
		return nil
	}

	d.Extra = make(map[string]any, len(raw))
	for k, v := range raw {
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return err
		}
		d.Extra[k] = val
	}
	return nil
}

// MarshalJSON encodes the declared fields and merges Extra's keys back in
// at the top level.
func (d Document) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(documentAlias(d))
	if err != nil {
		return nil, err
	}
	if len(d.Extra) == 0 {
		return base, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range d.Extra {
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		merged[k] = encoded
	}
	return json.Marshal(merged)
}
