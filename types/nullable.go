package types

import (
	"bytes"
	"encoding/json"
)

// NullableString distinguishes a JSON field that was omitted from one that was
// sent as null. Set is true whenever the key appeared in the payload.
type NullableString struct {
	Set   bool
	Valid bool
	Value string
}

func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Valid = false
		n.Value = ""
		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

func (n NullableString) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Ptr returns nil for an explicit null and a pointer to the value otherwise.
func (n NullableString) Ptr() *string {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}
