package oapi

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// MarshalTagged encodes v as a JSON object with the discriminator
// property tag set to value. Generated wrappers of internally tagged
// unions call it to inject the tag the alternative's struct does not
// carry.
func MarshalTagged(tag, value string, v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("tagged alternative must encode as an object: %w", err)
	}
	if obj == nil {
		obj = make(map[string]json.RawMessage, 1)
	}
	tagRaw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	obj[tag] = tagRaw
	return json.Marshal(obj)
}

// TagValue extracts the string discriminator property tag from an
// encoded object. Generated wrappers call it to pick the alternative to
// decode into.
func TagValue(data []byte, tag string) (string, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", fmt.Errorf("tagged union must decode from an object: %w", err)
	}
	raw, ok := obj[tag]
	if !ok {
		return "", fmt.Errorf("missing discriminator property %q", tag)
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("discriminator property %q must be a string: %w", tag, err)
	}
	return value, nil
}
