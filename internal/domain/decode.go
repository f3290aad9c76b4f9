package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeList decodes a list response. The shop API answers with either a
// bare array or an object wrapping the array under "data". A null body
// decodes to an empty, non-nil list.
func DecodeList[T any](data []byte) ([]T, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []T{}, nil
	}

	if data[0] == '{' {
		var wrapped struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("decode list envelope: %w", err)
		}
		return DecodeList[T](wrapped.Data)
	}

	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// DecodeObject decodes a single-object response, bare or wrapped under "data".
func DecodeObject[T any](data []byte) (*T, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, fmt.Errorf("decode object: empty body")
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}
	if inner, ok := envelope["data"]; ok && len(envelope) == 1 {
		data = inner
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}
	return &out, nil
}
