package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Price is a decimal amount kept in its textual form so no precision is lost
// between the shop API and the storefront client. It decodes from a JSON
// number or a numeric string and encodes as a JSON number.
type Price string

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("decode price: %w", err)
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*p = ""
			return nil
		}
	}
	if !isJSONNumber(raw) {
		return fmt.Errorf("decode price %q: not a decimal number", raw)
	}
	if f, err := strconv.ParseFloat(raw, 64); err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return fmt.Errorf("decode price %q: out of range", raw)
	}
	*p = Price(raw)
	return nil
}

// isJSONNumber reports whether raw is a JSON number literal, which is what
// MarshalJSON writes back verbatim. ParseFloat alone admits NaN, Inf and hex.
func isJSONNumber(raw string) bool {
	if raw == "" || (raw[0] != '-' && (raw[0] < '0' || raw[0] > '9')) {
		return false
	}
	return json.Valid([]byte(raw))
}

func (p Price) MarshalJSON() ([]byte, error) {
	if p == "" {
		return []byte("null"), nil
	}
	return []byte(p), nil
}
