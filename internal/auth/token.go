// Package auth reads identity hints out of shopper tokens. Tokens are never
// verified here; the shop API does that on every authenticated call.
package auth

import (
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// NormalizeToken trims whitespace and an optional "Bearer " prefix.
func NormalizeToken(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	return raw
}

// UserIDFromToken returns the user_id or sub claim of a JWT. Opaque tokens
// and tokens without either claim yield "".
func UserIDFromToken(token string) string {
	if strings.Count(token, ".") != 2 {
		return ""
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}

	if id := claimString(claims["user_id"]); id != "" {
		return id
	}
	return claimString(claims["sub"])
}

func claimString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
