// Package httpjson holds the JSON envelope helpers shared by the gateway
// handlers.
package httpjson

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"strings"
)

const MaxBodyBytes = 64 << 10

func Write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Println("[gateway] write response:", err)
	}
}

// Text renders a loosely typed JSON value as a string: strings are unquoted,
// numbers and booleans keep their literal form. Null, absent, objects and
// arrays become "" so callers fall back to their defaults.
func Text(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '{' || raw[0] == '[' {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}
