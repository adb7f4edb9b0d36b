// Package securityevent funnels security-relevant occurrences (rate-limit
// hits, invalid tokens, cross-user access attempts, malformed payloads) into
// a structured log stream separate from general application logs, so they can
// be audited later.
package securityevent

import (
	"encoding/json"
	"log"
	"time"
)

// Event types.
const (
	TypeRateLimited      = "rate_limited"
	TypeInvalidToken     = "invalid_token"
	TypeCrossUserAccess  = "cross_user_access"
	TypeMalformedPayload = "malformed_payload"
	TypeAuthFailure      = "auth_failure"
)

// Event is one security occurrence. Detail must never contain secrets or
// full payloads; Excerpt carries at most a truncated, non-sensitive sample.
type Event struct {
	Type        string    `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	UserID      string    `json:"user_id,omitempty"`
	RequestedID string    `json:"requested_id,omitempty"`
	IPAddress   string    `json:"ip_address,omitempty"`
	Path        string    `json:"path,omitempty"`
	Detail      string    `json:"detail,omitempty"`
	Excerpt     string    `json:"excerpt,omitempty"`
}

const maxExcerptLen = 120

// Truncate clips a payload sample for safe logging.
func Truncate(s string) string {
	if len(s) > maxExcerptLen {
		return s[:maxExcerptLen] + "..."
	}
	return s
}

// Log emits one structured security event.
func Log(event Event) {
	event.Timestamp = time.Now().UTC()
	raw, err := json.Marshal(event)
	if err != nil {
		log.Printf("SECURITY event marshal failed: %v", err)
		return
	}
	log.Printf("SECURITY %s", raw)
}
