package scripttoken

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
)

// Prefix marks legacy deterministic script ids.
const Prefix = "fx_"

var (
	// ErrInvalidToken is returned for tokens that fail shape validation.
	ErrInvalidToken = errors.New("invalid script token")
	// ErrUnknownToken is returned for well-formed tokens that resolve to no user.
	ErrUnknownToken = errors.New("unknown script token")

	// Legacy ids are fx_ plus exactly 12 lowercase hex characters.
	scriptIDPattern = regexp.MustCompile(`^fx_[0-9a-f]{12}$`)
	// Strict UUID v4, lowercase. Decoded uid payloads must match before any
	// further processing happens.
	uuidV4Pattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
)

// EncodeUserID produces the uid value the tracking snippet sends on the wire.
func EncodeUserID(userID string) string {
	return base64.StdEncoding.EncodeToString([]byte(userID))
}

// DecodeUserID reverses EncodeUserID and rejects anything that does not decode
// to a strict UUID v4.
func DecodeUserID(token string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return "", ErrInvalidToken
	}
	id := strings.ToLower(strings.TrimSpace(string(raw)))
	if !uuidV4Pattern.MatchString(id) {
		return "", ErrInvalidToken
	}
	return id, nil
}

// GenerateScriptID derives the legacy deterministic script id for a user:
// fx_ plus the first 12 hex characters of SHA256(userID + secret).
func GenerateScriptID(userID, secret string) string {
	sum := sha256.Sum256([]byte(userID + secret))
	return Prefix + hex.EncodeToString(sum[:])[:12]
}

// ValidateScriptID reports whether scriptID is the legacy id of userID.
func ValidateScriptID(scriptID, userID, secret string) bool {
	return scriptID == GenerateScriptID(userID, secret)
}

// IsScriptIDFormat checks the fx_<12 hex> shape without any store lookup.
func IsScriptIDFormat(s string) bool {
	return scriptIDPattern.MatchString(s)
}
