package scripttoken

import (
	"log"
	"strings"

	"github.com/falconx-app/FalconX/app/repository"
)

// Resolver maps wire tokens to internal user ids. Both encodings are
// supported: the base64 uid carried by the current snippet and the legacy
// fx_ script id, which needs the persisted reverse-lookup table.
type Resolver struct {
	tokens repository.ScriptTokenRepository
	users  repository.UserRepository
	secret string
}

// NewResolver creates a token resolver.
func NewResolver(tokens repository.ScriptTokenRepository, users repository.UserRepository, secret string) *Resolver {
	return &Resolver{tokens: tokens, users: users, secret: secret}
}

// Resolve returns the user id for a wire token. Legacy ids are first resolved
// through the lookup table; recomputing the hash over every known user id is
// the last resort and exists only for tokens issued before the table did.
func (r *Resolver) Resolve(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidToken
	}

	if IsScriptIDFormat(raw) {
		if userID, err := r.tokens.GetUserIDByToken(raw); err == nil && userID != "" {
			return userID, nil
		}
		return r.resolveByScan(raw)
	}

	return DecodeUserID(raw)
}

// resolveByScan recomputes the legacy hash for every user until one matches.
// O(n) over the user table; hits are written back to the lookup table so the
// scan happens at most once per legacy token.
func (r *Resolver) resolveByScan(scriptID string) (string, error) {
	ids, err := r.users.ListIDs()
	if err != nil {
		return "", err
	}
	for _, id := range ids {
		if ValidateScriptID(scriptID, id, r.secret) {
			if err := r.tokens.Save(scriptID, id); err != nil {
				log.Printf("scripttoken: failed to backfill lookup table for %s: %v", scriptID, err)
			}
			return id, nil
		}
	}
	return "", ErrUnknownToken
}
