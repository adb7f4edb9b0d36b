package detection

import "strings"

// NormalizeDomain lowercases a reported domain and strips scheme, "www."
// prefix, port and any path so it can be compared against whitelist entries.
func NormalizeDomain(raw string) string {
	d := strings.TrimSpace(strings.ToLower(raw))
	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if i := strings.IndexByte(d, ':'); i >= 0 {
		d = d[:i]
	}
	d = strings.TrimPrefix(d, "www.")
	return d
}

// IsAuthorized reports whether domain exactly equals an allowed domain or is
// a proper subdomain of one. An empty allow-list never authorizes anything:
// lookup failures and unconfigured accounts fail closed, so every report
// registers as a clone rather than being silently trusted.
func IsAuthorized(allowedDomains []string, domain string) bool {
	if domain == "" {
		return false
	}
	for _, allowed := range allowedDomains {
		if allowed == "" {
			continue
		}
		if domain == allowed || strings.HasSuffix(domain, "."+allowed) {
			return true
		}
	}
	return false
}
