package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain domain", "example.com", "example.com"},
		{"uppercase", "EXAMPLE.COM", "example.com"},
		{"surrounding whitespace", "  example.com  ", "example.com"},
		{"https scheme", "https://example.com", "example.com"},
		{"http scheme with path", "http://example.com/pricing", "example.com"},
		{"www prefix", "www.example.com", "example.com"},
		{"scheme www and query", "https://www.example.com/?fbclid=x", "example.com"},
		{"port stripped", "example.com:8080", "example.com"},
		{"fragment stripped", "example.com#top", "example.com"},
		{"subdomain kept", "shop.example.com", "shop.example.com"},
		{"www only stripped once", "www.www.example.com", "www.example.com"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDomain(tt.input))
		})
	}
}

func TestIsAuthorized(t *testing.T) {
	allowed := []string{"example.com", "mysite.org"}

	tests := []struct {
		name    string
		allowed []string
		domain  string
		want    bool
	}{
		{"exact match", allowed, "example.com", true},
		{"subdomain match", allowed, "shop.example.com", true},
		{"deep subdomain match", allowed, "a.b.example.com", true},
		{"second entry", allowed, "mysite.org", true},
		{"unrelated domain", allowed, "evil.com", false},
		{"suffix but not subdomain", allowed, "notexample.com", false},
		{"lookalike tld", allowed, "example.com.evil.net", false},
		{"empty allow list fails closed", nil, "example.com", false},
		{"empty domain", allowed, "", false},
		{"empty entry ignored", []string{""}, "example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAuthorized(tt.allowed, tt.domain))
		})
	}
}
