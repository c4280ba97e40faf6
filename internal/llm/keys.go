package llm

import (
	"regexp"
	"strings"
)

// Credential is a caller-supplied API key for one provider. Credentials are
// supplied per request and are never persisted or logged.
type Credential struct {
	Key      string     `json:"key"`
	Provider ProviderID `json:"provider"`
}

const (
	minKeyLength = 20
	maxKeyLength = 500
)

var keyPatterns = map[ProviderID]*regexp.Regexp{
	ProviderGemini:     regexp.MustCompile(`^AIza[0-9A-Za-z_-]{35}$`),
	ProviderGroq:       regexp.MustCompile(`^gsk_[0-9A-Za-z]{32,}$`),
	ProviderCerebras:   regexp.MustCompile(`^[0-9A-Za-z]{40,}$`),
	ProviderOpenRouter: regexp.MustCompile(`^sk-or-v1-[0-9A-Za-z]{32,}$`),
}

// detectOrder lists providers from the most to the least specific pattern.
var detectOrder = []ProviderID{
	ProviderGemini,
	ProviderGroq,
	ProviderOpenRouter,
	ProviderCerebras,
}

// IsWellFormed reports whether key has the shape of a provider's API keys.
func IsWellFormed(key string, provider ProviderID) bool {
	if len(key) < minKeyLength || len(key) > maxKeyLength {
		return false
	}
	re, ok := keyPatterns[provider]
	if !ok {
		return false
	}
	return re.MatchString(key)
}

// DetectProvider guesses the provider from the key shape.
// Returns ProviderUnknown when no pattern matches.
func DetectProvider(key string) ProviderID {
	for _, p := range detectOrder {
		if IsWellFormed(key, p) {
			return p
		}
	}
	return ProviderUnknown
}

// Resolve returns the credential with its provider filled in from the key
// shape when the caller left it unknown.
func (c Credential) Resolve() Credential {
	p := ParseProviderID(string(c.Provider))
	if p == ProviderUnknown {
		p = DetectProvider(c.Key)
	}
	return Credential{Key: c.Key, Provider: p}
}

// Valid reports whether the credential's key is well formed for its provider.
func (c Credential) Valid() bool {
	return IsWellFormed(c.Key, c.Provider)
}

// indexedCredential keeps a credential's position in the caller's list.
type indexedCredential struct {
	Credential
	index int
}

// groupValid resolves and filters creds, grouping the survivors by provider
// while preserving the supplied order within each group.
func groupValid(creds []Credential) map[ProviderID][]indexedCredential {
	groups := make(map[ProviderID][]indexedCredential)
	for i, c := range creds {
		c = c.Resolve()
		if !c.Valid() {
			continue
		}
		groups[c.Provider] = append(groups[c.Provider], indexedCredential{Credential: c, index: i})
	}
	return groups
}

// Mask renders a key as a short hint safe for display, e.g. "AIza…9xQz".
func Mask(key string) string {
	if len(key) < 12 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + "…" + key[len(key)-4:]
}

// Redact removes every occurrence of key from s.
func Redact(s, key string) string {
	if key == "" {
		return s
	}
	return strings.ReplaceAll(s, key, "[REDACTED]")
}
