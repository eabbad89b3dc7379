// Package auth integrates the external identity provider with the API:
// exchanging login callback codes for identities, issuing and parsing signed
// session tokens, and deriving presentable defaults from identity metadata.
//
// The rest of the application only depends on "who is the current actor";
// everything else about the provider is treated as opaque.
package auth

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Identity is the authenticated subject as reported by the identity provider.
type Identity struct {
	// ID is the provider-issued stable subject, used as the profile key.
	ID string `json:"id"`
	// Email is the login email, when the provider shares it.
	Email string `json:"email,omitempty"`
	// Name is the provider-side display name, when set.
	Name string `json:"name,omitempty"`
	// AvatarURL points at the provider-hosted avatar, when set.
	AvatarURL string `json:"avatar_url,omitempty"`
}

var titleCaser = cases.Title(language.English)

// DefaultDisplayName derives a presentable display name for a fresh profile.
// It prefers the provider name, then the email local part with separators
// replaced by spaces and words title-cased ("jane.doe" -> "Jane Doe"), and
// finally a generic placeholder.
func DefaultDisplayName(id Identity) string {
	if name := strings.TrimSpace(id.Name); name != "" {
		return name
	}
	local := id.Email
	if i := strings.IndexByte(local, '@'); i >= 0 {
		local = local[:i]
	}
	local = strings.TrimSpace(local)
	if local == "" {
		return "Player"
	}
	local = strings.Map(func(r rune) rune {
		switch r {
		case '.', '_', '-', '+':
			return ' '
		}
		return r
	}, local)
	return titleCaser.String(strings.Join(strings.Fields(local), " "))
}
