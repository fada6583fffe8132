// Package pathmatch decides whether a request path is exempt from authentication.
//
// Exemptions come in three forms:
//
//	/api/v1/status      exact path, trailing slash optional
//	/api/v1/auth_*      any path starting with "/api/v1/auth_"
//	/api/v1/public/     the directory itself and everything below it
package pathmatch

import "strings"

// RequiresAuth reports whether path needs credentials.
// An empty path or an empty exemption list always requires them.
func RequiresAuth(path string, exemptions []string) bool {
	if path == "" || len(exemptions) == 0 {
		return true
	}

	normalized := Normalize(path)
	for _, exemption := range exemptions {
		if Matches(normalized, strings.TrimSpace(exemption)) {
			return false
		}
	}
	return true
}

// Normalize gives path exactly one trailing slash.
func Normalize(path string) string {
	return strings.TrimRight(path, "/") + "/"
}

// Matches reports whether the normalized path is covered by exemption.
func Matches(normalized, exemption string) bool {
	switch {
	case exemption == "":
		return false
	case strings.HasSuffix(exemption, "*"):
		return strings.HasPrefix(normalized, strings.TrimSuffix(exemption, "*"))
	case strings.HasSuffix(exemption, "/"):
		return strings.HasPrefix(normalized, Normalize(exemption))
	default:
		return normalized == exemption+"/"
	}
}
