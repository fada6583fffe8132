// Package basic extracts credentials from an HTTP Basic Authorization header.
//
// Parsing is strict: the header must be exactly "Basic <payload>" with a
// case-sensitive scheme and a single space, the payload must be canonical
// padded base64, the decoded bytes must be valid UTF-8 and contain a colon.
// Anything else yields no credentials.
package basic

import (
	"encoding/base64"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"
)

const scheme = "Basic"

var headerPattern = regexp.MustCompile(`^Basic (.+)$`)

// Credentials is an email and password pair taken from the header.
type Credentials struct {
	Email    string
	Password string
}

// FromRequest reads the Authorization header of r.
func FromRequest(r *http.Request) (Credentials, bool) {
	if r == nil {
		return Credentials{}, false
	}
	return Extract(r.Header.Get("Authorization"))
}

// Extract parses a raw Authorization header value.
func Extract(header string) (Credentials, bool) {
	payload, ok := Payload(header)
	if !ok {
		return Credentials{}, false
	}
	decoded, ok := Decode(payload)
	if !ok {
		return Credentials{}, false
	}
	return Split(decoded)
}

// Payload returns the part after "Basic ".
func Payload(header string) (string, bool) {
	m := headerPattern.FindStringSubmatch(header)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Decode base64-decodes payload and requires the result to be UTF-8.
func Decode(payload string) (string, bool) {
	raw, err := base64.StdEncoding.Strict().DecodeString(payload)
	if err != nil {
		return "", false
	}
	if !utf8.Valid(raw) {
		return "", false
	}
	return string(raw), true
}

// Split separates email and password at the first colon.
// The password may itself contain colons.
func Split(decoded string) (Credentials, bool) {
	email, password, found := strings.Cut(decoded, ":")
	if !found {
		return Credentials{}, false
	}
	return Credentials{Email: email, Password: password}, true
}

// Header builds an Authorization header value for email and password.
func Header(email, password string) string {
	return scheme + " " + base64.StdEncoding.EncodeToString([]byte(email+":"+password))
}
