package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// Key identifies one logical definitions source. Every field that can
// change the response content is part of the identity, so one shared
// store serves multiple sources without cross-contamination.
type Key struct {
	// URL is the definitions endpoint.
	URL string

	// Token is the authorization credential sent with the fetch.
	Token string

	// InstanceID identifies the client instance.
	InstanceID string

	// AppName is the application name sent with the fetch.
	AppName string
}

// String generates a deterministic cache key string.
// Format: toggle:defs:<url>:<token-fingerprint>:<instance>:<app>
//
// Components are escaped so field boundaries stay unambiguous: equal
// strings imply equal fields. The token appears only as a fingerprint,
// keeping credentials out of logs and Redis key listings.
//
// Example:
//
//	toggle:defs:https%3A%2F%2Fflags.example.com%2Fapi:2f1a0b9c8d7e6f55:web-1:web-shop
func (k Key) String() string {
	parts := []string{
		"toggle",
		"defs",
		url.QueryEscape(k.URL),
		fingerprintToken(k.Token),
		url.QueryEscape(k.InstanceID),
		url.QueryEscape(k.AppName),
	}
	return strings.Join(parts, ":")
}

// fingerprintToken returns a short credential fingerprint, or "-" when
// no credential is set.
func fingerprintToken(token string) string {
	if token == "" {
		return "-"
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}
