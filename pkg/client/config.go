package client

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/nlohse/feature-toggle-client/pkg/cache"
)

// Default values applied during config resolution.
const (
	// DefaultAppName identifies callers that do not set an application name.
	DefaultAppName = "default"

	// DefaultUserAgent is sent when the caller does not set one.
	DefaultUserAgent = "feature-toggle-client/1.0"

	// DefaultTimeout bounds a single fetch when no HTTP client is supplied.
	DefaultTimeout = 30 * time.Second
)

// defaultInstanceID is generated once per process. Repeated fetches from
// the same process therefore share a cache key even when the caller never
// sets an instance ID.
var defaultInstanceID = uuid.NewString()

// Config holds the fetch configuration for one definitions source.
// The zero value is not usable; URL is required. All other fields are
// filled with defaults during resolution.
type Config struct {
	// URL of the definitions endpoint (REQUIRED).
	URL string

	// Token is sent as the Authorization header when set.
	Token string

	// AppName identifies the consuming application (X-App-Name header).
	AppName string

	// InstanceID identifies this process (X-Instance-Id header).
	// Defaults to a process-stable generated identifier.
	InstanceID string

	// UserAgent header sent with every request.
	UserAgent string

	// Headers are merged over the identity headers. An explicit
	// If-None-Match here suppresses the cache-derived one.
	Headers http.Header

	// HTTPClient performs the requests. When set, Timeout is ignored
	// and the supplied client's settings apply unchanged.
	HTTPClient *http.Client

	// Timeout for the default HTTP client.
	Timeout time.Duration
}

// DefaultConfig returns a config for the given endpoint with all
// optional fields left to resolution defaults.
func DefaultConfig(endpoint string) Config {
	return Config{
		URL:     endpoint,
		AppName: DefaultAppName,
		Timeout: DefaultTimeout,
	}
}

// resolve validates the config and fills defaults. The receiver is not
// modified; fetches always operate on the resolved copy.
func (c Config) resolve() (Config, error) {
	if c.URL == "" {
		return Config{}, fmt.Errorf("url is required")
	}

	u, err := url.Parse(c.URL)
	if err != nil {
		return Config{}, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Config{}, fmt.Errorf("url scheme must be http or https (got %q)", u.Scheme)
	}
	if u.Host == "" {
		return Config{}, fmt.Errorf("url host is required")
	}

	if c.AppName == "" {
		c.AppName = DefaultAppName
	}
	if c.InstanceID == "" {
		c.InstanceID = defaultInstanceID
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}

	return c, nil
}

// cacheKey derives the composite definitions cache key for this source.
// Every identity dimension that changes response content participates.
func (c Config) cacheKey() cache.Key {
	return cache.Key{
		URL:        c.URL,
		Token:      c.Token,
		InstanceID: c.InstanceID,
		AppName:    c.AppName,
	}
}

// httpClient returns the client to perform requests with.
func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: c.Timeout}
}

// applyHeaders sets the identity headers and merges the caller's
// explicit headers over them.
func (c Config) applyHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("X-App-Name", c.AppName)
	req.Header.Set("X-Instance-Id", c.InstanceID)
	if c.Token != "" {
		req.Header.Set("Authorization", c.Token)
	}

	for name, values := range c.Headers {
		req.Header.Del(name)
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
}
