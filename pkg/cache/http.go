package cache

import (
	"net/http"
)

// ShouldMakeConditionalRequest determines if the entry can back an
// If-None-Match header.
func ShouldMakeConditionalRequest(entry *Entry) bool {
	return entry.HasETag()
}

// AddConditionalHeaders adds If-None-Match from the cached entry.
// An If-None-Match already present on the request is left alone:
// explicit caller intent wins over the cache-derived header.
func AddConditionalHeaders(req *http.Request, entry *Entry) {
	if req == nil || !entry.HasETag() {
		return
	}
	if req.Header.Get("If-None-Match") != "" {
		return
	}
	req.Header.Set("If-None-Match", entry.ETag)
}
