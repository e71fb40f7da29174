// Package cachecontrol builds "Cache-Control" HTTP response header values
// from response directives.
//
// The builder is opinionated towards the common response-caching cases:
//
//	cachecontrol.MaxAge(time.Hour)                                // "max-age=3600"
//	cachecontrol.NoStore()                                        // "no-store"
//	cachecontrol.MaxAge(time.Hour).NoTransform().CachePublic()    // "max-age=3600, no-transform, public"
//
// Note that to be effective, Cache-Control headers should be set along with
// validators such as "ETag" or "Last-Modified".
package cachecontrol

import (
	"strconv"
	"strings"
	"time"
)

// CacheControl is a set of response cache directives.
// Construct instances with Empty, MaxAge, NoCache or NoStore; chaining
// methods return a new value, so instances may be freely copied and shared.
type CacheControl struct {
	maxAge  int64
	sMaxAge int64

	noCache         bool
	noStore         bool
	mustRevalidate  bool
	noTransform     bool
	cachePublic     bool
	cachePrivate    bool
	proxyRevalidate bool
}

// Empty returns a CacheControl with no directives set.
// Use it as a starting point for the optional directives
// when none of "max-age", "no-cache" or "no-store" apply.
func Empty() CacheControl {
	return CacheControl{maxAge: -1, sMaxAge: -1}
}

// MaxAge returns a CacheControl with a "max-age" directive
// set to the given duration in whole seconds.
// Negative durations are a caller error.
func MaxAge(maxAge time.Duration) CacheControl {
	cc := Empty()
	cc.maxAge = int64(maxAge.Seconds())
	return cc
}

// NoCache returns a CacheControl with a "no-cache" directive.
// The response may still be stored, but must be revalidated before reuse.
// To disable caching altogether, use NoStore.
func NoCache() CacheControl {
	cc := Empty()
	cc.noCache = true
	return cc
}

// NoStore returns a CacheControl with a "no-store" directive,
// preventing browsers and proxies from caching the response content.
func NoStore() CacheControl {
	cc := Empty()
	cc.noStore = true
	return cc
}

// MustRevalidate adds a "must-revalidate" directive:
// once stale, the response must not be reused without revalidation.
func (cc CacheControl) MustRevalidate() CacheControl {
	cc.mustRevalidate = true
	return cc
}

// NoTransform adds a "no-transform" directive, telling intermediaries
// (e.g. CDNs recompressing images) not to modify the response content.
func (cc CacheControl) NoTransform() CacheControl {
	cc.noTransform = true
	return cc
}

// CachePublic adds a "public" directive, allowing any cache to store
// the response.
func (cc CacheControl) CachePublic() CacheControl {
	cc.cachePublic = true
	return cc
}

// CachePrivate adds a "private" directive: the response is intended for
// a single user and must not be stored by shared caches.
// No conflict checking is done against CachePublic.
func (cc CacheControl) CachePrivate() CacheControl {
	cc.cachePrivate = true
	return cc
}

// ProxyRevalidate adds a "proxy-revalidate" directive, which is
// "must-revalidate" scoped to shared caches only.
func (cc CacheControl) ProxyRevalidate() CacheControl {
	cc.proxyRevalidate = true
	return cc
}

// SMaxAge adds an "s-maxage" directive set to the given duration in whole
// seconds, overriding "max-age" for shared caches.
func (cc CacheControl) SMaxAge(sMaxAge time.Duration) CacheControl {
	cc.sMaxAge = int64(sMaxAge.Seconds())
	return cc
}

// HeaderValue returns the serialized "Cache-Control" header value.
// The second return value is false when no directive is set,
// in which case the header should be omitted entirely.
func (cc CacheControl) HeaderValue() (string, bool) {
	var directives []string
	if cc.maxAge != -1 {
		directives = append(directives, "max-age="+strconv.FormatInt(cc.maxAge, 10))
	}
	if cc.noCache {
		directives = append(directives, "no-cache")
	}
	if cc.noStore {
		directives = append(directives, "no-store")
	}
	if cc.mustRevalidate {
		directives = append(directives, "must-revalidate")
	}
	if cc.noTransform {
		directives = append(directives, "no-transform")
	}
	if cc.cachePublic {
		directives = append(directives, "public")
	}
	if cc.cachePrivate {
		directives = append(directives, "private")
	}
	if cc.proxyRevalidate {
		directives = append(directives, "proxy-revalidate")
	}
	if cc.sMaxAge != -1 {
		directives = append(directives, "s-maxage="+strconv.FormatInt(cc.sMaxAge, 10))
	}
	if len(directives) == 0 {
		return "", false
	}
	return strings.Join(directives, ", "), true
}
