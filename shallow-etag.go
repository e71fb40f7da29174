// Package shallowetag provides HTTP middleware that generates an ETag from
// the response content and answers matching If-None-Match requests with
// 304 Not Modified instead of the body.
//
// The downstream handler always runs and its output is always rendered, so
// the middleware saves transfer bandwidth, not server work.
package shallowetag

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"

	buffer "github.com/shallow-etag/shallow-etag/pkg/content-buffer"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	headerETag         = "ETag"
	headerIfNoneMatch  = "If-None-Match"
	headerCacheControl = "Cache-Control"

	directiveNoStore = "no-store"
)

type Config struct {
	// Logger to use. The global zerolog logger is used if nil.
	Logger *zerolog.Logger
}

type ShallowEtag struct {
	log zerolog.Logger
}

// New initializes the shallow-etag middleware instance.
func New(config Config) *ShallowEtag {
	logger := log.Logger
	if config.Logger != nil {
		logger = *config.Logger
	}

	// create a child logger and add defaults
	logger = logger.With().
		Str("middleware", "shallow-etag").
		Logger()

	return &ShallowEtag{log: logger}
}

// cachingState is the per-request state, carried in the request context so
// it survives handoffs to other goroutines for the lifetime of the request.
type cachingState struct {
	disabled atomic.Bool
	buffer   *buffer.ResponseBuffer
}

type stateKey struct{}

func requestState(r *http.Request) *cachingState {
	st, _ := r.Context().Value(stateKey{}).(*cachingState)
	return st
}

// DisableContentCaching switches off response buffering for the given
// request. Call it before handing the response writer to an out-of-band
// writer (e.g. at the start of HTTP streaming): subsequent writes reach the
// underlying writer directly and no ETag is generated for the request.
//
// It is a no-op on requests that did not pass through the middleware.
func DisableContentCaching(r *http.Request) {
	if st := requestState(r); st != nil {
		st.disabled.Store(true)
	}
}

// Middleware wraps next with conditional-caching support.
func (s *ShallowEtag) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requestState(r) != nil || buffer.Find(w) != nil {
			// the response is buffered upstream already,
			// the outermost instance does the post-processing
			next.ServeHTTP(w, r)
			return
		}

		st := &cachingState{}
		r = r.WithContext(context.WithValue(r.Context(), stateKey{}, st))
		st.buffer = buffer.New(w, st.disabled.Load)

		next.ServeHTTP(st.buffer, r)

		if st.disabled.Load() {
			// handler writes went to the underlying writer directly
			return
		}
		if err := s.updateResponse(r, st.buffer); err != nil {
			s.log.Error().Err(err).Msg("Could not write response to client")
		}
	})
}

func (s *ShallowEtag) updateResponse(r *http.Request, w http.ResponseWriter) error {
	buf := buffer.Find(w)
	if buf == nil {
		panic("shallowetag: ResponseBuffer not found on response writer")
	}
	raw := buf.Unwrap()
	statusCode := buf.Status()

	if buffer.SinkCommitted(raw) {
		// headers can no longer be changed, send the body as is
		return buf.CopyBodyToResponse()
	}
	if !s.isEligibleForEtag(r, buf, statusCode) {
		s.log.Trace().
			Int("status", statusCode).
			Str("method", r.Method).
			Msg("Response not eligible for ETag")
		return buf.CopyBodyToResponse()
	}

	responseETag, err := etagFor(buf.ContentReader())
	if err != nil {
		return err
	}
	buf.Header().Set(headerETag, responseETag)

	requestETag := r.Header.Get(headerIfNoneMatch)
	if responseETag == requestETag {
		s.log.Trace().
			Str("etag", responseETag).
			Msg("ETag equal to If-None-Match, sending 304")
		buf.Discard()
		raw.WriteHeader(http.StatusNotModified)
		return nil
	}
	s.log.Trace().
		Str("etag", responseETag).
		Str("ifNoneMatch", requestETag).
		Msg("ETag not equal to If-None-Match, sending normal response")
	return buf.CopyBodyToResponse()
}

// isEligibleForEtag reports whether the exchange qualifies for ETag
// generation: a 2xx response to a GET request whose Cache-Control header,
// if any, does not contain "no-store".
func (s *ShallowEtag) isEligibleForEtag(r *http.Request, w http.ResponseWriter, statusCode int) bool {
	if statusCode < 200 || statusCode >= 300 || r.Method != http.MethodGet {
		return false
	}
	cacheControl := w.Header().Get(headerCacheControl)
	return !strings.Contains(cacheControl, directiveNoStore)
}

// etagFor computes the validator for the response content:
// the MD5 digest as hex, quoted, with a fixed leading "0" marker.
func etagFor(content io.Reader) (string, error) {
	h := md5.New()
	if _, err := io.Copy(h, content); err != nil {
		return "", err
	}
	return fmt.Sprintf("\"0%s\"", hex.EncodeToString(h.Sum(nil))), nil
}
