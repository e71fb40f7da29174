// Package buffer provides an http.ResponseWriter decorator that captures
// the response body and status code instead of sending them, until the
// captured response is explicitly copied to the underlying writer.
package buffer

import (
	"bytes"
	"net/http"
	"strconv"
)

// Committer is implemented by response sinks that can report whether
// their headers have already been sent. It is probed with a type
// assertion; sinks without it are treated as not committed.
type Committer interface {
	Committed() bool
}

// ResponseBuffer is a wrapper around http.ResponseWriter that buffers the
// response body and status code. Headers pass through to the underlying
// writer unchanged. The buffered response is sent by CopyBodyToResponse;
// after that (or after Discard), writes go directly to the underlying writer.
type ResponseBuffer struct {
	rw          http.ResponseWriter
	b           bytes.Buffer
	status      int
	wroteHeader bool
	committed   bool
	bypass      func() bool
}

// New returns a ResponseBuffer wrapping w.
// If bypass is non-nil and reports true, buffering is switched off and all
// writes go straight to w. The bypass function is consulted on every write,
// so it may flip mid-request (e.g. when a handler starts streaming).
func New(w http.ResponseWriter, bypass func() bool) *ResponseBuffer {
	return &ResponseBuffer{
		rw:     w,
		bypass: bypass,
	}
}

// Header implements http.ResponseWriter.
// Header access is a pass-through: only writes and the status are buffered.
func (b *ResponseBuffer) Header() http.Header {
	return b.rw.Header()
}

// WriteHeader implements http.ResponseWriter.
// The status code is recorded but not forwarded until commit.
func (b *ResponseBuffer) WriteHeader(statusCode int) {
	if b.useRaw() {
		b.rw.WriteHeader(statusCode)
		return
	}
	b.wroteHeader = true
	b.status = statusCode
}

// Write implements http.ResponseWriter.
// Bytes are appended to the buffer until commit.
func (b *ResponseBuffer) Write(p []byte) (int, error) {
	if b.useRaw() {
		return b.rw.Write(p)
	}
	return b.b.Write(p)
}

// Flush implements http.Flusher. While buffering there is nothing to flush;
// once writes bypass the buffer, the flush is forwarded if the underlying
// writer supports it.
func (b *ResponseBuffer) Flush() {
	if !b.useRaw() {
		return
	}
	if f, ok := b.rw.(http.Flusher); ok {
		f.Flush()
	}
}

func (b *ResponseBuffer) useRaw() bool {
	return b.committed || (b.bypass != nil && b.bypass())
}

// Status returns the recorded status code,
// or http.StatusOK if the handler never set one.
func (b *ResponseBuffer) Status() int {
	if !b.wroteHeader {
		return http.StatusOK
	}
	return b.status
}

// Content returns the buffered response body.
// The returned slice is only valid until the next write.
func (b *ResponseBuffer) Content() []byte {
	return b.b.Bytes()
}

// ContentReader returns a read-only view over the buffered body.
// Reading it does not consume the buffer.
func (b *ResponseBuffer) ContentReader() *bytes.Reader {
	return bytes.NewReader(b.b.Bytes())
}

// Committed reports whether the buffered response has been sent or discarded.
func (b *ResponseBuffer) Committed() bool {
	return b.committed
}

// Unwrap returns the wrapped http.ResponseWriter.
// It is also used by http.ResponseController.
func (b *ResponseBuffer) Unwrap() http.ResponseWriter {
	return b.rw
}

// CopyBodyToResponse sends the recorded status code and the buffered body to
// the underlying writer and marks the buffer committed. If the handler never
// set a status, the underlying writer's default applies. When the underlying
// writer reports itself committed, only the body is written. Calling it
// again after a successful copy is a no-op.
func (b *ResponseBuffer) CopyBodyToResponse() error {
	if b.committed {
		return nil
	}
	b.committed = true
	if !SinkCommitted(b.rw) {
		if b.Header().Get("Content-Length") == "" {
			b.Header().Set("Content-Length", strconv.Itoa(b.b.Len()))
		}
		if b.wroteHeader {
			b.rw.WriteHeader(b.status)
		}
	}
	if b.b.Len() > 0 {
		if _, err := b.rw.Write(b.b.Bytes()); err != nil {
			return err
		}
	}
	b.b.Reset()
	return nil
}

// Discard drops the buffered body and marks the buffer committed,
// so that any further writes are forwarded to the underlying writer.
func (b *ResponseBuffer) Discard() {
	b.committed = true
	b.b.Reset()
}

// Find walks the Unwrap chain starting at w and returns the first
// ResponseBuffer found, or nil if there is none.
func Find(w http.ResponseWriter) *ResponseBuffer {
	for w != nil {
		if b, ok := w.(*ResponseBuffer); ok {
			return b
		}
		u, ok := w.(interface{ Unwrap() http.ResponseWriter })
		if !ok {
			return nil
		}
		w = u.Unwrap()
	}
	return nil
}

// SinkCommitted probes w for the Committer capability and reports whether
// the sink says its headers have been sent. Sinks without the capability
// are assumed uncommitted.
func SinkCommitted(w http.ResponseWriter) bool {
	if c, ok := w.(Committer); ok {
		return c.Committed()
	}
	return false
}
