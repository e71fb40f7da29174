package buffer

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWritesAreBuffered(t *testing.T) {
	rr := httptest.NewRecorder()
	b := New(rr, nil)

	b.WriteHeader(http.StatusTeapot)
	b.Write([]byte("Hello world"))

	if rr.Body.Len() != 0 {
		t.Fatalf("Underlying writer got body %q", rr.Body.String())
	}
	if rr.Code != http.StatusOK {
		t.Fatalf("Underlying writer got status %d", rr.Code)
	}
	if string(b.Content()) != "Hello world" {
		t.Fatalf("Buffered content is %q", b.Content())
	}
	if b.Status() != http.StatusTeapot {
		t.Fatalf("Status is %d", b.Status())
	}
}

func TestStatusDefaultsToOK(t *testing.T) {
	b := New(httptest.NewRecorder(), nil)
	if b.Status() != http.StatusOK {
		t.Fatalf("Status is %d", b.Status())
	}
}

func TestHeadersPassThrough(t *testing.T) {
	rr := httptest.NewRecorder()
	b := New(rr, nil)

	b.Header().Set("Content-Type", "text/test")

	if ct := rr.Header().Get("Content-Type"); ct != "text/test" {
		t.Fatalf("Content-Type on underlying writer is %q", ct)
	}
}

func TestCopyBodyToResponse(t *testing.T) {
	rr := httptest.NewRecorder()
	b := New(rr, nil)

	b.WriteHeader(http.StatusCreated)
	b.Write([]byte("Hello world"))
	if err := b.CopyBodyToResponse(); err != nil {
		t.Fatal(err)
	}

	if rr.Code != http.StatusCreated {
		t.Fatalf("Status is %d", rr.Code)
	}
	if rr.Body.String() != "Hello world" {
		t.Fatalf("Body is %q", rr.Body.String())
	}
	if cl := rr.Header().Get("Content-Length"); cl != "11" {
		t.Fatalf("Content-Length is %q", cl)
	}
	if !b.Committed() {
		t.Fatal("Buffer not marked committed")
	}
}

func TestCopyBodyToResponseIsIdempotent(t *testing.T) {
	rr := httptest.NewRecorder()
	b := New(rr, nil)

	b.Write([]byte("Hello world"))
	b.CopyBodyToResponse()
	b.CopyBodyToResponse()

	if rr.Body.String() != "Hello world" {
		t.Fatalf("Body is %q", rr.Body.String())
	}
}

func TestWritesAfterCommitGoThrough(t *testing.T) {
	rr := httptest.NewRecorder()
	b := New(rr, nil)

	b.Write([]byte("first"))
	b.CopyBodyToResponse()
	b.Write([]byte(" second"))

	if rr.Body.String() != "first second" {
		t.Fatalf("Body is %q", rr.Body.String())
	}
}

func TestDiscardDropsBody(t *testing.T) {
	rr := httptest.NewRecorder()
	b := New(rr, nil)

	b.Write([]byte("Hello world"))
	b.Discard()
	b.CopyBodyToResponse()

	if rr.Body.Len() != 0 {
		t.Fatalf("Body is %q", rr.Body.String())
	}
	if !b.Committed() {
		t.Fatal("Buffer not marked committed")
	}
}

func TestBypassWritesDirectly(t *testing.T) {
	rr := httptest.NewRecorder()
	bypass := false
	b := New(rr, func() bool { return bypass })

	b.Write([]byte("buffered"))
	bypass = true
	b.WriteHeader(http.StatusAccepted)
	b.Write([]byte("streamed"))

	if rr.Code != http.StatusAccepted {
		t.Fatalf("Status is %d", rr.Code)
	}
	if rr.Body.String() != "streamed" {
		t.Fatalf("Body is %q", rr.Body.String())
	}
	if string(b.Content()) != "buffered" {
		t.Fatalf("Buffered content is %q", b.Content())
	}
}

func TestContentReaderDoesNotConsume(t *testing.T) {
	b := New(httptest.NewRecorder(), nil)
	b.Write([]byte("Hello world"))

	r := b.ContentReader()
	p := make([]byte, 5)
	r.Read(p)

	if string(b.Content()) != "Hello world" {
		t.Fatalf("Buffered content is %q", b.Content())
	}
}

func TestFindUnwrapsNestedWriters(t *testing.T) {
	rr := httptest.NewRecorder()
	b := New(rr, nil)
	wrapped := &passthroughWriter{b}

	if found := Find(wrapped); found != b {
		t.Fatalf("Found %v", found)
	}
	if found := Find(rr); found != nil {
		t.Fatalf("Found %v in plain recorder", found)
	}
}

func TestSinkCommitted(t *testing.T) {
	rr := httptest.NewRecorder()
	if SinkCommitted(rr) {
		t.Fatal("Plain recorder reported committed")
	}
	b := New(rr, nil)
	b.CopyBodyToResponse()
	if !SinkCommitted(b) {
		t.Fatal("Committed buffer not reported committed")
	}
}

// passthroughWriter simulates an intermediate middleware wrapper.
type passthroughWriter struct {
	http.ResponseWriter
}

func (p *passthroughWriter) Unwrap() http.ResponseWriter {
	return p.ResponseWriter
}
