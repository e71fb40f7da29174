package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(filename, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return filename
}

func TestGetConfig(t *testing.T) {
	filename := writeConfigFile(t, `
pages:
  - path: /hello
    contentType: text/html
    body: "<h1>Hello</h1>"
cacheControl:
  maxAge: 3600
  public: true
`)

	config, err := getConfig(filename)
	if err != nil {
		t.Fatal(err)
	}
	if len(config.Pages) != 1 {
		t.Fatalf("Got %d pages", len(config.Pages))
	}
	page := config.Pages[0]
	if page.Path != "/hello" || page.ContentType != "text/html" || page.Body != "<h1>Hello</h1>" {
		t.Fatalf("Page is %+v", page)
	}
	if config.Policy.MaxAge == nil || *config.Policy.MaxAge != 3600 {
		t.Fatalf("MaxAge is %v", config.Policy.MaxAge)
	}
	if !config.Policy.Public {
		t.Fatal("Public not set")
	}
}

func TestGetConfigMissingFile(t *testing.T) {
	if _, err := getConfig(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatal("Expected an error")
	}
}

func TestEmptyPolicyHasNoHeaderValue(t *testing.T) {
	var policy ConfigPolicy
	if val, ok := policy.headerValue(); ok {
		t.Fatalf("Header value is %q, expected none", val)
	}
}

// A maxAge of 0 seconds is a set directive and must not be
// confused with an absent one.
func TestZeroMaxAgeIsSet(t *testing.T) {
	config, err := getConfig(writeConfigFile(t, "cacheControl:\n  maxAge: 0\n"))
	if err != nil {
		t.Fatal(err)
	}
	if val, _ := config.Policy.headerValue(); val != "max-age=0" {
		t.Fatalf("Header value is %q", val)
	}
}

func TestUnsetMaxAgeIsAbsent(t *testing.T) {
	config, err := getConfig(writeConfigFile(t, "cacheControl:\n  private: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	if val, _ := config.Policy.headerValue(); val != "private" {
		t.Fatalf("Header value is %q", val)
	}
}

func TestPolicyHeaderValueChainsDirectives(t *testing.T) {
	maxAge := 60
	policy := ConfigPolicy{MaxAge: &maxAge, NoTransform: true, Public: true}
	if val, _ := policy.headerValue(); val != "max-age=60, no-transform, public" {
		t.Fatalf("Header value is %q", val)
	}
}

func TestNoStoreWinsOverNoCacheAndMaxAge(t *testing.T) {
	maxAge := 60
	policy := ConfigPolicy{MaxAge: &maxAge, NoCache: true, NoStore: true}
	if val, _ := policy.headerValue(); val != "no-store" {
		t.Fatalf("Header value is %q", val)
	}
}

func TestNoCacheWinsOverMaxAge(t *testing.T) {
	maxAge := 60
	policy := ConfigPolicy{MaxAge: &maxAge, NoCache: true}
	if val, _ := policy.headerValue(); val != "no-cache" {
		t.Fatalf("Header value is %q", val)
	}
}
