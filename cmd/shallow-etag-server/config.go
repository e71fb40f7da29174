package main

import (
	"os"
	"time"

	cachecontrol "github.com/shallow-etag/shallow-etag/pkg/cache-control"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Pages  []ConfigPage `yaml:"pages"`
	Policy ConfigPolicy `yaml:"cacheControl"`
}

type ConfigPage struct {
	Path        string `yaml:"path"`
	ContentType string `yaml:"contentType"`
	Body        string `yaml:"body"`
}

// ConfigPolicy is the Cache-Control policy applied to every page.
// Ages are in seconds; nil means the directive is unset.
// Of the mutually exclusive base directives, noStore wins over noCache,
// which wins over maxAge.
type ConfigPolicy struct {
	MaxAge          *int `yaml:"maxAge"`
	NoCache         bool `yaml:"noCache"`
	NoStore         bool `yaml:"noStore"`
	MustRevalidate  bool `yaml:"mustRevalidate"`
	NoTransform     bool `yaml:"noTransform"`
	Public          bool `yaml:"public"`
	Private         bool `yaml:"private"`
	ProxyRevalidate bool `yaml:"proxyRevalidate"`
	SMaxAge         *int `yaml:"sMaxAge"`
}

func getConfig(filename string) (Config, error) {
	var config Config
	configBytes, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = yaml.Unmarshal(configBytes, &config)
	return config, err
}

// headerValue renders the configured policy through the cache-control
// builder. The second return value is false when no directive is set.
func (p ConfigPolicy) headerValue() (string, bool) {
	cc := cachecontrol.Empty()
	switch {
	case p.NoStore:
		cc = cachecontrol.NoStore()
	case p.NoCache:
		cc = cachecontrol.NoCache()
	case p.MaxAge != nil:
		cc = cachecontrol.MaxAge(time.Duration(*p.MaxAge) * time.Second)
	}
	if p.MustRevalidate {
		cc = cc.MustRevalidate()
	}
	if p.NoTransform {
		cc = cc.NoTransform()
	}
	if p.Public {
		cc = cc.CachePublic()
	}
	if p.Private {
		cc = cc.CachePrivate()
	}
	if p.ProxyRevalidate {
		cc = cc.ProxyRevalidate()
	}
	if p.SMaxAge != nil {
		cc = cc.SMaxAge(time.Duration(*p.SMaxAge) * time.Second)
	}
	return cc.HeaderValue()
}
