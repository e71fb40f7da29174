package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	shallowetag "github.com/shallow-etag/shallow-etag"
	"github.com/shallow-etag/shallow-etag/store"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// CLI flags
	portFlag           int
	configFilenameFlag string
	dbFilenameFlag     string
	verbosityTraceFlag bool
	logFilenameFlag    string

	// this is set by goreleaser
	version string
)

func init() {
	flag.IntVar(&portFlag, "port", 8080, "Port to listen on")
	flag.StringVar(&configFilenameFlag, "config", "", "Path to pages config file")
	flag.StringVar(&dbFilenameFlag, "db", "memory", "Pages DB file name (use 'memory' for in-memory storage)")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")
	flag.StringVar(&logFilenameFlag, "log-file", "", "Log file to use (in addition to stdout)")

	if version == "" {
		version = "DEV"
	}
}

func main() {
	flag.Parse()

	// set log level
	logLevel := zerolog.DebugLevel
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}

	// set up log output to stdout
	// also output to logfile if specified
	logOutputs := make([]io.Writer, 0)
	logOutputs = append(logOutputs, zerolog.ConsoleWriter{Out: os.Stdout})
	if logFilenameFlag != "" {
		if logFileOutput, err := os.OpenFile(logFilenameFlag, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644); err != nil {
			log.Fatal().Err(err).Msg("Cannot open log file")
		} else {
			logOutputs = append(logOutputs, logFileOutput)
		}
	}
	multiWriter := zerolog.MultiLevelWriter(logOutputs...)
	log.Logger = log.Level(logLevel).Output(multiWriter).
		With().Str("version", version).Logger()

	// set up the content store
	var provider store.ContentProvider
	if dbFilenameFlag == "memory" {
		provider = store.NewMemStore()
	} else {
		sqliteStore, err := store.NewSQLiteStore(dbFilenameFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Cannot open pages db")
		}
		provider = sqliteStore
	}

	var config Config
	if configFilenameFlag != "" {
		var err error
		config, err = getConfig(configFilenameFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Cannot read config file")
		}
		for _, page := range config.Pages {
			err := provider.Put(store.Page{
				Path:        page.Path,
				ContentType: page.ContentType,
				Body:        []byte(page.Body),
			})
			if err != nil {
				log.Fatal().Err(err).Str("path", page.Path).Msg("Cannot store page")
			}
		}
	}

	if paths, err := provider.Paths(); err != nil {
		log.Fatal().Err(err).Msg("Cannot list pages")
	} else if len(paths) == 0 {
		log.Fatal().Msg("No pages to serve, please specify a config file or a pages db")
	} else {
		log.Info().Int("pages", len(paths)).Msg("Serving pages")
	}

	cacheControl, hasCacheControl := config.Policy.headerValue()

	r := chi.NewRouter()
	r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
		page, ok, err := provider.Get(req.URL.Path)
		if err != nil {
			log.Error().Err(err).Str("path", req.URL.Path).Msg("Cannot read page")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if !ok {
			http.NotFound(w, req)
			return
		}
		if page.ContentType != "" {
			w.Header().Set("Content-Type", page.ContentType)
		}
		if hasCacheControl {
			w.Header().Set("Cache-Control", cacheControl)
		}
		w.Write(page.Body)
	})

	etag := shallowetag.New(shallowetag.Config{Logger: &log.Logger})
	log.Info().Msgf("Listening on port %v", portFlag)
	err := http.ListenAndServe(fmt.Sprintf(":%d", portFlag), etag.Middleware(r))

	if err != nil {
		panic(err)
	}
}
