// Package config loads qshape settings.
//
// Settings are resolved in order: built-in defaults, the YAML file, then
// QSHAPE_* environment variables. Command-line flags are applied by the
// caller on top of the result.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// DefaultFile is the configuration file looked up in the working
// directory when no path is given.
const DefaultFile = ".qshape.yaml"

// Config holds all qshape settings.
type Config struct {
	// BatchSize is the number of log lines decomposed per batch.
	BatchSize int `yaml:"batch_size"`

	// SkipLines is the number of header lines skipped in every log file.
	SkipLines int `yaml:"skip_lines"`

	// Workers bounds the number of queries decomposed concurrently.
	Workers int `yaml:"workers"`

	// Preprocessor is one of noop, wikidata or dbpedia.
	Preprocessor string `yaml:"preprocessor"`

	// Compression is one of auto, none, gzip, bzip2 or zstd. auto picks
	// by file extension.
	Compression string `yaml:"compression"`

	// Prefixes are declared in front of every dbpedia query.
	Prefixes map[string]string `yaml:"prefixes"`

	// MaxAlternatives rejects queries that expand to more alternatives.
	// Zero means no limit.
	MaxAlternatives int `yaml:"max_alternatives"`

	// SubQueries is reject or auxiliary.
	SubQueries string `yaml:"subqueries"`

	// MinCount omits report rows seen fewer times.
	MinCount int `yaml:"min_count"`

	StorePath   string `yaml:"store_path"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// DefaultPrefixes is the reduced prefix table injected into DBpedia
// queries, which routinely rely on the endpoint's predeclared prefixes.
func DefaultPrefixes() map[string]string {
	return map[string]string{
		"rdf":      "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
		"rdfs":     "http://www.w3.org/2000/01/rdf-schema#",
		"owl":      "http://www.w3.org/2002/07/owl#",
		"xsd":      "http://www.w3.org/2001/XMLSchema#",
		"foaf":     "http://xmlns.com/foaf/0.1/",
		"dc":       "http://purl.org/dc/elements/1.1/",
		"dct":      "http://purl.org/dc/terms/",
		"skos":     "http://www.w3.org/2004/02/skos/core#",
		"geo":      "http://www.w3.org/2003/01/geo/wgs84_pos#",
		"georss":   "http://www.georss.org/georss/",
		"prov":     "http://www.w3.org/ns/prov#",
		"dbo":      "http://dbpedia.org/ontology/",
		"dbp":      "http://dbpedia.org/property/",
		"dbr":      "http://dbpedia.org/resource/",
		"dbc":      "http://dbpedia.org/resource/Category:",
		"yago":     "http://dbpedia.org/class/yago/",
		"wikidata": "http://www.wikidata.org/entity/",
		"schema":   "http://schema.org/",
		"bif":      "bif:",
	}
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		BatchSize:    10000,
		SkipLines:    1,
		Workers:      runtime.GOMAXPROCS(0),
		Preprocessor: "noop",
		Compression:  "auto",
		Prefixes:     DefaultPrefixes(),
		SubQueries:   "reject",
		MinCount:     1,
		StorePath:    ".qshape/store",
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// Load resolves settings from path and the environment. An empty path
// means DefaultFile; a missing file leaves the defaults in place.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := cfg.decode(bytes.NewReader(data)); err != nil {
			return cfg, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// decode overlays the YAML document in r onto c. Unknown keys are an
// error. Entries under prefixes are added to the default table.
func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnv applies QSHAPE_* overrides read through lookup.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	ints := []struct {
		key string
		dst *int
	}{
		{"QSHAPE_BATCH_SIZE", &c.BatchSize},
		{"QSHAPE_SKIP_LINES", &c.SkipLines},
		{"QSHAPE_WORKERS", &c.Workers},
		{"QSHAPE_MAX_ALTERNATIVES", &c.MaxAlternatives},
		{"QSHAPE_MIN_COUNT", &c.MinCount},
	}
	for _, e := range ints {
		v, ok := lookup(e.key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalid, e.key, err)
		}
		*e.dst = n
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"QSHAPE_PREPROCESSOR", &c.Preprocessor},
		{"QSHAPE_COMPRESSION", &c.Compression},
		{"QSHAPE_SUBQUERIES", &c.SubQueries},
		{"QSHAPE_STORE_PATH", &c.StorePath},
		{"QSHAPE_LOG_LEVEL", &c.LogLevel},
		{"QSHAPE_LOG_FORMAT", &c.LogFormat},
		{"QSHAPE_METRICS_ADDR", &c.MetricsAddr},
	}
	for _, e := range strs {
		if v, ok := lookup(e.key); ok && v != "" {
			*e.dst = v
		}
	}
	return nil
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%w: %s must be one of %s, got %q", ErrInvalid, field, strings.Join(allowed, "|"), value)
}

// Validate checks every field.
func (c Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch_size must be positive, got %d", ErrInvalid, c.BatchSize)
	}
	if c.SkipLines < 0 {
		return fmt.Errorf("%w: skip_lines must not be negative, got %d", ErrInvalid, c.SkipLines)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalid, c.Workers)
	}
	if c.MaxAlternatives < 0 {
		return fmt.Errorf("%w: max_alternatives must not be negative, got %d", ErrInvalid, c.MaxAlternatives)
	}
	if c.MinCount < 1 {
		return fmt.Errorf("%w: min_count must be at least 1, got %d", ErrInvalid, c.MinCount)
	}
	checks := []error{
		oneOf("preprocessor", c.Preprocessor, "noop", "wikidata", "dbpedia"),
		oneOf("compression", c.Compression, "auto", "none", "gzip", "bzip2", "zstd"),
		oneOf("subqueries", c.SubQueries, "reject", "auxiliary"),
		oneOf("log_level", c.LogLevel, "debug", "info", "warn", "error"),
		oneOf("log_format", c.LogFormat, "text", "json"),
	}
	return errors.Join(checks...)
}
