// Package cmd provides CLI command implementations for qshape.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Benny93/qshape-go/internal/config"
	"github.com/Benny93/qshape-go/internal/decompose"
	"github.com/Benny93/qshape-go/internal/graph"
	"github.com/Benny93/qshape-go/internal/ingestion"
	"github.com/Benny93/qshape-go/internal/logging"
	"github.com/Benny93/qshape-go/internal/predicates"
	"github.com/Benny93/qshape-go/internal/shapes"
	"github.com/Benny93/qshape-go/internal/storage"
	"github.com/Benny93/qshape-go/mcp"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Globals holds the flags shared by every command.
type Globals struct {
	Config      string `short:"c" help:"Configuration file (default .qshape.yaml)"`
	Verbose     bool   `short:"v" help:"Enable verbose output"`
	Quiet       bool   `short:"q" help:"Suppress non-essential output"`
	MetricsAddr string `help:"Serve Prometheus metrics on this address while analyzing"`

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (g *Globals) in() io.Reader {
	if g.stdin == nil {
		return os.Stdin
	}
	return g.stdin
}

func (g *Globals) out() io.Writer {
	if g.stdout == nil {
		return os.Stdout
	}
	return g.stdout
}

func (g *Globals) errOut() io.Writer {
	if g.stderr == nil {
		return os.Stderr
	}
	return g.stderr
}

// setup loads the configuration and builds the logger.
func (g *Globals) setup() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return cfg, nil, err
	}
	if g.MetricsAddr != "" {
		cfg.MetricsAddr = g.MetricsAddr
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return cfg, nil, err
	}
	switch {
	case g.Verbose:
		level = logging.LevelDebug
	case g.Quiet:
		level = logging.LevelWarn
	}
	log := logging.New(logging.Config{
		Level:  level,
		JSON:   cfg.LogFormat == "json",
		Output: g.errOut(),
	})
	return cfg, log, nil
}

// PipelineFlags are the analysis settings shared by analyze and watch.
// Zero values and negative skip lines leave the configured value.
type PipelineFlags struct {
	Out           string `short:"o" help:"Write TSV reports to files with this path prefix"`
	PredicatesIn  string `help:"Start from the predicate ids in this file"`
	PredicatesOut string `help:"Save the predicate ids to this file"`
	Store         string `help:"Merge the results into the shape store in this directory"`
	Persist       bool   `short:"p" help:"Merge the results into the configured shape store"`

	Preprocessor    string `help:"Query extraction: noop, wikidata or dbpedia"`
	Compression     string `help:"Log compression: auto, none, gzip, bzip2 or zstd"`
	BatchSize       int    `help:"Log lines per batch"`
	SkipLines       int    `default:"-1" help:"Header lines skipped in every file"`
	Workers         int    `help:"Queries decomposed concurrently"`
	MaxAlternatives int    `help:"Reject queries expanding to more alternatives"`
	SubQueries      string `name:"subqueries" help:"Sub-query handling: reject or auxiliary"`
	MinCount        int    `help:"Omit shapes seen fewer times from the report"`
	UUIDVars        bool   `name:"uuid-vars" help:"Name path variables with random UUIDs"`
}

func (f *PipelineFlags) apply(cfg *config.Config) error {
	strs := []struct {
		flag string
		dst  *string
	}{
		{f.Preprocessor, &cfg.Preprocessor},
		{f.Compression, &cfg.Compression},
		{f.SubQueries, &cfg.SubQueries},
	}
	for _, s := range strs {
		if s.flag != "" {
			*s.dst = s.flag
		}
	}

	ints := []struct {
		flag int
		dst  *int
	}{
		{f.BatchSize, &cfg.BatchSize},
		{f.Workers, &cfg.Workers},
		{f.MaxAlternatives, &cfg.MaxAlternatives},
		{f.MinCount, &cfg.MinCount},
	}
	for _, i := range ints {
		if i.flag != 0 {
			*i.dst = i.flag
		}
	}
	if f.SkipLines >= 0 {
		cfg.SkipLines = f.SkipLines
	}
	return cfg.Validate()
}

func (f *PipelineFlags) storePath(cfg config.Config) string {
	if f.Store != "" {
		return f.Store
	}
	if f.Persist {
		return cfg.StorePath
	}
	return ""
}

// pipeline resolves the flags and cfg into pipeline options. The returned
// func releases the shape store, if one was opened.
func (f *PipelineFlags) pipeline(ctx context.Context, cfg config.Config, log *slog.Logger) (ingestion.Options, func(), error) {
	noop := func() {}

	pre, err := ingestion.NewPreprocessor(cfg.Preprocessor, cfg.Prefixes)
	if err != nil {
		return ingestion.Options{}, noop, err
	}
	comp, err := ingestion.ParseCompression(cfg.Compression)
	if err != nil {
		return ingestion.Options{}, noop, err
	}
	dopts, err := decomposeOptions(cfg, f.UUIDVars)
	if err != nil {
		return ingestion.Options{}, noop, err
	}

	opts := ingestion.Options{
		Preprocessor: pre,
		Predicates:   predicates.New(),
		Decompose:    dopts,
		Batch: ingestion.BatchOptions{
			BatchSize:   cfg.BatchSize,
			SkipLines:   cfg.SkipLines,
			Compression: comp,
		},
		Workers: cfg.Workers,
		Logger:  log,
	}
	if f.PredicatesIn != "" {
		if opts.Predicates, err = predicates.LoadFile(f.PredicatesIn); err != nil {
			return ingestion.Options{}, noop, err
		}
	}

	path := f.storePath(cfg)
	if path == "" {
		return opts, noop, nil
	}
	store, err := openStore(path, false)
	if err != nil {
		return ingestion.Options{}, noop, err
	}
	release := func() { _ = store.Close() }

	// Continue the stored numbering so counts merged across runs agree.
	if f.PredicatesIn == "" {
		if opts.Predicates, err = storedPredicates(ctx, store); err != nil {
			release()
			return ingestion.Options{}, noop, err
		}
	}
	opts.Store = store
	return opts, release, nil
}

// AnalyzeCmd decomposes every query of a set of logs and reports the
// shape frequencies.
type AnalyzeCmd struct {
	Sources []string `arg:"" help:"Log files or directories to analyze"`

	PipelineFlags
}

// Run executes the analyze command.
func (c *AnalyzeCmd) Run(g *Globals) error {
	cfg, log, err := g.setup()
	if err != nil {
		return err
	}
	if err := c.apply(&cfg); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	serveMetrics(ctx, cfg.MetricsAddr, log)

	opts, release, err := c.pipeline(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer release()

	if !g.Quiet {
		opts.Progress = func(batch int, s *ingestion.Summary) {
			fmt.Fprintf(g.errOut(), "\r\033[KBatch %d: %d lines, %d shapes", batch, s.TotalLines, len(s.Shapes))
		}
	}

	summary, err := ingestion.RunPipeline(ctx, c.Sources, opts)
	if err != nil {
		return fmt.Errorf("running pipeline: %w", err)
	}
	if opts.Progress != nil && summary.Batches > 0 {
		fmt.Fprintln(g.errOut())
	}

	if c.PredicatesOut != "" {
		if err := opts.Predicates.SaveFile(c.PredicatesOut); err != nil {
			return err
		}
	}

	// Without an output prefix the shape report is the command's output.
	summaryOut := g.out()
	if c.Out == "" {
		if err := ingestion.WriteShapeReport(g.out(), summary, int64(cfg.MinCount)); err != nil {
			return err
		}
		summaryOut = g.errOut()
	} else {
		paths, err := writeReports(c.Out, summary, opts.Predicates, cfg.MinCount)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintf(summaryOut, "Wrote %s\n", p)
		}
	}

	if !g.Quiet {
		printSuccess(summaryOut, "Analyzed %d queries in %s: %d valid, %d shaped, %d distinct shapes",
			summary.TotalQueries, summary.Duration.Round(time.Millisecond),
			summary.ValidQueries, summary.ShapedQueries, len(summary.Shapes))
	}
	return nil
}

// ShapeCmd decomposes a single query.
type ShapeCmd struct {
	Query           string `arg:"" help:"Query text, or - to read it from stdin"`
	Predicates      string `help:"Number predicates starting from the map in this file"`
	SubQueries      string `name:"subqueries" help:"Sub-query handling: reject or auxiliary"`
	MaxAlternatives int    `help:"Reject the query if it expands to more alternatives"`
	UUIDVars        bool   `name:"uuid-vars" help:"Name path variables with random UUIDs"`
}

// Run executes the shape command.
func (c *ShapeCmd) Run(g *Globals) error {
	cfg, _, err := g.setup()
	if err != nil {
		return err
	}
	if c.SubQueries != "" {
		cfg.SubQueries = c.SubQueries
	}
	if c.MaxAlternatives != 0 {
		cfg.MaxAlternatives = c.MaxAlternatives
	}
	dopts, err := decomposeOptions(cfg, c.UUIDVars)
	if err != nil {
		return err
	}

	text := c.Query
	if text == "-" {
		data, err := io.ReadAll(g.in())
		if err != nil {
			return fmt.Errorf("reading query: %w", err)
		}
		text = string(data)
	}

	preds := predicates.New()
	if c.Predicates != "" {
		if preds, err = predicates.LoadFile(c.Predicates); err != nil {
			return err
		}
	}

	a, err := ingestion.Analyze(decompose.NewBuilder(preds, dopts), text)
	if err != nil {
		return fmt.Errorf("parsing query: %w", err)
	}

	w := g.out()
	fmt.Fprintf(w, "Outcome:   %s\n", a.Outcome())
	fmt.Fprintf(w, "Features:  %s\n", a.Result.Features)
	for i, pg := range a.Result.Graphs {
		stats := pg.Stats()
		fmt.Fprintf(w, "\nGraph %d (%d vertices, %d edges)\n", i+1, stats["vertices"], stats["edges"])
		for _, e := range pg.Edges() {
			uri, _ := preds.URI(e.Predicate)
			fmt.Fprintf(w, "  %s  %s\n", e, uri)
		}
		for _, v := range pg.Vertices() {
			if star := pg.OutPredicates(v); len(star) > 0 {
				fmt.Fprintf(w, "  star %s (%s): %s\n", v, graph.KindOf(v), shapes.Star(star))
			}
		}
	}
	if a.Outcome() != ingestion.OutcomeShaped {
		return nil
	}

	decoded, err := ingestion.DecodeSignature(a.Signature, preds)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nSignature: %s\n", a.Signature)
	fmt.Fprintf(w, "Decoded:   %s\n", decoded)
	return nil
}

// TopCmd lists the most frequent stored shapes.
type TopCmd struct {
	N      int    `short:"n" default:"20" help:"Number of shapes to show (0 for all)"`
	Store  string `help:"Shape store directory (default from config)"`
	Decode bool   `short:"d" help:"Show predicate URIs instead of ids"`
}

// Run executes the top command.
func (c *TopCmd) Run(g *Globals) error {
	ctx := context.Background()
	cfg, _, err := g.setup()
	if err != nil {
		return err
	}
	store, err := openStore(orDefault(c.Store, cfg.StorePath), true)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	top, err := store.TopShapes(ctx, c.N)
	if err != nil {
		return err
	}
	w := g.out()
	if len(top) == 0 {
		fmt.Fprintln(w, "No shapes recorded yet")
		return nil
	}

	var preds *predicates.Map
	if c.Decode {
		if preds, err = storedPredicates(ctx, store); err != nil {
			return err
		}
	}

	fmt.Fprintln(w, "count\tsignature")
	for _, sh := range top {
		sig := sh.Signature
		if preds != nil {
			if sig, err = ingestion.DecodeSignature(sh.Signature, preds); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "%d\t%s\n", sh.Count, sig)
	}
	return nil
}

// PredicatesCmd resolves predicate ids and URIs.
type PredicatesCmd struct {
	Predicate string `arg:"" optional:"" help:"Predicate id or URI; lists every predicate when omitted"`
	File      string `help:"Read the predicate map from this file instead of the shape store"`
	Store     string `help:"Shape store directory (default from config)"`
}

// Run executes the predicates command.
func (c *PredicatesCmd) Run(g *Globals) error {
	preds, err := c.load(g)
	if err != nil {
		return err
	}

	w := g.out()
	if c.Predicate == "" {
		for _, e := range preds.Entries() {
			fmt.Fprintf(w, "%d\t%s\n", e.ID, e.URI)
		}
		return nil
	}

	if id, err := strconv.Atoi(c.Predicate); err == nil {
		uri, ok := preds.URI(id)
		if !ok {
			return fmt.Errorf("no predicate with id %d", id)
		}
		fmt.Fprintf(w, "%d\t%s\n", id, uri)
		return nil
	}

	uri := strings.TrimSuffix(strings.TrimPrefix(c.Predicate, "<"), ">")
	id, ok := preds.Lookup(uri)
	if !ok {
		return fmt.Errorf("predicate %s has not been seen", uri)
	}
	fmt.Fprintf(w, "%d\t%s\n", id, uri)
	return nil
}

func (c *PredicatesCmd) load(g *Globals) (*predicates.Map, error) {
	if c.File != "" {
		return predicates.LoadFile(c.File)
	}
	cfg, _, err := g.setup()
	if err != nil {
		return nil, err
	}
	store, err := openStore(orDefault(c.Store, cfg.StorePath), true)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()
	return storedPredicates(context.Background(), store)
}

// WatchCmd analyzes log files as they appear in a directory.
type WatchCmd struct {
	Dir string `arg:"" optional:"" default:"." help:"Directory to watch"`

	PipelineFlags
}

// Run executes the watch command.
func (c *WatchCmd) Run(g *Globals) error {
	cfg, log, err := g.setup()
	if err != nil {
		return err
	}
	if err := c.apply(&cfg); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	serveMetrics(ctx, cfg.MetricsAddr, log)

	opts, release, err := c.pipeline(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer release()

	w := g.out()
	fmt.Fprintln(w, "## Watch Mode")
	fmt.Fprintf(w, "Watching %s for new logs (Ctrl+C to stop)\n\n", c.Dir)

	total := ingestion.NewSummary()
	err = ingestion.WatchLogs(ctx, c.Dir, opts, func(s *ingestion.Summary) {
		total.Merge(s)
		printSuccess(w, "Analyzed %d queries, %d distinct shapes so far", s.TotalQueries, len(total.Shapes))

		if c.Out != "" {
			if _, err := writeReports(c.Out, total, opts.Predicates, cfg.MinCount); err != nil {
				log.Error("Writing reports failed", "error", err)
			}
		}
		if c.PredicatesOut != "" {
			if err := opts.Predicates.SaveFile(c.PredicatesOut); err != nil {
				log.Error("Saving predicates failed", "error", err)
			}
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch error: %w", err)
	}

	fmt.Fprintln(w, "Watch mode stopped.")
	return nil
}

// MCPCmd starts the MCP server.
type MCPCmd struct {
	Store string `help:"Shape store directory (default from config)"`
}

// Run executes the mcp command.
func (c *MCPCmd) Run(g *Globals) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, _, err := g.setup()
	if err != nil {
		return err
	}
	dopts, err := decomposeOptions(cfg, false)
	if err != nil {
		return err
	}

	// The server runs without a store until one has been written.
	var shapeStore mcp.ShapeStore
	preds := predicates.New()
	path := orDefault(c.Store, cfg.StorePath)
	if _, err := os.Stat(path); err == nil {
		store, err := openStore(path, true)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		if preds, err = storedPredicates(ctx, store); err != nil {
			return err
		}
		shapeStore = store
	}

	server := mcp.NewServer(shapeStore, preds, dopts, Version)

	// Note: No output to stdout - MCP server uses stdio for JSON-RPC only
	return server.Run(ctx, g.in(), g.out())
}

// StatusCmd shows what the shape store holds.
type StatusCmd struct {
	Store string `help:"Shape store directory (default from config)"`
}

// Run executes the status command.
func (c *StatusCmd) Run(g *Globals) error {
	ctx := context.Background()
	cfg, _, err := g.setup()
	if err != nil {
		return err
	}
	path := orDefault(c.Store, cfg.StorePath)
	store, err := openStore(path, true)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	entries, err := store.LoadPredicates(ctx)
	if err != nil {
		return err
	}

	w := g.out()
	fmt.Fprintf(w, "Shape store %s\n", path)
	rows := []struct {
		label string
		key   string
	}{
		{"Last run:", storage.MetaLastRun},
		{"Lines:", storage.MetaTotalLines},
		{"Queries:", storage.MetaTotalQuery},
		{"Valid queries:", storage.MetaValidQuery},
		{"Shaped queries:", storage.MetaShapedQuery},
	}
	for _, r := range rows {
		v, ok, err := store.GetMeta(ctx, r.key)
		if err != nil {
			return err
		}
		if !ok {
			v = "-"
		}
		fmt.Fprintf(w, "  %-16s %s\n", r.label, v)
	}
	fmt.Fprintf(w, "  %-16s %d\n", "Distinct shapes:", store.ShapeTotal())
	fmt.Fprintf(w, "  %-16s %d\n", "Predicates:", len(entries))
	return nil
}

// CleanCmd deletes the shape store.
type CleanCmd struct {
	Force bool   `short:"f" help:"Skip confirmation"`
	Store string `help:"Shape store directory (default from config)"`
}

// Run executes the clean command.
func (c *CleanCmd) Run(g *Globals) error {
	cfg, _, err := g.setup()
	if err != nil {
		return err
	}
	path := orDefault(c.Store, cfg.StorePath)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("no shape store at %s. Nothing to clean", path)
	}

	w := g.out()
	if !c.Force {
		fmt.Fprintf(w, "Delete shape store at %s? [y/N] ", path)
		var response string
		_, _ = fmt.Fscanln(g.in(), &response)
		if response != "y" && response != "Y" {
			fmt.Fprintln(w, "Aborted")
			return nil
		}
	}

	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("deleting shape store: %w", err)
	}

	printSuccess(w, "Deleted %s", path)
	return nil
}

// Helper functions

var green = color.New(color.FgGreen)

func printSuccess(w io.Writer, format string, args ...any) {
	_, _ = green.Fprintf(w, format+"\n", args...)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// osSignalChannel returns a channel that receives OS signals for graceful shutdown.
func osSignalChannel() chan os.Signal {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	return sigChan
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := osSignalChannel()
	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// serveMetrics exposes the Prometheus registry on addr until ctx is done.
// An empty addr disables it.
func serveMetrics(ctx context.Context, addr string, log *slog.Logger) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	go func() {
		log.Info("Serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed", "error", err)
		}
	}()
}

func decomposeOptions(cfg config.Config, uuidVars bool) (decompose.Options, error) {
	mode, ok := decompose.ParseSubQueryMode(cfg.SubQueries)
	if !ok {
		return decompose.Options{}, fmt.Errorf("%w: unknown subqueries mode %q", config.ErrInvalid, cfg.SubQueries)
	}
	opts := decompose.Options{SubQueries: mode, MaxAlternatives: cfg.MaxAlternatives}
	if uuidVars {
		opts.Generator = decompose.UUIDGenerator{}
	}
	return opts, nil
}

// openStore opens the Badger shape store at path. A read-only store must
// already exist.
func openStore(path string, readOnly bool) (*storage.BadgerBackend, error) {
	if readOnly {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("no shape store at %s. Run 'qshape analyze --persist' first", path)
		}
	} else if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating shape store: %w", err)
	}

	store := storage.NewBadgerBackend()
	if err := store.Initialize(path, readOnly); err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	return store, nil
}

func storedPredicates(ctx context.Context, store storage.ShapeStore) (*predicates.Map, error) {
	entries, err := store.LoadPredicates(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading predicates: %w", err)
	}
	return predicates.FromEntries(entries)
}

// writeReports writes the shape, meta, feature and star-size reports to
// files named prefix plus the report name, and returns their paths.
func writeReports(prefix string, s *ingestion.Summary, preds *predicates.Map, minCount int) ([]string, error) {
	reports := []struct {
		name  string
		write func(io.Writer) error
	}{
		{"shapes.tsv", func(w io.Writer) error { return ingestion.WriteShapeReport(w, s, int64(minCount)) }},
		{"meta.tsv", func(w io.Writer) error { return ingestion.WriteMetaReport(w, s, preds) }},
		{"features.tsv", func(w io.Writer) error { return ingestion.WriteFeatureReport(w, s) }},
		{"star_sizes.tsv", func(w io.Writer) error { return ingestion.WriteStarSizeReport(w, s) }},
	}

	if err := os.MkdirAll(filepath.Dir(prefix+"x"), 0o755); err != nil {
		return nil, fmt.Errorf("creating report directory: %w", err)
	}
	paths := make([]string, 0, len(reports))
	for _, r := range reports {
		path := prefix + r.name
		if err := writeFile(path, r.write); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}

// CLI is the root Kong command structure.
type CLI struct {
	Globals

	Version kong.VersionFlag `help:"Show version information"`

	// Commands
	Analyze    AnalyzeCmd    `cmd:"" help:"Decompose the queries of log files into shape frequencies"`
	Shape      ShapeCmd      `cmd:"" help:"Show the pattern graphs and signature of one query"`
	Top        TopCmd        `cmd:"" help:"List the most frequent stored shapes"`
	Predicates PredicatesCmd `cmd:"" help:"Resolve predicate ids and URIs"`
	Watch      WatchCmd      `cmd:"" help:"Analyze logs as they appear in a directory"`
	MCP        MCPCmd        `cmd:"" help:"Start MCP server (stdio transport)"`
	Status     StatusCmd     `cmd:"" help:"Show shape store status"`
	Clean      CleanCmd      `cmd:"" help:"Delete the shape store"`
}

// NewCLI creates a new CLI instance.
func NewCLI() *CLI {
	return &CLI{}
}

// Execute parses command-line arguments and executes the selected command.
func (c *CLI) Execute(args []string) error {
	parser, err := kong.New(c,
		kong.Name("qshape"),
		kong.Description("Star-shape statistics for SPARQL query logs"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": Version,
		},
		kong.Bind(&c.Globals),
	)
	if err != nil {
		return err
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return kongCtx.Run()
}
