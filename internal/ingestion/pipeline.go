package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Benny93/qshape-go/internal/decompose"
	"github.com/Benny93/qshape-go/internal/predicates"
	"github.com/Benny93/qshape-go/internal/shapes"
	"github.com/Benny93/qshape-go/internal/sparql"
	"github.com/Benny93/qshape-go/internal/storage"
)

// Summary aggregates the shapes of every query read by a pipeline run.
type Summary struct {
	// TotalLines counts every log line read, header lines excluded.
	TotalLines int64

	// TotalQueries counts lines a query could be extracted from.
	TotalQueries int64

	// ValidQueries counts queries that parsed.
	ValidQueries int64

	// ShapedQueries counts valid queries that produced a signature.
	ShapedQueries int64

	// RejectedQueries counts valid queries rejected as unsupported.
	RejectedQueries int64

	// TotalVertices sums the vertex counts of every pattern graph.
	TotalVertices int64

	// Shapes maps each signature to the number of queries that had it.
	Shapes map[string]int64

	// Features maps each feature tag to the number of queries it was met
	// in.
	Features map[string]int64

	// StarSizes maps an out-degree to the number of vertices having it.
	StarSizes map[int]int64

	Batches  int
	Duration time.Duration
}

// NewSummary returns an empty summary.
func NewSummary() *Summary {
	return &Summary{
		Shapes:    make(map[string]int64),
		Features:  make(map[string]int64),
		StarSizes: make(map[int]int64),
	}
}

// Merge adds the counts of other to s.
func (s *Summary) Merge(other *Summary) {
	s.TotalLines += other.TotalLines
	s.TotalQueries += other.TotalQueries
	s.ValidQueries += other.ValidQueries
	s.ShapedQueries += other.ShapedQueries
	s.RejectedQueries += other.RejectedQueries
	s.TotalVertices += other.TotalVertices
	for k, v := range other.Shapes {
		s.Shapes[k] += v
	}
	for k, v := range other.Features {
		s.Features[k] += v
	}
	for k, v := range other.StarSizes {
		s.StarSizes[k] += v
	}
	s.Batches += other.Batches
	s.Duration += other.Duration
}

// ProgressCallback is called after every batch with its number (from 1)
// and the summary so far.
type ProgressCallback func(batch int, s *Summary)

// Options configures a pipeline run.
type Options struct {
	// Preprocessor extracts queries from log lines. Defaults to noop.
	Preprocessor Preprocessor

	// Predicates is shared by every worker. Defaults to a new map.
	Predicates *predicates.Map

	// Decompose configures the per-query builder.
	Decompose decompose.Options

	Batch BatchOptions

	// Workers bounds the queries decomposed at once. Defaults to
	// GOMAXPROCS.
	Workers int

	// Store, if set, receives the summary when the run completes.
	Store storage.ShapeStore

	Progress ProgressCallback
	Logger   *slog.Logger
}

func (o *Options) defaults() {
	if o.Preprocessor == nil {
		o.Preprocessor = noopPreprocessor{}
	}
	if o.Predicates == nil {
		o.Predicates = predicates.New()
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Batch.Logger == nil {
		o.Batch.Logger = o.Logger
	}
}

// Outcome classifies what became of one log line.
type Outcome string

const (
	OutcomeNoQuery    Outcome = "no_query"
	OutcomeUnparsable Outcome = "unparsable"
	OutcomeRejected   Outcome = "rejected"
	OutcomeNoShape    Outcome = "no_shape"
	OutcomeShaped     Outcome = "shaped"
)

// Analysis is the decomposition of one query.
type Analysis struct {
	Query     *sparql.Query
	Result    decompose.BuildResult
	Signature string
}

// Outcome classifies the analysis.
func (a *Analysis) Outcome() Outcome {
	switch {
	case a.Result.Rejected():
		return OutcomeRejected
	case a.Signature == shapes.NoShape:
		return OutcomeNoShape
	default:
		return OutcomeShaped
	}
}

// Analyze parses text and decomposes it with b.
func Analyze(b *decompose.Builder, text string) (*Analysis, error) {
	q, err := sparql.Parse(text)
	if err != nil {
		return nil, err
	}
	r := b.Build(q)
	return &Analysis{Query: q, Result: r, Signature: shapes.Signature(r.Graphs)}, nil
}

// RunPipeline reads every log file of sources, decomposes each query and
// aggregates the resulting shapes.
//
// Lines of one batch are decomposed concurrently; results are merged in
// line order. Lines without a query and queries that fail to parse are
// counted and skipped. Cancelling ctx stops the run between lines.
func RunPipeline(ctx context.Context, sources []string, opts Options) (*Summary, error) {
	files, err := CollectLogs(sources)
	if err != nil {
		return nil, err
	}
	return RunFiles(ctx, files, opts)
}

// RunFiles is RunPipeline over an already collected file list.
func RunFiles(ctx context.Context, files []LogFile, opts Options) (*Summary, error) {
	opts.defaults()
	start := time.Now()

	builder := decompose.NewBuilder(opts.Predicates, opts.Decompose)
	it := NewBatchIterator(files, opts.Batch)
	defer it.Close()

	summary := NewSummary()
	for {
		lines, err := it.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		batchStart := time.Now()
		results, err := analyzeBatch(ctx, builder, opts, lines)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			summary.add(r)
		}
		summary.Batches++
		batchDuration.Observe(time.Since(batchStart).Seconds())

		opts.Logger.Debug("Batch complete",
			"batch", summary.Batches,
			"lines", summary.TotalLines,
			"shaped", summary.ShapedQueries,
		)
		if opts.Progress != nil {
			opts.Progress(summary.Batches, summary)
		}
	}
	summary.Duration = time.Since(start)

	if opts.Store != nil {
		if err := persist(ctx, opts.Store, summary, opts.Predicates); err != nil {
			return nil, fmt.Errorf("storing summary: %w", err)
		}
	}

	opts.Logger.Info("Analysis complete",
		"files", len(files),
		"lines", summary.TotalLines,
		"queries", summary.TotalQueries,
		"valid", summary.ValidQueries,
		"shapes", len(summary.Shapes),
		"duration", summary.Duration,
	)
	return summary, nil
}

// lineResult is what one worker reports for one line.
type lineResult struct {
	outcome   Outcome
	signature string
	features  decompose.FeatureSet
	starSizes []int
	vertices  int
}

func analyzeBatch(ctx context.Context, b *decompose.Builder, opts Options, lines []string) ([]lineResult, error) {
	results := make([]lineResult, len(lines))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, line := range lines {
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			results[i] = analyzeLine(b, opts.Preprocessor, line)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func analyzeLine(b *decompose.Builder, p Preprocessor, line string) lineResult {
	text, ok := Query(p, line)
	if !ok {
		return lineResult{outcome: OutcomeNoQuery}
	}
	a, err := Analyze(b, text)
	if err != nil {
		return lineResult{outcome: OutcomeUnparsable}
	}

	r := lineResult{
		outcome:   a.Outcome(),
		signature: a.Signature,
		features:  a.Result.Features,
		starSizes: shapes.StarSizes(a.Result.Graphs),
	}
	for _, g := range a.Result.Graphs {
		r.vertices += g.VertexCount()
	}
	graphsPerQuery.Observe(float64(len(a.Result.Graphs)))
	return r
}

func (s *Summary) add(r lineResult) {
	s.TotalLines++
	linesTotal.WithLabelValues(string(r.outcome)).Inc()

	switch r.outcome {
	case OutcomeNoQuery:
		return
	case OutcomeUnparsable:
		s.TotalQueries++
		return
	}
	s.TotalQueries++
	s.ValidQueries++
	s.TotalVertices += int64(r.vertices)

	for _, f := range r.features.Sorted() {
		s.Features[string(f)]++
		featuresTotal.WithLabelValues(string(f)).Inc()
	}
	for _, size := range r.starSizes {
		s.StarSizes[size]++
	}

	switch r.outcome {
	case OutcomeRejected:
		s.RejectedQueries++
	case OutcomeShaped:
		s.ShapedQueries++
		s.Shapes[r.signature]++
	}
}

// persist merges s into store along with a snapshot of the predicate map
// and the run counters.
func persist(ctx context.Context, store storage.ShapeStore, s *Summary, preds *predicates.Map) error {
	if err := store.MergeSummary(ctx, s.Shapes, s.Features); err != nil {
		return err
	}
	if err := store.SavePredicates(ctx, preds.Entries()); err != nil {
		return err
	}

	meta := []struct {
		key string
		n   int64
	}{
		{storage.MetaTotalLines, s.TotalLines},
		{storage.MetaTotalQuery, s.TotalQueries},
		{storage.MetaValidQuery, s.ValidQueries},
		{storage.MetaShapedQuery, s.ShapedQueries},
	}
	for _, m := range meta {
		prev, err := metaInt(ctx, store, m.key)
		if err != nil {
			return err
		}
		if err := store.SetMeta(ctx, m.key, strconv.FormatInt(prev+m.n, 10)); err != nil {
			return err
		}
	}
	return store.SetMeta(ctx, storage.MetaLastRun, time.Now().UTC().Format(time.RFC3339))
}

func metaInt(ctx context.Context, store storage.ShapeStore, key string) (int64, error) {
	v, ok, err := store.GetMeta(ctx, key)
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("meta %s: %w", key, err)
	}
	return n, nil
}
