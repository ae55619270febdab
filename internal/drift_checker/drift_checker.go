package drift_checker

import (
	"context"
	"fmt"
	"time"

	"httpcomparer/internal/client"
	"httpcomparer/internal/file"
	"httpcomparer/internal/metrics"
	"httpcomparer/internal/rendezvous"
	"httpcomparer/internal/response_comparer"
	"httpcomparer/internal/response_fetcher"

	"github.com/rs/zerolog/log"
)

const (
	host1Label = "host1"
	host2Label = "host2"
)

// CompareOutcome is the verdict for one requested path. File1 and File2 are
// either both set or both empty.
type CompareOutcome struct {
	Path  string
	Equal bool
	Mode  response_comparer.Mode
	Diff  string
	File1 string
	File2 string
}

func (o CompareOutcome) HasArtifacts() bool {
	return o.File1 != "" && o.File2 != ""
}

type Options struct {
	// Timeout bounds each fetch, including the wait for its peer.
	Timeout time.Duration
	// JoinGrace is how much longer than Timeout to wait for a fetch to report
	// back before giving up on it.
	JoinGrace time.Duration
	Request   response_fetcher.RequestContext
}

// DriftChecker compares the responses of two hosts path by path.
type DriftChecker struct {
	host1    response_fetcher.FetcherInterface
	host2    response_fetcher.FetcherInterface
	comparer response_comparer.ResponseComparerInterface
	writer   file.ArtifactWriterInterface
	metrics  *metrics.Metrics
	opts     Options
}

func NewDriftChecker(
	host1 response_fetcher.FetcherInterface,
	host2 response_fetcher.FetcherInterface,
	comparer response_comparer.ResponseComparerInterface,
	writer file.ArtifactWriterInterface,
	m *metrics.Metrics,
	opts Options,
) *DriftChecker {
	return &DriftChecker{
		host1:    host1,
		host2:    host2,
		comparer: comparer,
		writer:   writer,
		metrics:  m,
		opts:     opts,
	}
}

// ComparePaths compares each path in turn and returns one outcome per path in
// the same order. A path whose fetches fail still gets an outcome. The only
// error returned is a failure to write artifacts, which stops the run.
func (dc *DriftChecker) ComparePaths(ctx context.Context, paths []string) ([]CompareOutcome, error) {
	outcomes := make([]CompareOutcome, 0, len(paths))

	for _, path := range paths {
		outcome, err := dc.ComparePath(ctx, path)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

// ComparePath fetches path from both hosts at the same moment and classifies
// the pair, writing artifacts if the responses differ.
func (dc *DriftChecker) ComparePath(ctx context.Context, path string) (CompareOutcome, error) {
	start := rendezvous.NewPairBarrier()

	results1 := dc.launchFetch(ctx, dc.host1, path, start)
	results2 := dc.launchFetch(ctx, dc.host2, path, start)

	joinCtx, cancel := context.WithTimeout(ctx, dc.opts.Timeout+dc.opts.JoinGrace)
	defer cancel()

	res1 := awaitResult(joinCtx, results1, dc.host1.BaseUrl(), path)
	res2 := awaitResult(joinCtx, results2, dc.host2.BaseUrl(), path)

	metrics.PathCompared(dc.metrics)
	dc.recordFetchFailure(host1Label, res1)
	dc.recordFetchFailure(host2Label, res2)

	comparison, err := dc.comparer.Compare(res1, res2)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("Error comparing responses")
		comparison = response_comparer.Comparison{
			Equal: false,
			Mode:  response_comparer.ModeError,
			Diff:  fmt.Sprintf("Comparison error: %s", err),
		}
	}

	outcome := CompareOutcome{
		Path:  path,
		Equal: comparison.Equal,
		Mode:  comparison.Mode,
		Diff:  comparison.Diff,
	}

	if comparison.ShouldPersist() {
		isJSON := comparison.Mode == response_comparer.ModeJSON
		file1, file2, err := dc.writer.WriteArtifacts(path, comparison.ContentA, comparison.ContentB, isJSON)
		if err != nil {
			return CompareOutcome{}, fmt.Errorf("failed to write differing responses for %s: %w", path, err)
		}

		outcome.File1 = file1
		outcome.File2 = file2
		metrics.ArtifactsWritten(dc.metrics, 2)
		log.Info().Str("path", path).Str("file1", file1).Str("file2", file2).Msg("Wrote differing responses")
	}

	if !outcome.Equal {
		metrics.DriftDetected(dc.metrics, string(outcome.Mode))
	}

	log.Info().
		Str("path", path).
		Str("mode", string(outcome.Mode)).
		Bool("equal", outcome.Equal).
		Int("host1_status", res1.StatusCode).
		Int("host2_status", res2.StatusCode).
		Msgf("Compared %s", path)

	return outcome, nil
}

// launchFetch runs one fetch on its own goroutine. The result channel is
// buffered so the goroutine can always finish, even once nobody is waiting.
func (dc *DriftChecker) launchFetch(
	ctx context.Context,
	fetcher response_fetcher.FetcherInterface,
	path string,
	start *rendezvous.Barrier,
) <-chan response_fetcher.FetchResult {
	results := make(chan response_fetcher.FetchResult, 1)

	go func() {
		defer (func() {
			if r := recover(); r != nil {
				results <- response_fetcher.NewFailedResult(fetcher.BaseUrl(), path, fmt.Errorf("fetch panicked: %v", r))
			}
		})()

		results <- fetcher.Fetch(ctx, path, dc.opts.Request, start)
	}()

	return results
}

func awaitResult(ctx context.Context, results <-chan response_fetcher.FetchResult, baseUrl string, path string) response_fetcher.FetchResult {
	select {
	case res := <-results:
		return res
	case <-ctx.Done():
		return response_fetcher.NewFailedResult(baseUrl, path, fmt.Errorf("fetch did not return: %w", ctx.Err()))
	}
}

func (dc *DriftChecker) recordFetchFailure(host string, res response_fetcher.FetchResult) {
	if !res.Failed() {
		return
	}

	metrics.FetchFailed(dc.metrics, host)
	log.Warn().Str("host", res.BaseUrl).Str("path", res.Path).Str("error", res.Error).Msg("Error fetching response")
}

type RunOptions struct {
	Timeout   time.Duration
	JoinGrace time.Duration
	OutDir    string
	Params    []response_fetcher.QueryParam
	Headers   map[string]string
}

// ComparePaths compares every path between the two base URLs. One client per
// host is created for the run and released when it ends.
func ComparePaths(
	ctx context.Context,
	baseUrl1 string,
	baseUrl2 string,
	paths []string,
	opts RunOptions,
	m *metrics.Metrics,
) ([]CompareOutcome, error) {
	startTime := time.Now()
	defer metrics.ComparisonDuration(m, startTime)

	client1 := client.NewClient(opts.Timeout)
	defer client1.CloseIdleConnections()
	client2 := client.NewClient(opts.Timeout)
	defer client2.CloseIdleConnections()

	host1, err := response_fetcher.NewResponseFetcher(baseUrl1, client1, opts.Timeout)
	if err != nil {
		return nil, err
	}
	host2, err := response_fetcher.NewResponseFetcher(baseUrl2, client2, opts.Timeout)
	if err != nil {
		return nil, err
	}

	checker := NewDriftChecker(
		host1,
		host2,
		&response_comparer.ResponseComparer{},
		file.NewArtifactWriter(opts.OutDir, time.Now),
		m,
		Options{
			Timeout:   opts.Timeout,
			JoinGrace: opts.JoinGrace,
			Request: response_fetcher.RequestContext{
				Params:  opts.Params,
				Headers: opts.Headers,
			},
		},
	)

	log.Info().Str("host1", baseUrl1).Str("host2", baseUrl2).Msgf("Comparing %d paths", len(paths))

	return checker.ComparePaths(ctx, paths)
}
