package drift_checker_test

import (
	"context"
	"encoding/json"
	"errors"
	"httpcomparer/internal/drift_checker"
	"httpcomparer/internal/file"
	"httpcomparer/internal/metrics"
	"httpcomparer/internal/response_comparer"
	"httpcomparer/internal/response_fetcher"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetchFunc = func(ctx context.Context, path string, start response_fetcher.StartGate) response_fetcher.FetchResult

type fakeFetcher struct {
	baseUrl string
	fetch   fetchFunc

	mu    sync.Mutex
	paths []string
}

func (f *fakeFetcher) BaseUrl() string {
	return f.baseUrl
}

func (f *fakeFetcher) Fetch(ctx context.Context, path string, _ response_fetcher.RequestContext, start response_fetcher.StartGate) response_fetcher.FetchResult {
	f.mu.Lock()
	f.paths = append(f.paths, path)
	f.mu.Unlock()

	return f.fetch(ctx, path, start)
}

func (f *fakeFetcher) FetchedPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.paths...)
}

func respondWith(baseUrl string, body string) fetchFunc {
	return func(_ context.Context, path string, start response_fetcher.StartGate) response_fetcher.FetchResult {
		_ = start.Wait(time.Second)
		parsed, ok := response_fetcher.TryParseJSON([]byte(body))
		return response_fetcher.FetchResult{
			BaseUrl:    baseUrl,
			Path:       path,
			StatusCode: 200,
			Headers:    map[string]string{},
			Body:       body,
			JSON:       parsed,
			HasJSON:    ok,
		}
	}
}

func fakeHost(baseUrl string, body string) *fakeFetcher {
	return &fakeFetcher{baseUrl: baseUrl, fetch: respondWith(baseUrl, body)}
}

type failingWriter struct{}

func (failingWriter) WriteArtifacts(string, string, string, bool) (string, string, error) {
	return "", "", errors.New("disk full")
}

type failingComparer struct{}

func (failingComparer) Compare(response_fetcher.FetchResult, response_fetcher.FetchResult) (response_comparer.Comparison, error) {
	return response_comparer.Comparison{}, errors.New("cannot compare")
}

func fixedTime() time.Time {
	return time.Date(2024, 3, 5, 9, 7, 3, 0, time.UTC)
}

func newChecker(t *testing.T, host1, host2 response_fetcher.FetcherInterface, opts drift_checker.Options) (*drift_checker.DriftChecker, *metrics.Metrics, string) {
	outDir := t.TempDir()
	m := metrics.NewMetrics(prometheus.NewRegistry())

	if opts.Timeout == 0 {
		opts.Timeout = time.Second
	}

	checker := drift_checker.NewDriftChecker(
		host1,
		host2,
		&response_comparer.ResponseComparer{},
		file.NewArtifactWriter(outDir, fixedTime),
		m,
		opts,
	)

	return checker, m, outDir
}

func TestDriftChecker_ComparePaths(t *testing.T) {
	t.Run("returns one outcome per path in the same order", func(t *testing.T) {
		host1 := fakeHost("http://one", "same")
		host2 := fakeHost("http://two", "same")
		checker, m, _ := newChecker(t, host1, host2, drift_checker.Options{})

		paths := []string{"/b", "/a", "/b"}
		outcomes, err := checker.ComparePaths(t.Context(), paths)
		require.NoError(t, err)

		require.Len(t, outcomes, 3)
		for i, path := range paths {
			assert.Equal(t, path, outcomes[i].Path)
		}
		assert.Equal(t, paths, host1.FetchedPaths())
		assert.Equal(t, paths, host2.FetchedPaths())
		assert.Equal(t, 3.0, testutil.ToFloat64(m.PathsComparedCounter()))
	})

	t.Run("returns no outcomes for no paths", func(t *testing.T) {
		checker, _, _ := newChecker(t, fakeHost("http://one", ""), fakeHost("http://two", ""), drift_checker.Options{})

		outcomes, err := checker.ComparePaths(t.Context(), []string{})
		require.NoError(t, err)
		assert.Empty(t, outcomes)
	})

	t.Run("reports equal JSON without writing files", func(t *testing.T) {
		checker, m, outDir := newChecker(t,
			fakeHost("http://one", `{"b": 2, "a": 1}`),
			fakeHost("http://two", `{"a":1,"b":2}`),
			drift_checker.Options{},
		)

		outcomes, err := checker.ComparePaths(t.Context(), []string{"/items"})
		require.NoError(t, err)

		outcome := outcomes[0]
		assert.True(t, outcome.Equal)
		assert.Equal(t, response_comparer.ModeJSON, outcome.Mode)
		assert.Empty(t, outcome.Diff)
		assert.False(t, outcome.HasArtifacts())

		entries, err := os.ReadDir(outDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
		assert.Equal(t, 0.0, testutil.ToFloat64(m.ArtifactsWrittenCounter()))
	})

	t.Run("writes both canonical JSON bodies when they differ", func(t *testing.T) {
		checker, m, outDir := newChecker(t,
			fakeHost("http://one", `{"a":1}`),
			fakeHost("http://two", `{"a":2}`),
			drift_checker.Options{},
		)

		outcomes, err := checker.ComparePaths(t.Context(), []string{"/items?x=1"})
		require.NoError(t, err)

		outcome := outcomes[0]
		assert.False(t, outcome.Equal)
		assert.Equal(t, response_comparer.ModeJSON, outcome.Mode)
		assert.Contains(t, outcome.Diff, `-  "a": 1`)
		assert.Contains(t, outcome.Diff, `+  "a": 2`)

		expected1, expected2 := file.GenerateFilePaths(outDir, "/items?x=1", true, fixedTime())
		assert.Equal(t, expected1, outcome.File1)
		assert.Equal(t, expected2, outcome.File2)

		for artifact, want := range map[string]float64{outcome.File1: 1, outcome.File2: 2} {
			content, err := os.ReadFile(artifact)
			require.NoError(t, err)

			var decoded map[string]float64
			require.NoError(t, json.Unmarshal(content, &decoded))
			assert.Equal(t, want, decoded["a"])
		}

		assert.Equal(t, 2.0, testutil.ToFloat64(m.ArtifactsWrittenCounter()))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.DriftsCounter().WithLabelValues("json")))
	})

	t.Run("falls back to text when only one body is JSON", func(t *testing.T) {
		checker, _, _ := newChecker(t,
			fakeHost("http://one", `{"a":1}`),
			fakeHost("http://two", `{"a":`),
			drift_checker.Options{},
		)

		outcomes, err := checker.ComparePaths(t.Context(), []string{"/items"})
		require.NoError(t, err)

		outcome := outcomes[0]
		assert.False(t, outcome.Equal)
		assert.Equal(t, response_comparer.ModeText, outcome.Mode)
		assert.True(t, outcome.HasArtifacts())
		assert.FileExists(t, outcome.File1)
		assert.FileExists(t, outcome.File2)
	})

	t.Run("reports a failed fetch as an error without writing files", func(t *testing.T) {
		host1 := fakeHost("http://one", "body")
		host2 := &fakeFetcher{
			baseUrl: "http://two",
			fetch: func(_ context.Context, path string, start response_fetcher.StartGate) response_fetcher.FetchResult {
				_ = start.Wait(time.Second)
				return response_fetcher.NewFailedResult("http://two", path, errors.New("connection refused"))
			},
		}
		checker, m, outDir := newChecker(t, host1, host2, drift_checker.Options{})

		outcomes, err := checker.ComparePaths(t.Context(), []string{"/items"})
		require.NoError(t, err)

		outcome := outcomes[0]
		assert.False(t, outcome.Equal)
		assert.Equal(t, response_comparer.ModeError, outcome.Mode)
		assert.Contains(t, outcome.Diff, "Host2 error: connection refused")
		assert.Contains(t, outcome.Diff, "Status codes differ: 200 vs -1")
		assert.False(t, outcome.HasArtifacts())

		entries, err := os.ReadDir(outDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchErrorsCounter().WithLabelValues("host2")))
	})

	t.Run("gives up on a fetch that never returns", func(t *testing.T) {
		stuck := make(chan struct{})
		defer close(stuck)

		host1 := fakeHost("http://one", "body")
		host2 := &fakeFetcher{
			baseUrl: "http://two",
			fetch: func(_ context.Context, path string, _ response_fetcher.StartGate) response_fetcher.FetchResult {
				<-stuck
				return response_fetcher.FetchResult{}
			},
		}
		checker, _, _ := newChecker(t, host1, host2, drift_checker.Options{
			Timeout:   20 * time.Millisecond,
			JoinGrace: 20 * time.Millisecond,
		})

		outcomes, err := checker.ComparePaths(t.Context(), []string{"/slow", "/next"})
		require.NoError(t, err)

		require.Len(t, outcomes, 2)
		for _, outcome := range outcomes {
			assert.Equal(t, response_comparer.ModeError, outcome.Mode)
			assert.Contains(t, outcome.Diff, "Host2 error: fetch did not return")
		}
	})

	t.Run("turns a panicking fetch into an error outcome", func(t *testing.T) {
		host2 := &fakeFetcher{
			baseUrl: "http://two",
			fetch: func(context.Context, string, response_fetcher.StartGate) response_fetcher.FetchResult {
				panic("boom")
			},
		}
		host1 := &fakeFetcher{baseUrl: "http://one", fetch: func(_ context.Context, path string, _ response_fetcher.StartGate) response_fetcher.FetchResult {
			return response_fetcher.FetchResult{BaseUrl: "http://one", Path: path, StatusCode: 200, Headers: map[string]string{}}
		}}
		checker, _, _ := newChecker(t, host1, host2, drift_checker.Options{})

		outcomes, err := checker.ComparePaths(t.Context(), []string{"/items"})
		require.NoError(t, err)

		assert.Equal(t, response_comparer.ModeError, outcomes[0].Mode)
		assert.Contains(t, outcomes[0].Diff, "Host2 error: fetch panicked: boom")
	})

	t.Run("reports a comparison failure as an error outcome", func(t *testing.T) {
		checker := drift_checker.NewDriftChecker(
			fakeHost("http://one", "a"),
			fakeHost("http://two", "a"),
			failingComparer{},
			file.NewArtifactWriter(t.TempDir(), fixedTime),
			metrics.NewMetrics(prometheus.NewRegistry()),
			drift_checker.Options{Timeout: time.Second},
		)

		outcomes, err := checker.ComparePaths(t.Context(), []string{"/items"})
		require.NoError(t, err)

		assert.False(t, outcomes[0].Equal)
		assert.Equal(t, response_comparer.ModeError, outcomes[0].Mode)
		assert.Contains(t, outcomes[0].Diff, "cannot compare")
	})

	t.Run("stops when the differing responses cannot be written", func(t *testing.T) {
		checker := drift_checker.NewDriftChecker(
			fakeHost("http://one", "a"),
			fakeHost("http://two", "b"),
			&response_comparer.ResponseComparer{},
			failingWriter{},
			metrics.NewMetrics(prometheus.NewRegistry()),
			drift_checker.Options{Timeout: time.Second},
		)

		outcomes, err := checker.ComparePaths(t.Context(), []string{"/first", "/second"})
		assert.ErrorContains(t, err, "disk full")
		assert.Empty(t, outcomes)
	})

	t.Run("releases both fetches of a path together", func(t *testing.T) {
		var mu sync.Mutex
		released := map[string]time.Time{}

		gated := func(name string) *fakeFetcher {
			return &fakeFetcher{
				baseUrl: "http://" + name,
				fetch: func(_ context.Context, path string, start response_fetcher.StartGate) response_fetcher.FetchResult {
					if name == "one" {
						time.Sleep(50 * time.Millisecond)
					}
					err := start.Wait(time.Second)
					assert.NoError(t, err)

					mu.Lock()
					released[name] = time.Now()
					mu.Unlock()

					return response_fetcher.FetchResult{BaseUrl: "http://" + name, Path: path, StatusCode: 200, Headers: map[string]string{}}
				},
			}
		}

		checker, _, _ := newChecker(t, gated("one"), gated("two"), drift_checker.Options{})

		_, err := checker.ComparePaths(t.Context(), []string{"/items"})
		require.NoError(t, err)

		delta := released["one"].Sub(released["two"]).Abs()
		assert.Less(t, delta, 40*time.Millisecond)
	})
}

func TestComparePaths(t *testing.T) {
	newServer := func(body string, contentType string) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", contentType)
			if r.URL.Path == "/missing" {
				w.WriteHeader(http.StatusNotFound)
			}
			_, _ = w.Write([]byte(body))
		}))
	}

	t.Run("compares real responses from two hosts", func(t *testing.T) {
		srv1 := newServer(`{"a": 1, "b": [1, 2]}`, "application/json")
		defer srv1.Close()
		srv2 := newServer(`{"b":[1,2],"a":1}`, "application/json")
		defer srv2.Close()

		m := metrics.NewMetrics(prometheus.NewRegistry())
		outcomes, err := drift_checker.ComparePaths(t.Context(), srv1.URL, srv2.URL, []string{"/items", "/missing"}, drift_checker.RunOptions{
			Timeout:   2 * time.Second,
			JoinGrace: time.Second,
			OutDir:    t.TempDir(),
		}, m)
		require.NoError(t, err)

		require.Len(t, outcomes, 2)
		assert.True(t, outcomes[0].Equal)
		assert.True(t, outcomes[1].Equal)
		assert.Equal(t, response_comparer.ModeJSON, outcomes[1].Mode)
		assert.Greater(t, testutil.ToFloat64(m.ComparisonDurationGauge()), 0.0)
	})

	t.Run("reports an unreachable host as an error", func(t *testing.T) {
		srv1 := newServer("ok", "text/plain")
		defer srv1.Close()
		srv2 := newServer("ok", "text/plain")
		srv2.Close()

		outDir := t.TempDir()
		outcomes, err := drift_checker.ComparePaths(t.Context(), srv1.URL, srv2.URL, []string{"/"}, drift_checker.RunOptions{
			Timeout: 2 * time.Second,
			OutDir:  outDir,
		}, metrics.NewMetrics(prometheus.NewRegistry()))
		require.NoError(t, err)

		assert.Equal(t, response_comparer.ModeError, outcomes[0].Mode)
		assert.Contains(t, outcomes[0].Diff, "Host2 error:")

		entries, err := os.ReadDir(outDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("rejects an invalid base URL", func(t *testing.T) {
		_, err := drift_checker.ComparePaths(t.Context(), "not a url", "http://localhost", []string{"/"}, drift_checker.RunOptions{
			Timeout: time.Second,
		}, metrics.NewMetrics(prometheus.NewRegistry()))
		assert.Error(t, err)
	})
}
