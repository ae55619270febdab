package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const pushJobName = "http_comparer"

type Metrics struct {
	pathsComparedCounter    prometheus.Counter
	driftsCounter           *prometheus.CounterVec
	fetchErrorsCounter      *prometheus.CounterVec
	artifactsWrittenCounter prometheus.Counter
	comparisonDurationGauge prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		pathsComparedCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_comparer_paths_compared_total",
			Help: "Total number of paths requested from both hosts and compared",
		}),
		driftsCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_comparer_drifts_detected_total",
			Help: "Total number of paths whose responses differed, by comparison mode",
		}, []string{"mode"}),
		fetchErrorsCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_comparer_fetch_errors_total",
			Help: "Total number of transport failures, by host",
		}, []string{"host"}),
		artifactsWrittenCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_comparer_artifacts_written_total",
			Help: "Total number of response bodies written to disk",
		}),
		comparisonDurationGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_comparer_comparison_duration_seconds",
			Help: "Duration of the last comparison run in seconds",
		}),
	}

	reg.MustRegister(m.pathsComparedCounter)
	reg.MustRegister(m.driftsCounter)
	reg.MustRegister(m.fetchErrorsCounter)
	reg.MustRegister(m.artifactsWrittenCounter)
	reg.MustRegister(m.comparisonDurationGauge)

	return m
}

func PathCompared(m *Metrics) {
	m.pathsComparedCounter.Inc()
}

func DriftDetected(m *Metrics, mode string) {
	m.driftsCounter.WithLabelValues(mode).Inc()
}

func FetchFailed(m *Metrics, host string) {
	m.fetchErrorsCounter.WithLabelValues(host).Inc()
}

func ArtifactsWritten(m *Metrics, count int) {
	m.artifactsWrittenCounter.Add(float64(count))
}

func ComparisonDuration(m *Metrics, start time.Time) {
	m.comparisonDurationGauge.Set(time.Since(start).Seconds())
}

func (m Metrics) PathsComparedCounter() prometheus.Counter {
	return m.pathsComparedCounter
}

func (m Metrics) DriftsCounter() *prometheus.CounterVec {
	return m.driftsCounter
}

func (m Metrics) FetchErrorsCounter() *prometheus.CounterVec {
	return m.fetchErrorsCounter
}

func (m Metrics) ArtifactsWrittenCounter() prometheus.Counter {
	return m.artifactsWrittenCounter
}

func (m Metrics) ComparisonDurationGauge() prometheus.Gauge {
	return m.comparisonDurationGauge
}

// PushMetrics sends everything gathered by reg to a Prometheus Pushgateway.
func PushMetrics(pushGatewayUrl string, reg prometheus.Gatherer) error {
	return push.New(pushGatewayUrl, pushJobName).Gatherer(reg).Push()
}
