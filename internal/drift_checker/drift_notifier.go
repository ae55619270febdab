package drift_checker

import (
	"context"

	"httpcomparer/internal/response_comparer"
)

type DriftNotifierInterface interface {
	Notify(ctx context.Context, summary DriftSummary) error
}

type DriftSummary struct {
	BaseUrl1          string
	BaseUrl2          string
	NumPathsCompared  int
	NumDriftsDetected int
	NumErrors         int
}

func (s DriftSummary) HasDifferences() bool {
	return s.NumDriftsDetected > 0 || s.NumErrors > 0
}

// Summarise counts the outcomes of a run. Pairs that could not be fetched
// count as errors, not drifts.
func Summarise(baseUrl1 string, baseUrl2 string, outcomes []CompareOutcome) DriftSummary {
	summary := DriftSummary{
		BaseUrl1:         baseUrl1,
		BaseUrl2:         baseUrl2,
		NumPathsCompared: len(outcomes),
	}

	for _, o := range outcomes {
		switch {
		case o.Mode == response_comparer.ModeError:
			summary.NumErrors++
		case !o.Equal:
			summary.NumDriftsDetected++
		}
	}

	return summary
}
