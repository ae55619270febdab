package drift_checker

import (
	"context"
	"fmt"
	"io"
)

type StdOutDriftNotifier struct {
	w io.Writer
}

func NewStdOutDriftNotifier(w io.Writer) *StdOutDriftNotifier {
	return &StdOutDriftNotifier{w: w}
}

func (s StdOutDriftNotifier) Notify(_ context.Context, summary DriftSummary) error {
	_, err := fmt.Fprintf(s.w, `
Differences were detected between %s and %s
Paths compared: %d
Differences detected: %d
Errors encountered: %d
`,
		summary.BaseUrl1,
		summary.BaseUrl2,
		summary.NumPathsCompared,
		summary.NumDriftsDetected,
		summary.NumErrors,
	)

	return err
}
