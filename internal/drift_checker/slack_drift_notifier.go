package drift_checker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const slackUsername = "HTTP request comparer"

type slackMessage struct {
	Text     string `json:"text"`
	Username string `json:"username"`
}

// SlackDriftNotifier posts a run summary to a Slack incoming webhook.
type SlackDriftNotifier struct {
	webhookUrl url.URL
	client     *http.Client
}

func NewSlackDriftNotifier(webhookUrl url.URL) *SlackDriftNotifier {
	return &SlackDriftNotifier{
		webhookUrl: webhookUrl,
		client:     &http.Client{},
	}
}

func (s SlackDriftNotifier) Notify(ctx context.Context, summary DriftSummary) error {
	payload, err := json.Marshal(slackMessage{
		Text:     slackText(summary),
		Username: slackUsername,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookUrl.String(), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post to slack webhook: %w", err)
	}
	defer (func() {
		_ = resp.Body.Close()
	})()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack webhook returned unexpected status: %s", resp.Status)
	}

	return nil
}

func slackText(summary DriftSummary) string {
	return fmt.Sprintf(
		"Responses differ between %s and %s\n"+
			"Paths compared: %d\n"+
			"Differences detected: %d\n"+
			"Errors encountered: %d\n\n"+
			"The differing responses were written alongside the run's report.",
		summary.BaseUrl1,
		summary.BaseUrl2,
		summary.NumPathsCompared,
		summary.NumDriftsDetected,
		summary.NumErrors,
	)
}
