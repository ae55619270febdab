package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"httpcomparer/internal/aws_client_interfaces"
	"httpcomparer/internal/config"
	"httpcomparer/internal/drift_checker"
	"httpcomparer/internal/logger"
	"httpcomparer/internal/metrics"
	"httpcomparer/internal/path_list"
	"httpcomparer/internal/response_fetcher"
	"httpcomparer/internal/upload"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func runCompare(cmd *cobra.Command, args []string) (int, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return exitCodeError, fmt.Errorf("parse config: %w", err)
	}

	if err := logger.InitialiseLogger(cfg.LogLevel, os.Stderr); err != nil {
		return exitCodeError, fmt.Errorf("parse log level: %w", err)
	}

	if err := applyArgs(cmd, cfg, args); err != nil {
		return exitCodeError, err
	}

	if err := cfg.Validate(); err != nil {
		return exitCodeError, fmt.Errorf("invalid config: %w", err)
	}

	return run(cmd.Context(), cfg, cmd.OutOrStdout())
}

// applyArgs overlays positional arguments and any flags set on the command
// line onto cfg. Query params are appended to those from the environment and
// header flags replace environment headers of the same name.
func applyArgs(cmd *cobra.Command, cfg *config.Config, args []string) error {
	positional := []*string{&cfg.BaseUrl1, &cfg.BaseUrl2, &cfg.PathsFile}
	for i, arg := range args {
		*positional[i] = arg
	}

	f := cmd.Flags()
	if f.Changed("timeout") {
		seconds, err := f.GetFloat64("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = secondsToDuration(seconds)
	}
	if f.Changed("join-grace") {
		seconds, err := f.GetFloat64("join-grace")
		if err != nil {
			return err
		}
		cfg.JoinGrace = secondsToDuration(seconds)
	}
	if f.Changed("out-dir") {
		outDir, err := f.GetString("out-dir")
		if err != nil {
			return err
		}
		cfg.OutDir = outDir
	}

	params, err := f.GetStringArray("param")
	if err != nil {
		return err
	}
	cfg.QueryParams = append(cfg.QueryParams, params...)

	headers, err := f.GetStringArray("header")
	if err != nil {
		return err
	}
	if len(headers) > 0 && cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}
	for _, header := range headers {
		name, value := response_fetcher.ParseHeader(header)
		cfg.Headers[name] = value
	}

	return nil
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

func requestParams(cfg *config.Config) []response_fetcher.QueryParam {
	params := make([]response_fetcher.QueryParam, 0, len(cfg.QueryParams))
	for _, p := range cfg.QueryParams {
		if strings.TrimSpace(p) == "" {
			continue
		}
		params = append(params, response_fetcher.ParseQueryParam(p))
	}
	return params
}

func requestHeaders(cfg *config.Config) map[string]string {
	headers := make(map[string]string, len(cfg.Headers))
	for name, value := range cfg.Headers {
		headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return headers
}

// run compares every path and writes the report to out. The exit code is 0
// when all pairs matched and 1 otherwise.
func run(ctx context.Context, cfg *config.Config, out io.Writer) (int, error) {
	var s3Client *s3.Client
	if path_list.IsS3Uri(cfg.PathsFile) || cfg.HasArtifactBucket() {
		awsCfg, err := awsConfig.LoadDefaultConfig(ctx)
		if err != nil {
			return exitCodeError, fmt.Errorf("load AWS config: %w", err)
		}
		s3Client = s3.NewFromConfig(awsCfg)
	}

	var pathsSource aws_client_interfaces.S3GetObjectAPI
	if s3Client != nil {
		pathsSource = s3Client
	}

	paths, err := path_list.Load(ctx, cfg.PathsFile, pathsSource)
	if err != nil {
		return exitCodeError, fmt.Errorf("load paths: %w", err)
	}

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry)

	outcomes, err := drift_checker.ComparePaths(ctx, cfg.BaseUrl1, cfg.BaseUrl2, paths, drift_checker.RunOptions{
		Timeout:   cfg.Timeout,
		JoinGrace: cfg.JoinGrace,
		OutDir:    cfg.OutDir,
		Params:    requestParams(cfg),
		Headers:   requestHeaders(cfg),
	}, m)
	if err != nil {
		return exitCodeError, err
	}

	if err := drift_checker.WriteReport(out, outcomes); err != nil {
		return exitCodeError, fmt.Errorf("write report: %w", err)
	}

	summary := drift_checker.Summarise(cfg.BaseUrl1, cfg.BaseUrl2, outcomes)
	if summary.HasDifferences() {
		notifier, err := newNotifier(cfg, out)
		if err != nil {
			return exitCodeError, err
		}
		if err := notifier.Notify(ctx, summary); err != nil {
			log.Error().Err(err).Msg("Failed to send drift notification")
		}
	}

	if cfg.HasPushGateway() {
		if err := metrics.PushMetrics(cfg.PushGatewayUrl, registry); err != nil {
			log.Error().Err(err).Str("pushgateway", cfg.PushGatewayUrl).Msg("Failed to push metrics")
		}
	}

	if cfg.HasArtifactBucket() {
		uploader := upload.NewUploader(s3Client, cfg.ArtifactS3Bucket)
		if err := upload.UploadArtifacts(ctx, uploader, cfg.ArtifactS3Prefix, artifactFiles(outcomes)); err != nil {
			return exitCodeError, fmt.Errorf("upload artifacts: %w", err)
		}
	}

	return drift_checker.ExitCode(outcomes), nil
}

func newNotifier(cfg *config.Config, out io.Writer) (drift_checker.DriftNotifierInterface, error) {
	if !cfg.HasSlackSettings() {
		return drift_checker.NewStdOutDriftNotifier(out), nil
	}

	webhookUrl, err := url.Parse(cfg.SlackWebhook)
	if err != nil {
		return nil, fmt.Errorf("parse slack webhook: %w", err)
	}
	return drift_checker.NewSlackDriftNotifier(*webhookUrl), nil
}

func artifactFiles(outcomes []drift_checker.CompareOutcome) []string {
	files := []string{}
	for _, o := range outcomes {
		if o.HasArtifacts() {
			files = append(files, o.File1, o.File2)
		}
	}
	return files
}
