package path_list

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"httpcomparer/internal/aws_client_interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

const s3Scheme = "s3://"

type InvalidS3UriError struct {
	Uri string
}

func (e *InvalidS3UriError) Error() string {
	return fmt.Sprintf("invalid S3 URI %q, expected s3://bucket/key", e.Uri)
}

// Parse reads one path per line. Surrounding whitespace is trimmed, and blank
// lines and lines starting with "#" are skipped. Order and duplicates are
// preserved.
func Parse(r io.Reader) ([]string, error) {
	paths := []string{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		paths = append(paths, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read paths: %w", err)
	}

	return paths, nil
}

func LoadFromFile(filePath string) ([]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open paths file %s: %w", filePath, err)
	}
	defer (func() {
		err := f.Close()
		if err != nil {
			log.Error().Err(err).Str("file", filePath).Msg("failed to close paths file")
		}
	})()

	return Parse(f)
}

func LoadFromS3(ctx context.Context, s3Client aws_client_interfaces.S3GetObjectAPI, uri string) ([]string, error) {
	bucket, key, err := ParseS3Uri(uri)
	if err != nil {
		return nil, err
	}

	obj, err := s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get paths object %s: %w", uri, err)
	}
	defer (func() {
		_ = obj.Body.Close()
	})()

	return Parse(obj.Body)
}

// Load reads paths from an s3:// URI or a local file. The S3 client is only
// used, and only needs to be non-nil, for S3 locations.
func Load(ctx context.Context, location string, s3Client aws_client_interfaces.S3GetObjectAPI) ([]string, error) {
	if IsS3Uri(location) {
		if s3Client == nil {
			return nil, fmt.Errorf("no S3 client available to load %s", location)
		}
		return LoadFromS3(ctx, s3Client, location)
	}

	return LoadFromFile(location)
}

func IsS3Uri(location string) bool {
	return strings.HasPrefix(location, s3Scheme)
}

func ParseS3Uri(uri string) (string, string, error) {
	if !IsS3Uri(uri) {
		return "", "", &InvalidS3UriError{Uri: uri}
	}

	bucket, key, ok := strings.Cut(strings.TrimPrefix(uri, s3Scheme), "/")
	if !ok || bucket == "" || key == "" {
		return "", "", &InvalidS3UriError{Uri: uri}
	}

	return bucket, key, nil
}
