package upload

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"httpcomparer/internal/aws_client_interfaces"
	"httpcomparer/internal/mime"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog/log"
)

type Uploader interface {
	UploadFile(ctx context.Context, filePath string, destinationKey string, contentType string) error
}

type S3Uploader struct {
	s3         aws_client_interfaces.S3ObjectUploadingAPI
	bucketName string
}

func NewUploader(s3 aws_client_interfaces.S3ObjectUploadingAPI, bucketName string) Uploader {
	return S3Uploader{
		s3:         s3,
		bucketName: bucketName,
	}
}

// UploadFile sends the whole file in one request. Artifacts are single
// response bodies, so they are read into memory to checksum them.
func (u S3Uploader) UploadFile(ctx context.Context, filePath string, destinationKey string, contentType string) error {
	body, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read artifact %s: %w", filePath, err)
	}

	sum := sha1.Sum(body)

	_, err = u.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:            aws.String(u.bucketName),
		Key:               aws.String(destinationKey),
		Body:              bytes.NewReader(body),
		ContentLength:     aws.Int64(int64(len(body))),
		ChecksumAlgorithm: types.ChecksumAlgorithmSha1,
		ChecksumSHA1:      aws.String(base64.StdEncoding.EncodeToString(sum[:])),
		ContentType:       aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload artifact to %s: %w", destinationKey, err)
	}

	return nil
}

// UploadArtifacts uploads each artifact under keyPrefix, keeping its file name.
// It stops at the first failure.
func UploadArtifacts(ctx context.Context, uploader Uploader, keyPrefix string, filePaths []string) error {
	for _, filePath := range filePaths {
		key := DestinationKey(keyPrefix, filePath)

		contentType, err := mime.TypeForFile(filePath)
		if err != nil {
			return err
		}

		err = uploader.UploadFile(ctx, filePath, key, contentType)
		if err != nil {
			return err
		}

		log.Info().Str("file", filePath).Str("key", key).Msg("Uploaded artifact")
	}

	return nil
}

func DestinationKey(keyPrefix string, filePath string) string {
	prefix := strings.Trim(keyPrefix, "/")
	if prefix == "" {
		return filepath.Base(filePath)
	}

	return path.Join(prefix, filepath.Base(filePath))
}
