package artifacts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/codemedic/internal/config"
)

// ErrNoBucket is returned when an upload is requested without a configured bucket.
var ErrNoBucket = errors.New("storage.s3_bucket is not configured")

// Uploader copies saved artifacts to S3 under <prefix>/<run id>/.
type Uploader struct {
	api    s3manageriface.UploaderAPI
	bucket string
	prefix string
	logger hclog.Logger
}

// NewS3Uploader builds an uploader from the storage section, using the default AWS credential chain.
func NewS3Uploader(cfg *config.Config, logger hclog.Logger) (*Uploader, error) {
	if cfg == nil || cfg.Storage.S3Bucket == "" {
		return nil, ErrNoBucket
	}
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Storage.S3Region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return NewUploader(s3manager.NewUploader(sess), cfg.Storage.S3Bucket, cfg.Storage.S3Prefix, logger), nil
}

// NewUploader wraps an existing S3 upload API.
func NewUploader(api s3manageriface.UploaderAPI, bucket, prefix string, logger hclog.Logger) *Uploader {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Uploader{api: api, bucket: bucket, prefix: strings.Trim(prefix, "/"), logger: logger}
}

// Key returns the object key used for a file of a run.
func (u *Uploader) Key(runID, filePath string) string {
	return path.Join(u.prefix, runID, filepath.Base(filePath))
}

// Upload sends every file and returns the resulting object locations.
// It stops at the first failure.
func (u *Uploader) Upload(ctx context.Context, runID string, paths []string) ([]string, error) {
	if u.bucket == "" {
		return nil, ErrNoBucket
	}

	var locations []string
	for _, p := range paths {
		location, err := u.uploadFile(ctx, runID, p)
		if err != nil {
			return locations, err
		}
		locations = append(locations, location)
	}
	u.logger.Info("uploaded artifacts", "bucket", u.bucket, "run_id", runID, "files", len(locations))
	return locations, nil
}

func (u *Uploader) uploadFile(ctx context.Context, runID, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open artifact %q: %w", filePath, err)
	}
	defer f.Close()

	key := u.Key(runID, filePath)
	result, err := u.api.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %q to s3://%s/%s: %w", filePath, u.bucket, key, err)
	}
	u.logger.Debug("uploaded artifact", "bucket", u.bucket, "key", key, "location", result.Location)
	return result.Location, nil
}
