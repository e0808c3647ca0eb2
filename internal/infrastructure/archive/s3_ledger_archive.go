// Package archive provides long-term ledger entry storage outside the
// primary database.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	appbilling "github.com/clientdesk/backend/internal/application/billing"
	"github.com/clientdesk/backend/internal/domain/finance"
	infraconfig "github.com/clientdesk/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Ensure S3LedgerArchive implements LedgerArchive
var _ appbilling.LedgerArchive = (*S3LedgerArchive)(nil)

// S3LedgerArchive stores committed ledger entries as JSON objects in an
// S3-compatible bucket (AWS S3, MinIO, etc.). Writes are best-effort from
// the caller's perspective; the archive never participates in the payment
// transaction.
type S3LedgerArchive struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
}

// S3LedgerArchiveOption is a functional option for configuring S3LedgerArchive
type S3LedgerArchiveOption func(*S3LedgerArchive)

// WithLogger sets a custom logger for S3LedgerArchive
func WithLogger(logger *zap.Logger) S3LedgerArchiveOption {
	return func(a *S3LedgerArchive) {
		a.logger = logger
	}
}

// NewS3LedgerArchive creates a new S3LedgerArchive from configuration.
// It supports any S3-compatible storage backend.
func NewS3LedgerArchive(cfg *infraconfig.ArchiveConfig, opts ...S3LedgerArchiveOption) (*S3LedgerArchive, error) {
	if cfg == nil {
		return nil, errors.New("archive configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("archive bucket is required")
	}
	if cfg.AccessKeyID == "" {
		return nil, errors.New("archive access key is required")
	}
	if cfg.SecretAccessKey == "" {
		return nil, errors.New("archive secret key is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"", // session token (not used for static credentials)
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.ForcePathStyle
		if cfg.Endpoint != "" {
			endpoint := cfg.Endpoint
			if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
				endpoint = "https://" + endpoint
			}
			if _, err := url.Parse(endpoint); err == nil {
				o.BaseEndpoint = aws.String(endpoint)
			}
		}
	})

	a := &S3LedgerArchive{
		client: client,
		bucket: cfg.Bucket,
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
// Call this during application startup.
func (a *S3LedgerArchive) EnsureBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(a.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	a.logger.Info("creating archive bucket", zap.String("bucket", a.bucket))
	_, err = a.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(a.bucket),
	})
	if err != nil {
		// Ignore "BucketAlreadyOwnedByYou" error (race condition)
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	return nil
}

// Store writes the ledger entry as a JSON object keyed by org, month and
// entry ID so a month of activity can be listed with a single prefix scan
func (a *S3LedgerArchive) Store(ctx context.Context, entry *finance.LedgerEntry) error {
	if entry == nil {
		return errors.New("ledger entry is required")
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to serialize ledger entry: %w", err)
	}

	key := ObjectKey(entry)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to archive ledger entry: %w", err)
	}

	a.logger.Debug("ledger entry archived",
		zap.String("key", key),
		zap.String("entry_id", entry.ID.String()),
	)
	return nil
}

// ObjectKey returns the archive object key for a ledger entry:
// ledger/<org>/<yyyy>/<mm>/<entry-id>.json
func ObjectKey(entry *finance.LedgerEntry) string {
	return fmt.Sprintf("ledger/%s/%04d/%02d/%s.json",
		entry.OrgID, entry.Date.Year(), int(entry.Date.Month()), entry.ID)
}

// GetBucket returns the bucket name
func (a *S3LedgerArchive) GetBucket() string {
	return a.bucket
}
