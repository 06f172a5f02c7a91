// Package storage persists the mapping table in object storage.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/skubridge/backend/internal/domain/mapping"
	infraconfig "github.com/skubridge/backend/internal/infrastructure/config"
)

// MappingObjectKey is the single object the whole mapping table lives
// under. Uploads replace it wholesale.
const MappingObjectKey = "sku-warehouse-location-map.json"

// objectAPI is the slice of the S3 client this store uses.
type objectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, opts ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// Ensure S3MappingStore implements mapping.Store
var _ mapping.Store = (*S3MappingStore)(nil)

// S3MappingStore stores the mapping table as one JSON object in an
// S3-compatible bucket (AWS S3, RustFS, MinIO, etc.)
type S3MappingStore struct {
	client objectAPI
	bucket string
	key    string
	logger *zap.Logger
}

// S3MappingStoreOption is a functional option for configuring S3MappingStore
type S3MappingStoreOption func(*S3MappingStore)

// WithLogger sets a custom logger for S3MappingStore
func WithLogger(logger *zap.Logger) S3MappingStoreOption {
	return func(s *S3MappingStore) {
		s.logger = logger
	}
}

// WithObjectKey overrides the object key the table is stored under
func WithObjectKey(key string) S3MappingStoreOption {
	return func(s *S3MappingStore) {
		s.key = key
	}
}

// withClient injects a client. Used in tests.
func withClient(client objectAPI) S3MappingStoreOption {
	return func(s *S3MappingStore) {
		s.client = client
	}
}

// NewS3MappingStore creates a mapping store from configuration. It
// supports any S3-compatible storage backend.
func NewS3MappingStore(cfg *infraconfig.StorageConfig, opts ...S3MappingStoreOption) (*S3MappingStore, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("storage access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("storage secret key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:9000" // RustFS default
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid storage endpoint: %w", err)
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"", // session token (not used for static credentials)
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	})

	store := &S3MappingStore{
		client: client,
		bucket: cfg.Bucket,
		key:    MappingObjectKey,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(store)
	}

	return store, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
// Call this during application startup to ensure the bucket is ready.
func (s *S3MappingStore) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating storage bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
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

// Ping verifies the bucket is reachable. Used by the readiness probe.
func (s *S3MappingStore) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("storage unreachable: %w", err)
	}
	return nil
}

// Load fetches and decodes the mapping table. A missing object is
// mapping.ErrTableNotFound; any other failure is an outage.
func (s *S3MappingStore) Load(ctx context.Context) (*mapping.Table, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, mapping.ErrTableNotFound
		}
		return nil, fmt.Errorf("failed to load mapping table: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping table: %w", err)
	}

	var table mapping.Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to decode mapping table: %w", err)
	}
	return &table, nil
}

// Save replaces the stored table with the given one.
func (s *S3MappingStore) Save(ctx context.Context, table *mapping.Table) error {
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("failed to encode mapping table: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        strings.NewReader(string(data)),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to store mapping table: %w", err)
	}

	s.logger.Info("Mapping table stored",
		zap.String("bucket", s.bucket),
		zap.String("key", s.key),
		zap.Int("sku_count", table.SKUCount()),
	)
	return nil
}

// isNotFound reports whether an S3 error means the object is absent.
// Some S3-compatible services surface this under different types, so
// the error text is checked as a fallback.
func isNotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return true
	}
	return strings.Contains(err.Error(), "NotFound") || strings.Contains(err.Error(), "NoSuchKey")
}
