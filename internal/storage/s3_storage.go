package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Storage reads product images kept in S3 or an S3 compatible store.
type S3Storage struct {
	client *s3.Client
}

func NewS3Storage(region, accessKeyID, secretAccessKey, endpoint string) *S3Storage {
	var cfg aws.Config
	var err error

	// If credentials are provided, use them. Otherwise, use default credential chain
	if accessKeyID != "" && secretAccessKey != "" {
		cfg = aws.Config{
			Region: region,
			Credentials: credentials.NewStaticCredentialsProvider(
				accessKeyID,
				secretAccessKey,
				"",
			),
		}
	} else {
		// Use default credential chain (environment variables, ~/.aws/credentials, IAM role, etc.)
		cfg, err = config.LoadDefaultConfig(context.TODO(),
			config.WithRegion(region),
		)
		if err != nil {
			// If default config fails, create a basic config with region only
			cfg = aws.Config{
				Region: region,
			}
		}
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{client: client}
}

// FetchObject reads at most limit+1 bytes of an object so callers can tell
// an oversized object apart.
func (s *S3Storage) FetchObject(ctx context.Context, bucket, key string, limit int64) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	if out.ContentLength != nil && *out.ContentLength > limit {
		return nil, fmt.Errorf("%w: s3://%s/%s is %d bytes", ErrImageTooLarge, bucket, key, *out.ContentLength)
	}

	data, err := io.ReadAll(io.LimitReader(out.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", bucket, key, err)
	}
	return data, nil
}
