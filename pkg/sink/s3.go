package sink

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client used by the sink.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 writes to one S3 object.
type S3 struct {
	client S3API
	bucket string
	key    string
}

// NewS3 creates an S3 sink with an existing client.
func NewS3(client S3API, bucket, key string) (*S3, error) {
	if client == nil {
		return nil, fmt.Errorf("s3 client is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	if key == "" {
		return nil, fmt.Errorf("object key is required")
	}
	return &S3{client: client, bucket: bucket, key: key}, nil
}

// OpenS3 loads the default AWS configuration and creates a sink for loc.
func OpenS3(ctx context.Context, loc Location) (*S3, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewS3(s3.NewFromConfig(cfg), loc.Bucket, loc.Key)
}

// Write uploads data and returns the s3:// URI.
func (s *S3) Write(ctx context.Context, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(ContentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object: %w", err)
	}
	return Location{Scheme: SchemeS3, Bucket: s.bucket, Key: s.key}.String(), nil
}

// Close is a no-op; the AWS client holds no resources.
func (s *S3) Close() error {
	return nil
}
