package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCS writes to one Cloud Storage object.
type GCS struct {
	client *storage.Client
	bucket string
	object string
	owned  bool
}

// NewGCS creates a GCS sink with an existing client. The caller keeps
// ownership of client.
func NewGCS(client *storage.Client, bucket, object string) (*GCS, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	if object == "" {
		return nil, fmt.Errorf("object name is required")
	}
	return &GCS{client: client, bucket: bucket, object: object}, nil
}

// OpenGCS creates a client from application default credentials and a sink
// for loc. Close releases the client.
func OpenGCS(ctx context.Context, loc Location, opts ...option.ClientOption) (*GCS, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	s, err := NewGCS(client, loc.Bucket, loc.Key)
	if err != nil {
		client.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// Write uploads data and returns the gs:// URI.
func (s *GCS) Write(ctx context.Context, data []byte) (string, error) {
	writer := s.client.Bucket(s.bucket).Object(s.object).NewWriter(ctx)
	writer.ContentType = ContentType

	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		if closeErr := writer.Close(); closeErr != nil {
			return "", fmt.Errorf("copy object: %w (close writer: %v)", err, closeErr)
		}
		return "", fmt.Errorf("copy object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close writer: %w", err)
	}
	return Location{Scheme: SchemeGCS, Bucket: s.bucket, Key: s.object}.String(), nil
}

// Close releases the client when the sink created it.
func (s *GCS) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}
