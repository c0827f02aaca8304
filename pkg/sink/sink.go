// Package sink writes exported JSON to its destination: a local file, an
// S3 object (s3://bucket/key) or a Cloud Storage object (gs://bucket/object).
package sink

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ContentType of every exported document.
const ContentType = "application/json"

// ErrInvalidDestination is returned for a destination that cannot be parsed.
var ErrInvalidDestination = errors.New("invalid destination")

// Sink stores one exported document.
type Sink interface {
	// Write stores data and returns its location.
	Write(ctx context.Context, data []byte) (string, error)

	// Close releases the sink's client.
	Close() error
}

// Scheme identifies the kind of destination.
type Scheme string

const (
	// SchemeFile is a local file path.
	SchemeFile Scheme = "file"

	// SchemeS3 is an Amazon S3 object.
	SchemeS3 Scheme = "s3"

	// SchemeGCS is a Google Cloud Storage object.
	SchemeGCS Scheme = "gs"
)

// Location is a parsed destination.
type Location struct {
	Scheme Scheme

	// Bucket is empty for local files.
	Bucket string

	// Key is the file path or object name.
	Key string
}

// String renders the location as a destination string.
func (l Location) String() string {
	if l.Scheme == SchemeFile {
		return l.Key
	}
	return fmt.Sprintf("%s://%s/%s", l.Scheme, l.Bucket, l.Key)
}

// Parse splits dest into a Location. Anything without an s3:// or gs://
// prefix is a local path.
func Parse(dest string) (Location, error) {
	if dest == "" {
		return Location{}, fmt.Errorf("%w: empty", ErrInvalidDestination)
	}

	var scheme Scheme
	switch {
	case strings.HasPrefix(dest, "s3://"):
		scheme = SchemeS3
	case strings.HasPrefix(dest, "gs://"):
		scheme = SchemeGCS
	default:
		return Location{Scheme: SchemeFile, Key: dest}, nil
	}

	u, err := url.Parse(dest)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %v", ErrInvalidDestination, err)
	}

	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" {
		return Location{}, fmt.Errorf("%w: %q has no bucket", ErrInvalidDestination, dest)
	}
	if key == "" || strings.HasSuffix(key, "/") {
		return Location{}, fmt.Errorf("%w: %q has no object name", ErrInvalidDestination, dest)
	}

	return Location{Scheme: scheme, Bucket: u.Host, Key: key}, nil
}

// Open creates the sink for dest, building cloud clients from the ambient
// credentials (AWS default chain, Google application default credentials).
func Open(ctx context.Context, dest string) (Sink, error) {
	loc, err := Parse(dest)
	if err != nil {
		return nil, err
	}

	switch loc.Scheme {
	case SchemeS3:
		s, err := OpenS3(ctx, loc)
		if err != nil {
			return nil, err
		}
		return s, nil
	case SchemeGCS:
		s, err := OpenGCS(ctx, loc)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return NewFile(loc.Key), nil
	}
}
