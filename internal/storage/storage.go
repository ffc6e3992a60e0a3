// Package storage reads and writes directory documents and import reports
// at a local path or an s3:// location.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedScheme is returned for locations that are neither local
// paths nor s3:// URIs.
var ErrUnsupportedScheme = errors.New("unsupported storage scheme")

// Location is a parsed storage address.
type Location struct {
	Bucket string // set for s3:// locations
	Key    string // object key, or the local file path
}

// IsS3 reports whether the location points at an S3 object.
func (l Location) IsS3() bool { return l.Bucket != "" }

func (l Location) String() string {
	if l.IsS3() {
		return "s3://" + l.Bucket + "/" + l.Key
	}
	return l.Key
}

// ParseLocation accepts "s3://bucket/key", "file:///abs/path" or a plain
// filesystem path.
func ParseLocation(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, errors.New("empty storage location")
	}
	if !strings.Contains(raw, "://") {
		return Location{Key: filepath.Clean(raw)}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("parse location %q: %w", raw, err)
	}
	switch u.Scheme {
	case "s3":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return Location{}, fmt.Errorf("s3 location %q needs a bucket and a key", raw)
		}
		return Location{Bucket: u.Host, Key: key}, nil
	case "file":
		return Location{Key: filepath.Clean(u.Path)}, nil
	default:
		return Location{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

// ObjectStore reads and writes whole objects in a bucket.
type ObjectStore interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key, contentType string, body []byte) error
}

// Storage dispatches reads and writes by location.
type Storage struct {
	objects ObjectStore
}

// New returns a Storage. objects may be nil when only local paths are used.
func New(objects ObjectStore) *Storage {
	return &Storage{objects: objects}
}

// Read returns the full contents at raw.
func (s *Storage) Read(ctx context.Context, raw string) ([]byte, error) {
	loc, err := ParseLocation(raw)
	if err != nil {
		return nil, err
	}
	if loc.IsS3() {
		if s.objects == nil {
			return nil, fmt.Errorf("read %s: object storage is not configured", loc)
		}
		return s.objects.Get(ctx, loc.Bucket, loc.Key)
	}

	data, err := os.ReadFile(loc.Key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", loc, err)
	}
	return data, nil
}

// WriteJSON writes v as indented JSON to raw.
func (s *Storage) WriteJSON(ctx context.Context, raw string, v any) error {
	loc, err := ParseLocation(raw)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling data: %w", err)
	}

	if loc.IsS3() {
		if s.objects == nil {
			return fmt.Errorf("write %s: object storage is not configured", loc)
		}
		return s.objects.Put(ctx, loc.Bucket, loc.Key, "application/json", data)
	}

	if err := os.MkdirAll(filepath.Dir(loc.Key), 0755); err != nil {
		return fmt.Errorf("write %s: %w", loc, err)
	}
	return os.WriteFile(loc.Key, data, 0644)
}

func readBody(body io.ReadCloser) ([]byte, error) {
	defer body.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
