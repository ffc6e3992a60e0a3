package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		raw     string
		want    Location
		wantErr bool
	}{
		{raw: "s3://attr-imports/2026/directory.yaml", want: Location{Bucket: "attr-imports", Key: "2026/directory.yaml"}},
		{raw: "file:///tmp/dir.json", want: Location{Key: "/tmp/dir.json"}},
		{raw: "./testdata/../dir.yaml", want: Location{Key: "dir.yaml"}},
		{raw: "s3://bucket-only", wantErr: true},
		{raw: "gs://bucket/key", wantErr: true},
		{raw: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseLocation(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLocationUnsupportedScheme(t *testing.T) {
	_, err := ParseLocation("ftp://host/file")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}

func TestLocalReadWrite(t *testing.T) {
	s := New(nil)
	path := filepath.Join(t.TempDir(), "reports", "run.json")

	require.NoError(t, s.WriteJSON(context.Background(), path, map[string]int{"accepted": 3}))
	data, err := s.Read(context.Background(), path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"accepted": 3}`, string(data))

	_, err = s.Read(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestS3WithoutObjectStore(t *testing.T) {
	s := New(nil)
	_, err := s.Read(context.Background(), "s3://bucket/key.yaml")
	assert.Error(t, err)
}

// fakeS3 keeps objects in memory.
type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	k := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[k] = data
	f.types[k] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func TestS3ReadWrite(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	s := New(NewS3StoreWithClient(fake))
	ctx := context.Background()

	require.NoError(t, s.WriteJSON(ctx, "s3://attr/reports/run.json", []string{"ok"}))
	assert.Equal(t, "application/json", fake.types["attr/reports/run.json"])

	data, err := s.Read(ctx, "s3://attr/reports/run.json")
	require.NoError(t, err)
	assert.JSONEq(t, `["ok"]`, string(data))

	_, err = s.Read(ctx, "s3://attr/missing.json")
	assert.Error(t, err)
}
