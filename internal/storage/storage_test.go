package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/USA-RedDragon/germ-rpctest/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const report = "=== RUN   block_count\n--- PASS: block_count (0.01s)\n"

func TestFilesystemReport(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfg := &config.Config{Report: config.Report{Driver: config.ReportDriverFilesystem, Directory: filepath.Join(dir, "reports")}}

	s, err := NewStorage(context.Background(), cfg)
	require.NoError(t, err)
	defer s.Close()

	name, err := WriteReport(s, "nightly/rpc_test.txt", []byte(report), false)
	require.NoError(t, err)
	assert.Equal(t, "nightly/rpc_test.txt", name)

	data, err := os.ReadFile(filepath.Join(dir, "reports", "nightly", "rpc_test.txt"))
	require.NoError(t, err)
	assert.Equal(t, report, string(data))

	data, err = ReadReport(s, name)
	require.NoError(t, err)
	assert.Equal(t, report, string(data))

	require.NoError(t, s.Remove(name))
	_, err = s.Open(name)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFilesystemStaysInRoot(t *testing.T) {
	t.Parallel()
	s, err := newFilesystem(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Create("../escape.txt")
	assert.Error(t, err)
}

func TestCompressedReport(t *testing.T) {
	t.Parallel()
	s, err := newFilesystem(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	body := strings.Repeat(report, 100)
	name, err := WriteReport(s, "rpc_test.txt", []byte(body), true)
	require.NoError(t, err)
	assert.Equal(t, "rpc_test.txt.zst", name)

	f, err := s.Open(name)
	require.NoError(t, err)
	raw, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Less(t, len(raw), len(body))

	data, err := ReadReport(s, name)
	require.NoError(t, err)
	assert.Equal(t, body, string(data))
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, os.ErrNotExist
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Report(t *testing.T) {
	t.Parallel()
	fake := &fakeS3{objects: map[string][]byte{}}
	s := newS3("reports", "germ", fake)

	name, err := WriteReport(s, "rpc_test.txt", []byte(report), true)
	require.NoError(t, err)
	assert.Contains(t, fake.objects, "reports/germ/rpc_test.txt.zst")

	data, err := ReadReport(s, name)
	require.NoError(t, err)
	assert.Equal(t, report, string(data))

	_, err = WriteReport(s, "nightly/rpc_test.txt", []byte(report), false)
	require.NoError(t, err)
	assert.Equal(t, []byte(report), fake.objects["reports/germ/nightly/rpc_test.txt"])

	require.NoError(t, s.Remove(name))
	assert.NotContains(t, fake.objects, "reports/germ/rpc_test.txt.zst")
}

func TestS3CreateWithoutWrite(t *testing.T) {
	t.Parallel()
	fake := &fakeS3{objects: map[string][]byte{}}
	s := newS3("reports", "", fake)

	f, err := s.Create("empty.txt")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Empty(t, fake.objects)
}

func TestUnknownDriver(t *testing.T) {
	t.Parallel()
	_, err := NewStorage(context.Background(), &config.Config{Report: config.Report{Driver: "ftp"}})
	assert.Error(t, err)
}
