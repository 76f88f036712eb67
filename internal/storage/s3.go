package storage

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"log/slog"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3API is the part of *s3.Client the storage uses.
type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3 struct {
	root   string
	bucket string
	client s3API
}

// S3File buffers writes and uploads them as one object on Close.
type S3File struct {
	key        string
	body       io.ReadCloser
	buffer     bytes.Buffer
	hasWritten bool
	storage    *S3
}

func (f *S3File) Read(p []byte) (int, error) {
	if f.body == nil {
		return 0, io.EOF
	}
	return f.body.Read(p)
}

func (f *S3File) Write(p []byte) (int, error) {
	f.hasWritten = true
	return f.buffer.Write(p)
}

func (f *S3File) Close() error {
	if f.body != nil {
		if err := f.body.Close(); err != nil {
			return err
		}
	}
	if !f.hasWritten {
		return nil
	}
	_, err := f.storage.client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket: aws.String(f.storage.bucket),
		Key:    aws.String(f.key),
		Body:   bytes.NewReader(f.buffer.Bytes()),
	})
	return err
}

func newS3(bucket, root string, client s3API) *S3 {
	return &S3{
		bucket: bucket,
		root:   root,
		client: client,
	}
}

func (s *S3) key(name string) string {
	return path.Join(s.root, name)
}

func (s *S3) Close() error {
	return nil
}

func (s *S3) Open(name string) (File, error) {
	res, err := s.client.GetObject(context.TODO(), &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		slog.Error("Failed to open object", "bucket", s.bucket, "key", s.key(name), "error", err)
		return nil, err
	}
	return &S3File{body: res.Body, storage: s, key: s.key(name)}, nil
}

func (s *S3) Create(name string) (File, error) {
	return &S3File{storage: s, key: s.key(name)}, nil
}

// MkdirAll is a no-op, S3 has no directories.
func (s *S3) MkdirAll(string, fs.FileMode) error {
	return nil
}

func (s *S3) Remove(name string) error {
	_, err := s.client.DeleteObject(context.TODO(), &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	return err
}
