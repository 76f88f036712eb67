package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/USA-RedDragon/germ-rpctest/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type Manager interface {
	Open(name string) (File, error)
	Create(name string) (File, error)
	MkdirAll(name string, perm fs.FileMode) error
	Remove(name string) error
}

type File interface {
	io.ReadCloser
	io.Writer
}

type Storage interface {
	Manager
	Close() error
}

// NewStorage opens the report destination selected by the configuration.
func NewStorage(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.Report.Driver {
	case config.ReportDriverFilesystem:
		root := cfg.Report.Directory
		err := os.MkdirAll(root, 0755)
		if err != nil {
			return nil, fmt.Errorf("failed to create report directory: %w", err)
		}
		return newFilesystem(root)
	case config.ReportDriverS3:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Report.S3.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.UsePathStyle = true
			if cfg.Report.S3.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Report.S3.Endpoint)
			}
		})
		return newS3(cfg.Report.S3.Bucket, cfg.Report.S3.Prefix, client), nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Report.Driver)
	}
}
