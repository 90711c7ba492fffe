// Package s3mirror copies finished table logs to an S3-compatible bucket in the background.
package s3mirror

import (
	"context"
	"fmt"
	"os"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional; MinIO, R2 and other S3-compatible stores
	AccessKeyID     string // optional; falls back to the default credentials chain
	SecretAccessKey string
	PathStyle       bool
}

// ConfigFromEnv reads EST8_S3_* variables. An empty Bucket means mirroring is off.
func ConfigFromEnv() Config {
	return Config{
		Bucket:          os.Getenv("EST8_S3_BUCKET"),
		Region:          os.Getenv("EST8_S3_REGION"),
		Endpoint:        os.Getenv("EST8_S3_ENDPOINT"),
		AccessKeyID:     os.Getenv("EST8_S3_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("EST8_S3_SECRET_ACCESS_KEY"),
		PathStyle:       strings.EqualFold(os.Getenv("EST8_S3_PATH_STYLE"), "true"),
	}
}

// PutObjectAPI is the slice of *s3.Client the mirror uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

func NewClient(ctx context.Context, cfg Config, optFns ...func(*s3.Options)) (*s3.Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	opts := append([]func(*s3.Options){func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}}, optFns...)
	return s3.NewFromConfig(awsCfg, opts...), nil
}
