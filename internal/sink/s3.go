package sink

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3Options struct {
	Bucket          string
	Region          string
	Endpoint        string
	PathStyle       bool
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
}

// Uploader is the part of the s3 client used to upload run output.
type Uploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

func NewS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				opts.AccessKeyID,
				opts.SecretAccessKey,
				"",
			),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.PathStyle
	}), nil
}

// ObjectKey is where the output of a run is uploaded.
func ObjectKey(prefix, runId string, startedAt time.Time) string {
	startedAt = startedAt.UTC()
	key := path.Join(
		strings.Trim(prefix, "/"),
		fmt.Sprintf("date=%s", startedAt.Format("2006-01-02")),
		fmt.Sprintf("%s_%s.jsonl", startedAt.Format("20060102150405"), runId),
	)
	return strings.TrimPrefix(key, "/")
}

// S3 buffers the json lines of a run and uploads them as one object when closed.
type S3 struct {
	Buffer
	client Uploader
	bucket string
	key    string
}

func NewS3(client Uploader, bucket, key string, encode Encoder) *S3 {
	return &S3{
		Buffer: NewBuffer(encode),
		client: client,
		bucket: bucket,
		key:    key,
	}
}

func (s *S3) Key() string {
	return s.key
}

func (s *S3) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(s.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
		Metadata: map[string]string{
			"content-type": "jsonl",
		},
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", s.key, err)
	}
	return nil
}
