package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dmitrijs2005/reconkeeper/internal/netx"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// s3API is the subset of *s3.Client used here.
type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListMultipartUploads(ctx context.Context, in *s3.ListMultipartUploadsInput, optFns ...func(*s3.Options)) (*s3.ListMultipartUploadsOutput, error)
	AbortMultipartUpload(ctx context.Context, in *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error)
}

// S3Config addresses a bucket on AWS or an S3-compatible store.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Timeout   time.Duration
}

// MultipartUpload is an in-progress multipart session reported by the store.
type MultipartUpload struct {
	Key       string
	UploadID  string
	Initiated time.Time
}

// S3Store talks to the bucket with SDK credentials.
type S3Store struct {
	api     s3API
	bucket  string
	timeout time.Duration
}

// NewS3Store builds an S3 client. Static credentials are used when both
// keys are set, the SDK default chain otherwise.
func NewS3Store(ctx context.Context, c S3Config) (*S3Store, error) {
	if c.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(c.Region)}
	if c.AccessKey != "" && c.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Store(client, c.Bucket, c.Timeout), nil
}

func newS3Store(api s3API, bucket string, timeout time.Duration) *S3Store {
	return &S3Store{api: api, bucket: bucket, timeout: timeout}
}

func (s *S3Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *S3Store) Get(ctx context.Context, key string) (*netx.Blob, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, mapS3Error(err))
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	return &netx.Blob{Data: data, ContentType: aws.ToString(out.ContentType)}, nil
}

// AbortMultipartUpload discards a multipart session and every part stored
// under it.
func (s *S3Store) AbortMultipartUpload(ctx context.Context, key, uploadID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.api.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	if err != nil {
		return fmt.Errorf("abort %s (%s): %w", key, uploadID, mapS3Error(err))
	}
	return nil
}

// ListMultipartUploads returns every in-progress session under prefix,
// following pagination markers.
func (s *S3Store) ListMultipartUploads(ctx context.Context, prefix string) ([]MultipartUpload, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	in := &s3.ListMultipartUploadsInput{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	}

	var result []MultipartUpload
	for {
		out, err := s.api.ListMultipartUploads(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("list multipart uploads %q: %w", prefix, mapS3Error(err))
		}

		for _, u := range out.Uploads {
			result = append(result, MultipartUpload{
				Key:       aws.ToString(u.Key),
				UploadID:  aws.ToString(u.UploadId),
				Initiated: aws.ToTime(u.Initiated),
			})
		}

		if !aws.ToBool(out.IsTruncated) {
			break
		}
		in.KeyMarker = out.NextKeyMarker
		in.UploadIdMarker = out.NextUploadIdMarker
	}

	return result, nil
}

func mapS3Error(err error) error {
	var nsk *types.NoSuchKey
	var nsu *types.NoSuchUpload
	if errors.As(err, &nsk) || errors.As(err, &nsu) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	var re *awshttp.ResponseError
	if errors.As(err, &re) && re.HTTPStatusCode() == 404 {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}
