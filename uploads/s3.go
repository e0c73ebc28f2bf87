package uploads

import (
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config configures an S3 (or S3 compatible, eg MinIO) bucket
type S3Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string

	// PublicURL is prefixed to object keys to build image URLs.  Defaults to
	// the bucket's path on Endpoint.
	PublicURL string
}

// S3 stores uploads as objects in a bucket
type S3 struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

func NewS3(ctx context.Context, c S3Config) (*S3, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(c.Region)}
	if c.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := c.PublicURL
	if publicURL == "" {
		if c.Endpoint != "" {
			publicURL = strings.TrimSuffix(c.Endpoint, "/") + "/" + c.Bucket
		} else {
			publicURL = "https://" + c.Bucket + ".s3." + c.Region + ".amazonaws.com"
		}
	}
	return &S3{client: client, bucket: c.Bucket, publicURL: strings.TrimSuffix(publicURL, "/")}, nil
}

func (s *S3) Save(ctx context.Context, key string, contentType string, body io.Reader, size int64) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", err
	}
	return s.publicURL + "/" + key, nil
}
