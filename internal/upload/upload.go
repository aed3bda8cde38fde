package upload

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Skotchmaster/course_market/internal/config"
)

type Ticket struct {
	URL string `json:"uploadUrl"`
	Key string `json:"fileKey"`
}

// Issuer hands out a URL the client uploads a file to, and the key the file
// is stored under.
type Issuer interface {
	Issue(ctx context.Context, name, kind string) (Ticket, error)
}

type S3Issuer struct {
	presign *s3.PresignClient
	bucket  string
	ttl     time.Duration
}

func NewS3Issuer(ctx context.Context, cfg config.S3Config) (*S3Issuer, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	ttl := cfg.URLTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &S3Issuer{presign: s3.NewPresignClient(client), bucket: cfg.Bucket, ttl: ttl}, nil
}

func (i *S3Issuer) Issue(ctx context.Context, name, kind string) (Ticket, error) {
	key := objectKey(name, kind)
	req, err := i.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(i.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(i.ttl))
	if err != nil {
		return Ticket{}, fmt.Errorf("presign %s: %w", key, err)
	}
	return Ticket{URL: req.URL, Key: key}, nil
}

func objectKey(name, kind string) string {
	return fmt.Sprintf("%ss/%d-%s", kind, time.Now().UTC().UnixNano(), name)
}

// Static issues placeholder URLs for environments without object storage.
type Static struct {
	BaseURL string
}

func (s Static) Issue(_ context.Context, name, _ string) (Ticket, error) {
	base := s.BaseURL
	if base == "" {
		base = "https://dummy-upload-url.com"
	}
	return Ticket{URL: base + "/" + name, Key: "dummy-file-key/" + name}, nil
}
