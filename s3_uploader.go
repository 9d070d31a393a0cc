package capture

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// CloudUploader stores a file durably and returns a link to it.
type CloudUploader interface {
	Upload(ctx context.Context, path string, folderID string) (string, error)
}

type S3Config struct {
	// Endpoint is set for S3 compatible stores such as MinIO; empty means AWS.
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	FolderID        string
	PublicBaseURL   string
	PublicRead      bool
	CreateBucket    bool
	MaxAttempts     int
}

func DefaultS3Config() S3Config {
	return S3Config{
		Region:      "us-east-1",
		Bucket:      "vehicle-captures",
		FolderID:    "captures",
		MaxAttempts: 3,
	}
}

type S3Uploader struct {
	cfg S3Config

	once      sync.Once
	client    *s3.Client
	clientErr error
}

func NewS3Uploader(cfg S3Config) *S3Uploader {
	return &S3Uploader{cfg: cfg}
}

// s3Client builds the client on first use. It never changes afterwards.
func (u *S3Uploader) s3Client() (*s3.Client, error) {
	u.once.Do(func() {
		opts := []func(*config.LoadOptions) error{config.WithRegion(u.cfg.Region)}
		if u.cfg.AccessKeyID != "" {
			opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				u.cfg.AccessKeyID,
				u.cfg.SecretAccessKey,
				"",
			)))
		}
		awsCfg, err := config.LoadDefaultConfig(context.Background(), opts...)
		if err != nil {
			u.clientErr = errors.Wrap(err, "load aws config")
			return
		}
		u.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if u.cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(u.cfg.Endpoint)
				o.UsePathStyle = true
			}
			if u.cfg.MaxAttempts > 0 {
				o.RetryMaxAttempts = u.cfg.MaxAttempts
			}
		})
	})
	return u.client, u.clientErr
}

// EnsureBucket creates the configured bucket when it does not exist yet.
func (u *S3Uploader) EnsureBucket(ctx context.Context) error {
	client, err := u.s3Client()
	if err != nil {
		return err
	}
	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(u.cfg.Bucket)})
	if err == nil {
		log.Info().Str("component", "CAPTURE_S3").Str("bucket", u.cfg.Bucket).Msg("bucket already exists")
		return nil
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(u.cfg.Bucket)}
	// us-east-1 rejects an explicit location constraint
	if u.cfg.Region != "" && u.cfg.Region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(u.cfg.Region),
		}
	}
	if _, err := client.CreateBucket(ctx, input); err != nil {
		return errors.Wrapf(err, "create bucket %s", u.cfg.Bucket)
	}
	log.Info().Str("component", "CAPTURE_S3").Str("bucket", u.cfg.Bucket).Msg("bucket created")
	return nil
}

func (u *S3Uploader) Upload(ctx context.Context, path string, folderID string) (string, error) {
	client, err := u.s3Client()
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "open upload file")
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return "", errors.Wrap(err, "stat upload file")
	}

	key := objectKey(folderID, filepath.Base(path))
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	input := &s3.PutObjectInput{
		Bucket:        aws.String(u.cfg.Bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(fi.Size()),
	}
	if u.cfg.PublicRead {
		input.ACL = types.ObjectCannedACLPublicRead
	}
	if _, err := client.PutObject(ctx, input); err != nil {
		return "", errors.Wrapf(err, "put object %s", key)
	}

	link := u.PublicLink(key)
	log.Info().Str("component", "CAPTURE_S3").Str("key", key).Int64("size", fi.Size()).
		Str("link", link).Msg("file uploaded")
	return link, nil
}

// PublicLink is the address the object under key can be fetched from.
func (u *S3Uploader) PublicLink(key string) string {
	escaped := escapeObjectKey(key)
	switch {
	case u.cfg.PublicBaseURL != "":
		return strings.TrimRight(u.cfg.PublicBaseURL, "/") + "/" + escaped
	case u.cfg.Endpoint != "":
		return strings.TrimRight(u.cfg.Endpoint, "/") + "/" + url.PathEscape(u.cfg.Bucket) + "/" + escaped
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.cfg.Bucket, u.cfg.Region, escaped)
}

func objectKey(folderID, name string) string {
	folderID = strings.Trim(folderID, "/")
	if folderID == "" {
		return name
	}
	return folderID + "/" + name
}

func escapeObjectKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
