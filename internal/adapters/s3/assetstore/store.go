// Package assetstore stores profile photos in an S3 compatible bucket.
package assetstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/assetstore"
)

// DefaultURLExpiry is the lifetime of presigned photo URLs.
const DefaultURLExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type Config struct {
	Bucket   string
	Region   string
	Endpoint string
	// AccessKeyID and SecretAccessKey are optional; without them the default AWS chain applies.
	AccessKeyID     string
	SecretAccessKey string
	// PublicBaseURL, when set, is used instead of presigned URLs.
	PublicBaseURL string
	URLExpiry     time.Duration
	UsePathStyle  bool
}

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type presignAPI interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Store is an assetstore.Store backed by S3. Paths are object keys.
type Store struct {
	cfg     Config
	objects objectAPI
	presign presignAPI
}

// New builds the S3 client from cfg.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 assetstore: bucket is required")
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	}
	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3 assetstore: load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return newStore(cfg, client, s3.NewPresignClient(client)), nil
}

func newStore(cfg Config, objects objectAPI, presign presignAPI) *Store {
	if cfg.URLExpiry <= 0 {
		cfg.URLExpiry = DefaultURLExpiry
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return &Store{cfg: cfg, objects: objects, presign: presign}
}

func (s *Store) Put(ctx context.Context, obj assetstore.Object) (string, error) {
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(obj.Key),
		Body:   obj.Body,
	}
	if obj.ContentType != "" {
		in.ContentType = aws.String(obj.ContentType)
	}
	if obj.Size > 0 {
		in.ContentLength = aws.Int64(obj.Size)
	}
	if _, err := s.objects.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("s3 put %s: %w", obj.Key, err)
	}
	return obj.Key, nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	_, err := s.objects.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", path, err)
	}
	return nil
}

// URL returns a public URL when PublicBaseURL is configured, otherwise a presigned GET.
func (s *Store) URL(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "", assetstore.ErrNotFound
	}
	if s.cfg.PublicBaseURL != "" {
		return s.cfg.PublicBaseURL + "/" + url.PathEscape(path), nil
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(path),
	}, s3.WithPresignExpires(s.cfg.URLExpiry))
	if err != nil {
		return "", fmt.Errorf("s3 presign %s: %w", path, err)
	}
	return req.URL, nil
}
