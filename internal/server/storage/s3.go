// Package storage keeps post images in an S3-compatible bucket. Clients
// upload directly with a presigned URL; the server only signs URLs and
// removes objects whose post is gone.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/postbox/internal/server/models"
	"github.com/google/uuid"
)

// PresignExpiry is the lifetime of presigned URLs.
const PresignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput) error {
		_, err := c.DeleteObject(ctx, in)
		return err
	}
)

// Config holds the bucket location and static credentials.
type Config struct {
	Region       string
	User         string
	Password     string
	BaseEndpoint string
	Bucket       string
}

type S3Store struct {
	cfg Config
	now func() time.Time
}

func NewS3Store(cfg Config) *S3Store {
	return &S3Store{cfg: cfg, now: time.Now}
}

// NewKey returns a fresh object key of the form
// posts/<userID>/YYYY/M/D/<uuid>.
func (s *S3Store) NewKey(userID string) string {
	d := s.now()
	return fmt.Sprintf("%s%d/%d/%d/%v", models.ImageKeyPrefix(userID), d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *S3Store) client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.cfg.User,
			s.cfg.Password,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("error loading s3 config: %w", err)
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// PresignPut returns a new object key under the user's prefix and a URL
// the client can PUT the image to.
func (s *S3Store) PresignPut(ctx context.Context, userID string) (string, string, error) {
	client, err := s.client(ctx)
	if err != nil {
		return "", "", err
	}

	bucket := s.cfg.Bucket
	key := s.NewKey(userID)

	req, err := presignPutObject(newS3PresignClient(client), ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", "", fmt.Errorf("error presigning put: %w", err)
	}

	return key, req.URL, nil
}

// PresignGet returns a download URL for key.
func (s *S3Store) PresignGet(ctx context.Context, key string) (string, error) {
	client, err := s.client(ctx)
	if err != nil {
		return "", err
	}

	bucket := s.cfg.Bucket

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", fmt.Errorf("error presigning get: %w", err)
	}

	return req.URL, nil
}

// Remove deletes the object stored under key. An empty key is a no-op.
func (s *S3Store) Remove(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	client, err := s.client(ctx)
	if err != nil {
		return err
	}

	bucket := s.cfg.Bucket
	if err := deleteObject(client, ctx, &s3.DeleteObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}); err != nil {
		return fmt.Errorf("error deleting object %s: %w", key, err)
	}

	return nil
}
