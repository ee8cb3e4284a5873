package image

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	appconfig "github.com/storynest/core/internal/config"
	"go.uber.org/zap"
)

const (
	FolderCovers  = "storynest_covers"
	FolderAvatars = "storynest_avatars"

	// MaxUploadBytes caps multipart image uploads.
	MaxUploadBytes = 5 << 20
)

// Object describes a stored image: the public URL served to clients and the
// bucket key used to release it later.
type Object struct {
	URL string
	Key string
}

// Service uploads cover images and avatars to an S3-compatible bucket.
type Service struct {
	client *s3.Client
	cfg    appconfig.S3Config
	log    *zap.Logger
}

// New builds the storage service. It returns nil when object storage is not
// configured; callers treat a nil service as "uploads unavailable".
func New(cfg appconfig.S3Config, log *zap.Logger) *Service {
	if !cfg.Enabled() {
		return nil
	}

	awsCfg := aws.Config{
		Region:      cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Service{client: client, cfg: cfg, log: log}
}

// Upload stores an image under the given folder and returns its public URL
// and key. The key embeds a uuid so repeated filenames never collide.
func (s *Service) Upload(ctx context.Context, folder, filename, contentType string, body io.Reader) (*Object, error) {
	ext := strings.ToLower(path.Ext(filename))
	key := fmt.Sprintf("%s/%s%s", folder, uuid.New().String(), ext)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}

	return &Object{URL: s.publicURL(key), Key: key}, nil
}

// Delete releases a stored object. Missing keys are a no-op.
func (s *Service) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}

// DeleteAsync releases an object in the background, logging failures instead
// of surfacing them to the request path.
func (s *Service) DeleteAsync(key string) {
	if s == nil || key == "" {
		return
	}
	go func() {
		if err := s.Delete(context.Background(), key); err != nil {
			s.log.Warn("failed to release stored image", zap.String("key", key), zap.Error(err))
		}
	}()
}

func (s *Service) publicURL(key string) string {
	if s.cfg.CustomDomain != "" {
		return strings.TrimRight(s.cfg.CustomDomain, "/") + "/" + key
	}
	if s.cfg.Endpoint != "" {
		return strings.TrimRight(s.cfg.Endpoint, "/") + "/" + s.cfg.Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}

// IsImageContentType accepts the content types the upload endpoints allow.
func IsImageContentType(ct string) bool {
	switch {
	case strings.HasPrefix(ct, "image/jpeg"),
		strings.HasPrefix(ct, "image/png"),
		strings.HasPrefix(ct, "image/gif"),
		strings.HasPrefix(ct, "image/webp"):
		return true
	default:
		return false
	}
}
