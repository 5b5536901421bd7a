// Package upload pushes finished recordings to S3-compatible storage.
package upload

import (
	"context"
	"fmt"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config describes the target bucket. Upload is skipped unless Enabled.
type Config struct {
	Endpoint       string `toml:"endpoint"`
	Bucket         string `toml:"bucket"`
	Region         string `toml:"region"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	SessionToken   string `toml:"session_token"`
	Prefix         string `toml:"prefix"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// Enabled requires endpoint, bucket and both keys.
func (c Config) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// ObjectName builds the object key for a recording: <prefix>/<key>/<file>.
func (c Config) ObjectName(key, localPath string) string {
	parts := []string{}
	if p := strings.Trim(c.Prefix, "/"); p != "" {
		parts = append(parts, p)
	}
	if key != "" {
		parts = append(parts, key)
	}
	parts = append(parts, filepath.Base(localPath))
	return path.Join(parts...)
}

// ContentType maps a recording extension to its MIME type.
func ContentType(localPath string) string {
	ext := strings.ToLower(filepath.Ext(localPath))
	switch ext {
	case ".webm":
		return "audio/webm"
	case ".ogg", ".opus":
		return "audio/ogg"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

type S3 struct {
	cfg    Config
	client *minio.Client
}

func NewS3(cfg Config) (*S3, error) {
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, cfg.SessionToken),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}
	if cfg.ForcePathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}
	client, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &S3{cfg: cfg, client: client}, nil
}

// Upload puts localPath into the bucket under key and returns its s3:// URL.
// The bucket is created when missing.
func (s *S3) Upload(ctx context.Context, localPath, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return "", fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return "", fmt.Errorf("create bucket: %w", err)
		}
	}

	object := s.cfg.ObjectName(key, localPath)
	_, err = s.client.FPutObject(ctx, s.cfg.Bucket, object, localPath, minio.PutObjectOptions{
		ContentType: ContentType(localPath),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filepath.Base(localPath), err)
	}
	return fmt.Sprintf("s3://%s/%s", s.cfg.Bucket, object), nil
}
