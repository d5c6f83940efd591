// Package media offloads uploaded images to S3-compatible object storage.
// Clients submit images as base64 data URLs; when storage is configured the
// bytes are moved out of the document store and replaced with an object URL.
package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MaxImageBytes caps a single decoded upload.
const MaxImageBytes = 10 << 20

var ErrTooLarge = errors.New("image exceeds size limit")

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type Service struct {
	config Config
	client *minio.Client
}

// NewService connects to object storage and ensures the bucket exists.
// Returns a disabled service when no endpoint is configured.
func NewService(ctx context.Context, config Config) (*Service, error) {
	if config.Endpoint == "" {
		return &Service{config: config}, nil
	}

	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object storage: %w", err)
	}

	exists, err := client.BucketExists(ctx, config.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", config.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, config.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", config.Bucket, err)
		}
	}

	return &Service{config: config, client: client}, nil
}

// IsConfigured reports whether object storage is available.
func (s *Service) IsConfigured() bool {
	return s.client != nil
}

// StoreImage takes a base64 data URL and, when storage is configured, uploads
// the decoded bytes and returns the object URL. Unconfigured services return
// the input unchanged so images stay inline in the document store.
func (s *Service) StoreImage(ctx context.Context, dataURL string) (string, error) {
	if !s.IsConfigured() || dataURL == "" || !strings.HasPrefix(dataURL, "data:") {
		return dataURL, nil
	}

	contentType, raw, err := splitDataURL(dataURL)
	if err != nil {
		return "", err
	}
	if len(raw) > MaxImageBytes {
		return "", ErrTooLarge
	}

	name := uuid.NewString() + extensionFor(contentType)
	_, err = s.client.PutObject(ctx, s.config.Bucket, name, bytes.NewReader(raw), int64(len(raw)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}

	scheme := "http"
	if s.config.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.config.Endpoint, s.config.Bucket, name), nil
}

// RemoveImage deletes a previously stored object. Inline or external images
// are left alone.
func (s *Service) RemoveImage(ctx context.Context, imageURL string) {
	if !s.IsConfigured() {
		return
	}
	marker := "/" + s.config.Bucket + "/"
	i := strings.Index(imageURL, marker)
	if i < 0 {
		return
	}
	name := imageURL[i+len(marker):]
	if err := s.client.RemoveObject(ctx, s.config.Bucket, name, minio.RemoveObjectOptions{}); err != nil {
		log.Printf("media: remove object %s: %v", name, err)
	}
}

func splitDataURL(dataURL string) (contentType string, raw []byte, err error) {
	rest := strings.TrimPrefix(dataURL, "data:")
	meta, payload, found := strings.Cut(rest, ",")
	if !found {
		return "", nil, errors.New("malformed data url")
	}

	contentType = strings.TrimSuffix(meta, ";base64")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if strings.HasSuffix(meta, ";base64") {
		raw, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, fmt.Errorf("decode image: %w", err)
		}
	} else {
		raw = []byte(payload)
	}
	return contentType, raw, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
