package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"victoria-kids-api/internal/models"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Client uploads media to an S3-compatible object store and returns
// public URLs.
type Client struct {
	mc        *minio.Client
	bucket    string
	publicURL string
}

// NewClient connects to the object store and ensures the bucket exists
func NewClient(endpoint, accessKey, secretKey, bucket, publicURL string, useSSL bool) (*Client, error) {
	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := mc.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := mc.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	if publicURL == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, endpoint, bucket)
	}

	return &Client{mc: mc, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

// Upload stores a file under folder with a generated name and returns
// its public URL
func (c *Client) Upload(ctx context.Context, data []byte, originalFilename, folder, contentType string) (string, error) {
	ext := filepath.Ext(originalFilename)
	objectName := fmt.Sprintf("%s/%d_%s%s", folder, time.Now().UnixMilli(), uuid.New().String()[:12], ext)

	_, err := c.mc.PutObject(ctx, c.bucket, objectName, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w: %v", objectName, models.ErrUpstream, err)
	}

	return c.publicURL + "/" + objectName, nil
}

// Remove deletes an object given the public URL Upload returned
func (c *Client) Remove(ctx context.Context, publicURL string) error {
	objectName := strings.TrimPrefix(publicURL, c.publicURL+"/")
	if objectName == publicURL {
		return fmt.Errorf("url %s is not managed by this store", publicURL)
	}
	if err := c.mc.RemoveObject(ctx, c.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s: %w: %v", objectName, models.ErrUpstream, err)
	}
	return nil
}
