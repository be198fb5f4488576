package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"victoria-kids-api/internal/models"
	"victoria-kids-api/internal/objectstore"
	"victoria-kids-api/internal/util"

	"go.uber.org/zap"
)

const maxUploadBytes = 5 << 20 // 5 MiB per file

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// MediaService uploads product and category images to object storage.
type MediaService struct {
	objects *objectstore.Client
	logger  *zap.Logger
}

// NewMediaService creates a new media service
func NewMediaService(objects *objectstore.Client) *MediaService {
	return &MediaService{objects: objects, logger: util.GetLogger()}
}

// UploadResult is one stored file
type UploadResult struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// UploadImage validates and stores a single image, returning its
// public URL. Only image types are accepted.
func (ms *MediaService) UploadImage(ctx context.Context, fileHeader *multipart.FileHeader, folder string) (*UploadResult, error) {
	ctx, span := util.StartSpan(ctx, "MediaService.UploadImage")
	defer span.End()

	if fileHeader.Size > maxUploadBytes {
		return nil, fmt.Errorf("file %q exceeds %d bytes: %w",
			fileHeader.Filename, int64(maxUploadBytes), models.ErrValidation)
	}

	contentType := fileHeader.Header.Get("Content-Type")
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedImageTypes[contentType] || !allowedImageExts[ext] {
		return nil, fmt.Errorf("file %q is not an accepted image type: %w",
			fileHeader.Filename, models.ErrValidation)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxUploadBytes {
		return nil, fmt.Errorf("file %q exceeds %d bytes: %w",
			fileHeader.Filename, int64(maxUploadBytes), models.ErrValidation)
	}

	if folder == "" {
		folder = "products"
	}

	url, err := ms.objects.Upload(ctx, data, fileHeader.Filename, folder, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	util.MediaUploadsTotal.Inc()
	ms.logger.Info("Image uploaded",
		zap.String("filename", fileHeader.Filename), zap.String("url", url))

	return &UploadResult{URL: url, Filename: fileHeader.Filename, Size: fileHeader.Size}, nil
}

// UploadImages stores several images in one request. The batch is
// all-or-nothing on validation: any invalid file fails the request
// before anything is stored.
func (ms *MediaService) UploadImages(ctx context.Context, fileHeaders []*multipart.FileHeader, folder string) ([]UploadResult, error) {
	if len(fileHeaders) == 0 {
		return nil, fmt.Errorf("no files supplied: %w", models.ErrValidation)
	}

	for _, fh := range fileHeaders {
		contentType := fh.Header.Get("Content-Type")
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if fh.Size > maxUploadBytes || !allowedImageTypes[contentType] || !allowedImageExts[ext] {
			return nil, fmt.Errorf("file %q rejected: %w", fh.Filename, models.ErrValidation)
		}
	}

	results := make([]UploadResult, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		res, err := ms.UploadImage(ctx, fh, folder)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, nil
}

// DeleteImage removes a stored image by its public URL
func (ms *MediaService) DeleteImage(ctx context.Context, publicURL string) error {
	if publicURL == "" {
		return fmt.Errorf("url required: %w", models.ErrValidation)
	}
	return ms.objects.Remove(ctx, publicURL)
}
