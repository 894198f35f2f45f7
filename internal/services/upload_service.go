package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxUploadBytes = 5 << 20

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type UploadService interface {
	SaveImage(ctx context.Context, dataURL string) (string, error)
}

type uploadService struct {
	dir     string
	baseURL string
	logger  *zap.Logger
}

func NewUploadService(dir, baseURL string, logger *zap.Logger) UploadService {
	return &uploadService{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), logger: logger}
}

// SaveImage stores a base64 data URL under a random name and returns the
// public URL it is served from.
func (s *uploadService) SaveImage(ctx context.Context, dataURL string) (string, error) {
	header, payload, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return "", ValidationErrors{"image": "Image must be a base64 data URL"}
	}
	mime := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	ext, ok := imageExtensions[mime]
	if !ok {
		return "", ValidationErrors{"image": "Only JPEG, PNG, WebP and GIF images are allowed"}
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > maxUploadBytes {
		return "", ValidationErrors{"image": "Image must not exceed 5MB"}
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", ValidationErrors{"image": "Image data is not valid base64"}
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}
	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	s.logger.Info("image uploaded", zap.String("file", name), zap.Int("bytes", len(data)))
	return s.baseURL + "/uploads/" + name, nil
}
