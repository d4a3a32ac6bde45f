package utils

import (
	"errors"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const maxThumbnailBytes = 2 << 20

var (
	ErrUnsupportedImage = errors.New("thumbnail must be a .jpg, .jpeg, .png or .webp image")
	ErrImageTooLarge    = errors.New("thumbnail must be 2MB or smaller")
)

var thumbnailExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// SaveThumbnail stores an uploaded course image under destDir with a random
// name and returns the stored path.
func SaveThumbnail(file *multipart.FileHeader, destDir string) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !thumbnailExts[ext] {
		return "", ErrUnsupportedImage
	}
	if file.Size > maxThumbnailBytes {
		return "", ErrImageTooLarge
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", err
	}

	filePath := filepath.Join(destDir, uuid.NewString()+ext)
	dst, err := os.Create(filePath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(src, maxThumbnailBytes)); err != nil {
		return "", err
	}
	return filePath, nil
}

// GetFileURL maps a stored path to the URL served by the static /uploads route.
func GetFileURL(filePath string) string {
	if filePath == "" {
		return ""
	}
	return "/uploads/" + filepath.Base(filePath)
}
