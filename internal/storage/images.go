package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxImageSize is the largest product image the admin API accepts.
const MaxImageSize int64 = 2 << 20

var AllowedImageTypes = []string{"image/jpeg", "image/png", "image/gif"}

var (
	ErrImageTooLarge   = errors.New("image exceeds maximum size")
	ErrImageType       = errors.New("image type is not allowed")
	ErrNoObjectStorage = errors.New("s3 images are not configured")
)

// Image is an image file ready to be uploaded.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ObjectFetcher reads objects from a bucket.
type ObjectFetcher interface {
	FetchObject(ctx context.Context, bucket, key string, limit int64) ([]byte, error)
}

// ImageLoader opens product images given as local paths or s3://bucket/key.
type ImageLoader struct {
	objects ObjectFetcher
	maxSize int64
}

// NewImageLoader returns a loader. objects may be nil when only local files
// are used.
func NewImageLoader(objects ObjectFetcher) *ImageLoader {
	return &ImageLoader{objects: objects, maxSize: MaxImageSize}
}

func (l *ImageLoader) Load(ctx context.Context, ref string) (*Image, error) {
	var data []byte
	var filename string
	var err error

	if strings.HasPrefix(ref, "s3://") {
		bucket, key, ok := strings.Cut(strings.TrimPrefix(ref, "s3://"), "/")
		if !ok || bucket == "" || key == "" {
			return nil, fmt.Errorf("invalid s3 reference %q", ref)
		}
		if l.objects == nil {
			return nil, ErrNoObjectStorage
		}
		data, err = l.objects.FetchObject(ctx, bucket, key, l.maxSize)
		filename = path.Base(key)
	} else {
		data, err = readLimited(ref, l.maxSize)
		filename = filepath.Base(ref)
	}
	if err != nil {
		return nil, err
	}

	if err := ValidateFileSize(int64(len(data)), l.maxSize); err != nil {
		return nil, fmt.Errorf("%s: %w", ref, err)
	}

	contentType := mimetype.Detect(data).String()
	if err := ValidateContentType(contentType, AllowedImageTypes); err != nil {
		return nil, fmt.Errorf("%s: %w", ref, err)
	}

	return &Image{Filename: filename, ContentType: contentType, Data: data}, nil
}

func readLimited(name string, limit int64) ([]byte, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}

// ValidateFileSize validates the file size
func ValidateFileSize(size int64, maxSize int64) error {
	if size > maxSize {
		return fmt.Errorf("%w: limit is %d bytes", ErrImageTooLarge, maxSize)
	}
	return nil
}

// ValidateContentType validates the content type
func ValidateContentType(contentType string, allowedTypes []string) error {
	for _, allowed := range allowedTypes {
		if contentType == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrImageType, contentType)
}
