package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	gifHeader  = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00")
	jpegHeader = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")
)

type fakeObjects struct {
	objects map[string][]byte
	calls   []string
}

func (f *fakeObjects) FetchObject(ctx context.Context, bucket, key string, limit int64) ([]byte, error) {
	f.calls = append(f.calls, bucket+"/"+key)
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func setupImageTest(t *testing.T) string {
	dir := t.TempDir()
	return dir
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

func TestImageLoader_LocalFiles(t *testing.T) {
	dir := setupImageTest(t)
	loader := NewImageLoader(nil)

	tests := []struct {
		name        string
		data        []byte
		contentType string
	}{
		{"cover.png", pngHeader, "image/png"},
		{"anim.gif", gifHeader, "image/gif"},
		{"photo.jpg", jpegHeader, "image/jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := loader.Load(context.Background(), writeFile(t, dir, tt.name, tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.name, img.Filename)
			assert.Equal(t, tt.contentType, img.ContentType)
			assert.Equal(t, tt.data, img.Data)
		})
	}
}

func TestImageLoader_RejectsOtherTypes(t *testing.T) {
	dir := setupImageTest(t)
	loader := NewImageLoader(nil)

	_, err := loader.Load(context.Background(), writeFile(t, dir, "notes.png", []byte("just some text")))
	assert.ErrorIs(t, err, ErrImageType)
}

func TestImageLoader_RejectsLargeFiles(t *testing.T) {
	dir := setupImageTest(t)
	loader := NewImageLoader(nil)

	big := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, int(MaxImageSize))...)
	_, err := loader.Load(context.Background(), writeFile(t, dir, "big.png", big))
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestImageLoader_MissingFile(t *testing.T) {
	loader := NewImageLoader(nil)

	_, err := loader.Load(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestImageLoader_S3(t *testing.T) {
	objects := &fakeObjects{objects: map[string][]byte{
		"media/products/cover.png": pngHeader,
	}}
	loader := NewImageLoader(objects)

	img, err := loader.Load(context.Background(), "s3://media/products/cover.png")
	require.NoError(t, err)
	assert.Equal(t, "cover.png", img.Filename)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, []string{"media/products/cover.png"}, objects.calls)
}

func TestImageLoader_S3Errors(t *testing.T) {
	_, err := NewImageLoader(nil).Load(context.Background(), "s3://media/cover.png")
	assert.ErrorIs(t, err, ErrNoObjectStorage)

	_, err = NewImageLoader(&fakeObjects{}).Load(context.Background(), "s3://media")
	assert.Error(t, err)
}
