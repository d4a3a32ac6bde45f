package utils

import (
	"bytes"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadedFile(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("thumbnail", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(10 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["thumbnail"][0]
}

func TestSaveThumbnail(t *testing.T) {
	dir := t.TempDir()

	stored, err := SaveThumbnail(uploadedFile(t, "farm.PNG", []byte("png-bytes")), dir)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(stored))
	assert.True(t, strings.HasSuffix(stored, ".png"))

	data, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "/uploads/"+filepath.Base(stored), GetFileURL(stored))

	_, err = SaveThumbnail(uploadedFile(t, "notes.pdf", []byte("%PDF")), dir)
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = SaveThumbnail(uploadedFile(t, "huge.jpg", bytes.Repeat([]byte{1}, maxThumbnailBytes+1)), dir)
	assert.ErrorIs(t, err, ErrImageTooLarge)

	assert.Equal(t, "", GetFileURL(""))
}
