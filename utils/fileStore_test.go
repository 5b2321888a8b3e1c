package utils

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeFileHeader(t *testing.T, name, content string) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest("POST", "/", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1 << 20))

	return req.MultipartForm.File["file"][0]
}

func TestLocalFileStoreRoundTrip(t *testing.T) {
	store := &LocalFileStore{Dir: t.TempDir()}

	locator, err := store.Store(makeFileHeader(t, "notes.pdf", "lecture notes"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(locator, ".pdf"))
	assert.True(t, store.Exists(locator))

	data, err := os.ReadFile(filepath.Join(store.Dir, locator))
	require.NoError(t, err)
	assert.Equal(t, "lecture notes", string(data))

	require.NoError(t, store.Delete(locator))
	assert.False(t, store.Exists(locator))
}

func TestLocalFileStoreUniqueLocators(t *testing.T) {
	store := &LocalFileStore{Dir: t.TempDir()}

	first, err := store.Store(makeFileHeader(t, "a.mp3", "one"))
	require.NoError(t, err)
	second, err := store.Store(makeFileHeader(t, "a.mp3", "two"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, store.Exists(first))
	assert.True(t, store.Exists(second))
}

func TestLocalFileStoreRejectsExternalURLs(t *testing.T) {
	store := &LocalFileStore{Dir: t.TempDir()}

	assert.False(t, store.Exists("https://example.com/video.mp4"))
	assert.False(t, store.Exists("../etc/passwd"))
	assert.False(t, store.Exists(""))

	assert.Error(t, store.Delete("https://example.com/video.mp4"))
	assert.Error(t, store.Delete("../../x"))
}
