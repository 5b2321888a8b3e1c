package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// LocalFileStore keeps blobs as files under a single directory. The
// locator handed back by Store is the bare filename; Exists doubles as
// the check that tells a stored blob apart from an external URL kept
// verbatim on an attachment.
type LocalFileStore struct {
	Dir string
}

func (s *LocalFileStore) Store(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", err
	}

	// Unique filename; the locator is the bare filename
	ext := filepath.Ext(file.Filename)
	locator := uuid.NewString() + ext

	dst, err := os.Create(filepath.Join(s.Dir, locator))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}

	return locator, nil
}

func (s *LocalFileStore) Delete(locator string) error {
	if !validLocator(locator) {
		return fmt.Errorf("invalid locator: %q", locator)
	}
	return os.Remove(filepath.Join(s.Dir, locator))
}

func (s *LocalFileStore) Exists(locator string) bool {
	if !validLocator(locator) {
		return false
	}
	_, err := os.Stat(filepath.Join(s.Dir, locator))
	return err == nil
}

// validLocator rejects anything that looks like a URL or a path, so an
// attachment URL pointing at an external site is never treated as a blob.
func validLocator(locator string) bool {
	if locator == "" || strings.Contains(locator, "/") || strings.Contains(locator, "\\") {
		return false
	}
	return !strings.Contains(locator, ":")
}

// RemoteFileStore talks to an HTTP blob service.
type RemoteFileStore struct {
	client  *resty.Client
	baseURL string
}

func NewRemoteFileStore(baseURL string) *RemoteFileStore {
	return &RemoteFileStore{
		client:  resty.New(),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *RemoteFileStore) Store(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	var result struct {
		Locator string `json:"locator"`
	}
	resp, err := s.client.R().
		SetFileReader("file", file.Filename, src).
		SetResult(&result).
		Post(s.baseURL + "/blobs")
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return "", fmt.Errorf("blob store returned %d", resp.StatusCode())
	}
	if result.Locator == "" {
		return "", fmt.Errorf("blob store returned empty locator")
	}
	return result.Locator, nil
}

func (s *RemoteFileStore) Delete(locator string) error {
	if !validLocator(locator) {
		return fmt.Errorf("invalid locator: %q", locator)
	}
	resp, err := s.client.R().Delete(s.baseURL + "/blobs/" + locator)
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusNoContent {
		return fmt.Errorf("blob store returned %d", resp.StatusCode())
	}
	return nil
}

func (s *RemoteFileStore) Exists(locator string) bool {
	if !validLocator(locator) {
		return false
	}
	resp, err := s.client.R().Head(s.baseURL + "/blobs/" + locator)
	return err == nil && resp.StatusCode() == http.StatusOK
}

// GetFileURL maps a stored locator to its public download path.
func GetFileURL(locator string) string {
	if locator == "" {
		return ""
	}
	return "/uploads/" + locator
}
