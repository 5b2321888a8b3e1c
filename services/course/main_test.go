package services

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	courseModels "lms/models/course"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&courseModels.Course{},
		&courseModels.Section{},
		&courseModels.Lesson{},
		&courseModels.Attachment{},
		&courseModels.Quiz{},
		&courseModels.Question{},
		&courseModels.AnswerChoice{},
		&courseModels.QuizResult{},
		&courseModels.Enrollment{},
	)
	require.NoError(t, err)

	return db
}

func createTestCourse(t *testing.T, db *gorm.DB) *courseModels.Course {
	t.Helper()
	c := courseModels.Course{Title: "Test Course", Status: "ACTIVE", IsPublished: true}
	require.NoError(t, db.Create(&c).Error)
	return &c
}

// fakeFileStore stands in for the blob store and records every mutation.
type fakeFileStore struct {
	blobs      map[string]bool
	deleted    []string
	seq        int
	failStore  bool
	failDelete bool
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{blobs: map[string]bool{}}
}

func (f *fakeFileStore) Store(file *multipart.FileHeader) (string, error) {
	if f.failStore {
		return "", fmt.Errorf("store failed")
	}
	f.seq++
	locator := fmt.Sprintf("blob-%d", f.seq)
	f.blobs[locator] = true
	return locator, nil
}

func (f *fakeFileStore) Delete(locator string) error {
	if f.failDelete {
		return fmt.Errorf("delete failed")
	}
	if !f.blobs[locator] {
		return fmt.Errorf("no such blob %q", locator)
	}
	delete(f.blobs, locator)
	f.deleted = append(f.deleted, locator)
	return nil
}

func (f *fakeFileStore) Exists(locator string) bool {
	return f.blobs[locator]
}

// makeFileHeader builds a real multipart.FileHeader the way Fiber hands
// one to the controllers.
func makeFileHeader(t *testing.T, filename, content string) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest("POST", "/", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	return req.MultipartForm.File["file"][0]
}
