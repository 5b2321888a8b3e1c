package course

import "gorm.io/gorm"

// Attachment represents a file or external link attached to a lesson.
// URL holds either an external link or a blob-store locator; which one it
// is gets decided by asking the file store, not by a stored flag.
type Attachment struct {
	gorm.Model
	LessonID uint   `json:"lesson_id" gorm:"index;not null"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	URL      string `json:"url"`
}
