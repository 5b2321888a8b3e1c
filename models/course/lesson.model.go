package course

import (
	"time"

	"gorm.io/gorm"
)

// Lesson types. Attachments are only meaningful for DOCUMENT and AUDIO
// lessons, a quiz only for QUIZ lessons.
const (
	LessonYoutube  = "youtube"
	LessonDocument = "document"
	LessonText     = "text"
	LessonAudio    = "audio"
	LessonLive     = "live"
	LessonQuiz     = "quiz"
)

// Lesson represents a single unit of content within a section
type Lesson struct {
	gorm.Model
	SectionID   uint         `json:"section_id" gorm:"index;not null"`
	CourseID    uint         `json:"course_id" gorm:"index;not null"`
	Sequence    int          `json:"sequence" gorm:"default:0"` // Lesson order in section
	Type        string       `json:"type" gorm:"default:'text'"`
	Title       string       `json:"title"`
	URL         string       `json:"url"`
	Summary     string       `json:"summary" gorm:"type:text"`
	Datetime    *time.Time   `json:"datetime"` // For LIVE lessons
	Attachments []Attachment `json:"attachments,omitempty" gorm:"foreignKey:LessonID"`
	Quiz        *Quiz        `json:"quiz,omitempty" gorm:"foreignKey:LessonID"`
}

// HasAttachments reports whether this lesson type owns file attachments.
func (l *Lesson) HasAttachments() bool {
	return l.Type == LessonDocument || l.Type == LessonAudio
}

// HasQuiz reports whether this lesson type owns a quiz.
func (l *Lesson) HasQuiz() bool {
	return l.Type == LessonQuiz
}
