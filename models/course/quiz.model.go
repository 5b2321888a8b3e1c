package course

import "gorm.io/gorm"

// NoTimeLimit is the zero duration; a quiz carrying it never expires.
const NoTimeLimit = "00:00:00"

// Quiz represents a timed quiz owned by a single lesson
type Quiz struct {
	gorm.Model
	LessonID       uint       `json:"lesson_id" gorm:"index;not null"`
	SectionID      uint       `json:"section_id" gorm:"index;not null"`
	CourseID       uint       `json:"course_id" gorm:"index;not null"`
	Title          string     `json:"title"`
	Instruction    string     `json:"instruction" gorm:"type:text"`
	Duration       string     `json:"duration" gorm:"default:'00:00:00'"` // HH:MM:SS elapsed-time budget
	TotalMarks     int        `json:"total_marks" gorm:"default:0"`
	PassMarks      int        `json:"pass_marks" gorm:"default:0"`
	MaxRetakes     int        `json:"max_retakes" gorm:"default:0"`
	MinLessonTaken int        `json:"min_lesson_taken" gorm:"default:0"`
	Questions      []Question `json:"questions,omitempty" gorm:"foreignKey:QuizID"`
}
