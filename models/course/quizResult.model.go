package course

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuizResult represents one learner's attempt at one quiz. It is created
// in progress (IsSubmitted=false) and finalized exactly once, either by
// the learner submitting or by the expiry sweeper.
type QuizResult struct {
	gorm.Model
	UserID             uint           `json:"user_id" gorm:"index;not null"`
	QuizID             uint           `json:"quiz_id" gorm:"index;not null"`
	LessonID           uint           `json:"lesson_id" gorm:"index;not null"`
	Answered           int            `json:"answered" gorm:"default:0"`
	CorrectAnswers     int            `json:"correct_answers" gorm:"default:0"`
	TotalObtainedMarks int            `json:"total_obtained_marks" gorm:"default:0"`
	IsSubmitted        bool           `json:"is_submitted" gorm:"default:false"`
	StartedAt          time.Time      `json:"started_at"` // Set at creation, immutable
	FinishedAt         *time.Time     `json:"finished_at"`
	SubmittedAnswers   datatypes.JSON `json:"submitted_answers"` // Raw answer payload from the last submission
}
