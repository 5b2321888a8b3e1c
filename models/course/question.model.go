package course

import "gorm.io/gorm"

// Question types
const (
	QuestionSingleChoice   = "single_choice"
	QuestionMultipleChoice = "multiple_choice"
	QuestionFillBlank      = "fill_blank"
)

// Question represents one question within a quiz
type Question struct {
	gorm.Model
	QuizID   uint           `json:"quiz_id" gorm:"index;not null"`
	Type     string         `json:"type" gorm:"default:'single_choice'"`
	Question string         `json:"question" gorm:"type:text"`
	Score    int            `json:"score" gorm:"default:0"` // Points awarded when fully correct
	Answers  []AnswerChoice `json:"answers,omitempty" gorm:"foreignKey:QuestionID"`
}

// AnswerChoice represents one answer option for a question. For fill_blank
// questions every choice is an acceptable answer text and IsTrue is set on
// all of them.
type AnswerChoice struct {
	gorm.Model
	QuestionID uint   `json:"question_id" gorm:"index;not null"`
	Answer     string `json:"answer" gorm:"type:text"`
	IsTrue     bool   `json:"is_true" gorm:"default:false"`
}
