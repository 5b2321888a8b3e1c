package services

import (
	"strings"

	courseModels "lms/models/course"

	"gorm.io/gorm"
)

// SubmittedAnswer is one learner answer to one question. ChoiceIDs carries
// the picked choice ids for choice questions, Text the free-form answer
// for fill-in-blank ones.
type SubmittedAnswer struct {
	QuestionID uint   `json:"question_id"`
	Type       string `json:"type"`
	ChoiceIDs  []uint `json:"choice_ids"`
	Text       string `json:"text"`
}

// ScoreResult is the outcome for a single question.
type ScoreResult struct {
	IsCorrect bool `json:"is_correct"`
	Points    int  `json:"points"`
}

// GradingSummary aggregates one whole submission.
type GradingSummary struct {
	Answered           int `json:"answered"`
	CorrectAnswers     int `json:"correct_answers"`
	TotalObtainedMarks int `json:"total_obtained_marks"`
}

// AnswerKeyStore reads a question's choices and which of them are correct.
type AnswerKeyStore struct {
	DB *gorm.DB
}

func NewAnswerKeyStore(db *gorm.DB) *AnswerKeyStore {
	return &AnswerKeyStore{DB: db}
}

// CorrectChoices returns the correct answer choices for a question.
func (s *AnswerKeyStore) CorrectChoices(questionID uint) ([]courseModels.AnswerChoice, error) {
	var choices []courseModels.AnswerChoice
	err := s.DB.Where("question_id = ? AND is_true = ?", questionID, true).Find(&choices).Error
	return choices, err
}

// Question loads a question by id.
func (s *AnswerKeyStore) Question(questionID uint) (*courseModels.Question, error) {
	var question courseModels.Question
	if err := s.DB.First(&question, questionID).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

// QuizScorer scores submitted answers against the answer key.
type QuizScorer struct {
	Keys *AnswerKeyStore
}

func NewQuizScorer(keys *AnswerKeyStore) *QuizScorer {
	return &QuizScorer{Keys: keys}
}

// Score evaluates one answer. A question with no correct choice on record
// can never be marked correct; an unknown question type is never correct.
func Score(question *courseModels.Question, correct []courseModels.AnswerChoice, answer SubmittedAnswer) ScoreResult {
	var isCorrect bool
	switch question.Type {
	case courseModels.QuestionSingleChoice:
		isCorrect = scoreSingleChoice(correct, answer.ChoiceIDs)
	case courseModels.QuestionMultipleChoice:
		isCorrect = scoreMultipleChoice(correct, answer.ChoiceIDs)
	case courseModels.QuestionFillBlank:
		isCorrect = scoreFillBlank(correct, answer.Text)
	}

	if !isCorrect {
		return ScoreResult{}
	}
	return ScoreResult{IsCorrect: true, Points: question.Score}
}

func scoreSingleChoice(correct []courseModels.AnswerChoice, picked []uint) bool {
	if len(correct) != 1 || len(picked) != 1 {
		return false
	}
	return picked[0] == correct[0].ID
}

// scoreMultipleChoice requires the picked set, deduplicated and ignoring
// order, to equal the correct set exactly. Supersets and subsets fail.
func scoreMultipleChoice(correct []courseModels.AnswerChoice, picked []uint) bool {
	if len(correct) == 0 {
		return false
	}
	want := make(map[uint]bool, len(correct))
	for _, c := range correct {
		want[c.ID] = true
	}
	got := make(map[uint]bool, len(picked))
	for _, id := range picked {
		got[id] = true
	}
	if len(got) != len(want) {
		return false
	}
	for id := range got {
		if !want[id] {
			return false
		}
	}
	return true
}

func scoreFillBlank(correct []courseModels.AnswerChoice, text string) bool {
	needle := foldAnswer(text)
	if needle == "" {
		return false
	}
	for _, c := range correct {
		if foldAnswer(c.Answer) == needle {
			return true
		}
	}
	return false
}

func foldAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ScoreQuestion scores one submitted answer against the stored answer key.
func (s *QuizScorer) ScoreQuestion(answer SubmittedAnswer) (ScoreResult, error) {
	question, err := s.Keys.Question(answer.QuestionID)
	if err != nil {
		return ScoreResult{}, err
	}
	correct, err := s.Keys.CorrectChoices(answer.QuestionID)
	if err != nil {
		return ScoreResult{}, err
	}
	return Score(question, correct, answer), nil
}

// GradeSubmission scores every submitted answer and sums the totals.
// Unanswered questions contribute nothing.
func (s *QuizScorer) GradeSubmission(answers []SubmittedAnswer) (GradingSummary, error) {
	var summary GradingSummary
	for _, answer := range answers {
		result, err := s.ScoreQuestion(answer)
		if err != nil {
			return GradingSummary{}, err
		}
		summary.Answered++
		if result.IsCorrect {
			summary.CorrectAnswers++
			summary.TotalObtainedMarks += result.Points
		}
	}
	return summary, nil
}
