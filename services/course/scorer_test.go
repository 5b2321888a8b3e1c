package services

import (
	"testing"

	courseModels "lms/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func question(qType string, score int) *courseModels.Question {
	return &courseModels.Question{Type: qType, Score: score}
}

func TestScoreSingleChoice(t *testing.T) {
	q := question(courseModels.QuestionSingleChoice, 5)
	key := []courseModels.AnswerChoice{{IsTrue: true}}
	key[0].ID = 1

	got := Score(q, key, SubmittedAnswer{ChoiceIDs: []uint{1}})
	assert.True(t, got.IsCorrect)
	assert.Equal(t, 5, got.Points)

	got = Score(q, key, SubmittedAnswer{ChoiceIDs: []uint{2}})
	assert.False(t, got.IsCorrect)
	assert.Equal(t, 0, got.Points)

	// No correct choice on record: never correct
	got = Score(q, nil, SubmittedAnswer{ChoiceIDs: []uint{1}})
	assert.False(t, got.IsCorrect)
}

func TestScoreMultipleChoice(t *testing.T) {
	q := question(courseModels.QuestionMultipleChoice, 10)
	key := make([]courseModels.AnswerChoice, 2)
	key[0].ID, key[1].ID = 1, 3
	key[0].IsTrue, key[1].IsTrue = true, true

	// Order-independent exact match
	assert.True(t, Score(q, key, SubmittedAnswer{ChoiceIDs: []uint{3, 1}}).IsCorrect)
	// Duplicates collapse
	assert.True(t, Score(q, key, SubmittedAnswer{ChoiceIDs: []uint{1, 3, 3}}).IsCorrect)
	// Superset rejected
	assert.False(t, Score(q, key, SubmittedAnswer{ChoiceIDs: []uint{1, 2, 3}}).IsCorrect)
	// Subset rejected
	assert.False(t, Score(q, key, SubmittedAnswer{ChoiceIDs: []uint{1}}).IsCorrect)
	// Empty correct set: never correct
	assert.False(t, Score(q, nil, SubmittedAnswer{ChoiceIDs: []uint{1}}).IsCorrect)
}

func TestScoreFillBlank(t *testing.T) {
	q := question(courseModels.QuestionFillBlank, 3)
	key := []courseModels.AnswerChoice{{Answer: "Paris", IsTrue: true}}

	assert.True(t, Score(q, key, SubmittedAnswer{Text: "  paris "}).IsCorrect)
	assert.False(t, Score(q, key, SubmittedAnswer{Text: "Pari"}).IsCorrect)
	assert.False(t, Score(q, key, SubmittedAnswer{Text: "   "}).IsCorrect)
}

func TestScoreUnknownType(t *testing.T) {
	q := question("essay", 10)
	key := []courseModels.AnswerChoice{{Answer: "anything", IsTrue: true}}
	assert.False(t, Score(q, key, SubmittedAnswer{Text: "anything"}).IsCorrect)
}

func TestGradeSubmission(t *testing.T) {
	db := setupTestDB(t)
	sync := NewCurriculumSynchronizer(db, newFakeFileStore())
	c := createTestCourse(t, db)

	shape := SectionShape{
		Title: "S",
		Lessons: []LessonShape{{
			Type:  courseModels.LessonQuiz,
			Title: "Quiz",
			Quiz: &QuizShape{
				Title: "Quiz",
				Questions: []QuestionShape{
					{Type: courseModels.QuestionSingleChoice, Question: "Q1", Score: 5,
						Answers: []AnswerShape{{Answer: "right", IsTrue: true}, {Answer: "wrong"}}},
					{Type: courseModels.QuestionFillBlank, Question: "Q2", Score: 10,
						Answers: []AnswerShape{{Answer: "Paris", IsTrue: true}}},
					{Type: courseModels.QuestionMultipleChoice, Question: "Q3", Score: 7,
						Answers: []AnswerShape{{Answer: "a", IsTrue: true}, {Answer: "b", IsTrue: true}}},
				},
			},
		}},
	}
	section, err := sync.CreateFromTree(c.ID, shape)
	require.NoError(t, err)

	questions := section.Lessons[0].Quiz.Questions
	require.Len(t, questions, 3)

	scorer := NewQuizScorer(NewAnswerKeyStore(db))
	summary, err := scorer.GradeSubmission([]SubmittedAnswer{
		{QuestionID: questions[0].ID, ChoiceIDs: []uint{questions[0].Answers[0].ID}}, // correct, 5
		{QuestionID: questions[1].ID, Text: " PARIS "},                               // correct, 10
		{QuestionID: questions[2].ID, ChoiceIDs: []uint{questions[2].Answers[0].ID}}, // subset, wrong
	})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Answered)
	assert.Equal(t, 2, summary.CorrectAnswers)
	assert.Equal(t, 15, summary.TotalObtainedMarks)
}
