package services

import (
	"testing"
	"time"

	courseModels "lms/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func seedQuiz(t *testing.T, db *gorm.DB, courseID uint, duration string, maxRetakes int) *courseModels.Quiz {
	t.Helper()
	lesson := courseModels.Lesson{CourseID: courseID, SectionID: 1, Type: courseModels.LessonQuiz, Title: "L"}
	require.NoError(t, db.Create(&lesson).Error)
	quiz := courseModels.Quiz{
		LessonID: lesson.ID, SectionID: 1, CourseID: courseID,
		Title: "Q", Duration: duration, MaxRetakes: maxRetakes,
	}
	require.NoError(t, db.Create(&quiz).Error)
	return &quiz
}

func seedEnrollment(t *testing.T, db *gorm.DB, userID, courseID uint) *courseModels.Enrollment {
	t.Helper()
	e := courseModels.Enrollment{UserID: userID, CourseID: courseID}
	require.NoError(t, db.Create(&e).Error)
	return &e
}

func attemptCounter(t *testing.T, db *gorm.DB, enrollmentID uint) int {
	t.Helper()
	var e courseModels.Enrollment
	require.NoError(t, db.First(&e, enrollmentID).Error)
	return e.QuizAttempts
}

func TestParseQuizDuration(t *testing.T) {
	d, err := ParseQuizDuration("01:30:15")
	require.NoError(t, err)
	assert.Equal(t, time.Hour+30*time.Minute+15*time.Second, d)

	d, err = ParseQuizDuration("00:00:00")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), d)

	_, err = ParseQuizDuration("soon")
	assert.Error(t, err)
}

func TestDeadlineAndExpiry(t *testing.T) {
	db := setupTestDB(t)
	c := createTestCourse(t, db)
	quiz := seedQuiz(t, db, c.ID, "00:30:00", 0)

	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	lifecycle := NewQuizResultLifecycle(db)
	result := &courseModels.QuizResult{UserID: 1, QuizID: quiz.ID, StartedAt: started}

	deadline, ok := lifecycle.Deadline(result, quiz)
	require.True(t, ok)
	assert.Equal(t, started.Add(30*time.Minute), deadline)

	lifecycle.Now = func() time.Time { return started.Add(29 * time.Minute) }
	assert.False(t, lifecycle.IsExpired(result, quiz))

	lifecycle.Now = func() time.Time { return started.Add(31 * time.Minute) }
	assert.True(t, lifecycle.IsExpired(result, quiz))

	// A submitted result is never expired, no matter the clock
	result.IsSubmitted = true
	assert.False(t, lifecycle.IsExpired(result, quiz))
}

func TestZeroDurationMeansUnlimited(t *testing.T) {
	db := setupTestDB(t)
	c := createTestCourse(t, db)
	quiz := seedQuiz(t, db, c.ID, courseModels.NoTimeLimit, 0)

	lifecycle := NewQuizResultLifecycle(db)
	result := &courseModels.QuizResult{UserID: 1, QuizID: quiz.ID, StartedAt: time.Now().Add(-240 * time.Hour)}

	_, ok := lifecycle.Deadline(result, quiz)
	assert.False(t, ok)
	assert.False(t, lifecycle.IsExpired(result, quiz))
}

func TestStartAttemptResumesInProgress(t *testing.T) {
	db := setupTestDB(t)
	c := createTestCourse(t, db)
	quiz := seedQuiz(t, db, c.ID, "00:10:00", 0)

	lifecycle := NewQuizResultLifecycle(db)
	first, err := lifecycle.StartAttempt(7, quiz.ID)
	require.NoError(t, err)

	second, err := lifecycle.StartAttempt(7, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "an open attempt is resumed, not duplicated")
}

func TestStartAttemptEnforcesMaxRetakes(t *testing.T) {
	db := setupTestDB(t)
	c := createTestCourse(t, db)
	quiz := seedQuiz(t, db, c.ID, courseModels.NoTimeLimit, 1)
	seedEnrollment(t, db, 7, c.ID)

	lifecycle := NewQuizResultLifecycle(db)
	first, err := lifecycle.StartAttempt(7, quiz.ID)
	require.NoError(t, err)
	_, err = lifecycle.Submit(first.ID, GradingSummary{}, nil)
	require.NoError(t, err)

	_, err = lifecycle.StartAttempt(7, quiz.ID)
	assert.ErrorIs(t, err, ErrRetakesExhausted)
}

func TestSubmitIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	c := createTestCourse(t, db)
	quiz := seedQuiz(t, db, c.ID, "00:30:00", 0)
	enrollment := seedEnrollment(t, db, 7, c.ID)

	lifecycle := NewQuizResultLifecycle(db)
	attempt, err := lifecycle.StartAttempt(7, quiz.ID)
	require.NoError(t, err)

	answers := datatypes.JSON([]byte(`[{"question_id":1,"choice_ids":[2]}]`))
	submitted, err := lifecycle.Submit(attempt.ID, GradingSummary{Answered: 1, CorrectAnswers: 1, TotalObtainedMarks: 5}, answers)
	require.NoError(t, err)
	assert.True(t, submitted.IsSubmitted)
	require.NotNil(t, submitted.FinishedAt)
	assert.Equal(t, 5, submitted.TotalObtainedMarks)
	assert.Equal(t, 1, attemptCounter(t, db, enrollment.ID))

	// Second submit must not re-apply side effects nor overwrite the score
	again, err := lifecycle.Submit(attempt.ID, GradingSummary{Answered: 9, CorrectAnswers: 9, TotalObtainedMarks: 99}, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, again.TotalObtainedMarks)
	assert.Equal(t, submitted.FinishedAt.Unix(), again.FinishedAt.Unix())
	assert.Equal(t, 1, attemptCounter(t, db, enrollment.ID))
}

func TestSubmitVersusAutoSubmitSingleWinner(t *testing.T) {
	db := setupTestDB(t)
	c := createTestCourse(t, db)
	quiz := seedQuiz(t, db, c.ID, "00:01:00", 0)
	enrollment := seedEnrollment(t, db, 7, c.ID)

	lifecycle := NewQuizResultLifecycle(db)

	// Learner submit lands first, sweeper auto-submit loses
	attempt, err := lifecycle.StartAttempt(7, quiz.ID)
	require.NoError(t, err)
	winner, err := lifecycle.Submit(attempt.ID, GradingSummary{Answered: 2, CorrectAnswers: 1, TotalObtainedMarks: 5}, nil)
	require.NoError(t, err)
	loser, err := lifecycle.AutoSubmit(attempt.ID)
	require.NoError(t, err)

	assert.Equal(t, winner.TotalObtainedMarks, loser.TotalObtainedMarks)
	assert.Equal(t, 1, attemptCounter(t, db, enrollment.ID), "exactly one attempt-counter increment")

	// Sweeper lands first, learner submit loses and keeps the swept state
	require.NoError(t, db.Delete(&courseModels.QuizResult{}, attempt.ID).Error)
	attempt2, err := lifecycle.StartAttempt(7, quiz.ID)
	require.NoError(t, err)
	_, err = lifecycle.AutoSubmit(attempt2.ID)
	require.NoError(t, err)
	late, err := lifecycle.Submit(attempt2.ID, GradingSummary{Answered: 9, TotalObtainedMarks: 99}, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, late.TotalObtainedMarks, "late submit must not overwrite the auto-submitted state")
	assert.Equal(t, 2, attemptCounter(t, db, enrollment.ID))
}
