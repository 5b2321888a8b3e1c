package services

import (
	"testing"
	"time"

	courseModels "lms/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeperRunOnce(t *testing.T) {
	db := setupTestDB(t)
	c := createTestCourse(t, db)
	timed := seedQuiz(t, db, c.ID, "00:30:00", 0)
	untimed := seedQuiz(t, db, c.ID, courseModels.NoTimeLimit, 0)
	seedEnrollment(t, db, 1, c.ID)
	seedEnrollment(t, db, 2, c.ID)
	seedEnrollment(t, db, 3, c.ID)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lifecycle := NewQuizResultLifecycle(db)
	lifecycle.Now = func() time.Time { return now }

	overdue := courseModels.QuizResult{UserID: 1, QuizID: timed.ID, StartedAt: now.Add(-time.Hour)}
	fresh := courseModels.QuizResult{UserID: 2, QuizID: timed.ID, StartedAt: now.Add(-time.Minute)}
	open := courseModels.QuizResult{UserID: 3, QuizID: untimed.ID, StartedAt: now.Add(-time.Hour)}
	require.NoError(t, db.Create(&overdue).Error)
	require.NoError(t, db.Create(&fresh).Error)
	require.NoError(t, db.Create(&open).Error)

	sweeper := NewExpirySweeper(db, lifecycle)
	var notified []uint
	sweeper.OnAutoSubmit = func(done AutoSubmitted) {
		notified = append(notified, done.Result.ID)
	}

	stats, err := sweeper.RunOnce()
	require.NoError(t, err)
	assert.Equal(t, SweepStats{Processed: 3, AutoSubmitted: 1}, stats)
	assert.Equal(t, []uint{overdue.ID}, notified)

	var swept courseModels.QuizResult
	require.NoError(t, db.First(&swept, overdue.ID).Error)
	assert.True(t, swept.IsSubmitted)
	require.NotNil(t, swept.FinishedAt)

	// Overlapping or repeated sweeps are no-ops
	stats, err = sweeper.RunOnce()
	require.NoError(t, err)
	assert.Equal(t, SweepStats{Processed: 2, AutoSubmitted: 0}, stats)
}

func TestSweeperSkipsBrokenRecords(t *testing.T) {
	db := setupTestDB(t)
	c := createTestCourse(t, db)
	timed := seedQuiz(t, db, c.ID, "00:05:00", 0)
	seedEnrollment(t, db, 1, c.ID)

	now := time.Now()
	lifecycle := NewQuizResultLifecycle(db)

	// Attempt whose quiz vanished must not abort the sweep
	orphan := courseModels.QuizResult{UserID: 9, QuizID: 999999, StartedAt: now.Add(-time.Hour)}
	overdue := courseModels.QuizResult{UserID: 1, QuizID: timed.ID, StartedAt: now.Add(-time.Hour)}
	require.NoError(t, db.Create(&orphan).Error)
	require.NoError(t, db.Create(&overdue).Error)

	sweeper := NewExpirySweeper(db, lifecycle)
	stats, err := sweeper.RunOnce()
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 1, stats.AutoSubmitted)

	var swept courseModels.QuizResult
	require.NoError(t, db.First(&swept, overdue.ID).Error)
	assert.True(t, swept.IsSubmitted)
}
