package services

import (
	"errors"
	"fmt"
	"time"

	courseModels "lms/models/course"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Clock supplies the current time; tests swap it out.
type Clock func() time.Time

// ErrRetakesExhausted is returned when a learner already used every
// allowed attempt at a quiz.
var ErrRetakesExhausted = errors.New("maximum retakes reached")

// QuizResultLifecycle drives a single attempt from in-progress to
// submitted. Finalization takes a per-result row lock so a learner submit
// and a sweeper auto-submit racing on the same attempt resolve to exactly
// one winner; the loser sees the already-submitted row and changes nothing.
type QuizResultLifecycle struct {
	DB  *gorm.DB
	Now Clock
}

func NewQuizResultLifecycle(db *gorm.DB) *QuizResultLifecycle {
	return &QuizResultLifecycle{DB: db, Now: time.Now}
}

// ParseQuizDuration decomposes an HH:MM:SS budget into elapsed time.
func ParseQuizDuration(duration string) (time.Duration, error) {
	var h, m, s int
	if _, err := fmt.Sscanf(duration, "%d:%d:%d", &h, &m, &s); err != nil {
		return 0, fmt.Errorf("invalid quiz duration %q: %w", duration, err)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second, nil
}

// StartAttempt opens a new attempt, or hands back the learner's current
// in-progress one so a page reload does not burn a retake.
func (l *QuizResultLifecycle) StartAttempt(userID, quizID uint) (*courseModels.QuizResult, error) {
	var quiz courseModels.Quiz
	if err := l.DB.First(&quiz, quizID).Error; err != nil {
		return nil, err
	}

	var current courseModels.QuizResult
	err := l.DB.Where("user_id = ? AND quiz_id = ? AND is_submitted = ?", userID, quizID, false).First(&current).Error
	if err == nil {
		return &current, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if quiz.MaxRetakes > 0 {
		var taken int64
		if err := l.DB.Model(&courseModels.QuizResult{}).
			Where("user_id = ? AND quiz_id = ? AND is_submitted = ?", userID, quizID, true).
			Count(&taken).Error; err != nil {
			return nil, err
		}
		if taken >= int64(quiz.MaxRetakes) {
			return nil, ErrRetakesExhausted
		}
	}

	result := courseModels.QuizResult{
		UserID:    userID,
		QuizID:    quizID,
		LessonID:  quiz.LessonID,
		StartedAt: l.Now(),
	}
	if err := l.DB.Create(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

// Deadline computes started_at + duration as elapsed time. The second
// return is false when the attempt has no deadline: a zero ("00:00:00")
// or unparseable duration means the quiz is untimed.
func (l *QuizResultLifecycle) Deadline(result *courseModels.QuizResult, quiz *courseModels.Quiz) (time.Time, bool) {
	if quiz == nil || result == nil || result.StartedAt.IsZero() {
		return time.Time{}, false
	}
	if quiz.Duration == "" || quiz.Duration == courseModels.NoTimeLimit {
		return time.Time{}, false
	}
	budget, err := ParseQuizDuration(quiz.Duration)
	if err != nil || budget <= 0 {
		return time.Time{}, false
	}
	return result.StartedAt.Add(budget), true
}

// IsExpired reports whether an in-progress attempt ran past its deadline.
// Submitted attempts and untimed quizzes are never expired.
func (l *QuizResultLifecycle) IsExpired(result *courseModels.QuizResult, quiz *courseModels.Quiz) bool {
	if result == nil || result.IsSubmitted {
		return false
	}
	deadline, ok := l.Deadline(result, quiz)
	if !ok {
		return false
	}
	return l.Now().After(deadline)
}

// IsExpiredByID loads the attempt and its quiz and reports expiry.
func (l *QuizResultLifecycle) IsExpiredByID(resultID uint) (bool, error) {
	var result courseModels.QuizResult
	if err := l.DB.First(&result, resultID).Error; err != nil {
		return false, err
	}
	var quiz courseModels.Quiz
	if err := l.DB.First(&quiz, result.QuizID).Error; err != nil {
		return false, err
	}
	return l.IsExpired(&result, &quiz), nil
}

// Submit finalizes an attempt with the grading output. Safe to call more
// than once: only the first call from the in-progress state applies side
// effects, later calls just return the already-submitted row.
func (l *QuizResultLifecycle) Submit(resultID uint, summary GradingSummary, rawAnswers datatypes.JSON) (*courseModels.QuizResult, error) {
	var result courseModels.QuizResult
	err := l.DB.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&result, resultID).Error; err != nil {
			return err
		}
		if result.IsSubmitted {
			return nil // lost the race or repeated call, keep the winner's state
		}

		now := l.Now()
		result.Answered = summary.Answered
		result.CorrectAnswers = summary.CorrectAnswers
		result.TotalObtainedMarks = summary.TotalObtainedMarks
		result.IsSubmitted = true
		result.FinishedAt = &now
		if rawAnswers != nil {
			result.SubmittedAnswers = rawAnswers
		}
		if err := tx.Save(&result).Error; err != nil {
			return err
		}
		return l.bumpAttemptCounter(tx, &result)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// AutoSubmit finalizes an expired attempt with whatever answer state was
// last persisted; no new scoring input arrives after expiry.
func (l *QuizResultLifecycle) AutoSubmit(resultID uint) (*courseModels.QuizResult, error) {
	var result courseModels.QuizResult
	err := l.DB.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&result, resultID).Error; err != nil {
			return err
		}
		if result.IsSubmitted {
			return nil
		}

		now := l.Now()
		result.IsSubmitted = true
		result.FinishedAt = &now
		if err := tx.Save(&result).Error; err != nil {
			return err
		}
		return l.bumpAttemptCounter(tx, &result)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// bumpAttemptCounter increments the learner's finalized-attempt count on
// their enrollment in the quiz's course. A missing enrollment is not an
// error; the attempt still finalizes.
func (l *QuizResultLifecycle) bumpAttemptCounter(tx *gorm.DB, result *courseModels.QuizResult) error {
	var quiz courseModels.Quiz
	if err := tx.First(&quiz, result.QuizID).Error; err != nil {
		return err
	}
	return tx.Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND is_deleted = ?", result.UserID, quiz.CourseID, false).
		UpdateColumn("quiz_attempts", gorm.Expr("quiz_attempts + 1")).Error
}

// lockForUpdate takes a row-level lock where the dialect supports it.
// SQLite (tests) serializes writers on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
