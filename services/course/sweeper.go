package services

import (
	"log"

	courseModels "lms/models/course"

	"gorm.io/gorm"
)

// SweepStats summarizes one sweep over the in-progress attempts.
type SweepStats struct {
	Processed     int `json:"processed"`
	AutoSubmitted int `json:"auto_submitted"`
}

// AutoSubmitted is reported to the hook for every attempt the sweep
// finalized, so callers can notify the learner.
type AutoSubmitted struct {
	Result *courseModels.QuizResult
	Quiz   *courseModels.Quiz
}

// ExpirySweeper closes out in-progress attempts that ran past their
// deadline. It is driven by an external scheduler; RunOnce is one pass.
type ExpirySweeper struct {
	DB        *gorm.DB
	Lifecycle *QuizResultLifecycle

	// OnAutoSubmit, when set, is called for each finalized attempt.
	OnAutoSubmit func(AutoSubmitted)
}

func NewExpirySweeper(db *gorm.DB, lifecycle *QuizResultLifecycle) *ExpirySweeper {
	return &ExpirySweeper{DB: db, Lifecycle: lifecycle}
}

// RunOnce walks every in-progress attempt, auto-submitting the expired
// ones. Each attempt is handled independently: one bad record is logged
// and skipped, never allowed to abort the sweep. Attempts another sweep or
// a learner submit finalized in the meantime are skipped silently.
func (s *ExpirySweeper) RunOnce() (SweepStats, error) {
	var stats SweepStats

	var results []courseModels.QuizResult
	if err := s.DB.Where("is_submitted = ?", false).Find(&results).Error; err != nil {
		return stats, err
	}

	for i := range results {
		result := &results[i]
		stats.Processed++

		var quiz courseModels.Quiz
		if err := s.DB.First(&quiz, result.QuizID).Error; err != nil {
			log.Printf("[RESULT-SCHEDULER] Skipping result %d: quiz %d not loadable: %v", result.ID, result.QuizID, err)
			continue
		}

		if !s.Lifecycle.IsExpired(result, &quiz) {
			continue
		}

		final, err := s.Lifecycle.AutoSubmit(result.ID)
		if err != nil {
			log.Printf("[RESULT-SCHEDULER] Failed to auto-submit result %d: %v", result.ID, err)
			continue
		}
		stats.AutoSubmitted++

		if s.OnAutoSubmit != nil {
			s.OnAutoSubmit(AutoSubmitted{Result: final, Quiz: &quiz})
		}
	}

	return stats, nil
}
