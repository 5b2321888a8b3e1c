package utils

import (
	"log"

	"lms/config"
	"lms/database"
	"lms/models"

	services "lms/services/course"

	"github.com/robfig/cron/v3"
)

// InitializeResultScheduler sets up the quiz expiry sweep scheduler
func InitializeResultScheduler() {
	log.Println("[RESULT-SCHEDULER] Initializing quiz result scheduler...")

	c := cron.New()

	// Sweep in-progress attempts on the configured cadence (default: every minute)
	if _, err := c.AddFunc(config.AppConfig.SweepSchedule, func() {
		RunExpirySweep()
	}); err != nil {
		log.Printf("[RESULT-SCHEDULER] Invalid sweep schedule %q: %v", config.AppConfig.SweepSchedule, err)
		return
	}

	c.Start()
	log.Printf("[RESULT-SCHEDULER] Quiz result scheduler started - schedule %q", config.AppConfig.SweepSchedule)
}

// RunExpirySweep performs one pass over all in-progress quiz attempts,
// auto-submitting the ones past their deadline.
func RunExpirySweep() {
	db := database.Database.Db

	sweeper := services.NewExpirySweeper(db, services.NewQuizResultLifecycle(db))
	sweeper.OnAutoSubmit = notifyAutoSubmitted

	stats, err := sweeper.RunOnce()
	if err != nil {
		log.Printf("[RESULT-SCHEDULER] Sweep failed: %v", err)
		return
	}

	if stats.AutoSubmitted > 0 {
		log.Printf("[RESULT-SCHEDULER] Auto-submitted %d of %d in-progress attempts", stats.AutoSubmitted, stats.Processed)
	}
}

// notifyAutoSubmitted emails the learner whose attempt was closed out
func notifyAutoSubmitted(done services.AutoSubmitted) {
	db := database.Database.Db

	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", done.Result.UserID, false).First(&user).Error; err != nil {
		log.Printf("[RESULT-SCHEDULER] Error fetching user %d: %v", done.Result.UserID, err)
		return
	}

	SendQuizAutoSubmittedEmail(user.Email, user.Name, done.Quiz.Title, done.Result.TotalObtainedMarks)
	log.Printf("[RESULT-SCHEDULER] Sent auto-submit notice for result %d to %s", done.Result.ID, user.Email)
}
