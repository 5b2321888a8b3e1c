package controllers

import (
	"encoding/json"
	"errors"
	"time"

	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"

	services "lms/services/course"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type quizQuestionView struct {
	ID       uint             `json:"id"`
	Type     string           `json:"type"`
	Question string           `json:"question"`
	Score    int              `json:"score"`
	Choices  []quizChoiceView `json:"choices,omitempty"`
}

type quizChoiceView struct {
	ID     uint   `json:"id"`
	Answer string `json:"answer"`
}

// GetQuizForLearner returns a quiz with its questions but without the answer key.
func GetQuizForLearner(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	quizID, err := c.ParamsInt("id")
	if err != nil || quizID <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid quiz id!", nil)
	}

	var quiz courseModels.Quiz
	err = database.Database.Db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Questions.Answers").
		First(&quiz, quizID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch quiz!", nil)
	}

	if !isEnrolled(userId, quiz.CourseID) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not enrolled in this course!", nil)
	}

	questions := make([]quizQuestionView, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		view := quizQuestionView{
			ID:       q.ID,
			Type:     q.Type,
			Question: q.Question,
			Score:    q.Score,
		}
		if q.Type != courseModels.QuestionFillBlank {
			for _, a := range q.Answers {
				view.Choices = append(view.Choices, quizChoiceView{ID: a.ID, Answer: a.Answer})
			}
		}
		questions = append(questions, view)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz fetched successfully!", fiber.Map{
		"id":          quiz.ID,
		"lessonId":    quiz.LessonID,
		"title":       quiz.Title,
		"instruction": quiz.Instruction,
		"duration":    quiz.Duration,
		"totalMarks":  quiz.TotalMarks,
		"passMarks":   quiz.PassMarks,
		"maxRetakes":  quiz.MaxRetakes,
		"questions":   questions,
	})
}

// StartQuizAttempt opens a timed attempt, or resumes the in-progress one.
func StartQuizAttempt(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	quizID, err := c.ParamsInt("id")
	if err != nil || quizID <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid quiz id!", nil)
	}

	var quiz courseModels.Quiz
	if err := database.Database.Db.First(&quiz, quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch quiz!", nil)
	}

	if !isEnrolled(userId, quiz.CourseID) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not enrolled in this course!", nil)
	}

	lifecycle := services.NewQuizResultLifecycle(database.Database.Db)

	result, err := lifecycle.StartAttempt(userId, uint(quizID))
	if err == nil && lifecycle.IsExpired(result, &quiz) {
		// The resumed attempt already ran out of time. Close it and try
		// to open a fresh one against the retake budget.
		if _, err := lifecycle.AutoSubmit(result.ID); err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to start attempt!", nil)
		}
		result, err = lifecycle.StartAttempt(userId, uint(quizID))
	}
	if err != nil {
		if errors.Is(err, services.ErrRetakesExhausted) {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "No retakes left for this quiz!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to start attempt!", nil)
	}

	payload := fiber.Map{
		"resultId":  result.ID,
		"quizId":    result.QuizID,
		"startedAt": result.StartedAt,
	}
	if deadline, ok := lifecycle.Deadline(result, &quiz); ok {
		payload["deadline"] = deadline
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Attempt started successfully!", payload)
}

// SubmitQuizAttempt grades the submitted answers and finalizes the attempt.
func SubmitQuizAttempt(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	resultID, err := c.ParamsInt("id")
	if err != nil || resultID <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid result id!", nil)
	}

	answers, ok := c.Locals("validatedAnswers").([]services.SubmittedAnswer)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	result, quiz, err := loadOwnResult(userId, uint(resultID))
	if err != nil {
		return quizResultError(c, err)
	}
	if result.IsSubmitted {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Attempt already submitted!", nil)
	}

	lifecycle := services.NewQuizResultLifecycle(database.Database.Db)

	if lifecycle.IsExpired(result, quiz) {
		// Too late. The answers on file at expiry stand, nothing new is graded.
		final, err := lifecycle.AutoSubmit(result.ID)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to submit attempt!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Time limit exceeded, attempt auto-submitted!", final)
	}

	scorer := services.NewQuizScorer(services.NewAnswerKeyStore(database.Database.Db))
	summary, err := scorer.GradeSubmission(answers)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Failed to grade submission!", nil)
	}

	raw, err := json.Marshal(answers)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to submit attempt!", nil)
	}

	final, err := lifecycle.Submit(result.ID, summary, datatypes.JSON(raw))
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to submit attempt!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attempt submitted successfully!", fiber.Map{
		"result": final,
		"passed": final.TotalObtainedMarks >= quiz.PassMarks,
	})
}

// GetQuizResult returns one of the caller's own attempts.
func GetQuizResult(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	resultID, err := c.ParamsInt("id")
	if err != nil || resultID <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid result id!", nil)
	}

	result, quiz, err := loadOwnResult(userId, uint(resultID))
	if err != nil {
		return quizResultError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Result fetched successfully!", fiber.Map{
		"result": result,
		"passed": result.IsSubmitted && result.TotalObtainedMarks >= quiz.PassMarks,
	})
}

// GetAttemptTimeRemaining reports how long the caller still has on an open attempt.
func GetAttemptTimeRemaining(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	resultID, err := c.ParamsInt("id")
	if err != nil || resultID <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid result id!", nil)
	}

	result, quiz, err := loadOwnResult(userId, uint(resultID))
	if err != nil {
		return quizResultError(c, err)
	}
	if result.IsSubmitted {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Attempt already submitted!", nil)
	}

	lifecycle := services.NewQuizResultLifecycle(database.Database.Db)

	deadline, limited := lifecycle.Deadline(result, quiz)
	if !limited {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Time remaining fetched successfully!", fiber.Map{
			"unlimited": true,
		})
	}

	remaining := time.Until(deadline)
	if remaining < 0 {
		remaining = 0
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Time remaining fetched successfully!", fiber.Map{
		"unlimited":        false,
		"deadline":         deadline,
		"secondsRemaining": int(remaining.Seconds()),
	})
}

func loadOwnResult(userID, resultID uint) (*courseModels.QuizResult, *courseModels.Quiz, error) {
	var result courseModels.QuizResult
	if err := database.Database.Db.First(&result, resultID).Error; err != nil {
		return nil, nil, err
	}
	if result.UserID != userID {
		return nil, nil, errNotOwnResult
	}

	var quiz courseModels.Quiz
	if err := database.Database.Db.First(&quiz, result.QuizID).Error; err != nil {
		return nil, nil, err
	}
	return &result, &quiz, nil
}

var errNotOwnResult = errors.New("result belongs to another user")

func quizResultError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, errNotOwnResult):
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "This attempt belongs to another user!", nil)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Result not found!", nil)
	default:
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch result!", nil)
	}
}

func isEnrolled(userID, courseID uint) bool {
	var count int64
	database.Database.Db.Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).
		Count(&count)
	return count > 0
}
