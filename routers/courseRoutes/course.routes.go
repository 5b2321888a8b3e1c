package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up all user-facing course routes
func SetupCourseRoutes(app *fiber.App) {
	userGroup := app.Group("/course")

	// Course listing and details (published courses only)
	userGroup.Get("/list", middleware.JWTMiddleware, validators.CourseList(), controllers.GetAllCourses)
	userGroup.Get("/:id", middleware.JWTMiddleware, controllers.GetCourseDetail)

	// Enrollment
	userGroup.Post("/:id/enroll", middleware.JWTMiddleware, validators.EnrollCourse(), controllers.EnrollInCourse)

	// User enrollments
	userEnrollGroup := app.Group("/user")
	userEnrollGroup.Get("/enrollments", middleware.JWTMiddleware, validators.GetUserEnrollments(), controllers.GetEnrollments)

	// Quiz taking
	quizGroup := app.Group("/quiz")
	quizGroup.Get("/:id", middleware.JWTMiddleware, controllers.GetQuizForLearner)
	quizGroup.Post("/:id/attempt", middleware.JWTMiddleware, controllers.StartQuizAttempt)

	attemptGroup := app.Group("/quiz/attempt")
	attemptGroup.Post("/:id/submit", middleware.JWTMiddleware, validators.SubmitQuizAttempt(), controllers.SubmitQuizAttempt)
	attemptGroup.Get("/:id", middleware.JWTMiddleware, controllers.GetQuizResult)
	attemptGroup.Get("/:id/remaining", middleware.JWTMiddleware, controllers.GetAttemptTimeRemaining)
}
