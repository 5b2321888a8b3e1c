package courseValidator

import (
	"encoding/json"
	"fmt"
	"strings"

	"lms/middleware"
	courseModels "lms/models/course"

	services "lms/services/course"

	"github.com/gofiber/fiber/v2"
)

var validLessonTypes = map[string]bool{
	courseModels.LessonYoutube:  true,
	courseModels.LessonDocument: true,
	courseModels.LessonText:     true,
	courseModels.LessonAudio:    true,
	courseModels.LessonLive:     true,
	courseModels.LessonQuiz:     true,
}

var validQuestionTypes = map[string]bool{
	courseModels.QuestionSingleChoice:   true,
	courseModels.QuestionMultipleChoice: true,
	courseModels.QuestionFillBlank:      true,
}

// SectionTree validates a curriculum submission. The payload is either a JSON
// body or a multipart form whose "tree" field holds the JSON; uploaded
// attachment files arrive as form parts keyed file_<lessonIdx>_<attachmentIdx>.
func SectionTree() fiber.Handler {
	return func(c *fiber.Ctx) error {
		shape := new(services.SectionShape)

		contentType := string(c.Request().Header.ContentType())
		if strings.HasPrefix(contentType, fiber.MIMEMultipartForm) {
			form, err := c.MultipartForm()
			if err != nil {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid multipart form!", nil)
			}

			trees := form.Value["tree"]
			if len(trees) == 0 {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Missing tree field!", nil)
			}
			if err := json.Unmarshal([]byte(trees[0]), shape); err != nil {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid tree JSON!", nil)
			}

			// Attach uploaded files to their attachment slots
			for li := range shape.Lessons {
				for ai := range shape.Lessons[li].Attachments {
					key := fmt.Sprintf("file_%d_%d", li, ai)
					if files := form.File[key]; len(files) > 0 {
						shape.Lessons[li].Attachments[ai].File = files[0]
					}
				}
			}
		} else {
			if err := c.BodyParser(shape); err != nil {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
			}
		}

		errors := make(map[string]string)

		shape.Title = strings.TrimSpace(shape.Title)
		if shape.Title == "" {
			errors["title"] = "Section title is required!"
		}

		for li := range shape.Lessons {
			lesson := &shape.Lessons[li]
			lesson.Title = strings.TrimSpace(lesson.Title)
			lesson.Type = strings.TrimSpace(lesson.Type)
			prefix := fmt.Sprintf("lessons[%d]", li)

			if lesson.Title == "" {
				errors[prefix+".title"] = "Lesson title is required!"
			}
			if !validLessonTypes[lesson.Type] {
				errors[prefix+".type"] = "Invalid lesson type!"
				continue
			}

			switch lesson.Type {
			case courseModels.LessonYoutube:
				if strings.TrimSpace(lesson.URL) == "" {
					errors[prefix+".url"] = "Video URL is required for youtube lessons!"
				}
			case courseModels.LessonLive:
				if lesson.Datetime == nil {
					errors[prefix+".datetime"] = "Datetime is required for live lessons!"
				}
			}

			if len(lesson.Attachments) > 0 && lesson.Type != courseModels.LessonDocument && lesson.Type != courseModels.LessonAudio {
				errors[prefix+".attachments"] = "Only document and audio lessons carry attachments!"
			}
			for ai := range lesson.Attachments {
				att := &lesson.Attachments[ai]
				if att.File == nil && strings.TrimSpace(att.URL) == "" && att.ID == 0 {
					errors[fmt.Sprintf("%s.attachments[%d]", prefix, ai)] = "Attachment needs a file or a URL!"
				}
			}

			if lesson.Type == courseModels.LessonQuiz {
				if lesson.Quiz == nil {
					errors[prefix+".quiz"] = "Quiz lessons need a quiz!"
					continue
				}
				validateQuizShape(lesson.Quiz, prefix+".quiz", errors)
			} else if lesson.Quiz != nil {
				errors[prefix+".quiz"] = "Only quiz lessons carry a quiz!"
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedSectionTree", shape)
		return c.Next()
	}
}

func validateQuizShape(quiz *services.QuizShape, prefix string, errors map[string]string) {
	quiz.Title = strings.TrimSpace(quiz.Title)
	if quiz.Title == "" {
		errors[prefix+".title"] = "Quiz title is required!"
	}

	if quiz.Duration == "" {
		quiz.Duration = courseModels.NoTimeLimit
	}
	if _, err := services.ParseQuizDuration(quiz.Duration); err != nil {
		errors[prefix+".duration"] = "Duration must be in HH:MM:SS format!"
	}

	if quiz.MaxRetakes < 0 {
		errors[prefix+".max_retakes"] = "Max retakes cannot be negative!"
	}

	for qi := range quiz.Questions {
		q := &quiz.Questions[qi]
		q.Question = strings.TrimSpace(q.Question)
		qPrefix := fmt.Sprintf("%s.questions[%d]", prefix, qi)

		if q.Question == "" {
			errors[qPrefix+".question"] = "Question text is required!"
		}
		if !validQuestionTypes[q.Type] {
			errors[qPrefix+".type"] = "Invalid question type!"
			continue
		}
		if q.Score <= 0 {
			errors[qPrefix+".score"] = "Score must be positive!"
		}
		if len(q.Answers) == 0 {
			errors[qPrefix+".answers"] = "At least one answer is required!"
			continue
		}

		correct := 0
		for _, a := range q.Answers {
			if a.IsTrue {
				correct++
			}
		}
		switch q.Type {
		case courseModels.QuestionSingleChoice:
			if correct != 1 {
				errors[qPrefix+".answers"] = "Single choice questions need exactly one correct answer!"
			}
		case courseModels.QuestionMultipleChoice:
			if correct == 0 {
				errors[qPrefix+".answers"] = "Multiple choice questions need at least one correct answer!"
			}
		case courseModels.QuestionFillBlank:
			if correct == 0 {
				errors[qPrefix+".answers"] = "Fill in the blank questions need at least one accepted answer!"
			}
		}
	}
}
