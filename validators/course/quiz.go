package courseValidator

import (
	"fmt"
	"strings"

	"lms/middleware"
	courseModels "lms/models/course"

	services "lms/services/course"

	"github.com/gofiber/fiber/v2"
)

// SubmitQuizAttempt validates a quiz submission body.
func SubmitQuizAttempt() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Answers []services.SubmittedAnswer `json:"answers"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)
		seen := make(map[uint]bool)

		for i := range reqData.Answers {
			ans := &reqData.Answers[i]
			prefix := fmt.Sprintf("answers[%d]", i)

			if ans.QuestionID == 0 {
				errors[prefix+".question_id"] = "Question ID is required!"
				continue
			}
			if seen[ans.QuestionID] {
				errors[prefix+".question_id"] = "Duplicate answer for the same question!"
				continue
			}
			seen[ans.QuestionID] = true

			if !validQuestionTypes[ans.Type] {
				errors[prefix+".type"] = "Invalid question type!"
				continue
			}

			switch ans.Type {
			case courseModels.QuestionSingleChoice:
				if len(ans.ChoiceIDs) != 1 {
					errors[prefix+".choice_ids"] = "Pick exactly one choice!"
				}
			case courseModels.QuestionMultipleChoice:
				if len(ans.ChoiceIDs) == 0 {
					errors[prefix+".choice_ids"] = "Pick at least one choice!"
				}
			case courseModels.QuestionFillBlank:
				if strings.TrimSpace(ans.Text) == "" {
					errors[prefix+".text"] = "Answer text is required!"
				}
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedAnswers", reqData.Answers)
		return c.Next()
	}
}
