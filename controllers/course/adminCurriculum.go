package controllers

import (
	"errors"

	"lms/config"
	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"
	"lms/utils"

	services "lms/services/course"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func curriculumSynchronizer() *services.CurriculumSynchronizer {
	return services.NewCurriculumSynchronizer(database.Database.Db, newFileStore())
}

func newFileStore() services.FileStore {
	if url := config.AppConfig.BlobStoreURL; url != "" {
		return utils.NewRemoteFileStore(url)
	}
	return &utils.LocalFileStore{Dir: config.AppConfig.UploadDir}
}

// AdminCreateSection creates a section with its full lesson tree under a course
func AdminCreateSection(c *fiber.Ctx) error {
	_, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID, err := c.ParamsInt("id")
	if err != nil || courseID <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	shape, ok := c.Locals("validatedSectionTree").(*services.SectionShape)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	section, err := curriculumSynchronizer().CreateFromTree(uint(courseID), *shape)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create section!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Section created successfully!", section)
}

// AdminSyncSection replaces a section's persisted tree with the submitted one
func AdminSyncSection(c *fiber.Ctx) error {
	_, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	sectionID, err := c.ParamsInt("id")
	if err != nil || sectionID <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid section id!", nil)
	}

	shape, ok := c.Locals("validatedSectionTree").(*services.SectionShape)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	section, err := curriculumSynchronizer().SyncSection(uint(sectionID), *shape)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Section not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to sync section!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Section synced successfully!", section)
}

// AdminGetCourseSections returns the persisted curriculum tree of a course
func AdminGetCourseSections(c *fiber.Ctx) error {
	_, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID, err := c.ParamsInt("id")
	if err != nil || courseID <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	var sections []courseModels.Section
	err = database.Database.Db.
		Where("course_id = ?", courseID).
		Order("sequence asc, id asc").
		Preload("Lessons", func(db *gorm.DB) *gorm.DB { return db.Order("sequence asc, id asc") }).
		Preload("Lessons.Attachments").
		Preload("Lessons.Quiz").
		Preload("Lessons.Quiz.Questions").
		Preload("Lessons.Quiz.Questions.Answers").
		Find(&sections).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch sections!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Sections fetched successfully!", fiber.Map{
		"sections": sections,
	})
}
