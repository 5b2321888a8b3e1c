package services

import (
	"errors"
	"mime/multipart"
	"time"

	courseModels "lms/models/course"

	"gorm.io/gorm"
)

// ErrNotFound is returned when the parent a mutation targets does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// FileStore is the blob store behind lesson attachments. A locator returned
// by Store is an opaque string; Exists doubles as the validity check that
// tells a stored blob apart from an external URL kept verbatim.
type FileStore interface {
	Store(file *multipart.FileHeader) (string, error)
	Delete(locator string) error
	Exists(locator string) bool
}

// SectionShape is the instructor-submitted form of a section and its full
// desired child set. A shape carrying an id of an existing row means
// "update that row"; a missing or unknown id means "create".
type SectionShape struct {
	Sequence  int           `json:"sequence"`
	Title     string        `json:"title"`
	Objective string        `json:"objective"`
	Lessons   []LessonShape `json:"lessons"`
}

type LessonShape struct {
	ID          uint              `json:"id"`
	Sequence    int               `json:"sequence"`
	Type        string            `json:"type"`
	Title       string            `json:"title"`
	URL         string            `json:"url"`
	Summary     string            `json:"summary"`
	Datetime    *time.Time        `json:"datetime"`
	Attachments []AttachmentShape `json:"attachments"`
	Quiz        *QuizShape        `json:"quiz"`
}

type AttachmentShape struct {
	ID    uint   `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url"`
	// File is attached by the controller from the multipart form; when set
	// it wins over URL.
	File *multipart.FileHeader `json:"-"`
}

type QuizShape struct {
	ID             uint            `json:"id"`
	Title          string          `json:"title"`
	Instruction    string          `json:"instruction"`
	Duration       string          `json:"duration"`
	TotalMarks     int             `json:"total_marks"`
	PassMarks      int             `json:"pass_marks"`
	MaxRetakes     int             `json:"max_retakes"`
	MinLessonTaken int             `json:"min_lesson_taken"`
	Questions      []QuestionShape `json:"questions"`
}

type QuestionShape struct {
	ID       uint          `json:"id"`
	Type     string        `json:"type"`
	Question string        `json:"question"`
	Score    int           `json:"score"`
	Answers  []AnswerShape `json:"answers"`
}

type AnswerShape struct {
	ID     uint   `json:"id"`
	Answer string `json:"answer"`
	IsTrue bool   `json:"is_true"`
}

// CurriculumSynchronizer reconciles a submitted curriculum tree against the
// persisted one. Every call runs in a single transaction: either the whole
// reconciled tree commits or none of it does.
type CurriculumSynchronizer struct {
	DB    *gorm.DB
	Files FileStore
}

func NewCurriculumSynchronizer(db *gorm.DB, files FileStore) *CurriculumSynchronizer {
	return &CurriculumSynchronizer{DB: db, Files: files}
}

// CreateFromTree creates a new section with its full lesson tree under the
// given course. Submitted ids are ignored on this path.
func (s *CurriculumSynchronizer) CreateFromTree(courseID uint, shape SectionShape) (*courseModels.Section, error) {
	var parent courseModels.Course
	if err := s.DB.Where("id = ? AND is_deleted = ?", courseID, false).First(&parent).Error; err != nil {
		return nil, err
	}

	var sectionID uint
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		section := courseModels.Section{
			CourseID:  courseID,
			Sequence:  shape.Sequence,
			Title:     shape.Title,
			Objective: shape.Objective,
		}
		if err := tx.Create(&section).Error; err != nil {
			return err
		}
		for i := range shape.Lessons {
			if err := s.createLesson(tx, &section, shape.Lessons[i]); err != nil {
				return err
			}
		}
		sectionID = section.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.loadTree(sectionID)
}

// SyncSection reconciles the section's persisted tree against the submitted
// one: scalar fields are updated in place, submitted children are matched
// by id, and persisted children absent from the submission are deleted with
// their whole subtree and owned blobs.
func (s *CurriculumSynchronizer) SyncSection(sectionID uint, shape SectionShape) (*courseModels.Section, error) {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var section courseModels.Section
		if err := tx.First(&section, sectionID).Error; err != nil {
			return err
		}

		section.Sequence = shape.Sequence
		section.Title = shape.Title
		section.Objective = shape.Objective
		if err := tx.Save(&section).Error; err != nil {
			return err
		}

		return s.syncLessons(tx, &section, shape.Lessons)
	})
	if err != nil {
		return nil, err
	}
	return s.loadTree(sectionID)
}

// reconcile applies the uniform create/update/delete policy for one level
// of the tree. Submitted children are processed in submission order; a
// submitted id that matches a persisted child updates it, anything else
// creates. Persisted children left untouched are deleted afterwards.
func reconcile(existing []uint, submitted int,
	id func(i int) uint,
	create func(i int) error,
	update func(i int) error,
	remove func(id uint) error,
) error {
	known := make(map[uint]bool, len(existing))
	for _, e := range existing {
		known[e] = true
	}

	touched := make(map[uint]bool, submitted)
	for i := 0; i < submitted; i++ {
		cid := id(i)
		if cid != 0 && known[cid] && !touched[cid] {
			if err := update(i); err != nil {
				return err
			}
			touched[cid] = true
			continue
		}
		if err := create(i); err != nil {
			return err
		}
	}

	for _, e := range existing {
		if !touched[e] {
			if err := remove(e); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *CurriculumSynchronizer) syncLessons(tx *gorm.DB, section *courseModels.Section, lessons []LessonShape) error {
	var existing []uint
	if err := tx.Model(&courseModels.Lesson{}).Where("section_id = ?", section.ID).Pluck("id", &existing).Error; err != nil {
		return err
	}

	return reconcile(existing, len(lessons),
		func(i int) uint { return lessons[i].ID },
		func(i int) error { return s.createLesson(tx, section, lessons[i]) },
		func(i int) error { return s.updateLesson(tx, section, lessons[i]) },
		func(id uint) error { return s.deleteLesson(tx, id) },
	)
}

func (s *CurriculumSynchronizer) createLesson(tx *gorm.DB, section *courseModels.Section, shape LessonShape) error {
	lesson := courseModels.Lesson{
		SectionID: section.ID,
		CourseID:  section.CourseID,
		Sequence:  shape.Sequence,
		Type:      shape.Type,
		Title:     shape.Title,
		URL:       shape.URL,
		Summary:   shape.Summary,
		Datetime:  shape.Datetime,
	}
	if err := tx.Create(&lesson).Error; err != nil {
		return err
	}

	if lesson.HasAttachments() {
		for i := range shape.Attachments {
			if err := s.createAttachment(tx, lesson.ID, shape.Attachments[i]); err != nil {
				return err
			}
		}
	}
	if lesson.HasQuiz() && shape.Quiz != nil {
		if err := s.createQuiz(tx, &lesson, *shape.Quiz); err != nil {
			return err
		}
	}
	return nil
}

// childKind names the kind of children a lesson type owns.
func childKind(lessonType string) string {
	switch lessonType {
	case courseModels.LessonDocument, courseModels.LessonAudio:
		return "attachments"
	case courseModels.LessonQuiz:
		return "quiz"
	}
	return "none"
}

func (s *CurriculumSynchronizer) updateLesson(tx *gorm.DB, section *courseModels.Section, shape LessonShape) error {
	var lesson courseModels.Lesson
	if err := tx.Where("id = ? AND section_id = ?", shape.ID, section.ID).First(&lesson).Error; err != nil {
		return err
	}

	// A type change tears the old kind of children down before the new
	// kind is built, so e.g. document -> youtube drops the attachments
	// and their blobs even though no attachment change was submitted.
	oldKind, newKind := childKind(lesson.Type), childKind(shape.Type)
	if oldKind != newKind {
		switch oldKind {
		case "attachments":
			if err := s.deleteLessonAttachments(tx, lesson.ID); err != nil {
				return err
			}
		case "quiz":
			if err := s.deleteLessonQuiz(tx, lesson.ID); err != nil {
				return err
			}
		}
	}

	lesson.Sequence = shape.Sequence
	lesson.Type = shape.Type
	lesson.Title = shape.Title
	lesson.URL = shape.URL
	lesson.Summary = shape.Summary
	lesson.Datetime = shape.Datetime
	if err := tx.Save(&lesson).Error; err != nil {
		return err
	}

	switch newKind {
	case "attachments":
		return s.syncAttachments(tx, lesson.ID, shape.Attachments)
	case "quiz":
		return s.syncQuiz(tx, &lesson, shape.Quiz)
	}
	return nil
}

func (s *CurriculumSynchronizer) deleteLesson(tx *gorm.DB, lessonID uint) error {
	if err := s.deleteLessonAttachments(tx, lessonID); err != nil {
		return err
	}
	if err := s.deleteLessonQuiz(tx, lessonID); err != nil {
		return err
	}
	return tx.Delete(&courseModels.Lesson{}, lessonID).Error
}

func (s *CurriculumSynchronizer) syncAttachments(tx *gorm.DB, lessonID uint, attachments []AttachmentShape) error {
	var existing []uint
	if err := tx.Model(&courseModels.Attachment{}).Where("lesson_id = ?", lessonID).Pluck("id", &existing).Error; err != nil {
		return err
	}

	return reconcile(existing, len(attachments),
		func(i int) uint { return attachments[i].ID },
		func(i int) error { return s.createAttachment(tx, lessonID, attachments[i]) },
		func(i int) error { return s.updateAttachment(tx, lessonID, attachments[i]) },
		func(id uint) error { return s.deleteAttachment(tx, id) },
	)
}

func (s *CurriculumSynchronizer) createAttachment(tx *gorm.DB, lessonID uint, shape AttachmentShape) error {
	url := shape.URL
	if shape.File != nil {
		locator, err := s.Files.Store(shape.File)
		if err != nil {
			return err
		}
		url = locator
	}

	attachment := courseModels.Attachment{
		LessonID: lessonID,
		Type:     shape.Type,
		Title:    shape.Title,
		URL:      url,
	}
	return tx.Create(&attachment).Error
}

func (s *CurriculumSynchronizer) updateAttachment(tx *gorm.DB, lessonID uint, shape AttachmentShape) error {
	var attachment courseModels.Attachment
	if err := tx.Where("id = ? AND lesson_id = ?", shape.ID, lessonID).First(&attachment).Error; err != nil {
		return err
	}

	if shape.File != nil {
		// Replacing the payload drops the old blob first
		if s.Files.Exists(attachment.URL) {
			if err := s.Files.Delete(attachment.URL); err != nil {
				return err
			}
		}
		locator, err := s.Files.Store(shape.File)
		if err != nil {
			return err
		}
		attachment.URL = locator
	} else if shape.URL != "" {
		attachment.URL = shape.URL
	}

	attachment.Type = shape.Type
	attachment.Title = shape.Title
	return tx.Save(&attachment).Error
}

func (s *CurriculumSynchronizer) deleteAttachment(tx *gorm.DB, attachmentID uint) error {
	var attachment courseModels.Attachment
	if err := tx.First(&attachment, attachmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if s.Files.Exists(attachment.URL) {
		if err := s.Files.Delete(attachment.URL); err != nil {
			return err
		}
	}
	return tx.Delete(&attachment).Error
}

func (s *CurriculumSynchronizer) deleteLessonAttachments(tx *gorm.DB, lessonID uint) error {
	var ids []uint
	if err := tx.Model(&courseModels.Attachment{}).Where("lesson_id = ?", lessonID).Pluck("id", &ids).Error; err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.deleteAttachment(tx, id); err != nil {
			return err
		}
	}
	return nil
}

// syncQuiz applies the replace-or-update rule: a submitted quiz whose id
// matches the persisted one is updated in place, anything else (including
// a missing id) replaces the persisted quiz subtree entirely.
func (s *CurriculumSynchronizer) syncQuiz(tx *gorm.DB, lesson *courseModels.Lesson, shape *QuizShape) error {
	var existing courseModels.Quiz
	err := tx.Where("lesson_id = ?", lesson.ID).First(&existing).Error
	hasExisting := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if shape == nil {
		if hasExisting {
			return s.deleteQuizSubtree(tx, existing.ID)
		}
		return nil
	}

	if hasExisting && shape.ID == existing.ID {
		existing.Title = shape.Title
		existing.Instruction = shape.Instruction
		existing.Duration = quizDuration(shape.Duration)
		existing.TotalMarks = shape.TotalMarks
		existing.PassMarks = shape.PassMarks
		existing.MaxRetakes = shape.MaxRetakes
		existing.MinLessonTaken = shape.MinLessonTaken
		if err := tx.Save(&existing).Error; err != nil {
			return err
		}
		return s.syncQuestions(tx, existing.ID, shape.Questions)
	}

	if hasExisting {
		if err := s.deleteQuizSubtree(tx, existing.ID); err != nil {
			return err
		}
	}
	return s.createQuiz(tx, lesson, *shape)
}

func quizDuration(d string) string {
	if d == "" {
		return courseModels.NoTimeLimit
	}
	return d
}

func (s *CurriculumSynchronizer) createQuiz(tx *gorm.DB, lesson *courseModels.Lesson, shape QuizShape) error {
	quiz := courseModels.Quiz{
		LessonID:       lesson.ID,
		SectionID:      lesson.SectionID,
		CourseID:       lesson.CourseID,
		Title:          shape.Title,
		Instruction:    shape.Instruction,
		Duration:       quizDuration(shape.Duration),
		TotalMarks:     shape.TotalMarks,
		PassMarks:      shape.PassMarks,
		MaxRetakes:     shape.MaxRetakes,
		MinLessonTaken: shape.MinLessonTaken,
	}
	if err := tx.Create(&quiz).Error; err != nil {
		return err
	}
	for i := range shape.Questions {
		if err := s.createQuestion(tx, quiz.ID, shape.Questions[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *CurriculumSynchronizer) deleteLessonQuiz(tx *gorm.DB, lessonID uint) error {
	var quiz courseModels.Quiz
	if err := tx.Where("lesson_id = ?", lessonID).First(&quiz).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return s.deleteQuizSubtree(tx, quiz.ID)
}

func (s *CurriculumSynchronizer) deleteQuizSubtree(tx *gorm.DB, quizID uint) error {
	var questionIDs []uint
	if err := tx.Model(&courseModels.Question{}).Where("quiz_id = ?", quizID).Pluck("id", &questionIDs).Error; err != nil {
		return err
	}
	for _, id := range questionIDs {
		if err := s.deleteQuestion(tx, id); err != nil {
			return err
		}
	}
	return tx.Delete(&courseModels.Quiz{}, quizID).Error
}

func (s *CurriculumSynchronizer) syncQuestions(tx *gorm.DB, quizID uint, questions []QuestionShape) error {
	var existing []uint
	if err := tx.Model(&courseModels.Question{}).Where("quiz_id = ?", quizID).Pluck("id", &existing).Error; err != nil {
		return err
	}

	return reconcile(existing, len(questions),
		func(i int) uint { return questions[i].ID },
		func(i int) error { return s.createQuestion(tx, quizID, questions[i]) },
		func(i int) error { return s.updateQuestion(tx, quizID, questions[i]) },
		func(id uint) error { return s.deleteQuestion(tx, id) },
	)
}

func (s *CurriculumSynchronizer) createQuestion(tx *gorm.DB, quizID uint, shape QuestionShape) error {
	question := courseModels.Question{
		QuizID:   quizID,
		Type:     shape.Type,
		Question: shape.Question,
		Score:    shape.Score,
	}
	if err := tx.Create(&question).Error; err != nil {
		return err
	}
	for i := range shape.Answers {
		if err := createAnswer(tx, question.ID, shape.Answers[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *CurriculumSynchronizer) updateQuestion(tx *gorm.DB, quizID uint, shape QuestionShape) error {
	var question courseModels.Question
	if err := tx.Where("id = ? AND quiz_id = ?", shape.ID, quizID).First(&question).Error; err != nil {
		return err
	}

	question.Type = shape.Type
	question.Question = shape.Question
	question.Score = shape.Score
	if err := tx.Save(&question).Error; err != nil {
		return err
	}
	return syncAnswers(tx, question.ID, shape.Answers)
}

func (s *CurriculumSynchronizer) deleteQuestion(tx *gorm.DB, questionID uint) error {
	if err := tx.Where("question_id = ?", questionID).Delete(&courseModels.AnswerChoice{}).Error; err != nil {
		return err
	}
	return tx.Delete(&courseModels.Question{}, questionID).Error
}

func syncAnswers(tx *gorm.DB, questionID uint, answers []AnswerShape) error {
	var existing []uint
	if err := tx.Model(&courseModels.AnswerChoice{}).Where("question_id = ?", questionID).Pluck("id", &existing).Error; err != nil {
		return err
	}

	return reconcile(existing, len(answers),
		func(i int) uint { return answers[i].ID },
		func(i int) error { return createAnswer(tx, questionID, answers[i]) },
		func(i int) error {
			var choice courseModels.AnswerChoice
			if err := tx.Where("id = ? AND question_id = ?", answers[i].ID, questionID).First(&choice).Error; err != nil {
				return err
			}
			choice.Answer = answers[i].Answer
			choice.IsTrue = answers[i].IsTrue
			return tx.Save(&choice).Error
		},
		func(id uint) error { return tx.Delete(&courseModels.AnswerChoice{}, id).Error },
	)
}

func createAnswer(tx *gorm.DB, questionID uint, shape AnswerShape) error {
	choice := courseModels.AnswerChoice{
		QuestionID: questionID,
		Answer:     shape.Answer,
		IsTrue:     shape.IsTrue,
	}
	return tx.Create(&choice).Error
}

// loadTree returns the section with its full child tree, siblings ordered
// by their submitted sequence.
func (s *CurriculumSynchronizer) loadTree(sectionID uint) (*courseModels.Section, error) {
	var section courseModels.Section
	err := s.DB.
		Preload("Lessons", func(db *gorm.DB) *gorm.DB { return db.Order("sequence asc, id asc") }).
		Preload("Lessons.Attachments").
		Preload("Lessons.Quiz").
		Preload("Lessons.Quiz.Questions").
		Preload("Lessons.Quiz.Questions.Answers").
		First(&section, sectionID).Error
	if err != nil {
		return nil, err
	}
	return &section, nil
}
