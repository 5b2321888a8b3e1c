package services

import (
	"testing"

	courseModels "lms/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func documentTree() SectionShape {
	return SectionShape{
		Sequence:  1,
		Title:     "Getting Started",
		Objective: "Basics",
		Lessons: []LessonShape{
			{
				Sequence: 1,
				Type:     courseModels.LessonDocument,
				Title:    "Reading Material",
				Attachments: []AttachmentShape{
					{Type: "pdf", Title: "Syllabus", URL: "https://example.com/syllabus.pdf"},
				},
			},
			{
				Sequence: 2,
				Type:     courseModels.LessonQuiz,
				Title:    "Checkpoint Quiz",
				Quiz: &QuizShape{
					Title:    "Checkpoint",
					Duration: "00:30:00",
					Questions: []QuestionShape{
						{
							Type:     courseModels.QuestionSingleChoice,
							Question: "Capital of France?",
							Score:    5,
							Answers: []AnswerShape{
								{Answer: "Paris", IsTrue: true},
								{Answer: "Lyon"},
							},
						},
					},
				},
			},
		},
	}
}

// shapeFromSection rebuilds a submission from the persisted tree with every
// id filled in, the way an instructor's editor resubmits unchanged content.
func shapeFromSection(section *courseModels.Section) SectionShape {
	shape := SectionShape{
		Sequence:  section.Sequence,
		Title:     section.Title,
		Objective: section.Objective,
	}
	for _, lesson := range section.Lessons {
		ls := LessonShape{
			ID:       lesson.ID,
			Sequence: lesson.Sequence,
			Type:     lesson.Type,
			Title:    lesson.Title,
			URL:      lesson.URL,
			Summary:  lesson.Summary,
			Datetime: lesson.Datetime,
		}
		for _, att := range lesson.Attachments {
			ls.Attachments = append(ls.Attachments, AttachmentShape{
				ID: att.ID, Type: att.Type, Title: att.Title, URL: att.URL,
			})
		}
		if lesson.Quiz != nil {
			qs := QuizShape{
				ID:          lesson.Quiz.ID,
				Title:       lesson.Quiz.Title,
				Instruction: lesson.Quiz.Instruction,
				Duration:    lesson.Quiz.Duration,
				TotalMarks:  lesson.Quiz.TotalMarks,
				PassMarks:   lesson.Quiz.PassMarks,
				MaxRetakes:  lesson.Quiz.MaxRetakes,
			}
			for _, q := range lesson.Quiz.Questions {
				question := QuestionShape{
					ID: q.ID, Type: q.Type, Question: q.Question, Score: q.Score,
				}
				for _, a := range q.Answers {
					question.Answers = append(question.Answers, AnswerShape{
						ID: a.ID, Answer: a.Answer, IsTrue: a.IsTrue,
					})
				}
				qs.Questions = append(qs.Questions, question)
			}
			ls.Quiz = &qs
		}
		shape.Lessons = append(shape.Lessons, ls)
	}
	return shape
}

func countRows(t *testing.T, sync *CurriculumSynchronizer, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, sync.DB.Model(model).Count(&n).Error)
	return n
}

func TestCreateFromTree(t *testing.T) {
	db := setupTestDB(t)
	files := newFakeFileStore()
	sync := NewCurriculumSynchronizer(db, files)
	c := createTestCourse(t, db)

	shape := documentTree()
	shape.Lessons[0].Attachments = append(shape.Lessons[0].Attachments, AttachmentShape{
		Type: "pdf", Title: "Workbook", File: makeFileHeader(t, "workbook.pdf", "contents"),
	})

	section, err := sync.CreateFromTree(c.ID, shape)
	require.NoError(t, err)

	assert.Equal(t, "Getting Started", section.Title)
	require.Len(t, section.Lessons, 2)

	doc := section.Lessons[0]
	require.Len(t, doc.Attachments, 2)
	assert.Equal(t, "https://example.com/syllabus.pdf", doc.Attachments[0].URL)
	assert.True(t, files.Exists(doc.Attachments[1].URL), "uploaded file should live in the blob store")

	quizLesson := section.Lessons[1]
	require.NotNil(t, quizLesson.Quiz)
	assert.Equal(t, "00:30:00", quizLesson.Quiz.Duration)
	require.Len(t, quizLesson.Quiz.Questions, 1)
	assert.Len(t, quizLesson.Quiz.Questions[0].Answers, 2)
	assert.Equal(t, c.ID, quizLesson.Quiz.CourseID)
}

func TestCreateFromTreeMissingCourse(t *testing.T) {
	db := setupTestDB(t)
	sync := NewCurriculumSynchronizer(db, newFakeFileStore())

	_, err := sync.CreateFromTree(9999, documentTree())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSyncSectionIdempotent(t *testing.T) {
	db := setupTestDB(t)
	files := newFakeFileStore()
	sync := NewCurriculumSynchronizer(db, files)
	c := createTestCourse(t, db)

	section, err := sync.CreateFromTree(c.ID, documentTree())
	require.NoError(t, err)

	lessons := countRows(t, sync, &courseModels.Lesson{})
	attachments := countRows(t, sync, &courseModels.Attachment{})
	questions := countRows(t, sync, &courseModels.Question{})
	answers := countRows(t, sync, &courseModels.AnswerChoice{})
	quizID := section.Lessons[1].Quiz.ID

	resynced, err := sync.SyncSection(section.ID, shapeFromSection(section))
	require.NoError(t, err)

	assert.Equal(t, lessons, countRows(t, sync, &courseModels.Lesson{}))
	assert.Equal(t, attachments, countRows(t, sync, &courseModels.Attachment{}))
	assert.Equal(t, questions, countRows(t, sync, &courseModels.Question{}))
	assert.Equal(t, answers, countRows(t, sync, &courseModels.AnswerChoice{}))
	assert.Equal(t, quizID, resynced.Lessons[1].Quiz.ID, "in-place update must keep the quiz row")
	assert.Empty(t, files.deleted, "resubmitting the same tree must not touch blobs")
}

func TestSyncSectionDeletesOmittedLessonWithCascade(t *testing.T) {
	db := setupTestDB(t)
	files := newFakeFileStore()
	sync := NewCurriculumSynchronizer(db, files)
	c := createTestCourse(t, db)

	shape := documentTree()
	shape.Lessons[0].Attachments = []AttachmentShape{
		{Type: "pdf", Title: "One", File: makeFileHeader(t, "one.pdf", "1")},
		{Type: "pdf", Title: "Two", File: makeFileHeader(t, "two.pdf", "2")},
	}
	section, err := sync.CreateFromTree(c.ID, shape)
	require.NoError(t, err)
	require.Len(t, files.blobs, 2)

	// Resubmit without the document lesson
	next := shapeFromSection(section)
	next.Lessons = next.Lessons[1:]

	updated, err := sync.SyncSection(section.ID, next)
	require.NoError(t, err)

	assert.Len(t, updated.Lessons, 1)
	assert.Equal(t, int64(0), countRows(t, sync, &courseModels.Attachment{}))
	assert.Empty(t, files.blobs, "both attachment blobs must be deleted")
	assert.Len(t, files.deleted, 2)
}

func TestSyncSectionTypeChangeCascade(t *testing.T) {
	db := setupTestDB(t)
	files := newFakeFileStore()
	sync := NewCurriculumSynchronizer(db, files)
	c := createTestCourse(t, db)

	shape := SectionShape{
		Title: "S",
		Lessons: []LessonShape{{
			Sequence: 1,
			Type:     courseModels.LessonDocument,
			Title:    "Was a document",
			Attachments: []AttachmentShape{
				{Type: "pdf", Title: "Doc", File: makeFileHeader(t, "doc.pdf", "x")},
			},
		}},
	}
	section, err := sync.CreateFromTree(c.ID, shape)
	require.NoError(t, err)
	require.Len(t, files.blobs, 1)

	next := shapeFromSection(section)
	next.Lessons[0].Type = courseModels.LessonQuiz
	next.Lessons[0].Attachments = nil
	next.Lessons[0].Quiz = &QuizShape{
		Title: "Now a quiz",
		Questions: []QuestionShape{
			{Type: courseModels.QuestionFillBlank, Question: "?", Score: 1, Answers: []AnswerShape{{Answer: "yes", IsTrue: true}}},
		},
	}

	updated, err := sync.SyncSection(section.ID, next)
	require.NoError(t, err)

	assert.Equal(t, int64(0), countRows(t, sync, &courseModels.Attachment{}))
	assert.Empty(t, files.blobs, "attachment blob must die with the type change")
	require.NotNil(t, updated.Lessons[0].Quiz)
	assert.Equal(t, "Now a quiz", updated.Lessons[0].Quiz.Title)
	assert.Equal(t, int64(1), countRows(t, sync, &courseModels.Quiz{}))
}

func TestSyncSectionQuizReplaceVsUpdate(t *testing.T) {
	db := setupTestDB(t)
	sync := NewCurriculumSynchronizer(db, newFakeFileStore())
	c := createTestCourse(t, db)

	section, err := sync.CreateFromTree(c.ID, documentTree())
	require.NoError(t, err)
	originalQuizID := section.Lessons[1].Quiz.ID

	// Same quiz id: update in place
	next := shapeFromSection(section)
	next.Lessons[1].Quiz.Title = "Renamed"
	updated, err := sync.SyncSection(section.ID, next)
	require.NoError(t, err)
	assert.Equal(t, originalQuizID, updated.Lessons[1].Quiz.ID)
	assert.Equal(t, "Renamed", updated.Lessons[1].Quiz.Title)

	// No quiz id: the persisted quiz subtree is replaced wholesale, even
	// though one exists
	next = shapeFromSection(updated)
	next.Lessons[1].Quiz = &QuizShape{
		Title: "Fresh quiz",
		Questions: []QuestionShape{
			{Type: courseModels.QuestionFillBlank, Question: "New?", Score: 2, Answers: []AnswerShape{{Answer: "new", IsTrue: true}}},
		},
	}
	replaced, err := sync.SyncSection(section.ID, next)
	require.NoError(t, err)

	assert.NotEqual(t, originalQuizID, replaced.Lessons[1].Quiz.ID)
	assert.Equal(t, int64(1), countRows(t, sync, &courseModels.Quiz{}))
	assert.Equal(t, int64(1), countRows(t, sync, &courseModels.Question{}))
	assert.Equal(t, "New?", replaced.Lessons[1].Quiz.Questions[0].Question)
}

func TestSyncSectionAttachmentFileReplaceDropsOldBlob(t *testing.T) {
	db := setupTestDB(t)
	files := newFakeFileStore()
	sync := NewCurriculumSynchronizer(db, files)
	c := createTestCourse(t, db)

	shape := SectionShape{
		Title: "S",
		Lessons: []LessonShape{{
			Type:  courseModels.LessonDocument,
			Title: "Doc",
			Attachments: []AttachmentShape{
				{Type: "pdf", Title: "V1", File: makeFileHeader(t, "v1.pdf", "v1")},
			},
		}},
	}
	section, err := sync.CreateFromTree(c.ID, shape)
	require.NoError(t, err)
	oldLocator := section.Lessons[0].Attachments[0].URL
	require.True(t, files.Exists(oldLocator))

	next := shapeFromSection(section)
	next.Lessons[0].Attachments[0].File = makeFileHeader(t, "v2.pdf", "v2")

	updated, err := sync.SyncSection(section.ID, next)
	require.NoError(t, err)

	newLocator := updated.Lessons[0].Attachments[0].URL
	assert.NotEqual(t, oldLocator, newLocator)
	assert.False(t, files.Exists(oldLocator), "old blob must be deleted before storing the new one")
	assert.True(t, files.Exists(newLocator))
	assert.Equal(t, []string{oldLocator}, files.deleted)
}

func TestSyncSectionRollsBackOnStorageFailure(t *testing.T) {
	db := setupTestDB(t)
	files := newFakeFileStore()
	sync := NewCurriculumSynchronizer(db, files)
	c := createTestCourse(t, db)

	section, err := sync.CreateFromTree(c.ID, documentTree())
	require.NoError(t, err)
	attachments := countRows(t, sync, &courseModels.Attachment{})

	files.failStore = true
	next := shapeFromSection(section)
	next.Lessons[0].Attachments = append(next.Lessons[0].Attachments, AttachmentShape{
		Type: "pdf", Title: "Doomed", File: makeFileHeader(t, "doomed.pdf", "x"),
	})

	_, err = sync.SyncSection(section.ID, next)
	require.Error(t, err)

	// No row may reference a blob that never persisted
	assert.Equal(t, attachments, countRows(t, sync, &courseModels.Attachment{}))
}

func TestSyncSectionUnknownChildIDCreates(t *testing.T) {
	db := setupTestDB(t)
	sync := NewCurriculumSynchronizer(db, newFakeFileStore())
	c := createTestCourse(t, db)

	section, err := sync.CreateFromTree(c.ID, documentTree())
	require.NoError(t, err)

	// A lesson id that does not exist under this section is treated as a
	// create, not an error
	next := shapeFromSection(section)
	next.Lessons = append(next.Lessons, LessonShape{
		ID:    424242,
		Type:  courseModels.LessonText,
		Title: "Lenient",
	})

	updated, err := sync.SyncSection(section.ID, next)
	require.NoError(t, err)
	assert.Len(t, updated.Lessons, 3)
}
