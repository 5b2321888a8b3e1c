package course

import "gorm.io/gorm"

// Section represents an ordered group of lessons within a course
type Section struct {
	gorm.Model
	CourseID  uint     `json:"course_id" gorm:"index;not null"`
	Sequence  int      `json:"sequence" gorm:"default:0"` // Section order in course
	Title     string   `json:"title"`
	Objective string   `json:"objective"`
	Lessons   []Lesson `json:"lessons,omitempty" gorm:"foreignKey:SectionID"`
}
