package course

import "gorm.io/gorm"

// Course represents a learning course
type Course struct {
	gorm.Model
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Author       string    `json:"author"`
	Status       string    `json:"status" gorm:"default:'DRAFT'"` // DRAFT, ACTIVE, INACTIVE
	ThumbnailURL string    `json:"thumbnail_url"`
	IsPublished  bool      `json:"is_published" gorm:"default:false"`
	IsDeleted    bool      `gorm:"default:false"`
	Sections     []Section `json:"sections,omitempty" gorm:"foreignKey:CourseID"`
}
