package db

import "time"

// PostStatus 是文章生命周期的两个状态
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Post 定义了文章模型
type Post struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Title       string     `gorm:"not null" json:"title"`
	Slug        string     `gorm:"uniqueIndex;not null" json:"slug"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `gorm:"not null" json:"content"`
	CoverImage  string     `json:"cover_image"`
	Status      string     `gorm:"not null;default:draft;index" json:"status"`
	Views       int64      `gorm:"not null;default:0" json:"views"`
	PublishedAt *time.Time `json:"published_at"`
	AuthorID    uint       `gorm:"index;not null" json:"author_id"`
	Author      User       `json:"author"`
	CategoryID  *uint      `gorm:"index" json:"category_id"`
	Category    *Category  `json:"category,omitempty"`
	Tags        []Tag      `gorm:"many2many:post_tags;" json:"tags"`
}
