package db

import "time"

// Comment 定义了评论模型，parent_id 指向同一篇文章下的顶层评论，
// 嵌套深度最多一层（由 CommentService 保证，而不是表结构）
type Comment struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	PostID    uint      `gorm:"index;not null" json:"post_id"`
	AuthorID  uint      `gorm:"index;not null" json:"author_id"`
	Author    User      `json:"author"`
	Content   string    `gorm:"not null" json:"content"`
	ParentID  *uint     `gorm:"index" json:"parent_id"`
	Replies   []Comment `gorm:"foreignKey:ParentID" json:"replies,omitempty"`
}
