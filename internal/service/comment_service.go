package service

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/inkpress/internal/db"
)

// CommentService 负责文章下的评论：单层嵌套的讨论串
type CommentService struct {
	db       *gorm.DB
	identity *IdentityService
}

// NewCommentService 构造 CommentService
func NewCommentService(gdb *gorm.DB, identity *IdentityService) *CommentService {
	return &CommentService{db: gdb, identity: identity}
}

// Create adds a comment to a post. A parent comment must exist on the same
// post and be top-level: replies to replies fail validation.
func (s *CommentService) Create(authorID, postID uint, content string, parentID *uint) (*db.Comment, error) {
	if authorID == 0 {
		return nil, ErrAuthRequired
	}

	content = strings.TrimSpace(content)
	if err := checkCommentContent(content); err != nil {
		return nil, err
	}

	var post db.Post
	if err := s.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, storeError("load post", err)
	}

	if parentID != nil {
		var parent db.Comment
		if err := s.db.First(&parent, *parentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, validationFailed("parent_id", "parent comment does not exist")
			}
			return nil, storeError("load comment", err)
		}
		if parent.PostID != postID {
			return nil, validationFailed("parent_id", "parent comment belongs to another post")
		}
		if parent.ParentID != nil {
			return nil, validationFailed("parent_id", "replies to replies are not allowed")
		}
	}

	comment := db.Comment{
		PostID:   postID,
		AuthorID: authorID,
		Content:  content,
		ParentID: parentID,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, storeError("create comment", err)
	}

	return s.Get(comment.ID)
}

// Get fetches a comment by id with its author preloaded.
func (s *CommentService) Get(commentID uint) (*db.Comment, error) {
	var comment db.Comment
	if err := s.db.Preload("Author").First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, storeError("load comment", err)
	}
	return &comment, nil
}

// GetThread 返回文章的顶层评论（按时间升序），每条评论内嵌其回复
func (s *CommentService) GetThread(postID uint) ([]db.Comment, error) {
	var count int64
	if err := s.db.Model(&db.Post{}).Where("id = ?", postID).Count(&count).Error; err != nil {
		return nil, storeError("load post", err)
	}
	if count == 0 {
		return nil, ErrPostNotFound
	}

	var comments []db.Comment
	if err := s.db.Preload("Author").
		Preload("Replies", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at asc, id asc").Preload("Author")
		}).
		Where("post_id = ? AND parent_id IS NULL", postID).
		Order("created_at asc, id asc").
		Find(&comments).Error; err != nil {
		return nil, storeError("list comments", err)
	}
	return comments, nil
}

// Update rewrites a comment's content. Caller must be the comment's author
// or admin.
func (s *CommentService) Update(callerID, commentID uint, content string) (*db.Comment, error) {
	comment, err := s.authorizeMutation(callerID, commentID)
	if err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if err := checkCommentContent(content); err != nil {
		return nil, err
	}

	comment.Content = content
	if err := s.db.Save(comment).Error; err != nil {
		return nil, storeError("update comment", err)
	}
	return s.Get(comment.ID)
}

// Delete removes a comment and, for a top-level comment, its replies.
func (s *CommentService) Delete(callerID, commentID uint) error {
	comment, err := s.authorizeMutation(callerID, commentID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if comment.ParentID == nil {
			if err := tx.Where("parent_id = ?", comment.ID).Delete(&db.Comment{}).Error; err != nil {
				return storeError("delete comment", err)
			}
		}
		if err := tx.Delete(&db.Comment{}, comment.ID).Error; err != nil {
			return storeError("delete comment", err)
		}
		return nil
	})
}

func (s *CommentService) authorizeMutation(callerID, commentID uint) (*db.Comment, error) {
	if callerID == 0 {
		return nil, ErrAuthRequired
	}

	var comment db.Comment
	if err := s.db.First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, storeError("load comment", err)
	}

	if comment.AuthorID != callerID {
		isAdmin, err := s.identity.IsAdmin(callerID)
		if err != nil {
			return nil, err
		}
		if !isAdmin {
			return nil, ErrPermissionDenied
		}
	}
	return &comment, nil
}
