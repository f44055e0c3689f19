package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/inkpress/internal/db"
)

// PostService wraps the post lifecycle: creation, slug derivation,
// draft/published transitions, view counting and query assembly.
type PostService struct {
	db       *gorm.DB
	identity *IdentityService
}

// NewPostService creates a PostService instance.
func NewPostService(gdb *gorm.DB, identity *IdentityService) *PostService {
	return &PostService{db: gdb, identity: identity}
}

// PostInput represents fields accepted when creating a post.
type PostInput struct {
	Title      string
	Content    string
	Excerpt    string
	CoverImage string
	Status     string
	CategoryID *uint
	TagIDs     []uint
}

// PostUpdate 描述更新文章时可设置的字段，nil 表示保持原值。
// HasCategory 区分“未传 category_id”与“显式清空分类”。
type PostUpdate struct {
	Title       *string
	Content     *string
	Excerpt     *string
	CoverImage  *string
	Status      *string
	CategoryID  *uint
	HasCategory bool
}

// PostFilter describes filters for listing posts.
type PostFilter struct {
	Status     string
	AuthorID   uint
	CategoryID uint
	Limit      int
	Offset     int
}

// PostPage aggregates one page of posts with the unpaginated total.
type PostPage struct {
	Posts  []db.Post `json:"posts"`
	Total  int64     `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

// Create validates the input, derives a unique slug from the title and
// persists the post with its tag associations in one transaction. Requires
// the editor or admin role.
func (s *PostService) Create(callerID uint, input PostInput) (*db.Post, error) {
	if callerID == 0 {
		return nil, ErrAuthRequired
	}
	allowed, err := s.identity.HasAccess(callerID, db.RoleEditor, db.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrPermissionDenied
	}

	input.Title = strings.TrimSpace(input.Title)
	input.Content = strings.TrimSpace(input.Content)
	input.Excerpt = strings.TrimSpace(input.Excerpt)
	input.CoverImage = strings.TrimSpace(input.CoverImage)
	if input.Status == "" {
		input.Status = db.StatusDraft
	}

	if err := checkTitle(input.Title); err != nil {
		return nil, err
	}
	if err := checkContent(input.Content); err != nil {
		return nil, err
	}
	if err := checkExcerpt(input.Excerpt); err != nil {
		return nil, err
	}
	if err := checkCoverImage(input.CoverImage); err != nil {
		return nil, err
	}
	if err := checkStatus(input.Status); err != nil {
		return nil, err
	}

	post := db.Post{
		Title:      input.Title,
		Excerpt:    input.Excerpt,
		Content:    input.Content,
		CoverImage: input.CoverImage,
		Status:     input.Status,
		AuthorID:   callerID,
		CategoryID: input.CategoryID,
	}
	if input.Status == db.StatusPublished {
		now := time.Now()
		post.PublishedAt = &now
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if input.CategoryID != nil {
			var count int64
			if err := tx.Model(&db.Category{}).Where("id = ?", *input.CategoryID).Count(&count).Error; err != nil {
				return storeError("check category", err)
			}
			if count == 0 {
				return ErrCategoryNotFound
			}
		}

		slug, err := uniqueSlug(tx, Slugify(input.Title), 0)
		if err != nil {
			return err
		}
		post.Slug = slug

		if err := tx.Create(&post).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrSlugTaken
			}
			return storeError("create post", err)
		}

		return replaceTags(tx, &post, input.TagIDs)
	}); err != nil {
		return nil, err
	}

	return s.Get(post.ID)
}

// Update applies changed fields to an existing post. A new title re-derives
// the slug; any transition to published refreshes published_at, while
// unpublishing keeps the stale value. Caller must be the author or admin.
func (s *PostService) Update(callerID, postID uint, update PostUpdate) (*db.Post, error) {
	post, err := s.authorizeMutation(callerID, postID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if update.Title != nil {
			title := trimmed(update.Title)
			if err := checkTitle(title); err != nil {
				return err
			}
			if title != post.Title {
				slug, err := uniqueSlug(tx, Slugify(title), post.ID)
				if err != nil {
					return err
				}
				post.Slug = slug
			}
			post.Title = title
		}
		if update.Content != nil {
			content := trimmed(update.Content)
			if err := checkContent(content); err != nil {
				return err
			}
			post.Content = content
		}
		if update.Excerpt != nil {
			excerpt := trimmed(update.Excerpt)
			if err := checkExcerpt(excerpt); err != nil {
				return err
			}
			post.Excerpt = excerpt
		}
		if update.CoverImage != nil {
			coverImage := trimmed(update.CoverImage)
			if err := checkCoverImage(coverImage); err != nil {
				return err
			}
			post.CoverImage = coverImage
		}
		if update.HasCategory {
			if update.CategoryID != nil {
				var count int64
				if err := tx.Model(&db.Category{}).Where("id = ?", *update.CategoryID).Count(&count).Error; err != nil {
					return storeError("check category", err)
				}
				if count == 0 {
					return ErrCategoryNotFound
				}
			}
			post.CategoryID = update.CategoryID
		}
		if update.Status != nil {
			status := trimmed(update.Status)
			if err := checkStatus(status); err != nil {
				return err
			}
			post.Status = status
			if status == db.StatusPublished {
				// 每次发布都会刷新时间戳，取消发布时保留旧值
				now := time.Now()
				post.PublishedAt = &now
			}
		}

		if err := tx.Save(post).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrSlugTaken
			}
			return storeError("update post", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return s.Get(post.ID)
}

// Delete removes a post and cascades its comments and tag junctions.
// Caller must be the author or admin.
func (s *PostService) Delete(callerID, postID uint) error {
	post, err := s.authorizeMutation(callerID, postID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&db.Comment{}).Error; err != nil {
			return storeError("delete post", err)
		}
		if err := tx.Exec("DELETE FROM post_tags WHERE post_id = ?", post.ID).Error; err != nil {
			return storeError("delete post", err)
		}
		if err := tx.Delete(&db.Post{}, post.ID).Error; err != nil {
			return storeError("delete post", err)
		}
		return nil
	})
}

// Get fetches a post of any status by id with its associations preloaded.
func (s *PostService) Get(postID uint) (*db.Post, error) {
	var post db.Post
	if err := s.db.Preload("Author").Preload("Category").Preload("Tags").First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, storeError("load post", err)
	}
	return &post, nil
}

// GetBySlug 按 slug 获取已发布的文章，并在同一事务中把浏览量加一。
// 刷新页面会再次计数，这是有意保留的原始语义。
func (s *PostService) GetBySlug(slug string) (*db.Post, error) {
	var post db.Post
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Author").Preload("Category").Preload("Tags").
			Where("slug = ? AND status = ?", slug, db.StatusPublished).
			First(&post).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return storeError("load post", err)
		}

		if err := tx.Model(&db.Post{}).Where("id = ?", post.ID).
			UpdateColumn("views", gorm.Expr("views + 1")).Error; err != nil {
			return storeError("count view", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	post.Views++
	return &post, nil
}

// List provides paginated posts matching the filters, newest first. When
// filtering by published status the effective sort is published_at desc.
func (s *PostService) List(filter PostFilter) (*PostPage, error) {
	page := &PostPage{Limit: filter.Limit, Offset: filter.Offset}
	if page.Limit <= 0 {
		page.Limit = 10
	}
	if page.Offset < 0 {
		page.Offset = 0
	}

	query := s.db.Model(&db.Post{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.AuthorID != 0 {
		query = query.Where("author_id = ?", filter.AuthorID)
	}
	if filter.CategoryID != 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}

	if err := query.Count(&page.Total).Error; err != nil {
		return nil, storeError("count posts", err)
	}

	orderBy := "created_at desc, id desc"
	if strings.EqualFold(filter.Status, db.StatusPublished) {
		orderBy = "published_at desc, id desc"
	}

	if err := query.Preload("Author").Preload("Category").Preload("Tags").
		Order(orderBy).Limit(page.Limit).Offset(page.Offset).
		Find(&page.Posts).Error; err != nil {
		return nil, storeError("list posts", err)
	}
	return page, nil
}

// ListPublished is List restricted to published posts.
func (s *PostService) ListPublished(limit, offset int) (*PostPage, error) {
	return s.List(PostFilter{Status: db.StatusPublished, Limit: limit, Offset: offset})
}

// Search 在已发布文章的标题、正文和摘要中做大小写不敏感的子串匹配
func (s *PostService) Search(query string, limit, offset int) (*PostPage, error) {
	page := &PostPage{Limit: limit, Offset: offset}
	if page.Limit <= 0 {
		page.Limit = 10
	}
	if page.Offset < 0 {
		page.Offset = 0
	}

	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	base := s.db.Model(&db.Post{}).
		Where("status = ?", db.StatusPublished).
		Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ? OR LOWER(excerpt) LIKE ?", pattern, pattern, pattern)

	if err := base.Count(&page.Total).Error; err != nil {
		return nil, storeError("count posts", err)
	}

	if err := base.Preload("Author").Preload("Category").Preload("Tags").
		Order("published_at desc, id desc").Limit(page.Limit).Offset(page.Offset).
		Find(&page.Posts).Error; err != nil {
		return nil, storeError("search posts", err)
	}
	return page, nil
}

func (s *PostService) authorizeMutation(callerID, postID uint) (*db.Post, error) {
	if callerID == 0 {
		return nil, ErrAuthRequired
	}

	var post db.Post
	if err := s.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, storeError("load post", err)
	}

	if post.AuthorID != callerID {
		isAdmin, err := s.identity.IsAdmin(callerID)
		if err != nil {
			return nil, err
		}
		if !isAdmin {
			return nil, ErrPermissionDenied
		}
	}
	return &post, nil
}

// uniqueSlug appends counter suffixes (-2, -3, ...) until the slug is free.
// excludeID skips the post being updated so it can keep its own slug.
func uniqueSlug(tx *gorm.DB, base string, excludeID uint) (string, error) {
	if base == "" {
		base = "post"
	}

	slug := base
	for i := 2; ; i++ {
		query := tx.Model(&db.Post{}).Where("slug = ?", slug)
		if excludeID != 0 {
			query = query.Where("id <> ?", excludeID)
		}

		var count int64
		if err := query.Count(&count).Error; err != nil {
			return "", storeError("check slug", err)
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func replaceTags(tx *gorm.DB, post *db.Post, tagIDs []uint) error {
	var tags []db.Tag
	if len(tagIDs) > 0 {
		if err := tx.Where("id IN ?", tagIDs).Find(&tags).Error; err != nil {
			return storeError("load tags", err)
		}
		if len(tags) != len(tagIDs) {
			return ErrTagNotFound
		}
	}

	if err := tx.Model(post).Association("Tags").Replace(tags); err != nil {
		return storeError("replace tags", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}
