package service

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/inkpress/internal/db"
)

// TaxonomyService 负责分类与标签：分类的增删改查、标签维护以及
// 文章与标签之间 junction 行的维护
type TaxonomyService struct {
	db       *gorm.DB
	identity *IdentityService
}

// NewTaxonomyService 构造 TaxonomyService
func NewTaxonomyService(gdb *gorm.DB, identity *IdentityService) *TaxonomyService {
	return &TaxonomyService{db: gdb, identity: identity}
}

// CategoryInput represents fields accepted when creating a category.
type CategoryInput struct {
	Name        string
	Slug        string
	Description string
}

// CategoryUpdate 描述更新分类时可设置的字段，nil 表示保持原值
type CategoryUpdate struct {
	Name        *string
	Slug        *string
	Description *string
}

// CreateCategory inserts a category with a unique, URL-safe slug. The slug is
// derived from the name when not given explicitly. Admin only.
func (s *TaxonomyService) CreateCategory(callerID uint, input CategoryInput) (*db.Category, error) {
	if err := s.identity.requireAdmin(callerID); err != nil {
		return nil, err
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	if err := checkTaxonomyName(input.Name); err != nil {
		return nil, err
	}

	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = input.Name
	}
	slug = Slugify(slug)
	if slug == "" {
		return nil, validationFailed("slug", "must contain URL-safe characters")
	}

	var count int64
	if err := s.db.Model(&db.Category{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return nil, storeError("check slug", err)
	}
	if count > 0 {
		return nil, ErrSlugTaken
	}

	category := db.Category{Name: input.Name, Slug: slug, Description: input.Description}
	if err := s.db.Create(&category).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, storeError("create category", err)
	}
	return &category, nil
}

// UpdateCategory applies changed fields to a category. Admin only.
func (s *TaxonomyService) UpdateCategory(callerID, categoryID uint, update CategoryUpdate) (*db.Category, error) {
	if err := s.identity.requireAdmin(callerID); err != nil {
		return nil, err
	}

	category, err := s.GetCategory(categoryID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		name := trimmed(update.Name)
		if err := checkTaxonomyName(name); err != nil {
			return nil, err
		}
		category.Name = name
	}
	if update.Slug != nil {
		slug := Slugify(trimmed(update.Slug))
		if slug == "" {
			return nil, validationFailed("slug", "must contain URL-safe characters")
		}
		if slug != category.Slug {
			var count int64
			if err := s.db.Model(&db.Category{}).Where("slug = ? AND id <> ?", slug, categoryID).Count(&count).Error; err != nil {
				return nil, storeError("check slug", err)
			}
			if count > 0 {
				return nil, ErrSlugTaken
			}
		}
		category.Slug = slug
	}
	if update.Description != nil {
		category.Description = trimmed(update.Description)
	}

	if err := s.db.Save(category).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, storeError("update category", err)
	}
	return category, nil
}

// DeleteCategory removes a category and detaches its posts. Admin only.
func (s *TaxonomyService) DeleteCategory(callerID, categoryID uint) error {
	if err := s.identity.requireAdmin(callerID); err != nil {
		return err
	}

	if _, err := s.GetCategory(categoryID); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&db.Post{}).Where("category_id = ?", categoryID).
			Update("category_id", nil).Error; err != nil {
			return storeError("delete category", err)
		}
		if err := tx.Delete(&db.Category{}, categoryID).Error; err != nil {
			return storeError("delete category", err)
		}
		return nil
	})
}

// GetCategory fetches a category by id.
func (s *TaxonomyService) GetCategory(categoryID uint) (*db.Category, error) {
	var category db.Category
	if err := s.db.First(&category, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, storeError("load category", err)
	}
	return &category, nil
}

// GetCategoryBySlug fetches a category by its unique slug.
func (s *TaxonomyService) GetCategoryBySlug(slug string) (*db.Category, error) {
	var category db.Category
	if err := s.db.Where("slug = ?", strings.TrimSpace(slug)).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, storeError("load category", err)
	}
	return &category, nil
}

// ListCategories returns all categories ordered by name.
func (s *TaxonomyService) ListCategories() ([]db.Category, error) {
	var categories []db.Category
	if err := s.db.Order("name asc").Find(&categories).Error; err != nil {
		return nil, storeError("list categories", err)
	}
	return categories, nil
}

// CreateTag inserts a tag with a unique slug derived from its name. Admin only.
func (s *TaxonomyService) CreateTag(callerID uint, name string) (*db.Tag, error) {
	if err := s.identity.requireAdmin(callerID); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if err := checkTaxonomyName(name); err != nil {
		return nil, err
	}

	slug := Slugify(name)
	if slug == "" {
		return nil, validationFailed("name", "must contain URL-safe characters")
	}

	var count int64
	if err := s.db.Model(&db.Tag{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return nil, storeError("check slug", err)
	}
	if count > 0 {
		return nil, ErrSlugTaken
	}

	tag := db.Tag{Name: name, Slug: slug}
	if err := s.db.Create(&tag).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, storeError("create tag", err)
	}
	return &tag, nil
}

// GetTag fetches a tag by id.
func (s *TaxonomyService) GetTag(tagID uint) (*db.Tag, error) {
	var tag db.Tag
	if err := s.db.First(&tag, tagID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, storeError("load tag", err)
	}
	return &tag, nil
}

// ListTags returns all tags ordered by name.
func (s *TaxonomyService) ListTags() ([]db.Tag, error) {
	var tags []db.Tag
	if err := s.db.Order("name asc").Find(&tags).Error; err != nil {
		return nil, storeError("list tags", err)
	}
	return tags, nil
}

// AddPostTag attaches a single tag to a post. Caller must be the post's
// author or admin.
func (s *TaxonomyService) AddPostTag(callerID, postID, tagID uint) error {
	post, err := s.authorizePostMutation(callerID, postID)
	if err != nil {
		return err
	}

	tag, err := s.GetTag(tagID)
	if err != nil {
		return err
	}

	if err := s.db.Model(post).Association("Tags").Append(tag); err != nil {
		return storeError("add post tag", err)
	}
	return nil
}

// RemovePostTag detaches a single tag from a post.
func (s *TaxonomyService) RemovePostTag(callerID, postID, tagID uint) error {
	post, err := s.authorizePostMutation(callerID, postID)
	if err != nil {
		return err
	}

	tag, err := s.GetTag(tagID)
	if err != nil {
		return err
	}

	if err := s.db.Model(post).Association("Tags").Delete(tag); err != nil {
		return storeError("remove post tag", err)
	}
	return nil
}

// SetPostTags 以替换语义更新文章的标签集合：先清空 junction 行再写入
// 给定集合，空集合表示清空全部标签。整个序列在一个事务内完成。
func (s *TaxonomyService) SetPostTags(callerID, postID uint, tagIDs []uint) error {
	post, err := s.authorizePostMutation(callerID, postID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		return replaceTags(tx, post, tagIDs)
	})
}

// PostTags returns the tags currently attached to a post.
func (s *TaxonomyService) PostTags(postID uint) ([]db.Tag, error) {
	var post db.Post
	if err := s.db.Preload("Tags").First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, storeError("load post", err)
	}
	if post.Tags == nil {
		return []db.Tag{}, nil
	}
	return post.Tags, nil
}

func (s *TaxonomyService) authorizePostMutation(callerID, postID uint) (*db.Post, error) {
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
