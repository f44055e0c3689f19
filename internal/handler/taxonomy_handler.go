package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkpress/internal/service"
)

// TaxonomyActions 处理 /api/taxonomy 下的动作分发
func (a *API) TaxonomyActions(c *gin.Context) {
	req, ok := bindAction(c)
	if !ok {
		return
	}
	defer observeAction(c, "taxonomy", req.Action)

	switch req.Action {
	case "create-category":
		a.createCategory(c, req)
	case "update-category":
		a.updateCategory(c, req)
	case "delete-category":
		a.deleteCategory(c, req)
	case "get-all-categories":
		a.getAllCategories(c)
	case "get-category":
		a.getCategory(c, req)
	case "get-category-by-slug":
		a.getCategoryBySlug(c, req)
	case "create-tag":
		a.createTag(c, req)
	case "get-all-tags":
		a.getAllTags(c)
	case "get-tag":
		a.getTag(c, req)
	case "add-post-tag":
		a.addPostTag(c, req)
	case "remove-post-tag":
		a.removePostTag(c, req)
	case "get-post-tags":
		a.getPostTags(c, req)
	case "update-post-tags":
		a.updatePostTags(c, req)
	default:
		respondUnknownAction(c)
	}
}

func (a *API) createCategory(c *gin.Context, req *actionRequest) {
	var data struct {
		Name        string `json:"name"`
		Slug        string `json:"slug"`
		Description string `json:"description"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	category, err := a.taxonomy.CreateCategory(currentUserID(c), service.CategoryInput{
		Name:        data.Name,
		Slug:        data.Slug,
		Description: data.Description,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, category)
}

func (a *API) updateCategory(c *gin.Context, req *actionRequest) {
	var data struct {
		CategoryID uint                       `json:"categoryId"`
		Updates    map[string]json.RawMessage `json:"updates"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	var update service.CategoryUpdate
	for key, raw := range data.Updates {
		var err error
		switch key {
		case "name":
			err = json.Unmarshal(raw, &update.Name)
		case "slug":
			err = json.Unmarshal(raw, &update.Slug)
		case "description":
			err = json.Unmarshal(raw, &update.Description)
		default:
			respondError(c, http.StatusUnprocessableEntity, "unknown update field: "+key)
			return
		}
		if err != nil {
			respondError(c, http.StatusUnprocessableEntity, "invalid value for field: "+key)
			return
		}
	}

	category, err := a.taxonomy.UpdateCategory(currentUserID(c), data.CategoryID, update)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, category)
}

func (a *API) deleteCategory(c *gin.Context, req *actionRequest) {
	var data struct {
		CategoryID uint `json:"categoryId"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	if err := a.taxonomy.DeleteCategory(currentUserID(c), data.CategoryID); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c)
}

func (a *API) getAllCategories(c *gin.Context) {
	categories, err := a.taxonomy.ListCategories()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, categories)
}

func (a *API) getCategory(c *gin.Context, req *actionRequest) {
	var data struct {
		CategoryID uint `json:"categoryId"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	category, err := a.taxonomy.GetCategory(data.CategoryID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, category)
}

func (a *API) getCategoryBySlug(c *gin.Context, req *actionRequest) {
	var data struct {
		Slug string `json:"slug"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	category, err := a.taxonomy.GetCategoryBySlug(data.Slug)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, category)
}

func (a *API) createTag(c *gin.Context, req *actionRequest) {
	var data struct {
		Name string `json:"name"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	tag, err := a.taxonomy.CreateTag(currentUserID(c), data.Name)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, tag)
}

func (a *API) getAllTags(c *gin.Context) {
	tags, err := a.taxonomy.ListTags()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, tags)
}

func (a *API) getTag(c *gin.Context, req *actionRequest) {
	var data struct {
		TagID uint `json:"tagId"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	tag, err := a.taxonomy.GetTag(data.TagID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, tag)
}

func (a *API) addPostTag(c *gin.Context, req *actionRequest) {
	var data struct {
		PostID uint `json:"postId"`
		TagID  uint `json:"tagId"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	if err := a.taxonomy.AddPostTag(currentUserID(c), data.PostID, data.TagID); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c)
}

func (a *API) removePostTag(c *gin.Context, req *actionRequest) {
	var data struct {
		PostID uint `json:"postId"`
		TagID  uint `json:"tagId"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	if err := a.taxonomy.RemovePostTag(currentUserID(c), data.PostID, data.TagID); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c)
}

func (a *API) getPostTags(c *gin.Context, req *actionRequest) {
	var data struct {
		PostID uint `json:"postId"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	tags, err := a.taxonomy.PostTags(data.PostID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, tags)
}

func (a *API) updatePostTags(c *gin.Context, req *actionRequest) {
	var data struct {
		PostID uint   `json:"postId"`
		TagIDs []uint `json:"tagIds"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	if err := a.taxonomy.SetPostTags(currentUserID(c), data.PostID, data.TagIDs); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c)
}
