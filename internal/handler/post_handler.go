package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/service"
)

// postView 在文章 JSON 之外附带渲染好的正文 HTML
type postView struct {
	*db.Post
	ContentHTML string `json:"content_html"`
}

// PostActions 处理 /api/posts 下的动作分发
func (a *API) PostActions(c *gin.Context) {
	req, ok := bindAction(c)
	if !ok {
		return
	}
	defer observeAction(c, "posts", req.Action)

	switch req.Action {
	case "create-post":
		a.createPost(c, req)
	case "update-post":
		a.updatePost(c, req)
	case "delete-post":
		a.deletePost(c, req)
	case "get-post":
		a.getPost(c, req)
	case "get-post-by-slug":
		a.getPostBySlug(c, req)
	case "get-all-posts":
		a.getAllPosts(c, req)
	case "get-published-posts":
		a.getPublishedPosts(c, req)
	case "search-posts":
		a.searchPosts(c, req)
	default:
		respondUnknownAction(c)
	}
}

func (a *API) createPost(c *gin.Context, req *actionRequest) {
	var data struct {
		Title      string `json:"title"`
		Content    string `json:"content"`
		Excerpt    string `json:"excerpt"`
		CoverImage string `json:"cover_image"`
		Status     string `json:"status"`
		CategoryID *uint  `json:"category_id"`
		TagIDs     []uint `json:"tag_ids"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	post, err := a.posts.Create(currentUserID(c), service.PostInput{
		Title:      data.Title,
		Content:    data.Content,
		Excerpt:    data.Excerpt,
		CoverImage: data.CoverImage,
		Status:     data.Status,
		CategoryID: data.CategoryID,
		TagIDs:     data.TagIDs,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, post)
}

func (a *API) updatePost(c *gin.Context, req *actionRequest) {
	var data struct {
		PostID  uint                       `json:"postId"`
		Updates map[string]json.RawMessage `json:"updates"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	update, ok := decodePostUpdate(c, data.Updates)
	if !ok {
		return
	}

	post, err := a.posts.Update(currentUserID(c), data.PostID, update)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, post)
}

// decodePostUpdate 把更新载荷限制在一个封闭的字段集合内，未知键直接拒绝
func decodePostUpdate(c *gin.Context, updates map[string]json.RawMessage) (service.PostUpdate, bool) {
	var update service.PostUpdate
	for key, raw := range updates {
		var err error
		switch key {
		case "title":
			err = json.Unmarshal(raw, &update.Title)
		case "content":
			err = json.Unmarshal(raw, &update.Content)
		case "excerpt":
			err = json.Unmarshal(raw, &update.Excerpt)
		case "cover_image":
			err = json.Unmarshal(raw, &update.CoverImage)
		case "status":
			err = json.Unmarshal(raw, &update.Status)
		case "category_id":
			err = json.Unmarshal(raw, &update.CategoryID)
			update.HasCategory = true
		default:
			respondError(c, http.StatusUnprocessableEntity, "unknown update field: "+key)
			return update, false
		}
		if err != nil {
			respondError(c, http.StatusUnprocessableEntity, "invalid value for field: "+key)
			return update, false
		}
	}
	return update, true
}

func (a *API) deletePost(c *gin.Context, req *actionRequest) {
	var data struct {
		PostID uint `json:"postId"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	if err := a.posts.Delete(currentUserID(c), data.PostID); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c)
}

func (a *API) getPost(c *gin.Context, req *actionRequest) {
	var data struct {
		PostID uint `json:"postId"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	post, err := a.posts.Get(data.PostID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, post)
}

func (a *API) getPostBySlug(c *gin.Context, req *actionRequest) {
	var data struct {
		Slug string `json:"slug"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	post, err := a.posts.GetBySlug(data.Slug)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	rendered, err := service.RenderMarkdown(post.Content)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to render content")
		return
	}
	respondData(c, postView{Post: post, ContentHTML: rendered})
}

func (a *API) getAllPosts(c *gin.Context, req *actionRequest) {
	var data struct {
		Status     string `json:"status"`
		AuthorID   uint   `json:"authorId"`
		CategoryID uint   `json:"categoryId"`
		Limit      int    `json:"limit"`
		Offset     int    `json:"offset"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	page, err := a.posts.List(service.PostFilter{
		Status:     data.Status,
		AuthorID:   data.AuthorID,
		CategoryID: data.CategoryID,
		Limit:      data.Limit,
		Offset:     data.Offset,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, page)
}

func (a *API) getPublishedPosts(c *gin.Context, req *actionRequest) {
	var data struct {
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	page, err := a.posts.ListPublished(data.Limit, data.Offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, page)
}

func (a *API) searchPosts(c *gin.Context, req *actionRequest) {
	var data struct {
		Query  string `json:"query"`
		Limit  int    `json:"limit"`
		Offset int    `json:"offset"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	page, err := a.posts.Search(data.Query, data.Limit, data.Offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, page)
}
