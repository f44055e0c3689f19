package handler

import (
	"github.com/gin-gonic/gin"
)

// CommentActions 处理 /api/comments 下的动作分发
func (a *API) CommentActions(c *gin.Context) {
	req, ok := bindAction(c)
	if !ok {
		return
	}
	defer observeAction(c, "comments", req.Action)

	switch req.Action {
	case "create-comment":
		a.createComment(c, req)
	case "update-comment":
		a.updateComment(c, req)
	case "delete-comment":
		a.deleteComment(c, req)
	case "get-post-comments":
		a.getPostComments(c, req)
	case "get-comment":
		a.getComment(c, req)
	default:
		respondUnknownAction(c)
	}
}

func (a *API) createComment(c *gin.Context, req *actionRequest) {
	var data struct {
		PostID   uint   `json:"post_id"`
		Content  string `json:"content"`
		ParentID *uint  `json:"parent_id"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	comment, err := a.comments.Create(currentUserID(c), data.PostID, data.Content, data.ParentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, comment)
}

func (a *API) updateComment(c *gin.Context, req *actionRequest) {
	var data struct {
		CommentID uint   `json:"commentId"`
		Content   string `json:"content"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	comment, err := a.comments.Update(currentUserID(c), data.CommentID, data.Content)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, comment)
}

func (a *API) deleteComment(c *gin.Context, req *actionRequest) {
	var data struct {
		CommentID uint `json:"commentId"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	if err := a.comments.Delete(currentUserID(c), data.CommentID); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c)
}

func (a *API) getPostComments(c *gin.Context, req *actionRequest) {
	var data struct {
		PostID uint `json:"postId"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	thread, err := a.comments.GetThread(data.PostID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, thread)
}

func (a *API) getComment(c *gin.Context, req *actionRequest) {
	var data struct {
		CommentID uint `json:"commentId"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	comment, err := a.comments.Get(data.CommentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, comment)
}
