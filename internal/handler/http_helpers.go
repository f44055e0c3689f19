package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/inkpress/internal/metrics"
	"github.com/inkpress/internal/service"
)

const sessionUserKey = "user_id"

// actionRequest 是所有 API 端点共享的请求信封
type actionRequest struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

func bindAction(c *gin.Context) (*actionRequest, bool) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "malformed request body")
		return nil, false
	}
	if req.Action == "" {
		respondError(c, http.StatusBadRequest, "missing action")
		return nil, false
	}
	return &req, true
}

func bindData(c *gin.Context, raw json.RawMessage, dst interface{}) bool {
	if len(raw) == 0 {
		respondError(c, http.StatusBadRequest, "missing data payload")
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		respondError(c, http.StatusBadRequest, "malformed data payload")
		return false
	}
	return true
}

func respondData(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func respondOK(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func respondUnknownAction(c *gin.Context) {
	respondError(c, http.StatusBadRequest, "invalid action")
}

// respondServiceError 把服务层的错误分类映射到 HTTP 状态码
func respondServiceError(c *gin.Context, err error) {
	var storeErr *service.StoreError

	switch {
	case service.IsValidation(err):
		respondError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrAuthRequired):
		respondError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrPermissionDenied):
		respondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, err.Error())
	case service.IsNotFound(err):
		respondError(c, http.StatusNotFound, err.Error())
	case service.IsConflict(err):
		respondError(c, http.StatusConflict, err.Error())
	case errors.As(err, &storeErr):
		log.Printf("store error: %v: %v", storeErr.Op, storeErr.Unwrap())
		respondError(c, http.StatusInternalServerError, storeErr.Error())
	default:
		respondError(c, http.StatusInternalServerError, "internal error")
	}
}

// currentUserID 从会话中取出调用者身份，未登录时返回 0
func currentUserID(c *gin.Context) uint {
	session := sessions.Default(c)
	value := session.Get(sessionUserKey)
	if value == nil {
		return 0
	}
	if id, ok := value.(uint); ok {
		return id
	}
	return 0
}

func observeAction(c *gin.Context, domain, action string) {
	outcome := "ok"
	if c.Writer.Status() >= http.StatusBadRequest {
		outcome = "error"
	}
	metrics.ActionsTotal.WithLabelValues(domain, action, outcome).Inc()
}
