package handler

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	// 补充标准库之外的图片格式支持
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// UploadImage 处理封面与头像图片上传，按上传者 ID 划分存储路径
func (a *API) UploadImage(c *gin.Context) {
	userID := currentUserID(c)

	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "missing uploaded file")
		return
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		respondError(c, http.StatusBadRequest, "only image uploads are allowed")
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "unreadable upload")
		return
	}
	config, _, err := image.DecodeConfig(src)
	src.Close()
	if err != nil {
		respondError(c, http.StatusBadRequest, "unsupported image format")
		return
	}

	ownerDir := filepath.Join(a.uploadDir, fmt.Sprintf("%d", userID))
	if err := os.MkdirAll(ownerDir, 0o755); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to prepare upload directory")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	filename := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), uuid.New().String(), ext)
	if err := c.SaveUploadedFile(file, filepath.Join(ownerDir, filename)); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to store upload")
		return
	}

	respondData(c, gin.H{
		"url":    fmt.Sprintf("%s/%d/%s", a.uploadURL, userID, filename),
		"width":  config.Width,
		"height": config.Height,
	})
}
