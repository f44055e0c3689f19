package handler

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/inkpress/internal/service"
)

// AuthActions 处理 /api/auth 下的动作分发
func (a *API) AuthActions(c *gin.Context) {
	req, ok := bindAction(c)
	if !ok {
		return
	}
	defer observeAction(c, "auth", req.Action)

	switch req.Action {
	case "signup":
		a.signup(c, req)
	case "login":
		a.login(c, req)
	case "logout":
		a.logout(c)
	case "update-password":
		a.updatePassword(c, req)
	default:
		respondUnknownAction(c)
	}
}

func (a *API) signup(c *gin.Context, req *actionRequest) {
	var data struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	user, err := a.profiles.Register(service.RegisterInput{
		Username: data.Username,
		Email:    data.Email,
		Password: data.Password,
		FullName: data.FullName,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if !saveSessionUser(c, user.ID) {
		return
	}
	respondData(c, user)
}

func (a *API) login(c *gin.Context, req *actionRequest) {
	var data struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	user, err := a.profiles.Authenticate(data.Email, data.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if !saveSessionUser(c, user.ID) {
		return
	}
	respondData(c, user)
}

func (a *API) logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to clear session")
		return
	}
	respondOK(c)
}

func (a *API) updatePassword(c *gin.Context, req *actionRequest) {
	var data struct {
		Password string `json:"password"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	if err := a.profiles.UpdatePassword(currentUserID(c), data.Password); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c)
}

func saveSessionUser(c *gin.Context, userID uint) bool {
	session := sessions.Default(c)
	session.Set(sessionUserKey, userID)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save session")
		return false
	}
	return true
}
