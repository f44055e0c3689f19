package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/service"
)

// ProfileActions 处理 /api/profiles 下的动作分发
func (a *API) ProfileActions(c *gin.Context) {
	req, ok := bindAction(c)
	if !ok {
		return
	}
	defer observeAction(c, "profiles", req.Action)

	switch req.Action {
	case "get-profile":
		a.getProfile(c, req)
	case "get-profile-by-username":
		a.getProfileByUsername(c, req)
	case "update-profile":
		a.updateProfile(c, req)
	case "get-user-roles":
		a.getUserRoles(c, req)
	case "get-all-profiles":
		a.getAllProfiles(c)
	case "update-user-role":
		a.updateUserRole(c, req)
	case "delete-profile":
		a.deleteProfile(c, req)
	default:
		respondUnknownAction(c)
	}
}

func (a *API) getProfile(c *gin.Context, req *actionRequest) {
	var data struct {
		UserID uint `json:"userId"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	user, err := a.profiles.Get(data.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, user)
}

func (a *API) getProfileByUsername(c *gin.Context, req *actionRequest) {
	var data struct {
		Username string `json:"username"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	user, err := a.profiles.GetByUsername(data.Username)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, user)
}

func (a *API) updateProfile(c *gin.Context, req *actionRequest) {
	var data struct {
		UserID  uint                       `json:"userId"`
		Updates map[string]json.RawMessage `json:"updates"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	var update service.ProfileUpdate
	for key, raw := range data.Updates {
		var err error
		switch key {
		case "username":
			err = json.Unmarshal(raw, &update.Username)
		case "full_name":
			err = json.Unmarshal(raw, &update.FullName)
		case "bio":
			err = json.Unmarshal(raw, &update.Bio)
		case "avatar_url":
			err = json.Unmarshal(raw, &update.AvatarURL)
		default:
			respondError(c, http.StatusUnprocessableEntity, "unknown update field: "+key)
			return
		}
		if err != nil {
			respondError(c, http.StatusUnprocessableEntity, "invalid value for field: "+key)
			return
		}
	}

	user, err := a.profiles.Update(currentUserID(c), data.UserID, update)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, user)
}

func (a *API) getUserRoles(c *gin.Context, req *actionRequest) {
	var data struct {
		UserID uint `json:"userId"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	roles, err := a.identity.RolesOf(data.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	list := make([]db.Role, 0, len(roles))
	for role := range roles {
		list = append(list, role)
	}
	respondData(c, list)
}

func (a *API) getAllProfiles(c *gin.Context) {
	profiles, err := a.profiles.ListAll(currentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, profiles)
}

func (a *API) updateUserRole(c *gin.Context, req *actionRequest) {
	var data struct {
		UserID uint   `json:"userId"`
		Role   string `json:"role"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	callerID := currentUserID(c)
	if data.Role == "" {
		// 空角色表示回到普通读者
		if err := a.identity.ClearRole(callerID, data.UserID); err != nil {
			respondServiceError(c, err)
			return
		}
		respondOK(c)
		return
	}

	if err := a.identity.SetRole(callerID, data.UserID, db.Role(data.Role)); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c)
}

func (a *API) deleteProfile(c *gin.Context, req *actionRequest) {
	var data struct {
		UserID uint `json:"userId"`
	}
	if !bindData(c, req.Data, &data) {
		return
	}

	if err := a.profiles.Delete(currentUserID(c), data.UserID); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c)
}
