package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stashbin/stashbin/pkg/httputil"
	"github.com/stashbin/stashbin/pkg/schemas"
)

func (ct *Controller) ListUsers(c *gin.Context) {
	res, appErr := ct.UserService.ListUsers()
	if appErr != nil {
		httputil.NewError(c, appErr.Code, appErr.Error)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (ct *Controller) GetUserByID(c *gin.Context) {
	id, ok := pathID(c, "userId")
	if !ok {
		return
	}

	res, appErr := ct.UserService.GetUser(id)
	if appErr != nil {
		httputil.NewError(c, appErr.Code, appErr.Error)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (ct *Controller) UpdateUser(c *gin.Context) {
	id, ok := pathID(c, "userId")
	if !ok {
		return
	}

	var patch schemas.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		httputil.NewError(c, http.StatusBadRequest, err)
		return
	}

	res, appErr := ct.UserService.SetAdmin(id, *patch.IsAdministrator)
	if appErr != nil {
		httputil.NewError(c, appErr.Code, appErr.Error)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (ct *Controller) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "userId")
	if !ok {
		return
	}

	if appErr := ct.UserService.DeleteUser(id); appErr != nil {
		httputil.NewError(c, appErr.Code, appErr.Error)
		return
	}

	c.JSON(http.StatusOK, schemas.Message{Message: "user deleted"})
}
