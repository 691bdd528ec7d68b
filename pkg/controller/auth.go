package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stashbin/stashbin/internal/auth"
	"github.com/stashbin/stashbin/pkg/httputil"
	"github.com/stashbin/stashbin/pkg/schemas"
)

func (ct *Controller) Register(c *gin.Context) {
	var payload schemas.Register
	if err := c.ShouldBindJSON(&payload); err != nil {
		httputil.NewError(c, http.StatusBadRequest, err)
		return
	}

	res, appErr := ct.AuthService.Register(&payload)
	if appErr != nil {
		httputil.NewError(c, appErr.Code, appErr.Error)
		return
	}

	c.JSON(http.StatusCreated, res)
}

func (ct *Controller) LogIn(c *gin.Context) {
	var payload schemas.Login
	if err := c.ShouldBindJSON(&payload); err != nil {
		httputil.NewError(c, http.StatusBadRequest, err)
		return
	}

	user, token, appErr := ct.AuthService.Login(&payload)
	if appErr != nil {
		httputil.NewError(c, appErr.Code, appErr.Error)
		return
	}

	ct.setSessionCookie(c, token, int(ct.cnf.JWT.SessionTime.Seconds()))

	c.JSON(http.StatusOK, user)
}

func (ct *Controller) LogOut(c *gin.Context) {
	ct.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, schemas.Message{Message: "logged out"})
}

func (ct *Controller) GetSession(c *gin.Context) {
	res, appErr := ct.AuthService.Session(auth.GetActor(c))
	if appErr != nil {
		httputil.NewError(c, appErr.Code, appErr.Error)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (ct *Controller) setSessionCookie(c *gin.Context, value string, age int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookieName, value, age, "/", "", c.Request.TLS != nil, true)
}
