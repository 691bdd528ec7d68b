package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stashbin/stashbin/internal/blob"
	"github.com/stashbin/stashbin/internal/cache"
	"github.com/stashbin/stashbin/internal/config"
	"github.com/stashbin/stashbin/pkg/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Controller struct {
	AuthService *services.AuthService
	FileService *services.FileService
	UserService *services.UserService

	cnf *config.ServerCmdConfig
}

func NewController(db *gorm.DB, store blob.Store, cacher cache.Cacher, cnf *config.ServerCmdConfig, logger *zap.SugaredLogger) *Controller {
	return &Controller{
		AuthService: services.NewAuthService(db, &cnf.JWT, logger),
		FileService: services.NewFileService(db, store, cacher, logger),
		UserService: services.NewUserService(db, store, cacher, logger),
		cnf:         cnf,
	}
}

// baseURL is used to build absolute share links: the configured base wins,
// otherwise the requesting host.
func (ct *Controller) baseURL(c *gin.Context) string {
	if ct.cnf.Storage.BaseURL != "" {
		return ct.cnf.Storage.BaseURL
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return 0, false
	}
	return id, true
}
