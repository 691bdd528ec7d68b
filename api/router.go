package api

import (
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/stashbin/stashbin/internal/auth"
	"github.com/stashbin/stashbin/internal/blob"
	"github.com/stashbin/stashbin/internal/cache"
	"github.com/stashbin/stashbin/internal/config"
	"github.com/stashbin/stashbin/pkg/controller"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func InitRouter(cnf *config.ServerCmdConfig, db *gorm.DB, store blob.Store, cacher cache.Cacher, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(logger, true))
	r.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		MaxAge: 12 * time.Hour,
	}))

	c := controller.NewController(db, store, cacher, cnf, logger.Sugar())

	authorized := auth.Middleware(cnf.JWT.Secret)

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", c.Register)
			authGroup.POST("/login", c.LogIn)
			authGroup.POST("/logout", authorized, c.LogOut)
			authGroup.GET("/session", authorized, c.GetSession)

			users := authGroup.Group("/users", authorized, auth.RequireAdmin)
			{
				users.GET("", c.ListUsers)
				users.GET(":userId", c.GetUserByID)
				users.PATCH(":userId", c.UpdateUser)
				users.DELETE(":userId", c.DeleteUser)
			}
		}

		storage := api.Group("/storage")
		{
			files := storage.Group("/files", authorized)
			{
				files.GET("", c.ListFiles)
				files.POST("", c.CreateFile)
				files.GET(":fileId", c.DownloadFile)
				files.PATCH(":fileId", c.UpdateFile)
				files.DELETE(":fileId", c.DeleteFile)
			}

			// anonymous: possession of the token is the authorization
			storage.GET("/share/:token", c.DownloadSharedFile)
		}
	}

	return r
}
