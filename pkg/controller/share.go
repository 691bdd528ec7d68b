package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/stashbin/stashbin/pkg/httputil"
)

// DownloadSharedFile is the anonymous capability path: the token in the URL
// is the only credential checked.
func (ct *Controller) DownloadSharedFile(c *gin.Context) {
	file, rc, appErr := ct.FileService.ResolveShare(c.Param("token"))
	if appErr != nil {
		httputil.NewError(c, appErr.Code, appErr.Error)
		return
	}
	defer rc.Close()

	serveFile(c, file, rc)
}
