package controller

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/stashbin/stashbin/internal/auth"
	"github.com/stashbin/stashbin/pkg/httputil"
	"github.com/stashbin/stashbin/pkg/mapper"
	"github.com/stashbin/stashbin/pkg/models"
	"github.com/stashbin/stashbin/pkg/schemas"
)

func (ct *Controller) ListFiles(c *gin.Context) {
	var fquery schemas.FileQuery
	if err := c.ShouldBindQuery(&fquery); err != nil {
		httputil.NewError(c, http.StatusBadRequest, err)
		return
	}

	files, appErr := ct.FileService.ListFiles(auth.GetActor(c), &fquery)
	if appErr != nil {
		httputil.NewError(c, appErr.Code, appErr.Error)
		return
	}

	base := ct.baseURL(c)
	out := make([]schemas.FileOut, 0, len(files))
	for i := range files {
		out = append(out, *mapper.ToFileOut(&files[i], base))
	}

	c.JSON(http.StatusOK, out)
}

func (ct *Controller) CreateFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		httputil.NewError(c, http.StatusBadRequest, err)
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		httputil.NewError(c, http.StatusBadRequest, err)
		return
	}
	defer src.Close()

	res, appErr := ct.FileService.CreateFile(auth.GetActor(c), fileHeader.Filename, c.PostForm("comment"), src)
	if appErr != nil {
		httputil.NewError(c, appErr.Code, appErr.Error)
		return
	}

	c.JSON(http.StatusCreated, mapper.ToFileOut(res, ct.baseURL(c)))
}

func (ct *Controller) DownloadFile(c *gin.Context) {
	id, ok := pathID(c, "fileId")
	if !ok {
		return
	}

	file, rc, appErr := ct.FileService.OpenFile(auth.GetActor(c), id)
	if appErr != nil {
		httputil.NewError(c, appErr.Code, appErr.Error)
		return
	}
	defer rc.Close()

	serveFile(c, file, rc)
}

func (ct *Controller) UpdateFile(c *gin.Context) {
	id, ok := pathID(c, "fileId")
	if !ok {
		return
	}

	var patch schemas.FilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		httputil.NewError(c, http.StatusBadRequest, err)
		return
	}

	res, appErr := ct.FileService.UpdateFile(auth.GetActor(c), id, &patch)
	if appErr != nil {
		httputil.NewError(c, appErr.Code, appErr.Error)
		return
	}

	c.JSON(http.StatusOK, mapper.ToFileOut(res, ct.baseURL(c)))
}

func (ct *Controller) DeleteFile(c *gin.Context) {
	id, ok := pathID(c, "fileId")
	if !ok {
		return
	}

	if appErr := ct.FileService.DeleteFile(auth.GetActor(c), id); appErr != nil {
		httputil.NewError(c, appErr.Code, appErr.Error)
		return
	}

	c.JSON(http.StatusOK, schemas.Message{Message: "file deleted"})
}

func serveFile(c *gin.Context, file *models.File, rc io.Reader) {
	mimeType := mime.TypeByExtension(filepath.Ext(file.OriginalName))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	extraHeaders := map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": file.OriginalName}),
	}

	c.DataFromReader(http.StatusOK, file.Size, mimeType, rc, extraHeaders)
}
