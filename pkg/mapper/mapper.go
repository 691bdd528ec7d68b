package mapper

import (
	"fmt"
	"strings"

	"github.com/stashbin/stashbin/pkg/models"
	"github.com/stashbin/stashbin/pkg/schemas"
)

func ToFileOut(file *models.File, baseURL string) *schemas.FileOut {
	var owner string
	if file.User != nil {
		owner = file.User.Username
	}
	out := &schemas.FileOut{
		ID:               file.ID,
		User:             owner,
		OriginalName:     file.OriginalName,
		Size:             file.Size,
		UploadedAt:       file.UploadedAt,
		LastDownloadedAt: file.LastDownloadedAt,
		Comment:          file.Comment,
		ShareToken:       file.ShareToken,
	}
	if baseURL != "" {
		out.ShareURL = fmt.Sprintf("%s/api/storage/share/%s", strings.TrimRight(baseURL, "/"), file.ShareToken)
	}
	return out
}

func ToUserOut(user *models.User) *schemas.UserOut {
	return &schemas.UserOut{
		ID:              user.ID,
		Username:        user.Username,
		Email:           user.Email,
		FullName:        user.FullName,
		IsAdministrator: user.IsAdministrator,
	}
}
