package schemas

import (
	"time"
)

type FileQuery struct {
	UserID int64 `form:"user_id"`
}

type FileOut struct {
	ID               int64      `json:"id"`
	User             string     `json:"user"`
	OriginalName     string     `json:"original_name"`
	Size             int64      `json:"size"`
	UploadedAt       time.Time  `json:"uploaded_at"`
	LastDownloadedAt *time.Time `json:"last_downloaded_at"`
	Comment          string     `json:"comment"`
	ShareToken       string     `json:"share_token"`
	ShareURL         string     `json:"share_url,omitempty"`
}

// FilePatch carries field-level updates; absent fields are left untouched.
type FilePatch struct {
	OriginalName *string `json:"original_name"`
	Comment      *string `json:"comment"`
}
