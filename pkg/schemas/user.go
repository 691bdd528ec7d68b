package schemas

type UserOut struct {
	ID              int64  `json:"id"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	FullName        string `json:"full_name"`
	IsAdministrator bool   `json:"is_administrator"`
	FilesCount      int64  `json:"files_count"`
	TotalSize       int64  `json:"total_size"`
}

type UserPatch struct {
	IsAdministrator *bool `json:"is_administrator" binding:"required"`
}
