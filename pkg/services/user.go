package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/stashbin/stashbin/internal/blob"
	"github.com/stashbin/stashbin/internal/cache"
	"github.com/stashbin/stashbin/internal/database"
	"github.com/stashbin/stashbin/pkg/models"
	"github.com/stashbin/stashbin/pkg/schemas"
	"github.com/stashbin/stashbin/pkg/types"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserService covers the administrator surface: listing accounts with their
// storage footprint, toggling the administrator flag, cascade deletion.
type UserService struct {
	db     *gorm.DB
	store  blob.Store
	cache  cache.Cacher
	logger *zap.SugaredLogger
}

func NewUserService(db *gorm.DB, store blob.Store, cacher cache.Cacher, logger *zap.SugaredLogger) *UserService {
	return &UserService{db: db, store: store, cache: cacher, logger: logger.Named("users")}
}

const userStatsSelect = "users.*, COUNT(files.id) AS files_count, COALESCE(SUM(files.size), 0) AS total_size"

func (us *UserService) ListUsers() ([]schemas.UserOut, *types.AppError) {
	var users []schemas.UserOut

	if err := us.db.Model(&models.User{}).
		Select(userStatsSelect).
		Joins("LEFT JOIN files ON files.user_id = users.id").
		Group("users.id").
		Order("users.id").
		Scan(&users).Error; err != nil {
		return nil, &types.AppError{Error: err}
	}

	return users, nil
}

func (us *UserService) GetUser(id int64) (*schemas.UserOut, *types.AppError) {
	var users []schemas.UserOut

	if err := us.db.Model(&models.User{}).
		Select(userStatsSelect).
		Joins("LEFT JOIN files ON files.user_id = users.id").
		Where("users.id = ?", id).
		Group("users.id").
		Scan(&users).Error; err != nil {
		return nil, &types.AppError{Error: err}
	}
	if len(users) == 0 {
		return nil, &types.AppError{Error: database.ErrNotFound, Code: http.StatusNotFound}
	}

	return &users[0], nil
}

// SetAdmin is the only account mutation the core performs.
func (us *UserService) SetAdmin(id int64, isAdmin bool) (*schemas.UserOut, *types.AppError) {
	chain := us.db.Model(&models.User{}).Where("id = ?", id).UpdateColumn("is_administrator", isAdmin)
	if chain.Error != nil {
		return nil, &types.AppError{Error: chain.Error}
	}
	if chain.RowsAffected == 0 {
		return nil, &types.AppError{Error: database.ErrNotFound, Code: http.StatusNotFound}
	}

	us.cache.Delete(userKey(id))

	return us.GetUser(id)
}

// DeleteUser cascade-deletes every owned file. Blobs are removed first; a
// medium failure aborts the whole operation so records never outlive an
// unaccounted blob.
func (us *UserService) DeleteUser(id int64) *types.AppError {
	var user models.User
	if err := us.db.Where("id = ?", id).First(&user).Error; err != nil {
		if database.IsRecordNotFoundErr(err) {
			return &types.AppError{Error: database.ErrNotFound, Code: http.StatusNotFound}
		}
		return &types.AppError{Error: err}
	}

	var files []models.File
	if err := us.db.Where("user_id = ?", id).Find(&files).Error; err != nil {
		return &types.AppError{Error: err}
	}

	for i := range files {
		if err := us.store.Delete(files[i].StoragePath); err != nil && !errors.Is(err, blob.ErrNotExist) {
			return &types.AppError{Error: fmt.Errorf("failed to remove content for file %d: %w", files[i].ID, err)}
		}
	}

	err := us.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.File{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		return &types.AppError{Error: err}
	}

	keys := []string{userKey(id)}
	for i := range files {
		keys = append(keys, fileKey(files[i].ID), shareKey(files[i].ShareToken))
	}
	markDeleted(us.cache, keys...)

	us.logger.Infow("user deleted", "userId", id, "files", len(files))

	return nil
}
