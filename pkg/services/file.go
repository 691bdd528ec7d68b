package services

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stashbin/stashbin/internal/blob"
	"github.com/stashbin/stashbin/internal/cache"
	"github.com/stashbin/stashbin/internal/database"
	"github.com/stashbin/stashbin/pkg/models"
	"github.com/stashbin/stashbin/pkg/schemas"
	"github.com/stashbin/stashbin/pkg/types"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrForbidden = errors.New("access denied")

type FileService struct {
	db     *gorm.DB
	store  blob.Store
	cache  cache.Cacher
	logger *zap.SugaredLogger
}

func NewFileService(db *gorm.DB, store blob.Store, cacher cache.Cacher, logger *zap.SugaredLogger) *FileService {
	return &FileService{db: db, store: store, cache: cacher, logger: logger.Named("files")}
}

// canAccess is the single authorization predicate shared by every operation
// on a file record.
func canAccess(actor *types.Actor, file *models.File) bool {
	return actor.IsAdmin || actor.ID == file.UserID
}

func fileKey(id int64) string {
	return fmt.Sprintf("files:%d", id)
}

func shareKey(token string) string {
	return fmt.Sprintf("shares:%s", token)
}

func userKey(id int64) string {
	return fmt.Sprintf("users:%d", id)
}

// Read-through entries carry a bounded lifetime so a stale write can never
// outlive the tombstone a delete leaves behind.
const cacheTTL = time.Hour

func tombstoneKey(key string) string {
	return key + ":deleted"
}

// markDeleted invalidates the keys and leaves tombstones, so a reader that
// loaded the record before the delete committed cannot reinstate it in the
// cache. Ids and share tokens are never reused; a tombstone only ever masks
// a removed record.
func markDeleted(c cache.Cacher, keys ...string) {
	c.Delete(keys...)
	for _, key := range keys {
		c.Set(tombstoneKey(key), true, cacheTTL)
	}
}

func isDeleted(c cache.Cacher, key string) bool {
	var deleted bool
	if err := c.Get(tombstoneKey(key), &deleted); err == nil && deleted {
		c.Delete(key)
		return true
	}
	return false
}

// ListFiles returns the actor's own files, or for an administrator every
// file, optionally narrowed to one target user. Newest upload first.
func (fs *FileService) ListFiles(actor *types.Actor, fquery *schemas.FileQuery) ([]models.File, *types.AppError) {
	query := fs.db.Preload("User").Order("uploaded_at DESC, id DESC")

	if actor.IsAdmin {
		if fquery.UserID != 0 {
			query = query.Where("user_id = ?", fquery.UserID)
		}
	} else {
		query = query.Where("user_id = ?", actor.ID)
	}

	var files []models.File
	if err := query.Find(&files).Error; err != nil {
		return nil, &types.AppError{Error: err}
	}

	return files, nil
}

// CreateFile stores the content under the actor's namespace and commits the
// record afterwards. If the insert fails the blob is removed again so no
// partial state survives.
func (fs *FileService) CreateFile(actor *types.Actor, name, comment string, content io.Reader) (*models.File, *types.AppError) {
	user, appErr := fs.getUser(actor.ID)
	if appErr != nil {
		return nil, appErr
	}

	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." {
		ve := &types.ValidationError{}
		ve.Add("file", "file name must not be empty")
		return nil, &types.AppError{Error: ve, Code: http.StatusBadRequest}
	}

	storagePath, size, err := fs.store.Write(user.StoragePath, name, content)
	if err != nil {
		return nil, &types.AppError{Error: fmt.Errorf("failed to store content: %w", err)}
	}

	file := models.File{
		UserID:       actor.ID,
		OriginalName: name,
		StoragePath:  storagePath,
		Size:         size,
		Comment:      comment,
		ShareToken:   uuid.NewString(),
		UploadedAt:   time.Now().UTC(),
	}

	err = fs.db.Create(&file).Error
	if database.IsKeyConflictErr(err) {
		// token collision: regenerate once, then give up
		file.ID = 0
		file.ShareToken = uuid.NewString()
		err = fs.db.Create(&file).Error
	}
	if err != nil {
		if rmErr := fs.store.Delete(storagePath); rmErr != nil && !errors.Is(rmErr, blob.ErrNotExist) {
			fs.logger.Warnw("failed to clean up blob after aborted create", "path", storagePath, "err", rmErr)
		}
		return nil, &types.AppError{Error: err}
	}

	file.User = user
	return &file, nil
}

// GetFileByID establishes existence before authorization: a missing record is
// NotFound, a foreign one Forbidden.
func (fs *FileService) GetFileByID(actor *types.Actor, id int64) (*models.File, *types.AppError) {
	file, appErr := fs.getFile(id)
	if appErr != nil {
		return nil, appErr
	}
	if !canAccess(actor, file) {
		return nil, &types.AppError{Error: ErrForbidden, Code: http.StatusForbidden}
	}
	return file, nil
}

// OpenFile returns the record and a single-pass content stream. The caller
// owns the stream and must close it on every exit path.
func (fs *FileService) OpenFile(actor *types.Actor, id int64) (*models.File, io.ReadCloser, *types.AppError) {
	file, appErr := fs.GetFileByID(actor, id)
	if appErr != nil {
		return nil, nil, appErr
	}

	rc, err := fs.store.Open(file.StoragePath)
	if err != nil {
		return nil, nil, &types.AppError{Error: fmt.Errorf("failed to open content: %w", err)}
	}

	fs.stampLastAccess(file)

	return file, rc, nil
}

func (fs *FileService) RenameFile(actor *types.Actor, id int64, newName string) (*models.File, *types.AppError) {
	trimmed := strings.TrimSpace(newName)
	if trimmed == "" {
		ve := &types.ValidationError{}
		ve.Add("original_name", "must not be empty")
		return nil, &types.AppError{Error: ve, Code: http.StatusBadRequest}
	}

	return fs.updateField(actor, id, "original_name", trimmed, func(file *models.File) {
		file.OriginalName = trimmed
	})
}

// UpdateComment always succeeds for an authorized actor; an empty comment is
// valid.
func (fs *FileService) UpdateComment(actor *types.Actor, id int64, comment string) (*models.File, *types.AppError) {
	return fs.updateField(actor, id, "comment", comment, func(file *models.File) {
		file.Comment = comment
	})
}

// UpdateFile applies a patch as independent field-level updates so concurrent
// writers touching different fields never clobber each other.
func (fs *FileService) UpdateFile(actor *types.Actor, id int64, patch *schemas.FilePatch) (*models.File, *types.AppError) {
	if patch.OriginalName == nil && patch.Comment == nil {
		ve := &types.ValidationError{}
		ve.Add("original_name", "at least one of original_name or comment is required")
		return nil, &types.AppError{Error: ve, Code: http.StatusBadRequest}
	}

	var (
		file   *models.File
		appErr *types.AppError
	)
	if patch.OriginalName != nil {
		file, appErr = fs.RenameFile(actor, id, *patch.OriginalName)
		if appErr != nil {
			return nil, appErr
		}
	}
	if patch.Comment != nil {
		file, appErr = fs.UpdateComment(actor, id, *patch.Comment)
		if appErr != nil {
			return nil, appErr
		}
	}
	return file, nil
}

// DeleteFile removes the blob before the record. If the medium fails for any
// reason other than the blob already being absent, the record is retained and
// the operation fails. The record removal is the visibility commit point.
func (fs *FileService) DeleteFile(actor *types.Actor, id int64) *types.AppError {
	file, appErr := fs.GetFileByID(actor, id)
	if appErr != nil {
		return appErr
	}

	if err := fs.store.Delete(file.StoragePath); err != nil && !errors.Is(err, blob.ErrNotExist) {
		return &types.AppError{Error: fmt.Errorf("failed to remove content: %w", err)}
	}

	if err := fs.db.Delete(&models.File{}, file.ID).Error; err != nil {
		return &types.AppError{Error: err}
	}

	markDeleted(fs.cache, fileKey(file.ID), shareKey(file.ShareToken))

	return nil
}

// ResolveShare is the capability path: the token alone is the credential, no
// actor is involved. Deleted and never-existing tokens are indistinguishable.
func (fs *FileService) ResolveShare(token string) (*models.File, io.ReadCloser, *types.AppError) {
	file := &models.File{}
	key := shareKey(token)

	if isDeleted(fs.cache, key) {
		return nil, nil, &types.AppError{Error: database.ErrNotFound, Code: http.StatusNotFound}
	}
	if err := fs.cache.Get(key, file); err != nil {
		if err := fs.db.Where("share_token = ?", token).First(file).Error; err != nil {
			if database.IsRecordNotFoundErr(err) {
				return nil, nil, &types.AppError{Error: database.ErrNotFound, Code: http.StatusNotFound}
			}
			return nil, nil, &types.AppError{Error: err}
		}
		fs.cache.Set(key, file, cacheTTL)
	}

	rc, err := fs.store.Open(file.StoragePath)
	if err != nil {
		return nil, nil, &types.AppError{Error: fmt.Errorf("failed to open content: %w", err)}
	}

	fs.stampLastAccess(file)

	return file, rc, nil
}

func (fs *FileService) getFile(id int64) (*models.File, *types.AppError) {
	file := &models.File{}
	key := fileKey(id)

	if isDeleted(fs.cache, key) {
		return nil, &types.AppError{Error: database.ErrNotFound, Code: http.StatusNotFound}
	}
	if err := fs.cache.Get(key, file); err != nil {
		if err := fs.db.Where("id = ?", id).First(file).Error; err != nil {
			if database.IsRecordNotFoundErr(err) {
				return nil, &types.AppError{Error: database.ErrNotFound, Code: http.StatusNotFound}
			}
			return nil, &types.AppError{Error: err}
		}
		fs.cache.Set(key, file, cacheTTL)
	}

	return file, nil
}

func (fs *FileService) getUser(id int64) (*models.User, *types.AppError) {
	user := &models.User{}
	key := userKey(id)

	if isDeleted(fs.cache, key) {
		return nil, &types.AppError{Error: database.ErrNotFound, Code: http.StatusNotFound}
	}
	if err := fs.cache.Get(key, user); err != nil {
		if err := fs.db.Where("id = ?", id).First(user).Error; err != nil {
			if database.IsRecordNotFoundErr(err) {
				return nil, &types.AppError{Error: database.ErrNotFound, Code: http.StatusNotFound}
			}
			return nil, &types.AppError{Error: err}
		}
		fs.cache.Set(key, user, cacheTTL)
	}

	return user, nil
}

func (fs *FileService) updateField(actor *types.Actor, id int64, column string, value interface{}, apply func(*models.File)) (*models.File, *types.AppError) {
	file, appErr := fs.GetFileByID(actor, id)
	if appErr != nil {
		return nil, appErr
	}

	if err := fs.db.Model(&models.File{}).Where("id = ?", id).UpdateColumn(column, value).Error; err != nil {
		return nil, &types.AppError{Error: err}
	}

	apply(file)
	if file.User == nil {
		if owner, ownerErr := fs.getUser(file.UserID); ownerErr == nil {
			file.User = owner
		}
	}
	fs.cache.Delete(fileKey(file.ID), shareKey(file.ShareToken))

	return file, nil
}

// stampLastAccess is best-effort observability; a read still succeeds when
// the stamp write fails. The cached entries are refreshed in place so a
// download does not evict the lookup that preceded it.
func (fs *FileService) stampLastAccess(file *models.File) {
	now := time.Now().UTC()
	if err := fs.db.Model(&models.File{}).Where("id = ?", file.ID).
		UpdateColumn("last_downloaded_at", now).Error; err != nil {
		fs.logger.Warnw("failed to stamp last access", "fileId", file.ID, "err", err)
		return
	}
	file.LastDownloadedAt = &now
	fs.cache.Set(fileKey(file.ID), file, cacheTTL)
	fs.cache.Set(shareKey(file.ShareToken), file, cacheTTL)
}
