package models

import (
	"time"
)

// File is one stored object. ShareToken is assigned once at creation and is
// never recycled, even after the record is deleted.
type File struct {
	ID               int64      `gorm:"primaryKey;autoIncrement"`
	UserID           int64      `gorm:"not null;index"`
	User             *User      `gorm:"constraint:OnDelete:CASCADE"`
	OriginalName     string     `gorm:"type:text;not null"`
	StoragePath      string     `gorm:"type:text;not null"`
	Size             int64      `gorm:"not null;default:0"`
	Comment          string     `gorm:"type:text;not null;default:''"`
	ShareToken       string     `gorm:"type:text;not null;uniqueIndex"`
	UploadedAt       time.Time  `gorm:"not null;autoCreateTime;index"`
	LastDownloadedAt *time.Time `gorm:"type:timestamp"`
}
