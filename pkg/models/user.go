package models

import (
	"time"
)

type User struct {
	ID              int64     `gorm:"primaryKey;autoIncrement"`
	Username        string    `gorm:"type:text;not null;uniqueIndex"`
	Email           string    `gorm:"type:text;not null;uniqueIndex"`
	FullName        string    `gorm:"type:text;not null"`
	PasswordHash    string    `gorm:"type:text;not null"`
	IsAdministrator bool      `gorm:"not null;default:false"`
	StoragePath     string    `gorm:"type:text;not null"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}
