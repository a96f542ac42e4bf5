package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User represents a user in the system
type User struct {
	gorm.Model
	Username     string         `gorm:"unique;not null;size:100"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Realname     string         `gorm:"size:50"`
	Description  string         `gorm:"size:200"`
	Awards       datatypes.JSON `gorm:"type:json"`

	Topics      []Topic      `gorm:"foreignKey:UserID"`
	Collections []Collection `gorm:"foreignKey:UserID"`
}
