package models

import "time"

// UserItem is the per-(user, item) study state: the raw mastery score and the
// time of the last review. At most one row may exist per pair.
type UserItem struct {
	ID       uint      `gorm:"primaryKey"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_user_item"`
	User     User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ItemID   uint      `gorm:"not null;uniqueIndex:idx_user_item;index"`
	Item     Item      `gorm:"foreignKey:ItemID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Score    int       `gorm:"not null;default:0"`
	LastSeen time.Time `gorm:"not null;index"`
}
