package models

import (
	"github.com/memorycenter/memorycenter-api/access"
	"gorm.io/gorm"
)

// Topic is an owned, named group of items.
type Topic struct {
	gorm.Model
	UserID      uint              `gorm:"not null;index"`
	User        User              `gorm:"foreignKey:UserID" json:"-"`
	PublicID    string            `gorm:"size:100;uniqueIndex"`
	TopicName   string            `gorm:"not null;size:30"`
	Description string            `gorm:"size:100"`
	Visibility  access.Visibility `gorm:"not null;default:private;size:30"`
}

func (t *Topic) OwnerID() uint             { return t.UserID }
func (t *Topic) Access() access.Visibility { return t.Visibility }

// TopicItem links an item into a topic. Membership is unique per pair.
type TopicItem struct {
	ID      uint  `gorm:"primaryKey"`
	TopicID uint  `gorm:"not null;uniqueIndex:idx_topic_item"`
	Topic   Topic `gorm:"foreignKey:TopicID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ItemID  uint  `gorm:"not null;uniqueIndex:idx_topic_item;index"`
	Item    Item  `gorm:"foreignKey:ItemID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
