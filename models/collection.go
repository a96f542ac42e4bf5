package models

import (
	"github.com/memorycenter/memorycenter-api/access"
	"gorm.io/gorm"
)

// Collection is an owned, named group of topics. A study session is scoped
// to one collection; the items reachable from it are the union of the items
// in its active member topics.
type Collection struct {
	gorm.Model
	UserID         uint              `gorm:"not null;index"`
	User           User              `gorm:"foreignKey:UserID" json:"-"`
	PublicID       string            `gorm:"size:100;uniqueIndex"`
	CollectionName string            `gorm:"not null;size:30"`
	Description    string            `gorm:"size:750"`
	Visibility     access.Visibility `gorm:"not null;default:private;size:30"`
}

func (c *Collection) OwnerID() uint             { return c.UserID }
func (c *Collection) Access() access.Visibility { return c.Visibility }

// CollectionTopic is the membership edge between a collection and a topic.
// Inactive edges keep the topic in the collection for organization but
// exclude it from study scheduling.
type CollectionTopic struct {
	ID           uint       `gorm:"primaryKey"`
	CollectionID uint       `gorm:"not null;uniqueIndex:idx_collection_topic"`
	Collection   Collection `gorm:"foreignKey:CollectionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	TopicID      uint       `gorm:"not null;uniqueIndex:idx_collection_topic;index"`
	Topic        Topic      `gorm:"foreignKey:TopicID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	IsActive     bool       `gorm:"not null;default:true"`
}
