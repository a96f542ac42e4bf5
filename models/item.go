package models

import "gorm.io/gorm"

// Item is a single front/back fact pair, the atomic unit of study. Items are
// shared: one item can sit in several topics (via TopicItem) and is tracked
// per user through UserItem rows.
type Item struct {
	gorm.Model
	Front string `gorm:"not null;size:30"`
	Back  string `gorm:"not null;size:30"`
}
