package config

import (
	"os"

	"github.com/memorycenter/memorycenter-api/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var Database *gorm.DB

func Connect() error {
	var err error
	dbURL := os.Getenv("DB_URL")
	Database, err = gorm.Open(postgres.Open(dbURL), &gorm.Config{TranslateError: true})
	if err != nil {
		panic("failed to connect database")
	}

	err = Database.AutoMigrate(
		&models.User{},
		&models.Item{},
		&models.UserItem{},
		&models.Topic{},
		&models.TopicItem{},
		&models.Collection{},
		&models.CollectionTopic{},
	)
	if err != nil {
		panic("failed to auto migrate database")
	}

	return nil
}
