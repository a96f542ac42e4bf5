package handlers

import (
	"errors"
	"log"
	"net/http"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/memorycenter/memorycenter-api/access"
	"github.com/memorycenter/memorycenter-api/middleware"
	"github.com/memorycenter/memorycenter-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type collectionTopicResponse struct {
	PublicID  string `json:"public_id"`
	TopicName string `json:"topic_name"`
	IsActive  bool   `json:"is_active"`
}

type collectionResponse struct {
	ID             uint                      `json:"id"`
	PublicID       string                    `json:"public_id"`
	CollectionName string                    `json:"collection_name"`
	Description    string                    `json:"description"`
	Visibility     access.Visibility         `json:"visibility"`
	Topics         []collectionTopicResponse `json:"topics"`
}

type publicCollectionResponse struct {
	PublicID       string                    `json:"public_id"`
	Owner          string                    `json:"owner"`
	CollectionName string                    `json:"collection_name"`
	Description    string                    `json:"description"`
	Visibility     access.Visibility         `json:"visibility"`
	Topics         []collectionTopicResponse `json:"topics"`
}

// memberTopics loads the membership rows of a collection with the topic
// names joined in.
func (db *DBHandler) memberTopics(collectionID uint) ([]collectionTopicResponse, error) {
	topics := []collectionTopicResponse{}
	err := db.Model(&models.CollectionTopic{}).
		Select("topics.public_id AS public_id, topics.topic_name AS topic_name, collection_topics.is_active AS is_active").
		Joins("JOIN topics ON topics.id = collection_topics.topic_id").
		Where("collection_topics.collection_id = ?", collectionID).
		Scan(&topics).Error
	return topics, err
}

func (db *DBHandler) findCollection(w http.ResponseWriter, publicID string) (*models.Collection, bool) {
	var collection models.Collection
	if err := db.Where("public_id = ?", publicID).First(&collection).Error; err != nil {
		http.Error(w, "Collection not found", http.StatusNotFound)
		return nil, false
	}
	return &collection, true
}

// GET /api/collections
func (db *DBHandler) GetMyCollections(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var collections []models.Collection
	if err := db.Where("user_id = ?", user.ID).Find(&collections).Error; err != nil {
		http.Error(w, "Failed to fetch collections", http.StatusInternalServerError)
		return
	}

	out := make([]collectionResponse, 0, len(collections))
	for _, c := range collections {
		topics, err := db.memberTopics(c.ID)
		if err != nil {
			http.Error(w, "Failed to fetch collections", http.StatusInternalServerError)
			return
		}
		out = append(out, collectionResponse{
			ID:             c.ID,
			PublicID:       c.PublicID,
			CollectionName: c.CollectionName,
			Description:    c.Description,
			Visibility:     c.Visibility,
			Topics:         topics,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

// GET /api/users/{username}/collections
func (db *DBHandler) GetCollectionsForUser(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	if username == "" {
		http.Error(w, "Username is required", http.StatusBadRequest)
		return
	}

	var owner models.User
	if err := db.Where("username = ?", username).First(&owner).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	var collections []models.Collection
	err := db.Where("user_id = ? AND visibility IN ?", owner.ID,
		[]access.Visibility{access.GlobalView, access.GlobalEdit}).
		Find(&collections).Error
	if err != nil {
		http.Error(w, "Failed to fetch collections", http.StatusInternalServerError)
		return
	}

	out := make([]publicCollectionResponse, 0, len(collections))
	for _, c := range collections {
		topics, err := db.memberTopics(c.ID)
		if err != nil {
			http.Error(w, "Failed to fetch collections", http.StatusInternalServerError)
			return
		}
		out = append(out, publicCollectionResponse{
			PublicID:       c.PublicID,
			Owner:          owner.Username,
			CollectionName: c.CollectionName,
			Description:    c.Description,
			Visibility:     c.Visibility,
			Topics:         topics,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

// POST /api/collections
func (db *DBHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		CollectionName string            `json:"collection_name"`
		Description    string            `json:"description"`
		Visibility     access.Visibility `json:"visibility"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.CollectionName == "" {
		http.Error(w, "collection_name is required", http.StatusBadRequest)
		return
	}
	if req.Visibility == "" {
		req.Visibility = access.Private
	}
	if !req.Visibility.Valid() {
		http.Error(w, "visibility must be private, global_view or global_edit", http.StatusBadRequest)
		return
	}

	publicID, err := gonanoid.New()
	if err != nil {
		http.Error(w, "Failed to generate ID", http.StatusInternalServerError)
		return
	}

	collection := models.Collection{
		UserID:         user.ID,
		PublicID:       publicID,
		CollectionName: req.CollectionName,
		Description:    req.Description,
		Visibility:     req.Visibility,
	}
	if err := db.Create(&collection).Error; err != nil {
		log.Printf("CreateCollection: create failed for user %d: %v", user.ID, err)
		http.Error(w, "Failed to create collection", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, collectionResponse{
		ID:             collection.ID,
		PublicID:       collection.PublicID,
		CollectionName: collection.CollectionName,
		Description:    collection.Description,
		Visibility:     collection.Visibility,
		Topics:         []collectionTopicResponse{},
	})
}

// PUT /api/collections/{collectionID}
func (db *DBHandler) UpdateCollectionInfo(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	collection, ok := db.findCollection(w, r.PathValue("collectionID"))
	if !ok {
		return
	}
	if !access.Can(collection, user.ID, access.Edit) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		CollectionName *string            `json:"collection_name,omitempty"`
		Description    *string            `json:"description,omitempty"`
		Visibility     *access.Visibility `json:"visibility,omitempty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.CollectionName != nil {
		if *req.CollectionName == "" {
			http.Error(w, "collection_name must not be empty", http.StatusBadRequest)
			return
		}
		collection.CollectionName = *req.CollectionName
	}
	if req.Description != nil {
		collection.Description = *req.Description
	}
	if req.Visibility != nil {
		if !req.Visibility.Valid() {
			http.Error(w, "visibility must be private, global_view or global_edit", http.StatusBadRequest)
			return
		}
		collection.Visibility = *req.Visibility
	}

	if err := db.Save(collection).Error; err != nil {
		http.Error(w, "Failed to update collection", http.StatusInternalServerError)
		return
	}

	topics, err := db.memberTopics(collection.ID)
	if err != nil {
		http.Error(w, "Failed to update collection", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, collectionResponse{
		ID:             collection.ID,
		PublicID:       collection.PublicID,
		CollectionName: collection.CollectionName,
		Description:    collection.Description,
		Visibility:     collection.Visibility,
		Topics:         topics,
	})
}

// DELETE /api/collections/{collectionID}
func (db *DBHandler) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	collection, ok := db.findCollection(w, r.PathValue("collectionID"))
	if !ok {
		return
	}
	if collection.UserID != user.ID {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	tx := db.Begin()
	if tx.Error != nil {
		http.Error(w, "Could not begin transaction", http.StatusInternalServerError)
		return
	}
	if err := tx.Where("collection_id = ?", collection.ID).Delete(&models.CollectionTopic{}).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Failed to delete collection", http.StatusInternalServerError)
		return
	}
	if err := tx.Unscoped().Delete(collection).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Failed to delete collection", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Could not commit transaction", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// POST /api/collections/{collectionID}/topics
//
// Applies a list of per-topic membership edits: add, delete or update
// (toggle is_active). Edits require edit access on both the collection and
// each topic; the whole batch commits or none of it does.
func (db *DBHandler) EditTopicsInCollection(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	collection, ok := db.findCollection(w, r.PathValue("collectionID"))
	if !ok {
		return
	}
	if !access.Can(collection, user.ID, access.Edit) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		TopicEdits []struct {
			TopicID string `json:"topic_id"`
			Action  string `json:"action"`
		} `json:"topic_edits"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.TopicEdits) == 0 {
		http.Error(w, "topic_edits is required", http.StatusBadRequest)
		return
	}

	tx := db.Begin()
	if tx.Error != nil {
		http.Error(w, "Could not begin transaction", http.StatusInternalServerError)
		return
	}

	for _, edit := range req.TopicEdits {
		var topic models.Topic
		if err := tx.Where("public_id = ?", edit.TopicID).First(&topic).Error; err != nil {
			tx.Rollback()
			http.Error(w, "Topic not found", http.StatusNotFound)
			return
		}
		if !access.Can(&topic, user.ID, access.Edit) {
			tx.Rollback()
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		switch edit.Action {
		case "add":
			// Idempotent: re-adding an existing edge just reactivates it.
			edge := models.CollectionTopic{
				CollectionID: collection.ID,
				TopicID:      topic.ID,
				IsActive:     true,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "collection_id"}, {Name: "topic_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{"is_active": true}),
			}).Create(&edge).Error
			if err != nil {
				tx.Rollback()
				http.Error(w, "Failed to add topic", http.StatusInternalServerError)
				return
			}
		case "delete":
			err := tx.Where("collection_id = ? AND topic_id = ?", collection.ID, topic.ID).
				Delete(&models.CollectionTopic{}).Error
			if err != nil {
				tx.Rollback()
				http.Error(w, "Failed to remove topic", http.StatusInternalServerError)
				return
			}
		case "update":
			var edge models.CollectionTopic
			err := tx.Where("collection_id = ? AND topic_id = ?", collection.ID, topic.ID).
				First(&edge).Error
			if err != nil {
				tx.Rollback()
				if errors.Is(err, gorm.ErrRecordNotFound) {
					http.Error(w, "Topic is not in the collection", http.StatusNotFound)
					return
				}
				http.Error(w, "Failed to update topic", http.StatusInternalServerError)
				return
			}
			edge.IsActive = !edge.IsActive
			if err := tx.Save(&edge).Error; err != nil {
				tx.Rollback()
				http.Error(w, "Failed to update topic", http.StatusInternalServerError)
				return
			}
		default:
			tx.Rollback()
			http.Error(w, "action must be add, delete or update", http.StatusBadRequest)
			return
		}
	}

	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Could not commit transaction", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// PUT /api/collections/{collectionID}/topics
//
// Full reconciliation: the request is the complete desired membership. A
// topic listed as active or inactive ends up a member with that flag;
// not_selected and unmentioned topics end up out of the collection.
func (db *DBHandler) EditTopicsInCollectionFull(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	collection, ok := db.findCollection(w, r.PathValue("collectionID"))
	if !ok {
		return
	}
	if !access.Can(collection, user.ID, access.Edit) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Topics []struct {
			TopicID string `json:"topic_id"`
			Status  string `json:"status"`
		} `json:"topics"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	tx := db.Begin()
	if tx.Error != nil {
		http.Error(w, "Could not begin transaction", http.StatusInternalServerError)
		return
	}

	mentioned := make(map[uint]bool, len(req.Topics))
	for _, desired := range req.Topics {
		var topic models.Topic
		if err := tx.Where("public_id = ?", desired.TopicID).First(&topic).Error; err != nil {
			tx.Rollback()
			http.Error(w, "Topic not found", http.StatusNotFound)
			return
		}
		if !access.Can(&topic, user.ID, access.Edit) {
			tx.Rollback()
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		mentioned[topic.ID] = true

		switch desired.Status {
		case "active", "inactive":
			edge := models.CollectionTopic{
				CollectionID: collection.ID,
				TopicID:      topic.ID,
				IsActive:     desired.Status == "active",
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "collection_id"}, {Name: "topic_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{"is_active": desired.Status == "active"}),
			}).Create(&edge).Error
			if err != nil {
				tx.Rollback()
				http.Error(w, "Failed to reconcile topics", http.StatusInternalServerError)
				return
			}
		case "not_selected":
			err := tx.Where("collection_id = ? AND topic_id = ?", collection.ID, topic.ID).
				Delete(&models.CollectionTopic{}).Error
			if err != nil {
				tx.Rollback()
				http.Error(w, "Failed to reconcile topics", http.StatusInternalServerError)
				return
			}
		default:
			tx.Rollback()
			http.Error(w, "status must be active, inactive or not_selected", http.StatusBadRequest)
			return
		}
	}

	// Membership is exactly the desired list: drop every unmentioned edge.
	remove := tx.Where("collection_id = ?", collection.ID)
	if len(mentioned) > 0 {
		kept := make([]uint, 0, len(mentioned))
		for id := range mentioned {
			kept = append(kept, id)
		}
		remove = remove.Where("topic_id NOT IN ?", kept)
	}
	if err := remove.Delete(&models.CollectionTopic{}).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Failed to reconcile topics", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Could not commit transaction", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
