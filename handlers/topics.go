package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/memorycenter/memorycenter-api/access"
	"github.com/memorycenter/memorycenter-api/middleware"
	"github.com/memorycenter/memorycenter-api/models"
	"github.com/memorycenter/memorycenter-api/study"
	"gorm.io/gorm"
)

type topicResponse struct {
	ID          uint              `json:"id"`
	PublicID    string            `json:"public_id"`
	TopicName   string            `json:"topic_name"`
	Description string            `json:"description"`
	Visibility  access.Visibility `json:"visibility"`
}

// publicTopicResponse is the projection served when browsing someone else's
// topics. Same shape minus the internal ID, plus the owner.
type publicTopicResponse struct {
	PublicID    string            `json:"public_id"`
	Owner       string            `json:"owner"`
	TopicName   string            `json:"topic_name"`
	Description string            `json:"description"`
	Visibility  access.Visibility `json:"visibility"`
}

func ownTopicProjection(topics []models.Topic) []topicResponse {
	out := make([]topicResponse, 0, len(topics))
	for _, t := range topics {
		out = append(out, topicResponse{
			ID:          t.ID,
			PublicID:    t.PublicID,
			TopicName:   t.TopicName,
			Description: t.Description,
			Visibility:  t.Visibility,
		})
	}
	return out
}

func publicTopicProjection(owner string, topics []models.Topic) []publicTopicResponse {
	out := make([]publicTopicResponse, 0, len(topics))
	for _, t := range topics {
		out = append(out, publicTopicResponse{
			PublicID:    t.PublicID,
			Owner:       owner,
			TopicName:   t.TopicName,
			Description: t.Description,
			Visibility:  t.Visibility,
		})
	}
	return out
}

func (db *DBHandler) findTopic(w http.ResponseWriter, publicID string) (*models.Topic, bool) {
	var topic models.Topic
	if err := db.Where("public_id = ?", publicID).First(&topic).Error; err != nil {
		http.Error(w, "Topic not found", http.StatusNotFound)
		return nil, false
	}
	return &topic, true
}

// GET /api/topics
func (db *DBHandler) GetMyTopics(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var topics []models.Topic
	if err := db.Where("user_id = ?", user.ID).Find(&topics).Error; err != nil {
		http.Error(w, "Failed to fetch topics", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, ownTopicProjection(topics))
}

// GET /api/users/{username}/topics
func (db *DBHandler) GetTopicsForUser(w http.ResponseWriter, r *http.Request) {
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

	// Another user's listing only shows globally visible topics.
	var topics []models.Topic
	err := db.Where("user_id = ? AND visibility IN ?", owner.ID,
		[]access.Visibility{access.GlobalView, access.GlobalEdit}).
		Find(&topics).Error
	if err != nil {
		http.Error(w, "Failed to fetch topics", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, publicTopicProjection(owner.Username, topics))
}

// POST /api/topics
func (db *DBHandler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		TopicName   string            `json:"topic_name"`
		Description string            `json:"description"`
		Visibility  access.Visibility `json:"visibility"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.TopicName == "" {
		http.Error(w, "topic_name is required", http.StatusBadRequest)
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

	topic := models.Topic{
		UserID:      user.ID,
		PublicID:    publicID,
		TopicName:   req.TopicName,
		Description: req.Description,
		Visibility:  req.Visibility,
	}
	if err := db.Create(&topic).Error; err != nil {
		log.Printf("CreateTopic: create failed for user %d: %v", user.ID, err)
		http.Error(w, "Failed to create topic", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, ownTopicProjection([]models.Topic{topic})[0])
}

// PUT /api/topics/{topicID}
func (db *DBHandler) UpdateTopicInfo(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	topic, ok := db.findTopic(w, r.PathValue("topicID"))
	if !ok {
		return
	}
	if !access.Can(topic, user.ID, access.Edit) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		TopicName   *string            `json:"topic_name,omitempty"`
		Description *string            `json:"description,omitempty"`
		Visibility  *access.Visibility `json:"visibility,omitempty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.TopicName != nil {
		if *req.TopicName == "" {
			http.Error(w, "topic_name must not be empty", http.StatusBadRequest)
			return
		}
		topic.TopicName = *req.TopicName
	}
	if req.Description != nil {
		topic.Description = *req.Description
	}
	if req.Visibility != nil {
		if !req.Visibility.Valid() {
			http.Error(w, "visibility must be private, global_view or global_edit", http.StatusBadRequest)
			return
		}
		topic.Visibility = *req.Visibility
	}

	if err := db.Save(topic).Error; err != nil {
		http.Error(w, "Failed to update topic", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, ownTopicProjection([]models.Topic{*topic})[0])
}

// DELETE /api/topics/{topicID}
func (db *DBHandler) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	topic, ok := db.findTopic(w, r.PathValue("topicID"))
	if !ok {
		return
	}
	// Ownership is immutable, and only the owner may destroy a topic —
	// global_edit grants content changes, not destruction.
	if topic.UserID != user.ID {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	tx := db.Begin()
	if tx.Error != nil {
		http.Error(w, "Could not begin transaction", http.StatusInternalServerError)
		return
	}

	var itemIDs []uint
	if err := tx.Model(&models.TopicItem{}).Where("topic_id = ?", topic.ID).
		Pluck("item_id", &itemIDs).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Failed to delete topic", http.StatusInternalServerError)
		return
	}
	if err := tx.Where("topic_id = ?", topic.ID).Delete(&models.TopicItem{}).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Failed to delete topic", http.StatusInternalServerError)
		return
	}

	// Items still linked through another topic survive; the rest are
	// removed together with everyone's study state for them.
	if len(itemIDs) > 0 {
		var stillLinked []uint
		if err := tx.Model(&models.TopicItem{}).Where("item_id IN ?", itemIDs).
			Distinct("item_id").Pluck("item_id", &stillLinked).Error; err != nil {
			tx.Rollback()
			http.Error(w, "Failed to delete topic", http.StatusInternalServerError)
			return
		}
		linked := make(map[uint]bool, len(stillLinked))
		for _, id := range stillLinked {
			linked[id] = true
		}
		var orphans []uint
		for _, id := range itemIDs {
			if !linked[id] {
				orphans = append(orphans, id)
			}
		}
		if len(orphans) > 0 {
			if err := tx.Where("item_id IN ?", orphans).Delete(&models.UserItem{}).Error; err != nil {
				tx.Rollback()
				http.Error(w, "Failed to delete topic", http.StatusInternalServerError)
				return
			}
			if err := tx.Unscoped().Where("id IN ?", orphans).Delete(&models.Item{}).Error; err != nil {
				tx.Rollback()
				http.Error(w, "Failed to delete topic", http.StatusInternalServerError)
				return
			}
		}
	}

	if err := tx.Where("topic_id = ?", topic.ID).Delete(&models.CollectionTopic{}).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Failed to delete topic", http.StatusInternalServerError)
		return
	}
	if err := tx.Unscoped().Delete(topic).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Failed to delete topic", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Could not commit transaction", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GET /api/topics/{topicID}/items
func (db *DBHandler) GetTopicItems(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	topic, ok := db.findTopic(w, r.PathValue("topicID"))
	if !ok {
		return
	}
	if !access.Can(topic, user.ID, access.View) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	type itemResponse struct {
		ID    uint   `json:"id"`
		Front string `json:"front"`
		Back  string `json:"back"`
	}
	var items []itemResponse
	err := db.Model(&models.Item{}).
		Select("items.id, items.front, items.back").
		Joins("JOIN topic_items ON topic_items.item_id = items.id").
		Where("topic_items.topic_id = ?", topic.ID).
		Scan(&items).Error
	if err != nil {
		http.Error(w, "Failed to fetch items", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []itemResponse{}
	}

	respondJSON(w, http.StatusOK, items)
}

// POST /api/topics/{topicID}/items
func (db *DBHandler) AddItemsToTopic(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	topic, ok := db.findTopic(w, r.PathValue("topicID"))
	if !ok {
		return
	}
	if !access.Can(topic, user.ID, access.Edit) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Items []struct {
			Front string `json:"front"`
			Back  string `json:"back"`
		} `json:"items"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		http.Error(w, "items is required", http.StatusBadRequest)
		return
	}
	for _, item := range req.Items {
		if item.Front == "" || item.Back == "" {
			http.Error(w, "Each item must have a front and a back", http.StatusBadRequest)
			return
		}
	}

	tx := db.Begin()
	if tx.Error != nil {
		http.Error(w, "Could not begin transaction", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	created := make([]models.Item, 0, len(req.Items))
	for _, reqItem := range req.Items {
		item := models.Item{Front: reqItem.Front, Back: reqItem.Back}
		if err := tx.Create(&item).Error; err != nil {
			tx.Rollback()
			http.Error(w, "Failed to create item", http.StatusInternalServerError)
			return
		}
		if err := tx.Create(&models.TopicItem{TopicID: topic.ID, ItemID: item.ID}).Error; err != nil {
			tx.Rollback()
			http.Error(w, "Failed to create item", http.StatusInternalServerError)
			return
		}
		// Only the acting user gets a study row now; other users with
		// access are backfilled lazily by the selector.
		userItem := models.UserItem{UserID: user.ID, ItemID: item.ID, Score: 0, LastSeen: now}
		if err := tx.Create(&userItem).Error; err != nil {
			tx.Rollback()
			http.Error(w, "Failed to create item", http.StatusInternalServerError)
			return
		}
		created = append(created, item)
	}

	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Could not commit transaction", http.StatusInternalServerError)
		return
	}

	type itemResponse struct {
		ID    uint   `json:"id"`
		Front string `json:"front"`
		Back  string `json:"back"`
	}
	out := make([]itemResponse, 0, len(created))
	for _, item := range created {
		out = append(out, itemResponse{ID: item.ID, Front: item.Front, Back: item.Back})
	}
	respondJSON(w, http.StatusCreated, out)
}

// DELETE /api/topics/{topicID}/items
func (db *DBHandler) DeleteItemsFromTopic(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	topic, ok := db.findTopic(w, r.PathValue("topicID"))
	if !ok {
		return
	}
	if !access.Can(topic, user.ID, access.Edit) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Items []uint `json:"items"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		http.Error(w, "items is required", http.StatusBadRequest)
		return
	}

	tx := db.Begin()
	if tx.Error != nil {
		http.Error(w, "Could not begin transaction", http.StatusInternalServerError)
		return
	}

	for _, itemID := range req.Items {
		var link models.TopicItem
		err := tx.Where("topic_id = ? AND item_id = ?", topic.ID, itemID).First(&link).Error
		if err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				http.Error(w, "Item not found in topic", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to delete items", http.StatusInternalServerError)
			return
		}

		// Deleting an item cascades to everyone's study state and to every
		// topic membership, not just this topic's.
		if err := tx.Where("item_id = ?", itemID).Delete(&models.UserItem{}).Error; err != nil {
			tx.Rollback()
			http.Error(w, "Failed to delete items", http.StatusInternalServerError)
			return
		}
		if err := tx.Where("item_id = ?", itemID).Delete(&models.TopicItem{}).Error; err != nil {
			tx.Rollback()
			http.Error(w, "Failed to delete items", http.StatusInternalServerError)
			return
		}
		if err := tx.Unscoped().Delete(&models.Item{}, itemID).Error; err != nil {
			tx.Rollback()
			http.Error(w, "Failed to delete items", http.StatusInternalServerError)
			return
		}
	}

	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Could not commit transaction", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PUT /api/topics/{topicID}/items
//
// Applies a list of text corrections to items already in the topic. Every
// referenced item must be a member; the whole batch commits or none of it
// does. Study state is untouched, a reworded card keeps its score.
func (db *DBHandler) EditItemsInTopic(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	topic, ok := db.findTopic(w, r.PathValue("topicID"))
	if !ok {
		return
	}
	if !access.Can(topic, user.ID, access.Edit) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Items []struct {
			ItemID uint    `json:"item_id"`
			Front  *string `json:"front,omitempty"`
			Back   *string `json:"back,omitempty"`
		} `json:"items"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		http.Error(w, "items is required", http.StatusBadRequest)
		return
	}
	for _, edit := range req.Items {
		if edit.Front == nil && edit.Back == nil {
			http.Error(w, "Each edit must change a front or a back", http.StatusBadRequest)
			return
		}
		if (edit.Front != nil && *edit.Front == "") || (edit.Back != nil && *edit.Back == "") {
			http.Error(w, "front and back must not be empty", http.StatusBadRequest)
			return
		}
	}

	tx := db.Begin()
	if tx.Error != nil {
		http.Error(w, "Could not begin transaction", http.StatusInternalServerError)
		return
	}

	updated := make([]models.Item, 0, len(req.Items))
	for _, edit := range req.Items {
		var link models.TopicItem
		err := tx.Where("topic_id = ? AND item_id = ?", topic.ID, edit.ItemID).First(&link).Error
		if err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				http.Error(w, "Item not found in topic", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to edit items", http.StatusInternalServerError)
			return
		}

		var item models.Item
		if err := tx.First(&item, edit.ItemID).Error; err != nil {
			tx.Rollback()
			http.Error(w, "Failed to edit items", http.StatusInternalServerError)
			return
		}
		if edit.Front != nil {
			item.Front = *edit.Front
		}
		if edit.Back != nil {
			item.Back = *edit.Back
		}
		if err := tx.Save(&item).Error; err != nil {
			tx.Rollback()
			http.Error(w, "Failed to edit items", http.StatusInternalServerError)
			return
		}
		updated = append(updated, item)
	}

	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Could not commit transaction", http.StatusInternalServerError)
		return
	}

	type itemResponse struct {
		ID    uint   `json:"id"`
		Front string `json:"front"`
		Back  string `json:"back"`
	}
	out := make([]itemResponse, 0, len(updated))
	for _, item := range updated {
		out = append(out, itemResponse{ID: item.ID, Front: item.Front, Back: item.Back})
	}
	respondJSON(w, http.StatusOK, out)
}

// PUT /api/topics/{topicID}/items/full
//
// Full reconciliation: the request is the complete desired item list. An
// entry with an item_id rewrites that item's text, an entry without one
// creates a new item, and items the request does not mention are deleted
// with the usual cascade.
func (db *DBHandler) EditItemsInTopicFull(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	topic, ok := db.findTopic(w, r.PathValue("topicID"))
	if !ok {
		return
	}
	if !access.Can(topic, user.ID, access.Edit) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Items []struct {
			ItemID uint   `json:"item_id,omitempty"`
			Front  string `json:"front"`
			Back   string `json:"back"`
		} `json:"items"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	for _, desired := range req.Items {
		if desired.Front == "" || desired.Back == "" {
			http.Error(w, "Each item must have a front and a back", http.StatusBadRequest)
			return
		}
	}

	tx := db.Begin()
	if tx.Error != nil {
		http.Error(w, "Could not begin transaction", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	mentioned := make(map[uint]bool, len(req.Items))
	for _, desired := range req.Items {
		if desired.ItemID == 0 {
			item := models.Item{Front: desired.Front, Back: desired.Back}
			if err := tx.Create(&item).Error; err != nil {
				tx.Rollback()
				http.Error(w, "Failed to reconcile items", http.StatusInternalServerError)
				return
			}
			if err := tx.Create(&models.TopicItem{TopicID: topic.ID, ItemID: item.ID}).Error; err != nil {
				tx.Rollback()
				http.Error(w, "Failed to reconcile items", http.StatusInternalServerError)
				return
			}
			userItem := models.UserItem{UserID: user.ID, ItemID: item.ID, Score: 0, LastSeen: now}
			if err := tx.Create(&userItem).Error; err != nil {
				tx.Rollback()
				http.Error(w, "Failed to reconcile items", http.StatusInternalServerError)
				return
			}
			mentioned[item.ID] = true
			continue
		}

		var link models.TopicItem
		err := tx.Where("topic_id = ? AND item_id = ?", topic.ID, desired.ItemID).First(&link).Error
		if err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				http.Error(w, "Item not found in topic", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to reconcile items", http.StatusInternalServerError)
			return
		}
		err = tx.Model(&models.Item{}).Where("id = ?", desired.ItemID).
			Updates(map[string]interface{}{"front": desired.Front, "back": desired.Back}).Error
		if err != nil {
			tx.Rollback()
			http.Error(w, "Failed to reconcile items", http.StatusInternalServerError)
			return
		}
		mentioned[desired.ItemID] = true
	}

	// Unmentioned members leave the topic the way a delete would: the item
	// goes away everywhere, study state included.
	var memberIDs []uint
	if err := tx.Model(&models.TopicItem{}).Where("topic_id = ?", topic.ID).
		Pluck("item_id", &memberIDs).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Failed to reconcile items", http.StatusInternalServerError)
		return
	}
	for _, itemID := range memberIDs {
		if mentioned[itemID] {
			continue
		}
		if err := tx.Where("item_id = ?", itemID).Delete(&models.UserItem{}).Error; err != nil {
			tx.Rollback()
			http.Error(w, "Failed to reconcile items", http.StatusInternalServerError)
			return
		}
		if err := tx.Where("item_id = ?", itemID).Delete(&models.TopicItem{}).Error; err != nil {
			tx.Rollback()
			http.Error(w, "Failed to reconcile items", http.StatusInternalServerError)
			return
		}
		if err := tx.Unscoped().Delete(&models.Item{}, itemID).Error; err != nil {
			tx.Rollback()
			http.Error(w, "Failed to reconcile items", http.StatusInternalServerError)
			return
		}
	}

	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Could not commit transaction", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// GET /api/items — every study row the caller has, with item data.
func (db *DBHandler) GetMyItems(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var userItems []models.UserItem
	err := db.Preload("Item").Where("user_id = ?", user.ID).Find(&userItems).Error
	if err != nil {
		http.Error(w, "Failed to fetch items", http.StatusInternalServerError)
		return
	}

	type userItemResponse struct {
		ItemID   uint      `json:"item_id"`
		Front    string    `json:"front"`
		Back     string    `json:"back"`
		Score    int       `json:"score"`
		LastSeen time.Time `json:"last_seen"`
	}
	out := make([]userItemResponse, 0, len(userItems))
	for _, ui := range userItems {
		out = append(out, userItemResponse{
			ItemID:   ui.ItemID,
			Front:    ui.Item.Front,
			Back:     ui.Item.Back,
			Score:    study.Compress(ui.Score),
			LastSeen: ui.LastSeen,
		})
	}
	respondJSON(w, http.StatusOK, out)
}
