package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/memorycenter/memorycenter-api/access"
	"github.com/memorycenter/memorycenter-api/middleware"
	"github.com/memorycenter/memorycenter-api/models"
	"github.com/memorycenter/memorycenter-api/study"
	"gorm.io/gorm"
)

// GET /api/collections/{collectionID}/study?n=
//
// Returns the next n due items of the collection for the caller, least
// recently reviewed first. An empty list is a normal result: either nothing
// is due yet or the collection has no items.
func (db *DBHandler) FetchFromCollection(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	collection, ok := db.findCollection(w, r.PathValue("collectionID"))
	if !ok {
		return
	}
	if !access.Can(collection, user.ID, access.View) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	n, err := strconv.Atoi(r.URL.Query().Get("n"))
	if err != nil || n <= 0 {
		http.Error(w, "n must be a positive integer", http.StatusBadRequest)
		return
	}

	items, err := study.FetchN(db.DB, collection, user.ID, n, time.Now())
	if err != nil {
		log.Printf("FetchFromCollection: selector failed for collection %d: %v", collection.ID, err)
		http.Error(w, "Failed to fetch items", http.StatusInternalServerError)
		return
	}

	type studyItemResponse struct {
		ItemID uint   `json:"item_id"`
		Front  string `json:"front"`
		Back   string `json:"back"`
		Score  int    `json:"score"`
	}
	out := make([]studyItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, studyItemResponse{
			ItemID: item.ItemID,
			Front:  item.Front,
			Back:   item.Back,
			Score:  study.Compress(item.Score),
		})
	}
	respondJSON(w, http.StatusOK, out)
}

// POST /api/study/reviews
//
// Applies one review outcome per item to the caller's own study state. Rows
// are addressed by (caller, item), so another user's state is unreachable; a
// missing row is a 404. The batch is transactional — the first failure rolls
// everything back.
func (db *DBHandler) UpdateReviews(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Items []struct {
			ItemID    uint `json:"item_id"`
			Increment int  `json:"increment"`
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
		if item.Increment == 0 {
			http.Error(w, "increment must be non-zero", http.StatusBadRequest)
			return
		}
	}

	tx := db.Begin()
	if tx.Error != nil {
		http.Error(w, "Could not begin transaction", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	for _, reviewed := range req.Items {
		var userItem models.UserItem
		err := tx.Where("user_id = ? AND item_id = ?", user.ID, reviewed.ItemID).
			First(&userItem).Error
		if err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				http.Error(w, "Item not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to update items", http.StatusInternalServerError)
			return
		}

		userItem.Score = study.Apply(userItem.Score, reviewed.Increment)
		userItem.LastSeen = now
		if err := tx.Save(&userItem).Error; err != nil {
			tx.Rollback()
			http.Error(w, "Failed to update items", http.StatusInternalServerError)
			return
		}
	}

	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Could not commit transaction", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
