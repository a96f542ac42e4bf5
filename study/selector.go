package study

import (
	"sort"
	"time"

	"github.com/memorycenter/memorycenter-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReviewItem is one row handed to a study session. Score is the raw stored
// score; handlers compress it before serialization.
type ReviewItem struct {
	ItemID   uint
	Front    string
	Back     string
	Score    int
	LastSeen time.Time
}

// FetchN assembles the next batch of up to n items the user should review
// from the collection. The caller is responsible for the view-access check.
//
// The selector resolves the collection's active topics, backfills UserItem
// rows for items the user can see but has never tracked, batch-loads all of
// the user's rows for those items in one query, filters them through the
// cooldown gate, and orders the survivors least-recently-reviewed first.
func FetchN(db *gorm.DB, collection *models.Collection, userID uint, n int, now time.Time) ([]ReviewItem, error) {
	results := []ReviewItem{}
	if n <= 0 {
		return results, nil
	}

	var topicIDs []uint
	err := db.Model(&models.CollectionTopic{}).
		Where("collection_id = ? AND is_active = ?", collection.ID, true).
		Pluck("topic_id", &topicIDs).Error
	if err != nil {
		return nil, err
	}
	if len(topicIDs) == 0 {
		return results, nil
	}

	var itemIDs []uint
	err = db.Model(&models.TopicItem{}).
		Distinct("item_id").
		Where("topic_id IN ?", topicIDs).
		Pluck("item_id", &itemIDs).Error
	if err != nil {
		return nil, err
	}
	if len(itemIDs) == 0 {
		return results, nil
	}

	if err := backfillUserItems(db, userID, itemIDs); err != nil {
		return nil, err
	}

	// One batched query per fetch: no per-item round trips.
	var rows []ReviewItem
	err = db.Model(&models.UserItem{}).
		Select("user_items.item_id AS item_id, items.front AS front, items.back AS back, user_items.score AS score, user_items.last_seen AS last_seen").
		Joins("JOIN items ON items.id = user_items.item_id").
		Where("user_items.user_id = ? AND user_items.item_id IN ?", userID, itemIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		if Due(row.Score, row.LastSeen, now) {
			results = append(results, row)
		}
	}

	// Least-recently-reviewed first; ties fall back to insertion order.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].LastSeen.Equal(results[j].LastSeen) {
			return results[i].ItemID < results[j].ItemID
		}
		return results[i].LastSeen.Before(results[j].LastSeen)
	})

	if len(results) > n {
		results = results[:n]
	}
	return results, nil
}

// backfillUserItems creates score-0 rows for items the user has never
// tracked. Item creation only fans out a row to the acting user, so another
// user studying a shared topic gets their rows lazily here, stamped with the
// item's creation time so new-to-them items surface first.
func backfillUserItems(db *gorm.DB, userID uint, itemIDs []uint) error {
	var tracked []uint
	err := db.Model(&models.UserItem{}).
		Where("user_id = ? AND item_id IN ?", userID, itemIDs).
		Pluck("item_id", &tracked).Error
	if err != nil {
		return err
	}
	if len(tracked) == len(itemIDs) {
		return nil
	}

	seen := make(map[uint]bool, len(tracked))
	for _, id := range tracked {
		seen[id] = true
	}
	var missing []uint
	for _, id := range itemIDs {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	var items []models.Item
	if err := db.Where("id IN ?", missing).Find(&items).Error; err != nil {
		return err
	}
	userItems := make([]models.UserItem, 0, len(items))
	for _, item := range items {
		userItems = append(userItems, models.UserItem{
			UserID:   userID,
			ItemID:   item.ID,
			Score:    0,
			LastSeen: item.CreatedAt,
		})
	}
	if len(userItems) == 0 {
		return nil
	}
	// A concurrent fetch may have created the same rows; the unique
	// (user, item) index plus DoNothing keeps this race harmless.
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&userItems).Error
}
