package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/memorycenter/memorycenter-api/auth"
	"github.com/memorycenter/memorycenter-api/middleware"
	"github.com/memorycenter/memorycenter-api/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// profileResponse is the owner's view of their own profile.
type profileResponse struct {
	ID          uint            `json:"id"`
	Username    string          `json:"username"`
	Realname    string          `json:"realname"`
	Description string          `json:"description"`
	Awards      json.RawMessage `json:"awards"`
}

// publicProfileResponse is what other users see. No database ID.
type publicProfileResponse struct {
	Username    string          `json:"username"`
	Realname    string          `json:"realname"`
	Description string          `json:"description"`
	Awards      json.RawMessage `json:"awards"`
}

func awardsJSON(user *models.User) json.RawMessage {
	if len(user.Awards) == 0 {
		return json.RawMessage("[]")
	}
	return json.RawMessage(user.Awards)
}

func ownProfileProjection(user *models.User) profileResponse {
	return profileResponse{
		ID:          user.ID,
		Username:    user.Username,
		Realname:    user.Realname,
		Description: user.Description,
		Awards:      awardsJSON(user),
	}
}

func publicProfileProjection(user *models.User) publicProfileResponse {
	return publicProfileResponse{
		Username:    user.Username,
		Realname:    user.Realname,
		Description: user.Description,
		Awards:      awardsJSON(user),
	}
}

// POST /api/register
func (db *DBHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Username == "" || req.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	// The unique constraint on username is the source of truth; a
	// check-then-create would race with a concurrent registration.
	user := models.User{Username: req.Username, PasswordHash: hash}
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			http.Error(w, "Username already exists", http.StatusConflict)
			return
		}
		log.Printf("Register: create failed for %s: %v", req.Username, err)
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	token, err := auth.CreateToken(user.ID)
	if err != nil {
		http.Error(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"token": token})
}

// POST /api/login
func (db *DBHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var user models.User
	err := db.Where("username = ?", req.Username).First(&user).Error
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		// Same response for unknown user and wrong password.
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	token, err := auth.CreateToken(user.ID)
	if err != nil {
		http.Error(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// GET /api/profile
func (db *DBHandler) ViewProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	respondJSON(w, http.StatusOK, ownProfileProjection(user))
}

// GET /api/profile/{username}
func (db *DBHandler) ViewProfileByUsername(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	if username == "" {
		http.Error(w, "Username is required", http.StatusBadRequest)
		return
	}

	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load user", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, publicProfileProjection(&user))
}

// PUT /api/profile
func (db *DBHandler) EditProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Realname    *string         `json:"realname,omitempty"`
		Description *string         `json:"description,omitempty"`
		Awards      json.RawMessage `json:"awards,omitempty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Realname != nil {
		user.Realname = *req.Realname
	}
	if req.Description != nil {
		user.Description = *req.Description
	}
	if req.Awards != nil {
		var awards []interface{}
		if err := json.Unmarshal(req.Awards, &awards); err != nil {
			http.Error(w, "Awards must be a JSON list", http.StatusBadRequest)
			return
		}
		user.Awards = datatypes.JSON(req.Awards)
	}

	if err := db.Save(user).Error; err != nil {
		log.Printf("EditProfile: save failed for user %d: %v", user.ID, err)
		http.Error(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, ownProfileProjection(user))
}
