package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/memorycenter/memorycenter-api/config"
	"github.com/memorycenter/memorycenter-api/handlers"
	"github.com/memorycenter/memorycenter-api/middleware"
	"github.com/rs/cors"
)

func init() {
	// Load .env file if not in production environment
	if os.Getenv("RAILWAY_ENVIRONMENT_NAME") == "" {
		err := godotenv.Load()
		if err != nil {
			log.Printf("Warning: .env file not found, environment variables might not be loaded: %v", err)
		}
	}
}

func main() {
	// Initialize database connection
	config.Connect()
	authMiddleware := middleware.EnsureValidToken()

	DBHandler := &handlers.DBHandler{DB: config.Database}
	mux := http.NewServeMux()

	// Every route except register/login requires a valid token and a known
	// user; the acting identity always travels in the request context.
	secured := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(middleware.LoadUser(h))
	}

	// Authentication
	mux.HandleFunc("POST /api/register", DBHandler.Register)
	mux.HandleFunc("POST /api/login", DBHandler.Login)

	// Profiles
	mux.Handle("GET /api/profile", secured(DBHandler.ViewProfile))
	mux.Handle("PUT /api/profile", secured(DBHandler.EditProfile))
	mux.Handle("GET /api/profile/{username}", secured(DBHandler.ViewProfileByUsername))

	// Topics
	mux.Handle("GET /api/topics", secured(DBHandler.GetMyTopics))
	mux.Handle("POST /api/topics", secured(DBHandler.CreateTopic))
	mux.Handle("PUT /api/topics/{topicID}", secured(DBHandler.UpdateTopicInfo))
	mux.Handle("DELETE /api/topics/{topicID}", secured(DBHandler.DeleteTopic))
	mux.Handle("GET /api/topics/{topicID}/items", secured(DBHandler.GetTopicItems))
	mux.Handle("POST /api/topics/{topicID}/items", secured(DBHandler.AddItemsToTopic))
	mux.Handle("PUT /api/topics/{topicID}/items", secured(DBHandler.EditItemsInTopic))
	mux.Handle("PUT /api/topics/{topicID}/items/full", secured(DBHandler.EditItemsInTopicFull))
	mux.Handle("DELETE /api/topics/{topicID}/items", secured(DBHandler.DeleteItemsFromTopic))
	mux.Handle("GET /api/users/{username}/topics", secured(DBHandler.GetTopicsForUser))

	// Collections
	mux.Handle("GET /api/collections", secured(DBHandler.GetMyCollections))
	mux.Handle("POST /api/collections", secured(DBHandler.CreateCollection))
	mux.Handle("PUT /api/collections/{collectionID}", secured(DBHandler.UpdateCollectionInfo))
	mux.Handle("DELETE /api/collections/{collectionID}", secured(DBHandler.DeleteCollection))
	mux.Handle("POST /api/collections/{collectionID}/topics", secured(DBHandler.EditTopicsInCollection))
	mux.Handle("PUT /api/collections/{collectionID}/topics", secured(DBHandler.EditTopicsInCollectionFull))
	mux.Handle("GET /api/users/{username}/collections", secured(DBHandler.GetCollectionsForUser))

	// Studying
	mux.Handle("GET /api/collections/{collectionID}/study", secured(DBHandler.FetchFromCollection))
	mux.Handle("POST /api/study/reviews", secured(DBHandler.UpdateReviews))

	// Items
	mux.Handle("GET /api/items", secured(DBHandler.GetMyItems))

	// Configure CORS with specific options
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", config.Env.ClientOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"},
		AllowCredentials: true,
		MaxAge:           86400,
	}).Handler(mux)

	// Server configuration

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // fallback port for local development
	}
	serverAddr := "0.0.0.0:" + port

	http.ListenAndServe(serverAddr, corsHandler)
}
