package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"patisserie-backend/config"
	"patisserie-backend/database"
	"patisserie-backend/models"
	"patisserie-backend/routes"
	"patisserie-backend/shopstatus"
	"patisserie-backend/store"
	"patisserie-backend/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func main() {
	// Load environment variables
	if err := config.LoadEnv(); err != nil {
		logrus.WithError(err).Fatal("error loading .env file")
	}

	// Validate critical environment variables
	if err := config.ValidateEnv(); err != nil {
		logrus.WithError(err).Fatal("environment validation failed")
	}

	// Initialize database
	db, err := database.Connect()
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		logrus.WithError(err).Fatal("failed to run migrations")
	}

	// Seed default rows
	if err := database.CreateDefaultAdmin(db); err != nil {
		logrus.WithError(err).Warn("could not create default admin")
	}
	if _, err := database.EnsureTimeSettings(db); err != nil {
		logrus.WithError(err).Warn("could not create default shop-hours settings")
	}

	// Process-wide cache with TTL sweep (rate limiter buckets)
	cache := store.NewMemoryStore(time.Minute)
	defer cache.Close()

	// Realtime push channel and the shop status broadcast loop
	hub := ws.NewHub()
	broadcaster := shopstatus.NewBroadcaster(settingsSource(db), hub, 30*time.Second)
	broadcaster.Start()
	defer broadcaster.Stop()

	// Setup Gin router
	r := gin.Default()

	// CORS configuration - filter out empty strings from AllowOrigins
	origins := []string{os.Getenv("FRONTEND_URL"), os.Getenv("ADMIN_URL")}
	var filteredOrigins []string
	for _, o := range origins {
		if o != "" {
			filteredOrigins = append(filteredOrigins, o)
		}
	}
	if len(filteredOrigins) == 0 {
		filteredOrigins = []string{"http://localhost:3000"}
		logrus.Warn("no CORS origins configured, defaulting to http://localhost:3000")
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     filteredOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// Setup routes
	routes.SetupRoutes(r, db, hub, cache)

	// Start server with graceful shutdown
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// Run server in a goroutine
	go func() {
		logrus.WithField("port", port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("shutting down server")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Fatal("server forced to shutdown")
	}

	// Close database connection
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logrus.WithError(err).Error("error closing database connection")
		} else {
			logrus.Info("database connection closed")
		}
	}

	logrus.Info("server exited gracefully")
}

func settingsSource(db *gorm.DB) shopstatus.SettingsSource {
	return func() (models.TimeSettings, error) {
		return database.EnsureTimeSettings(db)
	}
}
