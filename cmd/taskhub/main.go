package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/taskhub-dev/taskhub/db"
	"github.com/taskhub-dev/taskhub/internal/auth"
	"github.com/taskhub-dev/taskhub/internal/events"
	"github.com/taskhub-dev/taskhub/internal/handlers"
	"github.com/taskhub-dev/taskhub/internal/notify"
	"github.com/taskhub-dev/taskhub/internal/roles"
	"github.com/taskhub-dev/taskhub/internal/router"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if err := auth.InitJWTSecret(); err != nil {
		log.Fatalf("Failed to initialize JWT secret: %v", err)
	}

	if err := db.ConnectDatabase(os.Getenv("DATABASE_URL")); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.MigrateDatabase(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	store := roles.NewStore(db.DB)

	if err := store.SeedGroups(); err != nil {
		log.Fatalf("Failed to seed role groups: %v", err)
	}

	var channel notify.Channel = notify.LogChannel{}
	if url := os.Getenv("NOTIFY_WEBHOOK_URL"); url != "" {
		channel = notify.NewWebhookChannel(url)
	} else {
		log.Println("NOTIFY_WEBHOOK_URL not set, logging notifications instead of delivering")
	}

	dispatcher := notify.NewDispatcher(channel, notify.DispatcherConfig{})
	dispatcher.Start()

	source := events.NewSource(db.DB, store, dispatcher)
	source.Publish = handlers.BroadcastNotification

	handlers.Configure(store, source)

	r := router.NewRouter(store)

	var port string

	if port = os.Getenv("PORT"); port == "" {
		port = "3000"
		log.Println("PORT not set, defaulting to 3000")
	}

	// Stop the dispatcher on shutdown so in-flight deliveries finish their
	// current attempt.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("Shutting down...")
		dispatcher.Stop()
		os.Exit(0)
	}()

	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
