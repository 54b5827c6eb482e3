package main

import (
	"fmt"
	"log"
	"time"

	"motion-monitor/be/config"
	"motion-monitor/be/handlers"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	token, expiresAt, err := handlers.SignPublisherToken(cfg.JWT, cfg.Publisher.ClientID)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}

	fmt.Printf("Token for %s (expires %s):\n%s\n",
		cfg.Publisher.ClientID, time.Unix(expiresAt, 0).Format(time.RFC3339), token)
}
