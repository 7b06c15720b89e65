package main

import (
	"log"

	"github.com/MrSnakeDoc/tweetvault/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ tweetvault failed to start: %v", err)
	}
}
