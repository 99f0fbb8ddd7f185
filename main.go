package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/ziadkadry99/lmsbot/cmd"
)

func main() {
	// API keys may live in a local .env during development.
	godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
