package main

import (
	"github.com/joho/godotenv"

	"teamops/internal/cmd"
)

func main() {
	// Load .env if present; environment variables already set win.
	_ = godotenv.Load()

	cmd.Execute()
}
