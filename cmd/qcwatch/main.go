package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/gyeh/qcwatch/internal/exitcode"
)

func main() {
	// A missing .env is normal; only the variables it sets matter.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitcode.UsageError)
	}
}
