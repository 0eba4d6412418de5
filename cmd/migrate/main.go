// migrate applies the embedded schema migrations; run with go run ./cmd/migrate.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sungwon/erasure-bridge/internal/config"
	"github.com/sungwon/erasure-bridge/internal/storage"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	configDir := flag.String("config", "config", "Directory containing config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.Database.URL == "" {
		fmt.Fprintln(os.Stderr, "database.url is not set; set ERASURE_BRIDGE_DATABASE_URL or add it to config/config.yaml")
		os.Exit(1)
	}

	if err := storage.Migrate(cfg.Database.URL, *direction); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
	fmt.Printf("migrations applied (%s)\n", *direction)
}
