// Package main is a diagnostic tool for testing database connectivity and
// inspecting live CodeGate data. It connects, counts the projects and codes
// tables, and prints a summary. The binary exits non-zero on any failure so
// it can gate deployments on a reachable, migrated database.
package main

import (
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"

	"github.com/pfeak/codegate/internal/config"
	"github.com/pfeak/codegate/internal/db"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.Connect(cfg.Database.GetDSN(), 2, 1)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer database.Close()

	for _, table := range []string{"projects", "invitation_codes", "verification_logs", "admins"} {
		var count int
		if err := database.Get(&count, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)); err != nil {
			log.Fatalf("Failed to query %s: %v", table, err)
		}
		fmt.Printf("%-20s %d rows\n", table, count)
	}
	fmt.Println("Database OK")
}
