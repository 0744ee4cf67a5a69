// Package main is a development utility for generating an SDK credential pair
// with a ready-to-run SQL INSERT so developers can seed a usable key in a
// local database without going through the admin API. Do not use generated
// keys in production — create them through the console so rotation and audit
// logging apply.
package main

import (
	"fmt"
	"log"

	"github.com/pfeak/codegate/internal/auth"
)

func main() {
	key, secret, err := auth.GenerateAPIKey("cg_")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("API key: %s\n", key)
	fmt.Printf("Secret:  %s\n", secret)
	fmt.Println()
	fmt.Println("Seed it with (replace <project-id>):")
	fmt.Printf(`INSERT INTO api_keys (id, project_id, api_key, secret, is_active, created_at)
VALUES (replace(gen_random_uuid()::text, '-', ''), '<project-id>', '%s', '%s', TRUE, now());
`, key, secret)
}
