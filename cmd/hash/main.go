// Package main is a utility for bcrypt-hashing a password from the command
// line. Admin passwords are stored only as bcrypt hashes, so this tool is
// used when manually resetting an account in the database without running
// the full server.
//
// Usage: hash <password>
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/pfeak/codegate/internal/auth"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <password>", os.Args[0])
	}
	hash, err := auth.HashPassword(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(hash)
}
