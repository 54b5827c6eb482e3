package main

import (
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// Prints the PUBLISHER_SECRET_HASH value for a detector secret.
func main() {
	if len(os.Args) != 2 {
		log.Fatalf("usage: %s <secret>", os.Args[0])
	}

	secret := os.Args[1]
	if len(secret) < 6 {
		log.Fatal("secret must be at least 6 characters")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash secret: %v", err)
	}

	fmt.Printf("PUBLISHER_SECRET_HASH=%s\n", hashed)
}
