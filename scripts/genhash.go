// genhash/main.go

// SEED_PASSWORD='Super-Long-Temp-Password' go run ./scripts/genhash.go

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/uncleisme/mobile-app/internal/auth"
)

func main() {
	pw := os.Getenv("SEED_PASSWORD")
	if pw == "" {
		log.Fatal("set SEED_PASSWORD")
	}
	if len(pw) < auth.MinPasswordLen {
		log.Fatalf("password must be at least %d characters", auth.MinPasswordLen)
	}
	phc, err := auth.HashPassword(pw, auth.DefaultArgonParams())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(phc)
}
