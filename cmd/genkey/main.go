package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
)

// Generates a service key for the attendance platform. The raw key
// goes into the platform's config; the engine side only needs the key
// added to SERVICE_KEYS.
func main() {
	prefix := "chamada_live_"
	if len(os.Args) > 1 && os.Args[1] == "test" {
		prefix = "chamada_test_"
	}

	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	key := prefix + hex.EncodeToString(raw)
	hash := sha256.Sum256([]byte(key))

	fmt.Printf("KEY=%s\nHASH=%s\n", key, hex.EncodeToString(hash[:]))
}
