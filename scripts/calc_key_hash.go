package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
)

// calc_key_hash.go - Utility to calculate the SHA256 hash of a service key
//
// Usage:
//   go run scripts/calc_key_hash.go <service_key>
//
// Example:
//   go run scripts/calc_key_hash.go chamada_test_devdevdevdevdevdevdevdevdevdev00

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run calc_key_hash.go <service_key>")
		fmt.Println("")
		fmt.Println("Example:")
		fmt.Println("  go run scripts/calc_key_hash.go chamada_test_devdevdevdevdevdevdevdevdevdev00")
		os.Exit(1)
	}

	key := os.Args[1]
	hash := sha256.Sum256([]byte(key))

	fmt.Printf("Service Key: %s\n", key)
	fmt.Printf("SHA256:      %s\n", hex.EncodeToString(hash[:]))
}
