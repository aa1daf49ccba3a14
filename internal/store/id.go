package store

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// idBytes yields identifiers of models.IDLength hex characters.
const idBytes = 12

// GenerateID returns a new random record identifier.
func GenerateID() (string, error) {
	return randomHex(idBytes)
}

func randomHex(numBytes int) (string, error) {
	if numBytes <= 0 {
		return "", fmt.Errorf("numBytes must be > 0")
	}
	buf := make([]byte, numBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
