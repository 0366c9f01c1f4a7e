package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

const defaultHashSalt = "default-salt-change-in-production"

var hashSalt = defaultHashSalt

func init() {
	InitHashSalt()
}

// InitHashSalt reloads the hashing salt from LOG_HASH_SALT.
// In production, set LOG_HASH_SALT so hashes cannot be correlated across deployments.
func InitHashSalt() {
	hashSalt = os.Getenv("LOG_HASH_SALT")
	if hashSalt == "" {
		hashSalt = defaultHashSalt
	}
}

// HashOwnerID creates a privacy-preserving hash of an owner identity.
// This allows tracking user actions without exposing the identity itself.
func HashOwnerID(ownerID string) string {
	if ownerID == "" {
		return "<anonymous>"
	}
	data := ownerID + ":" + hashSalt
	hash := sha256.Sum256([]byte(data))
	// Return first 8 characters for readability
	return hex.EncodeToString(hash[:])[:8]
}

// SanitizeDescription removes or truncates sensitive information from descriptions.
// This redacts the description but preserves length information for debugging.
func SanitizeDescription(desc string) string {
	if desc == "" {
		return "<empty>"
	}

	words := strings.Fields(desc)
	return fmt.Sprintf("<redacted: %d words, %d chars>", len(words), len(desc))
}

// SanitizeText is a general-purpose sanitizer for any user-provided text.
func SanitizeText(text string) string {
	if text == "" {
		return "<empty>"
	}

	runes := []rune(text)
	if len(runes) <= 10 {
		return fmt.Sprintf("<%d chars>", len(runes))
	}

	return fmt.Sprintf("%s...<%d chars>", string(runes[:3]), len(runes))
}

// InitHashSaltForTesting pins the salt to a known value. Only tests call this.
func InitHashSaltForTesting(salt string) {
	hashSalt = salt
}
