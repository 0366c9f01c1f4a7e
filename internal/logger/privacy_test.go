package logger

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Initialize hash salt for all tests in this package.
	InitHashSaltForTesting("test-salt-for-unit-tests-minimum-32-chars")
	os.Exit(m.Run())
}

func TestHashOwnerID(t *testing.T) {
	t.Run("produces consistent hash for same owner", func(t *testing.T) {
		hash1 := HashOwnerID("user_2abc")
		hash2 := HashOwnerID("user_2abc")
		require.Equal(t, hash1, hash2)
	})

	t.Run("produces different hashes for different owners", func(t *testing.T) {
		hash1 := HashOwnerID("user_2abc")
		hash2 := HashOwnerID("user_9xyz")
		require.NotEqual(t, hash1, hash2)
	})

	t.Run("produces 8 character hash", func(t *testing.T) {
		hash := HashOwnerID("user_2abc")
		require.Len(t, hash, 8)
		require.NotContains(t, hash, "user")
	})

	t.Run("marks empty owner as anonymous", func(t *testing.T) {
		require.Equal(t, "<anonymous>", HashOwnerID(""))
	})

	t.Run("changes hash when salt changes", func(t *testing.T) {
		originalSalt := hashSalt
		defer func() { hashSalt = originalSalt }()

		hash1 := HashOwnerID("user_2abc")

		hashSalt = "different-salt"
		hash2 := HashOwnerID("user_2abc")

		require.NotEqual(t, hash1, hash2)
	})
}

func TestSanitizeDescription(t *testing.T) {
	t.Run("redacts empty description", func(t *testing.T) {
		result := SanitizeDescription("")
		require.Equal(t, "<empty>", result)
	})

	t.Run("shows word and character count", func(t *testing.T) {
		result := SanitizeDescription("lunch at hawker center")
		require.Contains(t, result, "4 words")
		require.Contains(t, result, "22 chars")
	})

	t.Run("preserves length information for debugging", func(t *testing.T) {
		desc := "expensive dinner with clients"
		result := SanitizeDescription(desc)
		require.Contains(t, result, "4 words")
		require.Contains(t, result, "29 chars")
		require.NotContains(t, result, "dinner")
		require.NotContains(t, result, "clients")
	})
}

func TestSanitizeText(t *testing.T) {
	t.Run("redacts empty text", func(t *testing.T) {
		result := SanitizeText("")
		require.Equal(t, "<empty>", result)
	})

	t.Run("shows length for short text", func(t *testing.T) {
		result := SanitizeText("short")
		require.Equal(t, "<5 chars>", result)
	})

	t.Run("shows prefix for longer text", func(t *testing.T) {
		result := SanitizeText("this is a long text")
		require.Contains(t, result, "thi...")
		require.Contains(t, result, "19 chars")
	})

	t.Run("counts runes, not bytes", func(t *testing.T) {
		result := SanitizeText("café au lait, très chaud")
		require.Equal(t, "caf...<24 chars>", result)
	})
}

func TestInitHashSalt(t *testing.T) {
	t.Run("falls back to default salt when unset", func(t *testing.T) {
		originalSalt := hashSalt
		defer func() { hashSalt = originalSalt }()

		t.Setenv("LOG_HASH_SALT", "")
		InitHashSalt()

		require.Equal(t, defaultHashSalt, hashSalt)
	})

	t.Run("loads LOG_HASH_SALT", func(t *testing.T) {
		originalSalt := hashSalt
		defer func() { hashSalt = originalSalt }()

		validSalt := "this-is-a-valid-salt-with-at-least-32-characters"
		t.Setenv("LOG_HASH_SALT", validSalt)
		InitHashSalt()

		require.Equal(t, validSalt, hashSalt)
	})
}
