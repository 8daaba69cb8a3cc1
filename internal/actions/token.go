package actions

import (
	"strings"

	"github.com/google/uuid"
)

// mintToken produces a fresh action id: a kind prefix followed by the
// 32 hex characters of a random UUIDv4. The randomness comes from
// crypto/rand via the uuid package, so tokens are unguessable and the
// collision probability within a registry generation is negligible.
func mintToken(kind Kind) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return tokenPrefixes[kind] + raw
}
