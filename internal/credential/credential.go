// Package credential generates tenant database names, usernames and passwords.
package credential

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/zulandar/multidb/internal/models"
)

// PasswordAlphabet is the symbol set generated passwords are drawn from.
const PasswordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ1234567890!@#$%"

// DefaultPasswordLength is used when GeneratePassword is given a non-positive length.
const DefaultPasswordLength = 16

// Owner segments are cut so generated names fit the tightest engine limits:
// MySQL user names and PostgreSQL identifiers.
const (
	maxUsernameLength   = 32
	maxIdentifierLength = 63
)

// GenerateDatabaseName returns "<owner>_<engine>_<8 hex>", with the owner cut
// so the name fits in 63 characters.
func GenerateDatabaseName(owner string, engine models.EngineType) (string, error) {
	suffix, err := hexSuffix(8)
	if err != nil {
		return "", fmt.Errorf("credential: generate database name: %w", err)
	}
	seg := truncate(SanitizeOwner(owner), maxIdentifierLength-len(engine)-len(suffix)-2)
	return fmt.Sprintf("%s_%s_%s", seg, engine, suffix), nil
}

// IsGeneratedDatabaseName reports whether name has the shape
// GenerateDatabaseName produces for engine.
func IsGeneratedDatabaseName(name string, engine models.EngineType) bool {
	marker := "_" + string(engine) + "_"
	i := strings.LastIndex(name, marker)
	if i <= 0 {
		return false
	}
	owner, suffix := name[:i], name[i+len(marker):]
	if len(suffix) != 8 || SanitizeOwner(owner) != owner {
		return false
	}
	for _, r := range suffix {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}

// GenerateUsername returns "user_<owner>_<6 hex>", with the owner cut so the
// name fits in 32 characters.
func GenerateUsername(owner string) (string, error) {
	suffix, err := hexSuffix(6)
	if err != nil {
		return "", fmt.Errorf("credential: generate username: %w", err)
	}
	seg := truncate(SanitizeOwner(owner), maxUsernameLength-len("user_")-len(suffix)-1)
	return fmt.Sprintf("user_%s_%s", seg, suffix), nil
}

// GeneratePassword samples length bytes from crypto/rand and maps each into
// PasswordAlphabet by modulo. The modulo bias is accepted.
func GeneratePassword(length int) (string, error) {
	if length <= 0 {
		length = DefaultPasswordLength
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("credential: generate password: %w", err)
	}
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = PasswordAlphabet[int(b)%len(PasswordAlphabet)]
	}
	return string(out), nil
}

// SanitizeOwner lower-cases an owner name and replaces anything outside
// [a-z0-9_] with '_', so generated names are valid unquoted identifiers on
// every engine.
func SanitizeOwner(owner string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(owner)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	return b.String()
}

// truncate cuts s to n bytes. Sanitized owners are ASCII.
func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// hexSuffix returns the first n hex digits of a random (v4) UUID.
func hexSuffix(n int) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(id.String(), "-", "")[:n], nil
}
