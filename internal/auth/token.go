// token.go implements registry API token generation/validation and the
// opaque confirmation tokens used to prove email possession.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// TokenLength is the length of the random part of an API token in bytes.
	TokenLength = 32

	// DisplayPrefixLength is the number of characters kept as the lookup prefix.
	DisplayPrefixLength = 10

	// BcryptCost is the cost factor for bcrypt hashing.
	BcryptCost = 12

	// APITokenPrefix marks registry API tokens on the wire.
	APITokenPrefix = "pkgr"

	// ConfirmationTokenLength is the byte length of email confirmation tokens.
	ConfirmationTokenLength = 32
)

// GenerateAPIToken creates a new random API token.
// Returns: full token (to show once), bcrypt hash (to store), display prefix.
func GenerateAPIToken() (token string, hash string, displayPrefix string, err error) {
	randomBytes := make([]byte, TokenLength)
	if _, err = rand.Read(randomBytes); err != nil {
		return "", "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	randomPart := base64.RawURLEncoding.EncodeToString(randomBytes)
	fullToken := fmt.Sprintf("%s_%s", APITokenPrefix, randomPart)

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(fullToken), BcryptCost)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to hash API token: %w", err)
	}

	prefix := fullToken
	if len(fullToken) > DisplayPrefixLength {
		prefix = fullToken[:DisplayPrefixLength]
	}

	return fullToken, string(hashBytes), prefix, nil
}

// ValidateAPIToken checks if a provided token matches the stored hash.
func ValidateAPIToken(providedToken, storedHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(providedToken))
	return err == nil
}

// DisplayPrefix returns the lookup prefix for a presented token.
func DisplayPrefix(token string) string {
	if len(token) > DisplayPrefixLength {
		return token[:DisplayPrefixLength]
	}
	return token
}

// GenerateConfirmationToken creates an opaque, unguessable token proving
// possession of an email address at issuance time. Unlike API tokens it is
// stored in the clear: it is single-purpose, tied to one address, and must
// be matchable by exact value in the confirmation lookup.
func GenerateConfirmationToken() (string, error) {
	randomBytes := make([]byte, ConfirmationTokenLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(randomBytes), nil
}

// ExtractBearerToken extracts the credential from an Authorization header.
// Expected format: "Bearer <jwt-or-api-token>".
func ExtractBearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization header is empty")
	}

	if !strings.HasPrefix(header, "Bearer ") {
		return "", errors.New("authorization header must start with 'Bearer '")
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", errors.New("authorization token is empty")
	}

	return token, nil
}
