// Package random generates identifiers and access tokens.
package random

import (
	"strings"

	"github.com/google/uuid"
)

// UUID returns a new random client identity token.
func UUID() string {
	return uuid.NewString()
}

// Token returns a short URL-safe access token derived from a random UUID.
func Token() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
