package clinicapi

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/jwt"
)

// TokenSource provides the bearer token attached to every clinic API request.
type TokenSource interface {

	// Token returns a usable access token, or ErrNotAuthenticated when there is none.
	Token(ctx context.Context) (string, error)
}

// FileTokenSource reads the access token stored by the sign-in flow from a file,
// checking its expiration locally before handing it out so callers never spend a
// network round trip on a token the API would reject anyway.
type FileTokenSource struct {
	path string
}

// NewFileTokenSource creates a token source backed by the given file.
func NewFileTokenSource(path string) *FileTokenSource {
	return &FileTokenSource{path: path}
}

func (s *FileTokenSource) Token(ctx context.Context) (string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return "", ErrNotAuthenticated
	}
	token := strings.TrimSpace(string(raw))
	parsed, err := jwt.ParseString(token)
	if err != nil {
		return "", ErrNotAuthenticated
	}
	if !time.Now().Before(parsed.Expiration()) {
		return "", ErrNotAuthenticated
	}
	return token, nil
}

// StaticTokenSource always returns the same token. Useful for tests and scripts.
type StaticTokenSource string

func (s StaticTokenSource) Token(ctx context.Context) (string, error) {
	if s == "" {
		return "", ErrNotAuthenticated
	}
	return string(s), nil
}
