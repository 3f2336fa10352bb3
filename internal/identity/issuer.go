// Package identity issues and renders the QR identity tokens handed to
// customers for portal access.
package identity

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// TokenPrefix marks every customer identity token.
const TokenPrefix = "CL-"

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ErrTokenSpaceExhausted is returned when the issuer cannot find an unused
// token within its attempt budget. Practically unreachable given token
// entropy; kept as a real code path so callers can handle it.
var ErrTokenSpaceExhausted = errors.New("identity: token space exhausted")

// TokenPattern matches well formed identity tokens.
var TokenPattern = regexp.MustCompile(`^CL-[A-Z0-9]{8,}$`)

// ExistsFunc reports whether a token is already assigned. The check must run
// against the authoritative store, not a cache.
type ExistsFunc func(ctx context.Context, token string) (bool, error)

// Issuer generates unique customer identity tokens.
type Issuer struct {
	exists      ExistsFunc
	length      int
	maxAttempts int
}

// Option customises an Issuer.
type Option func(*Issuer)

// WithTokenLength sets the random suffix length (minimum 8).
func WithTokenLength(n int) Option {
	return func(i *Issuer) {
		if n >= 8 {
			i.length = n
		}
	}
}

// WithMaxAttempts bounds how many candidates are tried before giving up.
func WithMaxAttempts(n int) Option {
	return func(i *Issuer) {
		if n > 0 {
			i.maxAttempts = n
		}
	}
}

// NewIssuer constructs an Issuer backed by the given existence check.
func NewIssuer(exists ExistsFunc, opts ...Option) *Issuer {
	issuer := &Issuer{
		exists:      exists,
		length:      8,
		maxAttempts: 10,
	}
	for _, opt := range opts {
		opt(issuer)
	}
	return issuer
}

// Issue produces a new unique token, retrying on collision up to the
// configured attempt budget.
func (i *Issuer) Issue(ctx context.Context) (string, error) {
	for attempt := 0; attempt < i.maxAttempts; attempt++ {
		token, err := i.generate()
		if err != nil {
			return "", fmt.Errorf("identity: generate token: %w", err)
		}
		taken, err := i.exists(ctx, token)
		if err != nil {
			return "", fmt.Errorf("identity: uniqueness check: %w", err)
		}
		if !taken {
			return token, nil
		}
	}
	return "", ErrTokenSpaceExhausted
}

func (i *Issuer) generate() (string, error) {
	// 252 is the largest multiple of the alphabet size below 256; higher
	// bytes are redrawn so every character is equally likely.
	const limit = 252
	want := len(TokenPrefix) + i.length

	var sb strings.Builder
	sb.WriteString(TokenPrefix)
	buf := make([]byte, i.length)
	for sb.Len() < want {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			sb.WriteByte(tokenAlphabet[int(b)%len(tokenAlphabet)])
			if sb.Len() == want {
				break
			}
		}
	}
	return sb.String(), nil
}

// PortalURL deterministically maps a token to its stable public path.
func PortalURL(baseURL, prefix, token string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(baseURL, "/"), strings.Trim(prefix, "/"), token)
}
