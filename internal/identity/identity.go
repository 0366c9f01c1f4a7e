// Package identity resolves the owner of an incoming request.
package identity

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthenticated is returned when a request carries no usable identity.
var ErrUnauthenticated = errors.New("unauthenticated")

// MaxOwnerIDLength bounds owner ids taken from request headers.
const MaxOwnerIDLength = 128

// Resolver maps a request to an owner id.
type Resolver interface {
	Resolve(r *http.Request) (string, error)
}

// HeaderResolver trusts an owner id forwarded by a gateway or identity
// provider in a request header.
type HeaderResolver struct {
	Header string
}

// NewHeaderResolver returns a HeaderResolver reading header.
func NewHeaderResolver(header string) *HeaderResolver {
	return &HeaderResolver{Header: header}
}

// Resolve implements Resolver.
func (h *HeaderResolver) Resolve(r *http.Request) (string, error) {
	owner := strings.TrimSpace(r.Header.Get(h.Header))
	if owner == "" || len(owner) > MaxOwnerIDLength {
		return "", ErrUnauthenticated
	}
	return owner, nil
}

// TokenResolver maps static bearer tokens to owner ids.
type TokenResolver struct {
	tokens map[string]string
}

// NewTokenResolver returns a TokenResolver over a token → owner map.
func NewTokenResolver(tokens map[string]string) *TokenResolver {
	cp := make(map[string]string, len(tokens))
	for token, owner := range tokens {
		cp[token] = owner
	}
	return &TokenResolver{tokens: cp}
}

// Resolve implements Resolver.
func (t *TokenResolver) Resolve(r *http.Request) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrUnauthenticated
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrUnauthenticated
	}

	// Compare against every token so timing does not leak which one matched.
	var owner string
	for candidate, o := range t.tokens {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(token)) == 1 {
			owner = o
		}
	}
	if owner == "" {
		return "", ErrUnauthenticated
	}
	return owner, nil
}
